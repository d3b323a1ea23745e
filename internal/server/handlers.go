package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sankalp-ai/sankalp/internal/evaluation"
	"github.com/sankalp-ai/sankalp/internal/ingestion"
	"github.com/sankalp-ai/sankalp/internal/server/middleware"
	"github.com/sankalp-ai/sankalp/internal/types"
)

// maxBodyBytes bounds request bodies; proposal texts are the largest.
const maxBodyBytes = 8 << 20

// dimensionAll selects every dimension in an evaluation request.
const dimensionAll = "all"

// TextRequest is the JSON body of PUT /proposals/{id}/text
type TextRequest struct {
	Text   string `json:"text" validate:"required"`
	Format string `json:"format,omitempty" validate:"omitempty,oneof=text markdown html"`
}

// TextResponse acknowledges a stored proposal text
type TextResponse struct {
	ProposalID string    `json:"proposal_id"`
	Characters int       `json:"characters"`
	CreatedAt  time.Time `json:"created_at"`
}

// EvaluateRequest is the body of POST /proposals/{id}/evaluations. An empty body evaluates every dimension.
type EvaluateRequest struct {
	Dimension string `json:"dimension,omitempty" validate:"omitempty,oneof=finance technical relevance novelty all"`
}

// DimensionRequest is a manual evaluator edit of one dimension.
// TotalProposalsChecked and SimilarProposals only apply to novelty.
type DimensionRequest struct {
	Score                 *float64                `json:"score" validate:"required,gte=0,lte=10"`
	SubScores             map[string]float64      `json:"sub_scores,omitempty" validate:"omitempty,max=4,dive,gte=0,lte=10"`
	Notes                 []string                `json:"notes,omitempty"`
	TotalProposalsChecked int                     `json:"total_proposals_checked,omitempty" validate:"gte=0"`
	SimilarProposals      []types.SimilarProposal `json:"similar_proposals,omitempty"`
}

// RemarksRequest is the body of PUT /proposals/{id}/scorecard/remarks
type RemarksRequest struct {
	Remarks string `json:"remarks" validate:"max=10000"`
}

// SimilarityRequest is the body of POST /similarity
type SimilarityRequest struct {
	ProposalA string `json:"proposal_a" validate:"required"`
	ProposalB string `json:"proposal_b" validate:"required"`
}

// handlePutText stores the text of a proposal. JSON bodies carry the text in a field;
// any other content type is taken as the document itself, with text/html extracted first.
func (s *Server) handlePutText(w http.ResponseWriter, r *http.Request) {
	proposalID := r.PathValue("id")

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var req TextRequest
	if mediaType == "application/json" {
		if !s.decode(w, r, &req, false) {
			return
		}
	} else {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
		req.Text = string(body)
		if mediaType == "text/html" {
			req.Format = ingestion.FormatHTML
		}
	}

	text := req.Text
	if req.Format == ingestion.FormatHTML {
		extracted, err := ingestion.ExtractHTMLText(text)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		text = extracted
	}

	stored, err := s.service.SubmitText(r.Context(), proposalID, text)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, TextResponse{
		ProposalID: stored.ProposalID,
		Characters: len([]rune(stored.RawText)),
		CreatedAt:  stored.CreatedAt,
	})
}

// handleEvaluate runs providers for one or all dimensions and stores their results
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !s.decode(w, r, &req, true) {
		return
	}

	proposalID := r.PathValue("id")
	dimensions := types.AllDimensions()
	if req.Dimension != "" && req.Dimension != dimensionAll {
		d, err := types.ParseDimension(req.Dimension)
		if err != nil {
			s.serviceError(w, r, err)
			return
		}
		dimensions = []types.Dimension{d}
	}

	run, err := s.service.Evaluate(r.Context(), proposalID, dimensions...)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// handleGetScorecard returns the stored scorecard of a proposal
func (s *Server) handleGetScorecard(w http.ResponseWriter, r *http.Request) {
	sc, err := s.service.GetScorecard(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sc)
}

// handlePutDimension stores a manual evaluator edit of one dimension
func (s *Server) handlePutDimension(w http.ResponseWriter, r *http.Request) {
	dimension, err := types.ParseDimension(r.PathValue("dimension"))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	var req DimensionRequest
	if !s.decode(w, r, &req, false) {
		return
	}
	if err := checkSubScoreNames(dimension, req.SubScores); err != nil {
		s.serviceError(w, r, err)
		return
	}

	var result types.DimensionResult
	if dimension == types.DimensionNovelty {
		result = &types.NoveltyScore{
			Score:                 *req.Score,
			TotalProposalsChecked: req.TotalProposalsChecked,
			SimilarProposals:      req.SimilarProposals,
			SubScores:             req.SubScores,
		}
	} else {
		result = &types.DimensionScore{
			Dimension: dimension,
			Score:     *req.Score,
			SubScores: req.SubScores,
			Notes:     req.Notes,
		}
	}

	proposalID := r.PathValue("id")
	sc, err := s.service.UpsertScorecard(r.Context(), proposalID, result)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.logEdit(r, "set "+dimension.String(), proposalID)
	s.jsonResponse(w, http.StatusOK, sc)
}

// checkSubScoreNames rejects sub-scores the dimension does not define.
func checkSubScoreNames(dimension types.Dimension, subScores map[string]float64) error {
	var allowed []string
	if dimension == types.DimensionNovelty {
		allowed = []string{types.NoveltyOriginality, types.NoveltyTechnicalNovelty, types.NoveltyApplicationNovelty}
	} else if def, ok := evaluation.DefinitionFor(dimension); ok {
		allowed = def.SubScores
	}
	for name := range subScores {
		if !slices.Contains(allowed, name) {
			return &types.ValidationError{
				Field:   "sub_scores",
				Message: fmt.Sprintf("unknown sub-score %q for %s; allowed: %s", name, dimension, strings.Join(allowed, ", ")),
			}
		}
	}
	return nil
}

// handleDeleteDimension marks one dimension unscored
func (s *Server) handleDeleteDimension(w http.ResponseWriter, r *http.Request) {
	dimension, err := types.ParseDimension(r.PathValue("dimension"))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	proposalID := r.PathValue("id")
	sc, err := s.service.ClearDimension(r.Context(), proposalID, dimension)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.logEdit(r, "cleared "+dimension.String(), proposalID)
	s.jsonResponse(w, http.StatusOK, sc)
}

// handlePutRemarks replaces the evaluator remarks
func (s *Server) handlePutRemarks(w http.ResponseWriter, r *http.Request) {
	var req RemarksRequest
	if !s.decode(w, r, &req, false) {
		return
	}

	proposalID := r.PathValue("id")
	sc, err := s.service.SetRemarks(r.Context(), proposalID, req.Remarks)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.logEdit(r, "updated remarks", proposalID)
	s.jsonResponse(w, http.StatusOK, sc)
}

// handleSimilarity compares two proposals. The report is not stored.
func (s *Server) handleSimilarity(w http.ResponseWriter, r *http.Request) {
	var req SimilarityRequest
	if !s.decode(w, r, &req, false) {
		return
	}

	report, err := s.service.CompareSimilarity(r.Context(), req.ProposalA, req.ProposalB)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

// decode reads a JSON body into dst and validates it. It writes the error response
// and returns false on failure. allowEmpty accepts a missing body as the zero value.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !(allowEmpty && errors.Is(err, io.EOF)) {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validator.Struct(dst); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return false
	}
	return true
}

// logEdit records which evaluator changed a scorecard.
func (s *Server) logEdit(r *http.Request, action, proposalID string) {
	evaluator, err := middleware.GetEvaluator(r)
	if err != nil {
		evaluator = "unknown"
	}
	log.Printf("[server] %s %s for %s", evaluator, action, proposalID)
}

// extractValidationErrors extracts validation error messages from validator errors.
func extractValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		msgs := make([]string, 0, len(validationErrors))
		for _, ve := range validationErrors {
			msgs = append(msgs, fmt.Sprintf("%s - %s", ve.Namespace(), ve.Tag()))
		}
		return "validation error: " + strings.Join(msgs, "; ")
	}
	return "validation error: invalid request"
}
