// Package novelty calls the external novelty-checking service over HTTP.
package novelty

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/sankalp-ai/sankalp/internal/schemas"
	"github.com/sankalp-ai/sankalp/internal/types"
)

// DefaultTimeout bounds a single novelty check.
const DefaultTimeout = 30 * time.Second

// Supported upstream score scales.
const (
	Scale10  = 10
	Scale100 = 100
)

// DefaultScale is the scale the upstream service reports novelty on.
const DefaultScale = Scale100

// serviceName identifies the upstream in errors and logs
const serviceName = "novelty service"

// maxResponseBytes caps how much of a response body is read
const maxResponseBytes = 4 << 20

// Checker scores a proposal's novelty against the upstream corpus.
type Checker interface {
	Check(ctx context.Context, proposalID, text string) (*types.NoveltyScore, error)
}

// Options configures the novelty client.
type Options struct {
	URL     string
	Timeout time.Duration
	Scale   int // upstream scale of novelty_score and its sub-scores: 10 or 100
	Headers map[string]string
}

// DefaultOptions returns sensible defaults for url.
func DefaultOptions(url string) *Options {
	return &Options{
		URL:     url,
		Timeout: DefaultTimeout,
		Scale:   DefaultScale,
	}
}

// Client is an HTTP Checker.
type Client struct {
	endpoint   string
	scale      int
	headers    map[string]string
	httpClient *http.Client
}

var _ Checker = (*Client)(nil)

// NewClient validates opts and creates a client.
func NewClient(opts *Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("novelty options are required")
	}
	parsed, err := url.Parse(opts.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid novelty service URL %q", opts.URL)
	}
	scale := opts.Scale
	if scale == 0 {
		scale = DefaultScale
	}
	if scale != Scale10 && scale != Scale100 {
		return nil, fmt.Errorf("unsupported novelty scale %d (want %d or %d)", scale, Scale10, Scale100)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint:   opts.URL,
		scale:      scale,
		headers:    opts.Headers,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type checkRequest struct {
	ProposalID   string `json:"proposalId"`
	ProposalText string `json:"proposalText"`
}

type checkResponse struct {
	NoveltyScore          float64           `json:"novelty_score"`
	TotalProposalsChecked int               `json:"total_proposals_checked"`
	Originality           *float64          `json:"originality"`
	TechnicalNovelty      *float64          `json:"technical_novelty"`
	ApplicationNovelty    *float64          `json:"application_novelty"`
	SimilarProposals      []similarProposal `json:"similar_proposals"`
}

type similarProposal struct {
	ProposalID           string  `json:"proposal_id"`
	SimilarityPercentage float64 `json:"similarity_percentage"`
}

// Check posts the proposal to the novelty service and returns its score on the 0-10 scale.
// Transport failures and non-2xx statuses are *types.UpstreamUnavailableError; bodies that
// do not match the expected shape or range are *types.MalformedResponseError.
func (c *Client) Check(ctx context.Context, proposalID, text string) (*types.NoveltyScore, error) {
	payload, err := json.Marshal(checkRequest{ProposalID: proposalID, ProposalText: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode novelty request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create novelty request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &types.UpstreamUnavailableError{Service: serviceName, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &types.UpstreamUnavailableError{Service: serviceName, Cause: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &types.UpstreamUnavailableError{Service: serviceName, Cause: fmt.Errorf("HTTP status %d", resp.StatusCode)}
	}

	if err := schemas.Validate(schemas.Novelty, body); err != nil {
		return nil, &types.MalformedResponseError{Service: serviceName, Message: "response does not match schema", Cause: err}
	}

	var parsed checkResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &types.MalformedResponseError{Service: serviceName, Message: "invalid JSON", Cause: err}
	}

	score := c.toScore(&parsed)
	if err := score.Validate(); err != nil {
		return nil, &types.MalformedResponseError{Service: serviceName, Message: "score out of range", Cause: err}
	}
	return score, nil
}

// toScore converts an upstream response to the canonical scale, most similar proposals first.
func (c *Client) toScore(r *checkResponse) *types.NoveltyScore {
	score := &types.NoveltyScore{
		Score:                 c.normalize(r.NoveltyScore),
		TotalProposalsChecked: r.TotalProposalsChecked,
		SimilarProposals:      make([]types.SimilarProposal, 0, len(r.SimilarProposals)),
	}

	subs := map[string]*float64{
		types.NoveltyOriginality:        r.Originality,
		types.NoveltyTechnicalNovelty:   r.TechnicalNovelty,
		types.NoveltyApplicationNovelty: r.ApplicationNovelty,
	}
	for name, v := range subs {
		if v == nil {
			continue
		}
		if score.SubScores == nil {
			score.SubScores = make(map[string]float64, len(subs))
		}
		score.SubScores[name] = c.normalize(*v)
	}

	for _, p := range r.SimilarProposals {
		score.SimilarProposals = append(score.SimilarProposals, types.SimilarProposal{
			ProposalID:           p.ProposalID,
			SimilarityPercentage: p.SimilarityPercentage,
		})
	}
	sort.SliceStable(score.SimilarProposals, func(i, j int) bool {
		return score.SimilarProposals[i].SimilarityPercentage > score.SimilarProposals[j].SimilarityPercentage
	})
	return score
}

func (c *Client) normalize(v float64) float64 {
	if c.scale == Scale100 {
		return v / 10
	}
	return v
}
