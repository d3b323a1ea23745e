// Package server provides the HTTP REST API for proposal evaluation.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/sankalp-ai/sankalp/internal/schemas"
	"github.com/sankalp-ai/sankalp/internal/types"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound    *types.NotFoundError
		validation  *types.ValidationError
		schemaError *schemas.ValidationError
		upstream    *types.UpstreamUnavailableError
		malformed   *types.MalformedResponseError
		conflict    *types.ConflictError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.As(err, &schemaError):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &upstream), errors.As(err, &malformed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is the machine-readable error kind returned alongside the message.
func errorCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadGateway:
		return "upstream_error"
	case http.StatusGatewayTimeout:
		return "timeout"
	default:
		return "internal_error"
	}
}
