package types

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a referenced proposal text or scorecard does not exist
type NotFoundError struct {
	Resource string // "proposal text" or "scorecard"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// UpstreamUnavailableError indicates the completion or novelty service could not be reached or timed out
type UpstreamUnavailableError struct {
	Service string
	Cause   error
}

func (e *UpstreamUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s unavailable: %v", e.Service, e.Cause)
	}
	return fmt.Sprintf("%s unavailable", e.Service)
}

func (e *UpstreamUnavailableError) Unwrap() error {
	return e.Cause
}

// MalformedResponseError indicates an upstream response could not be parsed into the expected shape
type MalformedResponseError struct {
	Service string
	Message string
	Cause   error
}

func (e *MalformedResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed %s response: %s: %v", e.Service, e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed %s response: %s", e.Service, e.Message)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// ConflictError indicates a scorecard write kept losing optimistic-concurrency races
type ConflictError struct {
	ProposalID string
	Attempts   int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("scorecard %s: concurrent update conflict after %d attempts", e.ProposalID, e.Attempts)
}

// ValidationError indicates a request or result failed validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsUpstreamUnavailable reports whether err is or wraps an UpstreamUnavailableError.
func IsUpstreamUnavailable(err error) bool {
	var target *UpstreamUnavailableError
	return errors.As(err, &target)
}

// IsMalformedResponse reports whether err is or wraps a MalformedResponseError.
func IsMalformedResponse(err error) bool {
	var target *MalformedResponseError
	return errors.As(err, &target)
}
