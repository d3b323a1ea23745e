package evaluation

import (
	"errors"
	"fmt"

	"github.com/sankalp-ai/sankalp/internal/types"
)

var errNoveltyNotConfigured = errors.New("no novelty service configured")

// DimensionError records why one dimension of a run was left unscored.
type DimensionError struct {
	Dimension types.Dimension
	Cause     error
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s evaluation failed: %v", e.Dimension, e.Cause)
}

func (e *DimensionError) Unwrap() error {
	return e.Cause
}
