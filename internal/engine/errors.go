package engine

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/clusterbench-cli/internal/dataprep"
	"github.com/KaramelBytes/clusterbench-cli/internal/elbow"
	"github.com/KaramelBytes/clusterbench-cli/internal/kmeans"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrComputation is matched by every *ComputationError.
	ErrComputation = errors.New("computation failed")
)

// ValidationError reports input that was rejected before any computation.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ValidationError struct {
	Field  string
	Reason string
	cause  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.cause }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ComputationError reports that clustering at K failed on every attempt.
type ComputationError struct {
	K        int
	Attempts int
	Err      error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("clustering with k=%d failed after %d attempts: %v", e.K, e.Attempts, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

func (e *ComputationError) Is(target error) bool { return target == ErrComputation }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// translateError maps errors of the lower layers onto the engine taxonomy.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var rej *kmeans.RejectedError
	if errors.As(err, &rej) {
		return &ComputationError{K: rej.K, Attempts: rej.Attempts, Err: rej.Last}
	}

	switch {
	case errors.Is(err, kmeans.ErrInvalidK), errors.Is(err, kmeans.ErrTooFewDistinct):
		return &ValidationError{Field: "k", Reason: err.Error(), cause: err}
	case errors.Is(err, elbow.ErrNoKValues):
		return &ValidationError{Field: "k values", Reason: err.Error(), cause: err}
	case errors.Is(err, kmeans.ErrNoFeatures), errors.Is(err, dataprep.ErrUnknownColumn):
		return &ValidationError{Field: "columns", Reason: err.Error(), cause: err}
	case errors.Is(err, elbow.ErrInvalidFallback):
		return &ValidationError{Field: "fallback", Reason: err.Error(), cause: err}
	case errors.Is(err, dataprep.ErrUnknownMode):
		return &ValidationError{Field: "mode", Reason: err.Error(), cause: err}
	}
	return err
}
