package importer

import (
	"errors"
	"fmt"

	"github.com/shivambatholiya/knovator-job-import/internal/model"
)

// ValidationError is returned for bad caller input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ItemProcessingError wraps a failure to store one item. The run carries on;
// the queue decides whether the item gets another attempt.
type ItemProcessingError struct {
	Identifier string
	Err        error
}

func (e *ItemProcessingError) Error() string {
	return fmt.Sprintf("process item %s: %v", e.Identifier, e.Err)
}

func (e *ItemProcessingError) Unwrap() error { return e.Err }

// retryable is false for failures another attempt cannot fix.
func retryable(err error) bool {
	return !errors.Is(err, model.ErrTitleRequired)
}
