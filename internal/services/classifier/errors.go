package classifier

import (
	"fmt"

	"weatherclassifier/internal/model"
)

// HistoryError reports a classification that succeeded but could not be recorded.
// Result holds the computed outcome so the caller can retry only the write with Pipeline.Record.
type HistoryError struct {
	Result *Result
	Err    error
}

func (e *HistoryError) Error() string {
	if e.Result == nil {
		return fmt.Sprintf("failed to record classification: %v", e.Err)
	}
	return fmt.Sprintf("failed to record classification of %s: %v", e.Result.ImageName, e.Err)
}

func (e *HistoryError) Unwrap() error {
	return e.Err
}

// Is makes every HistoryError match model.ErrStoreUnavailable.
func (e *HistoryError) Is(target error) bool {
	return target == model.ErrStoreUnavailable
}
