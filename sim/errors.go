package sim

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable is returned when a round needs a prediction but no
// model has been set. The controller treats it as a silently skipped tick.
var ErrModelUnavailable = errors.New("model unavailable")

// ErrBoardWidthMismatch is returned when loaded draw data does not have the
// board width the current model predicts. Nothing is changed.
var ErrBoardWidthMismatch = errors.New("board width mismatch")

// InferenceError wraps a failed prediction. The round is skipped with a log
// entry and the loop keeps running.
type InferenceError struct {
	Round int64
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed in round %d: %v", e.Round, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}
