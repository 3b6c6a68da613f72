package service

import (
	"errors"
	"fmt"
)

// ErrUnknownSensor marks a reading whose sensor id is not in the registry.
// Rejected before any write.
var ErrUnknownSensor = errors.New("unknown sensor")

// PartialWriteError reports that one or more of the parallel downstream
// writes failed after others succeeded. Applied writes are not rolled back;
// the recompute path corrects any resulting drift.
type PartialWriteError struct {
	Err error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial write: %v", e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}
