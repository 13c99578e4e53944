package crm

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("crm: not found")
	ErrForbidden    = errors.New("crm: forbidden")
	ErrInvalidInput = errors.New("crm: invalid input")
	ErrConflict     = errors.New("crm: resource conflict")

	// ErrHasDependents is the target for errors.Is on DependentError.
	ErrHasDependents = errors.New("crm: dependent records exist")
)

// DependentError refuses a delete because child rows still reference the
// resource. Count is reported to the caller instead of cascading.
type DependentError struct {
	Resource string // e.g. "property", "deal", "task"
	Count    int
}

func (e *DependentError) Error() string {
	return fmt.Sprintf("crm: %d dependent %s record(s) exist", e.Count, e.Resource)
}

func (e *DependentError) Is(target error) bool {
	return target == ErrHasDependents
}
