package service

import (
	"errors"
	"fmt"
)

var (
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrStudentNotFound    = errors.New("student not found")
	ErrLocationNotFound   = errors.New("location not found")
	ErrAlreadyAssigned    = errors.New("student is already assigned to this lesson")
	ErrAssignmentNotFound = errors.New("student is not assigned to this lesson")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrCalendarDisabled   = errors.New("calendar sync is not configured")
)

// MirrorError reports a calendar call that failed after the local change was
// committed. The lesson is saved but its event is missing or stale.
type MirrorError struct {
	Op       string
	LessonID int64
	Err      error
}

func (e *MirrorError) Error() string {
	return fmt.Sprintf("calendar %s for lesson %d failed: %v", e.Op, e.LessonID, e.Err)
}

func (e *MirrorError) Unwrap() error {
	return e.Err
}
