package models

import (
	"strings"
	"time"
)

// LessonInput is a complete set of lesson fields plus the students to assign
type LessonInput struct {
	LessonDate string `validate:"required,datetime=2006-01-02"`
	StartTime  string `validate:"required,datetime=15:04"`
	EndTime    string `validate:"required,datetime=15:04"`
	Instructor string `validate:"required,max=100"`
	LocationID *int64
	Notes      string
	EntryCode  string `validate:"max=20"`
	StudentIDs []int64
}

// Normalize trims surrounding whitespace from the text fields and zero-pads
// parseable times, so "9:00" is stored as "09:00"
func (in *LessonInput) Normalize() {
	in.LessonDate = strings.TrimSpace(in.LessonDate)
	in.StartTime = canonicalTime(in.StartTime)
	in.EndTime = canonicalTime(in.EndTime)
	in.Instructor = strings.TrimSpace(in.Instructor)
	in.Notes = strings.TrimSpace(in.Notes)
	in.EntryCode = strings.TrimSpace(in.EntryCode)
}

func canonicalTime(value string) string {
	value = strings.TrimSpace(value)
	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		return value
	}
	return t.Format(TimeLayout)
}

// Field is an optional patch value. A zero Field means "leave unchanged",
// which is distinct from setting the zero value.
type Field[T any] struct {
	Value T
	Set   bool
}

// Some returns a Field that replaces the current value with v
func Some[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// Or returns the patch value when set, else current
func (f Field[T]) Or(current T) T {
	if f.Set {
		return f.Value
	}
	return current
}

// LessonPatch carries a partial lesson update. StudentIDs, when set, is the
// desired complete roster. Statuses changes attendance for students that
// stay assigned.
type LessonPatch struct {
	LessonDate Field[string]
	StartTime  Field[string]
	EndTime    Field[string]
	Instructor Field[string]
	LocationID Field[*int64]
	Notes      Field[string]
	EntryCode  Field[string]
	StudentIDs Field[[]int64]
	Statuses   map[int64]AttendanceStatus
}

// Merge applies the patch over the current lesson and returns the full
// resulting field set. Absent fields keep their stored values.
func (p LessonPatch) Merge(current *Lesson) LessonInput {
	in := LessonInput{
		LessonDate: p.LessonDate.Or(current.LessonDate),
		StartTime:  p.StartTime.Or(current.StartTime),
		EndTime:    p.EndTime.Or(current.EndTime),
		Instructor: p.Instructor.Or(current.Instructor),
		LocationID: p.LocationID.Or(current.LocationID),
		Notes:      p.Notes.Or(current.Notes),
		EntryCode:  p.EntryCode.Or(current.EntryCode),
		StudentIDs: p.StudentIDs.Or(current.StudentIDs()),
	}
	in.Normalize()
	return in
}
