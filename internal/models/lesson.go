package models

import (
	"fmt"
	"strings"
	"time"
)

// Layouts used for the civil date and time columns
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// AttendanceStatus is the per-student outcome of a lesson
type AttendanceStatus string

const (
	StatusPresent  AttendanceStatus = "Present"
	StatusAbsent   AttendanceStatus = "Absent"
	StatusCanceled AttendanceStatus = "Canceled"
)

// AttendanceStatuses lists the valid statuses in display order
var AttendanceStatuses = []AttendanceStatus{StatusPresent, StatusAbsent, StatusCanceled}

// Valid reports whether s is one of the known statuses
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusCanceled:
		return true
	}
	return false
}

// ParseAttendanceStatus accepts a status name in any letter case
func ParseAttendanceStatus(value string) (AttendanceStatus, error) {
	for _, status := range AttendanceStatuses {
		if strings.EqualFold(value, string(status)) {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid attendance status %q", value)
}

// Assignment links a student to a lesson
type Assignment struct {
	Student Student
	Status  AttendanceStatus
}

// Lesson is a scheduled coaching session.
// GoogleEventID is empty until the lesson has been mirrored to the calendar.
type Lesson struct {
	ID            int64
	LessonDate    string
	StartTime     string
	EndTime       string
	Instructor    string
	LocationID    *int64
	Notes         string
	GoogleEventID string
	EntryCode     string
	CreatedAt     time.Time

	Location    *Location
	Assignments []Assignment
}

// Students returns the assigned students in the order the repository loads
// them, which is by first name then last name
func (l *Lesson) Students() []Student {
	students := make([]Student, 0, len(l.Assignments))
	for _, a := range l.Assignments {
		students = append(students, a.Student)
	}
	return students
}

// StudentIDs returns the ids of the assigned students
func (l *Lesson) StudentIDs() []int64 {
	ids := make([]int64, 0, len(l.Assignments))
	for _, a := range l.Assignments {
		ids = append(ids, a.Student.ID)
	}
	return ids
}

// HasStudent reports whether the student is assigned
func (l *Lesson) HasStudent(studentID int64) bool {
	for _, a := range l.Assignments {
		if a.Student.ID == studentID {
			return true
		}
	}
	return false
}

// IsSynced reports whether a calendar event is linked
func (l *Lesson) IsSynced() bool {
	return l.GoogleEventID != ""
}

// StartAt combines the lesson date and start time in loc
func (l *Lesson) StartAt(loc *time.Location) (time.Time, error) {
	return combine(l.LessonDate, l.StartTime, loc)
}

// EndAt combines the lesson date and end time in loc
func (l *Lesson) EndAt(loc *time.Location) (time.Time, error) {
	return combine(l.LessonDate, l.EndTime, loc)
}

func combine(date, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid lesson date/time %q %q: %w", date, clock, err)
	}
	return t, nil
}

// StatusOf returns the attendance status of a student, or "" when the
// student is not assigned
func (l *Lesson) StatusOf(studentID int64) AttendanceStatus {
	for _, a := range l.Assignments {
		if a.Student.ID == studentID {
			return a.Status
		}
	}
	return ""
}
