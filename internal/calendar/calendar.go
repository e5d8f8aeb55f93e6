// Package calendar mirrors lessons onto an external calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrEventNotFound is returned when the referenced event no longer exists
var ErrEventNotFound = errors.New("calendar event not found")

// ConfigError is a fatal problem with the calendar configuration, detected
// when the service is constructed
type ConfigError struct {
	Setting string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("calendar configuration error (%s): %v", e.Setting, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Event is a vendor-neutral calendar entry
type Event struct {
	ID              string
	Summary         string
	Description     string
	Location        string
	Start           time.Time
	End             time.Time
	TimeZone        string
	ReminderMinutes []int
}

// Service is the subset of a calendar API the mirror needs.
// Implementations wrap missing events in ErrEventNotFound.
type Service interface {
	GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error)
	InsertEvent(ctx context.Context, calendarID string, event *Event) (*Event, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, event *Event) (*Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}
