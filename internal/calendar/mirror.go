package calendar

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"padelmanager/internal/models"
)

// Mirror translates lessons into calendar events on one calendar
type Mirror struct {
	service         Service
	calendarID      string
	location        *time.Location
	reminderMinutes int
}

// NewMirror creates a mirror writing to calendarID. Event times are
// expressed in loc.
func NewMirror(service Service, calendarID string, loc *time.Location, reminderMinutes int) *Mirror {
	return &Mirror{
		service:         service,
		calendarID:      calendarID,
		location:        loc,
		reminderMinutes: reminderMinutes,
	}
}

// BuildEvent renders the event for a lesson without contacting the calendar
func (m *Mirror) BuildEvent(lesson *models.Lesson) (*Event, error) {
	start, err := lesson.StartAt(m.location)
	if err != nil {
		return nil, err
	}
	end, err := lesson.EndAt(m.location)
	if err != nil {
		return nil, err
	}

	event := &Event{
		Summary:     Summary(lesson.Students()),
		Description: Description(lesson),
		Location:    LocationText(lesson),
		Start:       start,
		End:         end,
		TimeZone:    m.location.String(),
	}
	if m.reminderMinutes > 0 {
		event.ReminderMinutes = []int{m.reminderMinutes}
	}
	return event, nil
}

// CreateLessonEvent creates a new event and returns its id
func (m *Mirror) CreateLessonEvent(ctx context.Context, lesson *models.Lesson) (string, error) {
	event, err := m.BuildEvent(lesson)
	if err != nil {
		return "", err
	}

	created, err := m.service.InsertEvent(ctx, m.calendarID, event)
	if err != nil {
		return "", fmt.Errorf("failed to create event for lesson %d: %w", lesson.ID, err)
	}
	log.Printf("Calendar event %s created for lesson %d", created.ID, lesson.ID)
	return created.ID, nil
}

// UpdateLessonEvent rewrites the event behind eventID. When the event cannot
// be fetched or updated it is deleted and created again.
//
// The returned id is the one the lesson should reference afterwards: eventID
// when the update went through, a fresh id after a successful recreate, and
// "" when the old event is gone but no replacement could be created.
func (m *Mirror) UpdateLessonEvent(ctx context.Context, eventID string, lesson *models.Lesson) (string, error) {
	event, err := m.BuildEvent(lesson)
	if err != nil {
		return eventID, err
	}

	updateErr := m.update(ctx, eventID, event)
	if updateErr == nil {
		return eventID, nil
	}
	log.Printf("Calendar update of event %s for lesson %d failed, recreating: %v", eventID, lesson.ID, updateErr)

	if err := m.service.DeleteEvent(ctx, m.calendarID, eventID); err != nil && !errors.Is(err, ErrEventNotFound) {
		// The stale event may still exist, so keep pointing at it
		return eventID, errors.Join(updateErr, fmt.Errorf("failed to delete stale event %s: %w", eventID, err))
	}

	created, err := m.service.InsertEvent(ctx, m.calendarID, event)
	if err != nil {
		return "", errors.Join(updateErr, fmt.Errorf("failed to recreate event for lesson %d: %w", lesson.ID, err))
	}
	log.Printf("Calendar event for lesson %d recreated as %s", lesson.ID, created.ID)
	return created.ID, nil
}

func (m *Mirror) update(ctx context.Context, eventID string, event *Event) error {
	if _, err := m.service.GetEvent(ctx, m.calendarID, eventID); err != nil {
		return err
	}
	_, err := m.service.UpdateEvent(ctx, m.calendarID, eventID, event)
	return err
}

// DeleteLessonEvent removes the event. An event that is already gone counts
// as deleted.
func (m *Mirror) DeleteLessonEvent(ctx context.Context, eventID string) error {
	err := m.service.DeleteEvent(ctx, m.calendarID, eventID)
	if err != nil && !errors.Is(err, ErrEventNotFound) {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
	return nil
}
