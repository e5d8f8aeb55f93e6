package calendar

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleService implements Service on the Google Calendar v3 API using a
// service account
type GoogleService struct {
	events *gcal.EventsService
}

// NewGoogleService loads service account credentials and checks that the
// calendar is reachable. Every failure is a *ConfigError.
func NewGoogleService(ctx context.Context, credentialsPath, calendarID string) (*GoogleService, error) {
	if credentialsPath == "" {
		return nil, &ConfigError{Setting: "GOOGLE_CREDENTIALS_PATH", Err: errors.New("not set")}
	}
	if calendarID == "" {
		return nil, &ConfigError{Setting: "GOOGLE_CALENDAR_ID", Err: errors.New("not set")}
	}

	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, &ConfigError{Setting: "GOOGLE_CREDENTIALS_PATH", Err: err}
	}

	creds, err := google.CredentialsFromJSON(ctx, data, gcal.CalendarScope, gcal.CalendarEventsScope)
	if err != nil {
		return nil, &ConfigError{Setting: "GOOGLE_CREDENTIALS_PATH", Err: fmt.Errorf("invalid credentials file: %w", err)}
	}

	srv, err := gcal.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, &ConfigError{Setting: "GOOGLE_CREDENTIALS_PATH", Err: fmt.Errorf("failed to create calendar client: %w", err)}
	}

	cal, err := srv.Calendars.Get(calendarID).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			err = fmt.Errorf("calendar %s not found, share it with the service account: %w", calendarID, err)
		}
		return nil, &ConfigError{Setting: "GOOGLE_CALENDAR_ID", Err: err}
	}
	log.Printf("Connected to calendar: %s", cal.Summary)

	return &GoogleService{events: srv.Events}, nil
}

func (s *GoogleService) GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error) {
	ev, err := s.events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, wrapError("get", err)
	}
	return fromGoogleEvent(ev), nil
}

func (s *GoogleService) InsertEvent(ctx context.Context, calendarID string, event *Event) (*Event, error) {
	ev, err := s.events.Insert(calendarID, toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		return nil, wrapError("insert", err)
	}
	return fromGoogleEvent(ev), nil
}

// UpdateEvent patches only the fields Event carries, so attendees or
// colours added by hand in the calendar survive.
func (s *GoogleService) UpdateEvent(ctx context.Context, calendarID, eventID string, event *Event) (*Event, error) {
	ev, err := s.events.Patch(calendarID, eventID, toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		return nil, wrapError("update", err)
	}
	return fromGoogleEvent(ev), nil
}

func (s *GoogleService) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := s.events.Delete(calendarID, eventID).SendUpdates("all").Context(ctx).Do(); err != nil {
		return wrapError("delete", err)
	}
	return nil
}

func toGoogleEvent(e *Event) *gcal.Event {
	overrides := make([]*gcal.EventReminder, 0, len(e.ReminderMinutes))
	for _, m := range e.ReminderMinutes {
		overrides = append(overrides, &gcal.EventReminder{Method: "popup", Minutes: int64(m)})
	}

	return &gcal.Event{
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
		Start:       &gcal.EventDateTime{DateTime: e.Start.Format(time.RFC3339), TimeZone: e.TimeZone},
		End:         &gcal.EventDateTime{DateTime: e.End.Format(time.RFC3339), TimeZone: e.TimeZone},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides:  overrides,
			// false is the zero value and would otherwise be dropped from the request
			ForceSendFields: []string{"UseDefault", "Overrides"},
		},
		// An empty location must clear the previous one on patch
		ForceSendFields: []string{"Location", "Description"},
	}
}

func fromGoogleEvent(ev *gcal.Event) *Event {
	e := &Event{
		ID:          ev.Id,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
	}
	if ev.Start != nil {
		e.Start, _ = time.Parse(time.RFC3339, ev.Start.DateTime)
		e.TimeZone = ev.Start.TimeZone
	}
	if ev.End != nil {
		e.End, _ = time.Parse(time.RFC3339, ev.End.DateTime)
	}
	if ev.Reminders != nil {
		for _, r := range ev.Reminders.Overrides {
			e.ReminderMinutes = append(e.ReminderMinutes, int(r.Minutes))
		}
	}
	return e
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone
	}
	return false
}

func wrapError(op string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%s event: %w: %v", op, ErrEventNotFound, err)
	}
	return fmt.Errorf("%s event: %w", op, err)
}
