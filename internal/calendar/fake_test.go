package calendar

import (
	"context"
	"errors"
	"fmt"
)

// fakeService is an in-memory Service with switchable failures
type fakeService struct {
	events  map[string]*Event
	nextID  int
	calls   []string
	failGet error
	failIns error
	failUpd error
	failDel error
}

func newFakeService() *fakeService {
	return &fakeService{events: make(map[string]*Event)}
}

func (f *fakeService) GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error) {
	f.calls = append(f.calls, "get:"+eventID)
	if f.failGet != nil {
		return nil, f.failGet
	}
	ev, ok := f.events[eventID]
	if !ok {
		return nil, fmt.Errorf("get: %w", ErrEventNotFound)
	}
	return ev, nil
}

func (f *fakeService) InsertEvent(ctx context.Context, calendarID string, event *Event) (*Event, error) {
	f.calls = append(f.calls, "insert")
	if f.failIns != nil {
		return nil, f.failIns
	}
	f.nextID++
	stored := *event
	stored.ID = fmt.Sprintf("evt-%d", f.nextID)
	f.events[stored.ID] = &stored
	return &stored, nil
}

func (f *fakeService) UpdateEvent(ctx context.Context, calendarID, eventID string, event *Event) (*Event, error) {
	f.calls = append(f.calls, "update:"+eventID)
	if f.failUpd != nil {
		return nil, f.failUpd
	}
	if _, ok := f.events[eventID]; !ok {
		return nil, fmt.Errorf("update: %w", ErrEventNotFound)
	}
	stored := *event
	stored.ID = eventID
	f.events[eventID] = &stored
	return &stored, nil
}

func (f *fakeService) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	f.calls = append(f.calls, "delete:"+eventID)
	if f.failDel != nil {
		return f.failDel
	}
	if _, ok := f.events[eventID]; !ok {
		return fmt.Errorf("delete: %w", ErrEventNotFound)
	}
	delete(f.events, eventID)
	return nil
}

var errTransient = errors.New("connection reset")
