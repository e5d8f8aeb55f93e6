package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"padelmanager/internal/database"
	"padelmanager/internal/models"
	"padelmanager/internal/repository"
)

var errCalendarDown = errors.New("calendar unavailable")

// fakeMirror records calendar calls and fails them on demand
type fakeMirror struct {
	mu        sync.Mutex
	nextID    int
	events    map[string]*models.Lesson
	failNext  map[string]bool
	recreate  bool
	deleted   []string
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{events: map[string]*models.Lesson{}, failNext: map[string]bool{}}
}

func (m *fakeMirror) fail(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext[op] = true
}

func (m *fakeMirror) takeFailure(op string) bool {
	if m.failNext[op] {
		delete(m.failNext, op)
		return true
	}
	return false
}

func (m *fakeMirror) CreateLessonEvent(ctx context.Context, lesson *models.Lesson) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.takeFailure("create") {
		return "", errCalendarDown
	}
	m.nextID++
	id := fmt.Sprintf("evt-%d", m.nextID)
	m.events[id] = lesson
	return id, nil
}

func (m *fakeMirror) UpdateLessonEvent(ctx context.Context, eventID string, lesson *models.Lesson) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.takeFailure("update") {
		return eventID, errCalendarDown
	}
	if m.recreate {
		delete(m.events, eventID)
		m.nextID++
		id := fmt.Sprintf("evt-%d", m.nextID)
		m.events[id] = lesson
		return id, nil
	}
	m.events[eventID] = lesson
	return eventID, nil
}

func (m *fakeMirror) DeleteLessonEvent(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.takeFailure("delete") {
		return errCalendarDown
	}
	delete(m.events, eventID)
	m.deleted = append(m.deleted, eventID)
	return nil
}

type fakeNotifier struct {
	notified []models.Student
}

func (n *fakeNotifier) NotifyLowCredit(ctx context.Context, student models.Student) error {
	n.notified = append(n.notified, student)
	return nil
}

type testEnv struct {
	db        *database.DB
	students  *repository.StudentRepository
	locations *repository.LocationRepository
	lessons   *repository.LessonRepository
	users     *repository.UserRepository
	mirror    *fakeMirror
	service   *LessonService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}
	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:        db,
		students:  repository.NewStudentRepository(db),
		locations: repository.NewLocationRepository(db),
		lessons:   repository.NewLessonRepository(db),
		users:     repository.NewUserRepository(db),
		mirror:    newFakeMirror(),
	}
	env.service = NewLessonService(db, env.lessons, env.students, env.locations, env.mirror)
	return env
}

func (e *testEnv) student(t *testing.T, first string, credits int) *models.Student {
	t.Helper()
	s, err := e.students.Create(models.StudentInput{FirstName: first, LastName: "Jansen", Email: first + "@example.com", LessonsRemaining: credits})
	if err != nil {
		t.Fatalf("Create student %s: %v", first, err)
	}
	return s
}

func (e *testEnv) balance(t *testing.T, id int64) int {
	t.Helper()
	s, err := e.students.GetByID(id)
	if err != nil || s == nil {
		t.Fatalf("GetByID(%d) = %v, %v", id, s, err)
	}
	return s.LessonsRemaining
}

func lessonInput(studentIDs ...int64) models.LessonInput {
	return models.LessonInput{
		LessonDate: "2026-05-10",
		StartTime:  "10:00",
		EndTime:    "11:00",
		Instructor: "Coach Carla",
		StudentIDs: studentIDs,
	}
}
