package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"padelmanager/internal/database"
	"padelmanager/internal/models"
	"padelmanager/internal/repository"
	"padelmanager/internal/security"
	"padelmanager/internal/service"
	"padelmanager/internal/web"
)

const testSecret = "test-secret"

type testApp struct {
	handler  http.Handler
	csrf     *security.CSRFGenerator
	auth     *service.AuthService
	students *service.StudentService
	lessons  *service.LessonService
	startup  *StartupStatus
	session  string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	templates, err := web.LoadTemplates("")
	if err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	lessonRepo := repository.NewLessonRepository(db)

	app := &testApp{
		csrf:     security.NewCSRFGenerator(testSecret),
		auth:     service.NewAuthService(userRepo, time.Hour),
		students: service.NewStudentService(studentRepo),
		lessons:  service.NewLessonService(db, lessonRepo, studentRepo, locationRepo, nil),
		startup:  NewStartupStatus(StepDatabase, StepReady),
	}
	app.startup.MarkReady()

	locations := service.NewLocationService(locationRepo)
	view := NewView(templates, app.csrf, NewFlashStore(testSecret), ViewConfig{AppName: "PadelManager"})
	h := &Handlers{
		Middleware: NewMiddleware(app.auth, app.csrf, security.NewRateLimiter(100, time.Minute)),
		Auth:       NewAuthHandler(app.auth, view),
		Dashboard:  NewDashboardHandler(service.NewDashboardService(studentRepo, lessonRepo, 2), view),
		Students:   NewStudentHandler(app.students, app.lessons, view),
		Locations:  NewLocationHandler(locations, view),
		Lessons:    NewLessonHandler(app.lessons, app.students, locations, view),
		Startup:    app.startup,
		Static:     web.StaticHandler(""),
	}
	app.handler = h.Routes()
	return app
}

// login creates an administrator and keeps its session for later requests
func (a *testApp) login(t *testing.T) {
	t.Helper()
	if _, err := a.auth.CreateAdmin("coach", "coach@example.com", "padel-secret"); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	session, _, err := a.auth.Login("coach@example.com", "padel-secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	a.session = session.ID
}

func (a *testApp) get(t *testing.T, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	a.addSession(req)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// post submits a form with a valid CSRF token for the current session
func (a *testApp) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if a.session != "" {
		form.Set(CSRFFormField, a.csrf.Token(a.session))
	}
	return a.postRaw(t, path, form)
}

func (a *testApp) postRaw(t *testing.T, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	a.addSession(req)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) addSession(req *http.Request) {
	if a.session != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: a.session})
	}
}

// responseCookie returns the last cookie set under name, since a handler may
// save the flash session more than once
func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

func expectRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303; body: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != location {
		t.Fatalf("Location = %q, want %q", got, location)
	}
}

func TestProtectedPagesRedirectToLogin(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/dashboard", "/students", "/locations", "/lessons", "/lessons/new"} {
		t.Run(path, func(t *testing.T) {
			expectRedirect(t, app.get(t, path), "/login")
		})
	}
}

func TestInvalidSessionCookieIsCleared(t *testing.T) {
	app := newTestApp(t)
	app.session = "not-a-session"

	rec := app.get(t, "/dashboard")

	expectRedirect(t, rec, "/login")
	if c := responseCookie(rec, SessionCookieName); c == nil || c.MaxAge >= 0 {
		t.Errorf("expected the session cookie to be deleted, got %+v", c)
	}
}

func TestSetupFlow(t *testing.T) {
	app := newTestApp(t)

	rec := app.get(t, "/login")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /login status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `action="/setup"`) {
		t.Fatal("expected the setup form while no user exists")
	}
	seed := responseCookie(rec, security.CSRFSeedCookie)
	if seed == nil {
		t.Fatal("expected a csrf seed cookie")
	}

	form := url.Values{
		"username":         {"coach"},
		"email":            {"coach@example.com"},
		"password":         {"padel-secret"},
		"confirm_password": {"padel-secret"},
	}

	t.Run("rejects a missing token", func(t *testing.T) {
		if rec := app.postRaw(t, "/setup", form, seed); rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("rejects mismatched passwords", func(t *testing.T) {
		bad := url.Values{}
		for k, v := range form {
			bad[k] = v
		}
		bad.Set("confirm_password", "something-else")
		bad.Set(CSRFFormField, app.csrf.Token(seed.Value))

		if rec := app.postRaw(t, "/setup", bad, seed); rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
	})

	form.Set(CSRFFormField, app.csrf.Token(seed.Value))
	rec = app.postRaw(t, "/setup", form, seed)
	expectRedirect(t, rec, "/dashboard")

	session := responseCookie(rec, SessionCookieName)
	if session == nil || session.Value == "" {
		t.Fatal("expected a session cookie after setup")
	}
	if _, err := app.auth.ValidateSession(session.Value); err != nil {
		t.Fatalf("setup session is not valid: %v", err)
	}

	t.Run("second setup is refused", func(t *testing.T) {
		rec := app.postRaw(t, "/setup", form, seed)
		expectRedirect(t, rec, "/login")
		if needs, _ := app.auth.NeedsSetup(); needs {
			t.Error("expected the first administrator to remain")
		}
	})
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	if _, err := app.auth.CreateAdmin("coach", "coach@example.com", "padel-secret"); err != nil {
		t.Fatal(err)
	}
	seed := &http.Cookie{Name: security.CSRFSeedCookie, Value: "seed-value"}
	token := app.csrf.Token(seed.Value)

	t.Run("wrong password", func(t *testing.T) {
		rec := app.postRaw(t, "/login", url.Values{
			"email": {"coach@example.com"}, "password": {"wrong"}, CSRFFormField: {token},
		}, seed)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Invalid email or password") {
			t.Error("expected the login error on the page")
		}
	})

	t.Run("success", func(t *testing.T) {
		rec := app.postRaw(t, "/login", url.Values{
			"email": {"coach@example.com"}, "password": {"padel-secret"}, CSRFFormField: {token},
		}, seed)
		expectRedirect(t, rec, "/dashboard")
		if responseCookie(rec, SessionCookieName) == nil {
			t.Fatal("expected a session cookie")
		}
	})
}

func TestLogoutEndsSession(t *testing.T) {
	app := newTestApp(t)
	app.login(t)
	session := app.session

	expectRedirect(t, app.post(t, "/logout", nil), "/login")

	if _, err := app.auth.ValidateSession(session); err == nil {
		t.Fatal("expected the session to be removed")
	}
}

func TestCSRFTokenMustMatchSession(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing", token: ""},
		{name: "bound to another session", token: app.csrf.Token("other-session")},
		{name: "garbage", token: "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{"first_name": {"Anna"}, "last_name": {"Jansen"}, CSRFFormField: {tt.token}}
			if rec := app.postRaw(t, "/students", form); rec.Code != http.StatusForbidden {
				t.Fatalf("status = %d, want 403", rec.Code)
			}
		})
	}

	students, err := app.students.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(students) != 0 {
		t.Errorf("expected no students to be created, got %d", len(students))
	}
}

func TestStudentPages(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	rec := app.post(t, "/students", url.Values{
		"first_name": {"Anna"}, "last_name": {"Jansen"}, "email": {"anna@example.com"}, "lessons_remaining": {"2"},
	})
	expectRedirect(t, rec, "/students")

	flash := responseCookie(rec, flashSessionName)
	if flash == nil {
		t.Fatal("expected a flash cookie")
	}
	page := app.get(t, "/students", flash)
	if page.Code != http.StatusOK {
		t.Fatalf("GET /students status = %d", page.Code)
	}
	if !strings.Contains(page.Body.String(), "Added Anna Jansen") {
		t.Error("expected the success banner after the redirect")
	}

	students, err := app.students.List()
	if err != nil || len(students) != 1 {
		t.Fatalf("List = %v, %v", students, err)
	}
	anna := students[0]
	base := "/students/" + itoa(anna.ID)

	t.Run("add credits", func(t *testing.T) {
		expectRedirect(t, app.post(t, base+"/credits/add", url.Values{"amount": {"3"}}), "/students")
		if got := balance(t, app.students, anna.ID); got != 5 {
			t.Fatalf("balance = %d, want 5", got)
		}
	})

	t.Run("lower below zero is refused", func(t *testing.T) {
		app.post(t, base+"/credits/lower", url.Values{"amount": {"9"}})
		if got := balance(t, app.students, anna.ID); got != 5 {
			t.Fatalf("balance = %d, want 5", got)
		}
	})

	t.Run("lower credits", func(t *testing.T) {
		app.post(t, base+"/credits/lower", url.Values{"amount": {"1"}})
		if got := balance(t, app.students, anna.ID); got != 4 {
			t.Fatalf("balance = %d, want 4", got)
		}
	})

	t.Run("invalid student is re-rendered", func(t *testing.T) {
		if rec := app.post(t, "/students", url.Values{"first_name": {""}, "last_name": {"X"}}); rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
	})

	t.Run("non-numeric credits are rejected", func(t *testing.T) {
		rec := app.post(t, "/students", url.Values{
			"first_name": {"Bram"}, "last_name": {"de Vries"}, "email": {"bram@example.com"}, "lessons_remaining": {"abc"},
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "whole number") {
			t.Error("expected the credits error on the re-rendered form")
		}
		if list, _ := app.students.List(); len(list) != 1 {
			t.Errorf("students = %d, want 1", len(list))
		}
	})

	t.Run("history", func(t *testing.T) {
		if rec := app.get(t, base+"/history"); rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if rec := app.get(t, "/students/9999/history"); rec.Code != http.StatusNotFound {
			t.Fatalf("unknown student status = %d, want 404", rec.Code)
		}
	})

	t.Run("delete", func(t *testing.T) {
		expectRedirect(t, app.post(t, base+"/delete", nil), "/students")
		if _, err := app.students.Get(anna.ID); err == nil {
			t.Fatal("expected the student to be deleted")
		}
	})
}

func TestLessonForm(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	anna, err := app.students.Create(models.StudentInput{FirstName: "Anna", LastName: "Jansen", LessonsRemaining: 1})
	if err != nil {
		t.Fatal(err)
	}
	bram, err := app.students.Create(models.StudentInput{FirstName: "Bram", LastName: "Visser", LessonsRemaining: 0})
	if err != nil {
		t.Fatal(err)
	}

	if rec := app.get(t, "/lessons/new"); rec.Code != http.StatusOK {
		t.Fatalf("GET /lessons/new status = %d", rec.Code)
	}

	rec := app.post(t, "/lessons", url.Values{
		"lesson_date": {"2026-05-10"},
		"start_time":  {"10:00"},
		"end_time":    {"11:00"},
		"instructor":  {"Coach Carla"},
		"student_ids": {itoa(anna.ID), itoa(bram.ID)},
	})
	expectRedirect(t, rec, "/lessons")

	page := app.get(t, "/lessons", responseCookie(rec, flashSessionName))
	if !strings.Contains(page.Body.String(), "Bram Visser") {
		t.Error("expected a warning naming the student without credit")
	}

	lessons, err := app.lessons.List()
	if err != nil || len(lessons) != 1 {
		t.Fatalf("List = %v, %v", lessons, err)
	}
	lesson := lessons[0]
	if !lesson.HasStudent(anna.ID) || lesson.HasStudent(bram.ID) {
		t.Fatalf("unexpected roster %v", lesson.StudentIDs())
	}
	if got := balance(t, app.students, anna.ID); got != 0 {
		t.Errorf("Anna's balance = %d, want 0", got)
	}

	base := "/lessons/" + itoa(lesson.ID)

	t.Run("edit page", func(t *testing.T) {
		if rec := app.get(t, base+"/edit"); rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("invalid time is rejected", func(t *testing.T) {
		rec := app.post(t, "/lessons", url.Values{
			"lesson_date": {"2026-05-10"}, "start_time": {"late"}, "end_time": {"11:00"}, "instructor": {"Coach Carla"},
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
	})

	t.Run("attendance", func(t *testing.T) {
		rec := app.post(t, base+"/attendance", url.Values{"student_id": {itoa(anna.ID)}, "status": {"Absent"}})
		expectRedirect(t, rec, "/lessons")
		got, err := app.lessons.Get(lesson.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.StatusOf(anna.ID) != models.StatusAbsent {
			t.Fatalf("status = %q, want Absent", got.StatusOf(anna.ID))
		}
	})

	t.Run("partial update keeps the roster", func(t *testing.T) {
		app.post(t, base+"/update", url.Values{"instructor": {"Coach Dirk"}})
		got, err := app.lessons.Get(lesson.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Instructor != "Coach Dirk" || got.StartTime != "10:00" || !got.HasStudent(anna.ID) {
			t.Fatalf("unexpected lesson after update: %+v", got)
		}
	})

	t.Run("remove refunds", func(t *testing.T) {
		app.post(t, base+"/students/"+itoa(anna.ID)+"/remove", nil)
		if got := balance(t, app.students, anna.ID); got != 1 {
			t.Fatalf("balance = %d, want 1", got)
		}
	})

	t.Run("sync without calendar", func(t *testing.T) {
		expectRedirect(t, app.post(t, base+"/sync", nil), "/lessons")
	})

	t.Run("delete", func(t *testing.T) {
		expectRedirect(t, app.post(t, base+"/delete", nil), "/lessons")
		if _, err := app.lessons.Get(lesson.ID); err == nil {
			t.Fatal("expected the lesson to be deleted")
		}
	})
}

func TestDashboardAndLocations(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	expectRedirect(t, app.post(t, "/locations", url.Values{
		"name": {"Padel Club Noord"}, "has_entry_code": {"1"}, "default_entry_code": {"4321"},
	}), "/locations")

	for _, path := range []string{"/dashboard", "/locations", "/lessons", "/"} {
		t.Run(path, func(t *testing.T) {
			rec := app.get(t, path)
			if path == "/" {
				expectRedirect(t, rec, "/dashboard")
				return
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if path == "/locations" && !strings.Contains(rec.Body.String(), "Padel Club Noord") {
				t.Error("expected the new location in the list")
			}
		})
	}
}

func TestStartupGate(t *testing.T) {
	app := newTestApp(t)
	app.startup = NewStartupStatus(StepDatabase, StepReady)
	h := app.startup.Gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			app.startup.Health(w, r)
			return
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	serve := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	if rec := serve("/login"); rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), StepDatabase) {
		t.Fatalf("before ready: status = %d", rec.Code)
	}
	if rec := serve("/health"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("health before ready: status = %d", rec.Code)
	}

	app.startup.CompleteStep(StepDatabase)
	app.startup.MarkReady()

	if rec := serve("/login"); rec.Code != http.StatusTeapot {
		t.Fatalf("after ready: status = %d", rec.Code)
	}
	rec := serve("/health")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ready":true`) {
		t.Fatalf("health after ready: %d %s", rec.Code, rec.Body.String())
	}
}

func TestStaticAssetsArePublic(t *testing.T) {
	app := newTestApp(t)

	if rec := app.get(t, "/static/style.css"); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func balance(t *testing.T, students *service.StudentService, id int64) int {
	t.Helper()
	s, err := students.Get(id)
	if err != nil {
		t.Fatalf("Get student %d: %v", id, err)
	}
	return s.LessonsRemaining
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
