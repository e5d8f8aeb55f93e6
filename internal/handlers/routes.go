package handlers

import "net/http"

// Handlers groups the HTTP handlers served by the admin app
type Handlers struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Dashboard  *DashboardHandler
	Students   *StudentHandler
	Locations  *LocationHandler
	Lessons    *LessonHandler
	Startup    *StartupStatus
	Static     http.Handler
}

// Routes registers every route and wraps them in request logging
func (h *Handlers) Routes() http.Handler {
	m := h.Middleware
	mux := http.NewServeMux()

	if h.Static != nil {
		mux.Handle("GET /static/", h.Static)
	}
	if h.Startup != nil {
		mux.HandleFunc("GET /health", h.Startup.Health)
	}

	// Public routes
	mux.HandleFunc("GET /", h.Auth.Home)
	mux.HandleFunc("GET /login", h.Auth.ShowLogin)
	mux.HandleFunc("POST /login", m.RateLimit(m.CSRFProtect(h.Auth.Login)))
	mux.HandleFunc("POST /setup", m.RateLimit(m.CSRFProtect(h.Auth.Setup)))
	mux.HandleFunc("POST /logout", m.Protected(h.Auth.Logout))

	mux.HandleFunc("GET /dashboard", m.RequireAuth(h.Dashboard.Dashboard))

	// Students
	mux.HandleFunc("GET /students", m.RequireAuth(h.Students.List))
	mux.HandleFunc("POST /students", m.Protected(h.Students.Create))
	mux.HandleFunc("POST /students/{id}/update", m.Protected(h.Students.Update))
	mux.HandleFunc("POST /students/{id}/delete", m.Protected(h.Students.Delete))
	mux.HandleFunc("POST /students/{id}/credits/add", m.Protected(h.Students.AddCredits))
	mux.HandleFunc("POST /students/{id}/credits/lower", m.Protected(h.Students.LowerCredits))
	mux.HandleFunc("GET /students/{id}/history", m.RequireAuth(h.Students.History))

	// Locations
	mux.HandleFunc("GET /locations", m.RequireAuth(h.Locations.List))
	mux.HandleFunc("POST /locations", m.Protected(h.Locations.Create))
	mux.HandleFunc("POST /locations/{id}/update", m.Protected(h.Locations.Update))
	mux.HandleFunc("POST /locations/{id}/delete", m.Protected(h.Locations.Delete))

	// Lessons
	mux.HandleFunc("GET /lessons", m.RequireAuth(h.Lessons.List))
	mux.HandleFunc("GET /lessons/new", m.RequireAuth(h.Lessons.New))
	mux.HandleFunc("POST /lessons", m.Protected(h.Lessons.Create))
	mux.HandleFunc("GET /lessons/{id}/edit", m.RequireAuth(h.Lessons.Edit))
	mux.HandleFunc("POST /lessons/{id}/update", m.Protected(h.Lessons.Update))
	mux.HandleFunc("POST /lessons/{id}/attendance", m.Protected(h.Lessons.Attendance))
	mux.HandleFunc("POST /lessons/{id}/students", m.Protected(h.Lessons.AddStudent))
	mux.HandleFunc("POST /lessons/{id}/students/{studentID}/remove", m.Protected(h.Lessons.RemoveStudent))
	mux.HandleFunc("POST /lessons/{id}/delete", m.Protected(h.Lessons.Delete))
	mux.HandleFunc("POST /lessons/{id}/sync", m.Protected(h.Lessons.Sync))

	var handler http.Handler = mux
	if h.Startup != nil {
		handler = h.Startup.Gate(handler)
	}
	return Logging(handler)
}
