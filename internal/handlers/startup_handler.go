package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"
	"sync"
)

// Startup steps in the order the server runs them
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepCalendar   = "Connecting calendar"
	StepTemplates  = "Loading templates"
	StepReady      = "Server ready"
)

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu       sync.RWMutex
	ready    bool
	current  string
	progress int
	steps    []StartupStep
}

type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// NewStartupStatus creates a tracker for the given steps
func NewStartupStatus(steps ...string) *StartupStatus {
	s := &StartupStatus{current: "Initializing..."}
	for _, name := range steps {
		s.steps = append(s.steps, StartupStep{Name: name})
	}
	return s
}

// SetCurrentStep updates the current initialization step
func (s *StartupStatus) SetCurrentStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = step
}

// CompleteStep marks a step as completed and updates progress
func (s *StartupStatus) CompleteStep(stepName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := 0
	for i := range s.steps {
		if s.steps[i].Name == stepName {
			s.steps[i].Completed = true
		}
		if s.steps[i].Completed {
			completed++
		}
	}
	if len(s.steps) > 0 {
		s.progress = (completed * 100) / len(s.steps)
	}
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.steps {
		s.steps[i].Completed = true
	}
	s.ready = true
	s.current = StepReady
	s.progress = 100
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

type startupSnapshot struct {
	Ready    bool          `json:"ready"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`
}

func (s *StartupStatus) snapshot() startupSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return startupSnapshot{
		Ready:    s.ready,
		Current:  s.current,
		Progress: s.progress,
		Steps:    append([]StartupStep(nil), s.steps...),
	}
}

// Health reports readiness as JSON, 503 until the server is ready
func (s *StartupStatus) Health(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	w.Header().Set("Content-Type", "application/json")
	if !snap.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(snap)
}

// Gate serves the startup page instead of next until the server is ready
func (s *StartupStatus) Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.IsReady() || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		s.ShowStartupStatus(w, r)
	})
}

var startupTemplate = template.Must(template.New("startup").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<meta http-equiv="refresh" content="2">
	<title>Starting up</title>
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif; background: #1b5e20; min-height: 100vh; display: flex; align-items: center; justify-content: center; margin: 0; }
		.container { background: white; border-radius: 12px; padding: 32px; max-width: 440px; width: 100%; }
		h1 { margin: 0 0 20px; text-align: center; color: #1b5e20; }
		.progress-bar { height: 10px; background: #e0e0e0; border-radius: 5px; overflow: hidden; }
		.progress-fill { height: 100%; background: #43a047; }
		ul { list-style: none; padding: 0; }
		li { padding: 8px 0; border-bottom: 1px solid #f0f0f0; }
		li.completed { color: #2e7d32; }
		.current { text-align: center; font-style: italic; color: #555; }
	</style>
</head>
<body>
	<div class="container">
		<h1>Starting up</h1>
		<div class="progress-bar"><div class="progress-fill" style="width: {{.Progress}}%"></div></div>
		<ul>
			{{range .Steps}}<li class="{{if .Completed}}completed{{end}}">{{if .Completed}}✓{{else}}○{{end}} {{.Name}}</li>
			{{end}}
		</ul>
		<p class="current">{{.Current}}</p>
	</div>
</body>
</html>`))

// ShowStartupStatus displays the startup status page
func (s *StartupStatus) ShowStartupStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = startupTemplate.Execute(w, snap)
}
