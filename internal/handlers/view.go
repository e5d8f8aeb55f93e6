package handlers

import (
	"bytes"
	"html/template"
	"log"
	"net/http"
	"time"

	"padelmanager/internal/models"
	"padelmanager/internal/security"
)

// Page carries what the layout needs on every page
type Page struct {
	Title           string
	AppName         string
	User            *models.User
	CSRFToken       string
	Flashes         []Flash
	CalendarEnabled bool
}

// View renders templates and the shared page chrome
type View struct {
	templates       *template.Template
	csrf            *security.CSRFGenerator
	flashes         *FlashStore
	appName         string
	development     bool
	calendarEnabled bool
	loc             *time.Location
	now             func() time.Time
}

// ViewConfig holds the settings of a View
type ViewConfig struct {
	AppName         string
	Development     bool
	CalendarEnabled bool
	Location        *time.Location
}

// NewView creates a view renderer
func NewView(templates *template.Template, csrf *security.CSRFGenerator, flashes *FlashStore, cfg ViewConfig) *View {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &View{
		templates:       templates,
		csrf:            csrf,
		flashes:         flashes,
		appName:         cfg.AppName,
		development:     cfg.Development,
		calendarEnabled: cfg.CalendarEnabled,
		loc:             loc,
		now:             time.Now,
	}
}

// page builds the layout data and consumes pending flash messages
func (v *View) page(w http.ResponseWriter, r *http.Request, title string) Page {
	return Page{
		Title:           title + " - " + v.appName,
		AppName:         v.appName,
		User:            GetUserFromContext(r.Context()),
		CSRFToken:       v.csrf.Token(csrfBinding(w, r)),
		Flashes:         v.flashes.Pop(w, r),
		CalendarEnabled: v.calendarEnabled,
	}
}

func (v *View) render(w http.ResponseWriter, name string, data interface{}) {
	v.renderStatus(w, http.StatusOK, name, data)
}

// renderStatus executes a template into a buffer so a failure can still
// become a 500
func (v *View) renderStatus(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := v.templates.ExecuteTemplate(&buf, name, data); err != nil {
		v.serverError(w, "Error rendering "+name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("Error writing %s: %v", name, err)
	}
}

func (v *View) flash(w http.ResponseWriter, r *http.Request, kind, message string) {
	v.flashes.Add(w, r, kind, message)
}

// redirectWith queues a banner and sends the browser to path
func (v *View) redirectWith(w http.ResponseWriter, r *http.Request, path, kind, message string) {
	v.flash(w, r, kind, message)
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// today returns the current date in the calendar time zone
func (v *View) today() string {
	return v.now().In(v.loc).Format(models.DateLayout)
}

// csrfBinding is the value form tokens are bound to: the session id for
// signed-in users, an anonymous seed cookie otherwise
func csrfBinding(w http.ResponseWriter, r *http.Request) string {
	if GetUserFromContext(r.Context()) != nil {
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			return cookie.Value
		}
	}
	return security.EnsureSeed(w, r)
}
