package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"time"

	"padelmanager/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// LoadTemplates parses every page template. An empty dir uses the templates
// compiled into the binary.
func LoadTemplates(dir string) (*template.Template, error) {
	var fsys fs.FS = templateFS
	pattern := "templates/*.tmpl"
	if dir != "" {
		fsys = os.DirFS(dir)
		pattern = "*.tmpl"
	}

	tmpl, err := template.New("").Funcs(FuncMap()).ParseFS(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// StaticHandler serves stylesheets and scripts under /static/
func StaticHandler(dir string) http.Handler {
	if dir != "" {
		return http.StripPrefix("/static/", http.FileServer(http.Dir(dir)))
	}
	sub, _ := fs.Sub(staticFS, "static")
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// FuncMap holds the helpers available to every template
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(date string) string {
			t, err := time.Parse(models.DateLayout, date)
			if err != nil {
				return date
			}
			return t.Format("Mon 2 Jan 2006")
		},
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2 Jan 2006 15:04")
		},
		"contains": func(ids []int64, id int64) bool {
			for _, v := range ids {
				if v == id {
					return true
				}
			}
			return false
		},
		"derefID": func(id *int64) int64 {
			if id == nil {
				return 0
			}
			return *id
		},
		"statuses": func() []models.AttendanceStatus {
			return models.AttendanceStatuses
		},
		"statusClass": func(s models.AttendanceStatus) string {
			switch s {
			case models.StatusAbsent:
				return "status-absent"
			case models.StatusCanceled:
				return "status-canceled"
			default:
				return "status-present"
			}
		},
		"plural": func(n int, singular, plural string) string {
			if n == 1 {
				return singular
			}
			return plural
		},
	}
}
