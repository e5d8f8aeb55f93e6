package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"padelmanager/internal/models"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// civil scans a DATE or TIME column into its canonical string form.
// Drivers disagree on the Go type: MySQL returns time.Time for DATE and
// []byte "15:04:05" for TIME, lib/pq returns time.Time for both, SQLite
// returns the stored text.
type civil struct {
	dest   *string
	layout string
}

func civilDate(dest *string) sql.Scanner { return civil{dest: dest, layout: models.DateLayout} }
func civilTime(dest *string) sql.Scanner { return civil{dest: dest, layout: models.TimeLayout} }

func (c civil) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c.dest = ""
	case time.Time:
		*c.dest = v.Format(c.layout)
	case []byte:
		*c.dest = truncate(string(v), len(c.layout))
	case string:
		*c.dest = truncate(v, len(c.layout))
	default:
		return fmt.Errorf("cannot scan %T into %s column", src, c.layout)
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[:n]
	}
	return s
}

// nullString stores empty strings as NULL
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
