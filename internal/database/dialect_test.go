package database

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

func TestDialectFor(t *testing.T) {
	tests := []struct {
		input   string
		driver  string
		wantErr bool
	}{
		{"mysql", "mysql", false},
		{"", "mysql", false},
		{"postgres", "postgres", false},
		{"PostgreSQL", "postgres", false},
		{"sqlite", "sqlite3", false},
		{"sqlite3", "sqlite3", false},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			dialect, err := DialectFor(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DialectFor(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("DialectFor(%q) unexpected error: %v", tt.input, err)
			}
			if dialect.DriverName() != tt.driver {
				t.Errorf("DriverName() = %v, want %v", dialect.DriverName(), tt.driver)
			}
		})
	}
}

func TestDialectCapabilities(t *testing.T) {
	tests := []struct {
		name          string
		dialect       Dialect
		lastInsertID  bool
		migrationsDir string
	}{
		{"SQLite", NewSQLiteDialect(), true, "sqlite"},
		{"PostgreSQL", NewPostgresDialect(), false, "postgres"},
		{"MySQL", NewMySQLDialect(), true, "mysql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.SupportsLastInsertId(); got != tt.lastInsertID {
				t.Errorf("SupportsLastInsertId() = %v, want %v", got, tt.lastInsertID)
			}
			if got := tt.dialect.MigrationsSubdir(); got != tt.migrationsDir {
				t.Errorf("MigrationsSubdir() = %v, want %v", got, tt.migrationsDir)
			}
		})
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM students WHERE id = ?",
			expected: "SELECT * FROM students WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM students WHERE id = ?",
			expected: "SELECT * FROM students WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO student_lesson (student_id, lesson_id, status) VALUES (?, ?, ?)",
			expected: "INSERT INTO student_lesson (student_id, lesson_id, status) VALUES ($1, $2, $3)",
		},
		{
			name:     "PostgreSQL quoted question mark",
			dialect:  NewPostgresDialect(),
			query:    "SELECT '?' FROM lessons WHERE id = ?",
			expected: "SELECT '?' FROM lessons WHERE id = $1",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE students SET first_name = ? WHERE id = ?",
			expected: "UPDATE students SET first_name = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("URL wins", func(t *testing.T) {
		dsn := dialect.DSN(DialectConfig{URL: "u:p@tcp(db:3306)/x", Host: "ignored"})
		if dsn != "u:p@tcp(db:3306)/x" {
			t.Errorf("DSN() = %v", dsn)
		}
	})

	t.Run("discrete fields", func(t *testing.T) {
		dsn := dialect.DSN(DialectConfig{Host: "db.local", Name: "padel", User: "admin", Password: "secret"})
		for _, want := range []string{"admin:secret@tcp(db.local:3306)/padel", "parseTime=true", "clientFoundRows=true"} {
			if !strings.Contains(dsn, want) {
				t.Errorf("DSN() = %v, want it to contain %v", dsn, want)
			}
		}
	})

	t.Run("explicit port", func(t *testing.T) {
		dsn := dialect.DSN(DialectConfig{Host: "db.local:3307", Name: "padel", User: "admin"})
		if !strings.Contains(dsn, "tcp(db.local:3307)") {
			t.Errorf("DSN() = %v, want port 3307 kept", dsn)
		}
	})
}

func TestSQLiteDSN(t *testing.T) {
	dialect := NewSQLiteDialect()

	dsn := dialect.DSN(DialectConfig{Path: "padel.db"})
	if !strings.HasPrefix(dsn, "padel.db?") || !strings.Contains(dsn, "_foreign_keys=on") {
		t.Errorf("DSN() = %v", dsn)
	}

	dsn = dialect.DSN(DialectConfig{Path: "file:padel.db?cache=shared"})
	if !strings.Contains(dsn, "cache=shared&_foreign_keys=on") {
		t.Errorf("DSN() = %v, want pragmas appended with &", dsn)
	}
}

func TestSplitStatements(t *testing.T) {
	content := `-- comment
CREATE TABLE a (
    id INTEGER
);

CREATE INDEX idx ON a(id);
`
	statements := splitStatements(content)
	if len(statements) != 2 {
		t.Fatalf("splitStatements() returned %d statements, want 2: %q", len(statements), statements)
	}
	if !strings.HasPrefix(statements[0], "CREATE TABLE a (") {
		t.Errorf("first statement = %q", statements[0])
	}
	if strings.HasSuffix(statements[1], ";") {
		t.Errorf("statement should not keep trailing semicolon: %q", statements[1])
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("connection refused"), false},
		{"postgres duplicate", &pq.Error{Code: "23505"}, true},
		{"postgres foreign key", &pq.Error{Code: "23503"}, false},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, true},
		{"mysql other", &mysql.MySQLError{Number: 1452}, false},
		{"wrapped postgres duplicate", fmt.Errorf("failed to assign student: %w", &pq.Error{Code: "23505"}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestResetSequenceQuery(t *testing.T) {
	if q := NewSQLiteDialect().ResetSequenceQuery("lessons"); q != "" {
		t.Errorf("SQLite reset = %q, want none", q)
	}
	if q := NewMySQLDialect().ResetSequenceQuery("lessons"); q != "" {
		t.Errorf("MySQL reset = %q, want none", q)
	}
	q := NewPostgresDialect().ResetSequenceQuery("lessons")
	if !strings.Contains(q, "pg_get_serial_sequence('lessons', 'id')") || !strings.HasSuffix(q, "FROM lessons") {
		t.Errorf("Postgres reset = %q", q)
	}
}

func TestPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   DialectConfig
		wantHost string
	}{
		{name: "default port", config: DialectConfig{Host: "db", Name: "padel", User: "admin", Password: "secret"}, wantHost: "db:5432"},
		{name: "explicit port", config: DialectConfig{Host: "db:6543", Name: "padel", User: "admin", Password: "secret"}, wantHost: "db:6543"},
		{name: "quote and backslash in password", config: DialectConfig{Host: "db", Name: "padel", User: "admin", Password: `it's a\pass`}, wantHost: "db:5432"},
		{name: "url special characters in password", config: DialectConfig{Host: "db", Name: "padel", User: "admin", Password: "p@ss:w/rd?#"}, wantHost: "db:5432"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn := NewPostgresDialect().DSN(tt.config)
			u, err := url.Parse(dsn)
			if err != nil {
				t.Fatalf("DSN %q does not parse: %v", dsn, err)
			}
			if u.Host != tt.wantHost || u.Path != "/padel" || u.Query().Get("sslmode") != "disable" {
				t.Errorf("DSN = %q", dsn)
			}
			if pw, _ := u.User.Password(); pw != tt.config.Password || u.User.Username() != tt.config.User {
				t.Errorf("credentials = %q/%q, want %q/%q", u.User.Username(), pw, tt.config.User, tt.config.Password)
			}
			if _, err := pq.NewConnector(dsn); err != nil {
				t.Errorf("pq rejects DSN %q: %v", dsn, err)
			}
		})
	}

	t.Run("database url wins", func(t *testing.T) {
		want := "postgres://u:p@remote/padel"
		if got := NewPostgresDialect().DSN(DialectConfig{URL: want, Host: "db"}); got != want {
			t.Errorf("DSN = %q, want %q", got, want)
		}
	})
}
