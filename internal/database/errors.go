package database

var knownDialects = []Dialect{NewPostgresDialect(), NewMySQLDialect(), NewSQLiteDialect()}

// IsUniqueViolation reports whether err is a unique or primary key
// constraint failure from any of the supported drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	for _, d := range knownDialects {
		if d.IsUniqueViolation(err) {
			return true
		}
	}
	return false
}
