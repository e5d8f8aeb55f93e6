package database

import (
	"database/sql"
	"errors"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// DSN builds a go-sql-driver DSN from the discrete DB_* settings.
// ClientFoundRows makes an UPDATE that writes identical values still report
// the matched row as affected.
func (d *MySQLDialect) DSN(config DialectConfig) string {
	if config.URL != "" {
		return config.URL
	}

	addr := config.Host
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "3306")
	}

	c := mysql.NewConfig()
	c.Net = "tcp"
	c.Addr = addr
	c.User = config.User
	c.Passwd = config.Password
	c.DBName = config.Name
	c.ParseTime = true
	c.ClientFoundRows = true
	c.Timeout = 5 * time.Second
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	return query
}

func (d *MySQLDialect) SupportsLastInsertId() bool {
	return true
}

// ConfigureConnection keeps pooled connections shorter lived than the
// server's wait_timeout
func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	pool := defaultPool
	pool.maxLifetime = 3 * time.Minute
	pool.apply(db)
	return nil
}

func (d *MySQLDialect) MigrationsSubdir() string {
	return "mysql"
}

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		)
	`
}

// IsUniqueViolation matches error 1062 ER_DUP_ENTRY
func (d *MySQLDialect) IsUniqueViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// ResetSequenceQuery is empty: AUTO_INCREMENT follows explicit ids
func (d *MySQLDialect) ResetSequenceQuery(table string) string {
	return ""
}
