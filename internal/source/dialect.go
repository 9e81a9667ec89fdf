package source

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/mintlify/pipebird-showcase/pkg/models"
)

// Dialect abstracts the engine-specific pieces of SQL generation and
// connection setup. Queries built through it stay identical in intent across
// engines; only quoting, placeholders and limit syntax differ.
type Dialect interface {
	DriverName() string
	DSN(src *models.Source) string
	// Placeholder renders the n-th bind parameter, 1-based.
	Placeholder(n int) string
	QuoteIdentifier(name string) string
	// LimitClause returns the pieces that cap a result set at n rows. top is
	// injected right after SELECT, suffix is appended after ORDER BY. Exactly
	// one of the two is non-empty.
	LimitClause(n int) (top string, suffix string)
}

// DialectFor maps a source engine to its dialect. POSTGRES, COCKROACHDB and
// REDSHIFT all speak the postgres wire protocol.
func DialectFor(engine models.SourceEngine) (Dialect, error) {
	switch engine {
	case models.EnginePostgres, models.EngineCockroachDB, models.EngineRedshift:
		return postgresDialect{}, nil
	case models.EngineMySQL:
		return mysqlDialect{}, nil
	case models.EngineMSSQL:
		return mssqlDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported source engine %q", engine)
	}
}

type postgresDialect struct{}

func (postgresDialect) DriverName() string { return "postgres" }

func (postgresDialect) DSN(src *models.Source) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(src.Username, src.Password),
		Host:   fmt.Sprintf("%s:%d", src.Host, src.Port),
		Path:   "/" + src.Database,
	}
	return u.String()
}

func (postgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) QuoteIdentifier(name string) string { return pq.QuoteIdentifier(name) }

func (postgresDialect) LimitClause(n int) (string, string) {
	return "", fmt.Sprintf("LIMIT %d", n)
}

type mysqlDialect struct{}

func (mysqlDialect) DriverName() string { return "mysql" }

func (mysqlDialect) DSN(src *models.Source) string {
	cfg := mysql.NewConfig()
	cfg.User = src.Username
	cfg.Passwd = src.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", src.Host, src.Port)
	cfg.DBName = src.Database
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func (mysqlDialect) Placeholder(int) string { return "?" }

func (mysqlDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (mysqlDialect) LimitClause(n int) (string, string) {
	return "", fmt.Sprintf("LIMIT %d", n)
}

type mssqlDialect struct{}

func (mssqlDialect) DriverName() string { return "sqlserver" }

func (mssqlDialect) DSN(src *models.Source) string {
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(src.Username, src.Password),
		Host:     fmt.Sprintf("%s:%d", src.Host, src.Port),
		RawQuery: url.Values{"database": {src.Database}}.Encode(),
	}
	return u.String()
}

func (mssqlDialect) Placeholder(n int) string { return fmt.Sprintf("@p%d", n) }

func (mssqlDialect) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (mssqlDialect) LimitClause(n int) (string, string) {
	return fmt.Sprintf("TOP %d", n), ""
}
