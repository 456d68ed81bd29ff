package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"

	"gitlab.com/dirk.krummacker/surf-contacts/internal/config"
)

// sqliteDriverName is the name modernc.org/sqlite registers with database/sql.
const sqliteDriverName = "sqlite"

func init() {
	// The built-in LOWER of sqlite only folds ASCII letters.
	sqlite.MustRegisterDeterministicScalarFunction("lower", 1, unicodeLower)
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if s, ok := args[0].(string); ok {
		return strings.ToLower(s), nil
	}
	return args[0], nil
}

// Open initializes and returns a database connection for the configured driver and
// verifies it with a ping.
//
// Usage example on the command line:
// > SURF_DB_HOST=localhost:3306 SURF_DB_USER=dirk SURF_DB_PASSWORD=bullo92 go run ./cmd/service
// > SURF_DB_DRIVER=sqlite SURF_DB_SQLITE_PATH=contacts.db go run ./cmd/service
func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	var (
		sqlDB *sql.DB
		err   error
	)
	switch cfg.Driver {
	case config.DriverMySQL:
		sqlDB, err = sql.Open("mysql", MySQLDSN(cfg))
	case config.DriverSQLite:
		sqlDB, err = sql.Open(sqliteDriverName, SQLiteDSN(cfg.SQLitePath))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == config.DriverSQLite {
		// Every connection to ":memory:" is a separate database, and sqlite allows a
		// single writer anyway.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping %s database: %w", cfg.Driver, err)
	}
	return sqlDB, nil
}

// MySQLDSN builds the connection string for the MySQL driver.
func MySQLDSN(cfg config.DBConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Host
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// SQLiteDSN builds the connection string for the embedded sqlite driver. Times are stored in
// the sqlite text format so that DATETIME columns scan back into time.Time.
func SQLiteDSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_time_format=sqlite"
}

// SqlxDriverName maps a configured driver to the name sqlx uses to pick its bind style.
func SqlxDriverName(driver string) string {
	if driver == config.DriverSQLite {
		return "sqlite3"
	}
	return "mysql"
}
