package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"

	"github.com/pressly/goose/v3"

	"gitlab.com/dirk.krummacker/surf-contacts/internal/config"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/logger"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Migrate runs a goose command ("up", "down", "status", "version", ...) against the embedded
// migrations of the given driver.
func Migrate(ctx context.Context, db *sql.DB, driver string, logg *logger.Logger, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	dialect, err := gooseDialect(driver)
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{ctx: ctx, logg: logg})
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	dir := path.Join("migrations", driver)
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

func gooseDialect(driver string) (string, error) {
	switch driver {
	case config.DriverMySQL:
		return "mysql", nil
	case config.DriverSQLite:
		return "sqlite3", nil
	}
	return "", fmt.Errorf("no migrations for driver %q", driver)
}

// gooseLogger routes goose output through the structured logger.
type gooseLogger struct {
	ctx  context.Context
	logg *logger.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	if l.logg != nil {
		l.logg.Info(l.ctx, fmt.Sprintf(format, v...))
	}
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	if l.logg != nil {
		l.logg.Error(l.ctx, fmt.Sprintf(format, v...), nil)
	}
}
