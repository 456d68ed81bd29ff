package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gitlab.com/dirk.krummacker/surf-contacts/internal/config"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/database"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/logger"
)

// Usage example on the command line:
// > SURF_DB_USER=dirk SURF_DB_PASSWORD=bullo92 go run main.go -command=up
// > SURF_DB_DRIVER=sqlite go run main.go -command=status
// > go run main.go -command=down-to -version=1
func main() {
	dotEnvErr := config.LoadDotEnv()

	command := flag.String("command", "up", "the goose command to run (up, down, status, version, redo, reset, up-to, down-to)")
	version := flag.String("version", "", "the target version of up-to and down-to")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{
		ServiceName: "surf-contacts-migration",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      "console",
	})

	ctx := context.Background()
	if dotEnvErr != nil {
		logg.Error(ctx, "could not read .env file", dotEnvErr)
		os.Exit(1)
	}
	sqlDB, err := database.Open(ctx, cfg.DB)
	if err != nil {
		logg.Error(ctx, "could not open database", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	var args []string
	if *version != "" {
		args = append(args, *version)
	}
	if err := database.Migrate(ctx, sqlDB, cfg.DB.Driver, logg, *command, args...); err != nil {
		logg.Error(ctx, "migration failed", err)
		sqlDB.Close()
		os.Exit(1)
	}
}
