package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"gitlab.com/dirk.krummacker/surf-contacts/internal/config"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/database"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/importer"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/invite"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/logger"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/metrics"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/service"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/store"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/welcome"
)

// Usage example on the command line:
// > SURF_DB_USER=dirk SURF_DB_PASSWORD=bullo92 GIN_MODE=release go run main.go
// > PORT=3000 SURF_DB_DRIVER=sqlite SURF_DB_AUTO_MIGRATE=true go run main.go
func main() {
	dotEnvErr := config.LoadDotEnv()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "surf-contacts",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
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

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, sqlDB, cfg.DB.Driver, logg, "up"); err != nil {
			logg.Error(ctx, "could not migrate database", err)
			os.Exit(1)
		}
	}

	contacts, err := store.New(sqlDB, database.SqlxDriverName(cfg.DB.Driver))
	if err != nil {
		logg.Error(ctx, "could not prepare statements", err)
		os.Exit(1)
	}
	defer contacts.Close()

	backgrounds, err := welcome.NewBackgroundSource(ctx, cfg.Backgrounds)
	if err != nil {
		logg.Error(ctx, "could not set up background images", err)
		os.Exit(1)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	svc := service.New(
		contacts,
		importer.New(contacts, logg, m),
		invite.NewAssigner(contacts, nil, logg, m),
		welcome.NewGenerator(backgrounds, welcome.Options{
			Opacity: cfg.Backgrounds.Opacity,
			Logger:  logg,
			Metrics: m,
		}),
		service.Options{
			Logger:         logg,
			Metrics:        m,
			MaxUploadBytes: cfg.Upload.MaxBytes(),
			LogRequests:    cfg.App.LogRequests,
		},
	)

	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	port := cfg.App.Port
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"port":   port,
		"driver": cfg.DB.Driver,
	}), "service starting")
	if err := svc.SetupHttpRouter().Run(":" + port); err != nil {
		logg.Error(ctx, "server stopped", err)
		os.Exit(1)
	}
}
