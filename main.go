package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"pharmacoach/access"
	"pharmacoach/assessment"
	"pharmacoach/authoring"
	"pharmacoach/catalog"
	"pharmacoach/config"
	attemptController "pharmacoach/controllers/attempt"
	authController "pharmacoach/controllers/auth"
	controllers "pharmacoach/controllers/course"
	userController "pharmacoach/controllers/userControllers"
	"pharmacoach/database"
	"pharmacoach/enrollment"
	"pharmacoach/middleware"
	"pharmacoach/models"
	"pharmacoach/routers"
	"pharmacoach/utils"
)

func main() {
	envFile := pflag.String("env-file", ".env", "path of the env file to load")
	port := pflag.String("port", "", "HTTP port, overrides PORT")
	dbDriver := pflag.String("db-driver", "", "json, sqlite, postgres or mysql, overrides DB_DRIVER")
	pflag.Parse()

	cfg := config.LoadConfig(*envFile)
	if *port != "" {
		cfg.Port = *port
	}
	if *dbDriver != "" {
		cfg.DBDriver = *dbDriver
	}

	utils.SetupLogger(cfg)
	slog.Info("starting pharmacoach", "env", cfg.AppEnv, "driver", cfg.DBDriver)

	database.ConnectDb(cfg)
	store := database.Database.Store
	defer store.Close()

	reporter := utils.NewErrorReporter(cfg)
	defer reporter.Close()

	hasher := utils.NewPasswordHasher(cfg)
	emails := utils.NewEmailService(utils.NewMailer(cfg), cfg.AppName)
	sessions := middleware.NewSessionManager(cfg.JWTKey, cfg.TokenTTL)

	courses := catalog.New(cfg.CatalogURL, store, cfg.CatalogTTL)
	gate := access.NewGate(time.Now)
	attempts := assessment.NewManager(store, store,
		assessment.WithAdmission(func(user models.User, test models.TestItem) error {
			return gate.Allow(user, test.CourseID)
		}),
	)

	if err := authController.BootstrapAdmin(context.Background(), hasher, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		reporter.Report(err)
	}

	scheduler := &utils.ExpiryScheduler{
		Emails:       emails,
		Courses:      courses,
		ReminderDays: cfg.ReminderDays,
	}
	if err := scheduler.Start(map[string]utils.Sweeper{
		"attempts": attempts,
		"sessions": utils.SweeperFunc(sessions.PruneRevoked),
	}); err != nil {
		slog.Error("scheduler not started", "err", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	app := routers.NewApp(routers.Deps{
		Sessions: sessions,
		Reporter: reporter,
		Auth:     &authController.Controller{Sessions: sessions, Hasher: hasher, Emails: emails},
		Users:    &userController.Controller{Hasher: hasher, Emails: emails},
		Courses: &controllers.Controller{
			Catalog:    courses,
			Enrollment: enrollment.NewService(store, courses, cfg.DefaultValidityDays),
			Gate:       gate,
			Drafts:     authoring.NewDraftBook(),
			Emails:     emails,
		},
		Attempts:    &attemptController.Controller{Attempts: attempts},
		CORSOrigins: cfg.CORSOrigins,
		AccessLog:   true,
	})

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("Server is running", "port", cfg.Port)
		serverErrors <- app.Listen(":" + cfg.Port)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		slog.Error("server error", "err", err)
	case sig := <-shutdown:
		slog.Info("Start shutdown...", "signal", sig.String())
		// give outstanding requests a deadline for completion
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			slog.Error("could not stop server gracefully", "err", err)
		}
	}
}
