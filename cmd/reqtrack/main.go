package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/reqtrack/internal/cli"
	"github.com/alexanderramin/reqtrack/internal/config"
	"github.com/alexanderramin/reqtrack/internal/db"
	"github.com/alexanderramin/reqtrack/internal/logger"
	"github.com/alexanderramin/reqtrack/internal/repository"
	"github.com/alexanderramin/reqtrack/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err))
		os.Exit(cli.ExitCode(err))
	}
}

func run() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("finding home directory: %w", err)
	}

	configPath := os.Getenv("REQTRACK_CONFIG")
	if configPath == "" {
		configPath = config.DefaultPath(home)
	}
	cfg, err := config.Load(configPath, home)
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Pretty:     cfg.Log.Pretty,
		WithCaller: cfg.Log.Level == "debug",
	})

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()
	log.Debug().Str("path", cfg.DBPath).Msg("database opened")

	// Wire observers
	registry := prometheus.NewRegistry()
	observers := []service.UseCaseObserver{service.NewMetricsUseCaseObserver(registry)}
	if cfg.Log.UseCases {
		observers = append(observers, service.NewLogUseCaseObserver(log))
	}

	// Wire repositories
	projectRepo := repository.NewSQLiteProjectRepo(database)
	subjectRepo := repository.NewSQLiteSubjectRepo(database)

	// Wire unit of work for transactional operations
	uow := db.NewSQLiteUnitOfWork(database)

	app := &cli.App{
		Projects:     service.NewProjectService(projectRepo, observers...),
		Subjects:     service.NewSubjectService(subjectRepo, projectRepo, observers...),
		Requirements: service.NewRequirementService(uow, service.WithObservers(observers...)),
		Config:       cfg,
		ConfigPath:   configPath,
		Interactive:  isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := cli.NewRootCmd(app).ExecuteContext(ctx)

	if cfg.MetricsTextfile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsTextfile, registry); err != nil {
			log.Warn().Err(err).Str("path", cfg.MetricsTextfile).Msg("writing metrics textfile")
		}
	}
	return runErr
}
