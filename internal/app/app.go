package app

import (
	"context"
	"fmt"
	"time"

	"github.com/semmidev/vigil/internal/adapter/compressor"
	"github.com/semmidev/vigil/internal/adapter/database"
	"github.com/semmidev/vigil/internal/adapter/notifier"
	"github.com/semmidev/vigil/internal/adapter/storage"
	"github.com/semmidev/vigil/internal/config"
	"github.com/semmidev/vigil/internal/domain"
	"github.com/semmidev/vigil/internal/infrastructure/logger"
	"github.com/semmidev/vigil/internal/infrastructure/scheduler"
	"github.com/semmidev/vigil/internal/usecase"
)

type App struct {
	config    *config.Config
	logger    *logger.Logger
	scheduler *scheduler.Scheduler
	cycle     *usecase.Cycle
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.New(logger.Options{
		Name:  cfg.App.Name,
		Level: cfg.App.LogLevel,
		File:  cfg.App.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	for _, warning := range cfg.Warnings() {
		log.Warnf("Config: %s", warning)
	}

	sources := cfg.Sources()
	log.Infof("Found %d database(s) configured", len(sources))
	for _, src := range sources {
		log.Infof("  %s (%s)", src.Path, src.Kind)
	}

	uploadTargets := initializeUploadTargets(ctx, cfg, log)

	var comp domain.Compressor
	if cfg.Backup.Compress {
		comp = compressor.NewGzip()
	}

	backupUC := usecase.NewBackup(
		[]domain.Dumper{database.NewSQLite(), database.NewFileCopier()},
		storage.NewLocal(cfg.Backup.LocalPath),
		uploadTargets,
		comp,
		log,
	)

	cycle := usecase.NewCycle(backupUC, sources, initializeNotifiers(cfg, log), log)

	return &App{
		config:    cfg,
		logger:    log,
		scheduler: scheduler.New(log),
		cycle:     cycle,
	}, nil
}

func initializeUploadTargets(ctx context.Context, cfg *config.Config, log *logger.Logger) []usecase.UploadTarget {
	var targets []usecase.UploadTarget

	for _, targetCfg := range cfg.GetEnabledUploadTargets() {
		var stor domain.Storage
		var err error

		switch targetCfg.Type {
		case "gdrive":
			stor, err = storage.NewGDrive(ctx, &targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize Google Drive: %v", err)
				continue
			}
			log.Infof("✓ Google Drive mirror enabled")

		case "s3":
			stor, err = storage.NewS3(ctx, &targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize S3: %v", err)
				continue
			}
			log.Infof("✓ AWS S3 mirror enabled (bucket: %s)", targetCfg.Bucket)

		case "telegram":
			stor, err = storage.NewTelegram(&targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize Telegram: %v", err)
				continue
			}
			log.Infof("✓ Telegram mirror enabled")

		default:
			log.Warnf("Unknown upload target type: %s", targetCfg.Type)
			continue
		}

		targets = append(targets, usecase.UploadTarget{
			Name:    targetCfg.Type,
			Storage: stor,
		})
	}

	return targets
}

func initializeNotifiers(cfg *config.Config, log *logger.Logger) []domain.Notifier {
	notifiers := []domain.Notifier{notifier.NewEmail(cfg.Email)}
	log.Infof("✓ Email reports to %s via %s:%d", cfg.Email.Receiver, cfg.Email.Host, cfg.Email.Port)

	if cfg.Telegram.Enabled {
		tg, err := notifier.NewTelegram(cfg.Telegram)
		if err != nil {
			log.Errorf("Failed to initialize Telegram notifier: %v", err)
		} else {
			notifiers = append(notifiers, tg)
			log.Infof("✓ Telegram reports enabled")
		}
	}

	return notifiers
}

// RunOnce performs a single backup cycle immediately.
func (a *App) RunOnce(ctx context.Context) usecase.CycleOutcome {
	return a.cycle.Run(ctx)
}

// Run schedules the backup cycle and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	schedule := a.config.App.Schedule
	if schedule == "" {
		schedule = config.DefaultSchedule
	}

	next, err := scheduler.NextAfter(schedule, time.Now())
	if err != nil {
		return fmt.Errorf("failed to schedule backup: %w", err)
	}

	if err := a.scheduler.AddJob(schedule, func(jobCtx context.Context) error {
		a.logger.Infof("=== Scheduled backup triggered ===")
		err := a.cycle.Execute(jobCtx)
		a.logger.Infof("Next backup at %s", a.scheduler.Next().Format("2006-01-02 15:04:05"))
		return err
	}); err != nil {
		return fmt.Errorf("failed to schedule backup: %w", err)
	}

	a.scheduler.Start()
	a.logger.Infof("Database backup service started (schedule: %s)", schedule)
	a.logger.Infof("Next backup at %s", next.Format("2006-01-02 15:04:05"))

	<-ctx.Done()
	return nil
}

func (a *App) Shutdown() {
	a.logger.Infof("Shutting down application...")
	a.scheduler.Stop()
	a.logger.Close()
}
