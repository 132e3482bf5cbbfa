package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/parish/internal/backend"
	"github.com/alfredjeanlab/parish/internal/backup"
	"github.com/alfredjeanlab/parish/internal/broadcast"
	"github.com/alfredjeanlab/parish/internal/config"
	"github.com/alfredjeanlab/parish/internal/events"
	"github.com/alfredjeanlab/parish/internal/server"
	"github.com/alfredjeanlab/parish/internal/session"
	"github.com/alfredjeanlab/parish/internal/store"
	notifsync "github.com/alfredjeanlab/parish/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the parish HTTP server",
	GroupID: "system",
	// Override PersistentPreRunE so no client or profile is loaded.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		ctx := context.Background()
		st, err := backend.Open(ctx, cfg.StoreDSN)
		if err != nil {
			return err
		}

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				st.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (PARISH_NATS_URL not set)")
		}

		srv, err := server.New(server.Deps{
			Store:     st,
			Locks:     store.NewKeyMutex(),
			Publisher: publisher,
			Logger:    logger,
			Sync: notifsync.Config{
				BroadcastInterval: cfg.BroadcastInterval,
				ReminderInterval:  cfg.ReminderInterval,
				EventDebounce:     cfg.EventDebounce,
				Location:          loc,
			},
		})
		if err != nil {
			publisher.Close()
			st.Close()
			return err
		}

		srv.Sessions().StartReaper(&session.ReaperConfig{IdleThreshold: cfg.SessionIdle})

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.NewHTTPHandler(cfg.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		relayCancel := startRelay(cfg, srv.Log(), logger)
		scheduler := startBackup(ctx, cfg, srv, logger)

		logger.Info("parish server started", "http_addr", cfg.HTTPAddr, "origin", srv.Log().Origin())

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		srv.Sessions().Stop()
		logger.Info("sessions stopped")

		if relayCancel != nil {
			relayCancel()
		}
		if scheduler != nil {
			scheduler.Stop()
			logger.Info("backup scheduler stopped")
		}

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// startRelay ingests broadcasts from other instances when NATS is set.
func startRelay(cfg *config.Config, log *broadcast.Log, logger *slog.Logger) context.CancelFunc {
	if cfg.NATSURL == "" {
		return nil
	}
	sub, err := events.NewNATSSubscriber(cfg.NATSURL)
	if err != nil {
		logger.Error("failed to create relay subscriber", "err", err)
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := broadcast.NewRelay(log).Run(ctx, sub); err != nil {
			logger.Error("broadcast relay error", "err", err)
		}
		sub.Close()
	}()
	logger.Info("broadcast relay started")
	return cancel
}

// startBackup starts the export scheduler if any destination is configured.
func startBackup(ctx context.Context, cfg *config.Config, srv *server.Server, logger *slog.Logger) *backup.Scheduler {
	if cfg.BackupInterval <= 0 {
		return nil
	}

	var dests []backup.Destination
	if cfg.BackupS3Bucket != "" {
		s3Dest, err := backup.NewS3Destination(ctx, cfg.BackupS3Bucket, cfg.BackupS3Key, cfg.BackupS3Region, cfg.BackupS3Endpoint)
		if err != nil {
			logger.Error("failed to create S3 backup destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("backup S3 destination enabled", "bucket", cfg.BackupS3Bucket, "key", cfg.BackupS3Key)
		}
	}
	if cfg.BackupFile != "" {
		dests = append(dests, backup.FileDestination{Path: cfg.BackupFile})
		logger.Info("backup file destination enabled", "path", cfg.BackupFile)
	}
	if len(dests) == 0 {
		return nil
	}

	scheduler := backup.NewScheduler(srv.Log(), srv.Board(), dests, cfg.BackupInterval, logger)
	scheduler.Start()
	logger.Info("backup scheduler started", "interval", cfg.BackupInterval)
	return scheduler
}
