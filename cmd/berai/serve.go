package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/berai-dev/berai/internal/analytics"
	"github.com/berai-dev/berai/internal/audit"
	"github.com/berai-dev/berai/internal/auth"
	"github.com/berai-dev/berai/internal/config"
	"github.com/berai-dev/berai/internal/handlers"
	"github.com/berai-dev/berai/internal/health"
	"github.com/berai-dev/berai/internal/logging"
	"github.com/berai-dev/berai/internal/notify"
	"github.com/berai-dev/berai/internal/realtime"
	"github.com/berai-dev/berai/internal/router"
	"github.com/berai-dev/berai/internal/services"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const (
	notifyQueueSize   = 256
	notifyTimeout     = 10 * time.Second
	webhookTimeout    = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gdb, err := setup()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			return runServe(cfg, gdb)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")

	return cmd
}

func runServe(cfg config.Config, gdb *gorm.DB) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := auth.InitJWTSecret(cfg.JWTSecret); err != nil {
		return err
	}

	checks := []health.Check{health.Database(gdb)}

	notifier, inbox, closeNotifiers, err := buildNotifier(cfg, &checks)
	if err != nil {
		return err
	}
	defer closeNotifiers()

	queue := notify.NewQueue(notifier, notifyQueueSize, notifyTimeout)
	queue.Start()
	defer queue.Stop()

	var (
		mirror  audit.Sink = audit.NopSink{}
		archive *analytics.MongoActivitySink
	)
	if cfg.MongoURI != "" {
		sink, err := analytics.NewMongoActivitySink(context.Background(), cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		defer sink.Close(context.Background())

		mirror = sink
		archive = sink
		checks = append(checks, health.FromPinger("mongodb", sink))
	}

	svc := services.New(services.Deps{
		DB:       gdb,
		Mirror:   mirror,
		Notifier: queue,
		AppURL:   cfg.AppURL,
	})

	hub := realtime.NewHub(cfg.AllowedOrigins)
	h := handlers.New(svc, hub, checks, cfg.Domain)
	if inbox != nil {
		h.WithInbox(inbox)
	}
	if archive != nil {
		h.WithArchive(archive)
	}
	r := router.NewRouter(h, svc.Users, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Logger.Infof("Event ID: SERVER_START, Description: Listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-stop:
		logging.Logger.Infof("Event ID: SERVER_SHUTDOWN, Description: Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(ctx)
}

// buildNotifier assembles the configured assignment channels. The log
// channel is always present. inbox is nil unless Cassandra is configured.
func buildNotifier(cfg config.Config, checks *[]health.Check) (notify.Notifier, *notify.InboxNotifier, func(), error) {
	channels := notify.Multi{notify.LogNotifier{}}
	var (
		closers []func()
		inbox   *notify.InboxNotifier
	)

	if cfg.WebhookURL != "" {
		webhook, err := notify.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookKind, webhookTimeout)
		if err != nil {
			return nil, nil, nil, err
		}
		channels = append(channels, webhook)
	}

	if len(cfg.CassandraHosts) > 0 {
		var err error
		inbox, err = notify.NewInboxNotifier(cfg.CassandraHosts)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to Cassandra: %w", err)
		}
		channels = append(channels, inbox)
		closers = append(closers, inbox.Close)
		*checks = append(*checks, health.FromPinger("cassandra", inbox))
	}

	return channels, inbox, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}
