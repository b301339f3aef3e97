package cmd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/hris-labs/shiftgate/api"
	"github.com/hris-labs/shiftgate/attendance"
	"github.com/hris-labs/shiftgate/config"
	"github.com/hris-labs/shiftgate/internal/util"
	"github.com/hris-labs/shiftgate/shift"
)

type serverOptions struct {
	port          int
	dataDir       string
	tlsCert       string
	tlsKey        string
	tlsSelfSigned bool
	storage       string
	directoryURL  string
}

func newServerCommand(root *rootOptions) *cobra.Command {
	opts := &serverOptions{}
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the session and attendance API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := root.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runServer(cmd, cfg, logger)
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func (o *serverOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&o.port, "port", "p", 8080, "Port to listen on")
	cmd.Flags().StringVar(&o.dataDir, "data-dir", "./data", "Directory for persistent data")
	cmd.Flags().StringVar(&o.tlsCert, "tls-cert", "", "Path to TLS certificate file")
	cmd.Flags().StringVar(&o.tlsKey, "tls-key", "", "Path to TLS key file")
	cmd.Flags().BoolVar(&o.tlsSelfSigned, "tls-self-signed", false, "Serve TLS with a runtime generated certificate")
	cmd.Flags().StringVar(&o.storage, "storage", config.BackendBbolt, "Storage backend (bbolt|memory|postgres|sqlite)")
	cmd.Flags().StringVar(&o.directoryURL, "directory", "", "Remote session directory URL (default: local session store)")
}

// apply copies explicitly set flags over the file configuration.
func (o *serverOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = o.port
	}
	if flags.Changed("data-dir") {
		cfg.Server.DataDir = o.dataDir
	}
	if flags.Changed("tls-cert") {
		cfg.Server.TLSCert = o.tlsCert
	}
	if flags.Changed("tls-key") {
		cfg.Server.TLSKey = o.tlsKey
	}
	if flags.Changed("tls-self-signed") {
		cfg.Server.TLSSelfSigned = o.tlsSelfSigned
	}
	if flags.Changed("storage") {
		cfg.Storage.Backend = o.storage
	}
	if flags.Changed("directory") {
		cfg.Directory.URL = o.directoryURL
	}
}

func runServer(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	sessions := attendance.NewSessionStore(repo)
	records := attendance.NewRecordStore(repo)
	cache := newCache(cfg, newSessionDirectory(cfg, sessions))

	monitor := api.NewFallbackMonitor(func(e api.AlertEvent) {
		logger.Error("alert",
			"type", e.Type,
			"message", e.Message,
			"count", e.Count,
			"threshold", e.Threshold,
			"last_error", e.LastError)
	}, cfg.Alerts.FallbackWindow.Duration, cfg.Alerts.FallbackThreshold)

	engine := shift.NewEngine(cache,
		shift.WithLogger(logger),
		shift.WithFallbackHook(monitor.Observe))

	recorderOpts := []attendance.RecorderOption{
		attendance.WithLocation(loc),
		attendance.WithDebounce(cfg.Attendance.Debounce.Duration),
		attendance.WithRecorderLogger(logger),
	}
	if cfg.Webhook.URL != "" {
		webhook := api.NewWebhook(cfg.Webhook.URL, cfg.Webhook.AuthHeader, logger)
		defer webhook.Close()
		recorderOpts = append(recorderOpts, attendance.WithNotifier(webhook))
	}
	recorder := attendance.NewRecorder(engine, records, recorderOpts...)

	a := api.New(sessions, records, recorder, engine,
		api.WithCache(cache),
		api.WithLogger(logger))

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.SecurityHeaders)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Mount("/api/v1", a.Router())

	tlsConfig, err := serverTLSConfig(cfg)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	done := make(chan error, 1)
	go func() {
		var err error
		if tlsConfig != nil {
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- fmt.Errorf("server failed: %w", err)
			return
		}
		done <- nil
	}()

	printBanner(out)
	directorySource := "local session store"
	if cfg.Directory.URL != "" {
		directorySource = cfg.Directory.URL
	}
	fmt.Fprintf(out, "Starting server on port %d (storage: %s, directory: %s, tls: %t)...\n",
		cfg.Server.Port, cfg.Storage.Backend, directorySource, tlsConfig != nil)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-done:
		return err
	}
}

// serverTLSConfig returns nil for plain HTTP.
func serverTLSConfig(cfg *config.Config) (*tls.Config, error) {
	var cert tls.Certificate
	var err error
	switch {
	case cfg.Server.TLSCert != "" && cfg.Server.TLSKey != "":
		cert, err = tls.LoadX509KeyPair(cfg.Server.TLSCert, cfg.Server.TLSKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS key pair: %w", err)
		}
	case cfg.Server.TLSSelfSigned:
		cert, err = util.GenerateSelfSignedCert()
		if err != nil {
			return nil, fmt.Errorf("failed to generate self-signed certificate: %w", err)
		}
	default:
		return nil, nil
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
