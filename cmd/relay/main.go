package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"scred/internal/app"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		database   string
		secret     string
		tokenTTL   time.Duration
		logLevel   string
		logFormat  string
	)
	cmd := &cobra.Command{
		Use:          "relay",
		Short:        "Run the scred directory and websocket relay",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadServerConfig(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Addr = addr
			}
			if flags.Changed("db") {
				cfg.Database = database
			}
			if flags.Changed("token-ttl") {
				cfg.TokenTTL = tokenTTL
			}
			if flags.Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			if flags.Changed("log-format") {
				cfg.Log.Format = logFormat
			}
			switch {
			case flags.Changed("jwt-secret"):
				cfg.JWTSecret = secret
			case os.Getenv("SCRED_JWT_SECRET") != "":
				cfg.JWTSecret = os.Getenv("SCRED_JWT_SECRET")
			}

			log, err := app.NewLogger(cfg.Log)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML config file")
	f.StringVar(&addr, "addr", ":8080", "listen address")
	f.StringVar(&database, "db", "scred.db", "SQLite database path (:memory: for a throwaway directory)")
	f.StringVar(&secret, "jwt-secret", "", "HMAC secret for access tokens (or $SCRED_JWT_SECRET)")
	f.DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "access token lifetime")
	f.StringVar(&logLevel, "log-level", "info", "log level")
	f.StringVar(&logFormat, "log-format", "text", "log format (text or json)")
	return cmd
}

// serve runs the relay until ctx is cancelled, then drains in-flight HTTP
// requests and disconnects websocket clients.
func serve(ctx context.Context, cfg app.ServerConfig, log *logrus.Logger) error {
	relay, err := app.NewServer(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := relay.Close(); err != nil {
			log.WithError(err).Error("close relay")
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           relay.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"addr": cfg.Addr, "db": cfg.Database}).Info("relay listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
