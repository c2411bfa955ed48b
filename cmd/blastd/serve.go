package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/blastkit/blastd/internal/config"
	"github.com/blastkit/blastd/internal/engine"
	"github.com/blastkit/blastd/internal/server"
	"github.com/blastkit/blastd/internal/tracing"
)

const shutdownGrace = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the load-generation API server",
		Long:  "Starts the HTTP API. Listen address and debug mode come from flags or the HOST, PORT and DEBUG environment variables; flags win.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return serve(cmd.Context(), *cfg)
		},
	}

	cmd.Flags().String("host", "", "listen host (default 0.0.0.0, env HOST)")
	cmd.Flags().Int("port", 0, "listen port (default 9000, env PORT)")
	cmd.Flags().Bool("debug", false, "verbose logging and gin debug mode (env DEBUG)")
	cmd.Flags().Float64("run-rate-limit", 0, "max run starts accepted per second, 0 disables the limit")

	return cmd
}

func serve(ctx context.Context, cfg config.ServerConfig) error {
	logger := newLogger(cfg.Debug)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := tracing.Init(ctx, tracing.FromEnv())
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	engineOpts := []engine.Option{}
	if provider.Enabled() {
		logger.Info().Msg("trace exporting enabled")
		engineOpts = append(engineOpts, engine.WithTracer(provider.Tracer()))
	}

	srv := server.New(cfg, engine.New(logger, engineOpts...), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	var out = zerolog.New(os.Stderr)
	if debug {
		level = zerolog.DebugLevel
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return out.Level(level).With().Timestamp().Logger()
}
