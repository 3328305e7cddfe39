package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/callsurvey/internal/anthropic"
	"github.com/MikeSquared-Agency/callsurvey/internal/api"
	"github.com/MikeSquared-Agency/callsurvey/internal/batch"
	"github.com/MikeSquared-Agency/callsurvey/internal/config"
	"github.com/MikeSquared-Agency/callsurvey/internal/hermes"
	"github.com/MikeSquared-Agency/callsurvey/internal/oracle"
	"github.com/MikeSquared-Agency/callsurvey/internal/processor"
	"github.com/MikeSquared-Agency/callsurvey/internal/slack"
	"github.com/MikeSquared-Agency/callsurvey/internal/store"
	"github.com/MikeSquared-Agency/callsurvey/internal/tgi"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stderr))
}

// execute runs the root command and reports any error, including usage errors
// that never reach a RunE, on stderr.
func execute(ctx context.Context, args []string, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "callsurvey: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "callsurvey",
		Short:         "Extract structured survey answers from call transcripts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cfg.LogLevel)
		},
	}
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(newRunCmd(&cfg), newServeCmd(&cfg))
	return root
}

func newRunCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Classify every pending call log once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, *cfg)
			if err != nil {
				slog.Error("startup failed", "error", err)
				return err
			}
			defer a.Close()

			if _, err := a.runner.Run(ctx); err != nil {
				slog.Error("run failed", "error", err)
				return err
			}
			return nil
		},
	}
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API; batches run when triggered via POST /api/v1/runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, *cfg)
			if err != nil {
				slog.Error("startup failed", "error", err)
				return err
			}
			defer a.Close()

			srv := api.NewServer(cfg.Port, cfg.APIToken, a.runner)
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			slog.Info("callsurvey ready", "port", cfg.Port)

			select {
			case err := <-errCh:
				if err != nil {
					slog.Error("HTTP server error", "error", err)
				}
				return err
			case <-ctx.Done():
			}

			slog.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// app holds the wired pipeline and whatever needs closing.
type app struct {
	runner  *batch.Runner
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func setup(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{}

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)

	gen, err := newGenerator(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	slog.Info("oracle ready", "provider", cfg.OracleProvider, "model", cfg.Model)

	adapter := oracle.New(gen, oracle.Options{
		MaxPromptRunes:  cfg.MaxPromptRunes,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}, slog.Default())
	proc := processor.New(adapter, slog.Default())

	var pub batch.Publisher
	if cfg.NatsURL != "" {
		hc, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, hc.Close)
		pub = hc
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured, running without events")
	}

	a.runner = batch.NewRunner(st, proc, pub, slog.Default())

	// Slack is optional; without it summaries only go to the log and NATS.
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		a.runner.SetNotifier(slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default()))
		slog.Info("slack notifier ready", "channel", cfg.SlackChannel)
	}
	return a, nil
}

// openStore prefers a direct Postgres connection and falls back to the Supabase REST API.
func openStore(ctx context.Context, cfg config.Config) (batch.Store, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		s, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("database connected", "backend", "postgres")
		return s, s.Close, nil
	case cfg.SupabaseURL != "" && cfg.SupabaseKey != "":
		s, err := store.NewSupabase(ctx, cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("database connected", "backend", "supabase")
		return s, s.Close, nil
	default:
		return nil, nil, errors.New("DATABASE_URL or SUPABASE_URL and SUPABASE_KEY are required")
	}
}

func newGenerator(cfg config.Config) (oracle.Generator, error) {
	switch cfg.OracleProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, errors.New("ANTHROPIC_API_KEY is required")
		}
		return anthropic.NewClient(cfg.AnthropicAPIKey, cfg.Model), nil
	case "tgi":
		return tgi.NewClient(cfg.TGIURL), nil
	default:
		return nil, fmt.Errorf("unknown ORACLE_PROVIDER %q", cfg.OracleProvider)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
