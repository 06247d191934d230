package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/abilitycore/internal/battle"
	"github.com/udisondev/abilitycore/internal/config"
	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/db"
	"github.com/udisondev/abilitycore/internal/observer"
	"github.com/udisondev/abilitycore/internal/telemetry"
)

const EngineConfigPath = "config/engine.yaml"

func main() {
	scenarioPath := flag.String("scenario", "", "scenario file, overrides scenario_path from config")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, *scenarioPath); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, scenarioPath string) error {
	// .env is optional; variables may be set directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("loading .env", "err", err)
	}

	cfgPath := EngineConfigPath
	if p := os.Getenv("ABILITYCORE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadEngine(cfgPath)
	if err != nil {
		return fmt.Errorf("loading engine config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("combatsim starting", "config", cfgPath, "log_level", cfg.LogLevel, "tick", cfg.TickInterval)

	content, err := data.LoadContent(cfg.ContentPath)
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}
	// Bad entries are skipped at runtime; one broken skill must not stop the battle.
	warnAll("content problem", content.Validate())

	if scenarioPath == "" {
		scenarioPath = cfg.ScenarioPath
	}
	sc, err := battle.LoadScenario(scenarioPath)
	if err != nil {
		return fmt.Errorf("loading scenario: %w", err)
	}
	warnAll("scenario problem", sc.Validate(content))

	var opts []battle.Option

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Setup(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			slog.Warn("telemetry setup failed, running without tracing", "err", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					slog.Warn("shutting down telemetry", "err", err)
				}
			}()
			opts = append(opts, battle.WithTracer(telemetry.Tracer("battle")))
		}
	}

	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		version, err := db.RunMigrations(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied", "version", version)

		opts = append(opts, battle.WithStore(database.CombatLog()))
	}

	g, gctx := errgroup.WithContext(ctx)
	serverCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()

	if cfg.Observer.Enabled {
		hub := observer.NewHub()
		opts = append(opts, battle.WithObserver(hub))

		srv := observer.NewServer(cfg.Observer.Addr(), hub)
		g.Go(func() error {
			slog.Info("starting observer", "address", cfg.Observer.Addr())
			if err := srv.Run(serverCtx); err != nil {
				return fmt.Errorf("observer: %w", err)
			}
			return nil
		})
	}

	runner := battle.NewRunner(cfg, content, opts...)
	g.Go(func() error {
		defer stopServer()

		sum, err := runner.Run(gctx, sc)
		if sum != nil {
			logSummary(sum)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("battle: %w", err)
		}

		if cfg.Observer.Enabled && cfg.Observer.Linger > 0 {
			slog.Info("battle over, observer lingering", "linger", cfg.Observer.Linger)
			select {
			case <-time.After(cfg.Observer.Linger):
			case <-gctx.Done():
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("combatsim stopped")
	return nil
}

func logSummary(sum *battle.Summary) {
	slog.Info("battle summary",
		"battle", sum.BattleID,
		"scenario", sum.Scenario,
		"elapsed", sum.Elapsed,
		"winner", sum.Winner,
		"rejected", sum.Rejected)
	for _, a := range sum.Actors {
		slog.Info("actor",
			"name", a.Name,
			"team", a.Team,
			"hp", fmt.Sprintf("%.1f/%.1f", a.HP, a.MaxHP),
			"alive", a.Alive,
			"statuses", a.Statuses)
	}
	for kind, n := range sum.Events {
		slog.Debug("event count", "type", kind, "count", n)
	}
}

// warnAll logs each error joined in err.
func warnAll(msg string, err error) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			slog.Warn(msg, "err", e)
		}
		return
	}
	slog.Warn(msg, "err", err)
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
