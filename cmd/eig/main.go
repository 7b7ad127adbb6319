// Command eig inspects and tunes the configuration of a tensegrity fabric:
// the stage lifecycle, interval roles and their rest lengths, and the feature
// table the force integrator reads every tick.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/jessevdk/go-flags"

	"github.com/talgya/eig/internal/api"
	"github.com/talgya/eig/internal/config"
	"github.com/talgya/eig/internal/engine"
	"github.com/talgya/eig/internal/fabric"
	"github.com/talgya/eig/internal/hostlog"
	"github.com/talgya/eig/internal/persistence"
)

// opts holds all command-line options.
type opts struct {
	DB       string `long:"db" env:"EIG_DB" default:"data/eig.db" description:"profile database path"`
	Profile  string `short:"f" long:"profile" description:"YAML profile file to apply"`
	Load     string `short:"l" long:"load" description:"stored profile to apply"`
	SaveAs   string `long:"save-as" description:"store the applied overrides under this name"`
	Export   string `long:"export" description:"write the applied overrides to a YAML file"`
	Delete   string `long:"delete" description:"remove a stored profile"`
	List     bool   `long:"list" description:"list stored profiles"`
	Walk     bool   `short:"w" long:"walk" description:"walk a fabric through its lifecycle"`
	Serve    bool   `short:"s" long:"serve" description:"serve the HTTP API until interrupted"`
	Port     int    `short:"p" long:"port" env:"EIG_PORT" default:"8080" description:"HTTP API port"`
	AdminKey string `long:"admin-key" env:"EIG_ADMIN_KEY" description:"bearer token for POST and DELETE endpoints"`
	Proxied  bool   `long:"trust-proxy" env:"EIG_TRUST_PROXY" description:"rate limit by X-Forwarded-For (only behind a proxy)"`
	NoColor  bool   `long:"no-color" description:"disable color output"`
	Debug    bool   `short:"d" long:"debug" description:"enable debug logging"`
}

func main() {
	var o opts
	parser := flags.NewParser(&o, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	level := slog.LevelInfo
	if o.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if o.NoColor {
		color.NoColor = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, o, os.Stdout); err != nil {
		slog.Error("eig failed", "error", err)
		os.Exit(1)
	}
}

// needsDB reports whether any option touches the profile store.
func (o opts) needsDB() bool {
	return o.Load != "" || o.SaveAs != "" || o.Delete != "" || o.List || o.Serve
}

func run(ctx context.Context, o opts, out io.Writer) error {
	features := fabric.NewFeatures()

	// ── Profile store ─────────────────────────────────────────────────
	var db *persistence.DB
	if o.needsDB() {
		if dir := filepath.Dir(o.DB); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("create db dir: %w", err)
			}
		}
		var err error
		db, err = persistence.Open(o.DB)
		if err != nil {
			return err
		}
		defer db.Close()
		slog.Debug("database opened", "path", o.DB)
	}

	// ── Overrides ─────────────────────────────────────────────────────
	if o.Load != "" {
		p, err := db.LoadProfile(o.Load)
		if err != nil {
			return err
		}
		if err := p.Apply(features); err != nil {
			return err
		}
		slog.Info("stored profile applied", "name", p.Name, "overrides", len(p.Overrides))
	}
	if o.Profile != "" {
		p, err := config.Load(o.Profile)
		if err != nil {
			return err
		}
		if err := p.Apply(features); err != nil {
			return err
		}
		slog.Info("profile file applied", "name", p.Name, "path", o.Profile, "overrides", len(p.Overrides))
	}

	if o.SaveAs != "" {
		if _, err := db.SaveProfile(config.Capture(o.SaveAs, features)); err != nil {
			return err
		}
	}
	if o.Export != "" {
		name := o.SaveAs
		if name == "" {
			name = trimExt(filepath.Base(o.Export))
		}
		if err := config.Capture(name, features).Save(o.Export); err != nil {
			return err
		}
		slog.Info("profile exported", "path", o.Export)
	}

	if o.Delete != "" {
		if err := db.DeleteProfile(o.Delete); err != nil {
			return err
		}
		slog.Info("profile deleted", "name", o.Delete)
	}

	// ── Output ────────────────────────────────────────────────────────
	if o.List {
		list, err := db.ListProfiles()
		if err != nil {
			return err
		}
		writeProfiles(out, list, time.Now())
		return nil
	}

	writeStages(out)
	writeRoles(out, features)
	writeFeatures(out, features)
	writePalette(out)

	var eng *engine.Engine
	if o.Walk {
		eng = walker(out, features)
	}

	if o.Serve {
		return serve(ctx, o, features, db, eng)
	}
	if eng != nil {
		return eng.Run(ctx)
	}
	return nil
}

// walker returns an engine that drives a fabric with no integrator attached
// through every stage, moving on whenever a stage's countdown runs out.
func walker(out io.Writer, features *fabric.Features) *engine.Engine {
	lifecycle := engine.NewLifecycle(features, hostlog.NewSlog(slog.Default()).WithLevel(slog.LevelDebug))
	eng := engine.NewEngine(features, lifecycle)

	fmt.Fprintln(out, "\nLifecycle")
	writeTransition(out, 0, fabric.StageBusy, lifecycle.Countdown())
	lifecycle.OnStage = func(from, to fabric.Stage) {
		writeTransition(out, eng.Frame, to, lifecycle.Countdown())
	}
	eng.OnFrame = func(frame uint64, stage fabric.Stage) {
		if lifecycle.Countdown() > 0 || stage >= fabric.StageRealizing {
			return
		}
		if err := lifecycle.Advance(stage + 1); err != nil {
			slog.Error("advance failed", "stage", stage, "error", err)
			eng.Stop()
		}
	}
	return eng
}

// serve runs the HTTP API until ctx is cancelled. A walking engine, if any,
// runs alongside and its lifecycle is reported by the API.
func serve(ctx context.Context, o opts, features *fabric.Features, db *persistence.DB, eng *engine.Engine) error {
	if o.AdminKey == "" {
		slog.Warn("EIG_ADMIN_KEY not set, admin endpoints will be disabled")
	}
	srv := (&api.Server{
		Features:   features,
		Engine:     eng,
		DB:         db,
		Port:       o.Port,
		AdminKey:   o.AdminKey,
		TrustProxy: o.Proxied,
	}).Start()

	if eng != nil {
		if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
	}

	<-ctx.Done()
	slog.Info("shutting down HTTP API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
