// Command glassmark is a screen-overlay drawing tool. It sits in the
// background until a global hotkey brings up a transparent, topmost
// drawing surface on every monitor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"glassmark/internal/config"
	"glassmark/internal/history"
	"glassmark/internal/hotkey"
	"glassmark/internal/logging"
	"glassmark/internal/overlay"
	"glassmark/internal/stats"
	"glassmark/internal/tools"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to the config file (default: platform config dir)")
	recordFlag := flag.Bool("record-hotkey", false, "interactively record a new activation hotkey and exit")
	force := flag.Bool("force", false, "with -record-hotkey, accept an OS-reserved combination")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("glassmark %s\n", version)
		return
	}

	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}

	cfg, loader, err := config.LoadOrCreate(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "glassmark: load config: %v\n", err)
		os.Exit(1)
	}
	defer loader.Close()

	log, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "glassmark: setup logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()
	logging.SetDefault(log)

	if *recordFlag {
		os.Exit(runRecorder(cfg, path, *force, log))
	}

	a, err := newApp(cfg, loader, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	os.Exit(a.run())
}

func setupLogging(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Format = format
	if cfg.Logging.Output != "" {
		lc.Output = cfg.Logging.Output
	}
	if cfg.Logging.FilePath != "" {
		lc.FilePath = cfg.Logging.FilePath
	}
	return logging.New(lc)
}

// runRecorder captures a new hotkey combination and persists it.
func runRecorder(cfg *config.Config, path string, force bool, log *logging.Logger) int {
	in := hotkey.NewInterceptor()
	poller, _ := in.(hotkey.StatePoller)
	rec := hotkey.NewRecorder(in, poller, log)

	fmt.Println("Press the new hotkey combination, then release all keys.")
	fmt.Println("Press Escape to abort.")

	combo, err := rec.Record(context.Background())
	switch {
	case errors.Is(err, hotkey.ErrRecordingAborted):
		fmt.Println("Aborted.")
		return 0
	case errors.Is(err, hotkey.ErrReservedCombination):
		if !force {
			fmt.Printf("%s is reserved by the operating system and may not work.\n", combo)
			fmt.Println("Re-run with -force to use it anyway.")
			return 1
		}
	case err != nil:
		fmt.Fprintf(os.Stderr, "recording failed: %v\n", err)
		return 1
	}

	cfg.Hotkey.Combination = combo.String()
	if err := config.SaveConfig(cfg, path); err != nil {
		fmt.Fprintf(os.Stderr, "save config: %v\n", err)
		return 1
	}
	fmt.Printf("Hotkey set to %s.\n", combo)
	return 0
}

// app owns the long-running pieces and the shell event loop.
type app struct {
	cfg    *config.Config
	loader *config.Loader
	log    *logging.Logger

	engine  *hotkey.Engine
	orch    *overlay.Orchestrator
	hist    *history.Stack
	stats   *stats.Store
	palette *tools.Palette

	drawing    bool
	toggleMode bool
}

func newApp(cfg *config.Config, loader *config.Loader, log *logging.Logger) (*app, error) {
	a := &app{
		cfg:        cfg,
		loader:     loader,
		log:        log.WithComponent("shell"),
		hist:       history.New(log),
		toggleMode: cfg.Hotkey.ToggleMode,
		palette: tools.NewPalette(tools.Settings{
			Color:     cfg.Drawing.Color,
			Thickness: cfg.Drawing.Thickness,
		}),
	}

	if cfg.Stats.Enabled {
		statsPath := cfg.Stats.Path
		if statsPath == "" {
			statsPath = filepath.Join(filepath.Dir(config.ConfigPath()), "stats.db")
		}
		store, err := stats.Open(statsPath, log)
		if err != nil {
			// Stats are optional; the tool works without them.
			a.log.Warn("stats disabled", "error", err)
		} else {
			a.stats = store
		}
	}

	monitors, err := overlay.Monitors()
	if err != nil {
		a.log.Warn("monitor enumeration failed", "error", err)
	}
	factory := overlay.NewWindowFactory(overlay.FactoryOptions{
		RecordAction: func(surfaceID string, element history.ElementID) {
			a.hist.RecordAction(surfaceID, element)
			a.record(stats.StrokeMetric(a.palette.Active().Kind()))
		},
		RemoveAction: func(element history.ElementID) {
			a.hist.RemoveFromHistory(element)
		},
	}, log)
	a.orch, err = overlay.New(monitors, factory, log)
	if err != nil {
		if a.stats != nil {
			a.stats.Close()
		}
		return nil, err
	}

	combo, err := cfg.Combination()
	if err != nil {
		// Validation runs at load time, so this is unreachable in
		// practice, but a malformed combination still falls back to
		// the default rather than leaving the hotkey dead.
		a.log.Error("configured hotkey invalid, using default", "error", err)
		combo = hotkey.DefaultCombination()
	}

	a.engine = hotkey.NewEngine(hotkey.NewInterceptor(), log)
	a.engine.Configure(combo)

	a.orch.OnToolChanged(cfg.Tool())
	if err := a.palette.Select(cfg.Tool()); err != nil {
		a.log.Warn("startup tool rejected", "error", err)
	}

	loader.OnChange(a.applyConfig)
	if err := loader.Watch(); err != nil {
		a.log.Warn("config watching disabled", "error", err)
	}

	return a, nil
}

// applyConfig picks up a live config edit: new hotkey combination and
// brush settings take effect immediately.
func (a *app) applyConfig(cfg *config.Config) {
	combo, err := cfg.Combination()
	if err == nil {
		a.engine.Configure(combo)
	}
	a.palette.SetColor(cfg.Drawing.Color)
	a.palette.SetThickness(cfg.Drawing.Thickness)
	a.toggleMode = cfg.Hotkey.ToggleMode
	a.log.Info("configuration reloaded")
}

func (a *app) run() int {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	defer a.shutdown()

	if err := a.engine.Start(); err != nil {
		a.log.Error("keyboard hook failed", "error", err)
		return 1
	}

	a.log.Info("glassmark ready",
		"hotkey", a.cfg.Hotkey.Combination,
		"surfaces", a.orch.SurfaceCount(),
		"version", version)

	for {
		select {
		case <-sig:
			a.log.Info("shutting down")
			return 0
		case ev := <-a.engine.Events():
			a.handleEvent(ev)
		case err := <-a.loader.Errors():
			a.log.Warn("config reload failed", "error", err)
		}
	}
}

func (a *app) handleEvent(ev hotkey.Event) {
	switch ev.Type {
	case hotkey.HotkeyPressed:
		if a.toggleMode && a.drawing {
			a.disableDrawing()
			return
		}
		a.enableDrawing()

	case hotkey.HotkeyReleased:
		if !a.toggleMode && a.drawing {
			a.disableDrawing()
		}

	case hotkey.EscapePressed:
		if !a.drawing {
			return
		}
		if stay := a.orch.HandleEscapeKey(); !stay {
			a.disableDrawing()
		}

	case hotkey.ToolSelected:
		if err := a.palette.Select(ev.Tool); err != nil {
			a.log.Warn("tool selection rejected", "tool", ev.Tool.String())
			return
		}
		a.orch.OnToolChanged(ev.Tool)

	case hotkey.UndoRequested:
		if a.hist.Undo(a.orch) {
			a.record(stats.MetricUndos)
		}

	case hotkey.ClearCanvasRequested:
		err := a.orch.ShowClearCanvasConfirmation(
			func() {
				a.orch.ClearCanvas(true)
				a.hist.Clear()
				a.record(stats.MetricClears)
			},
			func() {},
		)
		if err != nil && !errors.Is(err, overlay.ErrConfirmationPending) {
			a.log.Warn("clear confirmation failed", "error", err)
		}

	case hotkey.HelpRequested:
		a.orch.ToggleHelp()

	case hotkey.ScreenshotRequested:
		// Capture itself is handled by the OS screenshot pipeline;
		// the surfaces just flash the saved toast.
		a.orch.ShowScreenshotSaved()
		a.record(stats.MetricScreenshots)
	}
}

func (a *app) enableDrawing() {
	a.drawing = true
	a.orch.EnableDrawing()
	a.orch.Show()
	a.orch.Activate()
	a.orch.Focus()
	a.engine.SetActionKeysEnabled(true)
	a.record(stats.MetricActivations)
	a.log.Info("drawing mode on")
}

func (a *app) disableDrawing() {
	a.drawing = false
	a.engine.SetActionKeysEnabled(false)
	a.orch.HideClearCanvasConfirmation()
	a.orch.DisableDrawing(false)
	a.orch.Hide()
	a.log.Info("drawing mode off")
}

// record counts a usage metric. Stats are optional; without a store
// this is a no-op.
func (a *app) record(metric string) {
	if a.stats != nil {
		a.stats.Record(metric)
	}
}

// shutdown tears everything down in dependency order: the hook first
// so no more events arrive, then the surfaces, then storage.
func (a *app) shutdown() {
	a.engine.Dispose()
	a.orch.Dispose()
	if a.stats != nil {
		if err := a.stats.Close(); err != nil {
			a.log.Warn("stats close failed", "error", err)
		}
	}
}
