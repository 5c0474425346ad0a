// imepad is a small form of text fields for trying input method
// composition.
//
// Composition events come from an IBus input context on Linux. Keys typed
// into the focused field are offered to IBus first and only reach the
// field when the input method passes on them. With -demo,
// a scripted composition is replayed instead so the preedit and commit
// handling can be watched without an input method. Style changes in the
// config file apply while the window is open.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"gioui.org/app"
	"gioui.org/font/gofont"
	"gioui.org/op"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"imecompose/cmd/imepad/internal/theme"
	"imecompose/cmd/imepad/internal/ui"
	"imecompose/internal/config"
	"imecompose/internal/ibus"
	"imecompose/internal/journal"
	"imecompose/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "config file (default: search the working and config directories)")
	demo := flag.Bool("demo", false, "replay a scripted composition instead of connecting to IBus")
	interval := flag.Duration("demo-interval", 600*time.Millisecond, "delay between scripted events")
	flag.Parse()

	go func() {
		w := new(app.Window)
		if err := run(w, *configPath, *demo, *interval); err != nil {
			fmt.Fprintf(os.Stderr, "imepad: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
}

func run(w *app.Window, path string, demo bool, interval time.Duration) error {
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		path = config.ConfigPath()
	}

	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	lc, err := cfg.LoggerConfig()
	if err != nil {
		return err
	}
	lc.Component = "imepad"
	logger, err := logging.New(lc)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Close()
	logging.SetDefault(logger)
	logger.Info("starting", "config", path, "demo", demo)

	w.Option(
		app.Title(cfg.Window.Title),
		app.Size(unit.Dp(float32(cfg.Window.Width)), unit.Dp(float32(cfg.Window.Height))),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := ui.Options{Logger: logger.WithComponent("pad")}

	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			logger.Warn("journal unavailable", "path", cfg.Journal.Path, "error", err)
		} else {
			defer j.Close()
			opts.Journal = j
			logger.Info("journal opened", "path", cfg.Journal.Path, "session", j.Session())
		}
	}

	switch {
	case demo:
		s := newScript(demoSteps)
		s.start(interval, w.Invalidate)
		defer s.Close()
		opts.Source = s
		opts.SourceName = "demo script"

	case cfg.IBus.Enabled && runtime.GOOS == "linux":
		client, err := ibus.Dial(ctx, ibus.Config{
			Address:    cfg.IBus.Address,
			ClientName: cfg.IBus.ClientName,
			BufferSize: cfg.IBus.BufferSize,
			Notify:     w.Invalidate,
		}, logger.WithComponent("ibus"))
		if err != nil {
			logger.Warn("ibus unavailable, running without input method events", "error", err)
			break
		}
		defer client.Close()
		opts.Source = client
		opts.SourceName = "ibus"
		opts.Window = client
		opts.Keys = client
		opts.Counters = client
		opts.Focus = func(focused bool) {
			var err error
			if focused {
				err = client.FocusIn()
			} else if err = client.Reset(); err == nil {
				err = client.FocusOut()
			}
			if err != nil {
				logger.Debug("ibus focus", "focused", focused, "error", err)
			}
		}
	}

	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	pad := ui.NewPad(theme.NewTheme(th), cfg, opts)

	if err := loader.Watch(); err != nil {
		logger.Warn("config hot reload disabled", "error", err)
	} else {
		defer loader.Close()
		loader.OnChange(func(c *config.Config) {
			logger.Info("config reloaded", "path", path)
			pad.ApplyConfig(c)
			w.Invalidate()
		})
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case err := <-loader.Errors():
					logger.Warn("config reload failed", "error", err)
				}
			}
		}()
	}

	return loop(w, pad)
}

func loop(w *app.Window, pad *ui.Pad) error {
	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			pad.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}
