/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"

	"pageview/internal/config"
	"pageview/internal/crash"
	"pageview/internal/domain"
	"pageview/internal/geom"
	"pageview/internal/layout"
	applog "pageview/internal/log"
	"pageview/internal/manifest"
	"pageview/internal/version"
	"pageview/internal/viewport"
)

// env is the state shared by all commands of one invocation.
type env struct {
	out      io.Writer
	snap     *crash.Snapshot
	cfgPath  string
	cfg      config.AppConfig
	pages    []domain.PageInfo
	viewport geom.Size
	log      *slog.Logger
	start    time.Time
	layouts  layout.Cache
}

func newApp(out io.Writer, snap *crash.Snapshot) *cli.Command {
	if snap == nil {
		snap = &crash.Snapshot{}
	}
	e := &env{out: out, snap: snap}
	return &cli.Command{
		Name:            "pageview",
		Usage:           "multi-page document layout, viewport and snap calculations",
		Version:         version.String(),
		Writer:          out,
		HideHelpCommand: true,
		Before:          e.prepare,
		After:           e.finish,
		ExitErrHandler:  e.exitErr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Sources: cli.EnvVars("PV_CONFIG"), Usage: "load configuration from `FILE` (YAML)"},
			&cli.StringFlag{Name: "pages", Aliases: []string{"p"}, Usage: "read the page list from manifest `FILE` (JSON)"},
			&cli.IntFlag{Name: "count", Value: 3, Usage: "without --pages, synthesize `N` uniform pages"},
			&cli.FloatFlag{Name: "page-width", Value: 612, Usage: "width of synthesized pages"},
			&cli.FloatFlag{Name: "page-height", Value: 792, Usage: "height of synthesized pages"},
			&cli.FloatFlag{Name: "width", Value: 1080, Usage: "viewport width in pixels"},
			&cli.FloatFlag{Name: "height", Value: 1920, Usage: "viewport height in pixels"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log at debug level"},
		},
		Commands: []*cli.Command{
			{
				Name:   "layout",
				Usage:  "Computes page placements, visibility and the current page",
				Flags:  stateFlags(),
				Action: e.layoutCmd,
			},
			{
				Name:  "snap",
				Usage: "Computes the settle target for a released scroll",
				Flags: append(stateFlags(),
					&cli.FloatFlag{Name: "vx", Usage: "release velocity along x (scroll units/s)"},
					&cli.FloatFlag{Name: "vy", Usage: "release velocity along y (scroll units/s)"},
					&cli.StringFlag{Name: "type", Usage: "force snap `TYPE` (none, center, top, edge, boundary)"},
				),
				Action: e.snapCmd,
			},
			{
				Name:  "settle",
				Usage: "Emits the eased scroll frames of a snap animation",
				Flags: append(stateFlags(),
					&cli.FloatFlag{Name: "vx", Usage: "release velocity along x (scroll units/s)"},
					&cli.FloatFlag{Name: "vy", Usage: "release velocity along y (scroll units/s)"},
					&cli.StringFlag{Name: "type", Usage: "force snap `TYPE` (none, center, top, edge, boundary)"},
					&cli.IntFlag{Name: "frames", Value: 10, Usage: "number of frames"},
					&cli.FloatFlag{Name: "strength", Value: 1, Usage: "easing strength, 0 linear to 1 cubic"},
				),
				Action: e.settleCmd,
			},
			{
				Name:  "fit",
				Usage: "Reports fit zooms and scroll targets for a page",
				Flags: append(stateFlags(),
					&cli.IntFlag{Name: "page", Usage: "page `NUMBER`"},
				),
				Action: e.fitCmd,
			},
			{
				Name:  "gesture",
				Usage: "Applies a pinch/pan gesture to the viewport",
				Flags: append(stateFlags(),
					&cli.FloatFlag{Name: "pivot-x", Usage: "gesture pivot x in screen pixels"},
					&cli.FloatFlag{Name: "pivot-y", Usage: "gesture pivot y in screen pixels"},
					&cli.FloatFlag{Name: "factor", Value: 1, Usage: "multiplicative zoom factor"},
					&cli.FloatFlag{Name: "dx", Usage: "pan along x in screen pixels"},
					&cli.FloatFlag{Name: "dy", Usage: "pan along y in screen pixels"},
				),
				Action: e.gestureCmd,
			},
			{
				Name:  "doubletap",
				Usage: "Applies a double tap at a screen point",
				Flags: append(stateFlags(),
					&cli.FloatFlag{Name: "x", Usage: "tap x in screen pixels"},
					&cli.FloatFlag{Name: "y", Usage: "tap y in screen pixels"},
				),
				Action: e.doubleTapCmd,
			},
			{
				Name:  "resize",
				Usage: "Resizes or rotates the viewport keeping the visible center",
				Flags: append(stateFlags(),
					&cli.FloatFlag{Name: "to-width", Usage: "new viewport width"},
					&cli.FloatFlag{Name: "to-height", Usage: "new viewport height"},
					&cli.FloatFlag{Name: "rotate", Usage: "device rotation in degrees"},
				),
				Action: e.resizeCmd,
			},
			{
				Name:   "diagnose",
				Usage:  "Estimates rendering cost of the current viewport",
				Flags:  stateFlags(),
				Action: e.diagnoseCmd,
			},
			{
				Name:  "animate",
				Usage: "Emits an eased transform sequence between two viewport states",
				Flags: append(stateFlags(),
					&cli.FloatFlag{Name: "to-zoom", Value: 1, Usage: "target zoom"},
					&cli.FloatFlag{Name: "to-scroll-x", Usage: "target scroll x in scaled pixels"},
					&cli.FloatFlag{Name: "to-scroll-y", Usage: "target scroll y in scaled pixels"},
					&cli.IntFlag{Name: "frames", Value: 10, Usage: "number of frames"},
					&cli.FloatFlag{Name: "strength", Value: 1, Usage: "easing strength, 0 linear to 1 cubic"},
				),
				Action: e.animateCmd,
			},
			{
				Name:      "manifest",
				Usage:     "Writes the active page list as a manifest",
				ArgsUsage: "[DESTINATION]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "document title"},
					&cli.BoolFlag{Name: "schema", Usage: "print the manifest JSON schema instead"},
				},
				Action: e.manifestCmd,
			},
			{
				Name:      "dumpconfig",
				Usage:     "Dumps the effective configuration (YAML)",
				ArgsUsage: "[DESTINATION]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output the built-in defaults"},
				},
				Action: e.dumpConfigCmd,
			},
			{
				Name:   "version",
				Usage:  "Shows version information",
				Action: e.versionCmd,
			},
		},
	}
}

// stateFlags describe the live viewport state. Scroll is in scaled pixels.
func stateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{Name: "zoom", Value: 1, Usage: "zoom level"},
		&cli.FloatFlag{Name: "scroll-x", Usage: "scroll x in scaled pixels"},
		&cli.FloatFlag{Name: "scroll-y", Usage: "scroll y in scaled pixels"},
	}
}

// prepare loads configuration and pages and initialises logging. Problems
// with the configuration, the page list and the viewport are reported
// together.
func (e *env) prepare(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	e.start = time.Now()
	var err error

	e.cfgPath = cmd.String("config")
	cfg, cerr := loadConfig(e.cfgPath)
	err = multierr.Append(err, cerr)
	if cmd.Bool("debug") {
		cfg.Logging.Level = "debug"
	}
	e.cfg = cfg
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	e.log = applog.WithComponent("cli")

	pages, perr := loadPages(cmd)
	err = multierr.Append(err, perr)
	e.pages = pages

	e.viewport = geom.Size{W: cmd.Float("width"), H: cmd.Float("height")}
	if e.viewport.Empty() {
		err = multierr.Append(err, fmt.Errorf("viewport must be positive, got %gx%g", e.viewport.W, e.viewport.H))
	}

	e.snap.ConfigPath = e.cfgPath
	e.snap.ManifestPath = cmd.String("pages")
	if cfg.Logging.File != "" {
		e.snap.ReportDir = filepath.Dir(cfg.Logging.File)
	}
	if err != nil {
		return ctx, err
	}
	e.log.Debug("program started", slog.String("ver", version.String()), slog.Int("pages", len(e.pages)),
		slog.Float64("viewport_w", e.viewport.W), slog.Float64("viewport_h", e.viewport.H))
	if e.cfgPath == "" {
		e.log.Debug("using user configuration and defaults")
	}
	return ctx, nil
}

func (e *env) finish(_ context.Context, cmd *cli.Command) error {
	if e.log != nil {
		e.log.Debug("program ended", slog.Duration("elapsed", time.Since(e.start)), slog.Any("args", cmd.Args().Slice()))
	}
	return nil
}

func loadConfig(path string) (config.AppConfig, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Defaults(), err
	}
	if err := cfg.Viewer.Validate(); err != nil {
		return config.Defaults(), fmt.Errorf("user config: %w", err)
	}
	return cfg, nil
}

func loadPages(cmd *cli.Command) ([]domain.PageInfo, error) {
	if path := cmd.String("pages"); path != "" {
		m, err := manifest.Load(path)
		return m.Pages, err
	}
	pages := domain.Uniform(max(0, cmd.Int("count")), cmd.Float("page-width"), cmd.Float("page-height"))
	return pages, domain.ValidatePages(pages)
}

// begin records the command and its inputs for crash reports and returns a
// context whose log records carry the command name.
func (e *env) begin(ctx context.Context, cmd *cli.Command, state any) (context.Context, error) {
	e.snap.Command = cmd.Name
	e.snap.State = state
	return applog.ContextWith(ctx, slog.String("cmd", cmd.Name)), ctx.Err()
}

// exitErr keeps cli from exiting the process so that errors reach main and
// deferred crash handling runs.
func (e *env) exitErr(ctx context.Context, _ *cli.Command, err error) {
	if e.log != nil {
		e.log.DebugContext(ctx, "program ended with error", slog.Any("err", err))
	}
}

func (e *env) emit(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// manager builds a layout manager for the live state flags of cmd.
func (e *env) manager(cmd *cli.Command, cfg config.Viewer) *layout.Manager {
	m := layout.NewManager(cfg)
	m.UseCache(&e.layouts)
	m.SetViewport(e.viewport)
	m.SetPages(e.pages)
	m.SetZoom(cmd.Float("zoom"))
	m.SetScroll(geom.Pt{X: cmd.Float("scroll-x"), Y: cmd.Float("scroll-y")})
	return m
}

// calculator builds a viewport calculator whose content is the layout at
// zoom 1, so its zoom matches the layout zoom and its scroll is the layout
// scroll divided by zoom.
func (e *env) calculator(zoom float64, scroll geom.Pt) *viewport.Calculator {
	cfg := e.cfg.Viewer
	base := layout.Compute(layout.Inputs{Config: cfg.WithZoomBounds(1, 1), Viewport: e.viewport, Zoom: 1, Pages: e.pages})
	c := viewport.New(cfg)
	c.SetBounds(geom.R(0, 0, e.viewport.W, e.viewport.H))
	c.SetContent(geom.R(0, 0, base.ContentSize.W, base.ContentSize.H))
	z := c.SetZoom(zoom)
	c.SetScroll(scroll.Scale(1 / z))
	return c
}

func (e *env) calculatorFor(cmd *cli.Command) *viewport.Calculator {
	return e.calculator(cmd.Float("zoom"), geom.Pt{X: cmd.Float("scroll-x"), Y: cmd.Float("scroll-y")})
}

var errPageNotFound = errors.New("page not found")
