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
	"fmt"
	"log/slog"
	"time"

	cli "github.com/urfave/cli/v3"
	"golang.org/x/image/math/f64"
	"seehuhn.de/go/geom/matrix"

	"pageview/internal/config"
	"pageview/internal/geom"
	"pageview/internal/layout"
	applog "pageview/internal/log"
	"pageview/internal/manifest"
	"pageview/internal/snap"
	"pageview/internal/version"
	"pageview/internal/viewport"
)

type layoutOutput struct {
	Zoom      float64       `json:"zoom"`
	Scroll    geom.Pt       `json:"scroll"`
	MaxScroll geom.Pt       `json:"max_scroll"`
	Layout    layout.Result `json:"layout"`
}

func (e *env) layoutCmd(ctx context.Context, cmd *cli.Command) error {
	m := e.manager(cmd, e.cfg.Viewer)
	ctx, err := e.begin(ctx, cmd, m.Inputs())
	if err != nil {
		return err
	}
	res := m.Layout()
	applog.WithPage(e.log, res.CurrentPage).DebugContext(ctx, "layout computed", slog.Int("visible", len(res.VisiblePages)))
	return e.emit(layoutOutput{Zoom: m.Zoom(), Scroll: m.Scroll(), MaxScroll: m.ScrollBounds(), Layout: res})
}

type snapOutput struct {
	Type          snap.Type    `json:"type"`
	Scroll        geom.Pt      `json:"scroll"`
	Velocity      geom.Pt      `json:"velocity"`
	Target        *snap.Target `json:"target"`
	DurationMS    int64        `json:"duration_ms"`
	NeedsSnapping bool         `json:"needs_snapping"`
}

// snapHelper builds the manager and snap helper for cmd. --type forces a
// snap type and turns page snapping on unless the type is none.
func (e *env) snapHelper(cmd *cli.Command) (*layout.Manager, *snap.Helper, error) {
	cfg := e.cfg.Viewer
	var opts []snap.Option
	if name := cmd.String("type"); name != "" {
		typ, err := snap.ParseType(name)
		if err != nil {
			return nil, nil, err
		}
		cfg = cfg.WithPageSnap(typ != snap.None)
		opts = append(opts, snap.WithType(typ))
	}
	m := e.manager(cmd, cfg)
	return m, snap.New(cfg, m, m, opts...), nil
}

func (e *env) snapCmd(ctx context.Context, cmd *cli.Command) error {
	m, h, err := e.snapHelper(cmd)
	if err != nil {
		return err
	}
	vel := geom.Pt{X: cmd.Float("vx"), Y: cmd.Float("vy")}
	if ctx, err = e.begin(ctx, cmd, m.Inputs()); err != nil {
		return err
	}
	out := snapOutput{Type: h.Type(), Scroll: m.Scroll(), Velocity: vel, NeedsSnapping: h.NeedsSnapping(m.Scroll(), vel)}
	if t, ok := h.CalculateTarget(m.Scroll(), vel); ok {
		out.Target = &t
		out.DurationMS = t.Duration.Milliseconds()
		applog.WithPage(e.log, t.Page).DebugContext(ctx, "snap target", slog.String("type", t.Type.String()), slog.Float64("distance", t.Distance))
	}
	return e.emit(out)
}

type settleFrame struct {
	AtMS   int64   `json:"at_ms"`
	Scroll geom.Pt `json:"scroll"`
}

type settleOutput struct {
	Target *snap.Target  `json:"target"`
	Frames []settleFrame `json:"frames"`
}

func (e *env) settleCmd(ctx context.Context, cmd *cli.Command) error {
	m, h, err := e.snapHelper(cmd)
	if err != nil {
		return err
	}
	if ctx, err = e.begin(ctx, cmd, m.Inputs()); err != nil {
		return err
	}
	from := m.Scroll()
	t, ok := h.CalculateTarget(from, geom.Pt{X: cmd.Float("vx"), Y: cmd.Float("vy")})
	out := settleOutput{Frames: []settleFrame{}}
	if !ok {
		return e.emit(out)
	}
	out.Target = &t
	applog.WithPage(e.log, t.Page).DebugContext(ctx, "settling", slog.Duration("duration", t.Duration))
	frames := max(1, cmd.Int("frames"))
	strength := cmd.Float("strength")
	for i := 1; i <= frames; i++ {
		p := float64(i) / float64(frames)
		at := time.Duration(float64(t.Duration) * p)
		out.Frames = append(out.Frames, settleFrame{AtMS: at.Milliseconds(), Scroll: snap.Interpolate(from, t.Position, p, strength)})
	}
	return e.emit(out)
}

type fitOutput struct {
	Page           int                `json:"page"`
	Bounds         geom.Rect          `json:"bounds"`
	Scale          float64            `json:"scale"`
	ZoomToFitPage  float64            `json:"zoom_to_fit_page"`
	ZoomToFitWidth float64            `json:"zoom_to_fit_width"`
	ScrollToCenter geom.Pt            `json:"scroll_to_center"`
	ScrollToTop    geom.Pt            `json:"scroll_to_top"`
	SpacingAfter   *float64           `json:"spacing_after,omitempty"`
	PolicyZoom     map[string]float64 `json:"policy_zoom"`
}

func (e *env) fitCmd(ctx context.Context, cmd *cli.Command) error {
	m := e.manager(cmd, e.cfg.Viewer)
	ctx, err := e.begin(ctx, cmd, m.Inputs())
	if err != nil {
		return err
	}
	n := cmd.Int("page")
	bounds, ok := m.PageBounds(n)
	if !ok {
		return fmt.Errorf("%w: %d", errPageNotFound, n)
	}
	out := fitOutput{Page: n, Bounds: bounds, PolicyZoom: map[string]float64{}}
	if gap, ok := m.SpacingAfter(n); ok {
		out.SpacingAfter = &gap
	}
	out.Scale, _ = m.PageScale(n)
	out.ZoomToFitPage, _ = m.ZoomToFitPage(n)
	out.ZoomToFitWidth, _ = m.ZoomToFitWidth(n)
	out.ScrollToCenter, _ = m.ScrollToCenter(n)
	out.ScrollToTop, _ = m.ScrollToTop(n)

	c := e.calculatorFor(cmd)
	base := bounds.Size().Scale(1 / m.Zoom())
	for _, p := range []config.FitPolicy{config.FitWidth, config.FitHeight, config.FitBoth, config.FitAuto} {
		out.PolicyZoom[p.String()] = c.CalculateZoomToFit(base.W, base.H, p)
	}
	applog.WithPage(e.log, n).DebugContext(ctx, "page fitted", slog.Float64("fit_page", out.ZoomToFitPage), slog.Float64("fit_width", out.ZoomToFitWidth))
	return e.emit(out)
}

type transformOutput struct {
	Op       string               `json:"op"`
	Before   viewport.Transform   `json:"before"`
	After    viewport.Transform   `json:"after"`
	Zoom     float64              `json:"zoom"`
	ScrollPx geom.Pt              `json:"scroll_px"`
	Viewport geom.Size            `json:"viewport"`
	Matrix   matrix.Matrix        `json:"matrix"`
	Aff3     f64.Aff3             `json:"aff3"`
	Frames   []viewport.Transform `json:"frames,omitempty"`
}

func (e *env) transformOut(ctx context.Context, op string, c *viewport.Calculator, before, after viewport.Transform) transformOutput {
	applog.WithOperation(e.log, op).DebugContext(ctx, "transform applied", slog.Float64("zoom", c.Zoom()))
	return transformOutput{
		Op:       op,
		Before:   before,
		After:    after,
		Zoom:     c.Zoom(),
		ScrollPx: c.Scroll().Scale(c.Zoom()),
		Viewport: c.ViewportSize(),
		Matrix:   after.Matrix(),
		Aff3:     after.Aff3(),
	}
}

func (e *env) gestureCmd(ctx context.Context, cmd *cli.Command) error {
	c := e.calculatorFor(cmd)
	ctx, err := e.begin(ctx, cmd, c.Current())
	if err != nil {
		return err
	}
	before := c.Current()
	after := c.Gesture(
		geom.Pt{X: cmd.Float("pivot-x"), Y: cmd.Float("pivot-y")},
		cmd.Float("factor"),
		geom.Pt{X: cmd.Float("dx"), Y: cmd.Float("dy")},
	)
	return e.emit(e.transformOut(ctx, "gesture", c, before, after))
}

func (e *env) doubleTapCmd(ctx context.Context, cmd *cli.Command) error {
	c := e.calculatorFor(cmd)
	ctx, err := e.begin(ctx, cmd, c.Current())
	if err != nil {
		return err
	}
	before := c.Current()
	after := c.DoubleTap(geom.Pt{X: cmd.Float("x"), Y: cmd.Float("y")})
	return e.emit(e.transformOut(ctx, "doubletap", c, before, after))
}

func (e *env) resizeCmd(ctx context.Context, cmd *cli.Command) error {
	c := e.calculatorFor(cmd)
	ctx, err := e.begin(ctx, cmd, c.Current())
	if err != nil {
		return err
	}
	size := geom.Size{W: cmd.Float("to-width"), H: cmd.Float("to-height")}
	if size.Empty() {
		size = geom.Size{W: e.viewport.H, H: e.viewport.W}
	}
	bounds := geom.R(0, 0, size.W, size.H)
	before := c.Current()
	var after viewport.Transform
	if deg := cmd.Float("rotate"); deg != 0 {
		after = c.Rotate(bounds, deg)
	} else {
		after = c.Resize(bounds)
	}
	return e.emit(e.transformOut(ctx, "resize", c, before, after))
}

type diagnoseOutput struct {
	Zoom        float64              `json:"zoom"`
	Visible     *geom.Rect           `json:"visible_content"`
	Diagnostics viewport.Diagnostics `json:"diagnostics"`
}

func (e *env) diagnoseCmd(ctx context.Context, cmd *cli.Command) error {
	c := e.calculatorFor(cmd)
	ctx, err := e.begin(ctx, cmd, c.Current())
	if err != nil {
		return err
	}
	out := diagnoseOutput{Zoom: c.Zoom(), Diagnostics: c.OptimizeViewport()}
	if vis, ok := c.VisibleContent(); ok {
		out.Visible = &vis
	}
	return e.emit(out)
}

func (e *env) animateCmd(ctx context.Context, cmd *cli.Command) error {
	c := e.calculatorFor(cmd)
	to := e.calculator(cmd.Float("to-zoom"), geom.Pt{X: cmd.Float("to-scroll-x"), Y: cmd.Float("to-scroll-y")})
	ctx, err := e.begin(ctx, cmd, []viewport.Transform{c.Current(), to.Current()})
	if err != nil {
		return err
	}
	strength := cmd.Float("strength")
	frames := viewport.Sequence(c.Current(), to.Current(), cmd.Int("frames"), func(p float64) float64 {
		return snap.Ease(p, strength)
	})
	out := e.transformOut(ctx, "animate", to, c.Current(), to.Current())
	out.Frames = frames
	return e.emit(out)
}

func (e *env) manifestCmd(ctx context.Context, cmd *cli.Command) error {
	ctx, err := e.begin(ctx, cmd, len(e.pages))
	if err != nil {
		return err
	}
	if cmd.Bool("schema") {
		_, err := e.out.Write(manifest.Schema())
		return err
	}
	m := manifest.Manifest{Version: manifest.CurrentVersion, Title: cmd.String("title"), Pages: e.pages}
	dst := cmd.Args().Get(0)
	if dst == "" {
		return e.emit(m)
	}
	if err := manifest.Save(dst, m); err != nil {
		return err
	}
	e.log.InfoContext(ctx, "manifest written", slog.String("file", dst), slog.Int("pages", len(m.Pages)))
	return nil
}

func (e *env) dumpConfigCmd(ctx context.Context, cmd *cli.Command) error {
	ctx, err := e.begin(ctx, cmd, nil)
	if err != nil {
		return err
	}
	cfg := e.cfg
	state := "actual"
	if cmd.Bool("default") {
		cfg, state = config.Defaults(), "default"
	}
	dst := cmd.Args().Get(0)
	if dst != "" {
		if err := config.Save(dst, cfg); err != nil {
			return fmt.Errorf("unable to write configuration: %w", err)
		}
		e.log.InfoContext(ctx, "configuration written", slog.String("state", state), slog.String("file", dst))
		return nil
	}
	data, err := config.Dump(cfg)
	if err != nil {
		return err
	}
	_, err = e.out.Write(data)
	return err
}

func (e *env) versionCmd(_ context.Context, _ *cli.Command) error {
	_, err := fmt.Fprintf(e.out, "pageview %s\n", version.String())
	return err
}
