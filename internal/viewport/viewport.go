/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package viewport maps a single logical content rectangle onto the screen
// through one global scale and scroll. It offers the coordinate conversions,
// zoom-to-fit helpers and gesture transforms an interaction layer needs.
//
// Scroll is kept in unscaled content units:
//
//	screen = (content - scroll) * zoom
//	content = screen / zoom + scroll
//
// where screen points are relative to the viewport origin.
package viewport

import (
	"log/slog"
	"math"

	"pageview/internal/config"
	"pageview/internal/domain"
	"pageview/internal/geom"
	"pageview/internal/layout"
	applog "pageview/internal/log"
)

// doubleTapTolerance is how close the zoom must be to the double-tap scale
// for a double tap to zoom back out.
const doubleTapTolerance = 0.1

// Calculator holds viewport bounds, content bounds, zoom and scroll.
// Like layout.Manager it assumes a single writer.
type Calculator struct {
	cfg     config.Viewer
	bounds  geom.Rect
	content geom.Rect
	zoom    float64
	scroll  geom.Pt
	log     *slog.Logger
}

func New(cfg config.Viewer) *Calculator {
	return &Calculator{cfg: cfg, zoom: cfg.ClampZoom(1), log: applog.WithComponent("viewport")}
}

func (c *Calculator) Config() config.Viewer { return c.cfg }

// SetConfig swaps the configuration snapshot and re-clamps zoom and scroll.
func (c *Calculator) SetConfig(cfg config.Viewer) {
	c.cfg = cfg
	c.log.Debug("config replaced", slog.Float64("min_zoom", cfg.MinZoom), slog.Float64("max_zoom", cfg.MaxZoom))
	c.SetZoom(c.zoom)
}

func (c *Calculator) Bounds() geom.Rect       { return c.bounds }
func (c *Calculator) ViewportSize() geom.Size { return c.bounds.Size() }
func (c *Calculator) Content() geom.Rect      { return c.content }
func (c *Calculator) Zoom() float64           { return c.zoom }
func (c *Calculator) Scroll() geom.Pt         { return c.scroll }

// SetBounds replaces the viewport rectangle without preserving the visible
// center; use Resize for that.
func (c *Calculator) SetBounds(r geom.Rect) {
	c.bounds = r
	c.scroll = c.clampScroll(c.bounds.Size(), c.zoom, c.scroll)
}

// SetContent replaces the logical content rectangle.
func (c *Calculator) SetContent(r geom.Rect) {
	c.content = r
	c.scroll = c.clampScroll(c.bounds.Size(), c.zoom, c.scroll)
}

// SetZoom stores z clamped to the zoom bounds and returns the retained value.
func (c *Calculator) SetZoom(z float64) float64 {
	c.zoom = c.cfg.ClampZoom(z)
	if c.zoom != z {
		c.log.Debug("zoom clamped", slog.Float64("requested", z), slog.Float64("zoom", c.zoom))
	}
	c.scroll = c.clampScroll(c.bounds.Size(), c.zoom, c.scroll)
	return c.zoom
}

// SetScroll stores p clamped to the scroll bounds and returns the retained value.
func (c *Calculator) SetScroll(p geom.Pt) geom.Pt {
	c.scroll = c.clampScroll(c.bounds.Size(), c.zoom, p)
	return c.scroll
}

func (c *Calculator) ScrollBy(d geom.Pt) geom.Pt { return c.SetScroll(c.scroll.Add(d)) }

// ScrollBounds returns the smallest and largest scroll positions. Per axis
// the range is max(0, content*zoom - viewport)/zoom wide.
func (c *Calculator) ScrollBounds() (lo, hi geom.Pt) {
	return c.scrollBounds(c.bounds.Size(), c.zoom)
}

func (c *Calculator) scrollBounds(vp geom.Size, zoom float64) (lo, hi geom.Pt) {
	lo = c.content.Min()
	if zoom <= 0 || !geom.Finite(zoom) {
		return lo, lo
	}
	span := geom.Pt{
		X: max(0, c.content.W*zoom-vp.W) / zoom,
		Y: max(0, c.content.H*zoom-vp.H) / zoom,
	}
	return lo, lo.Add(span)
}

func (c *Calculator) clampScroll(vp geom.Size, zoom float64, p geom.Pt) geom.Pt {
	lo, hi := c.scrollBounds(vp, zoom)
	if !geom.Finite(p.X) {
		p.X = lo.X
	}
	if !geom.Finite(p.Y) {
		p.Y = lo.Y
	}
	return geom.Pt{X: geom.Clamp(p.X, lo.X, hi.X), Y: geom.Clamp(p.Y, lo.Y, hi.Y)}
}

// ScreenToContent maps a viewport point into content space.
func (c *Calculator) ScreenToContent(p geom.Pt) geom.Pt {
	return p.Scale(1 / c.zoom).Add(c.scroll)
}

// ContentToScreen maps a content point into viewport space.
func (c *Calculator) ContentToScreen(p geom.Pt) geom.Pt {
	return p.Sub(c.scroll).Scale(c.zoom)
}

// VisibleContent returns the part of the content rectangle currently on
// screen, in content units.
func (c *Calculator) VisibleContent() (geom.Rect, bool) {
	vp := c.bounds.Size()
	view := geom.Rect{X: c.scroll.X, Y: c.scroll.Y, W: vp.W / c.zoom, H: vp.H / c.zoom}
	return view.Intersect(c.content)
}

// CalculateZoomToFit returns the zoom that fits a w x h rectangle into the
// viewport under policy, clamped to the zoom bounds. Degenerate sizes give
// unit scale before clamping.
func (c *Calculator) CalculateZoomToFit(w, h float64, policy config.FitPolicy) float64 {
	s := layout.FitScale(policy, domain.PageInfo{Width: w, Height: h}, c.bounds.Size())
	return c.cfg.ClampZoom(s)
}

// ZoomToFitContent fits the whole content rectangle using the configured
// fit policy.
func (c *Calculator) ZoomToFitContent() float64 {
	return c.zoomToFit(c.bounds.Size())
}

func (c *Calculator) zoomToFit(vp geom.Size) float64 {
	s := layout.FitScale(c.cfg.FitPolicy, domain.PageInfo{Width: c.content.W, Height: c.content.H}, vp)
	return c.cfg.ClampZoom(s)
}

// Current describes the present zoom and scroll as a Transform.
func (c *Calculator) Current() Transform { return transformFor(c.zoom, c.scroll) }

// Apply commits t. Zoom and scroll are clamped; Rotation and Pivot are
// presentation hints for the animation driver and are not stored.
func (c *Calculator) Apply(t Transform) {
	c.SetZoom(t.Scale)
	c.SetScroll(t.Scroll())
}

// GestureTransform computes a pinch/pan result without applying it. The
// content point under pivot stays under pivot after the zoom change; delta
// then pans the content along with the gesture. Non-positive or non-finite
// factors count as 1.
func (c *Calculator) GestureTransform(pivot geom.Pt, factor float64, delta geom.Pt) Transform {
	if factor <= 0 || !geom.Finite(factor) {
		factor = 1
	}
	nz := c.cfg.ClampZoom(c.zoom * factor)
	anchor := pivot.Vec().Mul(1 / c.zoom).Add(c.scroll.Vec())
	s := anchor.Sub(pivot.Vec().Mul(1 / nz)).Sub(delta.Vec().Mul(1 / nz))
	t := transformFor(nz, c.clampScroll(c.bounds.Size(), nz, geom.FromVec(s)))
	t.Pivot, t.HasPivot = pivot, true
	return t
}

// Gesture applies GestureTransform and returns it.
func (c *Calculator) Gesture(pivot geom.Pt, factor float64, delta geom.Pt) Transform {
	t := c.GestureTransform(pivot, factor, delta)
	c.Apply(t)
	applog.WithOperation(c.log, "gesture").Debug("transform applied", slog.Float64("factor", factor), slog.Float64("zoom", c.zoom))
	return t
}

// DoubleTapTransform toggles between the double-tap zoom and the fit zoom.
// Zooming in centers the tapped content point; zooming out centers the
// whole content.
func (c *Calculator) DoubleTapTransform(tap geom.Pt) Transform {
	vp := c.bounds.Size()
	target := c.cfg.ClampZoom(c.cfg.DoubleTapZoomScale)
	var nz float64
	var center geom.Pt
	if math.Abs(c.zoom-target) < doubleTapTolerance {
		nz = c.zoomToFit(vp)
		center = c.content.Center()
	} else {
		nz = target
		center = c.ScreenToContent(tap)
	}
	s := center.Sub(vp.Half().Scale(1 / nz))
	t := transformFor(nz, c.clampScroll(vp, nz, s))
	t.Pivot, t.HasPivot = tap, true
	return t
}

// DoubleTap applies DoubleTapTransform and returns it.
func (c *Calculator) DoubleTap(tap geom.Pt) Transform {
	t := c.DoubleTapTransform(tap)
	c.Apply(t)
	applog.WithOperation(c.log, "double_tap").Debug("transform applied", slog.Float64("zoom", c.zoom))
	return t
}

// ResizeTransform computes zoom and scroll for new viewport bounds so that
// the content point at the old viewport center stays centered. With
// FitEachPage set the zoom is refit to the new bounds.
func (c *Calculator) ResizeTransform(bounds geom.Rect) Transform {
	center := c.ScreenToContent(c.bounds.Size().Half())
	vp := bounds.Size()
	nz := c.zoom
	if c.cfg.FitEachPage {
		nz = c.zoomToFit(vp)
	}
	s := center.Sub(vp.Half().Scale(1 / nz))
	return transformFor(nz, c.clampScroll(vp, nz, s))
}

// Resize replaces the viewport bounds, keeping the visible center.
func (c *Calculator) Resize(bounds geom.Rect) Transform {
	t := c.ResizeTransform(bounds)
	c.bounds = bounds
	c.Apply(t)
	applog.WithOperation(c.log, "resize").Debug("viewport resized", slog.Float64("w", bounds.W), slog.Float64("h", bounds.H))
	return t
}

// RotationTransform is ResizeTransform for a device rotation. The result
// carries the rotation angle with the new viewport center as pivot, so an
// animation driver can turn the old frame into the new one.
func (c *Calculator) RotationTransform(bounds geom.Rect, degrees float64) Transform {
	t := c.ResizeTransform(bounds)
	t.Rotation = degrees
	t.Pivot, t.HasPivot = bounds.Size().Half(), true
	return t
}

// Rotate applies RotationTransform and returns it.
func (c *Calculator) Rotate(bounds geom.Rect, degrees float64) Transform {
	t := c.RotationTransform(bounds, degrees)
	c.bounds = bounds
	c.Apply(t)
	applog.WithOperation(c.log, "rotate").Debug("viewport rotated", slog.Float64("deg", degrees), slog.Float64("w", bounds.W), slog.Float64("h", bounds.H))
	return t
}
