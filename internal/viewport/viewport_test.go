/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"pageview/internal/config"
	"pageview/internal/geom"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

// newTestCalculator shows a 1000x5000 content column in a 1000x1600
// viewport with zoom bounds [1, 5].
func newTestCalculator(cfg config.Viewer) *Calculator {
	c := New(cfg)
	c.SetBounds(geom.R(0, 0, 1000, 1600))
	c.SetContent(geom.R(0, 0, 1000, 5000))
	return c
}

func defaultCfg() config.Viewer { return config.DefaultViewer().WithZoomBounds(1, 5) }

func TestPinchKeepsPivotAnchored(t *testing.T) {
	c := newTestCalculator(defaultCfg())
	c.SetScroll(geom.Pt{Y: 1000})
	pivot := geom.Pt{X: 500, Y: 800}
	anchor := c.ScreenToContent(pivot)

	tr := c.Gesture(pivot, 2, geom.Pt{})
	if c.Zoom() != 2 || tr.Scale != 2 {
		t.Fatalf("zoom = %v, transform scale = %v", c.Zoom(), tr.Scale)
	}
	if diff := cmp.Diff(pivot, c.ContentToScreen(anchor), approx); diff != "" {
		t.Fatalf("pivot drifted (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(geom.Pt{X: 250, Y: 1400}, c.Scroll(), approx); diff != "" {
		t.Fatalf("scroll mismatch (-want +got):\n%s", diff)
	}
	if !tr.HasPivot || tr.Pivot != pivot {
		t.Fatalf("transform should carry the pivot: %+v", tr)
	}
}

func TestGestureClampsZoom(t *testing.T) {
	c := newTestCalculator(defaultCfg())
	if tr := c.Gesture(geom.Pt{X: 500, Y: 800}, 10, geom.Pt{}); tr.Scale != 5 || c.Zoom() != 5 {
		t.Fatalf("zoom = %v, want 5", c.Zoom())
	}
	for _, f := range []float64{-1, 0, math.NaN(), math.Inf(1)} {
		if tr := c.GestureTransform(geom.Pt{}, f, geom.Pt{}); tr.Scale != 5 {
			t.Fatalf("factor %v changed zoom to %v", f, tr.Scale)
		}
	}
}

func TestGesturePan(t *testing.T) {
	c := newTestCalculator(defaultCfg())
	c.SetZoom(2)
	c.SetScroll(geom.Pt{X: 100, Y: 1000})
	c.Gesture(geom.Pt{X: 300, Y: 300}, 1, geom.Pt{X: 40, Y: 100})
	if diff := cmp.Diff(geom.Pt{X: 80, Y: 950}, c.Scroll(), approx); diff != "" {
		t.Fatalf("pan mismatch (-want +got):\n%s", diff)
	}
}

func TestScrollBounds(t *testing.T) {
	c := newTestCalculator(defaultCfg())
	lo, hi := c.ScrollBounds()
	if lo != (geom.Pt{}) || hi != (geom.Pt{X: 0, Y: 3400}) {
		t.Fatalf("bounds at zoom 1 = %+v..%+v", lo, hi)
	}
	c.SetZoom(2)
	if _, hi = c.ScrollBounds(); hi != (geom.Pt{X: 500, Y: 4200}) {
		t.Fatalf("max scroll at zoom 2 = %+v", hi)
	}

	c.SetContent(geom.R(10, 20, 100, 100))
	lo, hi = c.ScrollBounds()
	if lo != hi || lo != (geom.Pt{X: 10, Y: 20}) {
		t.Fatalf("small content should pin scroll: %+v..%+v", lo, hi)
	}
}

func TestSetScrollClamps(t *testing.T) {
	c := newTestCalculator(defaultCfg())
	tests := []struct {
		in, want geom.Pt
	}{
		{geom.Pt{X: -5, Y: -5}, geom.Pt{}},
		{geom.Pt{X: 50, Y: 9999}, geom.Pt{X: 0, Y: 3400}},
		{geom.Pt{X: 0, Y: 1234}, geom.Pt{X: 0, Y: 1234}},
		{geom.Pt{X: math.NaN(), Y: math.Inf(-1)}, geom.Pt{}},
	}
	for _, tt := range tests {
		if got := c.SetScroll(tt.in); got != tt.want {
			t.Errorf("SetScroll(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestZoomOutReclampsScroll(t *testing.T) {
	c := newTestCalculator(defaultCfg())
	c.SetZoom(4)
	c.SetScroll(geom.Pt{X: 1e6, Y: 1e6})
	c.SetZoom(1)
	if got := c.Scroll(); got != (geom.Pt{X: 0, Y: 3400}) {
		t.Fatalf("scroll after zoom out = %+v", got)
	}
}

func TestScreenContentRoundTrip(t *testing.T) {
	c := newTestCalculator(defaultCfg())
	c.SetZoom(2.5)
	c.SetScroll(geom.Pt{X: 123, Y: 2345})
	for _, p := range []geom.Pt{{}, {X: 17, Y: 900}, {X: 999, Y: 1599}} {
		got := c.ContentToScreen(c.ScreenToContent(p))
		if diff := cmp.Diff(p, got, approx); diff != "" {
			t.Errorf("round trip of %+v (-want +got):\n%s", p, diff)
		}
	}
}

func TestCalculateZoomToFit(t *testing.T) {
	c := newTestCalculator(config.DefaultViewer().WithZoomBounds(0.25, 5))
	tests := []struct {
		w, h   float64
		policy config.FitPolicy
		want   float64
	}{
		{800, 1200, config.FitBoth, 1.25},
		{800, 1200, config.FitHeight, 1600.0 / 1200.0},
		{2000, 1000, config.FitAuto, 0.5},
		{10000, 10000, config.FitBoth, 0.25},
		{0, 0, config.FitBoth, 1},
	}
	for _, tt := range tests {
		if got := c.CalculateZoomToFit(tt.w, tt.h, tt.policy); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("CalculateZoomToFit(%v, %v, %v) = %v, want %v", tt.w, tt.h, tt.policy, got, tt.want)
		}
	}
}

func TestDoubleTapToggles(t *testing.T) {
	c := newTestCalculator(config.DefaultViewer().WithZoomBounds(0.25, 5))
	c.SetScroll(geom.Pt{Y: 1000})
	tap := geom.Pt{X: 200, Y: 400}
	tapped := c.ScreenToContent(tap)

	c.DoubleTap(tap)
	if c.Zoom() != 1.75 {
		t.Fatalf("zoom after first tap = %v", c.Zoom())
	}
	// x is pinned at the left edge, y centers the tapped point
	if got := c.ContentToScreen(tapped); c.Scroll().X != 0 || math.Abs(got.Y-800) > 1e-9 {
		t.Fatalf("tapped point at %+v, scroll %+v", got, c.Scroll())
	}

	c.DoubleTap(tap)
	if c.Zoom() != 1 {
		t.Fatalf("zoom after second tap = %v, want fit zoom 1", c.Zoom())
	}
	if diff := cmp.Diff(geom.Pt{X: 0, Y: 1700}, c.Scroll(), approx); diff != "" {
		t.Fatalf("content not centered (-want +got):\n%s", diff)
	}
}

func TestDoubleTapScaleAboveMaxZoom(t *testing.T) {
	c := newTestCalculator(config.DefaultViewer().WithZoomBounds(1, 2).WithDoubleTapZoom(4))
	c.DoubleTap(geom.Pt{X: 500, Y: 800})
	if c.Zoom() != 2 {
		t.Fatalf("zoom = %v, want clamped 2", c.Zoom())
	}
	c.DoubleTap(geom.Pt{X: 500, Y: 800})
	if c.Zoom() != 1 {
		t.Fatalf("second tap should zoom out, zoom = %v", c.Zoom())
	}
}

func TestResizeKeepsCenter(t *testing.T) {
	c := newTestCalculator(defaultCfg())
	c.SetScroll(geom.Pt{Y: 1000})
	center := c.ScreenToContent(geom.Pt{X: 500, Y: 800})

	c.Resize(geom.R(0, 0, 1600, 1000))
	if c.Zoom() != 1 {
		t.Fatalf("zoom changed without FitEachPage: %v", c.Zoom())
	}
	if got := c.ContentToScreen(center); math.Abs(got.Y-500) > 1e-9 {
		t.Fatalf("center moved to %+v", got)
	}
	if c.ViewportSize() != (geom.Size{W: 1600, H: 1000}) {
		t.Fatalf("bounds not replaced: %+v", c.Bounds())
	}
}

func TestResizeRefitsWithFitEachPage(t *testing.T) {
	c := newTestCalculator(defaultCfg().WithFitEachPage(true))
	c.SetScroll(geom.Pt{Y: 1000})
	center := c.ScreenToContent(geom.Pt{X: 500, Y: 800})

	tr := c.Rotate(geom.R(0, 0, 1600, 1000), 90)
	if c.Zoom() != 1.6 {
		t.Fatalf("zoom = %v, want 1.6", c.Zoom())
	}
	if diff := cmp.Diff(geom.Pt{X: 800, Y: 500}, c.ContentToScreen(center), approx); diff != "" {
		t.Fatalf("center moved (-want +got):\n%s", diff)
	}
	if tr.Rotation != 90 || tr.Pivot != (geom.Pt{X: 800, Y: 500}) {
		t.Fatalf("rotation transform = %+v", tr)
	}
}

func TestSetConfigReclamps(t *testing.T) {
	c := newTestCalculator(defaultCfg())
	c.SetZoom(4)
	c.SetConfig(config.DefaultViewer())
	if c.Zoom() != 3 {
		t.Fatalf("zoom = %v, want 3", c.Zoom())
	}
}

func TestVisibleContent(t *testing.T) {
	c := newTestCalculator(defaultCfg())
	c.SetZoom(2)
	c.SetScroll(geom.Pt{X: 100, Y: 200})
	vis, ok := c.VisibleContent()
	if !ok {
		t.Fatalf("nothing visible")
	}
	if diff := cmp.Diff(geom.R(100, 200, 500, 800), vis, approx); diff != "" {
		t.Fatalf("visible content (-want +got):\n%s", diff)
	}
}
