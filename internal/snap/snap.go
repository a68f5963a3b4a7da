/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package snap computes where a scroll gesture should come to rest and how
// long the settle animation should take.
package snap

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"pageview/internal/config"
	"pageview/internal/geom"
	"pageview/internal/layout"
	applog "pageview/internal/log"
)

// Type selects how a target position is derived from a page placement.
type Type int

const (
	None Type = iota
	Center
	Top
	Edge
	Boundary
)

var typeNames = [...]string{"none", "center", "top", "edge", "boundary"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "unknown"
	}
	return typeNames[t]
}

// ParseType parses a snap type name as printed by String.
func ParseType(s string) (Type, error) {
	for i, n := range typeNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return Type(i), nil
		}
	}
	return None, fmt.Errorf("unknown snap type %q", s)
}

func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

const (
	// VelocityThreshold is the release speed above which a fling moves to
	// the neighbouring page.
	VelocityThreshold = 1000.0
	// MaxEdgeDistance limits how far an Edge snap may travel.
	MaxEdgeDistance = 300.0
	// Threshold is the distance below which no snap animation is needed.
	Threshold = 10.0

	baseDuration = 300.0 // ms
	minDuration  = 100.0
	maxDuration  = 1000.0
)

// Target is a resting scroll position in scaled content space.
type Target struct {
	Position geom.Pt       `json:"position"`
	Page     int           `json:"page"`
	Type     Type          `json:"type"`
	Distance float64       `json:"distance"`
	Duration time.Duration `json:"duration_ns"`
}

// LayoutSource supplies the placement snapshot. layout.Manager satisfies it.
type LayoutSource interface {
	Layout() layout.Result
}

// ViewportSource supplies the viewport size. layout.Manager and
// viewport.Calculator satisfy it.
type ViewportSource interface {
	ViewportSize() geom.Size
}

// Option customises a Helper at construction.
type Option func(*Helper)

// WithType replaces the snap type derived from the configuration. It has no
// effect when page snapping is disabled.
func WithType(t Type) Option { return func(h *Helper) { h.typ = t } }

// Helper binds a snap policy to its layout and viewport sources. The policy
// is fixed for the lifetime of the Helper; build a new one when the
// configuration changes.
type Helper struct {
	cfg      config.Viewer
	typ      Type
	layout   LayoutSource
	viewport ViewportSource
	log      *slog.Logger
}

func New(cfg config.Viewer, ls LayoutSource, vs ViewportSource, opts ...Option) *Helper {
	h := &Helper{cfg: cfg, layout: ls, viewport: vs, log: applog.WithComponent("snap")}
	h.typ = Boundary
	if cfg.SwipeHorizontal {
		h.typ = Center
	}
	for _, o := range opts {
		o(h)
	}
	if !cfg.PageSnap {
		h.typ = None
	}
	h.log.Debug("snap policy", slog.String("type", h.typ.String()))
	return h
}

func (h *Helper) Type() Type { return h.typ }

// CalculateTarget returns the resting position for a release at scroll with
// velocity, or false when no snap applies. Positive velocity means the
// scroll position is increasing.
func (h *Helper) CalculateTarget(scroll, velocity geom.Pt) (Target, bool) {
	if h.typ == None {
		return Target{}, false
	}
	return TargetFor(h.typ, h.cfg.ScrollDirection, h.layout.Layout(), h.viewport.ViewportSize(), scroll, velocity)
}

// NeedsSnapping reports whether a target exists farther away than Threshold.
func (h *Helper) NeedsSnapping(scroll, velocity geom.Pt) bool {
	t, ok := h.CalculateTarget(scroll, velocity)
	return ok && t.Distance > Threshold
}

// TargetFor is the pure form of CalculateTarget.
func TargetFor(typ Type, dir config.ScrollDirection, res layout.Result, vp geom.Size, scroll, velocity geom.Pt) (Target, bool) {
	if typ == None || res.Empty() || vp.Empty() {
		return Target{}, false
	}
	pl, ok := res.Page(targetPage(res, velocity))
	if !ok {
		return Target{}, false
	}

	var pos geom.Pt
	switch typ {
	case Center:
		pos = pl.Rect.Center().Sub(vp.Half())
	case Top:
		pos = geom.Pt{X: pl.Rect.Center().X - vp.W/2, Y: pl.Rect.Y}
	case Edge:
		var found bool
		pos, pl, found = nearestEdge(res, vp, scroll)
		if !found {
			return Target{}, false
		}
	case Boundary:
		pos = nearest(scroll, clampAll(res, vp, boundaries(pl.Rect, vp, scroll, dir)))
	default:
		return Target{}, false
	}
	pos = res.ClampScroll(vp, pos)
	d := scroll.Dist(pos)
	return Target{
		Position: pos,
		Page:     pl.Page,
		Type:     typ,
		Distance: d,
		Duration: Duration(d, velocity.Vec().Length()),
	}, true
}

// targetPage keeps the current page unless the release is a fling, in which
// case the neighbour in the direction of the dominant velocity component is
// chosen when it exists.
func targetPage(res layout.Result, velocity geom.Pt) int {
	cur := res.CurrentPage
	if velocity.Vec().Length() <= VelocityThreshold {
		return cur
	}
	v := velocity.X
	if math.Abs(velocity.Y) >= math.Abs(velocity.X) {
		v = velocity.Y
	}
	next := cur + 1
	if v < 0 {
		next = cur - 1
	}
	if _, ok := res.Page(next); ok {
		return next
	}
	return cur
}

// boundaries lists the scroll positions that align an edge of r with the
// matching viewport edge, on the axes of dir.
func boundaries(r geom.Rect, vp geom.Size, scroll geom.Pt, dir config.ScrollDirection) []geom.Pt {
	xs := []float64{r.X, r.Right() - vp.W}
	ys := []float64{r.Y, r.Bottom() - vp.H}
	switch dir {
	case config.Horizontal:
		return []geom.Pt{{X: xs[0], Y: scroll.Y}, {X: xs[1], Y: scroll.Y}}
	case config.Both:
		out := make([]geom.Pt, 0, 4)
		for _, y := range ys {
			for _, x := range xs {
				out = append(out, geom.Pt{X: x, Y: y})
			}
		}
		return out
	default:
		return []geom.Pt{{X: scroll.X, Y: ys[0]}, {X: scroll.X, Y: ys[1]}}
	}
}

// nearestEdge searches the four edge positions of every visible page.
func nearestEdge(res layout.Result, vp geom.Size, scroll geom.Pt) (geom.Pt, layout.PageLayout, bool) {
	var (
		best     geom.Pt
		bestPage layout.PageLayout
		found    bool
	)
	bestDist := MaxEdgeDistance
	for _, pl := range res.Pages {
		if !pl.Visible {
			continue
		}
		r := pl.Rect
		for _, c := range []geom.Pt{
			{X: r.X, Y: scroll.Y},
			{X: r.Right() - vp.W, Y: scroll.Y},
			{X: scroll.X, Y: r.Y},
			{X: scroll.X, Y: r.Bottom() - vp.H},
		} {
			c = res.ClampScroll(vp, c)
			if d := scroll.Dist(c); d < bestDist || (!found && d == bestDist) {
				best, bestPage, bestDist, found = c, pl, d, true
			}
		}
	}
	return best, bestPage, found
}

func clampAll(res layout.Result, vp geom.Size, ps []geom.Pt) []geom.Pt {
	for i := range ps {
		ps[i] = res.ClampScroll(vp, ps[i])
	}
	return ps
}

// nearest returns the candidate closest to p; the first one wins ties.
func nearest(p geom.Pt, candidates []geom.Pt) geom.Pt {
	best := candidates[0]
	bestDist := p.Dist(best)
	for _, c := range candidates[1:] {
		if d := p.Dist(c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// Duration returns the settle animation length for travelling distance at
// the given release speed. Longer trips take longer, faster releases settle
// sooner; the result is between 100ms and 1s.
func Duration(distance, speed float64) time.Duration {
	ms := baseDuration * geom.Clamp(distance/1000, 0.5, 2)
	if speed != 0 && geom.Finite(speed) {
		ms *= geom.Clamp(1000/math.Abs(speed), 0.3, 1.5)
	}
	ms = geom.Clamp(ms, minDuration, maxDuration)
	return time.Duration(math.Round(ms)) * time.Millisecond
}
