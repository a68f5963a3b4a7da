/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package layout stacks the pages of a document along the scroll axis and
// reports where each page lands, how much of it is on screen and which page
// counts as the current one.
//
// Placements are in scaled content space: pixels, origin at the top-left
// corner of the first page. A scroll position is the content point shown at
// the top-left corner of the viewport.
package layout

import (
	"slices"

	"pageview/internal/config"
	"pageview/internal/domain"
	"pageview/internal/geom"
	"pageview/internal/spacing"
)

// PageLayout is the placement of one page for one layout pass.
type PageLayout struct {
	Page int `json:"page"`
	// Bounds are the unscaled page-local bounds (0, 0, width, height).
	Bounds geom.Rect `json:"bounds"`
	// Rect is the scaled placement in content space.
	Rect       geom.Rect `json:"rect"`
	Scale      float64   `json:"scale"`
	Visible    bool      `json:"visible"`
	Visibility float64   `json:"visibility"` // intersection area / page area, in [0,1]
	Offset     geom.Pt   `json:"offset"`
}

// Result is a layout snapshot. It is never mutated after Compute returns it;
// share it read-only or Clone it.
type Result struct {
	Pages        []PageLayout `json:"pages"`
	ContentSize  geom.Size    `json:"content_size"`
	VisiblePages []int        `json:"visible_pages"`
	// CurrentPage is -1 only when there are no pages.
	CurrentPage int            `json:"current_page"`
	Spacing     spacing.Result `json:"spacing"`
}

// Empty reports whether the snapshot holds no pages.
func (r Result) Empty() bool { return len(r.Pages) == 0 }

// Page looks up a placement by page number. It relies on the ascending page
// order Compute preserves from its Inputs.
func (r Result) Page(n int) (PageLayout, bool) {
	i, ok := slices.BinarySearchFunc(r.Pages, n, func(pl PageLayout, n int) int { return pl.Page - n })
	if !ok {
		return PageLayout{}, false
	}
	return r.Pages[i], true
}

// Clone returns a deep copy that is safe to hand to another goroutine.
func (r Result) Clone() Result {
	r.Pages = slices.Clone(r.Pages)
	r.VisiblePages = slices.Clone(r.VisiblePages)
	return r
}

// MaxScroll returns the upper scroll bound per axis for a viewport.
func (r Result) MaxScroll(viewport geom.Size) geom.Pt {
	return geom.Pt{
		X: max(0, r.ContentSize.W-viewport.W),
		Y: max(0, r.ContentSize.H-viewport.H),
	}
}

// ClampScroll limits p to [0, MaxScroll] on both axes.
func (r Result) ClampScroll(viewport geom.Size, p geom.Pt) geom.Pt {
	m := r.MaxScroll(viewport)
	return geom.Pt{X: geom.Clamp(p.X, 0, m.X), Y: geom.Clamp(p.Y, 0, m.Y)}
}

// Inputs is everything a layout pass depends on. Pages must be in ascending
// page-number order; Manager.SetPages sorts them, callers of Compute must.
type Inputs struct {
	Config   config.Viewer
	Viewport geom.Size
	Zoom     float64
	Scroll   geom.Pt
	Pages    []domain.PageInfo
}

// Equal reports whether two inputs produce the same layout.
func (in Inputs) Equal(o Inputs) bool {
	return in.Config == o.Config && in.Viewport == o.Viewport && in.Zoom == o.Zoom &&
		in.Scroll == o.Scroll && slices.Equal(in.Pages, o.Pages)
}

// FitScale returns the base display scale of a page before zoom.
// Under FitAuto landscape pages fit by width and the others by both
// dimensions, so neighbouring pages may get different scales.
func FitScale(policy config.FitPolicy, page domain.PageInfo, viewport geom.Size) float64 {
	if page.Width <= 0 || page.Height <= 0 || viewport.Empty() {
		return 1
	}
	sw := viewport.W / page.Width
	sh := viewport.H / page.Height
	switch policy {
	case config.FitHeight:
		return sh
	case config.FitBoth:
		return min(sw, sh)
	case config.FitAuto:
		if page.Landscape() {
			return sw
		}
		return min(sw, sh)
	default:
		return sw
	}
}

// Compute runs a full layout pass. It is a pure function of in.
func Compute(in Inputs) Result {
	if len(in.Pages) == 0 || in.Viewport.Empty() {
		return Result{CurrentPage: -1}
	}
	cfg := in.Config
	zoom := cfg.ClampZoom(in.Zoom)
	sp := spacing.Compute(spacing.Params{Config: cfg, Zoom: zoom, Viewport: in.Viewport}, in.Pages)
	gap := sp.InterPage
	horizontal := cfg.ScrollDirection == config.Horizontal
	view := geom.R(0, 0, in.Viewport.W, in.Viewport.H)
	back := in.Scroll.Scale(-1)

	res := Result{Pages: make([]PageLayout, 0, len(in.Pages)), Spacing: sp, CurrentPage: -1}
	var cursor, cross float64
	for _, p := range in.Pages {
		s := FitScale(cfg.FitPolicy, p, in.Viewport) * zoom
		w, h := p.Width*s, p.Height*s
		var x, y float64
		if horizontal {
			x = cursor
			if cfg.FitPolicy != config.FitHeight {
				y = max(0, (in.Viewport.H-h)/2)
			}
			cursor += w + gap
			cross = max(cross, y+h)
		} else {
			y = cursor
			if cfg.FitPolicy != config.FitWidth {
				x = max(0, (in.Viewport.W-w)/2)
			}
			cursor += h + gap
			cross = max(cross, x+w)
		}
		pl := PageLayout{
			Page:   p.Number,
			Bounds: geom.R(0, 0, p.Width, p.Height),
			Rect:   geom.R(x, y, w, h),
			Scale:  s,
			Offset: geom.Pt{X: x, Y: y},
		}
		if hit, ok := pl.Rect.Offset(back).Intersect(view); ok {
			pl.Visible = true
			pl.Visibility = min(1, hit.Area()/pl.Rect.Area())
			res.VisiblePages = append(res.VisiblePages, p.Number)
		}
		res.Pages = append(res.Pages, pl)
	}
	if horizontal {
		res.ContentSize = geom.Size{W: cursor - gap, H: cross}
	} else {
		res.ContentSize = geom.Size{W: cross, H: cursor - gap}
	}
	res.CurrentPage = currentPage(res.Pages)
	return res
}

// currentPage picks the most visible page above one half, else the first
// visible page, else the first page.
func currentPage(pages []PageLayout) int {
	if len(pages) == 0 {
		return -1
	}
	var best, first *PageLayout
	bestFrac := 0.5
	for i := range pages {
		pl := &pages[i]
		if !pl.Visible {
			continue
		}
		if first == nil {
			first = pl
		}
		if pl.Visibility > bestFrac {
			best, bestFrac = pl, pl.Visibility
		}
	}
	switch {
	case best != nil:
		return best.Page
	case first != nil:
		return first.Page
	}
	return pages[0].Page
}
