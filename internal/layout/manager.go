/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import (
	"log/slog"
	"slices"

	"pageview/internal/config"
	"pageview/internal/domain"
	"pageview/internal/geom"
	applog "pageview/internal/log"
	"pageview/internal/spacing"
)

// Manager holds the live layout state of one document view: viewport size,
// zoom, scroll and page list. Every query runs a fresh Compute unless a Cache
// is attached with UseCache.
//
// A Manager is meant for a single writer goroutine. Other goroutines should
// read Clone()d snapshots instead.
type Manager struct {
	cfg      config.Viewer
	viewport geom.Size
	zoom     float64
	scroll   geom.Pt
	pages    []domain.PageInfo
	spacing  *spacing.Calculator
	cache    *Cache
	log      *slog.Logger
}

func NewManager(cfg config.Viewer) *Manager {
	m := &Manager{cfg: cfg, zoom: cfg.ClampZoom(1), spacing: spacing.New(cfg), log: applog.WithComponent("layout")}
	m.spacing.SetZoom(m.zoom)
	return m
}

// UseCache routes layout passes through c. A nil c turns memoization off.
// The cache may be shared with readers on other goroutines.
func (m *Manager) UseCache(c *Cache) { m.cache = c }

func (m *Manager) Config() config.Viewer { return m.cfg }

// SetConfig swaps the configuration snapshot and re-clamps zoom and scroll.
func (m *Manager) SetConfig(cfg config.Viewer) {
	m.cfg = cfg
	m.spacing.SetConfig(cfg)
	m.log.Debug("config replaced", slog.String("fit", cfg.FitPolicy.String()), slog.String("dir", cfg.ScrollDirection.String()))
	m.SetZoom(m.zoom)
}

func (m *Manager) ViewportSize() geom.Size { return m.viewport }

func (m *Manager) SetViewport(size geom.Size) {
	m.viewport = size
	m.spacing.SetViewport(size)
	m.clampScroll()
}

func (m *Manager) Zoom() float64 { return m.zoom }

// SetZoom stores z clamped to the configured zoom bounds and returns the
// retained value.
func (m *Manager) SetZoom(z float64) float64 {
	m.zoom = m.cfg.ClampZoom(z)
	m.spacing.SetZoom(m.zoom)
	if m.zoom != z {
		m.log.Debug("zoom clamped", slog.Float64("requested", z), slog.Float64("zoom", m.zoom))
	}
	m.clampScroll()
	return m.zoom
}

func (m *Manager) Scroll() geom.Pt { return m.scroll }

// SetScroll stores p clamped to the scroll bounds and returns the retained value.
func (m *Manager) SetScroll(p geom.Pt) geom.Pt {
	m.scroll = m.Layout().ClampScroll(m.viewport, p)
	return m.scroll
}

func (m *Manager) ScrollBy(d geom.Pt) geom.Pt { return m.SetScroll(m.scroll.Add(d)) }

// SetPages replaces the page list wholesale. The list is kept sorted by page
// number, so lookups by number work for input in any order.
func (m *Manager) SetPages(pages []domain.PageInfo) {
	m.pages = slices.Clone(pages)
	if !slices.IsSortedFunc(m.pages, comparePages) {
		slices.SortStableFunc(m.pages, comparePages)
		m.log.Debug("pages reordered by number", slog.Int("count", len(pages)))
	}
	m.log.Debug("pages replaced", slog.Int("count", len(pages)))
	m.clampScroll()
}

func (m *Manager) Pages() []domain.PageInfo { return slices.Clone(m.pages) }

// Inputs captures the current state as an explicit value.
func (m *Manager) Inputs() Inputs {
	return Inputs{Config: m.cfg, Viewport: m.viewport, Zoom: m.zoom, Scroll: m.scroll, Pages: m.pages}
}

// Layout returns the layout for the current state, recomputed unless the
// attached cache already holds it.
func (m *Manager) Layout() Result {
	if m.cache != nil {
		return m.cache.Get(m.Inputs())
	}
	return Compute(m.Inputs())
}

// Spacing resolves the edge and inter-page spacing for the current state.
// It equals Layout().Spacing for a non-empty layout.
func (m *Manager) Spacing() spacing.Result { return m.spacing.Calculate(m.pages) }

// SpacingAfter returns the pairwise spacing between page n and the page that
// follows it, taking both page shapes into account. It is false for the last
// page and for unknown pages.
func (m *Manager) SpacingAfter(n int) (float64, bool) {
	i := slices.IndexFunc(m.pages, func(p domain.PageInfo) bool { return p.Number == n })
	if i < 0 || i+1 >= len(m.pages) {
		return 0, false
	}
	return m.spacing.InterPage(m.pages[i], m.pages[i+1]), true
}

func comparePages(a, b domain.PageInfo) int { return a.Number - b.Number }

// ScrollBounds returns the maximum scroll position per axis.
func (m *Manager) ScrollBounds() geom.Pt { return m.Layout().MaxScroll(m.viewport) }

func (m *Manager) clampScroll() {
	m.scroll = m.Layout().ClampScroll(m.viewport, m.scroll)
}

// PageBounds returns the scaled placement of page n.
func (m *Manager) PageBounds(n int) (geom.Rect, bool) {
	pl, ok := m.Layout().Page(n)
	return pl.Rect, ok
}

// PageScale returns the effective scale (fit scale times zoom) of page n.
func (m *Manager) PageScale(n int) (float64, bool) {
	pl, ok := m.Layout().Page(n)
	return pl.Scale, ok
}

// ScreenToPage converts a viewport point into page-local coordinates of page n.
func (m *Manager) ScreenToPage(n int, screen geom.Pt) (geom.Pt, bool) {
	pl, ok := m.Layout().Page(n)
	if !ok {
		return geom.Pt{}, false
	}
	return screen.Add(m.scroll).Sub(pl.Offset).Scale(1 / pl.Scale), true
}

// PageToScreen is the inverse of ScreenToPage.
func (m *Manager) PageToScreen(n int, p geom.Pt) (geom.Pt, bool) {
	pl, ok := m.Layout().Page(n)
	if !ok {
		return geom.Pt{}, false
	}
	return p.Scale(pl.Scale).Add(pl.Offset).Sub(m.scroll), true
}

// PageAt returns the page under a viewport point.
func (m *Manager) PageAt(screen geom.Pt) (int, bool) {
	c := screen.Add(m.scroll)
	for _, pl := range m.Layout().Pages {
		if pl.Rect.Contains(c) {
			return pl.Page, true
		}
	}
	return 0, false
}

// ScrollToCenter returns the clamped scroll position that centers page n in
// the viewport. The caller applies it with SetScroll or animates towards it.
func (m *Manager) ScrollToCenter(n int) (geom.Pt, bool) {
	res := m.Layout()
	pl, ok := res.Page(n)
	if !ok {
		return geom.Pt{}, false
	}
	return res.ClampScroll(m.viewport, pl.Rect.Center().Sub(m.viewport.Half())), true
}

// ScrollToTop returns the clamped scroll position that aligns the top edge of
// page n with the viewport top, centered horizontally.
func (m *Manager) ScrollToTop(n int) (geom.Pt, bool) {
	res := m.Layout()
	pl, ok := res.Page(n)
	if !ok {
		return geom.Pt{}, false
	}
	p := geom.Pt{X: pl.Rect.Center().X - m.viewport.W/2, Y: pl.Rect.Y}
	return res.ClampScroll(m.viewport, p), true
}

// ZoomToFitPage returns the zoom at which page n fits entirely in the viewport.
func (m *Manager) ZoomToFitPage(n int) (float64, bool) {
	base, ok := m.baseSize(n)
	if !ok {
		return 0, false
	}
	return m.cfg.ClampZoom(min(m.viewport.W/base.W, m.viewport.H/base.H)), true
}

// ZoomToFitWidth returns the zoom at which page n spans the viewport width.
func (m *Manager) ZoomToFitWidth(n int) (float64, bool) {
	base, ok := m.baseSize(n)
	if !ok {
		return 0, false
	}
	return m.cfg.ClampZoom(m.viewport.W / base.W), true
}

// baseSize is the page size at zoom 1.
func (m *Manager) baseSize(n int) (geom.Size, bool) {
	i := slices.IndexFunc(m.pages, func(p domain.PageInfo) bool { return p.Number == n })
	if i < 0 || m.viewport.Empty() {
		return geom.Size{}, false
	}
	p := m.pages[i]
	s := FitScale(m.cfg.FitPolicy, p, m.viewport)
	size := geom.Size{W: p.Width * s, H: p.Height * s}
	if size.Empty() {
		return geom.Size{}, false
	}
	return size, true
}
