/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package spacing computes the gaps between stacked pages and around the
// document edges. Manual spacing is a fixed configured value; adaptive spacing
// scales a base gap by zoom, scroll direction, viewport shape and how much the
// page shapes vary.
package spacing

import (
	"log/slog"
	"math"

	"pageview/internal/config"
	"pageview/internal/domain"
	"pageview/internal/geom"
	applog "pageview/internal/log"
)

// Spacing bounds in density units.
const (
	BaseSpacing = 16.0
	MinSpacing  = 4.0
	MaxSpacing  = 64.0
)

const (
	manualEdgeRatio   = 0.5
	adaptiveEdgeRatio = 0.6
	// pages whose aspect ratios differ by more than this get a wider gap
	aspectMismatch      = 0.1
	aspectMismatchBoost = 1.5
)

// Result is the resolved spacing in pixels.
type Result struct {
	Top       float64 `json:"top"`
	Bottom    float64 `json:"bottom"`
	Left      float64 `json:"left"`
	Right     float64 `json:"right"`
	InterPage float64 `json:"inter_page"`
	Adaptive  bool    `json:"adaptive"`
}

// Params are the live inputs the adaptive heuristics look at.
type Params struct {
	Config   config.Viewer
	Zoom     float64
	Viewport geom.Size
}

// Compute resolves the spacing for a page list. It never returns zero or
// negative spacing for an empty page list or viewport; the base spacing is
// used instead.
func Compute(p Params, pages []domain.PageInfo) Result {
	cfg := p.Config
	if len(pages) == 0 || p.Viewport.Empty() {
		return defaults(cfg)
	}
	if !cfg.AutoSpacing {
		inter := cfg.Px(cfg.Spacing)
		e := inter * manualEdgeRatio
		return Result{Top: e, Bottom: e, Left: e, Right: e, InterPage: inter}
	}
	inter := adaptive(p, domain.AspectVariance(pages))
	r := distribute(inter*adaptiveEdgeRatio, cfg.ScrollDirection)
	r.InterPage = inter
	r.Adaptive = true
	return r
}

// Between returns the gap between two neighbouring pages. In adaptive mode
// the variance factor is taken over the pair, and pages of visibly different
// shape get an extra boost.
func Between(p Params, cur, next domain.PageInfo) float64 {
	cfg := p.Config
	if !cfg.AutoSpacing {
		return cfg.Px(cfg.Spacing)
	}
	if p.Viewport.Empty() {
		return cfg.Px(BaseSpacing)
	}
	inter := base(p) * varianceFactor(domain.AspectVariance([]domain.PageInfo{cur, next}))
	if math.Abs(cur.AspectRatio()-next.AspectRatio()) > aspectMismatch {
		inter *= aspectMismatchBoost
	}
	return cfg.Px(geom.Clamp(inter, MinSpacing, MaxSpacing))
}

func defaults(cfg config.Viewer) Result {
	inter := cfg.Px(BaseSpacing)
	if cfg.AutoSpacing {
		r := distribute(inter*adaptiveEdgeRatio, cfg.ScrollDirection)
		r.InterPage = inter
		r.Adaptive = true
		return r
	}
	e := inter * manualEdgeRatio
	return Result{Top: e, Bottom: e, Left: e, Right: e, InterPage: inter}
}

func adaptive(p Params, variance float64) float64 {
	inter := base(p) * varianceFactor(variance)
	return p.Config.Px(geom.Clamp(inter, MinSpacing, MaxSpacing))
}

// base applies the factors that do not depend on the pages.
func base(p Params) float64 {
	return BaseSpacing * zoomFactor(p.Zoom) * directionFactor(p.Config.ScrollDirection) * viewportFactor(p.Viewport)
}

// distribute spreads the edge spacing: full weight on the edges across the
// scroll axis, half weight on the others.
func distribute(edge float64, dir config.ScrollDirection) Result {
	switch dir {
	case config.Horizontal:
		return Result{Top: edge * 0.5, Bottom: edge * 0.5, Left: edge, Right: edge}
	case config.Both:
		return Result{Top: edge, Bottom: edge, Left: edge, Right: edge}
	default:
		return Result{Top: edge, Bottom: edge, Left: edge * 0.5, Right: edge * 0.5}
	}
}

func zoomFactor(z float64) float64 {
	switch {
	case z < 0.5:
		return 0.5
	case z < 1:
		return 0.75
	case z > 4:
		return 1.2 * 1.5
	case z > 2:
		return 1.2
	default:
		return 1
	}
}

func directionFactor(d config.ScrollDirection) float64 {
	switch d {
	case config.Horizontal:
		return 1.2
	case config.Both:
		return 0.8
	default:
		return 1
	}
}

func viewportFactor(s geom.Size) float64 {
	if s.Empty() {
		return 1
	}
	switch ar := s.W / s.H; {
	case ar > 1.5:
		return 1.2
	case ar < 0.7:
		return 0.8
	default:
		return 1
	}
}

func varianceFactor(v float64) float64 {
	switch {
	case v > 0.5:
		return 1.3
	case v > 0.2:
		return 1.1
	default:
		return 1
	}
}

// Calculator keeps the live spacing inputs between calls.
type Calculator struct {
	params Params
	log    *slog.Logger
}

func New(cfg config.Viewer) *Calculator {
	return &Calculator{params: Params{Config: cfg, Zoom: 1}, log: applog.WithComponent("spacing")}
}

func (c *Calculator) SetConfig(cfg config.Viewer) {
	c.params.Config = cfg
	c.log.Debug("config replaced", slog.Bool("auto", cfg.AutoSpacing), slog.Float64("spacing", cfg.Spacing))
}

func (c *Calculator) SetZoom(z float64)          { c.params.Zoom = z }
func (c *Calculator) SetViewport(size geom.Size) { c.params.Viewport = size }
func (c *Calculator) Params() Params             { return c.params }

// Calculate resolves spacing for pages with the current inputs.
func (c *Calculator) Calculate(pages []domain.PageInfo) Result { return Compute(c.params, pages) }

// InterPage returns the gap between two neighbouring pages.
func (c *Calculator) InterPage(cur, next domain.PageInfo) float64 {
	return Between(c.params, cur, next)
}
