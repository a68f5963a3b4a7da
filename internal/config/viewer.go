/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// ErrInvalid is wrapped by every problem reported from Viewer.Validate.
var ErrInvalid = errors.New("invalid viewer configuration")

// FitPolicy maps a page's intrinsic size and the viewport size to a base display scale.
type FitPolicy int

const (
	FitWidth FitPolicy = iota
	FitHeight
	FitBoth
	// FitAuto fits landscape pages by width and everything else by both
	// dimensions, so pages of one document may end up with different scales.
	FitAuto
)

var fitPolicyNames = [...]string{"width", "height", "both", "auto"}

func (p FitPolicy) String() string {
	if p < 0 || int(p) >= len(fitPolicyNames) {
		return fmt.Sprintf("FitPolicy(%d)", int(p))
	}
	return fitPolicyNames[p]
}

// ParseFitPolicy accepts the names produced by String, case-insensitively.
func ParseFitPolicy(s string) (FitPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range fitPolicyNames {
		if n == s {
			return FitPolicy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown fit policy %q", s)
}

func (p FitPolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *FitPolicy) UnmarshalText(b []byte) error {
	v, err := ParseFitPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ScrollDirection is the axis (or axes) along which the document scrolls.
type ScrollDirection int

const (
	Vertical ScrollDirection = iota
	Horizontal
	Both
)

var scrollDirectionNames = [...]string{"vertical", "horizontal", "both"}

func (d ScrollDirection) String() string {
	if d < 0 || int(d) >= len(scrollDirectionNames) {
		return fmt.Sprintf("ScrollDirection(%d)", int(d))
	}
	return scrollDirectionNames[d]
}

func ParseScrollDirection(s string) (ScrollDirection, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range scrollDirectionNames {
		if n == s {
			return ScrollDirection(i), nil
		}
	}
	return 0, fmt.Errorf("unknown scroll direction %q", s)
}

func (d ScrollDirection) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *ScrollDirection) UnmarshalText(b []byte) error {
	v, err := ParseScrollDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Viewer is the immutable configuration snapshot read by the geometry engine.
// The engine never mutates it; the With* methods return modified copies.
//
// Spacing is expressed in density units and converted to pixels with Density.
type Viewer struct {
	FitPolicy          FitPolicy       `yaml:"fit_policy"`
	ScrollDirection    ScrollDirection `yaml:"scroll_direction"`
	MinZoom            float64         `yaml:"min_zoom"`
	MaxZoom            float64         `yaml:"max_zoom"`
	DoubleTapZoomScale float64         `yaml:"double_tap_zoom"`
	Spacing            float64         `yaml:"spacing"`
	AutoSpacing        bool            `yaml:"auto_spacing"`
	PageSnap           bool            `yaml:"page_snap"`
	FitEachPage        bool            `yaml:"fit_each_page"`
	SwipeHorizontal    bool            `yaml:"swipe_horizontal"`
	Density            float64         `yaml:"density"`
}

// DefaultViewer returns the viewer defaults.
func DefaultViewer() Viewer {
	return Viewer{
		FitPolicy:          FitWidth,
		ScrollDirection:    Vertical,
		MinZoom:            1,
		MaxZoom:            3,
		DoubleTapZoomScale: 1.75,
		Spacing:            8,
		Density:            1,
	}
}

func (v Viewer) WithFitPolicy(p FitPolicy) Viewer { v.FitPolicy = p; return v }

func (v Viewer) WithScrollDirection(d ScrollDirection) Viewer { v.ScrollDirection = d; return v }

func (v Viewer) WithZoomBounds(minZoom, maxZoom float64) Viewer {
	v.MinZoom, v.MaxZoom = minZoom, maxZoom
	return v
}

func (v Viewer) WithDoubleTapZoom(scale float64) Viewer { v.DoubleTapZoomScale = scale; return v }

// WithSpacing switches to manual spacing of the given density units.
func (v Viewer) WithSpacing(units float64) Viewer {
	v.Spacing = units
	v.AutoSpacing = false
	return v
}

func (v Viewer) WithAutoSpacing(on bool) Viewer     { v.AutoSpacing = on; return v }
func (v Viewer) WithPageSnap(on bool) Viewer        { v.PageSnap = on; return v }
func (v Viewer) WithFitEachPage(on bool) Viewer     { v.FitEachPage = on; return v }
func (v Viewer) WithSwipeHorizontal(on bool) Viewer { v.SwipeHorizontal = on; return v }
func (v Viewer) WithDensity(d float64) Viewer       { v.Density = d; return v }

// ClampZoom limits z to [MinZoom, MaxZoom]. NaN yields MinZoom; the
// infinities clamp to the nearer bound.
func (v Viewer) ClampZoom(z float64) float64 {
	if z != z || z < v.MinZoom { // NaN compares false
		return v.MinZoom
	}
	if z > v.MaxZoom {
		return v.MaxZoom
	}
	return z
}

// Px converts density units to pixels. A non-positive density counts as 1.
func (v Viewer) Px(units float64) float64 {
	if v.Density <= 0 {
		return units
	}
	return units * v.Density
}

// Validate reports every problem with the snapshot. It is meant for the
// configuration builder; the engine itself only clamps live values.
func (v Viewer) Validate() error {
	var err error
	if int(v.FitPolicy) < 0 || int(v.FitPolicy) >= len(fitPolicyNames) {
		err = multierr.Append(err, fmt.Errorf("%w: fit_policy %d", ErrInvalid, int(v.FitPolicy)))
	}
	if int(v.ScrollDirection) < 0 || int(v.ScrollDirection) >= len(scrollDirectionNames) {
		err = multierr.Append(err, fmt.Errorf("%w: scroll_direction %d", ErrInvalid, int(v.ScrollDirection)))
	}
	if v.MinZoom <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: min_zoom must be positive, got %g", ErrInvalid, v.MinZoom))
	}
	if v.MaxZoom < v.MinZoom {
		err = multierr.Append(err, fmt.Errorf("%w: max_zoom %g below min_zoom %g", ErrInvalid, v.MaxZoom, v.MinZoom))
	}
	if v.DoubleTapZoomScale <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: double_tap_zoom must be positive, got %g", ErrInvalid, v.DoubleTapZoomScale))
	}
	if v.Spacing < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: spacing must not be negative, got %g", ErrInvalid, v.Spacing))
	}
	if v.Density <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: density must be positive, got %g", ErrInvalid, v.Density))
	}
	return err
}
