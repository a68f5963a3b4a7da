/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

// Basic 2D geometry shared by the layout, viewport and snap packages.
// Coordinates are float64 pixels with y growing downwards.

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
)

// Pt is a 2D point.
type Pt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (p Pt) Add(q Pt) Pt            { return Pt{p.X + q.X, p.Y + q.Y} }
func (p Pt) Sub(q Pt) Pt            { return Pt{p.X - q.X, p.Y - q.Y} }
func (p Pt) Scale(f float64) Pt     { return Pt{p.X * f, p.Y * f} }
func (p Pt) Vec() vec.Vec2          { return vec.Vec2{X: p.X, Y: p.Y} }
func FromVec(v vec.Vec2) Pt         { return Pt{X: v.X, Y: v.Y} }
func (p Pt) Dist(q Pt) float64      { return q.Vec().Sub(p.Vec()).Length() }
func (s Size) Empty() bool          { return s.W <= 0 || s.H <= 0 }
func (s Size) Area() float64        { return max(s.W, 0) * max(s.H, 0) }
func (s Size) Half() Pt             { return Pt{s.W / 2, s.H / 2} }
func (s Size) Scale(f float64) Size { return Size{s.W * f, s.H * f} }

func (r Rect) Min() Pt          { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt          { return Pt{r.X + r.W, r.Y + r.H} }
func (r Rect) Right() float64   { return r.X + r.W }
func (r Rect) Bottom() float64  { return r.Y + r.H }
func (r Rect) Size() Size       { return Size{r.W, r.H} }
func (r Rect) Center() Pt       { return Pt{r.X + r.W/2, r.Y + r.H/2} }
func (r Rect) Area() float64    { return r.Size().Area() }
func (r Rect) Empty() bool      { return r.W <= 0 || r.H <= 0 }
func (r Rect) Offset(d Pt) Rect { return Rect{X: r.X + d.X, Y: r.Y + d.Y, W: r.W, H: r.H} }

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Intersect returns the overlap of r and o. The second result is false
// when the rectangles do not overlap with a positive area.
func (r Rect) Intersect(o Rect) (Rect, bool) {
	x0 := max(r.X, o.X)
	y0 := max(r.Y, o.Y)
	x1 := min(r.Right(), o.Right())
	y1 := min(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}, false
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}, true
}

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	minX := min(r.X, o.X)
	minY := min(r.Y, o.Y)
	maxX := max(r.Right(), o.Right())
	maxY := max(r.Bottom(), o.Bottom())
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Apply maps p through m using the PDF matrix layout [a b c d e f]:
// x' = a*x + c*y + e, y' = b*x + d*y + f.
func Apply(m matrix.Matrix, p Pt) Pt {
	return Pt{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Clamp limits v to [lo, hi]. If hi < lo, lo wins.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// NearlyEqual compares with an absolute tolerance.
func NearlyEqual(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

// FloatRound rounds v to n decimal places deterministically.
func FloatRound(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
