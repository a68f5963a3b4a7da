/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"golang.org/x/image/math/f64"
	"seehuhn.de/go/geom/matrix"

	"pageview/internal/geom"
)

// Transform is the value an animation driver applies to the drawing
// surface: screen = content*Scale + Translate, then an optional rotation
// by Rotation degrees about Pivot (or the origin when HasPivot is false).
type Transform struct {
	Scale     float64 `json:"scale"`
	Translate geom.Pt `json:"translate"`
	Rotation  float64 `json:"rotation,omitempty"`
	Pivot     geom.Pt `json:"pivot"`
	HasPivot  bool    `json:"has_pivot,omitempty"`
}

func transformFor(zoom float64, scroll geom.Pt) Transform {
	return Transform{Scale: zoom, Translate: scroll.Scale(-zoom)}
}

// Scroll recovers the content-space scroll position.
func (t Transform) Scroll() geom.Pt {
	if t.Scale == 0 {
		return geom.Pt{}
	}
	return t.Translate.Scale(-1 / t.Scale)
}

// Matrix returns t in PDF matrix layout.
func (t Transform) Matrix() matrix.Matrix {
	m := matrix.Scale(t.Scale, t.Scale).Mul(matrix.Translate(t.Translate.X, t.Translate.Y))
	if t.Rotation != 0 {
		var p geom.Pt
		if t.HasPivot {
			p = t.Pivot
		}
		m = m.Mul(matrix.Translate(-p.X, -p.Y)).Mul(matrix.RotateDeg(t.Rotation)).Mul(matrix.Translate(p.X, p.Y))
	}
	return m
}

// Aff3 returns t as the row-major affine matrix used by x/image/draw.
func (t Transform) Aff3() f64.Aff3 {
	m := t.Matrix()
	return f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
}

// Map transforms a content point to the screen.
func (t Transform) Map(p geom.Pt) geom.Pt { return geom.Apply(t.Matrix(), p) }

// Lerp interpolates from t to u at progress p in [0,1]. Zoom and rotation
// move linearly and the scroll position moves linearly in content space,
// so the visible region pans evenly while the scale changes.
func (t Transform) Lerp(u Transform, p float64) Transform {
	p = geom.Clamp(p, 0, 1)
	scale := t.Scale + (u.Scale-t.Scale)*p
	from, to := t.Scroll(), u.Scroll()
	r := transformFor(scale, from.Add(to.Sub(from).Scale(p)))
	r.Rotation = t.Rotation + (u.Rotation-t.Rotation)*p
	switch {
	case t.HasPivot && u.HasPivot:
		r.Pivot, r.HasPivot = t.Pivot.Add(u.Pivot.Sub(t.Pivot).Scale(p)), true
	case u.HasPivot:
		r.Pivot, r.HasPivot = u.Pivot, true
	case t.HasPivot:
		r.Pivot, r.HasPivot = t.Pivot, true
	}
	return r
}

// Sequence returns frames transforms leading from from to to, excluding from
// and ending exactly at to. ease maps linear progress to eased progress; nil
// means linear.
func Sequence(from, to Transform, frames int, ease func(float64) float64) []Transform {
	if frames < 1 {
		return []Transform{to}
	}
	if ease == nil {
		ease = func(p float64) float64 { return p }
	}
	seq := make([]Transform, frames)
	for i := 1; i < frames; i++ {
		seq[i-1] = from.Lerp(to, ease(float64(i)/float64(frames)))
	}
	seq[frames-1] = to
	return seq
}
