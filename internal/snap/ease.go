/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package snap

import (
	"math"

	"pageview/internal/geom"
)

// Ease maps linear progress in [0,1] to eased progress. strength blends a
// cubic ease-in-out (1) with plain linear motion (0). Both inputs are clamped.
func Ease(progress, strength float64) float64 {
	p := geom.Clamp(progress, 0, 1)
	s := geom.Clamp(strength, 0, 1)
	var cubic float64
	if p < 0.5 {
		cubic = 4 * p * p * p
	} else {
		cubic = 1 - math.Pow(-2*p+2, 3)/2
	}
	return (1-s)*p + s*cubic
}

// Interpolate moves from towards to, easing both axes with the same progress.
func Interpolate(from, to geom.Pt, progress, strength float64) geom.Pt {
	return from.Add(to.Sub(from).Scale(Ease(progress, strength)))
}
