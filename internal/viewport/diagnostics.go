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

	"pageview/internal/geom"
)

const (
	bytesPerPixel      = 4
	maxZoomPenalty     = 40.0
	zoomPenaltyPerUnit = 10.0
	maxAreaPenalty     = 40.0
	areaPenaltyPerStep = 5.0 // per doubling of scrollable area
	reduceQualityBelow = 50.0
)

// Diagnostics are advisory hints for an adaptive-quality renderer.
type Diagnostics struct {
	VisiblePixels int64   `json:"visible_pixels"`
	MemoryBytes   int64   `json:"memory_bytes"`
	Score         float64 `json:"score"` // 0..100, higher is cheaper to render
	ReduceQuality bool    `json:"reduce_quality"`
}

// OptimizeViewport estimates the rendering cost of the current state.
func (c *Calculator) OptimizeViewport() Diagnostics {
	var d Diagnostics
	if vis, ok := c.VisibleContent(); ok {
		d.VisiblePixels = int64(math.Round(vis.Area() * c.zoom * c.zoom))
	}
	d.MemoryBytes = d.VisiblePixels * bytesPerPixel

	score := 100 - min(maxZoomPenalty, zoomPenaltyPerUnit*max(0, c.zoom-1))
	vpArea := c.bounds.Area()
	if scaled := c.content.Area() * c.zoom * c.zoom; vpArea > 0 && scaled > vpArea {
		score -= min(maxAreaPenalty, areaPenaltyPerStep*math.Log2(scaled/vpArea))
	}
	d.Score = geom.Clamp(geom.FloatRound(score, 2), 0, 100)
	d.ReduceQuality = d.Score < reduceQualityBelow
	return d
}
