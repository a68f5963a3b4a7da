/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// This file defines the document model consumed by the geometry engine.
// Pages are supplied once per document load and replaced wholesale on reload.

// ErrInvalidPages is wrapped by ValidatePages for every reported problem.
var ErrInvalidPages = errors.New("invalid page list")

// PageInfo describes one page of a document in its intrinsic units (usually points).
type PageInfo struct {
	Number int     `json:"number"` // 0-indexed, matches physical document order
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// AspectRatio returns width/height, or 1 for a degenerate page.
func (p PageInfo) AspectRatio() float64 {
	if p.Width <= 0 || p.Height <= 0 {
		return 1
	}
	return p.Width / p.Height
}

// Landscape reports whether the page is wider than it is tall.
func (p PageInfo) Landscape() bool { return p.Width > p.Height }

// Page returns a PageInfo; handy in tests and fixtures.
func Page(number int, w, h float64) PageInfo { return PageInfo{Number: number, Width: w, Height: h} }

// Uniform builds n pages of identical size numbered from 0.
func Uniform(n int, w, h float64) []PageInfo {
	out := make([]PageInfo, n)
	for i := range out {
		out[i] = Page(i, w, h)
	}
	return out
}

// ValidatePages checks that page numbers are strictly increasing and sizes positive.
// All problems are reported together.
func ValidatePages(pages []PageInfo) error {
	var err error
	for i, p := range pages {
		if p.Width <= 0 || p.Height <= 0 {
			err = multierr.Append(err, fmt.Errorf("%w: page %d has non-positive size %gx%g", ErrInvalidPages, p.Number, p.Width, p.Height))
		}
		if p.Number < 0 {
			err = multierr.Append(err, fmt.Errorf("%w: page number %d is negative", ErrInvalidPages, p.Number))
		}
		if i > 0 && p.Number <= pages[i-1].Number {
			err = multierr.Append(err, fmt.Errorf("%w: page %d follows page %d", ErrInvalidPages, p.Number, pages[i-1].Number))
		}
	}
	return err
}

// AspectVariance returns the population variance of the pages' aspect ratios.
// Fewer than two pages have no variance.
func AspectVariance(pages []PageInfo) float64 {
	if len(pages) < 2 {
		return 0
	}
	var sum float64
	for _, p := range pages {
		sum += p.AspectRatio()
	}
	mean := sum / float64(len(pages))
	var acc float64
	for _, p := range pages {
		d := p.AspectRatio() - mean
		acc += d * d
	}
	return acc / float64(len(pages))
}
