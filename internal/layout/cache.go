/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import (
	"slices"
	"sync"
)

// Cache memoizes the last layout keyed by input equality. It is safe for
// concurrent use, so a render goroutine can read through the same cache the
// interaction goroutine fills.
type Cache struct {
	mu     sync.Mutex
	in     Inputs
	res    Result
	valid  bool
	hits   uint64
	misses uint64
}

// Get returns the layout for in, recomputing only when in differs from the
// inputs of the cached snapshot. The returned Result is shared; treat it as
// read-only.
func (c *Cache) Get(in Inputs) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid && c.in.Equal(in) {
		c.hits++
		return c.res
	}
	c.misses++
	in.Pages = slices.Clone(in.Pages)
	c.in, c.res, c.valid = in, Compute(in), true
	return c.res
}

// Invalidate drops the cached snapshot.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.res = Result{}
	c.mu.Unlock()
}

// Stats reports cache hits and misses since creation.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
