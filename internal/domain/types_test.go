/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"go.uber.org/multierr"
)

func TestPageInfoJSON(t *testing.T) {
	var p PageInfo
	if err := json.Unmarshal([]byte(`{"number":2,"width":612,"height":792}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p != Page(2, 612, 792) {
		t.Fatalf("unexpected page: %+v", p)
	}
}

func TestAspectRatio(t *testing.T) {
	if ar := Page(0, 800, 1200).AspectRatio(); math.Abs(ar-2.0/3.0) > 1e-12 {
		t.Fatalf("AspectRatio = %v", ar)
	}
	if ar := Page(0, 800, 0).AspectRatio(); ar != 1 {
		t.Fatalf("degenerate page should report 1, got %v", ar)
	}
	if !Page(0, 1200, 800).Landscape() || Page(0, 800, 800).Landscape() {
		t.Fatalf("landscape detection broken")
	}
}

func TestValidatePagesCollectsAllProblems(t *testing.T) {
	pages := []PageInfo{Page(0, 100, 100), Page(0, 0, 100), Page(5, 10, -1)}
	err := ValidatePages(pages)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrInvalidPages) {
		t.Fatalf("expected ErrInvalidPages, got %v", err)
	}
	if n := len(multierr.Errors(err)); n != 3 {
		t.Fatalf("expected 3 problems, got %d: %v", n, err)
	}
	if err := ValidatePages(Uniform(3, 612, 792)); err != nil {
		t.Fatalf("uniform pages should validate: %v", err)
	}
}

func TestAspectVariance(t *testing.T) {
	if v := AspectVariance(Uniform(4, 1, 2)); v != 0 {
		t.Fatalf("uniform pages have no variance, got %v", v)
	}
	// ratios 1 and 2 -> mean 1.5 -> variance 0.25
	v := AspectVariance([]PageInfo{Page(0, 1, 1), Page(1, 2, 1)})
	if math.Abs(v-0.25) > 1e-12 {
		t.Fatalf("AspectVariance = %v, want 0.25", v)
	}
}
