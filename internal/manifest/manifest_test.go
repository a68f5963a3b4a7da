/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"

	"pageview/internal/domain"
)

func TestParseValid(t *testing.T) {
	doc := `{"version":1,"title":"Letter","pages":[{"number":0,"width":612,"height":792},{"number":1,"width":792,"height":612}]}`
	m, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Manifest{Version: 1, Title: "Letter", Pages: []domain.PageInfo{domain.Page(0, 612, 792), domain.Page(1, 792, 612)}}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestParseReportsAllSchemaViolations(t *testing.T) {
	doc := `{"pages":[{"number":0,"width":-1,"height":0}],"extra":true}`
	_, err := Parse([]byte(doc))
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
	if n := len(multierr.Errors(err)); n < 3 {
		t.Fatalf("expected every violation to be reported, got %d: %v", n, err)
	}
}

func TestParseMissingPages(t *testing.T) {
	if _, err := Parse([]byte(`{"version":1}`)); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestParseRejectsUnorderedPages(t *testing.T) {
	doc := `{"pages":[{"number":1,"width":10,"height":10},{"number":1,"width":10,"height":10}]}`
	_, err := Parse([]byte(doc))
	if !errors.Is(err, domain.ErrInvalidPages) {
		t.Fatalf("expected ErrInvalidPages, got %v", err)
	}
	if errors.Is(err, ErrSchema) {
		t.Fatalf("duplicate numbers are not a schema problem: %v", err)
	}
}

func TestParseMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{"pages":[`))
	if err == nil || errors.Is(err, ErrSchema) {
		t.Fatalf("expected a decode error, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs", "pages.json")
	m := Uniform(3, 595, 842)
	m.Title = "A4"
	if err := Save(path, m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(m, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestSaveEmptyManifestIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := Save(path, Manifest{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Version != CurrentVersion || len(m.Pages) != 0 {
		t.Fatalf("unexpected manifest %+v", m)
	}
}

func TestSaveRejectsInvalidPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	err := Save(path, Manifest{Pages: []domain.PageInfo{domain.Page(0, 0, 10)}})
	if !errors.Is(err, domain.ErrInvalidPages) {
		t.Fatalf("expected ErrInvalidPages, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("invalid manifest was written")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestSchemaIsACopy(t *testing.T) {
	s := Schema()
	s[0] = 'x'
	if Schema()[0] != '{' {
		t.Fatalf("Schema exposes the embedded bytes")
	}
}
