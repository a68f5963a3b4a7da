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
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

func TestEnvOverridesViewer(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvFitPolicy, "Auto")
	t.Setenv(EnvScrollDirection, "horizontal")
	t.Setenv(EnvMaxZoom, "5")
	t.Setenv(EnvPageSnap, "yes")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	v := cfg.Viewer
	if v.FitPolicy != FitAuto || v.ScrollDirection != Horizontal || v.MaxZoom != 5 || !v.PageSnap {
		t.Fatalf("env overrides not applied: %+v", v)
	}
	if env, ok := EnvOverrideFor("viewer.max_zoom"); !ok || env != EnvMaxZoom {
		t.Fatalf("EnvOverrideFor(viewer.max_zoom) = %q,%v", env, ok)
	}
	if _, ok := EnvOverrideFor("viewer.density"); ok {
		t.Fatalf("density has no env override")
	}
}

func TestEnvOverridesIgnoreGarbage(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvFitPolicy, "sideways")
	t.Setenv(EnvMinZoom, "abc")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Viewer != DefaultViewer() {
		t.Fatalf("garbage env values must be ignored: %+v", cfg.Viewer)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = " DEBUG "
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/pv.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/pv.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestLoadFilePartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "viewer:\n  fit_policy: both\n  page_snap: true\n  spacing: 16\n  density: 3\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := DefaultViewer().WithFitPolicy(FitBoth).WithPageSnap(true).WithSpacing(16).WithDensity(3)
	if cfg.Viewer != want {
		t.Fatalf("viewer = %+v, want %+v", cfg.Viewer, want)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("logging defaults lost: %+v", cfg.Logging)
	}
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("viewer:\n  fit_policy: diagonal\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(bad); err == nil || !strings.Contains(err.Error(), "diagonal") {
		t.Fatalf("expected unknown fit policy error, got %v", err)
	}

	inverted := filepath.Join(dir, "inverted.yaml")
	if err := os.WriteFile(inverted, []byte("viewer:\n  min_zoom: 4\n  max_zoom: 2\n  density: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFile(inverted)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if n := len(multierr.Errors(errors.Unwrap(err))); n != 2 {
		t.Fatalf("expected 2 validation problems, got %d: %v", n, err)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("missing explicit file must be an error")
	}
}

func TestSaveRoundTripUsesNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Defaults()
	cfg.Viewer = cfg.Viewer.WithFitPolicy(FitHeight).WithScrollDirection(Both)
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "fit_policy: height") || !strings.Contains(string(data), "scroll_direction: both") {
		t.Fatalf("enums should be saved by name:\n%s", data)
	}
	var back AppConfig
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Viewer != cfg.Viewer {
		t.Fatalf("round trip mismatch: %+v vs %+v", back.Viewer, cfg.Viewer)
	}
}

func TestViewerCopyOnWrite(t *testing.T) {
	base := DefaultViewer()
	changed := base.WithZoomBounds(0.5, 5).WithAutoSpacing(true)
	if base.MinZoom != 1 || base.AutoSpacing {
		t.Fatalf("With* must not mutate the receiver: %+v", base)
	}
	if changed.MinZoom != 0.5 || changed.MaxZoom != 5 || !changed.AutoSpacing {
		t.Fatalf("unexpected copy: %+v", changed)
	}
	if changed.WithSpacing(4).AutoSpacing {
		t.Fatalf("WithSpacing selects manual spacing")
	}
}

func TestClampZoom(t *testing.T) {
	v := DefaultViewer().WithZoomBounds(0.5, 4)
	for _, z := range []float64{-3, 0, 0.1, 0.5, 1, 3.99, 4, 10, 1e9} {
		got := v.ClampZoom(z)
		if got < v.MinZoom || got > v.MaxZoom {
			t.Fatalf("ClampZoom(%v) = %v out of bounds", z, got)
		}
	}
	if got := v.ClampZoom(2); got != 2 {
		t.Fatalf("in-range zoom changed: %v", got)
	}
}

func TestClampZoomNonFinite(t *testing.T) {
	v := DefaultViewer().WithZoomBounds(0.5, 4)
	for _, tc := range []struct {
		in, want float64
	}{
		{math.NaN(), 0.5},
		{math.Inf(-1), 0.5},
		{math.Inf(1), 4},
	} {
		if got := v.ClampZoom(tc.in); got != tc.want {
			t.Fatalf("ClampZoom(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseEnums(t *testing.T) {
	for _, p := range []FitPolicy{FitWidth, FitHeight, FitBoth, FitAuto} {
		got, err := ParseFitPolicy(p.String())
		if err != nil || got != p {
			t.Fatalf("ParseFitPolicy(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParseScrollDirection("up"); err == nil {
		t.Fatalf("expected error for unknown direction")
	}
	if s := FitPolicy(9).String(); s != "FitPolicy(9)" {
		t.Fatalf("unexpected String for unknown value: %q", s)
	}
}
