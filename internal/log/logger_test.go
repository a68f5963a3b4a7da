/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// lastJSONLine returns the last record written to a JSON log file.
func lastJSONLine(t *testing.T, path string) map[string]any {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var last string
	sc := bufio.NewScanner(strings.NewReader(string(b)))
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines in %s", path)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	return m
}

func TestInitWritesStructuredFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pageview.log")
	Init(Options{Level: "debug", Format: "json", File: path})
	t.Cleanup(func() { Init(Options{}) })

	ctx := ContextWith(context.Background(), slog.String("cmd", "fit"))
	l := WithPage(WithOperation(WithComponent("layout"), "zoom_to_fit"), 2)
	l.InfoContext(ctx, "page fitted", slog.Float64("zoom", 1.5))

	m := lastJSONLine(t, path)
	want := map[string]any{
		"app":       "pageview",
		"component": "layout",
		"op":        "zoom_to_fit",
		"page":      float64(2),
		"cmd":       "fit",
		"zoom":      1.5,
		"msg":       "page fitted",
	}
	for k, v := range want {
		if m[k] != v {
			t.Fatalf("%s = %v, want %v (record %v)", k, m[k], v, m)
		}
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr in %v", m)
	}
}

func TestInitRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pageview.log")
	Init(Options{Level: "warn", File: path})
	t.Cleanup(func() { Init(Options{}) })

	L().Info("dropped")
	L().Warn("kept")
	if m := lastJSONLine(t, path); m["msg"] != "kept" {
		t.Fatalf("last record = %v", m)
	}
	if got := parseLevel(" Warning "); got != slog.LevelWarn {
		t.Fatalf("parseLevel = %v", got)
	}
}
