/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic in the command line tool into a logged error,
// a report file and a non-zero exit status.
package crash

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "pageview/internal/log"
	"pageview/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Snapshot is the context attached to a crash report. Commands fill State
// with the engine inputs they are about to evaluate so a report can be
// replayed.
type Snapshot struct {
	// ReportDir receives the report; empty means os.TempDir().
	ReportDir    string
	Command      string
	ConfigPath   string
	ManifestPath string
	State        any
}

// Recover captures a panic, logs an error with stacktrace, writes a report
// file and exits with status 2.
//
// Usage: defer crash.Recover(snap)
func Recover(s *Snapshot) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, err := writeReport(s, r, stack)
		if err != nil {
			l.Error("write crash report failed", slog.Any("err", err), slog.String("path", reportPath))
		}
		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		exitFn(2)
	}
}

func writeReport(s *Snapshot, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if s != nil && s.ReportDir != "" {
		dir = s.ReportDir
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("pageview-crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "pageview crash report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if s != nil {
		if s.Command != "" {
			_, _ = fmt.Fprintf(&buf, "Command: %s\n", s.Command)
		}
		if s.ConfigPath != "" {
			_, _ = fmt.Fprintf(&buf, "Config: %s\n", s.ConfigPath)
		}
		if s.ManifestPath != "" {
			_, _ = fmt.Fprintf(&buf, "Manifest: %s\n", s.ManifestPath)
		}
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	if s != nil && s.State != nil {
		if st, err := json.MarshalIndent(s.State, "", "  "); err == nil {
			_, _ = fmt.Fprintf(&buf, "State:\n%s\n\n", st)
		} else {
			_, _ = fmt.Fprintf(&buf, "State: unavailable (%v)\n\n", err)
		}
	}
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()
	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()
	return path, nil
}
