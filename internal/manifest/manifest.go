/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package manifest reads and writes the JSON page list a document source
// hands to the viewer: {"pages":[{"number":0,"width":612,"height":792}]}.
//
// Documents are checked twice: structurally against the embedded JSON
// schema, then semantically with domain.ValidatePages.
package manifest

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"
	"go.uber.org/multierr"

	"pageview/internal/domain"
)

// CurrentVersion is written by Save.
const CurrentVersion = 1

// ErrSchema is wrapped by every schema violation Parse reports.
var ErrSchema = errors.New("manifest does not match schema")

//go:embed pages.schema.json
var schemaJSON []byte

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

// Manifest is the on-disk page list.
type Manifest struct {
	Version int               `json:"version,omitempty"`
	Title   string            `json:"title,omitempty"`
	Pages   []domain.PageInfo `json:"pages"`
}

// Uniform returns a manifest of n identical pages.
func Uniform(n int, w, h float64) Manifest {
	return Manifest{Version: CurrentVersion, Pages: domain.Uniform(n, w, h)}
}

// Schema returns the embedded JSON schema.
func Schema() []byte { return append([]byte(nil), schemaJSON...) }

// Parse validates and decodes a manifest document. All schema violations
// are returned together.
func Parse(data []byte) (Manifest, error) {
	schema, err := compiledSchema()
	if err != nil {
		return Manifest{}, fmt.Errorf("compile schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Manifest{}, fmt.Errorf("validate manifest: %w", err)
	}
	if !result.Valid() {
		var verr error
		for _, e := range result.Errors() {
			verr = multierr.Append(verr, fmt.Errorf("%w: %s", ErrSchema, e))
		}
		return Manifest{}, verr
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	if err := domain.ValidatePages(m.Pages); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(b)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Save writes m to path through a temporary file in the same directory, so
// readers never observe a partial manifest.
func Save(path string, m Manifest) error {
	if err := domain.ValidatePages(m.Pages); err != nil {
		return err
	}
	if m.Version == 0 {
		m.Version = CurrentVersion
	}
	if m.Pages == nil {
		m.Pages = []domain.PageInfo{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure manifest dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	if err := writeSync(tmp, data); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// writeSync writes data, flushes it to disk and closes f.
func writeSync(f *os.File, data []byte) (err error) {
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}
