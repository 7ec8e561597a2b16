// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fiofmt

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// A Files reads canonical metric records from the result files under
// a scan root.
//
// Its API is modeled on bufio.Scanner: call Scan until it returns
// false, reading each record with Record, then check Err. Every
// per-file failure (unreadable file, undecodable content) is
// isolated: the file is skipped, a diagnostic is accumulated in
// Warnings, and scanning continues. The only condition Err reports is
// a scan root that does not exist.
//
// Each file is tried as fio JSON first. If the content does not
// decode, or decodes without fio's top-level jobs list, the same raw
// content goes through the text extractor instead.
type Files struct {
	// Root is the directory to scan. Scan fails if it does not exist.
	Root string

	// Extensions is the set of file extensions (without dot) to
	// consider. If nil, DefaultExtensions is used.
	Extensions []string

	// Recurse scans subdirectories. Without it only the files
	// directly under Root are considered.
	Recurse bool

	// Identify derives task/runner/timestamp identifiers from a
	// file's Root-relative path. If nil, records carry no
	// identifiers.
	Identify func(relPath string) Identity

	records  []*Record
	pos      int
	warnings []error
	started  bool
	err      error
}

// DefaultExtensions is the set of file extensions scanned when
// Files.Extensions is nil.
var DefaultExtensions = []string{"json", "txt", "log", "out"}

// Scan advances to the next record, reports whether one is
// available, and makes it available through Record.
func (f *Files) Scan() bool {
	if !f.started {
		f.started = true
		f.load()
	}
	if f.err != nil || f.pos >= len(f.records) {
		return false
	}
	f.pos++
	return true
}

// Record returns the record read by the last call to Scan.
func (f *Files) Record() *Record {
	return f.records[f.pos-1]
}

// Err returns the fatal error that stopped Scan, if any. Per-file
// failures are not fatal; see Warnings.
func (f *Files) Err() error {
	return f.err
}

// Warnings returns the per-file diagnostics accumulated so far. These
// should be surfaced to the user but do not invalidate the records
// that were extracted.
func (f *Files) Warnings() []error {
	return f.warnings
}

func (f *Files) load() {
	if _, err := os.Stat(f.Root); err != nil {
		f.err = errors.Wrapf(err, "scan root %q", f.Root)
		return
	}

	exts := f.Extensions
	if exts == nil {
		exts = DefaultExtensions
	}
	include := make(map[string]bool, len(exts))
	for _, e := range exts {
		include[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}

	var paths []string
	if f.Recurse {
		// WalkDir yields a deterministic lexical order.
		err := filepath.WalkDir(f.Root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				f.warnings = append(f.warnings, err)
				return nil
			}
			if !d.IsDir() && include[extOf(path)] {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			f.err = err
			return
		}
	} else {
		entries, err := os.ReadDir(f.Root)
		if err != nil {
			f.err = errors.Wrapf(err, "scan root %q", f.Root)
			return
		}
		for _, e := range entries {
			if !e.IsDir() && include[extOf(e.Name())] {
				paths = append(paths, filepath.Join(f.Root, e.Name()))
			}
		}
	}

	for _, path := range paths {
		f.readFile(path)
	}
}

func (f *Files) readFile(path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		f.warnings = append(f.warnings, errors.Wrapf(err, "read %s", path))
		return
	}

	rel, err := filepath.Rel(f.Root, path)
	if err != nil {
		rel = path
	}
	var id Identity
	if f.Identify != nil {
		id = f.Identify(rel)
	}

	var doc any
	if json.Unmarshal(content, &doc) == nil {
		if m, ok := doc.(map[string]any); ok {
			recs, err := ExtractJSON(m, path, id)
			if err == nil {
				f.records = append(f.records, recs...)
				return
			}
			// Valid JSON but not a fio document; fall through to the
			// text grammar on the raw content.
		}
	}
	f.records = append(f.records, ExtractText(string(content), path, id)...)
}

func extOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
