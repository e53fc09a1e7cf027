/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"goproofwriter/internal/domain"
)

// Recognized document file extensions; content is interchangeable.
const (
	ExtProof = ".proof"
	ExtJSON  = ".json"
)

const backupKeep = 3

//go:embed schema.json
var schemaBytes []byte

// DocumentHandle tracks a proof document loaded/saved from disk.
// Path is the document file; Doc holds the in-memory representation.
type DocumentHandle struct {
	Path string
	Doc  domain.Document
}

// Serialize encodes the document as indented, human-diffable JSON with a
// trailing newline. All fields round-trip; field order follows the struct.
func Serialize(doc domain.Document) ([]byte, error) {
	if doc.Annotations == nil {
		doc.Annotations = []domain.Annotation{}
	}
	if doc.ProofSteps == nil {
		doc.ProofSteps = []domain.ProofStep{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return append(data, '\n'), nil
}

// Deserialize parses document text. Malformed JSON, schema violations, and
// duplicate annotation identities all fail without partially populating state.
// On success missing optional fields receive defaults: empty annotation and
// proof step sequences, font size 28, light mode. The image path is returned
// unresolved; callers fetch and decode the image through the import boundary.
func Deserialize(data []byte) (domain.Document, error) {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaBytes), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return domain.Document{}, fmt.Errorf("parse document: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return domain.Document{}, fmt.Errorf("invalid document: %s", strings.Join(msgs, "; "))
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("parse document: %w", err)
	}
	if doc.Annotations == nil {
		doc.Annotations = []domain.Annotation{}
	}
	if doc.ProofSteps == nil {
		doc.ProofSteps = []domain.ProofStep{}
	}
	if doc.FontSize == 0 {
		doc.FontSize = domain.DefaultFontSize
	}

	seen := map[string]struct{}{}
	for _, a := range doc.Annotations {
		if _, dup := seen[a.ID]; dup {
			return domain.Document{}, fmt.Errorf("invalid document: duplicate annotation id %q", a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	return doc, nil
}

// NewHandle creates a handle for a fresh document at path (not yet saved).
func NewHandle(path string) *DocumentHandle {
	return &DocumentHandle{Path: NormalizePath(path), Doc: domain.NewDocument()}
}

// NormalizePath appends the default extension when the path carries neither
// recognized one.
func NormalizePath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtProof, ExtJSON:
		return path
	}
	return path + ExtProof
}

// Open loads a document from the given file. If the file cannot be read or
// parsed, the latest timestamped backup is tried before giving up.
func Open(path string) (*DocumentHandle, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		doc, berr := openFromLatestBackup(path)
		if berr != nil {
			return nil, fmt.Errorf("open document: %w; backup attempt: %v", err, berr)
		}
		return &DocumentHandle{Path: path, Doc: doc}, nil
	}
	doc, err := Deserialize(b)
	if err != nil {
		bdoc, berr := openFromLatestBackup(path)
		if berr != nil {
			return nil, fmt.Errorf("%w; backup attempt: %v", err, berr)
		}
		return &DocumentHandle{Path: path, Doc: bdoc}, nil
	}
	return &DocumentHandle{Path: path, Doc: doc}, nil
}

// Save writes the handle's document to disk with transactional semantics and
// a timestamped backup of the previous file (if present). Old backups beyond
// backupKeep are pruned.
func Save(h *DocumentHandle) error {
	if h == nil {
		return errors.New("nil DocumentHandle")
	}
	if strings.TrimSpace(h.Path) == "" {
		return errors.New("invalid DocumentHandle: missing path")
	}
	data, err := Serialize(h.Doc)
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(h.Path); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bpath := fmt.Sprintf("%s.%s.bak", h.Path, stamp)
		if cerr := copyFile(h.Path, bpath); cerr != nil {
			return fmt.Errorf("backup current document: %w", cerr)
		}
		pruneBackups(h.Path)
	}

	// Transactional write: temp file in the same directory, then rename.
	dir := filepath.Dir(h.Path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(h.Path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp document: %w", werr)
	}
	// On Windows, replace by removing the destination first if needed.
	if _, err := os.Stat(h.Path); err == nil {
		_ = os.Remove(h.Path)
	}
	if rerr := os.Rename(temp, h.Path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace document: %w", rerr)
	}
	return nil
}

// SaveAs writes the document to a new path and updates the handle.
func SaveAs(h *DocumentHandle, newPath string) error {
	if h == nil {
		return errors.New("nil DocumentHandle")
	}
	if strings.TrimSpace(newPath) == "" {
		return errors.New("new path is empty")
	}
	h.Path = NormalizePath(newPath)
	return Save(h)
}

// AutosaveCrashSnapshot writes the current document next to the original with
// a crash-stamped name, used by the panic handler. Returns the snapshot path.
func AutosaveCrashSnapshot(h *DocumentHandle) (string, error) {
	if h == nil {
		return "", errors.New("nil DocumentHandle")
	}
	data, err := Serialize(h.Doc)
	if err != nil {
		return "", err
	}
	dir := os.TempDir()
	base := "untitled" + ExtProof
	if strings.TrimSpace(h.Path) != "" {
		dir = filepath.Dir(h.Path)
		base = filepath.Base(h.Path)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("%s.crash-%s%s", base, stamp, ExtProof))
	if err := writeFileSync(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// backupPaths lists existing backups for a document, sorted oldest first
// (the timestamp in the name yields lexicographic order).
func backupPaths(docPath string) []string {
	dir := filepath.Dir(docPath)
	base := filepath.Base(docPath)
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, base+".") && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(dir, name))
		}
	}
	sort.Strings(out)
	return out
}

func pruneBackups(docPath string) {
	baks := backupPaths(docPath)
	for len(baks) > backupKeep {
		_ = os.Remove(baks[0])
		baks = baks[1:]
	}
}

func openFromLatestBackup(docPath string) (domain.Document, error) {
	baks := backupPaths(docPath)
	if len(baks) == 0 {
		return domain.Document{}, errors.New("no backups found")
	}
	latest := baks[len(baks)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read latest backup: %w", err)
	}
	doc, err := Deserialize(b)
	if err != nil {
		return domain.Document{}, fmt.Errorf("parse latest backup: %w", err)
	}
	return doc, nil
}

// writeFileSync writes data to a file and ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
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

// copyFile copies a file from src to dst (overwrites dst if it exists).
func copyFile(src, dst string) (err error) {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return writeFileSync(dst, b)
}
