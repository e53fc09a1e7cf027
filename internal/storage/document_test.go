/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"goproofwriter/internal/domain"
)

func sampleDoc() domain.Document {
	return domain.Document{
		ImagePath: "diagrams/triangle.png",
		Annotations: []domain.Annotation{
			{ID: "a1", X: 120, Y: 80, Text: "∠A = 60°", Color: "#0000FF", FontSize: 28},
			{ID: "a2", X: 240.5, Y: 160.25, Text: "AB ∥ CD", Color: "#FF0000", FontSize: 32},
		},
		ProofSteps: []domain.ProofStep{
			{ID: "s1", Because: "AB ∥ CD and AC is a transversal", Therefore: "∠A = ∠C (alternate angles)"},
		},
		FontSize:   28,
		IsDarkMode: true,
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	want := sampleDoc()
	data, err := Serialize(want)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got: %+v\nwant: %+v", got, want)
	}
}

func TestSerializeUsesCanonicalKeys(t *testing.T) {
	data, err := Serialize(sampleDoc())
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	s := string(data)
	for _, key := range []string{`"imagePath"`, `"annotations"`, `"proofSteps"`, `"fontSize"`, `"isDarkMode"`, `"because"`, `"therefore"`} {
		if !strings.Contains(s, key) {
			t.Errorf("serialized document missing key %s:\n%s", key, s)
		}
	}
	if !strings.HasSuffix(s, "\n") {
		t.Error("serialized document should end with a newline")
	}
}

func TestDeserializeDefaultsForMissingFields(t *testing.T) {
	doc, err := Deserialize([]byte(`{}`))
	if err != nil {
		t.Fatalf("Deserialize empty object: %v", err)
	}
	if doc.Annotations == nil || len(doc.Annotations) != 0 {
		t.Errorf("Annotations = %#v, want empty slice", doc.Annotations)
	}
	if doc.ProofSteps == nil || len(doc.ProofSteps) != 0 {
		t.Errorf("ProofSteps = %#v, want empty slice", doc.ProofSteps)
	}
	if doc.FontSize != domain.DefaultFontSize {
		t.Errorf("FontSize = %d, want %d", doc.FontSize, domain.DefaultFontSize)
	}
	if doc.IsDarkMode {
		t.Error("IsDarkMode should default to false")
	}
	if doc.ImagePath != "" {
		t.Errorf("ImagePath = %q, want empty", doc.ImagePath)
	}
}

func TestDeserializeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"truncated":       `{"annotations": [`,
		"not json":        `proof document`,
		"wrong type":      `{"annotations": "none"}`,
		"bad annotation":  `{"annotations": [{"x": 1, "y": 2, "text": "missing id"}]}`,
		"bad step":        `{"proofSteps": [{"because": "no id"}]}`,
		"non-object root": `[1, 2, 3]`,
	}
	for name, input := range cases {
		if _, err := Deserialize([]byte(input)); err == nil {
			t.Errorf("%s: Deserialize accepted malformed input %q", name, input)
		}
	}
}

func TestDeserializeRejectsDuplicateAnnotationIDs(t *testing.T) {
	input := `{"annotations": [
		{"id": "a1", "x": 1, "y": 2, "text": "first"},
		{"id": "a1", "x": 3, "y": 4, "text": "second"}
	]}`
	if _, err := Deserialize([]byte(input)); err == nil {
		t.Fatal("Deserialize accepted duplicate annotation ids")
	}
}

func TestNormalizePath(t *testing.T) {
	if got := NormalizePath("lesson1"); got != "lesson1"+ExtProof {
		t.Errorf("NormalizePath(lesson1) = %q", got)
	}
	if got := NormalizePath("lesson1.json"); got != "lesson1.json" {
		t.Errorf("NormalizePath(lesson1.json) = %q", got)
	}
	if got := NormalizePath("lesson1.proof"); got != "lesson1.proof" {
		t.Errorf("NormalizePath(lesson1.proof) = %q", got)
	}
}

func TestSaveAndOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lesson"+ExtProof)
	h := NewHandle(path)
	h.Doc = sampleDoc()
	if err := Save(h); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !reflect.DeepEqual(got.Doc, h.Doc) {
		t.Fatalf("Open mismatch:\n got: %+v\nwant: %+v", got.Doc, h.Doc)
	}
}

func TestSaveCreatesAndPrunesBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lesson"+ExtProof)
	h := NewHandle(path)
	h.Doc = sampleDoc()

	// First save has no predecessor, so no backup yet.
	if err := Save(h); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n := len(backupPaths(path)); n != 0 {
		t.Fatalf("backups after first save = %d, want 0", n)
	}

	for i := 0; i < backupKeep+2; i++ {
		h.Doc.FontSize = domain.MinFontSize + i
		if err := Save(h); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}
	if n := len(backupPaths(path)); n > backupKeep {
		t.Errorf("backups = %d, want at most %d", n, backupKeep)
	}
}

func TestOpenFallsBackToBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lesson"+ExtProof)
	h := NewHandle(path)
	h.Doc = sampleDoc()
	if err := Save(h); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Second save produces a backup of the intact first version.
	h.Doc.IsDarkMode = false
	if err := Save(h); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Corrupt the live file.
	if err := os.WriteFile(path, []byte("{corrupt"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	got, err := Open(path)
	if err != nil {
		t.Fatalf("Open with backup present: %v", err)
	}
	if len(got.Doc.Annotations) != 2 {
		t.Errorf("recovered annotations = %d, want 2", len(got.Doc.Annotations))
	}
}

func TestOpenMissingWithoutBackupFails(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "absent"+ExtProof)); err == nil {
		t.Fatal("Open of a missing file with no backups should fail")
	}
}

func TestSaveAsUpdatesHandlePath(t *testing.T) {
	dir := t.TempDir()
	h := NewHandle(filepath.Join(dir, "one"))
	h.Doc = sampleDoc()
	if err := Save(h); err != nil {
		t.Fatalf("Save: %v", err)
	}
	newPath := filepath.Join(dir, "two")
	if err := SaveAs(h, newPath); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if h.Path != newPath+ExtProof {
		t.Errorf("handle path = %q, want %q", h.Path, newPath+ExtProof)
	}
	if _, err := os.Stat(h.Path); err != nil {
		t.Errorf("SaveAs target missing: %v", err)
	}
}

func TestAutosaveCrashSnapshot(t *testing.T) {
	dir := t.TempDir()
	h := NewHandle(filepath.Join(dir, "lesson"))
	h.Doc = sampleDoc()
	path, err := AutosaveCrashSnapshot(h)
	if err != nil {
		t.Fatalf("AutosaveCrashSnapshot: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("snapshot dir = %q, want %q", filepath.Dir(path), dir)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	got, err := Deserialize(b)
	if err != nil {
		t.Fatalf("parse snapshot: %v", err)
	}
	if !reflect.DeepEqual(got, h.Doc) {
		t.Error("snapshot does not match in-memory document")
	}
}
