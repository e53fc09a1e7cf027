/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package sheet owns the mutable annotation-canvas state: the annotation list,
// identity generation, and the single selection. All operations are synchronous
// and immediately consistent; the store is owned by the UI control thread and
// needs no locking.
package sheet

import (
	"fmt"

	"goproofwriter/internal/domain"
	"goproofwriter/internal/viewport"
)

// Store holds the annotations of one open document in insertion order plus the
// currently selected identity. The selection is a weak back-reference: it is
// cleared explicitly whenever its target is removed.
type Store struct {
	annotations []domain.Annotation
	selected    string
	nextID      int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{annotations: []domain.Annotation{}, nextID: 1}
}

// Load replaces the store contents with the given annotations (document load).
// The identity counter is seeded past the highest numeric id so identities are
// never reused within a document's lifetime.
func (s *Store) Load(annotations []domain.Annotation) {
	s.annotations = append([]domain.Annotation(nil), annotations...)
	if s.annotations == nil {
		s.annotations = []domain.Annotation{}
	}
	s.selected = ""
	maxN := 0
	for _, a := range s.annotations {
		var n int
		if _, err := fmt.Sscanf(a.ID, "a%d", &n); err == nil && n > maxN {
			maxN = n
		}
	}
	s.nextID = maxN + 1
}

// newID returns a fresh identity like "a1", "a2", ... unique for this store.
func (s *Store) newID() string {
	id := fmt.Sprintf("a%d", s.nextID)
	s.nextID++
	return id
}

// Insert adds a new annotation at pos and makes it the selection. Empty text is
// rejected (no pending token armed) and reported via ok=false. The font size is
// clamped to the supported range.
func (s *Store) Insert(pos viewport.Pt, text, color string, fontSize int) (id string, ok bool) {
	if text == "" {
		return "", false
	}
	a := domain.Annotation{
		ID:       s.newID(),
		X:        pos.X,
		Y:        pos.Y,
		Text:     text,
		Color:    color,
		FontSize: domain.ClampFontSize(fontSize),
	}
	s.annotations = append(s.annotations, a)
	s.selected = a.ID
	return a.ID, true
}

// Select sets the selection. Callers pass only live identities (the renderer
// reports ids from its own click targets).
func (s *Store) Select(id string) { s.selected = id }

// ClearSelection drops the selection.
func (s *Store) ClearSelection() { s.selected = "" }

// Selected returns the selected identity, ok=false when nothing is selected.
func (s *Store) Selected() (string, bool) {
	if s.selected == "" {
		return "", false
	}
	return s.selected, true
}

// Move updates an annotation's position in place. Unknown identities are a
// silent no-op: drag-end callbacks may race a concurrent deletion.
func (s *Store) Move(id string, pos viewport.Pt) {
	for i := range s.annotations {
		if s.annotations[i].ID == id {
			s.annotations[i].X = pos.X
			s.annotations[i].Y = pos.Y
			return
		}
	}
}

// UpdateText replaces an annotation's text. Unlike Insert, the empty string is
// permitted here: it represents in-progress user editing.
func (s *Store) UpdateText(id, text string) {
	for i := range s.annotations {
		if s.annotations[i].ID == id {
			s.annotations[i].Text = text
			return
		}
	}
}

// UpdateStyle replaces an annotation's color and font size.
func (s *Store) UpdateStyle(id, color string, fontSize int) {
	for i := range s.annotations {
		if s.annotations[i].ID == id {
			s.annotations[i].Color = color
			s.annotations[i].FontSize = domain.ClampFontSize(fontSize)
			return
		}
	}
}

// Delete removes the annotation with the given identity. If it was selected
// the selection becomes none.
func (s *Store) Delete(id string) {
	for i := range s.annotations {
		if s.annotations[i].ID == id {
			s.annotations = append(s.annotations[:i], s.annotations[i+1:]...)
			if s.selected == id {
				s.selected = ""
			}
			return
		}
	}
}

// Clear empties the store and the selection. Used on new image import and on
// explicit clear-all (the confirmation gate lives with the caller).
func (s *Store) Clear() {
	s.annotations = s.annotations[:0]
	s.selected = ""
}

// Get returns a copy of the annotation with the given identity.
func (s *Store) Get(id string) (domain.Annotation, bool) {
	for _, a := range s.annotations {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Annotation{}, false
}

// Annotations returns a copy of the annotation list in insertion order.
func (s *Store) Annotations() []domain.Annotation {
	return append([]domain.Annotation(nil), s.annotations...)
}

// Len reports the number of annotations.
func (s *Store) Len() int { return len(s.annotations) }
