/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sheet

import (
	"reflect"
	"testing"

	"goproofwriter/internal/domain"
	"goproofwriter/internal/viewport"
)

func TestInsertSelectsAndAssignsUniqueIDs(t *testing.T) {
	s := NewStore()
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		id, ok := s.Insert(viewport.Pt{X: float32(i), Y: float32(i)}, "A", "#000000", 28)
		if !ok {
			t.Fatalf("insert %d rejected", i)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate identity %q", id)
		}
		seen[id] = struct{}{}
		if sel, ok := s.Selected(); !ok || sel != id {
			t.Fatalf("newly inserted annotation must be selected, got %q ok=%v", sel, ok)
		}
	}
	if s.Len() != 50 {
		t.Fatalf("expected 50 annotations, got %d", s.Len())
	}
}

func TestInsertRejectsEmptyText(t *testing.T) {
	s := NewStore()
	if id, ok := s.Insert(viewport.Pt{X: 1, Y: 2}, "", "#000000", 28); ok || id != "" {
		t.Fatalf("empty text must be a no-op, got id=%q ok=%v", id, ok)
	}
	if s.Len() != 0 {
		t.Fatalf("store must remain empty")
	}
	if _, ok := s.Selected(); ok {
		t.Fatalf("selection must remain none")
	}
}

func TestInsertScenarioPendingToken(t *testing.T) {
	s := NewStore()
	id, ok := s.Insert(viewport.Pt{X: 120, Y: 80}, "∠A", "#0000FF", 28)
	if !ok {
		t.Fatalf("insert rejected")
	}
	got := s.Annotations()
	if len(got) != 1 {
		t.Fatalf("expected exactly one annotation, got %d", len(got))
	}
	a := got[0]
	if a.X != 120 || a.Y != 80 || a.Text != "∠A" || a.Color != "#0000FF" || a.FontSize != 28 {
		t.Fatalf("unexpected annotation: %+v", a)
	}
	if sel, ok := s.Selected(); !ok || sel != id {
		t.Fatalf("inserted annotation must be selected")
	}
}

func TestInsertClampsFontSize(t *testing.T) {
	s := NewStore()
	id, _ := s.Insert(viewport.Pt{}, "B", "#000000", 99)
	a, _ := s.Get(id)
	if a.FontSize != domain.MaxFontSize {
		t.Fatalf("font size not clamped: %d", a.FontSize)
	}
}

func TestMoveUnknownIDLeavesListUnchanged(t *testing.T) {
	s := NewStore()
	s.Insert(viewport.Pt{X: 10, Y: 20}, "C", "#FF0000", 24)
	s.Insert(viewport.Pt{X: 30, Y: 40}, "D", "#008000", 32)
	before := s.Annotations()

	s.Move("a999", viewport.Pt{X: 500, Y: 500})

	after := s.Annotations()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("move with unknown id mutated the store:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestMoveUpdatesPosition(t *testing.T) {
	s := NewStore()
	id, _ := s.Insert(viewport.Pt{X: 10, Y: 20}, "C", "#FF0000", 24)
	s.Move(id, viewport.Pt{X: 55, Y: 66})
	a, ok := s.Get(id)
	if !ok || a.X != 55 || a.Y != 66 {
		t.Fatalf("move did not apply: %+v ok=%v", a, ok)
	}
}

func TestUpdateTextAllowsEmpty(t *testing.T) {
	s := NewStore()
	id, _ := s.Insert(viewport.Pt{}, "E", "#000000", 28)
	s.UpdateText(id, "")
	a, _ := s.Get(id)
	if a.Text != "" {
		t.Fatalf("empty text must be permitted on update, got %q", a.Text)
	}
}

func TestDeleteClearsSelection(t *testing.T) {
	s := NewStore()
	id, _ := s.Insert(viewport.Pt{}, "F", "#000000", 28)
	s.Select(id)
	s.Delete(id)
	if _, ok := s.Selected(); ok {
		t.Fatalf("selection must be cleared when its target is deleted")
	}
	if s.Len() != 0 {
		t.Fatalf("annotation not removed")
	}
}

func TestDeleteKeepsUnrelatedSelection(t *testing.T) {
	s := NewStore()
	keep, _ := s.Insert(viewport.Pt{}, "G", "#000000", 28)
	gone, _ := s.Insert(viewport.Pt{}, "H", "#000000", 28)
	s.Select(keep)
	s.Delete(gone)
	if sel, ok := s.Selected(); !ok || sel != keep {
		t.Fatalf("unrelated selection must survive a delete, got %q ok=%v", sel, ok)
	}
}

func TestClearEmptiesStoreAndSelection(t *testing.T) {
	s := NewStore()
	s.Insert(viewport.Pt{}, "I", "#000000", 28)
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("clear must empty the store")
	}
	if _, ok := s.Selected(); ok {
		t.Fatalf("clear must drop the selection")
	}
}

func TestLoadSeedsIdentityCounterPastExisting(t *testing.T) {
	s := NewStore()
	s.Load([]domain.Annotation{
		{ID: "a1", Text: "A"},
		{ID: "a7", Text: "B"},
	})
	id, _ := s.Insert(viewport.Pt{}, "C", "#000000", 28)
	if id != "a8" {
		t.Fatalf("expected fresh id a8 after load, got %q", id)
	}
	ids := map[string]struct{}{}
	for _, a := range s.Annotations() {
		if _, dup := ids[a.ID]; dup {
			t.Fatalf("duplicate identity %q after load+insert", a.ID)
		}
		ids[a.ID] = struct{}{}
	}
}
