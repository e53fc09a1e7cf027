/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "testing"

func TestClampFontSize(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{15, 16},
		{16, 16},
		{28, 28},
		{48, 48},
		{49, 48},
		{0, 16},
		{-3, 16},
	}
	for _, c := range cases {
		if got := ClampFontSize(c.in); got != c.want {
			t.Fatalf("ClampFontSize(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestNewDocumentDefaults(t *testing.T) {
	doc := NewDocument()
	if doc.Annotations == nil || len(doc.Annotations) != 0 {
		t.Fatalf("expected empty non-nil annotations, got %#v", doc.Annotations)
	}
	if doc.ProofSteps == nil || len(doc.ProofSteps) != 0 {
		t.Fatalf("expected empty non-nil proof steps, got %#v", doc.ProofSteps)
	}
	if doc.FontSize != DefaultFontSize {
		t.Fatalf("expected default font size %d, got %d", DefaultFontSize, doc.FontSize)
	}
	if doc.IsDarkMode {
		t.Fatalf("new document must start in light mode")
	}
	if doc.ImagePath != "" {
		t.Fatalf("new document must have no image reference")
	}
}
