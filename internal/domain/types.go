/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model for the Go Proof Writer project:
// the persisted proof document, its text annotations, and the proof step list.
// The document serializes to a human-readable JSON file (.proof or .json,
// interchangeable content).

// Font size bounds and default for annotations.
const (
	MinFontSize     = 16
	MaxFontSize     = 48
	DefaultFontSize = 28
)

// Document is the complete persisted representation of one annotation session.
// ImagePath is an opaque reference; the document never embeds image bytes.
// Annotation order is insertion order and carries no z-order meaning.
type Document struct {
	ImagePath   string       `json:"imagePath,omitempty"`
	Annotations []Annotation `json:"annotations"`
	ProofSteps  []ProofStep  `json:"proofSteps"`
	FontSize    int          `json:"fontSize"`
	IsDarkMode  bool         `json:"isDarkMode"`
}

// Annotation is a single positioned text glyph on the canvas.
// X and Y are canvas display-space pixel coordinates, not normalized to the
// image's natural resolution; re-imported or rescaled images therefore do not
// reposition existing annotations.
type Annotation struct {
	ID       string  `json:"id"`
	X        float32 `json:"x"`
	Y        float32 `json:"y"`
	Text     string  `json:"text"`
	Color    string  `json:"color"` // "#RRGGBB"
	FontSize int     `json:"fontSize"`
}

// ProofStep is one {justification, conclusion} pair of the proof scratchpad.
// Both texts are free-form and may be empty independently; no logical
// validation is performed.
type ProofStep struct {
	ID        string `json:"id"`
	Because   string `json:"because"`
	Therefore string `json:"therefore"`
}

// NewDocument returns an empty document with display defaults applied.
func NewDocument() Document {
	return Document{
		Annotations: []Annotation{},
		ProofSteps:  []ProofStep{},
		FontSize:    DefaultFontSize,
	}
}

// ClampFontSize forces a font size into the supported [MinFontSize, MaxFontSize] range.
func ClampFontSize(size int) int {
	if size < MinFontSize {
		return MinFontSize
	}
	if size > MaxFontSize {
		return MaxFontSize
	}
	return size
}

// DefaultColors is the fixed annotation color palette offered by the UI.
// Arbitrary #RRGGBB values remain valid in documents.
var DefaultColors = []string{
	"#000000", // black
	"#0000FF", // blue
	"#FF0000", // red
	"#008000", // green
	"#800080", // purple
	"#FF8C00", // orange
}
