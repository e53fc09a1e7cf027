/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package viewport computes the fit/zoom transform that maps a diagram image's
// natural size into the available canvas viewport. Annotation positions are
// stored in canvas display space and are deliberately not rescaled when the
// viewport or zoom changes.
package viewport

// Zoom bounds and the multiplicative step. Multiplicative steps give
// perceptually even zoom; the clamps prevent degenerate scales.
const (
	MinScale = 0.1
	MaxScale = 3.0
	zoomStep = 1.2
)

// Pt is a point in canvas space.
type Pt struct{ X, Y float32 }

// FitScale returns min(viewW/naturalW, viewH/naturalH, 1.0): the image is
// sized to fit the viewport without exceeding its native resolution on import.
// A zero or negative dimension on either side yields 1.0.
func FitScale(naturalW, naturalH, viewW, viewH float32) float32 {
	if naturalW <= 0 || naturalH <= 0 || viewW <= 0 || viewH <= 0 {
		return 1.0
	}
	s := viewW / naturalW
	if sh := viewH / naturalH; sh < s {
		s = sh
	}
	if s > 1.0 {
		s = 1.0
	}
	return s
}

// ZoomIn advances the scale one multiplicative step, clamped to MaxScale.
func ZoomIn(scale float32) float32 {
	s := scale * zoomStep
	if s > MaxScale {
		return MaxScale
	}
	return s
}

// ZoomOut retreats the scale one multiplicative step, clamped to MinScale.
func ZoomOut(scale float32) float32 {
	s := scale / zoomStep
	if s < MinScale {
		return MinScale
	}
	return s
}

// View holds the display state for one canvas: the image's natural size (zero
// when no image is loaded), the current scale, and the viewport extent.
type View struct {
	NaturalW, NaturalH float32
	Scale              float32
	ViewW, ViewH       float32
}

// NewView returns a view at scale 1.0 with no image.
func NewView() View { return View{Scale: 1.0} }

// SetImage records a freshly imported image's natural size and derives the
// initial fit scale from the current viewport.
func (v *View) SetImage(naturalW, naturalH float32) {
	v.NaturalW = naturalW
	v.NaturalH = naturalH
	v.Scale = FitScale(naturalW, naturalH, v.ViewW, v.ViewH)
}

// ClearImage drops the image reference and resets the scale.
func (v *View) ClearImage() {
	v.NaturalW, v.NaturalH = 0, 0
	v.Scale = 1.0
}

// Resize records a new viewport extent. The scale and stored annotation
// positions are left untouched; only a fresh import re-derives the fit.
func (v *View) Resize(viewW, viewH float32) {
	v.ViewW = viewW
	v.ViewH = viewH
}

// ImageSize returns the displayed (scaled) image extent.
func (v View) ImageSize() (w, h float32) {
	return v.NaturalW * v.Scale, v.NaturalH * v.Scale
}

// HasImage reports whether a natural image size has been recorded.
func (v View) HasImage() bool { return v.NaturalW > 0 && v.NaturalH > 0 }
