//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests validate the Fyne-based UI components. They are gated behind the
// "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"image"
	"testing"

	"fyne.io/fyne/v2"

	"goproofwriter/internal/sheet"
	"goproofwriter/internal/viewport"
)

func almostEqual(a, b, eps float32) bool {
	if a > b {
		return a-b <= eps
	}
	return b-a <= eps
}

func TestSheetCanvas_Defaults(t *testing.T) {
	sc := NewSheetCanvas(sheet.NewStore())
	if sc.Scale() != 1.0 {
		t.Fatalf("expected default scale 1.0, got %v", sc.Scale())
	}
	sz := sc.MinSize()
	if sz.Width != 800 || sz.Height != 600 {
		t.Fatalf("unexpected MinSize: %v", sz)
	}
}

func TestSheetCanvas_FitAndCoordinateRoundTrip(t *testing.T) {
	sc := NewSheetCanvas(sheet.NewStore())
	sc.Resize(fyne.NewSize(1000, 800))
	sc.SetDiagram(image.NewRGBA(image.Rect(0, 0, 2000, 1000)))
	sc.FitToView()

	// min(1000/2000, 800/1000, 1.0) = 0.5
	if !almostEqual(sc.Scale(), 0.5, 0.001) {
		t.Fatalf("fit scale = %v, want 0.5", sc.Scale())
	}

	pt := viewport.Pt{X: 120, Y: 80}
	back := sc.toSheet(sc.toScreen(pt))
	if !almostEqual(back.X, pt.X, 0.01) || !almostEqual(back.Y, pt.Y, 0.01) {
		t.Fatalf("round trip = %+v, want %+v", back, pt)
	}

	// Pan offsets shift screen positions by the same amount.
	before := sc.toScreen(pt)
	sc.offsetX += 100
	sc.offsetY += 50
	after := sc.toScreen(pt)
	if !almostEqual(after.X-before.X, 100, 0.01) || !almostEqual(after.Y-before.Y, 50, 0.01) {
		t.Fatalf("pan delta = (%v,%v), want (100,50)", after.X-before.X, after.Y-before.Y)
	}
}

func TestSheetCanvas_ZoomClamps(t *testing.T) {
	sc := NewSheetCanvas(sheet.NewStore())
	for i := 0; i < 30; i++ {
		sc.Zoom(true)
	}
	if sc.Scale() > viewport.MaxScale+0.001 {
		t.Fatalf("zoom exceeded max: %v", sc.Scale())
	}
	for i := 0; i < 60; i++ {
		sc.Zoom(false)
	}
	if sc.Scale() < viewport.MinScale-0.001 {
		t.Fatalf("zoom below min: %v", sc.Scale())
	}
}

func TestSheetCanvas_HitTestAndTap(t *testing.T) {
	store := sheet.NewStore()
	sc := NewSheetCanvas(store)
	sc.Resize(fyne.NewSize(1000, 800))

	id, ok := store.Insert(viewport.Pt{X: 100, Y: 100}, "∠A = 60°", "#0000FF", 28)
	if !ok {
		t.Fatal("insert failed")
	}

	if hit := sc.hitTest(viewport.Pt{X: 110, Y: 95}); hit != id {
		t.Fatalf("hitTest inside label = %q, want %q", hit, id)
	}
	if hit := sc.hitTest(viewport.Pt{X: 600, Y: 600}); hit != "" {
		t.Fatalf("hitTest far away = %q, want empty", hit)
	}

	var selected string
	var emptyAt *viewport.Pt
	sc.OnSelect = func(s string) { selected = s }
	sc.OnTapEmpty = func(p viewport.Pt) { emptyAt = &p }

	sc.Tapped(&fyne.PointEvent{Position: sc.toScreen(viewport.Pt{X: 110, Y: 95})})
	if selected != id {
		t.Fatalf("tap on label selected %q, want %q", selected, id)
	}
	if emptyAt != nil {
		t.Fatal("tap on label must not report an empty tap")
	}

	sc.Tapped(&fyne.PointEvent{Position: sc.toScreen(viewport.Pt{X: 600, Y: 600})})
	if emptyAt == nil {
		t.Fatal("tap on empty area not reported")
	}
	if !almostEqual(emptyAt.X, 600, 0.5) || !almostEqual(emptyAt.Y, 600, 0.5) {
		t.Fatalf("empty tap at %+v, want (600,600)", *emptyAt)
	}
}

func TestSheetCanvas_RendererLayoutMovesLabels(t *testing.T) {
	store := sheet.NewStore()
	sc := NewSheetCanvas(store)
	sc.Resize(fyne.NewSize(1000, 800))
	store.Insert(viewport.Pt{X: 50, Y: 60}, "AB ∥ CD", "#FF0000", 24)

	r, ok := sc.CreateRenderer().(*sheetCanvasRenderer)
	if !ok {
		t.Fatalf("expected sheetCanvasRenderer, got %T", sc.CreateRenderer())
	}
	size := fyne.NewSize(1000, 800)
	r.Layout(size)
	if len(r.labels) != 1 {
		t.Fatalf("label pool size = %d, want 1", len(r.labels))
	}
	before := r.labels[0].Position()

	sc.offsetX += 100
	sc.offsetY += 50
	r.Layout(size)
	after := r.labels[0].Position()
	if !almostEqual(after.X-before.X, 100, 0.5) || !almostEqual(after.Y-before.Y, 50, 0.5) {
		t.Fatalf("label moved (%v,%v), want (100,50)", after.X-before.X, after.Y-before.Y)
	}

	// Selection rectangle follows the selected annotation.
	if !r.sel.Visible() {
		t.Fatal("selection rect hidden for the selected annotation")
	}
	store.ClearSelection()
	r.Layout(size)
	if r.sel.Visible() {
		t.Fatal("selection rect visible with no selection")
	}
}

func TestLabelColor(t *testing.T) {
	c := labelColor("#FF0000", false)
	r, g, b, _ := c.RGBA()
	if r>>8 != 0xFF || g != 0 || b != 0 {
		t.Fatalf("labelColor(#FF0000) = %v", c)
	}
	// Invalid hex falls back by theme.
	lr, _, _, _ := labelColor("nope", true).RGBA()
	if lr>>8 != 230 {
		t.Fatalf("dark fallback = %v", labelColor("nope", true))
	}
}
