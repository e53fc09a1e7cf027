/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"goproofwriter/internal/storage"
)

// PNGOptions controls flattened PNG export.
// - Width/Height: canvas size when no diagram image is available; zero
//   values fall back to 1024x768.
// - Marker: draw a small cross at each annotation anchor.
//
//nolint:revive // clarity is preferred
type PNGOptions struct {
	Width  int
	Height int
	Marker bool
}

// ExportProofPNG flattens the diagram and annotation labels into a single
// PNG at outPath (resolved against the document's directory if relative).
// Text uses a fixed bitmap face; sizes are approximate, good enough for
// sharing a quick snapshot of the annotated diagram.
func ExportProofPNG(h *storage.DocumentHandle, outPath string, opt PNGOptions) error {
	if h == nil {
		return fmt.Errorf("document handle is nil")
	}

	base, err := loadDiagram(h, opt)
	if err != nil {
		return err
	}

	bg := color.RGBA{255, 255, 255, 255}
	fallback := color.RGBA{0, 0, 0, 255}
	if h.Doc.IsDarkMode {
		bg = color.RGBA{30, 30, 30, 255}
		fallback = color.RGBA{230, 230, 230, 255}
	}

	img := image.NewRGBA(base.Bounds())
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
	draw.Draw(img, img.Bounds(), base, base.Bounds().Min, draw.Over)

	face := basicfont.Face7x13
	for _, a := range h.Doc.Annotations {
		col := annotationColor(a.Color, fallback)
		x, y := int(a.X), int(a.Y)
		if opt.Marker {
			drawCross(img, x, y, col)
		}
		d := font.Drawer{
			Dst:  img,
			Src:  &image.Uniform{C: col},
			Face: face,
			Dot:  fixed.P(x+4, y-2),
		}
		d.DrawString(a.Text)
	}

	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(filepath.Dir(h.Path), outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

// loadDiagram decodes the referenced image, or yields a blank canvas when
// the document has none or the file is unreadable.
func loadDiagram(h *storage.DocumentHandle, opt PNGOptions) (image.Image, error) {
	w, ht := opt.Width, opt.Height
	if w <= 0 {
		w = 1024
	}
	if ht <= 0 {
		ht = 768
	}
	if h.Doc.ImagePath == "" {
		return image.NewRGBA(image.Rect(0, 0, w, ht)), nil
	}
	f, err := os.Open(resolveImagePath(h))
	if err != nil {
		return image.NewRGBA(image.Rect(0, 0, w, ht)), nil
	}
	defer func() { _ = f.Close() }()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode diagram: %w", err)
	}
	return img, nil
}

func annotationColor(hex string, fallback color.RGBA) color.RGBA {
	if hex == "" {
		return fallback
	}
	r, g, b := parseHexColor(hex)
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
}

// drawCross marks an annotation anchor with a 5px cross.
func drawCross(img *image.RGBA, x, y int, col color.RGBA) {
	for d := -2; d <= 2; d++ {
		if image.Pt(x+d, y).In(img.Bounds()) {
			img.SetRGBA(x+d, y, col)
		}
		if image.Pt(x, y+d).In(img.Bounds()) {
			img.SetRGBA(x, y+d, col)
		}
	}
}
