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
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"goproofwriter/internal/domain"
	"goproofwriter/internal/storage"
)

// PDFOptions controls PDF proof-sheet export.
// Units are points (pt). Page origin is top-left. We rely on built-in
// Helvetica for portability; font embedding can be added later using TTFs.
//
//nolint:revive // keep options grouped and explicit for clarity
type PDFOptions struct {
	Title          string  // falls back to the document file name
	IncludeDiagram bool    // place the referenced diagram image when readable
	DiagramMaxH    float64 // max diagram height in pt; 0 means half the page
}

// A4 portrait in points.
const (
	pageW   = 595.28
	pageH   = 841.89
	marginX = 48.0
	marginY = 54.0
)

// ExportProofPDF writes the document as a printable proof sheet: title,
// diagram with annotation labels, then the numbered step list. The output
// lands at outPath (resolved against the document's directory if relative).
func ExportProofPDF(h *storage.DocumentHandle, outPath string, opt PDFOptions) error {
	if h == nil {
		return fmt.Errorf("document handle is nil")
	}
	title := opt.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(h.Path), filepath.Ext(h.Path))
	}
	if title == "" {
		title = "Untitled proof"
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: pageW, Ht: pageH},
		OrientationStr: "",
	})
	pdf.SetTitle(title, true)
	pdf.SetAuthor("Go Proof Writer", false)
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Text(marginX, marginY, title)
	y := marginY + 24

	if opt.IncludeDiagram && h.Doc.ImagePath != "" {
		imgPath := resolveImagePath(h)
		if _, err := os.Stat(imgPath); err == nil {
			maxH := opt.DiagramMaxH
			if maxH <= 0 {
				maxH = pageH / 2
			}
			y = placeDiagram(pdf, h, imgPath, y, maxH)
		}
	}

	y += 12
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(marginX, y, "Proof")
	y += 20
	for i, st := range h.Doc.ProofSteps {
		if y > pageH-marginY {
			pdf.AddPage()
			y = marginY
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Text(marginX, y, fmt.Sprintf("%d.", i+1))
		pdf.SetFont("Helvetica", "", 11)
		because := st.Because
		if because == "" {
			because = "—"
		}
		therefore := st.Therefore
		if therefore == "" {
			therefore = "—"
		}
		pdf.Text(marginX+24, y, "Because: "+because)
		y += 16
		if y > pageH-marginY {
			pdf.AddPage()
			y = marginY
		}
		pdf.Text(marginX+24, y, "Therefore: "+therefore)
		y += 20
	}

	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(filepath.Dir(h.Path), outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// placeDiagram draws the diagram image scaled into the content width and
// overlays the annotation labels at their stored positions. Returns the new
// cursor y below the diagram.
func placeDiagram(pdf *gofpdf.Fpdf, h *storage.DocumentHandle, imgPath string, y, maxH float64) float64 {
	info := pdf.RegisterImageOptions(imgPath, gofpdf.ImageOptions{ReadDpi: true})
	if info == nil || info.Width() <= 0 || info.Height() <= 0 {
		return y
	}
	contentW := pageW - 2*marginX
	scale := contentW / info.Width()
	if info.Height()*scale > maxH {
		scale = maxH / info.Height()
	}
	w := info.Width() * scale
	ht := info.Height() * scale
	pdf.ImageOptions(imgPath, marginX, y, w, ht, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")

	// Annotation positions are stored in display space over the image at
	// natural size; map them with the same scale used for the image.
	for _, a := range h.Doc.Annotations {
		r, g, b := parseHexColor(a.Color)
		pdf.SetTextColor(r, g, b)
		size := float64(domain.ClampFontSize(a.FontSize)) * scale
		if size < 6 {
			size = 6
		}
		pdf.SetFont("Helvetica", "", size)
		pdf.Text(marginX+float64(a.X)*scale, y+float64(a.Y)*scale, a.Text)
	}
	pdf.SetTextColor(0, 0, 0)
	return y + ht + 8
}

func resolveImagePath(h *storage.DocumentHandle) string {
	if filepath.IsAbs(h.Doc.ImagePath) {
		return h.Doc.ImagePath
	}
	return filepath.Join(filepath.Dir(h.Path), h.Doc.ImagePath)
}

// parseHexColor parses "#RRGGBB" into 0..255 components; black on failure.
func parseHexColor(s string) (int, int, int) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)
}
