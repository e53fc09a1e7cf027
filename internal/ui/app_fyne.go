//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"goproofwriter/internal/config"
	"goproofwriter/internal/crash"
	"goproofwriter/internal/domain"
	"goproofwriter/internal/export"
	"goproofwriter/internal/library"
	applog "goproofwriter/internal/log"
	"goproofwriter/internal/palette"
	"goproofwriter/internal/prooftext"
	"goproofwriter/internal/sheet"
	"goproofwriter/internal/storage"
	"goproofwriter/internal/version"
	"goproofwriter/internal/viewport"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg"}

// Run starts the Fyne-based desktop UI: diagram canvas with annotation
// editing, proof step list, and the template palette.
func Run(docPath string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	var h *storage.DocumentHandle
	defer func() { crash.Recover(h) }()

	cfg, token, cfgErr := config.Load()
	if cfgErr != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", cfgErr))
		cfg = config.Defaults()
	}

	fyneApp := app.NewWithID("goproofwriter")
	w := fyneApp.NewWindow("Go Proof Writer")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	dataDir, ddErr := config.DataDir()
	if ddErr != nil {
		l.Warn("data dir unresolved, using temp", slog.Any("err", ddErr))
		dataDir = filepath.Join(os.TempDir(), "goproofwriter")
	}
	tokensDir := filepath.Join(dataDir, "tokens")

	status := widget.NewLabel("Ready")
	store := sheet.NewStore()
	pal := palette.New(nil)
	if extra, err := palette.LoadTokenDir(tokensDir); err != nil {
		l.Warn("load token dir failed", slog.Any("err", err))
	} else {
		for _, t := range extra {
			pal.Add(t)
		}
	}
	sheetCanvas := NewSheetCanvas(store)

	// User-scope index for recents and step search; best-effort.
	indexDB, idxErr := storage.InitOrOpenIndex(dataDir)
	if idxErr != nil {
		l.Warn("index unavailable", slog.Any("err", idxErr))
	}
	touchIndex := func() {
		if indexDB == nil || h == nil {
			return
		}
		go func(hh storage.DocumentHandle) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := storage.TouchRecent(ctx, indexDB, &hh); err != nil {
				l.Warn("index touch failed", slog.Any("err", err))
			}
		}(*h)
	}

	// Default style for the next inserted annotation.
	curColor := domain.DefaultColors[0]
	curFontSize := domain.DefaultFontSize
	var proofSteps []domain.ProofStep
	isDark := false

	// syncDoc folds the live editing state back into the document before
	// any save or export.
	syncDoc := func() {
		if h == nil {
			return
		}
		h.Doc.Annotations = store.Annotations()
		h.Doc.ProofSteps = proofSteps
		h.Doc.FontSize = curFontSize
		h.Doc.IsDarkMode = isDark
	}

	// --- Proof step editor (right pane) ---
	selectedStep := -1
	stepDisplay := []string{}
	stepList := widget.NewList(
		func() int { return len(stepDisplay) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && int(i) < len(stepDisplay) {
				o.(*widget.Label).SetText(stepDisplay[i])
			} else {
				o.(*widget.Label).SetText("")
			}
		},
	)
	becauseEntry := widget.NewMultiLineEntry()
	becauseEntry.SetPlaceHolder("Because…")
	thereforeEntry := widget.NewMultiLineEntry()
	thereforeEntry.SetPlaceHolder("Therefore…")

	refreshSteps := func() {
		stepDisplay = stepDisplay[:0]
		for i, st := range proofSteps {
			b := strings.TrimSpace(st.Because)
			if b == "" {
				b = "—"
			}
			if len(b) > 40 {
				b = b[:40] + "…"
			}
			stepDisplay = append(stepDisplay, fmt.Sprintf("%d. ∵ %s", i+1, b))
		}
		stepList.Refresh()
	}
	stepList.OnSelected = func(id widget.ListItemID) {
		selectedStep = int(id)
		if selectedStep >= 0 && selectedStep < len(proofSteps) {
			becauseEntry.SetText(proofSteps[selectedStep].Because)
			thereforeEntry.SetText(proofSteps[selectedStep].Therefore)
		}
	}
	becauseEntry.OnChanged = func(s string) {
		if selectedStep >= 0 && selectedStep < len(proofSteps) {
			proofSteps[selectedStep].Because = s
			refreshSteps()
		}
	}
	thereforeEntry.OnChanged = func(s string) {
		if selectedStep >= 0 && selectedStep < len(proofSteps) {
			proofSteps[selectedStep].Therefore = s
		}
	}
	addStepBtn := widget.NewButton("Add Step", func() {
		proofSteps = sheet.AppendStep(proofSteps, "", "")
		refreshSteps()
		stepList.Select(len(proofSteps) - 1)
		status.SetText("Step added.")
	})
	delStepBtn := widget.NewButton("Delete Step", func() {
		if selectedStep < 0 || selectedStep >= len(proofSteps) {
			return
		}
		proofSteps = sheet.RemoveStep(proofSteps, proofSteps[selectedStep].ID)
		selectedStep = -1
		becauseEntry.SetText("")
		thereforeEntry.SetText("")
		refreshSteps()
		status.SetText("Step deleted.")
	})

	// --- Annotation inspector ---
	annotEntry := widget.NewEntry()
	annotEntry.SetPlaceHolder("Annotation text")
	annotEntry.OnChanged = func(s string) {
		if id, ok := store.Selected(); ok {
			store.UpdateText(id, s)
			sheetCanvas.Refresh()
		}
	}
	colorSelect := widget.NewSelect(domain.DefaultColors, func(c string) {
		curColor = c
		if id, ok := store.Selected(); ok {
			if a, found := store.Get(id); found {
				store.UpdateStyle(id, c, a.FontSize)
				sheetCanvas.Refresh()
			}
		}
	})
	colorSelect.SetSelected(curColor)
	fontLabel := widget.NewLabel(fmt.Sprintf("Font %d", curFontSize))
	fontSlider := widget.NewSlider(float64(domain.MinFontSize), float64(domain.MaxFontSize))
	fontSlider.Step = 1
	fontSlider.Value = float64(curFontSize)
	fontSlider.OnChanged = func(v float64) {
		curFontSize = domain.ClampFontSize(int(v))
		fontLabel.SetText(fmt.Sprintf("Font %d", curFontSize))
		if id, ok := store.Selected(); ok {
			if a, found := store.Get(id); found {
				store.UpdateStyle(id, a.Color, curFontSize)
				sheetCanvas.Refresh()
			}
		}
	}
	deleteAnnotBtn := widget.NewButton("Delete Annotation", func() {
		if id, ok := store.Selected(); ok {
			store.Delete(id)
			annotEntry.SetText("")
			sheetCanvas.Refresh()
			status.SetText("Annotation deleted.")
		}
	})

	darkCheck := widget.NewCheck("Dark mode", func(v bool) {
		isDark = v
		sheetCanvas.SetDarkMode(v)
		status.SetText("Theme switched.")
	})

	// --- Palette bar ---
	paletteBar := container.NewHBox()
	rebuildPalette := func() {
		paletteBar.Objects = nil
		for _, t := range pal.Tokens() {
			tok := t
			btn := widget.NewButton(tok.Text, func() {
				if pal.Arm(tok.Name) {
					if armed, ok := pal.Armed(); ok {
						status.SetText("Armed token: " + armed.Text + " — tap the diagram to place")
					} else {
						status.SetText("Token disarmed.")
					}
				}
			})
			paletteBar.Objects = append(paletteBar.Objects, btn)
		}
		paletteBar.Refresh()
	}
	rebuildPalette()

	// --- Canvas callbacks ---
	sheetCanvas.OnSelect = func(id string) {
		store.Select(id)
		if a, ok := store.Get(id); ok {
			annotEntry.SetText(a.Text)
			colorSelect.SetSelected(a.Color)
			fontSlider.SetValue(float64(a.FontSize))
		}
		sheetCanvas.Refresh()
	}
	sheetCanvas.OnTapEmpty = func(pos viewport.Pt) {
		text := ""
		insColor := curColor
		if tok, ok := pal.Consume(); ok {
			text = tok.Text
			insColor = palette.ColorFor(tok)
			if tok.Color == "" {
				insColor = curColor
			}
		}
		if text == "" {
			// No armed token: prompt for free text.
			entry := widget.NewEntry()
			entry.SetPlaceHolder("Annotation text")
			dialog.NewForm("New Annotation", "Insert", "Cancel", []*widget.FormItem{
				widget.NewFormItem("Text", entry),
			}, func(ok bool) {
				if !ok {
					return
				}
				if id, ins := store.Insert(pos, entry.Text, curColor, curFontSize); ins {
					annotEntry.SetText(entry.Text)
					sheetCanvas.Refresh()
					status.SetText("Inserted annotation " + id)
				} else {
					status.SetText("Empty annotation discarded.")
				}
			}, w).Show()
			return
		}
		if id, ins := store.Insert(pos, text, insColor, curFontSize); ins {
			annotEntry.SetText(text)
			sheetCanvas.Refresh()
			status.SetText("Inserted annotation " + id)
		}
	}
	sheetCanvas.OnMove = func(id string, pos viewport.Pt) {
		store.Move(id, pos)
	}

	// loadDocument resets the editing state from the handle.
	var loadDocument func()
	loadDocument = func() {
		if h == nil {
			return
		}
		store.Load(h.Doc.Annotations)
		proofSteps = sheet.SeedSteps(h.Doc.ProofSteps)
		curFontSize = domain.ClampFontSize(h.Doc.FontSize)
		fontSlider.SetValue(float64(curFontSize))
		isDark = h.Doc.IsDarkMode
		darkCheck.SetChecked(isDark)
		sheetCanvas.SetDarkMode(isDark)
		selectedStep = -1
		becauseEntry.SetText("")
		thereforeEntry.SetText("")
		annotEntry.SetText("")
		refreshSteps()

		sheetCanvas.ClearDiagram()
		if h.Doc.ImagePath != "" {
			p := h.Doc.ImagePath
			if !filepath.IsAbs(p) {
				p = filepath.Join(filepath.Dir(h.Path), p)
			}
			if img, err := decodeImageFile(p); err != nil {
				l.Warn("diagram not loadable", slog.String("path", p), slog.Any("err", err))
				status.SetText("Diagram image missing: " + h.Doc.ImagePath)
			} else {
				sheetCanvas.SetDiagram(img)
			}
		}
		sheetCanvas.FitToView()
		w.SetTitle(fmt.Sprintf("Go Proof Writer — %s", filepath.Base(h.Path)))
		touchIndex()
	}

	saveDocument := func() error {
		if h == nil {
			return fmt.Errorf("no document open")
		}
		syncDoc()
		if err := storage.Save(h); err != nil {
			return err
		}
		touchIndex()
		return nil
	}

	// --- Menus ---
	docFilter := fstorage.NewExtensionFileFilter([]string{storage.ExtProof, storage.ExtJSON})
	var closeItem *fyne.MenuItem

	newItem := fyne.NewMenuItem("New…", func() {
		l.Info("menu: new document")
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				l.Info("new document canceled")
				return
			}
			path := uc.URI().Path()
			_ = uc.Close()
			h = storage.NewHandle(path)
			if err := storage.Save(h); err != nil {
				dialog.ShowError(err, w)
				return
			}
			loadDocument()
			closeItem.Disabled = false
			status.SetText("Created " + h.Path)
		}, w)
		save.SetFileName("untitled" + storage.ExtProof)
		save.SetFilter(docFilter)
		save.Show()
	})
	openItem := fyne.NewMenuItem("Open…", func() {
		l.Info("menu: open document")
		open := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if ur == nil {
				l.Info("open canceled")
				return
			}
			path := ur.URI().Path()
			_ = ur.Close()
			hh, oerr := storage.Open(path)
			if oerr != nil {
				l.Error("open failed", slog.Any("err", oerr))
				dialog.ShowError(oerr, w)
				return
			}
			h = hh
			loadDocument()
			closeItem.Disabled = false
			status.SetText("Opened " + path)
		}, w)
		open.SetFilter(docFilter)
		open.Show()
	})
	saveItem := fyne.NewMenuItem("Save", func() {
		l.Info("menu: save")
		if h == nil {
			dialog.ShowInformation("Save", "No document open.", w)
			return
		}
		if err := saveDocument(); err != nil {
			l.Error("save failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Saved " + h.Path)
	})
	saveAsItem := fyne.NewMenuItem("Save As…", func() {
		if h == nil {
			dialog.ShowInformation("Save As", "No document open.", w)
			return
		}
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			path := uc.URI().Path()
			_ = uc.Close()
			syncDoc()
			if err := storage.SaveAs(h, path); err != nil {
				dialog.ShowError(err, w)
				return
			}
			touchIndex()
			w.SetTitle(fmt.Sprintf("Go Proof Writer — %s", filepath.Base(h.Path)))
			status.SetText("Saved " + h.Path)
		}, w)
		save.SetFilter(docFilter)
		save.Show()
	})
	closeItem = fyne.NewMenuItem("Close Document", func() {
		if h == nil {
			return
		}
		l.Info("menu: close document")
		h = nil
		store.Clear()
		proofSteps = nil
		sheetCanvas.ClearDiagram()
		sheetCanvas.Refresh()
		refreshSteps()
		annotEntry.SetText("")
		w.SetTitle("Go Proof Writer")
		closeItem.Disabled = true
		status.SetText("Document closed.")
	})
	closeItem.Disabled = true

	recentItem := fyne.NewMenuItem("Open Recent…", func() {
		if indexDB == nil {
			dialog.ShowInformation("Recent", "Recent list unavailable.", w)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		recents, err := storage.ListRecent(ctx, indexDB, 10)
		if err != nil || len(recents) == 0 {
			dialog.ShowInformation("Recent", "No recent documents.", w)
			return
		}
		items := make([]string, len(recents))
		for i, r := range recents {
			items[i] = fmt.Sprintf("%s (%d annotations, %d steps)", r.Path, r.Annotations, r.Steps)
		}
		list := widget.NewList(
			func() int { return len(items) },
			func() fyne.CanvasObject { return widget.NewLabel("") },
			func(i widget.ListItemID, o fyne.CanvasObject) { o.(*widget.Label).SetText(items[i]) },
		)
		var d *dialog.CustomDialog
		list.OnSelected = func(id widget.ListItemID) {
			if id < 0 || int(id) >= len(recents) {
				return
			}
			hh, oerr := storage.Open(recents[id].Path)
			if oerr != nil {
				dialog.ShowError(oerr, w)
				return
			}
			h = hh
			loadDocument()
			closeItem.Disabled = false
			d.Hide()
		}
		d = dialog.NewCustom("Recent Documents", "Close", container.NewStack(list), w)
		d.Resize(fyne.NewSize(600, 400))
		d.Show()
	})

	newItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyN, Modifier: fyne.KeyModifierControl}
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl}
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}
	closeItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyW, Modifier: fyne.KeyModifierControl}
	fileMenu := fyne.NewMenu("File", newItem, openItem, recentItem, saveItem, saveAsItem, fyne.NewMenuItemSeparator(), closeItem)

	importImageItem := fyne.NewMenuItem("Diagram Image…", func() {
		if h == nil {
			dialog.ShowInformation("Import Image", "No document open.", w)
			return
		}
		open := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if ur == nil {
				l.Info("image import canceled")
				return
			}
			path := ur.URI().Path()
			_ = ur.Close()
			img, derr := decodeImageFile(path)
			if derr != nil {
				l.Error("decode image failed", slog.Any("err", derr))
				dialog.ShowError(derr, w)
				return
			}
			// Keep paths relative when the image sits near the document.
			ref := path
			if rel, rerr := filepath.Rel(filepath.Dir(h.Path), path); rerr == nil && !strings.HasPrefix(rel, "..") {
				ref = rel
			}
			h.Doc.ImagePath = ref
			sheetCanvas.SetDiagram(img)
			sheetCanvas.FitToView()
			status.SetText("Imported diagram: " + filepath.Base(path))
		}, w)
		open.SetFilter(fstorage.NewExtensionFileFilter(imageExtensions))
		open.Show()
	})
	importProofItem := fyne.NewMenuItem("Proof Text…", func() {
		if h == nil {
			dialog.ShowInformation("Import Proof Text", "No document open.", w)
			return
		}
		open := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if ur == nil {
				return
			}
			path := ur.URI().Path()
			_ = ur.Close()
			b, rerr := os.ReadFile(path)
			if rerr != nil {
				dialog.ShowError(rerr, w)
				return
			}
			proof, errs := prooftext.Parse(string(b))
			for _, st := range proof.Steps {
				proofSteps = sheet.AppendStep(proofSteps, st.Because, st.Therefore)
			}
			refreshSteps()
			msg := fmt.Sprintf("Imported %d steps", len(proof.Steps))
			if len(errs) > 0 {
				msg += fmt.Sprintf(" (%d lines skipped)", len(errs))
			}
			status.SetText(msg)
		}, w)
		open.SetFilter(fstorage.NewExtensionFileFilter([]string{".txt", ".proof.txt"}))
		open.Show()
	})
	importMenu := fyne.NewMenu("Import", importImageItem, importProofItem)

	exportPDFItem := fyne.NewMenuItem("Proof Sheet as PDF…", func() {
		if h == nil {
			dialog.ShowInformation("Export PDF", "No document open.", w)
			return
		}
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			outPath := uc.URI().Path()
			_ = uc.Close()
			syncDoc()
			if err := export.ExportProofPDF(h, outPath, export.PDFOptions{IncludeDiagram: true}); err != nil {
				dialog.ShowError(err, w)
			} else {
				dialog.ShowInformation("Export PDF", "Exported to "+outPath, w)
			}
		}, w)
		save.SetFileName("proof.pdf")
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{".pdf"}))
		save.Show()
	})
	exportPNGItem := fyne.NewMenuItem("Annotated Diagram as PNG…", func() {
		if h == nil {
			dialog.ShowInformation("Export PNG", "No document open.", w)
			return
		}
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			outPath := uc.URI().Path()
			_ = uc.Close()
			syncDoc()
			if err := export.ExportProofPNG(h, outPath, export.PNGOptions{Marker: true}); err != nil {
				dialog.ShowError(err, w)
			} else {
				dialog.ShowInformation("Export PNG", "Exported to "+outPath, w)
			}
		}, w)
		save.SetFileName("proof.png")
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{".png"}))
		save.Show()
	})
	exportMenu := fyne.NewMenu("Export", exportPDFItem, exportPNGItem)

	importPackItem := fyne.NewMenuItem("Import Token Pack…", func() {
		open := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if ur == nil {
				return
			}
			path := ur.URI().Path()
			_ = ur.Close()
			installed, ierr := palette.InstallPack(tokensDir, path)
			if ierr != nil {
				dialog.ShowError(ierr, w)
				return
			}
			if extra, lerr := palette.LoadTokenDir(tokensDir); lerr == nil {
				for _, t := range extra {
					pal.Add(t)
				}
				rebuildPalette()
			}
			dialog.ShowInformation("Import Token Pack", fmt.Sprintf("Installed %d token files", installed), w)
		}, w)
		open.SetFilter(fstorage.NewExtensionFileFilter([]string{".zip"}))
		open.Show()
	})
	exportPackItem := fyne.NewMenuItem("Export Tokens as Pack…", func() {
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			outPath := uc.URI().Path()
			_ = uc.Close()
			if !strings.HasSuffix(strings.ToLower(outPath), ".zip") {
				outPath += ".zip"
			}
			if err := palette.ExportTokens(pal.Tokens(), outPath); err != nil {
				dialog.ShowError(err, w)
				return
			}
			dialog.ShowInformation("Export Token Pack", "Exported to "+outPath, w)
		}, w)
		save.SetFileName("tokens-pack.zip")
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{".zip"}))
		save.Show()
	})
	paletteMenu := fyne.NewMenu("Palette", importPackItem, exportPackItem)

	menus := []*fyne.Menu{fileMenu, importMenu, exportMenu, paletteMenu}

	if cfg.General.EnableLibrary {
		browseItem := fyne.NewMenuItem("Browse Library…", func() {
			c := library.NewClient(cfg.Library.BaseURL, token)
			status.SetText("Loading library…")
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				proofs, err := c.ListProofs(ctx)
				fyne.Do(func() {
					if err != nil {
						l.Error("library list failed", slog.Any("err", err))
						dialog.ShowError(err, w)
						status.SetText("Library unavailable.")
						return
					}
					items := make([]string, len(proofs))
					for i, p := range proofs {
						items[i] = fmt.Sprintf("%s — %s (%d steps)", p.Title, p.Author, p.Steps)
					}
					list := widget.NewList(
						func() int { return len(items) },
						func() fyne.CanvasObject { return widget.NewLabel("") },
						func(i widget.ListItemID, o fyne.CanvasObject) { o.(*widget.Label).SetText(items[i]) },
					)
					var d *dialog.CustomDialog
					list.OnSelected = func(id widget.ListItemID) {
						if id < 0 || int(id) >= len(proofs) {
							return
						}
						go func(pid int64) {
							ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
							defer cancel()
							doc, ferr := c.FetchProof(ctx, pid)
							fyne.Do(func() {
								if ferr != nil {
									dialog.ShowError(ferr, w)
									return
								}
								if h == nil {
									h = storage.NewHandle(filepath.Join(os.TempDir(), "library"+storage.ExtProof))
								}
								h.Doc = doc
								loadDocument()
								closeItem.Disabled = false
								d.Hide()
								status.SetText("Fetched proof from library.")
							})
						}(proofs[id].ID)
					}
					d = dialog.NewCustom("Proof Library", "Close", container.NewStack(list), w)
					d.Resize(fyne.NewSize(600, 400))
					d.Show()
					status.SetText(fmt.Sprintf("%d proofs in library", len(proofs)))
				})
			}()
		})
		publishItem := fyne.NewMenuItem("Publish…", func() {
			if h == nil {
				dialog.ShowInformation("Publish", "No document open.", w)
				return
			}
			titleEntry := widget.NewEntry()
			titleEntry.SetText(strings.TrimSuffix(filepath.Base(h.Path), filepath.Ext(h.Path)))
			dialog.NewForm("Publish Proof", "Publish", "Cancel", []*widget.FormItem{
				widget.NewFormItem("Title", titleEntry),
			}, func(ok bool) {
				if !ok {
					return
				}
				syncDoc()
				c := library.NewClient(cfg.Library.BaseURL, token)
				go func(title string, doc domain.Document) {
					ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
					defer cancel()
					_, ver, err := c.PublishProof(ctx, title, doc)
					fyne.Do(func() {
						if err != nil {
							dialog.ShowError(err, w)
							return
						}
						status.SetText(fmt.Sprintf("Published %q (version %d)", title, ver))
					})
				}(strings.TrimSpace(titleEntry.Text), h.Doc)
			}, w).Show()
		})
		menus = append(menus, fyne.NewMenu("Library", browseItem, publishItem))
	}

	aboutItem := fyne.NewMenuItem("About Go Proof Writer", func() {
		exe, _ := os.Executable()
		info := fmt.Sprintf("Go Proof Writer\nVersion: %s\nOS: %s\nArch: %s\nGo: %s\nExecutable: %s",
			version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version(), exe)
		dialog.ShowInformation("About", info, w)
	})
	menus = append(menus, fyne.NewMenu("About", aboutItem))
	w.SetMainMenu(fyne.NewMainMenu(menus...))

	// --- Layout ---
	zoomInBtn := widget.NewButton("+", func() { sheetCanvas.Zoom(true); status.SetText(zoomStatus(sheetCanvas)) })
	zoomOutBtn := widget.NewButton("−", func() { sheetCanvas.Zoom(false); status.SetText(zoomStatus(sheetCanvas)) })
	fitBtn := widget.NewButton("Fit", func() { sheetCanvas.FitToView(); status.SetText(zoomStatus(sheetCanvas)) })
	topBar := container.NewHBox(paletteBar, widget.NewSeparator(), zoomOutBtn, zoomInBtn, fitBtn)

	right := container.NewVBox(
		widget.NewLabel("Annotation"), annotEntry, colorSelect, fontLabel, fontSlider, deleteAnnotBtn,
		widget.NewSeparator(), darkCheck,
		widget.NewSeparator(), widget.NewLabel("Proof Steps"), stepList,
		becauseEntry, thereforeEntry,
		container.NewHBox(addStepBtn, delStepBtn),
	)
	content := container.NewBorder(topBar, status, nil, right, container.NewStack(sheetCanvas))
	w.SetContent(content)

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		if indexDB != nil {
			_ = indexDB.Close()
		}
		w.Close()
	})

	if docPath != "" {
		hh, err := storage.Open(docPath)
		if err != nil {
			l.Error("auto-open failed", slog.Any("err", err))
			// not fatal; continue with an empty editor
		} else {
			h = hh
			loadDocument()
			closeItem.Disabled = false
		}
	}

	w.ShowAndRun()
	return nil
}

func zoomStatus(sc *SheetCanvas) string {
	return "Zoom " + strconv.Itoa(int(sc.Scale()*100+0.5)) + "%"
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// SheetCanvas renders the diagram image with annotation labels on top.
// Supports pan with mouse drag, wheel zoom in fixed steps, tap to select
// or insert, and dragging the selected annotation.
type SheetCanvas struct {
	widget.BaseWidget
	store *sheet.Store
	view  viewport.View
	// Pan offset in screen pixels.
	offsetX float32
	offsetY float32
	dark    bool

	diagram image.Image

	dragging   bool
	dragID     string
	dragStart  viewport.Pt // sheet coords at drag start
	dragOrigin viewport.Pt // annotation position at drag start

	OnSelect   func(id string)
	OnTapEmpty func(pos viewport.Pt)
	OnMove     func(id string, pos viewport.Pt)
}

func NewSheetCanvas(store *sheet.Store) *SheetCanvas {
	sc := &SheetCanvas{store: store, view: viewport.NewView()}
	sc.ExtendBaseWidget(sc)
	return sc
}

// SetDiagram installs a decoded image as the canvas background and records
// its natural size for the geometry mapping.
func (s *SheetCanvas) SetDiagram(img image.Image) {
	s.diagram = img
	b := img.Bounds()
	s.view.SetImage(float32(b.Dx()), float32(b.Dy()))
	s.Refresh()
}

// ClearDiagram removes the background image; the scale resets to 1.
func (s *SheetCanvas) ClearDiagram() {
	s.diagram = nil
	s.view.ClearImage()
	s.offsetX, s.offsetY = 0, 0
	s.Refresh()
}

// FitToView recomputes the fit scale for the current widget size.
func (s *SheetCanvas) FitToView() {
	sz := s.Size()
	s.view.Resize(float32(sz.Width), float32(sz.Height))
	if s.view.HasImage() {
		s.view.Scale = viewport.FitScale(s.view.NaturalW, s.view.NaturalH, float32(sz.Width), float32(sz.Height))
	} else {
		s.view.Scale = 1
	}
	s.offsetX, s.offsetY = 0, 0
	s.Refresh()
}

// Zoom steps the scale up or down around the view center.
func (s *SheetCanvas) Zoom(in bool) {
	if in {
		s.view.Scale = viewport.ZoomIn(s.view.Scale)
	} else {
		s.view.Scale = viewport.ZoomOut(s.view.Scale)
	}
	s.Refresh()
}

// Scale reports the current zoom factor.
func (s *SheetCanvas) Scale() float32 { return s.view.Scale }

// SetDarkMode switches the canvas background palette.
func (s *SheetCanvas) SetDarkMode(dark bool) {
	s.dark = dark
	s.Refresh()
}

// Coordinate helpers: sheet <-> screen mapping.
func (s *SheetCanvas) originAndScale() (cx, cy, scale float32) {
	size := s.Size()
	scaledW, scaledH := s.view.ImageSize()
	cx = float32(size.Width)/2 - scaledW/2 + s.offsetX
	cy = float32(size.Height)/2 - scaledH/2 + s.offsetY
	return cx, cy, s.view.Scale
}

func (s *SheetCanvas) toScreen(pt viewport.Pt) fyne.Position {
	cx, cy, sc := s.originAndScale()
	return fyne.NewPos(cx+pt.X*sc, cy+pt.Y*sc)
}

func (s *SheetCanvas) toSheet(pos fyne.Position) viewport.Pt {
	cx, cy, sc := s.originAndScale()
	if sc == 0 {
		sc = 1
	}
	return viewport.Pt{X: (pos.X - cx) / sc, Y: (pos.Y - cy) / sc}
}

// hitTest returns the topmost annotation whose label box contains the
// sheet-space point, or "" when nothing is hit. The box is estimated from
// the font size since Fyne text measurement needs a live canvas.
func (s *SheetCanvas) hitTest(pt viewport.Pt) string {
	anns := s.store.Annotations()
	for i := len(anns) - 1; i >= 0; i-- {
		a := anns[i]
		fs := float32(domain.ClampFontSize(a.FontSize))
		w := fs * 0.6 * float32(len([]rune(a.Text)))
		if w < fs {
			w = fs
		}
		if pt.X >= a.X-4 && pt.X <= a.X+w+4 && pt.Y >= a.Y-fs && pt.Y <= a.Y+fs*0.4 {
			return a.ID
		}
	}
	return ""
}

// Tapped selects the annotation under the cursor or reports an empty tap.
func (s *SheetCanvas) Tapped(e *fyne.PointEvent) {
	pt := s.toSheet(e.Position)
	if id := s.hitTest(pt); id != "" {
		if s.OnSelect != nil {
			s.OnSelect(id)
		}
		return
	}
	s.store.ClearSelection()
	if s.OnTapEmpty != nil {
		s.OnTapEmpty(pt)
	}
	s.Refresh()
}

// Dragged moves the selected annotation when the drag starts on it,
// otherwise pans the view.
func (s *SheetCanvas) Dragged(e *fyne.DragEvent) {
	if !s.dragging {
		s.dragging = true
		pt := s.toSheet(e.Position)
		if id, ok := s.store.Selected(); ok {
			if hit := s.hitTest(pt); hit == id {
				s.dragID = id
				s.dragStart = pt
				if a, found := s.store.Get(id); found {
					s.dragOrigin = viewport.Pt{X: a.X, Y: a.Y}
				}
			}
		}
	}
	if s.dragID != "" {
		cur := s.toSheet(e.Position)
		next := viewport.Pt{
			X: s.dragOrigin.X + (cur.X - s.dragStart.X),
			Y: s.dragOrigin.Y + (cur.Y - s.dragStart.Y),
		}
		s.store.Move(s.dragID, next)
		if s.OnMove != nil {
			s.OnMove(s.dragID, next)
		}
	} else {
		s.offsetX += e.Dragged.DX
		s.offsetY += e.Dragged.DY
	}
	s.Refresh()
}

func (s *SheetCanvas) DragEnd() {
	s.dragging = false
	s.dragID = ""
}

// Scrolled zooms in fixed steps; Fyne v2.6 does not expose modifier keys
// on ScrollEvent, so the wheel always zooms.
func (s *SheetCanvas) Scrolled(e *fyne.ScrollEvent) {
	s.Zoom(e.Scrolled.DY > 0)
}

// CreateRenderer builds the background, image, and label objects.
func (s *SheetCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 245, G: 245, B: 245, A: 255})
	img := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	img.FillMode = canvas.ImageFillStretch
	img.Hide()
	sel := canvas.NewRectangle(color.RGBA{})
	sel.StrokeColor = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	sel.StrokeWidth = 1
	sel.Hide()
	return &sheetCanvasRenderer{sc: s, bg: bg, img: img, sel: sel,
		objects: []fyne.CanvasObject{bg, img, sel}}
}

func (s *SheetCanvas) MinSize() fyne.Size { return fyne.NewSize(800, 600) }

type sheetCanvasRenderer struct {
	sc      *SheetCanvas
	objects []fyne.CanvasObject
	bg      *canvas.Rectangle
	img     *canvas.Image
	sel     *canvas.Rectangle
	labels  []*canvas.Text
}

func (r *sheetCanvasRenderer) Destroy()                     {}
func (r *sheetCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *sheetCanvasRenderer) MinSize() fyne.Size           { return r.sc.MinSize() }
func (r *sheetCanvasRenderer) Refresh()                     { r.Layout(r.sc.Size()); canvas.Refresh(r.sc) }

func (r *sheetCanvasRenderer) Layout(size fyne.Size) {
	if r.sc.dark {
		r.bg.FillColor = color.RGBA{R: 30, G: 30, B: 34, A: 255}
	} else {
		r.bg.FillColor = color.RGBA{R: 245, G: 245, B: 245, A: 255}
	}
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))

	r.sc.view.Resize(float32(size.Width), float32(size.Height))
	cx, cy, scale := r.sc.originAndScale()

	if r.sc.diagram != nil {
		if r.img.Image != r.sc.diagram {
			r.img.Image = r.sc.diagram
			r.img.Refresh()
		}
		dw, dh := r.sc.view.ImageSize()
		r.img.Resize(fyne.NewSize(dw, dh))
		r.img.Move(fyne.NewPos(cx, cy))
		r.img.Show()
	} else {
		r.img.Hide()
	}

	anns := r.sc.store.Annotations()
	// Grow the label pool to match the annotation count.
	for len(r.labels) < len(anns) {
		t := canvas.NewText("", color.Black)
		r.labels = append(r.labels, t)
		// Insert before the selection rect so it stays on top.
		objs := make([]fyne.CanvasObject, 0, len(r.objects)+1)
		objs = append(objs, r.objects[:len(r.objects)-1]...)
		objs = append(objs, t, r.sel)
		r.objects = objs
	}
	selID, hasSel := r.sc.store.Selected()
	r.sel.Hide()
	for i, t := range r.labels {
		if i >= len(anns) {
			t.Hide()
			continue
		}
		a := anns[i]
		t.Text = a.Text
		t.Color = labelColor(a.Color, r.sc.dark)
		fs := float32(domain.ClampFontSize(a.FontSize)) * scale
		if fs < 4 {
			fs = 4
		}
		t.TextSize = fs
		pos := r.sc.toScreen(viewport.Pt{X: a.X, Y: a.Y})
		// Anchor the stored position at the text baseline.
		t.Move(fyne.NewPos(pos.X, pos.Y-fs))
		t.Show()
		t.Refresh()
		if hasSel && a.ID == selID {
			w := fs * 0.6 * float32(len([]rune(a.Text)))
			if w < fs {
				w = fs
			}
			r.sel.Resize(fyne.NewSize(w+8, fs+8))
			r.sel.Move(fyne.NewPos(pos.X-4, pos.Y-fs-4))
			r.sel.Show()
		}
	}
}

func labelColor(hex string, dark bool) color.Color {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) == 6 {
		if v, err := strconv.ParseUint(h, 16, 32); err == nil {
			return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
		}
	}
	if dark {
		return color.RGBA{R: 230, G: 230, B: 230, A: 255}
	}
	return color.Black
}
