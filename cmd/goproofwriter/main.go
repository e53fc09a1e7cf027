/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"goproofwriter/internal/config"
	"goproofwriter/internal/crash"
	"goproofwriter/internal/export"
	"goproofwriter/internal/library"
	applog "goproofwriter/internal/log"
	"goproofwriter/internal/prooftext"
	"goproofwriter/internal/sheet"
	"goproofwriter/internal/storage"
	"goproofwriter/internal/ui"
	"goproofwriter/internal/version"
)

func usage() {
	fmt.Println("Go Proof Writer — geometry proof annotation")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  goproofwriter version|-v|--version          Show version")
	fmt.Println("  goproofwriter new <file>                    Create a new proof document at <file>")
	fmt.Println("  goproofwriter open <file>                   Open a document and print a summary")
	fmt.Println("  goproofwriter import-text <file> <txt>      Append proof steps parsed from a text file")
	fmt.Println("  goproofwriter export-pdf <file> [out.pdf]   Export the proof sheet as PDF")
	fmt.Println("  goproofwriter export-png <file> [out.png]   Export the annotated diagram as PNG")
	fmt.Println("  goproofwriter recent                        List recently opened documents")
	fmt.Println("  goproofwriter search <query>                Search proof steps across recent documents")
	fmt.Println("  goproofwriter serve                         Run the shared proof-library server")
	fmt.Println("  goproofwriter ui [<file>]                   Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var h *storage.DocumentHandle
	defer func() { crash.Recover(h) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Go Proof Writer")
			fmt.Println(version.String())
			return
		case "new":
			if len(args) < 3 {
				fmt.Println("new requires <file>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			l.Info("new document", slog.String("path", abs))
			h = storage.NewHandle(abs)
			h.Doc.ProofSteps = sheet.SeedSteps(h.Doc.ProofSteps)
			if err := storage.Save(h); err != nil {
				l.Error("save failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			touchRecent(h)
			fmt.Println("Created", h.Path)
			return
		case "open":
			if len(args) < 3 {
				fmt.Println("open requires <file>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			l.Info("open document", slog.String("path", abs))
			hh, err := storage.Open(abs)
			if err != nil {
				l.Error("open failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			h = hh
			touchRecent(h)
			fmt.Println("Opened:", h.Path)
			if h.Doc.ImagePath != "" {
				fmt.Println("Diagram:", h.Doc.ImagePath)
			}
			fmt.Printf("Annotations: %d\n", len(h.Doc.Annotations))
			fmt.Printf("Proof steps: %d\n", len(h.Doc.ProofSteps))
			for i, st := range h.Doc.ProofSteps {
				fmt.Printf("  %d. Because: %s\n     Therefore: %s\n", i+1, st.Because, st.Therefore)
			}
			return
		case "import-text":
			if len(args) < 4 {
				fmt.Println("import-text requires <file> and <txt>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			hh, err := storage.Open(abs)
			if err != nil {
				l.Error("open failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			h = hh
			data, err := os.ReadFile(args[3])
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			proof, errs := prooftext.Parse(string(data))
			for _, st := range proof.Steps {
				h.Doc.ProofSteps = sheet.AppendStep(h.Doc.ProofSteps, st.Because, st.Therefore)
			}
			for _, pe := range errs {
				fmt.Printf("warning: line %d: %s\n", pe.Line, pe.Message)
			}
			if err := storage.Save(h); err != nil {
				l.Error("save failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			touchRecent(h)
			fmt.Printf("Imported %d steps into %s\n", len(proof.Steps), h.Path)
			return
		case "export-pdf", "export-png":
			if len(args) < 3 {
				fmt.Printf("%s requires <file>\n", args[1])
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			hh, err := storage.Open(abs)
			if err != nil {
				l.Error("open failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			h = hh
			base := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
			var out string
			if len(args) >= 4 {
				out = args[3]
			}
			if args[1] == "export-pdf" {
				if out == "" {
					out = base + ".pdf"
				}
				err = export.ExportProofPDF(h, out, export.PDFOptions{IncludeDiagram: true})
			} else {
				if out == "" {
					out = base + ".png"
				}
				err = export.ExportProofPNG(h, out, export.PNGOptions{})
			}
			if err != nil {
				l.Error("export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Exported", out)
			return
		case "recent":
			db, err := openIndex()
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			defer func() { _ = db.Close() }()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			entries, err := storage.ListRecent(ctx, db, 20)
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			if len(entries) == 0 {
				fmt.Println("No recent documents.")
				return
			}
			for _, e := range entries {
				fmt.Printf("%s  %s  (%d annotations, %d steps)\n",
					e.LastOpened.Format("2006-01-02 15:04"), e.Path, e.Annotations, e.Steps)
			}
			return
		case "search":
			if len(args) < 3 {
				fmt.Println("search requires <query>")
				usage()
				os.Exit(2)
			}
			db, err := openIndex()
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			defer func() { _ = db.Close() }()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			hits, err := storage.SearchSteps(ctx, db, strings.Join(args[2:], " "), 50)
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			if len(hits) == 0 {
				fmt.Println("No matching proof steps.")
				return
			}
			for _, hit := range hits {
				fmt.Printf("%s  step %d\n  Because: %s\n  Therefore: %s\n",
					hit.DocPath, hit.Position+1, hit.Because, hit.Therefore)
			}
			return
		case "serve":
			l.Info("starting library server")
			if err := library.Start(); err != nil {
				l.Error("server failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "ui":
			var file string
			if len(args) >= 3 {
				file = args[2]
			}
			if err := ui.Run(file); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}

func touchRecent(h *storage.DocumentHandle) {
	db, err := openIndex()
	if err != nil {
		return
	}
	defer func() { _ = db.Close() }()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = storage.TouchRecent(ctx, db, h)
}

func openIndex() (*sql.DB, error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, err
	}
	return storage.InitOrOpenIndex(dataDir)
}
