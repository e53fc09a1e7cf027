/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package palette

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	applog "goproofwriter/internal/log"
)

// Token packs are .zip archives carrying YAML token files under tokens/.
// A human-readable manifest sits at the archive root.
const (
	packManifestName = "tokenpack.manifest.txt"
	tokensDirName    = "tokens"
)

// packFile is the YAML document stored per token file in a pack.
type packFile struct {
	Tokens []Token `yaml:"tokens"`
}

// ExportTokens writes the given tokens as a token pack zip at destZipPath.
// The archive holds a manifest plus a single tokens/tokens.yaml file.
func ExportTokens(tokens []Token, destZipPath string) error {
	l := applog.WithOperation(applog.WithComponent("palette"), "export")
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)
	defer func() { _ = zw.Close() }()

	manifest := fmt.Sprintf("Go Proof Writer Token Pack\nCreated: %s\nTokens: %d\n",
		time.Now().Format(time.RFC3339), len(tokens))
	w, err := zw.Create(packManifestName)
	if err != nil {
		return fmt.Errorf("add manifest: %w", err)
	}
	if _, err := w.Write([]byte(manifest)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	body, err := yaml.Marshal(packFile{Tokens: tokens})
	if err != nil {
		return fmt.Errorf("marshal tokens: %w", err)
	}
	tw, err := zw.Create(tokensDirName + "/tokens.yaml")
	if err != nil {
		return fmt.Errorf("add tokens: %w", err)
	}
	if _, err := tw.Write(body); err != nil {
		return fmt.Errorf("write tokens: %w", err)
	}
	l.Info("token pack exported", slog.Int("tokens", len(tokens)), slog.String("zip", destZipPath))
	return nil
}

// InstallPack extracts a token pack zip into tokensDir. Existing files are
// not overwritten; skipped files are not counted. Returns the number of
// token files installed.
func InstallPack(tokensDir string, packZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("palette"), "install").With(slog.String("dir", tokensDir))
	if strings.TrimSpace(tokensDir) == "" {
		return 0, errors.New("tokensDir is required")
	}
	if strings.TrimSpace(packZipPath) == "" {
		return 0, errors.New("packZipPath is required")
	}
	if err := os.MkdirAll(tokensDir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure tokens dir: %w", err)
	}

	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		name := f.Name
		if name == packManifestName || f.FileInfo().IsDir() {
			continue
		}
		base := filepath.Base(filepath.FromSlash(name))
		ext := strings.ToLower(filepath.Ext(base))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		targetPath := filepath.Join(tokensDir, base)
		if _, err := os.Stat(targetPath); err == nil {
			l.Warn("skip existing file", slog.String("path", targetPath))
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return installed, err
		}
		out, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			_ = rc.Close()
			return installed, err
		}
		if _, err := io.Copy(out, rc); err != nil {
			_ = out.Close()
			_ = rc.Close()
			return installed, err
		}
		_ = out.Close()
		_ = rc.Close()
		installed++
	}
	l.Info("token pack installed", slog.Int("files", installed))
	return installed, nil
}

// LoadTokenDir reads every YAML token file in dir and returns the combined
// token list in stable file order. A missing dir yields an empty list.
func LoadTokenDir(dir string) ([]Token, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read tokens dir: %w", err)
	}
	var names []string
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []Token
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read token file %s: %w", name, err)
		}
		var pf packFile
		if err := yaml.Unmarshal(b, &pf); err != nil {
			return nil, fmt.Errorf("parse token file %s: %w", name, err)
		}
		out = append(out, pf.Tokens...)
	}
	return out, nil
}
