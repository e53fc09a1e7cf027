/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "goproofwriter/internal/log"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 1
)

// IndexPath returns the full path to the user-scope index database file.
func IndexPath(dataDir string) string {
	return filepath.Join(dataDir, IndexFileName)
}

// InitOrOpenIndex ensures the user-scope SQLite index exists under dataDir,
// opens the database, enables WAL mode, and ensures the schema is current.
// The returned *sql.DB is ready for use; callers close it when done.
func InitOrOpenIndex(dataDir string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("dir", dataDir),
	)
	if strings.TrimSpace(dataDir) == "" {
		return nil, errors.New("data dir is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		l.Error("create data dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	uriPath := filepath.ToSlash(IndexPath(dataDir))
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	return db, nil
}

func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS recent (
			path        TEXT PRIMARY KEY,
			last_opened TEXT NOT NULL,
			annotations INTEGER NOT NULL DEFAULT 0,
			steps       INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS steps (
			doc_path  TEXT NOT NULL,
			step_id   TEXT NOT NULL,
			position  INTEGER NOT NULL,
			because   TEXT NOT NULL,
			therefore TEXT NOT NULL,
			PRIMARY KEY (doc_path, step_id)
		)`,
		`CREATE TABLE IF NOT EXISTS thumbs (
			doc_path TEXT PRIMARY KEY,
			png      BLOB NOT NULL,
			width    INTEGER NOT NULL,
			height   INTEGER NOT NULL,
			updated  TEXT NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		fmt.Sprintf("%d", schemaVersion))
	if err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

// TouchRecent upserts the document into the recent list and reindexes its
// proof steps for search. Called after every successful open and save.
func TouchRecent(ctx context.Context, db *sql.DB, h *DocumentHandle) error {
	if h == nil {
		return errors.New("nil DocumentHandle")
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO recent(path, last_opened, annotations, steps) VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET last_opened=excluded.last_opened,
			annotations=excluded.annotations, steps=excluded.steps`,
		h.Path, now, len(h.Doc.Annotations), len(h.Doc.ProofSteps)); err != nil {
		return fmt.Errorf("upsert recent: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM steps WHERE doc_path = ?`, h.Path); err != nil {
		return fmt.Errorf("clear steps: %w", err)
	}
	for i, st := range h.Doc.ProofSteps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO steps(doc_path, step_id, position, because, therefore) VALUES (?, ?, ?, ?, ?)`,
			h.Path, st.ID, i, st.Because, st.Therefore); err != nil {
			return fmt.Errorf("index step: %w", err)
		}
	}
	return tx.Commit()
}

// RecentEntry is one row of the recent-projects list.
type RecentEntry struct {
	Path        string
	LastOpened  time.Time
	Annotations int
	Steps       int
}

// ListRecent returns up to limit recently opened documents, newest first.
func ListRecent(ctx context.Context, db *sql.DB, limit int) ([]RecentEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.QueryContext(ctx,
		`SELECT path, last_opened, annotations, steps FROM recent ORDER BY last_opened DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []RecentEntry
	for rows.Next() {
		var e RecentEntry
		var ts string
		if err := rows.Scan(&e.Path, &ts, &e.Annotations, &e.Steps); err != nil {
			return nil, fmt.Errorf("scan recent: %w", err)
		}
		e.LastOpened, _ = time.Parse(time.RFC3339, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// RemoveRecent drops a document from the recent list and its indexed steps.
func RemoveRecent(ctx context.Context, db *sql.DB, path string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM recent WHERE path = ?`, path); err != nil {
		return fmt.Errorf("remove recent: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM steps WHERE doc_path = ?`, path); err != nil {
		return fmt.Errorf("remove steps: %w", err)
	}
	_, err := db.ExecContext(ctx, `DELETE FROM thumbs WHERE doc_path = ?`, path)
	return err
}

// StepHit is one proof-step search result.
type StepHit struct {
	DocPath   string
	StepID    string
	Position  int
	Because   string
	Therefore string
}

// SearchSteps finds proof steps whose justification or conclusion contains
// the query text (case-insensitive substring match).
func SearchSteps(ctx context.Context, db *sql.DB, query string, limit int) ([]StepHit, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	like := "%" + strings.ToLower(q) + "%"
	rows, err := db.QueryContext(ctx,
		`SELECT doc_path, step_id, position, because, therefore FROM steps
		 WHERE lower(because) LIKE ? OR lower(therefore) LIKE ?
		 ORDER BY doc_path, position LIMIT ?`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("search steps: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []StepHit
	for rows.Next() {
		var h StepHit
		if err := rows.Scan(&h.DocPath, &h.StepID, &h.Position, &h.Because, &h.Therefore); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// SaveThumbnail stores the PNG-encoded diagram thumbnail for a document.
func SaveThumbnail(ctx context.Context, db *sql.DB, docPath string, png []byte, w, h int) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO thumbs(doc_path, png, width, height, updated) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(doc_path) DO UPDATE SET png=excluded.png, width=excluded.width,
			height=excluded.height, updated=excluded.updated`,
		docPath, png, w, h, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save thumbnail: %w", err)
	}
	return nil
}

// GetThumbnail returns the stored thumbnail PNG or sql.ErrNoRows when absent.
func GetThumbnail(ctx context.Context, db *sql.DB, docPath string) ([]byte, int, int, error) {
	var png []byte
	var w, h int
	err := db.QueryRowContext(ctx,
		`SELECT png, width, height FROM thumbs WHERE doc_path = ?`, docPath).Scan(&png, &w, &h)
	if err != nil {
		return nil, 0, 0, err
	}
	return png, w, h, nil
}
