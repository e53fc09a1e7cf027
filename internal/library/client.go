/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package library

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"goproofwriter/internal/domain"
	"goproofwriter/internal/storage"
)

// Client is a minimal HTTP client for the proof-library API. The desktop
// app uses it under the enable_library feature flag.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new library client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	b := strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd *bytes.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// ProofEntry is a minimal projection for listing published proofs.
type ProofEntry struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Steps     int       `json:"steps"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// ListProofs returns the published proofs, newest first.
func (c *Client) ListProofs(ctx context.Context) ([]ProofEntry, error) {
	var list []ProofEntry
	if err := c.doJSON(ctx, http.MethodGet, "/api/proofs", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// documentEnvelope matches the server response for a proof's latest document.
type documentEnvelope struct {
	ProofID   int64           `json:"proof_id"`
	Version   int64           `json:"version"`
	UpdatedAt string          `json:"updated_at"`
	Document  json.RawMessage `json:"document"`
}

// FetchProof downloads a published proof and validates it like a local file.
func (c *Client) FetchProof(ctx context.Context, proofID int64) (domain.Document, error) {
	var env documentEnvelope
	path := fmt.Sprintf("/api/proofs/%d/document", proofID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &env); err != nil {
		return domain.Document{}, err
	}
	return storage.Deserialize(env.Document)
}

// PublishProof uploads the document under the given title. The server keys
// proofs by (title, author); republishing bumps the stored version.
func (c *Client) PublishProof(ctx context.Context, title string, doc domain.Document) (int64, int64, error) {
	data, err := storage.Serialize(doc)
	if err != nil {
		return 0, 0, err
	}
	body, err := json.Marshal(map[string]any{
		"title":    title,
		"document": json.RawMessage(data),
	})
	if err != nil {
		return 0, 0, err
	}
	var resp struct {
		ID      int64 `json:"id"`
		Version int64 `json:"version"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/proofs", body, &resp); err != nil {
		return 0, 0, err
	}
	return resp.ID, resp.Version, nil
}
