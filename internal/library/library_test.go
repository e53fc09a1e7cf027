/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package library

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"goproofwriter/internal/domain"
)

func TestTokenSignVerify(t *testing.T) {
	secret := "unit-secret"
	tok, err := signToken(secret, "alice", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}
	sub, err := verifyToken(secret, tok)
	if err != nil {
		t.Fatalf("verifyToken: %v", err)
	}
	if sub != "alice" {
		t.Errorf("subject = %q, want alice", sub)
	}

	if _, err := verifyToken("other-secret", tok); err == nil {
		t.Error("token verified with wrong secret")
	}
	if _, err := verifyToken(secret, "not.a.token"); err == nil {
		t.Error("malformed token verified")
	}

	expired, err := signToken(secret, "bob", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}
	if _, err := verifyToken(secret, expired); err == nil {
		t.Error("expired token verified")
	}
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("0001_init.sql")
	if err != nil || v != 1 {
		t.Fatalf("parseVersion = %d, %v", v, err)
	}
	if _, err := parseVersion("init.sql"); err == nil {
		t.Error("parseVersion accepted a name without a version")
	}
}

func TestWithAuthRejectsMissingToken(t *testing.T) {
	h := withAuth("secret", func(w http.ResponseWriter, r *http.Request, sub string) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/api/proofs", nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestClientListAndFetch(t *testing.T) {
	doc := domain.NewDocument()
	doc.Annotations = append(doc.Annotations, domain.Annotation{
		ID: "a1", X: 10, Y: 20, Text: "∠A", Color: "#0000FF", FontSize: 28,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/proofs", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("Authorization = %q", got)
		}
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, []ProofEntry{
				{ID: 7, Title: "Alternate angles", Author: "dev", Steps: 2, Version: 3},
			})
		case http.MethodPost:
			var req struct {
				Title    string          `json:"title"`
				Document json.RawMessage `json:"document"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode publish body: %v", err)
			}
			if req.Title != "Alternate angles" {
				t.Errorf("published title = %q", req.Title)
			}
			writeJSON(w, http.StatusOK, map[string]any{"id": 7, "version": 4})
		}
	})
	mux.HandleFunc("/api/proofs/7/document", func(w http.ResponseWriter, r *http.Request) {
		b, _ := json.Marshal(doc)
		writeJSON(w, http.StatusOK, map[string]any{
			"proof_id": 7, "version": 3,
			"updated_at": time.Now().UTC().Format(time.RFC3339),
			"document":   json.RawMessage(b),
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok123")
	ctx := context.Background()

	list, err := c.ListProofs(ctx)
	if err != nil {
		t.Fatalf("ListProofs: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Alternate angles" {
		t.Fatalf("list = %+v", list)
	}

	got, err := c.FetchProof(ctx, 7)
	if err != nil {
		t.Fatalf("FetchProof: %v", err)
	}
	if len(got.Annotations) != 1 || got.Annotations[0].Text != "∠A" {
		t.Fatalf("fetched doc = %+v", got)
	}

	id, ver, err := c.PublishProof(ctx, "Alternate angles", doc)
	if err != nil {
		t.Fatalf("PublishProof: %v", err)
	}
	if id != 7 || ver != 4 {
		t.Errorf("publish result = (%d, %d), want (7, 4)", id, ver)
	}
}

func TestClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "")
	if _, err := c.ListProofs(context.Background()); err == nil {
		t.Fatal("expected error on 401")
	}
}
