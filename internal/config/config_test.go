/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"testing"
)

// fakeStore stubs the OS keyring for tests.
type fakeStore struct {
	vals map[string]string
	err  error
}

func (f *fakeStore) key(service, key string) string { return service + "/" + key }
func (f *fakeStore) Get(service, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.vals[f.key(service, key)]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}
func (f *fakeStore) Set(service, key, value string) error {
	if f.err != nil {
		return f.err
	}
	f.vals[f.key(service, key)] = value
	return nil
}
func (f *fakeStore) Delete(service, key string) error {
	delete(f.vals, f.key(service, key))
	return nil
}

func withFakeStore(t *testing.T) *fakeStore {
	t.Helper()
	fs := &fakeStore{vals: map[string]string{}}
	old := tokenStore
	tokenStore = fs
	t.Cleanup(func() { tokenStore = old })
	return fs
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.ConfigVersion != 1 {
		t.Fatalf("config version: %d", cfg.ConfigVersion)
	}
	if cfg.General.Theme != "system" || cfg.General.TelemetryOptIn || cfg.General.EnableLibrary {
		t.Fatalf("general defaults: %+v", cfg.General)
	}
	if cfg.Library.TimeoutMs != 15000 {
		t.Fatalf("library defaults: %+v", cfg.Library)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Fatalf("logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	withFakeStore(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvLibraryURL, "https://proofs.example.org")
	t.Setenv(EnvLibraryTimeoutMs, "2500")
	t.Setenv(EnvEnableLibrary, "yes")
	t.Setenv(EnvLogLevel, "DEBUG")

	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Library.BaseURL != "https://proofs.example.org" {
		t.Fatalf("env URL override not applied: %q", cfg.Library.BaseURL)
	}
	if cfg.Library.TimeoutMs != 2500 {
		t.Fatalf("env timeout override not applied: %d", cfg.Library.TimeoutMs)
	}
	if !cfg.General.EnableLibrary {
		t.Fatalf("env enable_library override not applied")
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("env log level override not applied: %q", cfg.Logging.Level)
	}
}

func TestSaveAndLoadRoundTripWithToken(t *testing.T) {
	fs := withFakeStore(t)
	t.Setenv("HOME", t.TempDir())

	cfg := Defaults()
	cfg.General.Theme = "dark"
	cfg.Library.BaseURL = "http://lib.local:9000"
	if err := Save(cfg, "secret-token"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(fs.vals) != 1 {
		t.Fatalf("token not persisted to keyring: %+v", fs.vals)
	}

	got, tok, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.General.Theme != "dark" || got.Library.BaseURL != "http://lib.local:9000" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if tok != "secret-token" {
		t.Fatalf("token round trip mismatch: %q", tok)
	}

	if err := ClearToken(); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if len(fs.vals) != 0 {
		t.Fatalf("token not removed: %+v", fs.vals)
	}
}

func TestEnvBool(t *testing.T) {
	for _, v := range []string{"1", "true", "on", "yes", "TRUE", "On"} {
		if !envBool(v) {
			t.Fatalf("envBool(%q) = false", v)
		}
	}
	for _, v := range []string{"0", "false", "off", "no", ""} {
		if envBool(v) {
			t.Fatalf("envBool(%q) = true", v)
		}
	}
}
