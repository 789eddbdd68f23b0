package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.UIPort != 8765 {
		t.Fatalf("UIPort = %d, want 8765", cfg.UIPort)
	}
	if cfg.BackendURL != "http://127.0.0.1:8000" {
		t.Fatalf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.HealthInterval() != 10*time.Second {
		t.Fatalf("HealthInterval() = %v, want 10s", cfg.HealthInterval())
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"ui_port": 9001, "backend_url": "http://localhost:9000"}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.UIPort != 9001 {
		t.Fatalf("UIPort = %d, want 9001", cfg.UIPort)
	}
	if cfg.BackendURL != "http://localhost:9000" {
		t.Fatalf("BackendURL = %q", cfg.BackendURL)
	}
	// Unset fields keep defaults
	if cfg.UIBind != DefaultConfig().UIBind {
		t.Fatalf("UIBind = %q, want default", cfg.UIBind)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	if err := os.WriteFile(configPath, []byte(`{"ui_port": 9000}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("VACAY_UI_PORT", "9100")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.UIPort != 9100 {
		t.Fatalf("UIPort = %d, want 9100", cfg.UIPort)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte("VACAY_BACKEND_URL=http://10.0.0.2:8000\n"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	// Register cleanup so the variable set by the .env file is removed afterwards.
	t.Setenv("VACAY_BACKEND_URL", "")
	os.Unsetenv("VACAY_BACKEND_URL")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BackendURL != "http://10.0.0.2:8000" {
		t.Fatalf("BackendURL = %q, want value from .env", cfg.BackendURL)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"VACAY_BACKEND_URL": " http://example:1 ",
		"VACAY_UI_PORT":     "10",
		"VACAY_UI_BIND":     "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	if err := ApplyEnv(cfg, lookup); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.BackendURL != "http://example:1" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.UIPort != 10 {
		t.Errorf("UIPort = %d, want 10", cfg.UIPort)
	}
	if cfg.UIBind != "127.0.0.1" {
		t.Errorf("UIBind = %q, empty env value should not override", cfg.UIBind)
	}
}

func TestApplyEnv_InvalidInt(t *testing.T) {
	for _, v := range []string{"abc", "0", "-3"} {
		lookup := func(k string) (string, bool) {
			if k == "VACAY_UI_PORT" {
				return v, true
			}
			return "", false
		}
		if err := ApplyEnv(DefaultConfig(), lookup); err == nil {
			t.Errorf("ApplyEnv(%q) expected error", v)
		}
	}
}

func TestMerge(t *testing.T) {
	base := &Config{
		BackendURL:    "http://base",
		UIPort:        8765,
		DisabledTools: []string{"itinerary_plan", " itinerary_delete "},
	}
	overlay := &Config{
		UIPort:        20,
		NoOpenPDF:     true,
		DisabledTools: []string{"itinerary_delete", "", "itinerary_list"},
	}

	got := Merge(base, overlay)

	if got.BackendURL != "http://base" {
		t.Errorf("BackendURL = %q, want base value", got.BackendURL)
	}
	if got.UIPort != 20 {
		t.Errorf("UIPort = %d, want 20", got.UIPort)
	}
	if !got.NoOpenPDF {
		t.Error("NoOpenPDF should be true")
	}
	want := []string{"itinerary_plan", "itinerary_delete", "itinerary_list"}
	if len(got.DisabledTools) != len(want) {
		t.Fatalf("DisabledTools = %v, want %v", got.DisabledTools, want)
	}
	for i := range want {
		if got.DisabledTools[i] != want[i] {
			t.Errorf("DisabledTools[%d] = %q, want %q", i, got.DisabledTools[i], want[i])
		}
	}
}

func TestMerge_EmptyArraysStayNil(t *testing.T) {
	got := Merge(&Config{}, &Config{DisabledTools: []string{" "}})
	if got.DisabledTools != nil {
		t.Errorf("DisabledTools = %v, want nil", got.DisabledTools)
	}
}

func TestLoad_IgnoresRetiredHistoryKeys(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	if err := os.WriteFile(configPath, []byte(`{"history_limit": 80, "preview_chars": 500, "ui_port": 9002}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.UIPort != 9002 {
		t.Fatalf("UIPort = %d, want 9002", cfg.UIPort)
	}
}
