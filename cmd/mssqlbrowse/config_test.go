package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadScanConfig(t *testing.T) {
	path := writeConfig(t, `
targets = ["sql01.corp.local", "192.0.2.10"]
broadcast = "192.0.2.255"
timeout_seconds = 3
listen_seconds = 10
`)

	config, err := loadScanConfig(path)
	if err != nil {
		t.Fatalf("loadScanConfig: %v", err)
	}
	if want := []string{"sql01.corp.local", "192.0.2.10"}; !reflect.DeepEqual(config.Targets, want) {
		t.Errorf("Targets = %v, want %v", config.Targets, want)
	}
	if config.Broadcast != "192.0.2.255" {
		t.Errorf("Broadcast = %q", config.Broadcast)
	}
	if config.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v", config.Timeout)
	}
	if config.Listen != 10*time.Second {
		t.Errorf("Listen = %v", config.Listen)
	}
}

func TestLoadScanConfigDefaults(t *testing.T) {
	path := writeConfig(t, `targets = ["192.0.2.10"]`)

	config, err := loadScanConfig(path)
	if err != nil {
		t.Fatalf("loadScanConfig: %v", err)
	}
	if config.Timeout != 5*time.Second || config.Listen != 5*time.Second {
		t.Errorf("defaults not applied: Timeout=%v Listen=%v", config.Timeout, config.Listen)
	}
}

func TestLoadScanConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "empty",
			content: "",
			wantErr: "no targets",
		},
		{
			name:    "unknown key",
			content: `targets = ["x"]` + "\n" + `tiemout_seconds = 3`,
			wantErr: "unknown key",
		},
		{
			name:    "negative timeout",
			content: `targets = ["x"]` + "\n" + `timeout_seconds = -1`,
			wantErr: "timeout_seconds must be positive",
		},
		{
			name:    "negative listen",
			content: `targets = ["x"]` + "\n" + `listen_seconds = 0`,
			wantErr: "listen_seconds must be positive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := loadScanConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadScanConfigMissingFile(t *testing.T) {
	if _, err := loadScanConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
