package internal

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
	if !cfg.Watch.Enabled {
		t.Error("watcher should be on by default")
	}
}

func TestStorageConfig_DerivedDirs(t *testing.T) {
	cfg := StorageConfig{DataDir: filepath.Join("data", "muvel")}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.NovelsDir != filepath.Join("data", "muvel", "novels") {
		t.Errorf("novels dir = %q", cfg.NovelsDir)
	}
	if cfg.CloudDir != filepath.Join("data", "muvel", "cloud") {
		t.Errorf("cloud dir = %q", cfg.CloudDir)
	}

	cfg = StorageConfig{DataDir: "d", NovelsDir: "elsewhere"}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.NovelsDir != "elsewhere" {
		t.Errorf("explicit novels dir overwritten: %q", cfg.NovelsDir)
	}
}

func TestStorageConfig_DataDirRequired(t *testing.T) {
	cfg := StorageConfig{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty data dir should fail")
	}
}

func TestWatchConfig_Debounce(t *testing.T) {
	tests := []struct {
		name    string
		in      time.Duration
		want    time.Duration
		wantErr bool
	}{
		{"zero uses default", 0, defaultDebounce, false},
		{"explicit", time.Second, time.Second, false},
		{"too short", time.Millisecond, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := WatchConfig{Enabled: true, Debounce: tt.in}
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && cfg.Debounce != tt.want {
				t.Errorf("debounce = %v, want %v", cfg.Debounce, tt.want)
			}
		})
	}
}
