package config

import (
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.value)
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestGetenv(t *testing.T) {
	t.Setenv("TEST_GETENV", "set")
	if got := getenv("TEST_GETENV", "def"); got != "set" {
		t.Errorf("getenv() = %v, want set", got)
	}
	if got := getenv("TEST_GETENV_MISSING", "def"); got != "def" {
		t.Errorf("getenv() = %v, want default", got)
	}
}

func TestGetenvInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      int
		expected int
	}{
		{name: "valid integer", value: "42", def: 7, expected: 42},
		{name: "invalid integer", value: "nope", def: 7, expected: 7},
		{name: "empty", value: "", def: 7, expected: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_INT", tt.value)
			}
			if got := getenvInt("TEST_INT", tt.def); got != tt.expected {
				t.Errorf("getenvInt() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{name: "true", value: "true", def: false, expected: true},
		{name: "false", value: "false", def: true, expected: false},
		{name: "numeric true", value: "1", def: false, expected: true},
		{name: "garbage falls back", value: "maybe", def: true, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			if got := mustBool("TEST_BOOL", tt.def); got != tt.expected {
				t.Errorf("mustBool() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{name: "valid duration", value: "30s", def: time.Minute, expected: 30 * time.Second},
		{name: "invalid duration", value: "soon", def: time.Minute, expected: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DUR", tt.value)
			if got := mustDuration("TEST_DUR", tt.def); got != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("READMARK_CMS_URL", "http://cms.local/api")

	cfg := Load()

	if cfg.ListenAddr != "127.0.0.1:8787" {
		t.Errorf("ListenAddr = %v", cfg.ListenAddr)
	}
	if cfg.StoreBackend != "sqlite" {
		t.Errorf("StoreBackend = %v, want sqlite", cfg.StoreBackend)
	}
	if cfg.QuietWindow != 5*time.Second {
		t.Errorf("QuietWindow = %v, want 5s", cfg.QuietWindow)
	}
	if cfg.BackupSink != "cms" {
		t.Errorf("BackupSink = %v, want cms", cfg.BackupSink)
	}
	if cfg.CMSBaseURL != "http://cms.local/api" {
		t.Errorf("CMSBaseURL = %v", cfg.CMSBaseURL)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("READMARK_CMS_URL", "http://cms.local/api")
	t.Setenv("READMARK_STORE_BACKEND", "postgres")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() should panic on an unknown store backend")
		}
	}()
	Load()
}

func TestLoadRequiresBucketForS3Sink(t *testing.T) {
	t.Setenv("READMARK_CMS_URL", "http://cms.local/api")
	t.Setenv("READMARK_BACKUP_SINK", "s3")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() should panic when the s3 sink has no bucket")
		}
	}()
	Load()
}
