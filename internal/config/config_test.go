package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want sqlite", cfg.Database.Type)
	}
	if cfg.Defects.MaterialChangePolicy != "per-material" {
		t.Errorf("MaterialChangePolicy = %q", cfg.Defects.MaterialChangePolicy)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
database:
  type: mysql
  mysql:
    host: db
    port: 3306
defects:
  material_change_policy: full
storage:
  upload_timeout_seconds: 5
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Type != "mysql" || cfg.Database.MySQL.Host != "db" || cfg.Database.MySQL.Port != 3306 {
		t.Errorf("database not loaded: %+v", cfg.Database)
	}
	if cfg.Defects.MaterialChangePolicy != "full" {
		t.Errorf("MaterialChangePolicy = %q, want full", cfg.Defects.MaterialChangePolicy)
	}
	if got := cfg.Storage.GetUploadTimeout(); got != 5*time.Second {
		t.Errorf("GetUploadTimeout = %v", got)
	}
	// untouched sections keep defaults
	if cfg.Cleanup.RetentionDays != 90 {
		t.Errorf("RetentionDays = %d, want 90", cfg.Cleanup.RetentionDays)
	}
}

func TestLoadConfigRejectsUnknownEnums(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"database", "database:\n  type: oracle\n"},
		{"storage", "storage:\n  type: ftp\n"},
		{"policy", "defects:\n  material_change_policy: sometimes\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}
