package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir:  "/home/user/.local/share/syncwell",
		LogDir:   "/home/user/.local/share/syncwell/log",
		Database: DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/syncwell/data"},
		Remote: RemoteConfig{
			Type:      "surrealdb",
			Endpoint:  "ws://localhost:8000/rpc",
			Namespace: "syncwell",
			Database:  "wellness",
			Username:  "root",
			Password:  "root",
		},
		Identity: IdentityConfig{
			Type:        "session",
			SessionPath: "/home/user/.local/share/syncwell/session/token",
			JWKSURL:     "https://auth.example.com/.well-known/jwks.json",
			Audience:    "syncwell",
			Issuer:      "https://auth.example.com/",
		},
		Backup: BackupConfig{
			Dir:            "/backup/syncwell",
			PublicKeyPath:  "/home/user/.local/share/syncwell/keys/syncwell.pub",
			PrivateKeyPath: "/home/user/.local/share/syncwell/keys/syncwell.key",
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", got.Database.Type, "sqlite")
	}
	if got.Remote.Type != "surrealdb" {
		t.Errorf("Remote.Type = %q, want %q", got.Remote.Type, "surrealdb")
	}
	if got.Remote.Endpoint != original.Remote.Endpoint {
		t.Errorf("Remote.Endpoint = %q, want %q", got.Remote.Endpoint, original.Remote.Endpoint)
	}
	if got.Identity.SessionPath != original.Identity.SessionPath {
		t.Errorf("Identity.SessionPath = %q, want %q", got.Identity.SessionPath, original.Identity.SessionPath)
	}
	if got.Identity.JWKSURL != original.Identity.JWKSURL {
		t.Errorf("Identity.JWKSURL = %q, want %q", got.Identity.JWKSURL, original.Identity.JWKSURL)
	}
	if got.Backup.Dir != original.Backup.Dir {
		t.Errorf("Backup.Dir = %q, want %q", got.Backup.Dir, original.Backup.Dir)
	}
	if got.Backup.PrivateKeyPath != original.Backup.PrivateKeyPath {
		t.Errorf("Backup.PrivateKeyPath = %q, want %q", got.Backup.PrivateKeyPath, original.Backup.PrivateKeyPath)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/syncwell")

	if cfg.BaseDir != "/data/syncwell" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/syncwell")
	}
	if cfg.LogDir != "/data/syncwell/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/syncwell/log")
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", cfg.Database.Type, "sqlite")
	}
	if cfg.Database.DataDir != "/data/syncwell/data" {
		t.Errorf("Database.DataDir = %q, want %q", cfg.Database.DataDir, "/data/syncwell/data")
	}
	if cfg.Remote.Type != "memory" {
		t.Errorf("Remote.Type = %q, want %q", cfg.Remote.Type, "memory")
	}
	if cfg.Identity.SessionPath != "/data/syncwell/session/token" {
		t.Errorf("Identity.SessionPath = %q, want %q", cfg.Identity.SessionPath, "/data/syncwell/session/token")
	}
	if cfg.Backup.PublicKeyPath != "/data/syncwell/keys/syncwell.pub" {
		t.Errorf("Backup.PublicKeyPath = %q, want %q", cfg.Backup.PublicKeyPath, "/data/syncwell/keys/syncwell.pub")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "syncwell.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "syncwell.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "syncwell.toml")
		cfg := NewConfig(dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/syncwell.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
