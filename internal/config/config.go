package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for syncwell.
type Config struct {
	BaseDir  string         `toml:"base_dir"`
	LogDir   string         `toml:"log_dir"`
	Database DatabaseConfig `toml:"database"`
	Remote   RemoteConfig   `toml:"remote"`
	Identity IdentityConfig `toml:"identity"`
	Backup   BackupConfig   `toml:"backup"`
}

// DatabaseConfig represents configuration for the local database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// RemoteConfig represents configuration for the remote document store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type RemoteConfig struct {
	Type string `toml:"type"` // "surrealdb" or "memory"

	// SurrealDB-specific fields (only used when Type == "surrealdb")
	Endpoint  string `toml:"endpoint,omitempty"`
	Namespace string `toml:"namespace,omitempty"`
	Database  string `toml:"database,omitempty"`
	Username  string `toml:"username,omitempty"`
	Password  string `toml:"password,omitempty"`
}

// IdentityConfig represents configuration for the identity provider.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type IdentityConfig struct {
	Type string `toml:"type"` // "session" or "static"

	// Session-specific fields (only used when Type == "session")
	SessionPath string `toml:"session_path,omitempty"`
	JWKSURL     string `toml:"jwks_url,omitempty"`
	Audience    string `toml:"audience,omitempty"`
	Issuer      string `toml:"issuer,omitempty"`

	// Static-specific fields (only used when Type == "static")
	OwnerID string `toml:"owner_id,omitempty"`
}

// BackupConfig holds the backup destination and the age key pair paths.
type BackupConfig struct {
	Dir            string `toml:"dir"`
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// NewConfig creates a Config rooted at baseDir with default paths and a
// local-only stack: sqlite database, memory remote, session identity.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "data"),
		},
		Remote: RemoteConfig{
			Type: "memory",
		},
		Identity: IdentityConfig{
			Type:        "session",
			SessionPath: filepath.Join(baseDir, "session", "token"),
		},
		Backup: BackupConfig{
			Dir:            filepath.Join(baseDir, "backups"),
			PublicKeyPath:  filepath.Join(baseDir, "keys", "syncwell.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "syncwell.key"),
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
