// Package backup produces and restores encrypted snapshots of the local
// database. Snapshots are taken with VACUUM INTO and encrypted with
// filippo.io/age using X25519 keys. The public key is stored in plaintext;
// the private key is encrypted with the user's passphrase using age's
// scrypt-based passphrase encryption.
package backup

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"filippo.io/age"

	"syncwell/internal/config"
)

// Manager creates and restores encrypted database snapshots.
type Manager struct {
	dir            string
	publicKeyPath  string
	privateKeyPath string
}

// NewManager creates a Manager from configuration.
func NewManager(cfg config.BackupConfig) *Manager {
	return &Manager{
		dir:            cfg.Dir,
		publicKeyPath:  cfg.PublicKeyPath,
		privateKeyPath: cfg.PrivateKeyPath,
	}
}

// Snapshotter is anything that can write a consistent copy of itself to a
// file. The local database satisfies it via VACUUM INTO.
type Snapshotter interface {
	BackupTo(destPath string) error
}

// Setup generates a new X25519 key pair, stores the public key in plaintext,
// and encrypts the private key with the passphrase.
func (m *Manager) Setup(passphrase string) error {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.publicKeyPath), 0700); err != nil {
		return fmt.Errorf("creating public key directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.privateKeyPath), 0700); err != nil {
		return fmt.Errorf("creating private key directory: %w", err)
	}

	if err := os.WriteFile(m.publicKeyPath, []byte(identity.Recipient().String()+"\n"), 0644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}

	privFile, err := os.OpenFile(m.privateKeyPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating private key file: %w", err)
	}
	defer privFile.Close()

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}

	w, err := age.Encrypt(privFile, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}

	if _, err := io.WriteString(w, identity.String()+"\n"); err != nil {
		return fmt.Errorf("writing encrypted private key: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encrypted private key: %w", err)
	}

	return nil
}

// IsConfigured returns true if both key files exist.
func (m *Manager) IsConfigured() bool {
	if _, err := os.Stat(m.publicKeyPath); err != nil {
		return false
	}
	if _, err := os.Stat(m.privateKeyPath); err != nil {
		return false
	}
	return true
}

// Create snapshots the database and writes an encrypted backup into the
// backup directory. Returns the path of the backup file.
func (m *Manager) Create(db Snapshotter, now time.Time) (string, error) {
	if !m.IsConfigured() {
		return "", fmt.Errorf("backup keys not configured (run backup setup first)")
	}

	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "syncwell-backup-*")
	if err != nil {
		return "", fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapshotPath := filepath.Join(tmpDir, "snapshot.db")
	if err := db.BackupTo(snapshotPath); err != nil {
		return "", fmt.Errorf("snapshotting database: %w", err)
	}

	destPath := filepath.Join(m.dir, fmt.Sprintf("syncwell-%s.db.age", now.UTC().Format("20060102-150405")))

	snapshot, err := os.Open(snapshotPath)
	if err != nil {
		return "", fmt.Errorf("opening snapshot: %w", err)
	}
	defer snapshot.Close()

	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("creating backup file: %w", err)
	}
	defer dest.Close()

	if err := m.encrypt(snapshot, dest); err != nil {
		os.Remove(destPath)
		return "", err
	}

	return destPath, nil
}

// Restore decrypts the backup at srcPath into destPath using the private
// key unlocked with the passphrase. destPath must not already exist.
func (m *Manager) Restore(srcPath, destPath, passphrase string) error {
	identity, err := m.unlock(passphrase)
	if err != nil {
		return err
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening backup file: %w", err)
	}
	defer src.Close()

	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating restore target: %w", err)
	}
	defer dest.Close()

	decReader, err := age.Decrypt(src, identity)
	if err != nil {
		os.Remove(destPath)
		return fmt.Errorf("decrypting backup: %w", err)
	}

	if _, err := io.Copy(dest, decReader); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("writing restored database: %w", err)
	}

	return nil
}

// List returns the backup file names in the backup directory, oldest first.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".age" {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// encrypt writes age-encrypted ciphertext of r to w using the public key.
func (m *Manager) encrypt(r io.Reader, w io.Writer) error {
	pubData, err := os.ReadFile(m.publicKeyPath)
	if err != nil {
		return fmt.Errorf("reading public key: %w", err)
	}

	recipients, err := age.ParseRecipients(bytes.NewReader(pubData))
	if err != nil {
		return fmt.Errorf("parsing public key: %w", err)
	}
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients found in public key file")
	}

	encWriter, err := age.Encrypt(w, recipients...)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}

	if _, err := io.Copy(encWriter, r); err != nil {
		return fmt.Errorf("encrypting data: %w", err)
	}

	if err := encWriter.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}

	return nil
}

// unlock decrypts the private key with the passphrase.
func (m *Manager) unlock(passphrase string) (age.Identity, error) {
	privData, err := os.ReadFile(m.privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading private key file: %w", err)
	}

	scryptIdentity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	decReader, err := age.Decrypt(bytes.NewReader(privData), scryptIdentity)
	if err != nil {
		return nil, fmt.Errorf("decrypting private key: %w", err)
	}

	keyData, err := io.ReadAll(decReader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted private key: %w", err)
	}

	identities, err := age.ParseIdentities(bytes.NewReader(keyData))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found in private key")
	}

	return identities[0], nil
}
