package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"syncwell/internal/config"
)

// fileSnapshotter writes fixed contents, standing in for the database's
// VACUUM INTO snapshot.
type fileSnapshotter struct {
	contents []byte
}

func (f *fileSnapshotter) BackupTo(destPath string) error {
	return os.WriteFile(destPath, f.contents, 0600)
}

type failingSnapshotter struct{}

func (failingSnapshotter) BackupTo(destPath string) error {
	return os.ErrPermission
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	return NewManager(config.BackupConfig{
		Dir:            filepath.Join(dir, "backups"),
		PublicKeyPath:  filepath.Join(dir, "keys", "syncwell.pub"),
		PrivateKeyPath: filepath.Join(dir, "keys", "syncwell.key"),
	})
}

func TestSetup(t *testing.T) {
	m := newTestManager(t)

	if m.IsConfigured() {
		t.Fatal("IsConfigured() = true before Setup")
	}

	if err := m.Setup("hunter2"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	if !m.IsConfigured() {
		t.Fatal("IsConfigured() = false after Setup")
	}

	pub, err := os.ReadFile(m.publicKeyPath)
	if err != nil {
		t.Fatalf("reading public key: %v", err)
	}
	if !strings.HasPrefix(string(pub), "age1") {
		t.Errorf("public key does not look like an age recipient: %q", pub)
	}

	// The private key must not be readable without the passphrase.
	priv, err := os.ReadFile(m.privateKeyPath)
	if err != nil {
		t.Fatalf("reading private key: %v", err)
	}
	if strings.Contains(string(priv), "AGE-SECRET-KEY") {
		t.Error("private key stored in plaintext")
	}
}

func TestCreateAndRestore(t *testing.T) {
	m := newTestManager(t)
	if err := m.Setup("hunter2"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	contents := []byte("sqlite payload standing in for a real database file")
	now := time.Date(2026, 5, 1, 14, 30, 0, 0, time.UTC)

	backupPath, err := m.Create(&fileSnapshotter{contents: contents}, now)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if filepath.Base(backupPath) != "syncwell-20260501-143000.db.age" {
		t.Errorf("backup file name = %q", filepath.Base(backupPath))
	}

	// The ciphertext must not contain the plaintext.
	raw, err := os.ReadFile(backupPath)
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	if strings.Contains(string(raw), "sqlite payload") {
		t.Error("backup stored in plaintext")
	}

	restorePath := filepath.Join(t.TempDir(), "restored.db")
	if err := m.Restore(backupPath, restorePath, "hunter2"); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	restored, err := os.ReadFile(restorePath)
	if err != nil {
		t.Fatalf("reading restored file: %v", err)
	}
	if string(restored) != string(contents) {
		t.Errorf("restored contents = %q, want %q", restored, contents)
	}
}

func TestRestore_WrongPassphrase(t *testing.T) {
	m := newTestManager(t)
	if err := m.Setup("hunter2"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	backupPath, err := m.Create(&fileSnapshotter{contents: []byte("x")}, time.Now())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	restorePath := filepath.Join(t.TempDir(), "restored.db")
	if err := m.Restore(backupPath, restorePath, "wrong"); err == nil {
		t.Fatal("Restore() with wrong passphrase succeeded")
	}
	if _, statErr := os.Stat(restorePath); !os.IsNotExist(statErr) {
		t.Error("failed restore left a target file behind")
	}
}

func TestRestore_ExistingTargetRefused(t *testing.T) {
	m := newTestManager(t)
	if err := m.Setup("hunter2"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	backupPath, err := m.Create(&fileSnapshotter{contents: []byte("x")}, time.Now())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	restorePath := filepath.Join(t.TempDir(), "existing.db")
	if err := os.WriteFile(restorePath, []byte("precious"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := m.Restore(backupPath, restorePath, "hunter2"); err == nil {
		t.Fatal("Restore() over an existing file succeeded")
	}

	kept, _ := os.ReadFile(restorePath)
	if string(kept) != "precious" {
		t.Error("existing file was overwritten")
	}
}

func TestCreate_RequiresSetup(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Create(&fileSnapshotter{}, time.Now()); err == nil {
		t.Fatal("Create() without keys succeeded")
	}
}

func TestCreate_SnapshotFailure(t *testing.T) {
	m := newTestManager(t)
	if err := m.Setup("hunter2"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	if _, err := m.Create(failingSnapshotter{}, time.Now()); err == nil {
		t.Fatal("Create() with failing snapshotter succeeded")
	}

	names, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 0 {
		t.Errorf("failed Create left backup files: %v", names)
	}
}

func TestList(t *testing.T) {
	m := newTestManager(t)

	// Missing directory is not an error.
	names, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 0 {
		t.Errorf("List() on missing dir = %v", names)
	}

	if err := m.Setup("hunter2"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if _, err := m.Create(&fileSnapshotter{contents: []byte("a")}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := m.Create(&fileSnapshotter{contents: []byte("b")}, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// A stray non-backup file is ignored.
	os.WriteFile(filepath.Join(m.dir, "notes.txt"), []byte("x"), 0600)

	names, err = m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"syncwell-20260101-000000.db.age", "syncwell-20260102-000000.db.age"}
	if len(names) != 2 || names[0] != want[0] || names[1] != want[1] {
		t.Errorf("List() = %v, want %v", names, want)
	}
}
