// Package app is the application layer between the CLI and the
// repositories. It constructs all dependencies from config, exposes
// high-level operations, and manages resource lifecycles on Close.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"syncwell/internal/backup"
	"syncwell/internal/config"
	"syncwell/internal/identity"
	"syncwell/internal/localdb"
	"syncwell/internal/remote"
	"syncwell/internal/repo"
)

// App wires the local database, the remote stores, the identity provider
// and the per-entity repositories. The caller must call Close when done.
type App struct {
	cfg      *config.Config
	db       *localdb.DB
	remote   *remote.Stores
	owner    identity.Provider
	session  *identity.Session // nil for static identity
	verifier *identity.Verifier
	backup   *backup.Manager

	tasks     *repo.TaskRepository
	medicines *repo.MedicineRepository
	wellness  *repo.WellnessRepository

	logger  repo.Logger
	logFile *os.File
	op      *Operation

	mirrorCancel context.CancelFunc
	mirrorWG     sync.WaitGroup
}

// New creates a fully wired App from the given config. operation identifies
// the CLI command being run (e.g. "TaskAdd", "Refresh").
func New(ctx context.Context, cfg *config.Config, operation string) (*App, error) {
	opID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	db, err := localdb.NewFromConfig(cfg.Database)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	stores, err := remote.NewStoresFromConfig(ctx, cfg.Remote, logger)
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating remote stores: %w", err)
	}

	owner, session, verifier, err := newIdentityFromConfig(cfg.Identity, logger)
	if err != nil {
		stores.Close()
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating identity provider: %w", err)
	}

	clock := repo.RealClock{}
	a := &App{
		cfg:       cfg,
		db:        db,
		remote:    stores,
		owner:     owner,
		session:   session,
		verifier:  verifier,
		backup:    backup.NewManager(cfg.Backup),
		tasks:     repo.NewTaskRepository(db.Tasks(), stores.Tasks, owner, logger, clock),
		medicines: repo.NewMedicineRepository(db.Medicines(), stores.Medicines, owner, logger, clock),
		wellness:  repo.NewWellnessRepository(db.Wellness(), stores.Wellness, owner, logger, clock, repo.UUIDGenerator{}),
		logger:    logger,
		logFile:   logFile,
		op:        NewOperation(operation, ""),
	}
	return a, nil
}

// newIdentityFromConfig creates the identity provider described by the
// identity config.
func newIdentityFromConfig(cfg config.IdentityConfig, logger repo.Logger) (identity.Provider, *identity.Session, *identity.Verifier, error) {
	switch cfg.Type {
	case "session":
		if cfg.SessionPath == "" {
			return nil, nil, nil, fmt.Errorf("session_path required for session identity")
		}
		verifier, err := identity.NewVerifier(cfg.JWKSURL, cfg.Audience, cfg.Issuer)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("creating token verifier: %w", err)
		}
		session := identity.NewSession(cfg.SessionPath, verifier, logger)
		if err := session.Start(); err != nil {
			verifier.Close()
			return nil, nil, nil, fmt.Errorf("starting session provider: %w", err)
		}
		return session, session, verifier, nil
	case "static":
		return identity.NewStatic(cfg.OwnerID), nil, nil, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown identity type: %s", cfg.Type)
	}
}

func (a *App) Tasks() *repo.TaskRepository         { return a.tasks }
func (a *App) Medicines() *repo.MedicineRepository { return a.medicines }
func (a *App) Wellness() *repo.WellnessRepository  { return a.wellness }
func (a *App) Owner() identity.Provider            { return a.owner }
func (a *App) DB() *localdb.DB                     { return a.db }
func (a *App) Backup() *backup.Manager             { return a.backup }
func (a *App) Logger() repo.Logger                 { return a.logger }

// Persist saves the operation to the database, giving it an auto-increment
// ID. Mutating commands call this before touching data so the history
// records what ran.
func (a *App) Persist(ctx context.Context) error {
	if a.op.Persisted() {
		return nil
	}
	dbOp, err := a.db.Operations().Create(ctx, a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// Fail marks the operation as failed for the history record.
func (a *App) Fail() {
	a.op.Status = "error"
}

// StartMirroring runs the remote mirroring state machines for all entity
// kinds until StopMirroring or Close.
func (a *App) StartMirroring(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	a.mirrorCancel = cancel

	run := []func(context.Context){
		a.tasks.Run,
		a.medicines.Run,
		a.wellness.Run,
	}
	for _, r := range run {
		a.mirrorWG.Add(1)
		go func(r func(context.Context)) {
			defer a.mirrorWG.Done()
			r(ctx)
		}(r)
	}
}

// StopMirroring tears down the mirroring goroutines. No-op if mirroring was
// never started.
func (a *App) StopMirroring() {
	if a.mirrorCancel != nil {
		a.mirrorCancel()
		a.mirrorWG.Wait()
		a.mirrorCancel = nil
	}
}

// RefreshAll pulls the signed-in owner's full remote data set into the
// local database for every entity kind.
func (a *App) RefreshAll(ctx context.Context) error {
	if err := a.Persist(ctx); err != nil {
		return err
	}
	if err := a.tasks.Refresh(ctx); err != nil {
		return err
	}
	if err := a.medicines.Refresh(ctx); err != nil {
		return err
	}
	return a.wellness.Refresh(ctx)
}

// Login verifies the token, stores it in the session file and waits for the
// provider to pick it up. Only valid with session identity.
func (a *App) Login(ctx context.Context, token string) (string, error) {
	if a.session == nil {
		return "", fmt.Errorf("login requires session identity")
	}
	ownerID, err := a.verifier.OwnerID(token)
	if err != nil {
		return "", fmt.Errorf("verifying token: %w", err)
	}

	if err := a.Persist(ctx); err != nil {
		return "", err
	}

	path := a.cfg.Identity.SessionPath
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("creating session directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0600); err != nil {
		return "", fmt.Errorf("writing session file: %w", err)
	}

	a.session.Reload()
	return ownerID, nil
}

// Logout removes the session file and deletes the signed-out owner's local
// rows. Remote data is untouched.
func (a *App) Logout(ctx context.Context) error {
	if a.session == nil {
		return fmt.Errorf("logout requires session identity")
	}

	ownerID, signedIn := a.owner.CurrentOwnerID()
	if !signedIn {
		return fmt.Errorf("nobody is signed in")
	}

	if err := a.Persist(ctx); err != nil {
		return err
	}

	if err := os.Remove(a.cfg.Identity.SessionPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session file: %w", err)
	}
	a.session.Reload()

	return a.ClearOwnerData(ctx, ownerID)
}

// ClearOwnerData removes every local row belonging to the owner across all
// entity kinds.
func (a *App) ClearOwnerData(ctx context.Context, ownerID string) error {
	if err := a.tasks.ClearOwnerData(ctx, ownerID); err != nil {
		return err
	}
	if err := a.medicines.ClearOwnerData(ctx, ownerID); err != nil {
		return err
	}
	return a.wellness.ClearOwnerData(ctx, ownerID)
}

// History returns the most recent recorded operations.
func (a *App) History(ctx context.Context, limit int) ([]*localdb.SyncOperation, error) {
	return a.db.Operations().List(ctx, limit)
}

// Close finalizes the operation record and closes all resources.
func (a *App) Close() error {
	var firstErr error

	a.StopMirroring()

	if a.op.Persisted() {
		if err := a.db.Operations().Finish(context.Background(), a.op.ID, a.op.Status); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}
	}

	if a.session != nil {
		if err := a.session.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing session provider: %w", err)
		}
	}
	if a.verifier != nil {
		a.verifier.Close()
	}

	if err := a.remote.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing remote stores: %w", err)
	}

	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
