package remote

import (
	"context"
	"fmt"

	surrealdb "github.com/surrealdb/surrealdb.go"

	"syncwell/internal/config"
	"syncwell/internal/model"
	"syncwell/internal/repo"
)

// Stores bundles the per-entity remote stores behind one connection.
type Stores struct {
	Tasks     repo.RemoteStore[*model.Task]
	Medicines repo.RemoteStore[*model.Medicine]
	Wellness  repo.RemoteStore[*model.WellnessEntry]

	db *surrealdb.DB
}

// Close tears down the shared connection, if any.
func (s *Stores) Close() error {
	if s.db != nil {
		return s.db.Close(context.Background())
	}
	return nil
}

// NewStoresFromConfig creates the remote stores described by the remote
// config.
func NewStoresFromConfig(ctx context.Context, cfg config.RemoteConfig, logger repo.Logger) (*Stores, error) {
	switch cfg.Type {
	case "surrealdb":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("endpoint required for surrealdb remote")
		}

		db, err := surrealdb.FromEndpointURLString(ctx, cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("connecting to surrealdb: %w", err)
		}

		if cfg.Username != "" {
			_, err = db.SignIn(ctx, surrealdb.Auth{
				Username: cfg.Username,
				Password: cfg.Password,
			})
			if err != nil {
				db.Close(ctx)
				return nil, fmt.Errorf("authenticating with surrealdb: %w", err)
			}
		}

		if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
			db.Close(ctx)
			return nil, fmt.Errorf("selecting namespace/database: %w", err)
		}

		return &Stores{
			Tasks:     NewSurreal[*model.Task](db, TaskCodec{}, logger),
			Medicines: NewSurreal[*model.Medicine](db, MedicineCodec{}, logger),
			Wellness:  NewSurreal[*model.WellnessEntry](db, WellnessCodec{}, logger),
			db:        db,
		}, nil
	case "memory":
		return &Stores{
			Tasks:     NewMemory[*model.Task](TaskCodec{}),
			Medicines: NewMemory[*model.Medicine](MedicineCodec{}),
			Wellness:  NewMemory[*model.WellnessEntry](WellnessCodec{}),
		}, nil
	default:
		return nil, fmt.Errorf("unknown remote type: %s", cfg.Type)
	}
}
