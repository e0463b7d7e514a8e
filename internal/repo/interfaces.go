package repo

import (
	"context"

	"syncwell/internal/model"
	"syncwell/internal/stream"
)

// LocalStore is the on-device store of record for one entity kind.
// Implementations must treat an empty owner identifier as "match nothing":
// owner-scoped reads return the empty set and owner-scoped deletes affect
// no rows.
type LocalStore[E model.Entity] interface {
	// Upsert inserts or replaces the entity by its identifier.
	Upsert(ctx context.Context, e E) error

	// Delete removes the entity by its identifier. Deleting a missing
	// entity is not an error.
	Delete(ctx context.Context, e E) error

	// ListForOwner returns all entities belonging to the owner.
	ListForOwner(ctx context.Context, ownerID string) ([]E, error)

	// DeleteAllForOwner removes every entity belonging to the owner.
	DeleteAllForOwner(ctx context.Context, ownerID string) error

	// Changes emits a signal after every successful mutation. Live
	// queries re-read on each signal.
	Changes() *stream.Source[struct{}]
}

// DeltaKind classifies an inbound remote change.
type DeltaKind int

const (
	// DeltaUpserted covers both added and modified documents.
	DeltaUpserted DeltaKind = iota
	DeltaRemoved
)

// Delta is one decoded change notification from a remote subscription.
type Delta[E any] struct {
	Kind   DeltaKind
	Entity E
}

// RemoteSubscription delivers remote deltas for one owner until
// unsubscribed. The channel is closed on Unsubscribe or when the backend
// drops the subscription.
type RemoteSubscription[E any] interface {
	Deltas() <-chan Delta[E]
	Unsubscribe()
}

// RemoteStore is the cloud mirror for one entity kind. All methods may fail
// for environmental reasons (network, permissions); callers at the
// repository layer absorb those failures.
type RemoteStore[E model.Entity] interface {
	Upsert(ctx context.Context, e E) error
	Delete(ctx context.Context, e E) error

	// FetchAll returns the owner's full document set. Documents that fail
	// to decode are skipped by the implementation, not surfaced.
	FetchAll(ctx context.Context, ownerID string) ([]E, error)

	// Subscribe opens a live change feed scoped to the owner.
	Subscribe(ctx context.Context, ownerID string) (RemoteSubscription[E], error)
}
