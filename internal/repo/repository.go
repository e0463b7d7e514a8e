// Package repo implements the entity repositories: one locally-backed,
// live-updating view per entity kind, opportunistically mirrored to the
// remote store. The local store is the read-of-record; remote failures are
// absorbed here and never reach callers.
package repo

import (
	"context"
	"fmt"
	"sync"

	"syncwell/internal/identity"
	"syncwell/internal/model"
)

// Repository mediates between the local and remote stores for one entity
// kind. It is safe for concurrent use.
type Repository[E model.Entity] struct {
	kind   string // entity kind for logging, e.g. "task"
	local  LocalStore[E]
	remote RemoteStore[E]
	owner  identity.Provider
	logger Logger
	clock  Clock

	mu  sync.Mutex
	sub RemoteSubscription[E] // active remote subscription, nil when detached
}

// New creates a Repository for one entity kind.
func New[E model.Entity](kind string, local LocalStore[E], remote RemoteStore[E], owner identity.Provider, logger Logger, clock Clock) *Repository[E] {
	return &Repository[E]{
		kind:   kind,
		local:  local,
		remote: remote,
		owner:  owner,
		logger: logger,
		clock:  clock,
	}
}

// Upsert stamps the entity with the signed-in owner and the current instant,
// writes it to the local store, then mirrors it to the remote store
// best-effort. With nobody signed in it is a no-op. A local failure
// propagates; a remote failure is logged and discarded — the entity is
// already durable locally.
func (r *Repository[E]) Upsert(ctx context.Context, e E) error {
	ownerID, ok := r.owner.CurrentOwnerID()
	if !ok {
		return nil
	}

	e.Stamp(ownerID, r.clock.Now())
	if err := r.local.Upsert(ctx, e); err != nil {
		return fmt.Errorf("writing %s to local store: %w", r.kind, err)
	}

	if err := r.remote.Upsert(ctx, e); err != nil {
		r.logger.Warn("remote mirror failed", "kind", r.kind, "id", e.EntityID(), "error", err)
	}
	return nil
}

// Delete removes the entity from the local store, then best-effort from the
// remote store.
func (r *Repository[E]) Delete(ctx context.Context, e E) error {
	if err := r.local.Delete(ctx, e); err != nil {
		return fmt.Errorf("deleting %s from local store: %w", r.kind, err)
	}

	if err := r.remote.Delete(ctx, e); err != nil {
		r.logger.Warn("remote delete failed", "kind", r.kind, "id", e.EntityID(), "error", err)
	}
	return nil
}

// Refresh pulls the owner's full remote set and upserts each entity locally.
// A failed fetch leaves local state untouched. A per-entity failure is
// skipped so the rest of the batch still applies. Refresh never returns a
// remote error; with nobody signed in it is a no-op.
func (r *Repository[E]) Refresh(ctx context.Context) error {
	ownerID, ok := r.owner.CurrentOwnerID()
	if !ok {
		return nil
	}

	entities, err := r.remote.FetchAll(ctx, ownerID)
	if err != nil {
		r.logger.Warn("refresh fetch failed", "kind", r.kind, "owner", ownerID, "error", err)
		return nil
	}

	applied := 0
	for _, e := range entities {
		if err := r.local.Upsert(ctx, e); err != nil {
			r.logger.Warn("refresh apply failed", "kind", r.kind, "id", e.EntityID(), "error", err)
			continue
		}
		applied++
	}

	r.logger.Debug("refresh complete", "kind", r.kind, "fetched", len(entities), "applied", applied)
	return nil
}

// ClearOwnerData removes every local row belonging to the owner. The remote
// store is never touched: sign-out wipes the device, not the cloud.
func (r *Repository[E]) ClearOwnerData(ctx context.Context, ownerID string) error {
	if err := r.local.DeleteAllForOwner(ctx, ownerID); err != nil {
		return fmt.Errorf("clearing local %s data: %w", r.kind, err)
	}
	return nil
}

// List returns the owner's entities from the local store, one-shot.
func (r *Repository[E]) List(ctx context.Context, ownerID string) ([]E, error) {
	return r.local.ListForOwner(ctx, ownerID)
}

// Live returns a continuously updated view of the owner's entities, sourced
// exclusively from the local store: the current list immediately, then a
// fresh list after every local mutation. Delivery is conflated — a slow
// consumer sees the newest list and never blocks writers. The channel closes
// when ctx is done. An empty ownerID yields a perpetual empty list.
func (r *Repository[E]) Live(ctx context.Context, ownerID string) <-chan []E {
	out := make(chan []E, 1)
	changes := r.local.Changes().Subscribe(1)

	emit := func() {
		list, err := r.local.ListForOwner(ctx, ownerID)
		if err != nil {
			r.logger.Error("live query failed", "kind", r.kind, "owner", ownerID, "error", err)
			return
		}
		select {
		case out <- list:
		default:
			// Replace the stale pending list with the fresh one.
			select {
			case <-out:
			default:
			}
			out <- list
		}
	}

	go func() {
		defer close(out)
		defer changes.Unsubscribe()

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes.C:
				if !ok {
					return
				}
				emit()
			}
		}
	}()

	return out
}

// Run drives the remote mirroring state machine until ctx is done:
// Detached until an owner signs in, then Attached with a single remote
// subscription scoped to that owner. Owner switches tear the old
// subscription down before attaching the new one; sign-out detaches.
// This is the only path by which another device's writes become visible
// locally (besides Refresh).
func (r *Repository[E]) Run(ctx context.Context) {
	transitions := r.owner.Changes().Subscribe(1)
	defer transitions.Unsubscribe()
	defer r.detach()

	if ownerID, ok := r.owner.CurrentOwnerID(); ok {
		r.attach(ctx, ownerID)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ch, ok := <-transitions.C:
			if !ok {
				return
			}
			if ch.OwnerID == "" {
				r.detach()
			} else {
				r.attach(ctx, ch.OwnerID)
			}
		}
	}
}

// attach replaces any active subscription with a new one for ownerID.
// A subscription failure leaves the repository detached; local operation is
// unaffected.
func (r *Repository[E]) attach(ctx context.Context, ownerID string) {
	r.detach()

	sub, err := r.remote.Subscribe(ctx, ownerID)
	if err != nil {
		r.logger.Warn("remote subscription failed", "kind", r.kind, "owner", ownerID, "error", err)
		return
	}

	r.mu.Lock()
	r.sub = sub
	r.mu.Unlock()

	r.logger.Info("remote mirroring attached", "kind", r.kind, "owner", ownerID)
	go r.consume(ctx, sub)
}

// detach tears down the active subscription, if any. The consumer goroutine
// exits when the delta channel closes.
func (r *Repository[E]) detach() {
	r.mu.Lock()
	sub := r.sub
	r.sub = nil
	r.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
		r.logger.Info("remote mirroring detached", "kind", r.kind)
	}
}

// consume applies inbound deltas to the local store until the subscription
// closes. A failure on one delta is logged and skipped; the subscription
// survives it.
func (r *Repository[E]) consume(ctx context.Context, sub RemoteSubscription[E]) {
	for d := range sub.Deltas() {
		switch d.Kind {
		case DeltaUpserted:
			if err := r.local.Upsert(ctx, d.Entity); err != nil {
				r.logger.Warn("applying remote upsert failed", "kind", r.kind, "id", d.Entity.EntityID(), "error", err)
			}
		case DeltaRemoved:
			if err := r.local.Delete(ctx, d.Entity); err != nil {
				r.logger.Warn("applying remote delete failed", "kind", r.kind, "id", d.Entity.EntityID(), "error", err)
			}
		}
	}
}
