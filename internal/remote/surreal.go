package remote

import (
	"context"
	"fmt"
	"sync"

	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"syncwell/internal/repo"
)

// Surreal is a RemoteStore backed by a SurrealDB table. Live subscriptions
// use LIVE SELECT scoped to the owner, so only the owner's documents produce
// deltas.
type Surreal[E any] struct {
	db     *surrealdb.DB
	codec  Codec[E]
	logger repo.Logger
}

// NewSurreal creates a Surreal store over an established connection.
func NewSurreal[E any](db *surrealdb.DB, codec Codec[E], logger repo.Logger) *Surreal[E] {
	return &Surreal[E]{db: db, codec: codec, logger: logger}
}

func (s *Surreal[E]) Upsert(ctx context.Context, e E) error {
	doc := s.codec.Encode(e)
	id, _ := doc["id"].(string)
	// The record id carries the identifier; a string "id" field would clash.
	delete(doc, "id")

	_, err := surrealdb.Upsert[map[string]any](ctx, s.db, models.NewRecordID(s.codec.Table(), id), doc)
	if err != nil {
		return fmt.Errorf("upserting %s/%s: %w", s.codec.Table(), id, err)
	}
	return nil
}

func (s *Surreal[E]) Delete(ctx context.Context, e E) error {
	doc := s.codec.Encode(e)
	id, _ := doc["id"].(string)

	_, err := surrealdb.Delete[map[string]any](ctx, s.db, models.NewRecordID(s.codec.Table(), id))
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", s.codec.Table(), id, err)
	}
	return nil
}

// FetchAll returns the owner's full document set. Documents that fail to
// decode are logged and skipped.
func (s *Surreal[E]) FetchAll(ctx context.Context, ownerID string) ([]E, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE user_id = $owner", s.codec.Table())
	res, err := surrealdb.Query[[]map[string]any](ctx, s.db, query, map[string]any{
		"owner": ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s documents: %w", s.codec.Table(), err)
	}
	if res == nil || len(*res) == 0 {
		return nil, nil
	}

	docs := (*res)[0].Result
	entities := make([]E, 0, len(docs))
	for _, doc := range docs {
		e, err := s.codec.Decode(doc)
		if err != nil {
			s.logger.Warn("skipping undecodable document", "table", s.codec.Table(), "error", err)
			continue
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// Subscribe opens a LIVE SELECT feed for the owner's documents.
func (s *Surreal[E]) Subscribe(ctx context.Context, ownerID string) (repo.RemoteSubscription[E], error) {
	query := fmt.Sprintf("LIVE SELECT * FROM %s WHERE user_id = $owner", s.codec.Table())
	res, err := surrealdb.Query[models.UUID](ctx, s.db, query, map[string]any{
		"owner": ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("starting live query on %s: %w", s.codec.Table(), err)
	}
	if res == nil || len(*res) == 0 {
		return nil, fmt.Errorf("live query on %s returned no result", s.codec.Table())
	}
	liveID := (*res)[0].Result.String()

	notifications, err := s.db.LiveNotifications(liveID)
	if err != nil {
		return nil, fmt.Errorf("opening notification channel for %s: %w", s.codec.Table(), err)
	}

	sub := &surrealSubscription[E]{
		store:  s,
		liveID: liveID,
		deltas: make(chan repo.Delta[E]),
	}
	go sub.pump(notifications)
	return sub, nil
}

type surrealSubscription[E any] struct {
	store  *Surreal[E]
	liveID string
	deltas chan repo.Delta[E]
	once   sync.Once
}

func (s *surrealSubscription[E]) Deltas() <-chan repo.Delta[E] { return s.deltas }

// Unsubscribe kills the live query. The backend closes the notification
// channel, which ends the pump and closes Deltas. Idempotent.
func (s *surrealSubscription[E]) Unsubscribe() {
	s.once.Do(func() {
		if err := surrealdb.Kill(context.Background(), s.store.db, s.liveID); err != nil {
			s.store.logger.Warn("killing live query failed", "table", s.store.codec.Table(), "error", err)
		}
	})
}

// pump translates raw notifications into deltas. A notification that fails
// to decode is logged and skipped; the subscription stays up.
func (s *surrealSubscription[E]) pump(notifications <-chan connection.Notification) {
	defer close(s.deltas)

	for n := range notifications {
		doc, ok := n.Result.(map[string]any)
		if !ok {
			s.store.logger.Warn("unexpected live result type", "table", s.store.codec.Table(), "type", fmt.Sprintf("%T", n.Result))
			continue
		}
		e, err := s.store.codec.Decode(doc)
		if err != nil {
			s.store.logger.Warn("skipping undecodable live document", "table", s.store.codec.Table(), "error", err)
			continue
		}

		switch n.Action {
		case connection.CreateAction, connection.UpdateAction:
			s.deltas <- repo.Delta[E]{Kind: repo.DeltaUpserted, Entity: e}
		case connection.DeleteAction:
			s.deltas <- repo.Delta[E]{Kind: repo.DeltaRemoved, Entity: e}
		}
	}
}
