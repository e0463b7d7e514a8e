package remote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syncwell/internal/model"
	"syncwell/internal/repo"
)

func TestMemory_UpsertFetchDelete(t *testing.T) {
	store := NewMemory[*model.Task](TaskCodec{})
	ctx := context.Background()

	task := &model.Task{ID: "t1", UserID: "alice", Title: "water plants"}
	require.NoError(t, store.Upsert(ctx, task))

	got, err := store.FetchAll(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, task, got[0])

	// Other owners see nothing.
	got, err = store.FetchAll(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Delete(ctx, task))
	got, err = store.FetchAll(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemory_FetchSkipsUndecodable(t *testing.T) {
	store := NewMemory[*model.Task](TaskCodec{})
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &model.Task{ID: "t1", UserID: "alice", Title: "ok"}))
	store.PutRaw("bad", map[string]any{"id": "bad", "user_id": "alice", "title": 42})

	got, err := store.FetchAll(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].ID)
}

func TestMemory_Offline(t *testing.T) {
	store := NewMemory[*model.Task](TaskCodec{})
	ctx := context.Background()
	task := &model.Task{ID: "t1", UserID: "alice", Title: "x"}

	store.SetOffline(true)
	assert.Error(t, store.Upsert(ctx, task))
	assert.Error(t, store.Delete(ctx, task))
	_, err := store.FetchAll(ctx, "alice")
	assert.Error(t, err)
	_, err = store.Subscribe(ctx, "alice")
	assert.Error(t, err)

	store.SetOffline(false)
	assert.NoError(t, store.Upsert(ctx, task))
}

func TestMemory_SubscriptionDeltas(t *testing.T) {
	store := NewMemory[*model.Task](TaskCodec{})
	ctx := context.Background()

	sub, err := store.Subscribe(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Subscriptions())

	task := &model.Task{ID: "t1", UserID: "alice", Title: "x"}
	require.NoError(t, store.Upsert(ctx, task))
	require.NoError(t, store.Delete(ctx, task))

	// Writes for other owners stay off this subscription.
	require.NoError(t, store.Upsert(ctx, &model.Task{ID: "b1", UserID: "bob", Title: "y"}))

	d := <-sub.Deltas()
	assert.Equal(t, repo.DeltaUpserted, d.Kind)
	assert.Equal(t, "t1", d.Entity.ID)

	d = <-sub.Deltas()
	assert.Equal(t, repo.DeltaRemoved, d.Kind)

	sub.Unsubscribe()
	assert.Equal(t, 0, store.Subscriptions())

	_, open := <-sub.Deltas()
	assert.False(t, open)

	// Unsubscribe is idempotent.
	sub.Unsubscribe()
}
