package remote

import (
	"context"
	"fmt"
	"sync"

	"syncwell/internal/repo"
)

// Memory is an in-process RemoteStore used for tests and local-only
// configurations. It holds raw documents and runs them through the same
// codec as the real backend, so decode failures behave identically.
type Memory[E any] struct {
	codec Codec[E]

	mu      sync.Mutex
	docs    map[string]map[string]any
	subs    []*memorySubscription[E]
	offline bool
}

// NewMemory creates an empty Memory store.
func NewMemory[E any](codec Codec[E]) *Memory[E] {
	return &Memory[E]{
		codec: codec,
		docs:  make(map[string]map[string]any),
	}
}

// SetOffline makes every subsequent operation fail, simulating an
// unreachable backend. Subscriptions already open stay open.
func (m *Memory[E]) SetOffline(offline bool) {
	m.mu.Lock()
	m.offline = offline
	m.mu.Unlock()
}

// PutRaw stores a document without going through Encode. Tests use it to
// inject malformed documents.
func (m *Memory[E]) PutRaw(id string, doc map[string]any) {
	m.mu.Lock()
	m.docs[id] = doc
	m.mu.Unlock()
}

func (m *Memory[E]) Upsert(ctx context.Context, e E) error {
	doc := m.codec.Encode(e)
	id, _ := doc["id"].(string)
	owner, _ := doc["user_id"].(string)

	m.mu.Lock()
	if m.offline {
		m.mu.Unlock()
		return fmt.Errorf("remote store offline")
	}
	m.docs[id] = doc
	subs := m.matchingSubs(owner)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.publish(repo.Delta[E]{Kind: repo.DeltaUpserted, Entity: e})
	}
	return nil
}

func (m *Memory[E]) Delete(ctx context.Context, e E) error {
	doc := m.codec.Encode(e)
	id, _ := doc["id"].(string)
	owner, _ := doc["user_id"].(string)

	m.mu.Lock()
	if m.offline {
		m.mu.Unlock()
		return fmt.Errorf("remote store offline")
	}
	delete(m.docs, id)
	subs := m.matchingSubs(owner)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.publish(repo.Delta[E]{Kind: repo.DeltaRemoved, Entity: e})
	}
	return nil
}

func (m *Memory[E]) FetchAll(ctx context.Context, ownerID string) ([]E, error) {
	m.mu.Lock()
	if m.offline {
		m.mu.Unlock()
		return nil, fmt.Errorf("remote store offline")
	}
	var raw []map[string]any
	for _, doc := range m.docs {
		if owner, _ := doc["user_id"].(string); owner == ownerID {
			raw = append(raw, doc)
		}
	}
	m.mu.Unlock()

	var entities []E
	for _, doc := range raw {
		e, err := m.codec.Decode(doc)
		if err != nil {
			continue
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func (m *Memory[E]) Subscribe(ctx context.Context, ownerID string) (repo.RemoteSubscription[E], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.offline {
		return nil, fmt.Errorf("remote store offline")
	}

	sub := &memorySubscription[E]{
		store:   m,
		ownerID: ownerID,
		deltas:  make(chan repo.Delta[E], 64),
	}
	m.subs = append(m.subs, sub)
	return sub, nil
}

// Subscriptions returns the number of open subscriptions.
func (m *Memory[E]) Subscriptions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

func (m *Memory[E]) matchingSubs(ownerID string) []*memorySubscription[E] {
	var matched []*memorySubscription[E]
	for _, sub := range m.subs {
		if sub.ownerID == ownerID {
			matched = append(matched, sub)
		}
	}
	return matched
}

func (m *Memory[E]) remove(target *memorySubscription[E]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sub := range m.subs {
		if sub == target {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			break
		}
	}
}

type memorySubscription[E any] struct {
	store   *Memory[E]
	ownerID string
	deltas  chan repo.Delta[E]
	once    sync.Once
}

func (s *memorySubscription[E]) Deltas() <-chan repo.Delta[E] { return s.deltas }

func (s *memorySubscription[E]) Unsubscribe() {
	s.once.Do(func() {
		s.store.remove(s)
		close(s.deltas)
	})
}

func (s *memorySubscription[E]) publish(d repo.Delta[E]) {
	defer func() {
		// A concurrent Unsubscribe may have closed the channel.
		recover()
	}()
	select {
	case s.deltas <- d:
	default:
	}
}
