package notification

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dynamicaqs/crm-engine/internal/types"
)

// MemoryStore implements Store using in-memory slices.
// Mutations take the write lock; queries take the read lock and return
// copies, so readers never observe a partial write.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []types.Notification // insertion order, the tie-break for Query
	index   map[string]int       // id → position in entries
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: make(map[string]int)}
}

func (s *MemoryStore) Add(_ context.Context, n types.Notification) (types.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if _, exists := s.index[n.ID]; exists {
		return types.Notification{}, fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
	}

	n, err := normalize(n, time.Now().UTC())
	if err != nil {
		return types.Notification{}, err
	}
	n.Metadata = copyMetadata(n.Metadata)

	s.index[n.ID] = len(s.entries)
	s.entries = append(s.entries, n)
	return copyNotification(n), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (types.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		return types.Notification{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return copyNotification(s.entries[pos]), nil
}

func (s *MemoryStore) MarkRead(_ context.Context, id string) error {
	return s.mutate(id, func(n *types.Notification) bool {
		if n.Read {
			return false
		}
		n.Read = true
		return true
	})
}

func (s *MemoryStore) Archive(_ context.Context, id string) error {
	return s.mutate(id, func(n *types.Notification) bool {
		if n.Archived {
			return false
		}
		n.Archived = true
		return true
	})
}

func (s *MemoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.entries = append(s.entries[:pos], s.entries[pos+1:]...)
	delete(s.index, id)
	for i := pos; i < len(s.entries); i++ {
		s.index[s.entries[i].ID] = i
	}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, f Filter) ([]types.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []types.Notification
	for _, n := range s.entries {
		if f.matches(n) {
			matched = append(matched, copyNotification(n))
		}
	}

	// Stable sort keeps insertion order for equal timestamps.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if limit := f.limit(); len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *MemoryStore) TagEscalated(_ context.Context, id, ruleID string) error {
	return s.mutate(id, func(n *types.Notification) bool {
		if n.Metadata == nil {
			n.Metadata = make(map[string]any)
		}
		n.Metadata["escalated"] = true
		n.Metadata["escalatedBy"] = ruleID
		return true
	})
}

// mutate applies fn under the write lock and bumps UpdatedAt when fn
// reports an actual change.
func (s *MemoryStore) mutate(id string, fn func(*types.Notification) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	n := &s.entries[pos]
	if fn(n) {
		n.UpdatedAt = time.Now().UTC()
		if n.UpdatedAt.Before(n.CreatedAt) {
			n.UpdatedAt = n.CreatedAt
		}
	}
	return nil
}

func copyNotification(n types.Notification) types.Notification {
	n.Metadata = copyMetadata(n.Metadata)
	return n
}

func copyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
