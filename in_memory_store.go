package merkle

import (
	"context"
	"fmt"
	"sync"
)

type inMemoryStore struct {
	entries map[string][]byte
	l       sync.RWMutex
}

// NewInMemoryStore provides a Persist that keeps serialized trees in a
// map, usually for testing.
func NewInMemoryStore() Persist {
	return &inMemoryStore{entries: map[string][]byte{}}
}

func (ims *inMemoryStore) Store(ctx context.Context, name string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ims.l.Lock()
	defer ims.l.Unlock()
	if _, ok := ims.entries[name]; !ok {
		ims.entries[name] = append([]byte(nil), value...)
	}
	return nil
}

func (ims *inMemoryStore) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ims.l.RLock()
	value, ok := ims.entries[name]
	ims.l.RUnlock()
	if !ok {
		return nil, fmt.Errorf("inMemoryStore %s: %w", name, ErrNotFound)
	}
	return append([]byte(nil), value...), nil
}
