package merkle

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"
)

// Name returns the name the committed leaves are stored under: the
// URL-safe base64 of the root digest.
func (r *Root) Name() string {
	return base64.RawURLEncoding.EncodeToString(r.Digest)
}

// Save writes the tree's leaf digests to persist, unless cache says
// they are already there, and returns the Root to load them by.
func (t *Tree) Save(ctx context.Context, persist Persist, cache TreeCache) (*Root, error) {
	root := t.rootRef()
	name := root.Name()
	if cache != nil && cache.Contains(name) {
		return root, nil
	}
	err := persist.Store(ctx, name, marshalLeafs(t.levels[0], t.hasher.Size()))
	if err != nil {
		return nil, fmt.Errorf("persist store: %w", err)
	}
	if cache != nil {
		cache.Add(name, t)
	}
	return root, nil
}

// LoadTree loads the leaves committed to by r and rebuilds the tree.
// The rebuilt root must equal r.Digest, so a corrupt or substituted
// store is detected before any path is served.
func (r *Root) LoadTree(ctx context.Context, config *RemoteConfig) (*Tree, error) {
	if config == nil || config.StoreImmutablePartsWith == nil {
		return nil, fmt.Errorf("no persistence mechanism set; set RemoteConfig.StoreImmutablePartsWith")
	}
	h := config.Hasher
	if h == nil {
		h = Blake2b512
	}
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}
	name := r.Name()
	if config.TreeCache != nil {
		if cached, ok := config.TreeCache.Get(name); ok {
			t := cached.(*Tree)
			if err := r.check(name, t.Len(), t.hasher.Size(), h.Size()); err != nil {
				return nil, err
			}
			log.Debug("tree cache hit", zap.String("name", name))
			return t, nil
		}
	}
	b, err := config.StoreImmutablePartsWith.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("persist load %s: %w", name, err)
	}
	leafs, err := unmarshalLeafs(b, h.Size())
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", name, err)
	}
	if err := r.check(name, len(leafs), h.Size(), h.Size()); err != nil {
		return nil, err
	}
	if err := checkLength(len(leafs)); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	t := newTree(h, leafs)
	if !t.Root().Equal(r.Digest) {
		return nil, fmt.Errorf("%w: %s rebuilt as %s", ErrRootMismatch, name, t.Root())
	}
	log.Debug("loaded tree", zap.String("name", name), zap.Int("leaves", t.Len()))
	if config.TreeCache != nil {
		config.TreeCache.Add(name, t)
	}
	return t, nil
}

// check requires a tree of the given leaf count and digest size to match r
// and the configured hasher.
func (r *Root) check(name string, leaves, size, wantSize int) error {
	if size != wantSize {
		return fmt.Errorf("%w: %s has %d-byte digests, hasher makes %d", ErrDigestSize, name, size, wantSize)
	}
	if uint64(leaves) != r.Size {
		return fmt.Errorf("%s has %d leaves, expected %d", name, leaves, r.Size)
	}
	return nil
}
