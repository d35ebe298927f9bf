package merkle

import lru "github.com/hashicorp/golang-lru"

// TreeCache caches trees loaded from a remote storage source, keyed by
// the name they are stored under. It is also used to avoid re-storing
// trees, so care should be taken to switch/invalidate the TreeCache when
// the Persist is changed.
type TreeCache interface {
	// Add adds a freshly-persisted or freshly-loaded tree to the cache.
	Add(key, value interface{})
	// Contains indicates the tree with the given key has already been persisted.
	Contains(key interface{}) bool
	// Get retrieves the already-built tree stored under the given key, if cached.
	Get(key interface{}) (value interface{}, ok bool)
}

// NewTreeCache creates a new LRU-based tree cache of the given size. One
// cache can be shared by any number of roots.
func NewTreeCache(size int) TreeCache {
	cache, err := lru.NewARC(size)
	if err != nil {
		panic(err)
	}
	return cache
}
