package merkle

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Config sets the hash primitive and element encoding of a Scheme. A nil
// Config, or zero fields, mean the defaults.
type Config struct {
	// Hasher for leaves and interior nodes, defaults to Blake2b512.
	Hasher Hasher

	// Marshal encodes an element before it is hashed into a leaf,
	// defaults to Serialize.
	Marshal func(interface{}) ([]byte, error)

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Scheme commits to sequences of elements of type E, and opens and
// verifies authentication paths against the resulting roots. A Scheme
// has no mutable state and may be shared between goroutines.
type Scheme[E any] struct {
	hasher  Hasher
	marshal func(interface{}) ([]byte, error)
	log     *zap.Logger
}

// NewScheme returns a Scheme configured by cfg, which may be nil.
func NewScheme[E any](cfg *Config) *Scheme[E] {
	s := Scheme[E]{
		hasher:  Blake2b512,
		marshal: defaultMarshal,
		log:     zap.NewNop(),
	}
	if cfg == nil {
		return &s
	}
	if cfg.Hasher != nil {
		s.hasher = cfg.Hasher
	}
	if cfg.Marshal != nil {
		s.marshal = cfg.Marshal
	}
	if cfg.Logger != nil {
		s.log = cfg.Logger
	}
	return &s
}

// Hasher returns the hash primitive of the scheme.
func (s *Scheme[E]) Hasher() Hasher {
	return s.hasher
}

// Leaf returns the leaf digest of element.
func (s *Scheme[E]) Leaf(element E) (Digest, error) {
	b, err := s.marshal(element)
	if err != nil {
		return nil, fmt.Errorf("marshal element: %w", err)
	}
	return s.hasher.Sum(b), nil
}

// Leaves returns the leaf digests of elements, in order.
func (s *Scheme[E]) Leaves(elements []E) ([]Digest, error) {
	leafs := make([]Digest, len(elements))
	for i, e := range elements {
		leaf, err := s.Leaf(e)
		if err != nil {
			return nil, fmt.Errorf("leaf %d: %w", i, err)
		}
		leafs[i] = leaf
	}
	return leafs, nil
}

// Commit returns the root digest binding the whole sequence of
// elements, whose length must be a power of two.
func (s *Scheme[E]) Commit(elements []E) (Digest, error) {
	if err := checkLength(len(elements)); err != nil {
		return nil, err
	}
	leafs, err := s.Leaves(elements)
	if err != nil {
		return nil, err
	}
	return commit(s.hasher, leafs), nil
}

// Open returns the authentication path of the element at index.
func (s *Scheme[E]) Open(index int, elements []E) (Path, error) {
	if err := checkLength(len(elements)); err != nil {
		return nil, err
	}
	if err := checkOpenIndex(index, len(elements)); err != nil {
		return nil, err
	}
	leafs, err := s.Leaves(elements)
	if err != nil {
		return nil, err
	}
	return open(s.hasher, index, leafs, make(Path, 0, depth(len(leafs)))), nil
}

// Verify reports whether element is at index in the sequence committed
// to by root, according to path. An invalid or tampered proof returns
// false with a nil error; errors are reserved for an index the path
// cannot address and elements that can't be marshaled.
func (s *Scheme[E]) Verify(root Digest, index int, path Path, element E) (bool, error) {
	if err := checkPathIndex(index, len(path)); err != nil {
		return false, err
	}
	leaf, err := s.Leaf(element)
	if err != nil {
		return false, err
	}
	return VerifyDigest(s.hasher, root, index, path, leaf)
}

// Build hashes elements into a Tree that keeps every interior digest,
// for serving many openings of the same sequence.
func (s *Scheme[E]) Build(elements []E) (*Tree, error) {
	if err := checkLength(len(elements)); err != nil {
		return nil, err
	}
	leafs, err := s.Leaves(elements)
	if err != nil {
		return nil, err
	}
	t := newTree(s.hasher, leafs)
	s.log.Debug("built tree",
		zap.Int("leaves", t.Len()),
		zap.Stringer("root", t.Root()))
	return t, nil
}

// Prove returns a self-contained Proof for the element at index.
func (s *Scheme[E]) Prove(index int, elements []E) (*Proof, error) {
	t, err := s.Build(elements)
	if err != nil {
		return nil, err
	}
	return t.Prove(index)
}

var defaultScheme = NewScheme[[]byte](nil)

// Commit returns the Blake2b512 root of elements.
func Commit(elements [][]byte) (Digest, error) {
	return defaultScheme.Commit(elements)
}

// Open returns the Blake2b512 authentication path of elements[index].
func Open(index int, elements [][]byte) (Path, error) {
	return defaultScheme.Open(index, elements)
}

// Verify checks a path produced by Open against a root produced by
// Commit.
func Verify(root Digest, index int, path Path, element []byte) (bool, error) {
	return defaultScheme.Verify(root, index, path, element)
}

// Persist is the interface for loading and storing serialized trees.
// The given string identity corresponds to the content, which is
// immutable (never modified).
type Persist interface {
	// Store makes the given bytes accessible by the given name.
	Store(context.Context, string, []byte) error
	// Load retrieves the previously-stored bytes by the given name.
	Load(context.Context, string) ([]byte, error)
}

// RemoteConfig controls how trees are persisted and loaded.
type RemoteConfig struct {
	// Hasher the tree was built with, defaults to Blake2b512.
	Hasher Hasher

	// StoreImmutablePartsWith is used to store and load serialized trees.
	StoreImmutablePartsWith Persist

	// TreeCache caches loaded trees and may be shared across many roots.
	TreeCache TreeCache

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Root identifies a committed sequence whose leaves are accessible in
// the persistent store.
type Root struct {
	Digest Digest
	Size   uint64
}
