package merkle

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/minio/blake2b-simd"
)

// Digest is the fixed-length output of a Hasher.
type Digest []byte

// String returns the digest in hex.
func (d Digest) String() string {
	return hex.EncodeToString(d)
}

// Equal reports whether both digests have the same bytes.
func (d Digest) Equal(o Digest) bool {
	return bytes.Equal(d, o)
}

// ParseDigest decodes a hex digest, such as one produced by Digest.String.
func ParseDigest(s string) (Digest, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("parse digest: %w", err)
	}
	return Digest(b), nil
}

// Hasher is the hash primitive a tree is built with. Leaves are the
// Sum of an element's serialized bytes; interior nodes are the Sum of
// their left and right children's digests, in that order.
//
// Hasher methods must be safe to call concurrently.
type Hasher interface {
	// Size is the length of every digest returned by Sum.
	Size() int
	// Sum returns the digest of the concatenation of parts.
	Sum(parts ...[]byte) Digest
}

type streamHasher struct {
	newHash func() hash.Hash
	size    int
}

// NewHasher adapts a streaming hash constructor, like sha256.New, into
// a Hasher. A fresh hash.Hash is used for every Sum.
func NewHasher(newHash func() hash.Hash) Hasher {
	return streamHasher{newHash, newHash().Size()}
}

func (h streamHasher) Size() int {
	return h.size
}

func (h streamHasher) Sum(parts ...[]byte) Digest {
	d := h.newHash()
	for _, p := range parts {
		_, _ = d.Write(p)
	}
	return d.Sum(make([]byte, 0, h.size))
}

var (
	// Blake2b512 is the default Hasher, with 64-byte digests.
	Blake2b512 = NewHasher(blake2b.New512)
	// Blake2b256 has 32-byte digests.
	Blake2b256 = NewHasher(blake2b.New256)
)
