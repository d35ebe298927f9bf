package merkle

import (
	"bytes"
	"fmt"
	"math/bits"
)

// Path is an authentication path: the sibling digests met walking from
// a leaf up to the root, starting with the leaf's own sibling.
type Path []Digest

func isPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func checkLength(n int) error {
	if !isPow2(n) {
		return fmt.Errorf("%w: got %d leaves", ErrNotPowerOfTwo, n)
	}
	return nil
}

func checkOpenIndex(index, n int) error {
	if index < 0 || index >= n {
		return fmt.Errorf("%w: cannot open index %d of %d leaves", ErrIndexOutOfRange, index, n)
	}
	return nil
}

// checkPathIndex requires index to be addressable by a path of the given
// depth, i.e. 0 <= index < 2^depth.
func checkPathIndex(index, depth int) error {
	if index < 0 || (depth < bits.UintSize-1 && index >= 1<<depth) {
		return fmt.Errorf("%w: cannot verify index %d with a path of length %d", ErrIndexOutOfRange, index, depth)
	}
	return nil
}

// depth returns log2(n) for a power of two n.
func depth(n int) int {
	return bits.TrailingZeros(uint(n))
}

// CommitDigests folds a sequence of leaf digests into its root. A
// single leaf is its own root.
func CommitDigests(h Hasher, leafs []Digest) (Digest, error) {
	if err := checkLength(len(leafs)); err != nil {
		return nil, err
	}
	return commit(h, leafs), nil
}

func commit(h Hasher, leafs []Digest) Digest {
	if len(leafs) == 1 {
		return leafs[0]
	}
	mid := len(leafs) / 2
	return h.Sum(commit(h, leafs[:mid]), commit(h, leafs[mid:]))
}

// OpenDigests returns the authentication path for the leaf at index.
// Each sibling subtree is recommitted, so this costs O(n) hashes; see
// Tree.Open for repeated openings of the same leaves.
func OpenDigests(h Hasher, index int, leafs []Digest) (Path, error) {
	if err := checkLength(len(leafs)); err != nil {
		return nil, err
	}
	if err := checkOpenIndex(index, len(leafs)); err != nil {
		return nil, err
	}
	return open(h, index, leafs, make(Path, 0, depth(len(leafs)))), nil
}

// open appends the path for index to path, innermost sibling first.
func open(h Hasher, index int, leafs []Digest, path Path) Path {
	switch len(leafs) {
	case 1:
		return path
	case 2:
		return append(path, leafs[1-index])
	}
	mid := len(leafs) / 2
	if index < mid {
		path = open(h, index, leafs[:mid], path)
		return append(path, commit(h, leafs[mid:]))
	}
	path = open(h, index-mid, leafs[mid:], path)
	return append(path, commit(h, leafs[:mid]))
}

// VerifyDigest reports whether folding leaf with path, as directed by the
// bits of index, reproduces root. A mismatch is not an error.
func VerifyDigest(h Hasher, root Digest, index int, path Path, leaf Digest) (bool, error) {
	if err := checkPathIndex(index, len(path)); err != nil {
		return false, err
	}
	if len(path) == 0 {
		return bytes.Equal(leaf, root), nil
	}
	return verify(h, root, index, path, leaf), nil
}

func verify(h Hasher, root Digest, index int, path Path, leaf Digest) bool {
	var parent Digest
	if index%2 == 0 {
		parent = h.Sum(leaf, path[0])
	} else {
		parent = h.Sum(path[0], leaf)
	}
	if len(path) == 1 {
		return bytes.Equal(root, parent)
	}
	return verify(h, root, index>>1, path[1:], parent)
}
