package merkle

import "fmt"

// Tree is a committed sequence with every interior digest kept, so
// that opening any leaf costs no hashing. Its roots and paths are
// identical to those of Commit and Open over the same leaves.
//
// A Tree is never modified after it is built and may be shared between
// goroutines.
type Tree struct {
	hasher Hasher
	// levels[0] holds the leaf digests, and each following level half
	// as many parents, ending with the root alone.
	levels [][]Digest
}

// NewTree builds a Tree over already-hashed leaves.
func NewTree(h Hasher, leafs []Digest) (*Tree, error) {
	if err := checkLength(len(leafs)); err != nil {
		return nil, err
	}
	return newTree(h, append([]Digest(nil), leafs...)), nil
}

// newTree takes ownership of leafs, whose length must be a power of two.
func newTree(h Hasher, leafs []Digest) *Tree {
	levels := make([][]Digest, 1, depth(len(leafs))+1)
	levels[0] = leafs
	for level := leafs; len(level) > 1; {
		parents := make([]Digest, len(level)/2)
		for i := range parents {
			parents[i] = h.Sum(level[2*i], level[2*i+1])
		}
		levels = append(levels, parents)
		level = parents
	}
	return &Tree{h, levels}
}

// Hasher returns the hash primitive the tree was built with.
func (t *Tree) Hasher() Hasher {
	return t.hasher
}

// Root returns the digest committing to all the leaves.
func (t *Tree) Root() Digest {
	return t.levels[len(t.levels)-1][0]
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.levels[0])
}

// Depth returns the number of levels between the leaves and root, which
// is also the length of every authentication path.
func (t *Tree) Depth() int {
	return len(t.levels) - 1
}

// LeafDigest returns the digest of the leaf at index.
func (t *Tree) LeafDigest(index int) (Digest, error) {
	if err := checkOpenIndex(index, t.Len()); err != nil {
		return nil, err
	}
	return t.levels[0][index], nil
}

// Open returns the authentication path of the leaf at index.
func (t *Tree) Open(index int) (Path, error) {
	if err := checkOpenIndex(index, t.Len()); err != nil {
		return nil, err
	}
	path := make(Path, t.Depth())
	for k := range path {
		path[k] = t.levels[k][(index>>k)^1]
	}
	return path, nil
}

// Prove returns a self-contained Proof for the leaf at index.
func (t *Tree) Prove(index int) (*Proof, error) {
	path, err := t.Open(index)
	if err != nil {
		return nil, err
	}
	return &Proof{Index: index, Path: path, Root: t.Root()}, nil
}

func (t *Tree) rootRef() *Root {
	return &Root{Digest: t.Root(), Size: uint64(t.Len())}
}

func (t *Tree) String() string {
	return fmt.Sprintf("Tree(%d leaves, root %s)", t.Len(), t.Root())
}
