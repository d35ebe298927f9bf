package merkle

import (
	"errors"
	"fmt"
)

type nodeRef struct {
	level, pos int
}

type nodeRefStack []nodeRef

func (s *nodeRefStack) push(n nodeRef) {
	*s = append(*s, n)
}

func (s *nodeRefStack) pop() (nodeRef, bool) {
	if len(*s) == 0 {
		return nodeRef{}, false
	}
	n := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return n, true
}

// DiffIter invokes f with the index and both digests of each leaf whose
// digest differs between old and t, in ascending index order. Subtrees
// with equal digests are skipped without being visited. Iteration stops
// early when f returns false or an error. Both trees must have the same
// number of leaves and the same digest size; old must not be nil.
func (t *Tree) DiffIter(old *Tree, f func(index int, leaf, oldLeaf Digest) (bool, error)) error {
	if old == nil {
		return errors.New("cannot diff against a nil tree")
	}
	if old.Len() != t.Len() {
		return fmt.Errorf("cannot diff %d leaves against %d", t.Len(), old.Len())
	}
	if old.hasher.Size() != t.hasher.Size() {
		return fmt.Errorf("%w: cannot diff %d-byte digests against %d", ErrDigestSize, t.hasher.Size(), old.hasher.Size())
	}
	stack := nodeRefStack{{level: t.Depth()}}
	for {
		n, ok := stack.pop()
		if !ok {
			return nil
		}
		d, oldD := t.levels[n.level][n.pos], old.levels[n.level][n.pos]
		if d.Equal(oldD) {
			continue
		}
		if n.level == 0 {
			keepGoing, err := f(n.pos, d, oldD)
			if err != nil {
				return fmt.Errorf("callback: %w", err)
			}
			if !keepGoing {
				return nil
			}
			continue
		}
		stack.push(nodeRef{n.level - 1, 2*n.pos + 1})
		stack.push(nodeRef{n.level - 1, 2 * n.pos})
	}
}
