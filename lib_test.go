package merkle

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/arbitrary"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var (
	ctx                     = context.Background()
	defaultGopterParameters = gopter.DefaultTestParameters()
)

func mustParse(t *testing.T, s string) Digest {
	d, err := ParseDigest(s)
	require.NoError(t, err)
	return d
}

// pow2Prefix truncates elements to the largest power-of-two length,
// keeping at least one element.
func pow2Prefix(elements []string) []string {
	if len(elements) == 0 {
		return []string{""}
	}
	n := 1
	for n*2 <= len(elements) {
		n *= 2
	}
	return elements[:n]
}

func TestABCD(t *testing.T) {
	t.Parallel()
	elements := []string{"a", "b", "c", "d"}
	s := NewScheme[string](nil)

	root, err := s.Commit(elements)
	require.NoError(t, err)
	assert.Equal(t, mustParse(t, "57148d9356c76fde4d7bfa73ff2ec024caec694252497ff1a0fb926085bbfda6063f0fcb759db2801851073709b79d5b38c0585a2d8c8e646152bf71c4e57a20"), root)

	path, err := s.Open(2, elements)
	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.Equal(t, mustParse(t, "0fddfe69251fd8b811a37bb45f8ef0c8485d3e60d84361d15701a5603b30cfcd572bd0bccd1e108dd697c7c53c492c188a42029b1b8a47c9ecf9ac311fc0a3e8"), path[0])
	assert.Equal(t, mustParse(t, "7027cee7ccfd7ba4ae5e281acfc6ad80e5dd2bc6300993c949c047979b9cccd50b321980da9325ea282773f606eb61509b791a31815f8057dd3535a80d071bf0"), path[1])

	ok, err := s.Verify(root, 2, path, "c")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Verify(root, 2, path, "x")
	require.NoError(t, err)
	assert.False(t, ok)

	// right path, wrong position
	for _, i := range []int{0, 1, 3} {
		ok, err = s.Verify(root, i, path, "c")
		require.NoError(t, err)
		assert.False(t, ok, "verified at %d", i)
	}
}

func TestPackageLevelMatchesScheme(t *testing.T) {
	t.Parallel()
	elements := [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d")}
	root, err := Commit(elements)
	require.NoError(t, err)
	schemeRoot, err := NewScheme[string](nil).Commit([]string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.Equal(t, schemeRoot, root)

	path, err := Open(1, elements)
	require.NoError(t, err)
	ok, err := Verify(root, 1, path, []byte("b"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSingleLeaf(t *testing.T) {
	t.Parallel()
	s := NewScheme[string](nil)
	root, err := s.Commit([]string{"x"})
	require.NoError(t, err)
	assert.Equal(t, mustParse(t, "0909377ad35110cafb2909e185672b7f2728d1f5094f8ad68d6fac6274bf1f499485a80ea364c04ed006d29459ea3cb7c600280e2f83e032529906f88ae30d0a"), root)

	path, err := s.Open(0, []string{"x"})
	require.NoError(t, err)
	assert.Empty(t, path)

	ok, err := s.Verify(root, 0, path, "x")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Verify(root, 0, path, "y")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Verify(root, 1, path, "x")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestRejectsNonPowerOfTwo(t *testing.T) {
	t.Parallel()
	s := NewScheme[int](nil)
	for _, n := range []int{0, 3, 5, 6, 7, 12} {
		elements := make([]int, n)
		_, err := s.Commit(elements)
		assert.ErrorIs(t, err, ErrNotPowerOfTwo, "commit %d", n)
		_, err = s.Open(0, elements)
		assert.ErrorIs(t, err, ErrNotPowerOfTwo, "open %d", n)
		_, err = s.Build(elements)
		assert.ErrorIs(t, err, ErrNotPowerOfTwo, "build %d", n)
		_, err = NewTree(Blake2b512, make([]Digest, n))
		assert.ErrorIs(t, err, ErrNotPowerOfTwo, "tree %d", n)
	}
}

func TestRejectsIndexOutOfRange(t *testing.T) {
	t.Parallel()
	s := NewScheme[int](nil)
	elements := []int{1, 2, 3, 4}
	for _, i := range []int{-1, 4, 100} {
		_, err := s.Open(i, elements)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "open %d", i)
	}
	root, err := s.Commit(elements)
	require.NoError(t, err)
	path, err := s.Open(0, elements)
	require.NoError(t, err)
	for _, i := range []int{-1, 4} {
		_, err := s.Verify(root, i, path, 1)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "verify %d", i)
	}

	tree, err := s.Build(elements)
	require.NoError(t, err)
	_, err = tree.Open(4)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = tree.LeafDigest(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestMarshalError(t *testing.T) {
	t.Parallel()
	s := NewScheme[interface{}](nil)
	_, err := s.Commit([]interface{}{"a", nil})
	assert.Error(t, err)
	_, err = s.Commit([]interface{}{"a", func() {}})
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	properties := gopter.NewProperties(defaultGopterParameters)
	arbitraries := arbitrary.DefaultArbitraries()
	s := NewScheme[string](nil)

	properties.Property("every opened element verifies",
		arbitraries.ForAll(
			func(elements []string, i uint) bool {
				elements = pow2Prefix(elements)
				index := int(i % uint(len(elements)))
				root, err := s.Commit(elements)
				require.NoError(t, err)
				path, err := s.Open(index, elements)
				require.NoError(t, err)
				if len(path) != depth(len(elements)) {
					return false
				}
				ok, err := s.Verify(root, index, path, elements[index])
				require.NoError(t, err)
				return ok
			}))
	properties.TestingRun(t)
}

func TestTamperedPathFails(t *testing.T) {
	t.Parallel()
	properties := gopter.NewProperties(defaultGopterParameters)
	s := NewScheme[uint64](&Config{Hasher: Blake2b256})

	properties.Property("flipping any path bit fails verification",
		prop.ForAll(
			func(logN uint, i uint, entry uint, bit uint) bool {
				n := 1 << (logN + 1)
				elements := make([]uint64, n)
				for k := range elements {
					elements[k] = uint64(k)
				}
				index := int(i % uint(n))
				root, err := s.Commit(elements)
				require.NoError(t, err)
				path, err := s.Open(index, elements)
				require.NoError(t, err)
				e := int(entry % uint(len(path)))
				tampered := append(Path(nil), path...)
				tampered[e] = append(Digest(nil), path[e]...)
				tampered[e][bit%32] ^= 1
				ok, err := s.Verify(root, index, tampered, elements[index])
				require.NoError(t, err)
				return !ok
			},
			gen.UIntRange(0, 7),
			gen.UInt(),
			gen.UInt(),
			gen.UIntRange(0, 255),
		))
	properties.TestingRun(t)
}

func TestSiblingIndexFails(t *testing.T) {
	t.Parallel()
	s := NewScheme[int](nil)
	elements := make([]int, 16)
	for i := range elements {
		elements[i] = i * i
	}
	root, err := s.Commit(elements)
	require.NoError(t, err)
	for i := range elements {
		path, err := s.Open(i, elements)
		require.NoError(t, err)
		ok, err := s.Verify(root, i^1, path, elements[i])
		require.NoError(t, err)
		assert.False(t, ok, "index %d verified at %d", i, i^1)
	}
}

func TestTreeMatchesOpen(t *testing.T) {
	t.Parallel()
	properties := gopter.NewProperties(defaultGopterParameters)
	arbitraries := arbitrary.DefaultArbitraries()
	s := NewScheme[string](&Config{Hasher: Blake2b256})

	properties.Property("tree paths equal recomputed paths",
		arbitraries.ForAll(
			func(elements []string) bool {
				elements = pow2Prefix(elements)
				tree, err := s.Build(elements)
				require.NoError(t, err)
				root, err := s.Commit(elements)
				require.NoError(t, err)
				if !tree.Root().Equal(root) {
					return false
				}
				for i := range elements {
					want, err := s.Open(i, elements)
					require.NoError(t, err)
					got, err := tree.Open(i)
					require.NoError(t, err)
					if !assert.Equal(t, want.Bytes(), got.Bytes()) {
						return false
					}
				}
				return true
			}))
	properties.TestingRun(t)
}

func TestDigestFunctions(t *testing.T) {
	t.Parallel()
	leafs := make([]Digest, 8)
	for i := range leafs {
		leafs[i] = Blake2b512.Sum([]byte{byte(i)})
	}
	root, err := CommitDigests(Blake2b512, leafs)
	require.NoError(t, err)
	tree, err := NewTree(Blake2b512, leafs)
	require.NoError(t, err)
	assert.Equal(t, root, tree.Root())
	assert.Equal(t, 3, tree.Depth())

	path, err := OpenDigests(Blake2b512, 5, leafs)
	require.NoError(t, err)
	ok, err := VerifyDigest(Blake2b512, root, 5, path, leafs[5])
	require.NoError(t, err)
	assert.True(t, ok)

	// NewTree copies its input
	leafs[0] = Blake2b512.Sum([]byte("changed"))
	leaf, err := tree.LeafDigest(0)
	require.NoError(t, err)
	assert.Equal(t, Blake2b512.Sum([]byte{0}), leaf)
}

func TestDiffIter(t *testing.T) {
	t.Parallel()
	s := NewScheme[int](nil)
	oldElements := make([]int, 32)
	newElements := make([]int, 32)
	for i := range oldElements {
		oldElements[i] = i
		newElements[i] = i
	}
	newElements[3] = -3
	newElements[17] = -17
	newElements[18] = -18
	old, err := s.Build(oldElements)
	require.NoError(t, err)
	new, err := s.Build(newElements)
	require.NoError(t, err)

	var changed []int
	err = new.DiffIter(old, func(index int, leaf, oldLeaf Digest) (bool, error) {
		l, err := s.Leaf(newElements[index])
		require.NoError(t, err)
		assert.Equal(t, l, leaf)
		l, err = s.Leaf(oldElements[index])
		require.NoError(t, err)
		assert.Equal(t, l, oldLeaf)
		changed = append(changed, index)
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 17, 18}, changed)

	changed = nil
	err = new.DiffIter(old, func(index int, leaf, oldLeaf Digest) (bool, error) {
		changed = append(changed, index)
		return len(changed) < 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 17}, changed)

	err = new.DiffIter(new, func(int, Digest, Digest) (bool, error) {
		t.Fatal("identical trees differ")
		return false, nil
	})
	require.NoError(t, err)

	boom := fmt.Errorf("boom")
	err = new.DiffIter(old, func(int, Digest, Digest) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Error(t, new.DiffIter(nil, func(int, Digest, Digest) (bool, error) { return true, nil }))

	small, err := s.Build(oldElements[:16])
	require.NoError(t, err)
	assert.Error(t, new.DiffIter(small, func(int, Digest, Digest) (bool, error) { return true, nil }))
}

func TestLeafCodec(t *testing.T) {
	t.Parallel()
	leafs := []Digest{Blake2b256.Sum([]byte("a")), Blake2b256.Sum([]byte("b"))}
	b := marshalLeafs(leafs, Blake2b256.Size())
	decoded, err := unmarshalLeafs(b, Blake2b256.Size())
	require.NoError(t, err)
	assert.Equal(t, leafs, decoded)

	_, err = unmarshalLeafs(b, Blake2b512.Size())
	assert.ErrorIs(t, err, ErrDigestSize)
	_, err = unmarshalLeafs(b[:len(b)-1], Blake2b256.Size())
	assert.Error(t, err)
	_, err = unmarshalLeafs(nil, Blake2b256.Size())
	assert.Error(t, err)

	// a count whose byte length wraps around must not pass for an empty body
	hostile := appendLength(nil, 1<<58)
	hostile = appendLength(hostile, Blake2b512.Size())
	_, err = unmarshalLeafs(hostile, Blake2b512.Size())
	assert.Error(t, err)
}

func TestPathBytes(t *testing.T) {
	t.Parallel()
	s := NewScheme[string](nil)
	elements := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	path, err := s.Open(6, elements)
	require.NoError(t, err)
	b := path.Bytes()
	assert.Len(t, b, 3*Blake2b512.Size())
	parsed, err := ParsePath(b, Blake2b512.Size())
	require.NoError(t, err)
	assert.Equal(t, path, parsed)

	empty, err := ParsePath(nil, Blake2b512.Size())
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParsePath(b[1:], Blake2b512.Size())
	assert.ErrorIs(t, err, ErrDigestSize)
}

func TestProofWire(t *testing.T) {
	t.Parallel()
	s := NewScheme[string](nil)
	elements := []string{"a", "b", "c", "d"}
	proof, err := s.Prove(3, elements)
	require.NoError(t, err)

	b, err := proof.MarshalBinary()
	require.NoError(t, err)
	// an unknown field appended by a newer writer
	b = protowire.AppendTag(b, 15, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("ignored"))

	var decoded Proof
	require.NoError(t, decoded.UnmarshalBinary(b))
	assert.Equal(t, *proof, decoded)

	leaf, err := s.Leaf("d")
	require.NoError(t, err)
	ok, err := decoded.Verify(s.Hasher(), leaf)
	require.NoError(t, err)
	assert.True(t, ok)

	// the root digest alone
	single := Proof{Root: leaf}
	b, err = single.MarshalBinary()
	require.NoError(t, err)
	decoded = Proof{}
	require.NoError(t, decoded.UnmarshalBinary(b))
	assert.Equal(t, 0, decoded.Index)
	assert.Empty(t, decoded.Path)

	_, err = (&Proof{Index: -1, Root: leaf}).MarshalBinary()
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = (&Proof{}).MarshalBinary()
	assert.Error(t, err)
	assert.Error(t, decoded.UnmarshalBinary([]byte{0x08}))
	assert.Error(t, decoded.UnmarshalBinary(nil))
}

type point struct {
	X, Y int
}

func TestSerialize(t *testing.T) {
	t.Parallel()
	b, err := Serialize("abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), b)

	b, err = Serialize(uint16(0x0102))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)

	b, err = Serialize(-1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, b)

	b, err = Serialize(point{1, 2})
	require.NoError(t, err)
	assert.Equal(t, `{"X":1,"Y":2}`, string(b))

	msg := wrapperspb.String("hello")
	b, err = Serialize(msg)
	require.NoError(t, err)
	want, err := proto.Marshal(msg)
	require.NoError(t, err)
	assert.Equal(t, want, b)

	_, err = Serialize(nil)
	assert.Error(t, err)
}

func TestProtoElements(t *testing.T) {
	t.Parallel()
	s := NewScheme[*wrapperspb.UInt64Value](nil)
	elements := []*wrapperspb.UInt64Value{wrapperspb.UInt64(1), wrapperspb.UInt64(2)}
	root, err := s.Commit(elements)
	require.NoError(t, err)
	path, err := s.Open(1, elements)
	require.NoError(t, err)
	ok, err := s.Verify(root, 1, path, wrapperspb.UInt64(2))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCustomMarshal(t *testing.T) {
	t.Parallel()
	calls := 0
	s := NewScheme[point](&Config{
		Marshal: func(i interface{}) ([]byte, error) {
			calls++
			p := i.(point)
			return []byte{byte(p.X), byte(p.Y)}, nil
		},
	})
	root, err := s.Commit([]point{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	want := Blake2b512.Sum(Blake2b512.Sum([]byte{1, 2}), Blake2b512.Sum([]byte{3, 4}))
	assert.Equal(t, want, root)
}

func TestBuildLogs(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.DebugLevel)
	s := NewScheme[string](&Config{Logger: zap.New(core)})
	tree, err := s.Build([]string{"a", "b"})
	require.NoError(t, err)
	entries := logs.FilterMessage("built tree").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(2), fields["leaves"])
	assert.Equal(t, tree.Root().String(), fields["root"])
}
