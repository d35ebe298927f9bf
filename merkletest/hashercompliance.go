// Package merkletest checks that a merkle.Hasher behaves the way commit,
// open and verify rely on.
package merkletest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/jrhy/merkle"
	"github.com/stretchr/testify/require"
)

type HasherFactory func() merkle.Hasher

func TestHasherCompliance(t *testing.T, f HasherFactory) {
	t.Run("sum is deterministic", func(t *testing.T) {
		t.Parallel()

		h := f()
		require.Equal(t, h.Sum([]byte("deterministic_data")), h.Sum([]byte("deterministic_data")))
		require.Equal(t, f().Sum([]byte("deterministic_data")), h.Sum([]byte("deterministic_data")))
	})

	t.Run("sum has the advertised size", func(t *testing.T) {
		t.Parallel()

		h := f()
		require.Positive(t, h.Size())
		require.Len(t, h.Sum(), h.Size())
		require.Len(t, h.Sum([]byte("a")), h.Size())
		require.Len(t, h.Sum(make([]byte, 3*h.Size()), []byte("b")), h.Size())
	})

	t.Run("sum hashes the concatenation", func(t *testing.T) {
		t.Parallel()

		h := f()
		require.Equal(t, h.Sum([]byte("helloworld")), h.Sum([]byte("hello"), []byte("world")))
		require.Equal(t, h.Sum([]byte("helloworld")), h.Sum([]byte("hel"), nil, []byte("lowo"), []byte("rld")))
	})

	t.Run("sum respects order", func(t *testing.T) {
		t.Parallel()

		h := f()
		l := h.Sum([]byte("left"))
		r := h.Sum([]byte("right"))
		require.NotEqual(t, h.Sum(l, r), h.Sum(r, l))
	})

	t.Run("sum does not retain its inputs", func(t *testing.T) {
		t.Parallel()

		h := f()
		in := []byte("mutable")
		d := h.Sum(in)
		want := append(merkle.Digest(nil), d...)
		in[0] = 'M'
		require.Equal(t, want, d)
	})

	t.Run("sum is safe for concurrent use", func(t *testing.T) {
		t.Parallel()

		h := f()
		want := make([]merkle.Digest, 16)
		for i := range want {
			want[i] = h.Sum([]byte(fmt.Sprint(i)))
		}
		got := make([]merkle.Digest, len(want))
		var wg sync.WaitGroup
		for i := range got {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					got[i] = h.Sum([]byte(fmt.Sprint(i)))
				}
			}(i)
		}
		wg.Wait()
		require.Equal(t, want, got)
	})
}
