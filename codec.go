package merkle

import (
	"encoding/binary"
	"errors"
	"fmt"
)

func appendLength(buf []byte, n int) []byte {
	var tmpbuf [binary.MaxVarintLen64]byte
	len := binary.PutUvarint(tmpbuf[:], uint64(n))
	return append(buf, tmpbuf[:len]...)
}

func decodeLength(buf []byte, n *int) ([]byte, error) {
	k, len := binary.Uvarint(buf)
	if len <= 0 {
		return nil, errors.New("bad length")
	}
	*n = int(k)
	return buf[len:], nil
}

// marshalLeafs encodes the leaf count and digest size as uvarints,
// followed by the digests back to back.
func marshalLeafs(leafs []Digest, size int) []byte {
	buf := make([]byte, 0, 2*binary.MaxVarintLen64+len(leafs)*size)
	buf = appendLength(buf, len(leafs))
	buf = appendLength(buf, size)
	for _, leaf := range leafs {
		buf = append(buf, leaf...)
	}
	return buf
}

func unmarshalLeafs(buf []byte, size int) ([]Digest, error) {
	var err error
	var count, encodedSize int
	buf, err = decodeLength(buf, &count)
	if err != nil {
		return nil, fmt.Errorf("leaf count: %w", err)
	}
	buf, err = decodeLength(buf, &encodedSize)
	if err != nil {
		return nil, fmt.Errorf("digest size: %w", err)
	}
	if encodedSize != size {
		return nil, fmt.Errorf("%w: stored %d bytes, hasher makes %d", ErrDigestSize, encodedSize, size)
	}
	if count < 0 || size <= 0 || count > len(buf)/size || len(buf) != count*size {
		return nil, fmt.Errorf("bad body length %d for %d leaves", len(buf), count)
	}
	path, err := ParsePath(buf, size)
	if err != nil {
		return nil, err
	}
	return []Digest(path), nil
}

// Bytes returns the path entries concatenated in order. Since every
// entry has the hasher's digest size, ParsePath can split them again.
func (p Path) Bytes() []byte {
	if len(p) == 0 {
		return nil
	}
	buf := make([]byte, 0, len(p)*len(p[0]))
	for _, d := range p {
		buf = append(buf, d...)
	}
	return buf
}

// ParsePath splits b into digests of the given size. The digests share
// b's memory.
func ParsePath(b []byte, size int) (Path, error) {
	if size <= 0 || len(b)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrDigestSize, len(b), size)
	}
	path := make(Path, len(b)/size)
	for i := range path {
		path[i] = Digest(b[i*size : (i+1)*size : (i+1)*size])
	}
	return path, nil
}
