package merkle

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Proof is an inclusion proof that can be sent on its own: the index of
// a leaf, its authentication path, and the root the path leads to.
type Proof struct {
	Index int
	Path  Path
	Root  Digest
}

var errNoRoot = errors.New("proof has no root")

const (
	proofIndexField protowire.Number = 1
	proofPathField  protowire.Number = 2
	proofRootField  protowire.Number = 3
)

// Verify checks that leaf hashes up to p.Root along p.Path.
func (p *Proof) Verify(h Hasher, leaf Digest) (bool, error) {
	return VerifyDigest(h, p.Root, p.Index, p.Path, leaf)
}

// MarshalBinary encodes the proof in protobuf wire format, as the
// message
//
//	message Proof {
//	  uint64 index = 1;
//	  repeated bytes path = 2;
//	  bytes root = 3;
//	}
func (p *Proof) MarshalBinary() ([]byte, error) {
	if p.Index < 0 {
		return nil, fmt.Errorf("%w: negative index %d", ErrIndexOutOfRange, p.Index)
	}
	if len(p.Root) == 0 {
		return nil, errNoRoot
	}
	var b []byte
	if p.Index != 0 {
		b = protowire.AppendTag(b, proofIndexField, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(p.Index))
	}
	for _, d := range p.Path {
		b = protowire.AppendTag(b, proofPathField, protowire.BytesType)
		b = protowire.AppendBytes(b, d)
	}
	b = protowire.AppendTag(b, proofRootField, protowire.BytesType)
	b = protowire.AppendBytes(b, p.Root)
	return b, nil
}

// UnmarshalBinary decodes a proof encoded by MarshalBinary. Unknown
// fields are skipped.
func (p *Proof) UnmarshalBinary(b []byte) error {
	var out Proof
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("proof tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == proofIndexField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("proof index: %w", protowire.ParseError(n))
			}
			if v > math.MaxInt {
				return fmt.Errorf("%w: index %d", ErrIndexOutOfRange, v)
			}
			out.Index = int(v)
			b = b[n:]
		case num == proofPathField && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("proof path: %w", protowire.ParseError(n))
			}
			out.Path = append(out.Path, Digest(append([]byte(nil), v...)))
			b = b[n:]
		case num == proofRootField && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("proof root: %w", protowire.ParseError(n))
			}
			out.Root = Digest(append([]byte(nil), v...))
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("proof field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	if len(out.Root) == 0 {
		return errNoRoot
	}
	*p = out
	return nil
}
