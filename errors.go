package merkle

import "errors"

var (
	// ErrNotPowerOfTwo is returned when a leaf sequence is empty or its
	// length is not a power of two.
	ErrNotPowerOfTwo = errors.New("length must be a power of two")
	// ErrIndexOutOfRange is returned for an index outside the leaves, or
	// outside what an authentication path can address.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrDigestSize is returned when encoded digests don't divide into the
	// hasher's digest size.
	ErrDigestSize = errors.New("wrong digest size")
	// ErrRootMismatch is returned when a loaded tree doesn't hash to the
	// root it was stored under.
	ErrRootMismatch = errors.New("root mismatch")
	// ErrNotFound is returned by a Persist that has nothing stored under
	// the requested name.
	ErrNotFound = errors.New("not found")
)
