package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jrhy/merkle"
)

// Persist implements the merkle.Persist interface for storing and
// loading serialized trees as files.
type Persist struct {
	basepath string
}

// Load loads the bytes persisted in the named file. A missing file is
// reported as merkle.ErrNotFound.
func (p Persist) Load(ctx context.Context, name string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(p.basepath, name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", name, merkle.ErrNotFound)
	}
	return b, err
}

// Store persists the given bytes in a file of the given name, if it
// doesn't exist already. The file is written under a temporary name and
// renamed into place, so readers never see a partial tree.
func (p Persist) Store(ctx context.Context, name string, bytes []byte) error {
	path := filepath.Join(p.basepath, name)
	_, err := os.Stat(path)
	if !os.IsNotExist(err) {
		return err
	}
	tmp, err := os.CreateTemp(p.basepath, "."+name+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(bytes); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// NewPersistForPath returns a Persist that loads and stores trees as
// files in the directory at the given path.
//
//	p := NewPersistForPath("/var/db/commitments")
//	blob, err := p.Load(ctx, "m0Ka7tKz1Tl4Yy8vFYiA2Hc")
func NewPersistForPath(path string) Persist {
	return Persist{path}
}
