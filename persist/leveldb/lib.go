package leveldb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrhy/merkle"
	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Persist implements the merkle.Persist interface for storing and
// loading serialized trees in a LevelDB database.
type Persist struct {
	db     *leveldb.DB
	prefix []byte
}

// Open opens, or creates, the LevelDB database at path. Tree names are
// stored under the given key prefix so the database can be shared.
func Open(path, prefix string) (*Persist, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Persist{db: db, prefix: []byte(prefix)}, nil
}

func (p *Persist) key(name string) []byte {
	return append(append([]byte(nil), p.prefix...), name...)
}

// Close closes the database.
func (p *Persist) Close() error {
	return p.db.Close()
}

// Load loads the bytes persisted under name. A missing key is reported
// as merkle.ErrNotFound.
func (p *Persist) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, err := p.db.Get(p.key(name), nil)
	if errors.Is(err, lerrors.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", name, merkle.ErrNotFound)
	}
	return value, err
}

// Store persists the given bytes under name, if not present already.
func (p *Persist) Store(ctx context.Context, name string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := p.key(name)
	has, err := p.db.Has(key, nil)
	if err != nil || has {
		return err
	}
	return p.db.Put(key, value, &opt.WriteOptions{Sync: true})
}
