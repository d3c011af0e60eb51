package diagnostics

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// PebbleStore persists reports in a Pebble key/value store.
//
// Key layout:
//
//	report/<registry>/<created_at unix nanos, zero padded>/<id> -> JSON report
//	id/<id>                                                    -> report key
type PebbleStore struct {
	db     *pebble.DB
	mu     sync.RWMutex
	closed bool
}

// NewPebbleStore opens (or creates) a Pebble store in dir.
// Passing ":memory:" keeps the store in memory, which is useful for tests.
func NewPebbleStore(dir string) (*PebbleStore, error) {
	opts := &pebble.Options{}
	if dir == ":memory:" {
		opts.FS = vfs.NewMem()
		dir = ""
	}

	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

// Save implements Store.
func (p *PebbleStore) Save(report Report) error {
	if report.ID == "" {
		return ErrMissingID
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrStoreClosed
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	// Drop the previous position of this report so List doesn't see it twice.
	prev, closer, err := p.db.Get(idKey(report.ID))
	switch {
	case err == nil:
		old := append([]byte(nil), prev...)
		closer.Close()
		if err := batch.Delete(old, nil); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
	case !errors.Is(err, pebble.ErrNotFound):
		return fmt.Errorf("save report: %w", err)
	}

	key := reportKey(report)
	if err := batch.Set(key, data, nil); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	if err := batch.Set(idKey(report.ID), key, nil); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// Load implements Store.
func (p *PebbleStore) Load(id string) (Report, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return Report{}, ErrStoreClosed
	}

	key, err := p.get(idKey(id))
	if err != nil {
		return Report{}, err
	}
	data, err := p.get(key)
	if err != nil {
		return Report{}, err
	}
	return decodeReport(data)
}

// List implements Store.
func (p *PebbleStore) List(registry string) ([]Report, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrStoreClosed
	}

	prefix := registryPrefix(registry)
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: append(append([]byte(nil), prefix...), 0xff),
	})
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer iter.Close()

	var out []Report
	for iter.First(); iter.Valid(); iter.Next() {
		r, err := decodeReport(iter.Value())
		if err != nil {
			return nil, err
		}
		// Names containing '/' can share a prefix with another registry.
		if r.Registry != registry {
			continue
		}
		out = append(out, r)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

// Delete implements Store.
func (p *PebbleStore) Delete(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrStoreClosed
	}

	key, err := p.get(idKey(id))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	batch := p.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(key, nil); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if err := batch.Delete(idKey(id), nil); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}

// Close implements Store.
func (p *PebbleStore) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	return p.db.Close()
}

// get returns a copy of the value stored at key.
func (p *PebbleStore) get(key []byte) ([]byte, error) {
	val, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	defer closer.Close()
	return append([]byte(nil), val...), nil
}

func registryPrefix(registry string) []byte {
	return []byte("report/" + registry + "/")
}

func reportKey(r Report) []byte {
	return []byte(fmt.Sprintf("report/%s/%020d/%s", r.Registry, r.CreatedAt.UnixNano(), r.ID))
}

func idKey(id string) []byte {
	return []byte("id/" + id)
}
