package incident

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/uptrack/uptrack/internal/uterr"
	api "github.com/uptrack/uptrack/lib-uptrack"
	bolt "go.etcd.io/bbolt"
)

// Persister stores the Document.
//
// Errors of the storage itself match api.ErrStorageUnavailable.
type Persister interface {
	// Update loads the document and calls fn with it.
	// The changes by fn are saved only if fn returns nil, and no other Update can interleave.
	Update(ctx context.Context, fn func(*Document) error) error

	// View loads the document and calls fn with it.
	// fn must not modify the document.
	View(ctx context.Context, fn func(*Document) error) error

	Close() error
}

func unavailable(err error, format string, args ...interface{}) error {
	return uterr.New(api.ErrStorageUnavailable, err, format, args...)
}

func decodeDocument(raw []byte) (*Document, error) {
	d := NewDocument()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, d); err != nil {
			return nil, err
		}
	}
	d.normalize()
	return d, nil
}

// MemoryPersister keeps the Document in the process memory.
type MemoryPersister struct {
	sync.RWMutex

	doc *Document
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{doc: NewDocument()}
}

func (p *MemoryPersister) Update(ctx context.Context, fn func(*Document) error) error {
	p.Lock()
	defer p.Unlock()

	d := p.doc.clone()
	if err := fn(d); err != nil {
		return err
	}
	p.doc = d

	return nil
}

func (p *MemoryPersister) View(ctx context.Context, fn func(*Document) error) error {
	p.RLock()
	defer p.RUnlock()

	return fn(p.doc)
}

func (p *MemoryPersister) Close() error {
	return nil
}

// FilePersister stores the Document as a JSON file.
//
// The file is replaced atomically by writing a temporary file and renaming it.
type FilePersister struct {
	sync.RWMutex

	path string
}

func NewFilePersister(path string) (*FilePersister, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, unavailable(err, "failed to prepare incidents directory")
	}
	return &FilePersister{path: path}, nil
}

func (p *FilePersister) load() (*Document, error) {
	raw, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewDocument(), nil
	} else if err != nil {
		return nil, unavailable(err, "failed to read incidents")
	}

	d, err := decodeDocument(raw)
	if err != nil {
		return nil, unavailable(err, "failed to decode incidents")
	}
	return d, nil
}

func (p *FilePersister) save(d *Document) error {
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(p.path), ".incidents-*.tmp")
	if err != nil {
		return unavailable(err, "failed to create temporary file")
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(raw); err != nil {
		f.Close()
		return unavailable(err, "failed to write incidents")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return unavailable(err, "failed to write incidents")
	}
	if err := f.Close(); err != nil {
		return unavailable(err, "failed to write incidents")
	}

	if err := os.Rename(f.Name(), p.path); err != nil {
		return unavailable(err, "failed to replace incidents")
	}

	return nil
}

func (p *FilePersister) Update(ctx context.Context, fn func(*Document) error) error {
	p.Lock()
	defer p.Unlock()

	d, err := p.load()
	if err != nil {
		return err
	}

	if err := fn(d); err != nil {
		return err
	}

	return p.save(d)
}

func (p *FilePersister) View(ctx context.Context, fn func(*Document) error) error {
	p.RLock()
	defer p.RUnlock()

	d, err := p.load()
	if err != nil {
		return err
	}

	return fn(d)
}

func (p *FilePersister) Close() error {
	return nil
}

var (
	incidentsBucket = []byte("incidents")
	documentKey     = []byte("document")
)

// BoltPersister stores the Document in a bbolt database.
//
// Update runs in one bbolt read-write transaction.
// The database may be shared with other components, so Close does not close it.
type BoltPersister struct {
	db *bolt.DB
}

func NewBoltPersister(db *bolt.DB) (*BoltPersister, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(incidentsBucket)
		return err
	})
	if err != nil {
		return nil, unavailable(err, "failed to prepare incidents bucket")
	}

	return &BoltPersister{db: db}, nil
}

func (p *BoltPersister) Update(ctx context.Context, fn func(*Document) error) error {
	var fnErr error

	err := p.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(incidentsBucket)

		d, err := decodeDocument(b.Get(documentKey))
		if err != nil {
			return err
		}

		if fnErr = fn(d); fnErr != nil {
			return fnErr
		}

		raw, err := json.Marshal(d)
		if err != nil {
			return err
		}
		return b.Put(documentKey, raw)
	})

	if fnErr != nil {
		return fnErr
	} else if err != nil {
		return unavailable(err, "failed to update incidents")
	}
	return nil
}

func (p *BoltPersister) View(ctx context.Context, fn func(*Document) error) error {
	var fnErr error

	err := p.db.View(func(tx *bolt.Tx) error {
		d, err := decodeDocument(tx.Bucket(incidentsBucket).Get(documentKey))
		if err != nil {
			return err
		}

		fnErr = fn(d)
		return fnErr
	})

	if fnErr != nil {
		return fnErr
	} else if err != nil {
		return unavailable(err, "failed to read incidents")
	}
	return nil
}

func (p *BoltPersister) Close() error {
	return nil
}
