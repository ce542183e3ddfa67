package history

import (
	"context"
	"encoding/binary"

	"github.com/goccy/go-json"
	api "github.com/uptrack/uptrack/lib-uptrack"
	bolt "go.etcd.io/bbolt"
)

var (
	historyBucket = []byte("history")
)

// BoltStore is a Store on a bbolt database.
//
// Each slug has a nested bucket in the "history" bucket, keyed by a big-endian sequence number.
// The database may be shared with other components, so Close does not close it.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore prepares the buckets on db and makes a BoltStore.
func NewBoltStore(db *bolt.DB) (*BoltStore, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(historyBucket)
		return err
	})
	if err != nil {
		return nil, unavailable(err, "failed to prepare history bucket")
	}

	return &BoltStore{db: db}, nil
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func (s *BoltStore) Append(ctx context.Context, slug string, o api.Outcome) error {
	if err := ValidateSlug(slug); err != nil {
		return err
	}

	value, err := json.Marshal(o)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(historyBucket).CreateBucketIfNotExists([]byte(slug))
		if err != nil {
			return err
		}

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		return b.Put(sequenceKey(seq), value)
	})
	if err != nil {
		return unavailable(err, "failed to append history of %s", slug)
	}

	return nil
}

// Read opens a read-only transaction that is kept until the scanner is closed.
func (s *BoltStore) Read(ctx context.Context, slug string) (api.OutcomeScanner, error) {
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, unavailable(err, "failed to begin transaction")
	}

	b := tx.Bucket(historyBucket).Bucket([]byte(slug))
	if b == nil {
		tx.Rollback()
		return api.NewSliceScanner(nil), nil
	}

	return &boltScanner{
		slug:   slug,
		tx:     tx,
		cursor: b.Cursor(),
	}, nil
}

func (s *BoltStore) Last(ctx context.Context, slug string) (o api.Outcome, found bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(historyBucket).Bucket([]byte(slug))
		if b == nil {
			return nil
		}

		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if json.Unmarshal(v, &o) == nil {
				found = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return api.Outcome{}, false, unavailable(err, "failed to read history of %s", slug)
	}

	return o, found, nil
}

func (s *BoltStore) Slugs(ctx context.Context) ([]string, error) {
	var slugs []string

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(historyBucket).ForEach(func(k, v []byte) error {
			if v == nil {
				slugs = append(slugs, string(k))
			}
			return nil
		})
	})
	if err != nil {
		return nil, unavailable(err, "failed to read history bucket")
	}

	return slugs, nil
}

func (s *BoltStore) Close() error {
	return nil
}

type boltScanner struct {
	slug    string
	tx      *bolt.Tx
	cursor  *bolt.Cursor
	started bool
	outcome api.Outcome
	err     error
}

func (s *boltScanner) Scan() bool {
	if s.tx == nil || s.err != nil {
		return false
	}

	var k, v []byte
	if !s.started {
		s.started = true
		k, v = s.cursor.First()
	} else {
		k, v = s.cursor.Next()
	}

	if k == nil {
		return false
	}

	var o api.Outcome
	if err := json.Unmarshal(v, &o); err != nil {
		s.err = unavailable(err, "broken history of %s", s.slug)
		return false
	}
	s.outcome = o

	return true
}

func (s *boltScanner) Outcome() api.Outcome {
	return s.outcome
}

func (s *boltScanner) Err() error {
	return s.err
}

func (s *boltScanner) Close() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	return err
}
