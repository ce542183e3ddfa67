package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/uptrack/uptrack/internal/config"
	"github.com/uptrack/uptrack/internal/history"
	"github.com/uptrack/uptrack/internal/incident"
	"github.com/uptrack/uptrack/internal/uterr"
	api "github.com/uptrack/uptrack/lib-uptrack"
	bolt "go.etcd.io/bbolt"
)

// Storage is the pair of the history store and the incident persister.
type Storage struct {
	History   history.Store
	Incidents incident.Persister

	db *bolt.DB
}

// OpenStorage opens the storage that the configuration specifies.
//
// The file driver uses a directory, that has history/ and incidents.json.
// The bolt driver uses a single database file for both.
func OpenStorage(ctx context.Context, c config.StorageConfig) (*Storage, error) {
	zerolog.Ctx(ctx).Debug().Str("driver", c.Driver).Str("path", c.Path).Msg("open storage")

	switch c.Driver {
	case config.DriverMemory:
		return &Storage{
			History:   history.NewMemoryStore(),
			Incidents: incident.NewMemoryPersister(),
		}, nil
	case config.DriverBolt:
		if err := os.MkdirAll(filepath.Dir(c.Path), 0755); err != nil {
			return nil, uterr.New(api.ErrStorageUnavailable, err, "failed to prepare %s", c.Path)
		}

		db, err := bolt.Open(c.Path, 0600, &bolt.Options{Timeout: 5 * time.Second})
		if err != nil {
			return nil, uterr.New(api.ErrStorageUnavailable, err, "failed to open %s", c.Path)
		}

		h, err := history.NewBoltStore(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		p, err := incident.NewBoltPersister(db)
		if err != nil {
			db.Close()
			return nil, err
		}

		return &Storage{History: h, Incidents: p, db: db}, nil
	default:
		h, err := history.NewFileStore(filepath.Join(c.Path, "history"))
		if err != nil {
			return nil, err
		}
		p, err := incident.NewFilePersister(filepath.Join(c.Path, "incidents.json"))
		if err != nil {
			return nil, err
		}

		return &Storage{History: h, Incidents: p}, nil
	}
}

func (s *Storage) Close() error {
	err1 := s.History.Close()
	err2 := s.Incidents.Close()

	var err3 error
	if s.db != nil {
		err3 = s.db.Close()
	}

	return errors.Join(err1, err2, err3)
}
