package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/uptrack/uptrack/internal/history"
	"github.com/uptrack/uptrack/internal/incident"
	api "github.com/uptrack/uptrack/lib-uptrack"
	bolt "go.etcd.io/bbolt"
)

// OpenBolt opens a bbolt database in a temporary directory.
func OpenBolt(t testing.TB) *bolt.DB {
	t.Helper()

	db, err := bolt.Open(filepath.Join(t.TempDir(), "uptrack.db"), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		t.Fatalf("failed to open database: %s", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// HistoryStores makes every kind of history.Store, keyed by the driver name.
func HistoryStores(t testing.TB) map[string]history.Store {
	t.Helper()

	fs, err := history.NewFileStore(filepath.Join(t.TempDir(), "history"))
	if err != nil {
		t.Fatalf("failed to create file store: %s", err)
	}

	bs, err := history.NewBoltStore(OpenBolt(t))
	if err != nil {
		t.Fatalf("failed to create bolt store: %s", err)
	}

	return map[string]history.Store{
		"memory": history.NewMemoryStore(),
		"file":   fs,
		"bolt":   bs,
	}
}

// Persisters makes every kind of incident.Persister, keyed by the driver name.
func Persisters(t testing.TB) map[string]incident.Persister {
	t.Helper()

	fp, err := incident.NewFilePersister(filepath.Join(t.TempDir(), "incidents.json"))
	if err != nil {
		t.Fatalf("failed to create file persister: %s", err)
	}

	bp, err := incident.NewBoltPersister(OpenBolt(t))
	if err != nil {
		t.Fatalf("failed to create bolt persister: %s", err)
	}

	return map[string]incident.Persister{
		"memory": incident.NewMemoryPersister(),
		"file":   fp,
		"bolt":   bp,
	}
}

// ParseTime parses RFC3339 time for test data.
func ParseTime(t testing.TB, s string) time.Time {
	t.Helper()

	x, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("failed to parse time: %s", err)
	}
	return x
}

// Outcome makes an api.Outcome for test data.
func Outcome(slug string, status api.Status, at time.Time, responseTime float64) api.Outcome {
	return api.Outcome{
		Slug:         slug,
		Status:       status,
		ResponseTime: responseTime,
		ObservedAt:   at,
	}
}
