package history

import (
	"context"
	"slices"
	"sort"
	"sync"

	api "github.com/uptrack/uptrack/lib-uptrack"
)

// MemoryStore is a Store that keeps everything in the process memory.
type MemoryStore struct {
	sync.RWMutex

	outcomes map[string][]api.Outcome
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		outcomes: make(map[string][]api.Outcome),
	}
}

func (s *MemoryStore) Append(ctx context.Context, slug string, o api.Outcome) error {
	if err := ValidateSlug(slug); err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()

	s.outcomes[slug] = append(s.outcomes[slug], o)
	return nil
}

func (s *MemoryStore) Read(ctx context.Context, slug string) (api.OutcomeScanner, error) {
	s.RLock()
	defer s.RUnlock()

	return api.NewSliceScanner(slices.Clone(s.outcomes[slug])), nil
}

func (s *MemoryStore) Last(ctx context.Context, slug string) (api.Outcome, bool, error) {
	s.RLock()
	defer s.RUnlock()

	xs := s.outcomes[slug]
	if len(xs) == 0 {
		return api.Outcome{}, false, nil
	}
	return xs[len(xs)-1], true, nil
}

func (s *MemoryStore) Slugs(ctx context.Context) ([]string, error) {
	s.RLock()
	defer s.RUnlock()

	slugs := make([]string, 0, len(s.outcomes))
	for slug := range s.outcomes {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	return slugs, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
