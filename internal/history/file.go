package history

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	api "github.com/uptrack/uptrack/lib-uptrack"
)

const (
	fileExt = ".log"

	// lastReadBytes is the size of the tail that Last reads at first.
	lastReadBytes = 64 * 1024
)

// FileStore is a Store that writes one JSON lines file per slug.
//
// The files are placed at <dir>/<slug>.log, and opened only while appending or reading.
type FileStore struct {
	dir string

	// appendLock serializes appends to keep every line in one piece.
	appendLock sync.Mutex
}

// NewFileStore makes a FileStore on dir, and creates the directory if not exists.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, unavailable(err, "failed to prepare history directory")
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(slug string) string {
	return filepath.Join(s.dir, slug+fileExt)
}

func (s *FileStore) Append(ctx context.Context, slug string, o api.Outcome) error {
	if err := ValidateSlug(slug); err != nil {
		return err
	}

	line, err := json.Marshal(o)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	s.appendLock.Lock()
	defer s.appendLock.Unlock()

	f, err := os.OpenFile(s.path(slug), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return unavailable(err, "failed to open history of %s", slug)
	}

	if _, err := f.Write(line); err != nil {
		f.Close()
		return unavailable(err, "failed to write history of %s", slug)
	}

	if err := f.Close(); err != nil {
		return unavailable(err, "failed to close history of %s", slug)
	}

	return nil
}

func (s *FileStore) Read(ctx context.Context, slug string) (api.OutcomeScanner, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path(slug))
	if errors.Is(err, os.ErrNotExist) {
		return api.NewSliceScanner(nil), nil
	} else if err != nil {
		return nil, unavailable(err, "failed to open history of %s", slug)
	}

	return &fileScanner{
		slug:   slug,
		file:   f,
		reader: bufio.NewReader(f),
	}, nil
}

func (s *FileStore) Last(ctx context.Context, slug string) (api.Outcome, bool, error) {
	if err := ValidateSlug(slug); err != nil {
		return api.Outcome{}, false, err
	}

	f, err := os.Open(s.path(slug))
	if errors.Is(err, os.ErrNotExist) {
		return api.Outcome{}, false, nil
	} else if err != nil {
		return api.Outcome{}, false, unavailable(err, "failed to open history of %s", slug)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return api.Outcome{}, false, unavailable(err, "failed to get status of history of %s", slug)
	}

	offset := stat.Size() - lastReadBytes
	if offset < 0 {
		offset = 0
	}

	for {
		tail := make([]byte, stat.Size()-offset)
		if _, err := f.ReadAt(tail, offset); err != nil && err != io.EOF {
			return api.Outcome{}, false, unavailable(err, "failed to read history of %s", slug)
		}

		if o, ok := lastOutcome(tail, offset > 0); ok {
			return o, true, nil
		}

		if offset == 0 {
			return api.Outcome{}, false, nil
		}
		offset = 0
	}
}

// lastOutcome finds the last decodable line in buf.
// The first line is ignored if partial is true, because it may be cut in the middle.
func lastOutcome(buf []byte, partial bool) (api.Outcome, bool) {
	lines := bytes.Split(buf, []byte{'\n'})
	if partial {
		lines = lines[1:]
	}

	for i := len(lines) - 1; i >= 0; i-- {
		var o api.Outcome
		if len(bytes.TrimSpace(lines[i])) > 0 && json.Unmarshal(lines[i], &o) == nil {
			return o, true
		}
	}
	return api.Outcome{}, false
}

func (s *FileStore) Slugs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, unavailable(err, "failed to read history directory")
	}

	var slugs []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), fileExt) {
			slugs = append(slugs, strings.TrimSuffix(e.Name(), fileExt))
		}
	}
	sort.Strings(slugs)

	return slugs, nil
}

func (s *FileStore) Close() error {
	return nil
}

type fileScanner struct {
	slug    string
	file    *os.File
	reader  *bufio.Reader
	outcome api.Outcome
	err     error
}

// Scan reads the next line.
// Lines that can not be decoded, such as a line cut by a crash, are skipped.
func (s *fileScanner) Scan() bool {
	for s.err == nil {
		line, err := s.reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			var o api.Outcome
			if json.Unmarshal(line, &o) == nil {
				s.outcome = o
				return true
			}
		}

		if err == io.EOF {
			return false
		} else if err != nil {
			s.err = unavailable(err, "failed to read history of %s", s.slug)
		}
	}
	return false
}

func (s *fileScanner) Outcome() api.Outcome {
	return s.outcome
}

func (s *fileScanner) Err() error {
	return s.err
}

func (s *fileScanner) Close() error {
	return s.file.Close()
}
