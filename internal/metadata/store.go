package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"librarian/pkg/models"
)

var (
	// ErrNotFound means the local metadata file is absent. Expected when a
	// deployment ships no metadata; callers treat it as "no metadata", not fatal.
	ErrNotFound = errors.New("metadata not found")

	// ErrUnreachable means the remote metadata resource could not be fetched.
	ErrUnreachable = errors.New("metadata source unreachable")

	// ErrMalformed means the metadata payload did not parse as key -> record.
	ErrMalformed = errors.New("malformed metadata")
)

const fetchTimeout = 10 * time.Second

// Store loads book records from one metadata source: a local JSON file, or a
// remote URL serving the same format. The source is fixed at construction;
// every Load re-reads it, nothing is cached between calls.
type Store struct {
	Path   string
	URL    string
	Client *http.Client
}

func NewStore(path, url string) *Store {
	return &Store{
		Path:   path,
		URL:    url,
		Client: &http.Client{Timeout: fetchTimeout},
	}
}

// Load returns the full key -> record map. The remote URL takes precedence
// when configured.
func (s *Store) Load(ctx context.Context) (map[string]models.BookRecord, error) {
	if s.URL != "" {
		return s.loadRemote(ctx)
	}
	return s.LoadLocal()
}

// LoadLocal reads the local metadata file, ignoring any remote configuration.
func (s *Store) LoadLocal() (map[string]models.BookRecord, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", s.Path, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}

	records, err := ParseRecords(b)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return records, nil
}

func (s *Store) loadRemote(ctx context.Context) (map[string]models.BookRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", s.URL, err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.URL, ErrUnreachable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d: %w", s.URL, resp.StatusCode, ErrUnreachable)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.URL, ErrUnreachable)
	}

	records, err := ParseRecords(b)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.URL, err)
	}
	return records, nil
}

// ParseRecords decodes a JSON object mapping book key -> record. Each record's
// key comes from the top-level field name, normalized; entries whose key
// normalizes to nothing are rejected. When two entries normalize to the same
// key, the later one in the document wins.
func ParseRecords(b []byte) (map[string]models.BookRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: top level is not an object", ErrMalformed)
	}

	records := make(map[string]models.BookRecord)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		rawKey, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: non-string key", ErrMalformed)
		}

		var rec models.BookRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("%w: record %q: %v", ErrMalformed, rawKey, err)
		}

		key := models.NormalizeKey(rawKey)
		if key == "" {
			continue
		}
		rec.Key = key
		records[key] = rec
	}

	return records, nil
}
