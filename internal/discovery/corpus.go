package discovery

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"librarian/pkg/models"
)

// ErrCorpusUnavailable means the corpus directory itself is missing or
// unreadable. This is the one hard failure of local discovery: with no corpus
// there is nothing left to fall back to.
var ErrCorpusUnavailable = errors.New("corpus unavailable")

// ScanCorpus lists the book keys in the corpus directory. One .txt file is one
// book; the filename minus its extension normalizes into the key. Keys are
// returned sorted and deduplicated.
func ScanCorpus(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir %s: %w", dir, ErrCorpusUnavailable)
	}

	seen := make(map[string]struct{})
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		key := models.NormalizeKey(e.Name())
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	sort.Strings(keys)
	return keys, nil
}
