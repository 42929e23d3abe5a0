package discovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"librarian/pkg/models"
)

// AliasTable maps friendly title variants to canonical book keys, e.g.
// "pride & prejudice" -> "prideandprejudice". It is configuration data loaded
// once at startup; the code owns no aliasing rules of its own.
type AliasTable map[string]string

// LoadAliases reads the alias JSON file. A missing file yields an empty table.
// Lookup keys are lowercased and values are forced to normalization
// fixed-points so a resolved alias never needs a second pass.
func LoadAliases(path string) (AliasTable, error) {
	if path == "" {
		return AliasTable{}, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return AliasTable{}, nil
		}
		return nil, fmt.Errorf("read aliases %s: %w", path, err)
	}

	var raw map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse aliases %s: %w", path, err)
	}

	table := make(AliasTable, len(raw))
	for variant, key := range raw {
		variant = strings.ToLower(strings.TrimSpace(variant))
		key = models.NormalizeKey(key)
		if variant == "" || key == "" {
			continue
		}
		table[variant] = key
	}
	return table, nil
}

// Resolve turns a friendly title or raw key into a canonical book key: exact
// alias match on the lowercased input first, plain normalization otherwise.
func (t AliasTable) Resolve(s string) string {
	k := strings.ToLower(strings.TrimSpace(s))
	if key, ok := t[k]; ok {
		return key
	}
	return models.NormalizeKey(k)
}
