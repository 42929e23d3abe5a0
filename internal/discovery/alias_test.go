package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarian/pkg/models"
)

func TestLoadAliases(t *testing.T) {
	t.Run("missing file yields empty table", func(t *testing.T) {
		table, err := LoadAliases(filepath.Join(t.TempDir(), "nope.json"))
		require.NoError(t, err)
		assert.Empty(t, table)
	})

	t.Run("empty path yields empty table", func(t *testing.T) {
		table, err := LoadAliases("")
		require.NoError(t, err)
		assert.Empty(t, table)
	})

	t.Run("values are normalization fixed-points", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "aliases.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"Pride & Prejudice": "Pride and Prejudice",
			"the whale": "mobydick"
		}`), 0o644))

		table, err := LoadAliases(path)
		require.NoError(t, err)

		for variant, key := range table {
			assert.Equal(t, key, models.NormalizeKey(key), "value for %q", variant)
		}
		assert.Equal(t, "prideandprejudice", table["pride & prejudice"])
	})

	t.Run("bad json is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "aliases.json")
		require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
		_, err := LoadAliases(path)
		assert.Error(t, err)
	})
}

func TestAliasResolve(t *testing.T) {
	table := AliasTable{
		"pride & prejudice":   "prideandprejudice",
		"prideand predjudice": "prideandprejudice", // legacy typo key
	}

	assert.Equal(t, "prideandprejudice", table.Resolve("Pride & Prejudice"))
	assert.Equal(t, "prideandprejudice", table.Resolve("prideand predjudice"))
	assert.Equal(t, "prideandprejudice", table.Resolve("Pride and Prejudice"), "plain normalization covers the rest")
	assert.Equal(t, "mobydick", table.Resolve("Moby Dick"))

	// resolving a resolved key changes nothing
	assert.Equal(t, "prideandprejudice", table.Resolve(table.Resolve("Pride & Prejudice")))
}
