package archivist

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarian/pkg/database"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "index.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return NewRepo(db)
}

func TestRepoIndexAndAnswer(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Pad each paragraph past the passage size so each becomes its own passage.
	filler := strings.Repeat("sea voyage ", 110)
	text := "Call me Ishmael. " + filler + "\n\n" +
		"Captain Ahab stood upon the quarter-deck. " + filler + "\n\n" +
		"The white whale was all that Ahab thought of. " + filler
	require.NoError(t, repo.IndexBook(ctx, "mobydick", text))

	answer, err := repo.Answer(ctx, "mobydick", "Who is Captain Ahab?")
	require.NoError(t, err)
	assert.Contains(t, answer, "Captain Ahab")
	assert.NotContains(t, answer, "Ishmael", "unrelated passages stay out of the answer")
}

func TestRepoAnswerUnknownBook(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Answer(context.Background(), "dracula", "Who is the count?")
	assert.ErrorIs(t, err, ErrUnknownBook)
}

func TestRepoAnswerNoMatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.IndexBook(ctx, "mobydick", "Call me Ishmael."))

	answer, err := repo.Answer(ctx, "mobydick", "Who is Elizabeth Bennet?")
	require.NoError(t, err)
	assert.Contains(t, answer, "No passage")
}

func TestRepoReindexReplaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.IndexBook(ctx, "mobydick", "The old text about harpoons."))
	require.NoError(t, repo.IndexBook(ctx, "mobydick", "The new text about whales."))

	answer, err := repo.Answer(ctx, "mobydick", "describe the harpoons")
	require.NoError(t, err)
	assert.Contains(t, answer, "No passage", "stale passages are gone after reindex")
}

func TestRepoKeys(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.IndexBook(ctx, "prideandprejudice", "It is a truth universally acknowledged."))
	require.NoError(t, repo.IndexBook(ctx, "mobydick", "Call me Ishmael."))

	keys, err := repo.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"mobydick", "prideandprejudice"}, keys)
}

func TestRepoIndexEmptyText(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.IndexBook(context.Background(), "mobydick", "   \n\n  ")
	assert.Error(t, err)
}

func TestSplitPassages(t *testing.T) {
	t.Run("short paragraphs merge into one passage", func(t *testing.T) {
		got := splitPassages("one\n\ntwo\n\nthree")
		require.Len(t, got, 1)
		assert.Equal(t, "one\n\ntwo\n\nthree", got[0])
	})

	t.Run("long text splits on paragraph boundaries", func(t *testing.T) {
		para := strings.Repeat("word ", 200) // ~1000 chars
		got := splitPassages(para + "\n\n" + para + "\n\n" + para)
		require.Len(t, got, 3)
		for _, p := range got {
			assert.NotContains(t, p, "\n\n", "each oversized paragraph stands alone")
		}
	})

	t.Run("windows line endings", func(t *testing.T) {
		got := splitPassages("one\r\n\r\ntwo")
		require.Len(t, got, 1)
		assert.Equal(t, "one\n\ntwo", got[0])
	})
}

func TestRankPassages(t *testing.T) {
	passages := []string{
		"Elizabeth walked to Meryton.",
		"Mr. Darcy owns Pemberley. Darcy is proud.",
		"The weather was fine.",
		"Darcy danced with Elizabeth at the ball.",
	}

	got := rankPassages(passages, "Who is Mr. Darcy?")
	require.Len(t, got, 2)
	// Highest scoring passages, presented in book order.
	assert.Equal(t, passages[1], got[0])
	assert.Equal(t, passages[3], got[1])

	assert.Nil(t, rankPassages(passages, "a an"), "queries with no selective terms match nothing")
}

func TestQueryTerms(t *testing.T) {
	got := queryTerms(`Who is "Mr. Darcy"?`)
	assert.Equal(t, []string{"who", "darcy"}, got)
}
