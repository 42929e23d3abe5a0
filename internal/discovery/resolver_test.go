package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarian/internal/metadata"
)

func newCorpus(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("Call me Ishmael."), 0o644))
	}
	return dir
}

func writeMetadata(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "book_metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// catalogDouble serves /books and /books/:key from fixed data, counting calls.
type catalogDouble struct {
	keys    []string
	records map[string]any
	calls   int
}

func (d *catalogDouble) serve(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/books", func(c *gin.Context) {
		d.calls++
		c.JSON(http.StatusOK, gin.H{"keys": d.keys, "records": d.records})
	})
	r.GET("/books/:key", func(c *gin.Context) {
		d.calls++
		rec, ok := d.records[c.Param("key")]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, rec)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestListBooksLocal(t *testing.T) {
	dir := newCorpus(t, "mobydick.txt", "prideandprejudice.txt", "README.md")
	metaPath := writeMetadata(t, dir, `{"mobydick": {"title": "Moby-Dick", "author": "Herman Melville"}}`)
	store := metadata.NewStore(metaPath, "")

	r := NewResolver(false, "http://127.0.0.1:1", dir, store)
	res, err := r.ListBooks(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"mobydick", "prideandprejudice"}, res.Keys, "only .txt files count")
	assert.Contains(t, res.Records, "mobydick")
	assert.NotContains(t, res.Records, "prideandprejudice", "metadata-less book has no record")
}

func TestListBooksMissingMetadataIsFine(t *testing.T) {
	dir := newCorpus(t, "frankenstein.txt")
	store := metadata.NewStore(filepath.Join(dir, "absent.json"), "")

	r := NewResolver(false, "", dir, store)
	res, err := r.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"frankenstein"}, res.Keys)
	assert.Empty(t, res.Records)
}

func TestListBooksCorpusUnavailable(t *testing.T) {
	store := metadata.NewStore("absent.json", "")
	r := NewResolver(false, "", filepath.Join(t.TempDir(), "no-such-dir"), store)

	_, err := r.ListBooks(context.Background())
	assert.ErrorIs(t, err, ErrCorpusUnavailable)
}

func TestListBooksPrefersHealthyCatalog(t *testing.T) {
	dir := newCorpus(t, "mobydick.txt", "prideandprejudice.txt")
	store := metadata.NewStore(filepath.Join(dir, "absent.json"), "")

	double := &catalogDouble{keys: []string{"mobydick", "prideandprejudice"}}
	srv := double.serve(t)

	r := NewResolver(true, srv.URL, dir, store)
	res, err := r.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"mobydick", "prideandprejudice"}, res.Keys)
	assert.Equal(t, 1, double.calls)
}

// Fallback equivalence: for the same underlying files, catalog-first and
// local-only discovery agree on the key set.
func TestFallbackEquivalence(t *testing.T) {
	dir := newCorpus(t, "mobydick.txt", "Pride and Prejudice.txt")
	store := metadata.NewStore(filepath.Join(dir, "absent.json"), "")

	localKeys, err := ScanCorpus(dir)
	require.NoError(t, err)

	double := &catalogDouble{keys: localKeys}
	srv := double.serve(t)

	viaCatalog, err := NewResolver(true, srv.URL, dir, store).ListBooks(context.Background())
	require.NoError(t, err)
	viaLocal, err := NewResolver(false, srv.URL, dir, store).ListBooks(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, viaCatalog.Keys, viaLocal.Keys)
	assert.Contains(t, viaLocal.Keys, "prideandprejudice", "filename normalization matches user-facing keys")
}

// A reachable server that 404s the list route (wrong service at the catalog
// address) is a failed tier, not an empty library.
func TestListBooksFallsBackWhenCatalogAnswers404(t *testing.T) {
	dir := newCorpus(t, "mobydick.txt", "prideandprejudice.txt")
	store := metadata.NewStore(filepath.Join(dir, "absent.json"), "")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r := NewResolver(true, srv.URL, dir, store)
	res, err := r.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"mobydick", "prideandprejudice"}, res.Keys)
}

// Graceful degradation: an unreachable catalog must not break discovery.
func TestListBooksFallsBackWhenCatalogDown(t *testing.T) {
	dir := newCorpus(t, "mobydick.txt", "prideandprejudice.txt")
	store := metadata.NewStore(filepath.Join(dir, "absent.json"), "")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	r := NewResolver(true, srv.URL, dir, store)
	res, err := r.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"mobydick", "prideandprejudice"}, res.Keys)
}

func TestGetMetadata(t *testing.T) {
	dir := newCorpus(t, "mobydick.txt", "prideandprejudice.txt")
	metaPath := writeMetadata(t, dir, `{"mobydick": {"title": "Moby-Dick", "year": 1851}}`)
	store := metadata.NewStore(metaPath, "")
	r := NewResolver(false, "", dir, store)

	t.Run("known key", func(t *testing.T) {
		rec, err := r.GetMetadata(context.Background(), "mobydick")
		require.NoError(t, err)
		assert.Equal(t, "Moby-Dick", rec.Title)
	})

	t.Run("book without metadata is empty, not an error", func(t *testing.T) {
		rec, err := r.GetMetadata(context.Background(), "prideandprejudice")
		require.NoError(t, err)
		assert.True(t, rec.Empty())
	})

	t.Run("unnormalized input still resolves", func(t *testing.T) {
		rec, err := r.GetMetadata(context.Background(), "Moby Dick")
		require.NoError(t, err)
		assert.Equal(t, "Moby-Dick", rec.Title)
	})

	t.Run("catalog 404 for a key is an empty answer, not a failure", func(t *testing.T) {
		double := &catalogDouble{records: map[string]any{}}
		srv := double.serve(t)

		viaCatalog := NewResolver(true, srv.URL, dir, store)
		rec, err := viaCatalog.GetMetadata(context.Background(), "dracula")
		require.NoError(t, err)
		assert.True(t, rec.Empty())
		assert.Equal(t, 1, double.calls, "the catalog answered; no fallback runs")
	})

	t.Run("catalog tier falls back to local on failure", func(t *testing.T) {
		down := NewResolver(true, "http://127.0.0.1:1", dir, store)
		rec, err := down.GetMetadata(context.Background(), "mobydick")
		require.NoError(t, err)
		assert.Equal(t, "Moby-Dick", rec.Title)
	})
}
