package archivist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarian/internal/discovery"
	"librarian/pkg/models"
)

var testAliases = discovery.AliasTable{
	"pride and prejudice": "prideandprejudice",
	"moby dick":           "mobydick",
}

func TestProxyAskNormalizesTitle(t *testing.T) {
	var got models.SpecialistRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ask", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("Mr. Darcy is a wealthy gentleman."))
	}))
	defer srv.Close()

	proxy := NewProxy(srv.URL, testAliases)
	answer, err := proxy.Ask(context.Background(), "Pride and Prejudice", "Who is Mr. Darcy?")
	require.NoError(t, err)

	assert.Equal(t, "prideandprejudice", got.BookTitle, "alias resolves to the canonical key on the wire")
	assert.Equal(t, "Who is Mr. Darcy?", got.Query)
	assert.Equal(t, "Mr. Darcy is a wealthy gentleman.", answer)
}

func TestProxyAskPassesThroughCanonicalKeys(t *testing.T) {
	var got models.SpecialistRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	proxy := NewProxy(srv.URL, testAliases)
	_, err := proxy.Ask(context.Background(), "MobyDick.txt", "Who is Ahab?")
	require.NoError(t, err)
	assert.Equal(t, "mobydick", got.BookTitle)
}

func TestProxyAskRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unknown book 'dracula'. Available: mobydick, prideandprejudice", http.StatusNotFound)
	}))
	defer srv.Close()

	proxy := NewProxy(srv.URL, testAliases)
	_, err := proxy.Ask(context.Background(), "dracula", "Who is the count?")
	assert.ErrorIs(t, err, ErrSpecialistRejected)
	assert.Contains(t, err.Error(), "Available: mobydick")
}

func TestProxyAskUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	proxy := NewProxy(srv.URL, testAliases)
	_, err := proxy.Ask(context.Background(), "mobydick", "Who is Ahab?")
	assert.ErrorIs(t, err, ErrSpecialistUnreachable)
}

func TestProxyAskEmptyTitle(t *testing.T) {
	proxy := NewProxy("http://127.0.0.1:0", testAliases)
	_, err := proxy.Ask(context.Background(), "   ", "anything")
	assert.ErrorIs(t, err, ErrSpecialistRejected)
}
