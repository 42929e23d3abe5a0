package archivist

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"librarian/internal/discovery"
	"librarian/pkg/models"
)

// Handler serves the archivist's single operation: answer a question about one
// book. A book that is in the corpus but not yet indexed is indexed on first
// request, the way the original fetch-on-demand behavior worked.
type Handler struct {
	Repo    *Repo
	DataDir string
}

func NewHandler(repo *Repo, dataDir string) *Handler {
	return &Handler{Repo: repo, DataDir: dataDir}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/ask", h.ask)
}

func (h *Handler) ask(c *gin.Context) {
	var req models.SpecialistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid input format. Provide a JSON object with 'book_title' and 'query'.")
		return
	}
	if strings.TrimSpace(req.BookTitle) == "" || strings.TrimSpace(req.Query) == "" {
		c.String(http.StatusBadRequest, "Invalid input format. Both 'book_title' and 'query' are required.")
		return
	}

	key := models.NormalizeKey(req.BookTitle)
	ctx := c.Request.Context()

	answer, err := h.Repo.Answer(ctx, key, req.Query)
	if errors.Is(err, ErrUnknownBook) {
		if idxErr := h.indexFromCorpus(c, key); idxErr != nil {
			c.String(http.StatusNotFound, h.unknownBookMessage(c, key))
			return
		}
		answer, err = h.Repo.Answer(ctx, key, req.Query)
	}
	if err != nil {
		log.Printf("[archivist] answer failed for %s: %v", key, err)
		c.String(http.StatusInternalServerError, "answer failed")
		return
	}

	c.String(http.StatusOK, answer)
}

func (h *Handler) indexFromCorpus(c *gin.Context, key string) error {
	path, err := h.corpusFile(key)
	if err != nil {
		return err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	log.Printf("[archivist] indexing %s on demand", key)
	return h.Repo.IndexBook(c.Request.Context(), key, string(b))
}

// corpusFile locates the corpus file for a key. <key>.txt is the common case,
// but discovery lists files by normalized name, so "Pride and Prejudice.txt"
// must be found for key prideandprejudice too.
func (h *Handler) corpusFile(key string) (string, error) {
	direct := filepath.Join(h.DataDir, key+".txt")
	if _, err := os.Stat(direct); err == nil {
		return direct, nil
	}

	entries, err := os.ReadDir(h.DataDir)
	if err != nil {
		return "", fmt.Errorf("read corpus dir %s: %w", h.DataDir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		if models.NormalizeKey(e.Name()) == key {
			return filepath.Join(h.DataDir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no corpus file for %s", key)
}

// unknownBookMessage names the keys that would have worked, so a caller can
// correct itself without a second discovery round-trip.
func (h *Handler) unknownBookMessage(c *gin.Context, key string) string {
	seen := make(map[string]struct{})
	var available []string

	if keys, err := h.Repo.Keys(c.Request.Context()); err == nil {
		for _, k := range keys {
			seen[k] = struct{}{}
			available = append(available, k)
		}
	}
	if keys, err := discovery.ScanCorpus(h.DataDir); err == nil {
		for _, k := range keys {
			if _, ok := seen[k]; !ok {
				available = append(available, k)
			}
		}
	}
	sort.Strings(available)

	if len(available) == 0 {
		return fmt.Sprintf("Requested book not found: '%s'. No books are indexed yet.", key)
	}
	return fmt.Sprintf("Requested book not found: '%s'. Ensure the 'book_title' matches one of: %s",
		key, strings.Join(available, ", "))
}
