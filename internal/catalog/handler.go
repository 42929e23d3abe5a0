package catalog

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"librarian/internal/discovery"
	"librarian/internal/metadata"
	"librarian/pkg/models"
)

// Handler serves the metadata store's contents over HTTP. Keys come from the
// metadata source when it has any, otherwise from a corpus scan, mirroring how
// the other discovery path derives them.
type Handler struct {
	Store   *metadata.Store
	DataDir string
}

func NewHandler(store *metadata.Store, dataDir string) *Handler {
	return &Handler{Store: store, DataDir: dataDir}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/books", h.list)
	r.GET("/books/:key", h.getByKey)
	r.POST("/ask", h.ask)
}

func (h *Handler) list(c *gin.Context) {
	records := h.loadRecords(c)

	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}

	if len(keys) == 0 {
		scanned, err := discovery.ScanCorpus(h.DataDir)
		if err != nil {
			log.Printf("[catalog] corpus scan failed: %v", err)
		} else {
			keys = scanned
		}
	}

	sort.Strings(keys)
	c.JSON(http.StatusOK, gin.H{
		"total":   len(keys),
		"keys":    keys,
		"records": records,
	})
}

func (h *Handler) getByKey(c *gin.Context) {
	key := models.NormalizeKey(c.Param("key"))
	records := h.loadRecords(c)

	rec, ok := records[key]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ask answers the plain-text command protocol other agents speak:
// "__LIST__" returns a JSON array of keys, "__META__:<key>" a JSON record.
// Anything else gets an empty object.
func (h *Handler) ask(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "cannot read request body")
		return
	}
	cmd := strings.TrimSpace(string(body))

	switch {
	case cmd == "__LIST__":
		records := h.loadRecords(c)
		keys := make([]string, 0, len(records))
		for k := range records {
			keys = append(keys, k)
		}
		if len(keys) == 0 {
			if scanned, err := discovery.ScanCorpus(h.DataDir); err == nil {
				keys = scanned
			}
		}
		sort.Strings(keys)
		b, _ := json.Marshal(keys)
		c.String(http.StatusOK, string(b))

	case strings.HasPrefix(cmd, "__META__:"):
		key := models.NormalizeKey(strings.TrimPrefix(cmd, "__META__:"))
		records := h.loadRecords(c)
		rec, ok := records[key]
		if !ok {
			c.String(http.StatusOK, "{}")
			return
		}
		b, err := json.Marshal(rec)
		if err != nil {
			c.String(http.StatusOK, "{}")
			return
		}
		c.String(http.StatusOK, string(b))

	default:
		c.String(http.StatusOK, "{}")
	}
}

// loadRecords reads the configured source, downgrading every load failure to
// an empty map. A broken or absent metadata source must not take the catalog
// endpoints down with it.
func (h *Handler) loadRecords(c *gin.Context) map[string]models.BookRecord {
	records, err := h.Store.Load(c.Request.Context())
	if err != nil {
		log.Printf("[catalog] metadata load failed: %v", err)
		return map[string]models.BookRecord{}
	}
	return records
}
