package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"librarian/internal/metadata"
	"librarian/pkg/models"
)

// The catalog lookup is the step between an interactive caller and the local
// fallback, so it has to give up quickly.
const catalogTimeout = 3 * time.Second

// Resolver answers "what books exist" and "what do we know about book K".
//
// When preferCatalog is set it asks the catalog service first and falls back
// to scanning the corpus directly, so discovery keeps working when the
// optional catalog process is not running. Both paths derive keys with the
// same normalization, which keeps them interchangeable. The resolver holds no
// state beyond its startup configuration; every call recomputes from source.
type Resolver struct {
	preferCatalog bool
	catalogURL    string
	dataDir       string
	store         *metadata.Store
	client        *http.Client
}

func NewResolver(preferCatalog bool, catalogURL, dataDir string, store *metadata.Store) *Resolver {
	return &Resolver{
		preferCatalog: preferCatalog,
		catalogURL:    catalogURL,
		dataDir:       dataDir,
		store:         store,
		client:        &http.Client{Timeout: catalogTimeout},
	}
}

// ListBooks returns every known book key plus whatever metadata records exist
// for them. Each call commits to exactly one backend's result: either the
// catalog's answer verbatim, or a fresh local scan. Missing metadata never
// fails the local path; only a missing corpus does.
func (r *Resolver) ListBooks(ctx context.Context) (models.DiscoveryResult, error) {
	if r.preferCatalog {
		res, err := r.listFromCatalog(ctx)
		if err == nil {
			return res, nil
		}
		log.Printf("[discovery] catalog list failed, falling back to corpus: %v", err)
	}
	return r.listFromCorpus()
}

// GetMetadata returns the record for one book key, or an empty record if the
// key is unknown to every tier. Absence is not an error.
func (r *Resolver) GetMetadata(ctx context.Context, key string) (models.BookRecord, error) {
	key = models.NormalizeKey(key)
	if key == "" {
		return models.BookRecord{}, nil
	}

	if r.preferCatalog {
		rec, err := r.metadataFromCatalog(ctx, key)
		if err == nil {
			return rec, nil
		}
		log.Printf("[discovery] catalog metadata failed, falling back to local: %v", err)
	}

	records, err := r.store.LoadLocal()
	if err != nil {
		// No local metadata is "no answer", not a failure.
		return models.BookRecord{}, nil
	}
	return records[key], nil
}

func (r *Resolver) listFromCatalog(ctx context.Context) (models.DiscoveryResult, error) {
	var res models.DiscoveryResult
	if err := r.getJSON(ctx, r.catalogURL+"/books", &res); err != nil {
		return models.DiscoveryResult{}, err
	}
	return res, nil
}

func (r *Resolver) metadataFromCatalog(ctx context.Context, key string) (models.BookRecord, error) {
	var rec models.BookRecord
	if err := r.getJSON(ctx, r.catalogURL+"/books/"+key, &rec); err != nil {
		if errors.Is(err, errStatusNotFound) {
			// Known service, unknown key: an empty answer, not a failure.
			return models.BookRecord{}, nil
		}
		return models.BookRecord{}, err
	}
	rec.Key = key
	return rec, nil
}

func (r *Resolver) listFromCorpus() (models.DiscoveryResult, error) {
	keys, err := ScanCorpus(r.dataDir)
	if err != nil {
		return models.DiscoveryResult{}, err
	}

	records := make(map[string]models.BookRecord)
	known, err := r.store.LoadLocal()
	if err != nil {
		log.Printf("[discovery] no local metadata attached: %v", err)
	} else {
		for _, k := range keys {
			if rec, ok := known[k]; ok {
				records[k] = rec
			}
		}
	}

	return models.DiscoveryResult{Keys: keys, Records: records}, nil
}

// errStatusNotFound marks an HTTP 404 from the catalog. Only the per-key
// metadata lookup may treat it as an empty answer; for a list call it means
// the wrong service is at the configured address and the fallback must run.
var errStatusNotFound = errors.New("status 404")

func (r *Resolver) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", url, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("get %s: %w", url, errStatusNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
