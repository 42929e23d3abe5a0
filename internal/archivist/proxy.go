package archivist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"librarian/internal/discovery"
	"librarian/pkg/models"
)

var (
	// ErrSpecialistUnreachable means the archivist call could not complete.
	ErrSpecialistUnreachable = errors.New("archivist unreachable")

	// ErrSpecialistRejected means the archivist does not know the book key.
	ErrSpecialistRejected = errors.New("archivist rejected request")
)

const askTimeout = 60 * time.Second

// Proxy hides the archivist's strict request schema behind a friendly call:
// it accepts a book title in whatever form a human or the orchestrator wrote
// it, resolves it to a canonical key via the alias table, and forwards the
// query. The answer comes back unmodified.
type Proxy struct {
	baseURL string
	aliases discovery.AliasTable
	client  *http.Client
}

func NewProxy(baseURL string, aliases discovery.AliasTable) *Proxy {
	return &Proxy{
		baseURL: strings.TrimRight(baseURL, "/"),
		aliases: aliases,
		client:  &http.Client{Timeout: askTimeout},
	}
}

// Ask sends one question about one book and returns the archivist's answer.
// Failures are returned as errors with readable messages, never swallowed;
// the caller has to be able to explain them to the end user.
func (p *Proxy) Ask(ctx context.Context, bookTitle, query string) (string, error) {
	key := p.aliases.Resolve(bookTitle)
	if key == "" {
		return "", fmt.Errorf("%w: empty book title", ErrSpecialistRejected)
	}

	payload, err := json.Marshal(models.SpecialistRequest{BookTitle: key, Query: query})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/ask", strings.NewReader(string(payload)))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSpecialistUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrSpecialistUnreachable, err)
	}
	answer := strings.TrimSpace(string(body))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrSpecialistRejected, answer)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("archivist returned status %d: %s", resp.StatusCode, answer)
	}

	return answer, nil
}
