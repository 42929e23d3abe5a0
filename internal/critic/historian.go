package critic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	historianBase    = "https://api.duckduckgo.com/"
	historianTimeout = 8 * time.Second
)

// Historian answers background questions — author lives, historical context,
// critical reception — from the DuckDuckGo instant-answer API. It is the one
// capability that leaves the library.
type Historian struct {
	Client *http.Client
}

func NewHistorian() *Historian {
	return &Historian{Client: &http.Client{Timeout: historianTimeout}}
}

type instantAnswer struct {
	Heading       string `json:"Heading"`
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

func (h *Historian) Lookup(ctx context.Context, query string) (string, error) {
	u, _ := url.Parse(historianBase)
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build historian request: %w", err)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("historian lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("historian lookup: status %d", resp.StatusCode)
	}

	var ia instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&ia); err != nil {
		return "", fmt.Errorf("historian decode: %w", err)
	}

	if ia.AbstractText != "" {
		if ia.AbstractURL != "" {
			return fmt.Sprintf("%s\n(Source: %s)", ia.AbstractText, ia.AbstractURL), nil
		}
		return ia.AbstractText, nil
	}
	for _, t := range ia.RelatedTopics {
		if t.Text != "" {
			return t.Text, nil
		}
	}

	return fmt.Sprintf("No background found for: %s", query), nil
}
