package router

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"librarian/pkg/models"
)

const callTimeout = 15 * time.Second

// HTTPCaller reaches targets over HTTP: every agent answers POST {base}/ask,
// free-text backends as text, the specialist as JSON. Responses are plain text
// either way.
type HTTPCaller struct {
	Client *http.Client
}

func NewHTTPCaller() *HTTPCaller {
	return &HTTPCaller{Client: &http.Client{Timeout: callTimeout}}
}

func (c *HTTPCaller) Call(ctx context.Context, target models.AgentTarget, payload string) (string, error) {
	url := strings.TrimRight(target.BaseURL, "/") + "/ask"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", target.Name, err)
	}
	if target.Schema == models.SchemaSpecialist {
		req.Header.Set("Content-Type", "application/json")
	} else {
		req.Header.Set("Content-Type", "text/plain")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call %s at %s: %w", target.Name, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s response: %w", target.Name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The body usually explains the refusal; keep it in the error.
		return "", fmt.Errorf("%s returned status %d: %s", target.Name, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return string(body), nil
}
