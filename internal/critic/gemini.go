package critic

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"librarian/pkg/models"
)

const geminiModel = "gemini-2.0-flash"

// GeminiPolicy asks a Gemini model which capability fits the prompt. Any
// trouble — client errors, unparseable output, a capability outside the set —
// falls back to the wrapped policy, so routing never depends on the API
// being up.
type GeminiPolicy struct {
	client   *genai.Client
	model    string
	fallback Policy
}

func NewGeminiPolicy(ctx context.Context, apiKey string, fallback Policy) (*GeminiPolicy, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiPolicy{client: client, model: geminiModel, fallback: fallback}, nil
}

const geminiInstructions = `You route a reader's question to exactly one tool. Reply with a single line:
TOOL|INPUT

Tools:
- list_books|            list the library's book keys (INPUT empty)
- book_metadata|KEY      metadata (title, author, year) for the book KEY
- archivist|KEY          a factual question answered from the text of book KEY
- historian|QUESTION     historical context, author biography, critical reception

KEY must be one of the known keys listed below. Reply with the single line only.`

func (p *GeminiPolicy) Decide(ctx context.Context, prompt string, keys []string) (Decision, error) {
	decision, err := p.decide(ctx, prompt, keys)
	if err != nil {
		log.Printf("[critic] gemini policy failed, using rules: %v", err)
		return p.fallback.Decide(ctx, prompt, keys)
	}
	return decision, nil
}

func (p *GeminiPolicy) decide(ctx context.Context, prompt string, keys []string) (Decision, error) {
	full := fmt.Sprintf("%s\n\nKnown keys: %s\n\nQuestion: %s",
		geminiInstructions, strings.Join(keys, ", "), prompt)

	contents := []*genai.Content{
		genai.NewContentFromText(full, genai.RoleUser),
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return Decision{}, fmt.Errorf("generate: %w", err)
	}

	return parseDecision(resp.Text(), prompt, keys)
}

func parseDecision(line, prompt string, keys []string) (Decision, error) {
	line = strings.TrimSpace(line)
	tool, input, _ := strings.Cut(line, "|")
	tool = strings.TrimSpace(strings.ToLower(tool))
	input = strings.TrimSpace(input)

	switch Capability(tool) {
	case CapListBooks:
		return Decision{Capability: CapListBooks}, nil

	case CapBookMetadata:
		key := models.NormalizeKey(input)
		if key == "" {
			return Decision{}, fmt.Errorf("metadata decision without a key")
		}
		return Decision{Capability: CapBookMetadata, Input: key}, nil

	case CapArchivist:
		key := models.NormalizeKey(input)
		if !containsKey(keys, key) {
			return Decision{}, fmt.Errorf("archivist decision names unknown key %q", key)
		}
		payload, err := json.Marshal(models.SpecialistRequest{BookTitle: key, Query: prompt})
		if err != nil {
			return Decision{}, err
		}
		return Decision{Capability: CapArchivist, Input: string(payload)}, nil

	case CapHistorian:
		if input == "" {
			input = prompt
		}
		return Decision{Capability: CapHistorian, Input: input}, nil
	}

	return Decision{}, fmt.Errorf("unrecognized decision %q", line)
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
