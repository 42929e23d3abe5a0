package critic

import (
	"context"
	"encoding/json"
	"strings"

	"librarian/internal/discovery"
	"librarian/pkg/models"
)

// RulePolicy maps intents with plain keyword rules. It is the default policy
// and the fallback for anything smarter: no network, fully deterministic.
type RulePolicy struct {
	Aliases discovery.AliasTable
}

var historianWords = []string{
	"author", "wrote", "life", "history", "historical", "context",
	"reception", "published", "biography", "background", "era", "influence",
}

var metadataWords = []string{"metadata", "year", "title of"}

// wantsList detects the "what books do you have" intent so it can be answered
// without a policy round-trip.
func wantsList(prompt string) bool {
	lc := strings.ToLower(prompt)
	if !strings.Contains(lc, "book") && !strings.Contains(lc, "library") {
		return false
	}
	return strings.Contains(lc, "list") || strings.Contains(lc, "available") || strings.Contains(lc, "have")
}

func (p RulePolicy) Decide(_ context.Context, prompt string, keys []string) (Decision, error) {
	lc := strings.ToLower(prompt)
	matched := p.matchBook(lc, keys)

	if containsAny(lc, metadataWords) && matched != "" {
		return Decision{Capability: CapBookMetadata, Input: matched}, nil
	}

	if containsAny(lc, historianWords) {
		return Decision{Capability: CapHistorian, Input: prompt}, nil
	}

	if matched != "" {
		payload, err := json.Marshal(models.SpecialistRequest{BookTitle: matched, Query: prompt})
		if err != nil {
			return Decision{}, err
		}
		return Decision{Capability: CapArchivist, Input: string(payload)}, nil
	}

	// No known book in the prompt: background lookup is the only capability
	// that can still say something useful.
	return Decision{Capability: CapHistorian, Input: prompt}, nil
}

// matchBook looks for a known book key inside the prompt, trying alias
// variants first so "pride & prejudice" hits even though the key has no
// spaces. The compacted prompt catches multi-word titles.
func (p RulePolicy) matchBook(lcPrompt string, keys []string) string {
	for variant, key := range p.Aliases {
		if strings.Contains(lcPrompt, variant) {
			return key
		}
	}

	compact := models.NormalizeKey(lcPrompt)
	for _, k := range keys {
		if k != "" && strings.Contains(compact, k) {
			return k
		}
	}
	return ""
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
