package critic

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"librarian/internal/archivist"
	"librarian/internal/discovery"
	"librarian/internal/trace"
	"librarian/pkg/models"
)

// Capability names one thing the critic can do. The set is closed; a policy
// maps an intent onto exactly one of these.
type Capability string

const (
	CapListBooks    Capability = "list_books"
	CapBookMetadata Capability = "book_metadata"
	CapArchivist    Capability = "archivist"
	CapHistorian    Capability = "historian"
)

// Decision is a policy's verdict: which capability to invoke and with what
// input. For CapArchivist the input is a SpecialistRequest JSON string, for
// CapBookMetadata a book key, otherwise free text.
type Decision struct {
	Capability Capability
	Input      string
}

// Policy maps a user prompt to a capability. Implementations are injected;
// the orchestrator has no routing intelligence of its own.
type Policy interface {
	Decide(ctx context.Context, prompt string, keys []string) (Decision, error)
}

// Orchestrator wires the capability set together. Every capability has the
// same shape — input string in, answer string out — so invoking one is
// uniform regardless of what stands behind it.
type Orchestrator struct {
	Resolver  *discovery.Resolver
	Proxy     *archivist.Proxy
	Historian *Historian
	Policy    Policy
	Hub       *trace.Hub // optional
}

// Answer handles one free-text prompt end to end.
func (o *Orchestrator) Answer(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("empty prompt")
	}

	// Listing the library is answered directly; no policy needed for the
	// most common request.
	if wantsList(prompt) {
		return o.invoke(ctx, Decision{Capability: CapListBooks})
	}

	keys := o.knownKeys(ctx)
	decision, err := o.Policy.Decide(ctx, prompt, keys)
	if err != nil {
		return "", fmt.Errorf("decide intent: %w", err)
	}

	return o.invoke(ctx, decision)
}

func (o *Orchestrator) invoke(ctx context.Context, d Decision) (string, error) {
	requestID := uuid.NewString()
	o.publish(trace.Event{
		Type:      trace.RequestEventType,
		RequestID: requestID,
		Target:    string(d.Capability),
		Summary:   firstLine(d.Input),
		At:        time.Now().UTC(),
	})

	answer, err := o.run(ctx, d)

	ev := trace.Event{
		Type:      trace.ResponseEventType,
		RequestID: requestID,
		Target:    string(d.Capability),
		Summary:   firstLine(answer),
		At:        time.Now().UTC(),
	}
	if err != nil {
		ev.Err = err.Error()
	}
	o.publish(ev)

	return answer, err
}

func (o *Orchestrator) run(ctx context.Context, d Decision) (string, error) {
	switch d.Capability {
	case CapListBooks:
		return o.listBooks(ctx)
	case CapBookMetadata:
		return o.bookMetadata(ctx, d.Input)
	case CapArchivist:
		var req models.SpecialistRequest
		if err := json.Unmarshal([]byte(d.Input), &req); err != nil {
			return "", fmt.Errorf("archivist input: %w", err)
		}
		return o.Proxy.Ask(ctx, req.BookTitle, req.Query)
	case CapHistorian:
		return o.Historian.Lookup(ctx, d.Input)
	default:
		return "", fmt.Errorf("unknown capability %q", d.Capability)
	}
}

func (o *Orchestrator) listBooks(ctx context.Context) (string, error) {
	res, err := o.Resolver.ListBooks(ctx)
	if err != nil {
		return "", err
	}
	if len(res.Keys) == 0 {
		return "No books found in the library. Add .txt files to the corpus directory.", nil
	}

	keys := append([]string(nil), res.Keys...)
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Available books (use these keys):")
	for _, k := range keys {
		b.WriteString("\n- ")
		b.WriteString(k)
		if rec, ok := res.Records[k]; ok && rec.Title != "" {
			b.WriteString(" (")
			b.WriteString(rec.Title)
			if rec.Author != "" {
				b.WriteString(" by ")
				b.WriteString(rec.Author)
			}
			b.WriteString(")")
		}
	}
	return b.String(), nil
}

func (o *Orchestrator) bookMetadata(ctx context.Context, key string) (string, error) {
	rec, err := o.Resolver.GetMetadata(ctx, key)
	if err != nil {
		return "", err
	}
	if rec.Empty() {
		return fmt.Sprintf("No metadata found for '%s'.", models.NormalizeKey(key)), nil
	}

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(b), nil
}

// knownKeys fetches the current key set for the policy's benefit. Discovery
// trouble degrades the policy's context, it does not block the answer.
func (o *Orchestrator) knownKeys(ctx context.Context) []string {
	res, err := o.Resolver.ListBooks(ctx)
	if err != nil {
		log.Printf("[critic] discovery unavailable for intent mapping: %v", err)
		return nil
	}
	return res.Keys
}

func (o *Orchestrator) publish(ev trace.Event) {
	if o.Hub != nil {
		o.Hub.Publish(ev)
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const max = 120
	if len(s) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
