package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"librarian/pkg/models"
)

var (
	// ErrUnknownTarget means the caller named a backend that is not in the
	// routing table. No network call is made.
	ErrUnknownTarget = errors.New("unknown target")

	// ErrBadPayload means the payload does not fit the target's schema.
	// The router forwards payloads, it never rewrites them.
	ErrBadPayload = errors.New("payload does not match target schema")
)

// Caller performs the transport call to one target. The router depends only on
// this capability, never on what is listening at the other end.
type Caller interface {
	Call(ctx context.Context, target models.AgentTarget, payload string) (string, error)
}

// Router forwards a payload to the backend matching a human-entered target
// name. The name -> target table is fixed at construction.
type Router struct {
	targets map[string]models.AgentTarget
	caller  Caller
}

// New builds a router over the standard three backends. A backend that is
// configured but not running costs nothing until someone addresses it.
func New(criticAddr, archivistAddr, catalogAddr string, caller Caller) *Router {
	targets := map[string]models.AgentTarget{
		"critic":    {Name: "critic", BaseURL: criticAddr, Schema: models.SchemaFreeText},
		"archivist": {Name: "archivist", BaseURL: archivistAddr, Schema: models.SchemaSpecialist},
		"catalog":   {Name: "catalog", BaseURL: catalogAddr, Schema: models.SchemaFreeText},
	}
	return &Router{targets: targets, caller: caller}
}

// Targets lists the routable backends, sorted by name.
func (r *Router) Targets() []models.AgentTarget {
	out := make([]models.AgentTarget, 0, len(r.targets))
	for _, t := range r.targets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the target for a name, if it is routable.
func (r *Router) Lookup(name string) (models.AgentTarget, bool) {
	t, ok := r.targets[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Dispatch forwards the payload to the named target and returns its raw
// response. For specialist-schema targets the payload must already be a
// well-formed request object; the friendly-title translation lives in the
// archivist proxy, not here.
func (r *Router) Dispatch(ctx context.Context, name, payload string) (string, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTarget, name)
	}

	if t.Schema == models.SchemaSpecialist {
		if err := validateSpecialistPayload(payload); err != nil {
			return "", err
		}
	}

	return r.caller.Call(ctx, t, payload)
}

func validateSpecialistPayload(payload string) error {
	var req models.SpecialistRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if strings.TrimSpace(req.BookTitle) == "" || strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("%w: book_title and query are required", ErrBadPayload)
	}
	return nil
}
