package models

// Schema names the request payload shape a target expects.
type Schema string

const (
	// SchemaFreeText targets accept a plain text prompt.
	SchemaFreeText Schema = "free_text"
	// SchemaSpecialist targets require a SpecialistRequest JSON object.
	SchemaSpecialist Schema = "specialist"
)

// AgentTarget is one routable backend: a name the operator types, the base URL
// it is served at, and the payload schema it expects.
type AgentTarget struct {
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
	Schema  Schema `json:"schema"`
}
