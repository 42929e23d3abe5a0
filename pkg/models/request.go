package models

// SpecialistRequest is the only payload shape the archivist accepts.
// BookTitle must already be a normalized book key; translating friendly titles
// into keys is the proxy's job, not the archivist's.
type SpecialistRequest struct {
	BookTitle string `json:"book_title"`
	Query     string `json:"query"`
}
