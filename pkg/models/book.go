package models

import "encoding/json"

// BookRecord is the metadata entry for one book in the library.
//
// Records come from book_metadata.json (or its remote mirror), a JSON object
// mapping book key -> record. The key is the top-level field name in that file,
// never a field inside the record itself. Metadata sources evolve, so any field
// we don't model explicitly is kept verbatim in Extra instead of being dropped.
type BookRecord struct {
	Key    string `json:"-"`
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
	Year   int    `json:"year,omitempty"`

	// Extra holds free-form fields from the source we don't model.
	Extra map[string]any `json:"-"`
}

// Empty reports whether the record carries no metadata at all.
func (r BookRecord) Empty() bool {
	return r.Title == "" && r.Author == "" && r.Year == 0 && len(r.Extra) == 0
}

func (r *BookRecord) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	if v, ok := raw["title"]; ok {
		_ = json.Unmarshal(v, &r.Title)
		delete(raw, "title")
	}
	if v, ok := raw["author"]; ok {
		_ = json.Unmarshal(v, &r.Author)
		delete(raw, "author")
	}
	if v, ok := raw["year"]; ok {
		_ = json.Unmarshal(v, &r.Year)
		delete(raw, "year")
	}

	if len(raw) > 0 {
		r.Extra = make(map[string]any, len(raw))
		for k, v := range raw {
			var val any
			_ = json.Unmarshal(v, &val)
			r.Extra[k] = val
		}
	}
	return nil
}

func (r BookRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+3)
	for k, v := range r.Extra {
		out[k] = v
	}
	if r.Title != "" {
		out["title"] = r.Title
	}
	if r.Author != "" {
		out["author"] = r.Author
	}
	if r.Year != 0 {
		out["year"] = r.Year
	}
	return json.Marshal(out)
}
