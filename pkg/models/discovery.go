package models

// DiscoveryResult is what a single discovery attempt returns: the keys of every
// book known to exist plus whatever metadata records were found for them.
//
// Keys always covers Records: every record key appears in Keys, but Keys may
// list books that have no metadata at all.
type DiscoveryResult struct {
	Keys    []string              `json:"keys"`
	Records map[string]BookRecord `json:"records,omitempty"`
}
