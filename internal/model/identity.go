package model

import "strings"

// IdentityKind names which field established a record's identity.
type IdentityKind string

const (
	IdentityExternalID   IdentityKind = "externalId"
	IdentityURL          IdentityKind = "url"
	IdentityTitleCompany IdentityKind = "title+company"
)

// Identity is the deduplication key of a job record. At most one stored
// record carries a given Key.
type Identity struct {
	Kind  IdentityKind
	Value string
}

// Key is the persisted form, unique across kinds.
func (id Identity) Key() string {
	return string(id.Kind) + ":" + id.Value
}

// IdentityOf applies the priority externalId, url, (title, company). The
// second return is false when the item carries none of them, in which case
// every import creates a new record.
func IdentityOf(it NormalizedItem) (Identity, bool) {
	if v := strings.TrimSpace(it.ExternalID); v != "" {
		return Identity{Kind: IdentityExternalID, Value: v}, true
	}
	if v := strings.TrimSpace(it.URL); v != "" {
		return Identity{Kind: IdentityURL, Value: v}, true
	}
	title, company := strings.TrimSpace(it.Title), strings.TrimSpace(it.Company)
	if title != "" && company != "" {
		return Identity{Kind: IdentityTitleCompany, Value: title + "\n" + company}, true
	}
	return Identity{}, false
}
