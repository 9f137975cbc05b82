// Package scrape extracts typed records from ERP pages. Every extractor is a
// fallback chain over layout variants; absence of a field is data, never an
// error, so a partially filled record is still returned.
package scrape

import "fmt"

// Provenance records how an identifier value was obtained.
type Provenance string

const (
	// ProvenanceResolved means the canonical id was located in page content.
	ProvenanceResolved Provenance = "resolved"
	// ProvenanceFallback means the navigation id was substituted because no
	// canonical id could be found. Downstream consumers can filter on this.
	ProvenanceFallback Provenance = "fallback"
)

// ID is an identifier tagged with its provenance.
type ID struct {
	Value      int64      `json:"value"`
	Provenance Provenance `json:"provenance"`
}

func (id ID) String() string {
	return fmt.Sprintf("%d", id.Value)
}

// Resolved builds a content-confirmed id.
func Resolved(v int64) ID { return ID{Value: v, Provenance: ProvenanceResolved} }

// Fallback builds an id substituted from the navigation space.
func Fallback(v int64) ID { return ID{Value: v, Provenance: ProvenanceFallback} }

// Stub is the minimal list-page result, consumed immediately to fetch the
// detail page. Stubs are never persisted.
type Stub struct {
	NavigationID int64
	DetailURL    string
	NameHint     string
}

// Candidate is a fully parsed candidate detail page.
type Candidate struct {
	CanonicalID  ID    `json:"canonicalId"`
	NavigationID int64 `json:"navigationId"`

	Name        string `json:"name"`
	CreatedDate string `json:"createdDate"` // ISO form, YYYY-MM-DD
	UpdatedDate string `json:"updatedDate"`

	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Position        string `json:"position,omitempty"`
	Status          string `json:"status,omitempty"`
	Experience      string `json:"experience,omitempty"`
	WorkEligibility string `json:"workEligibility,omitempty"`

	DocumentURL string `json:"documentUrl,omitempty"`
	DetailURL   string `json:"detailUrl,omitempty"`
}

// JobCase is a fully parsed job-order case page.
type JobCase struct {
	CanonicalID  ID    `json:"canonicalId"`
	NavigationID int64 `json:"navigationId"`

	Title       string `json:"title"`
	CompanyName string `json:"companyName"`
	Status      string `json:"status,omitempty"`
	CreatedDate string `json:"createdDate"`
	UpdatedDate string `json:"updatedDate"`

	AssignedTeam string `json:"assignedTeam,omitempty"`
	DrafterName  string `json:"drafterName,omitempty"`

	// ClientCanonicalID is zero when the case has no resolvable client link.
	ClientCanonicalID int64 `json:"clientCanonicalId,omitempty"`

	// ConnectedCandidateIDs holds canonical ids where the linked candidate
	// resolved, navigation ids (tagged fallback) where it did not.
	ConnectedCandidateIDs []ID `json:"connectedCandidateIds,omitempty"`

	ContractType string `json:"contractType,omitempty"`
	PositionInfo string `json:"positionInfo,omitempty"`
	Requirements string `json:"requirements,omitempty"`
	Benefits     string `json:"benefits,omitempty"`

	DetailURL string `json:"detailUrl,omitempty"`
}

// Warning reports a field no extraction strategy could fill. Warnings are
// journal material for the caller, never errors.
type Warning struct {
	Field   string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Field, w.Message)
}
