package concept

import "github.com/Financial-Times/thesaurus-api/store"

// Relationship types, in display precedence.
const (
	Broader       = "broader"
	Related       = "related"
	Narrower      = "narrower"
	Member        = "member"
	HasTopConcept = "hasTopConcept"
)

// Profile is everything the term view shows about one concept. Collections
// are never nil; an unknown concept has every collection empty.
type Profile struct {
	URI           string          `json:"uri"`
	Language      string          `json:"lang"`
	Types         []RDFType       `json:"rdf_types"`
	PrefLabel     string          `json:"pref_label"`
	PrefLabels    []store.Literal `json:"pref_labels"`
	AltLabels     []store.Literal `json:"alt_labels"`
	ScopeNotes    []store.Literal `json:"scope_notes"`
	Notes         []store.Literal `json:"notes"`
	Identifiers   []store.Literal `json:"identifiers"`
	Titles        []store.Literal `json:"titles"`
	InScheme      []string        `json:"in_scheme"`
	TopConceptOf  []string        `json:"top_concept_of"`
	Breadcrumbs   []Breadcrumb    `json:"breadcrumbs"`
	Relationships []Relationship  `json:"relationships"`
	Matches       []Match         `json:"matches"`
}

// RDFType is one rdf:type of a concept.
type RDFType struct {
	ShortName string `json:"short_name"`
	URI       string `json:"uri"`
}

// Relationship is a directed edge to another concept, labelled in the profile language.
type Relationship struct {
	Type      string `json:"type"`
	URI       string `json:"uri"`
	PrefLabel string `json:"pref_label"`
}

// Ref is a labelled reference to another resource.
type Ref struct {
	URI       string `json:"uri"`
	PrefLabel string `json:"pref_label"`
}

// Breadcrumb is one ancestry path: a domain and, optionally, the micro-thesaurus below it.
type Breadcrumb struct {
	Domain         Ref  `json:"domain"`
	MicroThesaurus *Ref `json:"microthesaurus,omitempty"`
}

// Match is an exact match in an external vocabulary.
type Match struct {
	URI string `json:"uri"`
}

func newProfile(uri string, lang string) *Profile {
	return &Profile{
		URI:           uri,
		Language:      lang,
		Types:         []RDFType{},
		PrefLabels:    []store.Literal{},
		AltLabels:     []store.Literal{},
		ScopeNotes:    []store.Literal{},
		Notes:         []store.Literal{},
		Identifiers:   []store.Literal{},
		Titles:        []store.Literal{},
		InScheme:      []string{},
		TopConceptOf:  []string{},
		Breadcrumbs:   []Breadcrumb{},
		Relationships: []Relationship{},
		Matches:       []Match{},
	}
}
