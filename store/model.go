package store

import (
	"github.com/uptrace/bun"
)

// Triple is one explicit statement of the thesaurus graph. Inverse relations
// are never implied: a broader edge does not produce a narrower one.
type Triple struct {
	bun.BaseModel `bun:"table:triples,alias:t"`

	Subject   string `bun:"subject,notnull"`
	Predicate string `bun:"predicate,notnull"`
	Object    string `bun:"object,notnull"`
	Lang      string `bun:"lang,notnull"`
	IsIRI     bool   `bun:"is_iri,notnull"`
}

// IRI builds a triple whose object is a resource.
func IRI(subject, predicate, object string) Triple {
	return Triple{Subject: subject, Predicate: predicate, Object: object, IsIRI: true}
}

// LangLiteral builds a triple whose object is a language tagged literal.
func LangLiteral(subject, predicate, value, lang string) Triple {
	return Triple{Subject: subject, Predicate: predicate, Object: value, Lang: lang}
}

// PlainLiteral builds a triple whose object is an untagged literal.
func PlainLiteral(subject, predicate, value string) Triple {
	return Triple{Subject: subject, Predicate: predicate, Object: value}
}

// Literal is an object term: either an IRI or a literal, optionally tagged with a language.
type Literal struct {
	Value string `bun:"object" json:"value"`
	Lang  string `bun:"lang" json:"lang,omitempty"`
	IsIRI bool   `bun:"is_iri" json:"-"`
}

// BreadcrumbRow is one ancestry path of a concept. MicroThesaurus is empty
// when the concept hangs directly off the domain.
type BreadcrumbRow struct {
	Domain         string `bun:"domain"`
	MicroThesaurus string `bun:"microthesaurus"`
}

// ListingRow is one entry of a category listing.
type ListingRow struct {
	URI       string `bun:"uri"`
	PrefLabel string `bun:"pref_label"`
}
