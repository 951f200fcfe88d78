package export

import (
	"github.com/cayleygraph/quad"

	"github.com/Financial-Times/thesaurus-api/concept"
	"github.com/Financial-Times/thesaurus-api/skos"
	"github.com/Financial-Times/thesaurus-api/store"
)

var relationshipPredicates = map[string]string{
	concept.Broader:       skos.Broader,
	concept.Related:       skos.Related,
	concept.Narrower:      skos.Narrower,
	concept.Member:        skos.Member,
	concept.HasTopConcept: skos.HasTopConcept,
}

// Triples rebuilds the statements about a concept shown by its profile, in a
// stable order.
func Triples(p *concept.Profile) []quad.Quad {
	s := quad.IRI(p.URI)
	var quads []quad.Quad
	add := func(predicate string, o quad.Value) {
		quads = append(quads, quad.Quad{Subject: s, Predicate: quad.IRI(predicate), Object: o})
	}

	if len(p.Types) == 0 {
		add(skos.RDFType, quad.IRI(skos.Concept))
	}
	for _, t := range p.Types {
		add(skos.RDFType, quad.IRI(t.URI))
	}
	for _, l := range p.PrefLabels {
		add(skos.PrefLabel, term(l))
	}
	for _, l := range p.AltLabels {
		add(skos.AltLabel, term(l))
	}
	for _, scheme := range p.InScheme {
		add(skos.InScheme, quad.IRI(scheme))
	}
	for _, l := range p.Notes {
		add(skos.Note, term(l))
	}
	for _, l := range p.ScopeNotes {
		add(skos.ScopeNote, term(l))
	}
	for _, r := range p.Relationships {
		if predicate, ok := relationshipPredicates[r.Type]; ok {
			add(predicate, quad.IRI(r.URI))
		}
	}
	for _, l := range p.Identifiers {
		add(skos.Identifier, term(l))
	}
	for _, l := range p.Titles {
		add(skos.Title, term(l))
	}
	for _, scheme := range p.TopConceptOf {
		add(skos.TopConceptOf, quad.IRI(scheme))
	}
	return quads
}

func term(l store.Literal) quad.Value {
	switch {
	case l.IsIRI:
		return quad.IRI(l.Value)
	case l.Lang != "":
		return quad.LangString{Value: quad.String(l.Value), Lang: l.Lang}
	default:
		return quad.String(l.Value)
	}
}
