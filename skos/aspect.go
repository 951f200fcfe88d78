package skos

// Aspect is a browsable category of the thesaurus.
type Aspect string

const (
	AspectDomain         Aspect = "Domain"
	AspectMicroThesaurus Aspect = "MicroThesaurus"
	AspectConceptScheme  Aspect = "ConceptScheme"
	AspectGeographicTerm Aspect = "GeographicTerm"
	AspectConcept        Aspect = "Concept"

	DefaultAspect = AspectDomain
)

var aspectTypes = map[Aspect]string{
	AspectDomain:         Domain,
	AspectMicroThesaurus: MicroThesaurus,
	AspectConceptScheme:  ConceptScheme,
	AspectGeographicTerm: GeographicTerm,
	AspectConcept:        Concept,
}

// TypeIRI returns the rdf:type an aspect lists, and false for unknown aspects.
func (a Aspect) TypeIRI() (string, bool) {
	t, ok := aspectTypes[a]
	return t, ok
}
