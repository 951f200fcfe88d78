// Package skos holds the vocabulary IRIs the thesaurus is modelled with.
package skos

// Namespaces used by the thesaurus data.
const (
	RDFNamespace     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	SKOSNamespace    = "http://www.w3.org/2004/02/skos/core#"
	DCTermsNamespace = "http://purl.org/dc/terms/"
	EUNamespace      = "http://eurovoc.europa.eu/schema#"
	UNBISTNamespace  = "http://unontologies.s3-website-us-east-1.amazonaws.com/unbist#"
)

// Predicates.
const (
	RDFType = RDFNamespace + "type"

	PrefLabel     = SKOSNamespace + "prefLabel"
	AltLabel      = SKOSNamespace + "altLabel"
	ScopeNote     = SKOSNamespace + "scopeNote"
	Note          = SKOSNamespace + "note"
	InScheme      = SKOSNamespace + "inScheme"
	Broader       = SKOSNamespace + "broader"
	Narrower      = SKOSNamespace + "narrower"
	Related       = SKOSNamespace + "related"
	Member        = SKOSNamespace + "member"
	HasTopConcept = SKOSNamespace + "hasTopConcept"
	TopConceptOf  = SKOSNamespace + "topConceptOf"
	ExactMatch    = SKOSNamespace + "exactMatch"

	Identifier = DCTermsNamespace + "identifier"
	Title      = DCTermsNamespace + "title"
)

// Types.
const (
	Concept        = SKOSNamespace + "Concept"
	ConceptScheme  = SKOSNamespace + "ConceptScheme"
	Domain         = EUNamespace + "Domain"
	MicroThesaurus = EUNamespace + "MicroThesaurus"
	GeographicTerm = UNBISTNamespace + "GeographicTerm"
	PlaceName      = UNBISTNamespace + "PlaceName"
)

// Languages lists the supported label languages in UN order.
var Languages = []string{"ar", "zh", "en", "fr", "ru", "es"}

// IsLanguage reports whether lang is one of the supported label languages.
func IsLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Prefixes maps the prefixes used in serialized output to their namespaces.
var Prefixes = []struct {
	Prefix    string
	Namespace string
}{
	{"dcterms", DCTermsNamespace},
	{"eu", EUNamespace},
	{"rdf", RDFNamespace},
	{"skos", SKOSNamespace},
	{"unbist", UNBISTNamespace},
}
