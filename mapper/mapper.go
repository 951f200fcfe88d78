package mapper

import (
	"strings"
)

// URIRef is a concept identifier split on its fragment, the way the browsing
// endpoints receive and emit it.
type URIRef struct {
	BaseURI   string `json:"base_uri"`
	URIAnchor string `json:"uri_anchor"`
}

// SplitURI splits a concept identifier of the form base#anchor.
// Identifiers without a fragment are returned whole as the base URI.
func SplitURI(uri string) URIRef {
	i := strings.Index(uri, "#")
	if i == -1 {
		return URIRef{BaseURI: uri}
	}
	return URIRef{BaseURI: uri[:i], URIAnchor: uri[i+1:]}
}

// JoinURI rebuilds a concept identifier from its base and optional anchor.
func JoinURI(baseURI string, anchor string) string {
	if anchor == "" {
		return baseURI
	}
	return baseURI + "#" + anchor
}

// URI returns the full identifier.
func (r URIRef) URI() string {
	return JoinURI(r.BaseURI, r.URIAnchor)
}

// ShortName returns the local name of an IRI: the part after the last '#',
// or after the last '/' when there is no fragment.
func ShortName(iri string) string {
	if i := strings.LastIndex(iri, "#"); i != -1 {
		return iri[i+1:]
	}
	if i := strings.LastIndex(iri, "/"); i != -1 && i != len(iri)-1 {
		return iri[i+1:]
	}
	return iri
}

// SplitNamespace splits an IRI into namespace and local name, keeping the
// separator on the namespace side.
func SplitNamespace(iri string) (string, string) {
	i := strings.LastIndexAny(iri, "#/")
	if i == -1 || i == len(iri)-1 {
		return iri, ""
	}
	return iri[:i+1], iri[i+1:]
}
