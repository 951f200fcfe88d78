package export

import (
	"fmt"
	"strings"
)

// Format is a supported RDF serialization.
type Format string

const (
	RDFXML   Format = "xml"
	N3       Format = "n3"
	Turtle   Format = "turtle"
	NTriples Format = "nt"
	TriX     Format = "trix"
	TriG     Format = "trig"
	JSONLD   Format = "json-ld"
)

var formats = map[string]Format{
	"xml":        RDFXML,
	"pretty-xml": RDFXML,
	"n3":         N3,
	"turtle":     Turtle,
	"nt":         NTriples,
	"trix":       TriX,
	"trig":       TriG,
	"json-ld":    JSONLD,
}

var extensions = map[Format]string{
	RDFXML: "xml",
	Turtle: "ttl",
	JSONLD: "json",
}

var contentTypes = map[Format]string{
	RDFXML:   "application/rdf+xml",
	N3:       "text/n3",
	Turtle:   "text/turtle",
	NTriples: "application/n-triples",
	TriX:     "application/trix",
	TriG:     "application/trig",
	JSONLD:   "application/ld+json",
}

// InvalidFormatError names a serialization that is not supported.
type InvalidFormatError struct {
	Format string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("unsupported serialization format: %s", e.Format)
}

// ParseFormat parses a format name case-insensitively. pretty-xml is the same format as xml.
func ParseFormat(name string) (Format, error) {
	f, ok := formats[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", &InvalidFormatError{Format: name}
	}
	return f, nil
}

// Extension is the file extension of documents in this format.
func (f Format) Extension() string {
	if ext, ok := extensions[f]; ok {
		return ext
	}
	return string(f)
}

// ContentType is the media type of documents in this format.
func (f Format) ContentType() string {
	return contentTypes[f]
}
