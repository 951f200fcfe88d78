// Package export serializes the statements of a concept profile as RDF.
package export

import (
	"bytes"
	"context"
	"io"

	"github.com/Financial-Times/go-logger/v2"
	tidUtils "github.com/Financial-Times/transactionid-utils-go"
	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/jsonld"
	"github.com/cayleygraph/quad/nquads"

	"github.com/Financial-Times/thesaurus-api/concept"
	"github.com/Financial-Times/thesaurus-api/mapper"
	"github.com/Financial-Times/thesaurus-api/skos"
)

// ProfileAssembler builds the profile a document is exported from.
type ProfileAssembler interface {
	Assemble(ctx context.Context, uri string, lang string) (*concept.Profile, error)
}

// Document is a serialized concept.
type Document struct {
	Data     []byte
	Format   Format
	Filename string
}

type Exporter struct {
	assembler ProfileAssembler
	log       *logger.UPPLogger
}

func NewExporter(assembler ProfileAssembler, log *logger.UPPLogger) *Exporter {
	return &Exporter{assembler: assembler, log: log}
}

// Export serializes the concept uri in the named format, with labels and
// notes in every language. An unsupported format fails before the store is queried.
func (e *Exporter) Export(ctx context.Context, uri string, formatName string) (*Document, error) {
	format, err := ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	profile, err := e.assembler.Assemble(ctx, uri, "")
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := Write(buf, format, Triples(profile)); err != nil {
		tid, _ := tidUtils.GetTransactionIDFromContext(ctx)
		e.log.WithTransactionID(tid).WithError(err).WithField("format", format).Error("Failed to serialize concept")
		return nil, err
	}
	return &Document{Data: buf.Bytes(), Format: format, Filename: filename(uri, format)}, nil
}

func filename(uri string, format Format) string {
	name := mapper.SplitURI(uri).URIAnchor
	if name == "" {
		name = mapper.ShortName(uri)
	}
	return name + "." + format.Extension()
}

// Write serializes quads in format.
func Write(w io.Writer, format Format, quads []quad.Quad) error {
	switch format {
	case NTriples:
		return writeNQuads(w, quads)
	case JSONLD:
		return writeJSONLD(w, quads)
	case Turtle, N3:
		return writeTurtle(w, quads)
	case TriG:
		return writeTriG(w, quads)
	case RDFXML:
		return writeRDFXML(w, quads)
	case TriX:
		return writeTriX(w, quads)
	}
	return &InvalidFormatError{Format: string(format)}
}

func writeNQuads(w io.Writer, quads []quad.Quad) error {
	qw := nquads.NewWriter(w)
	for _, q := range quads {
		if err := qw.WriteQuad(q); err != nil {
			return err
		}
	}
	return qw.Close()
}

func writeJSONLD(w io.Writer, quads []quad.Quad) error {
	ldContext := make(map[string]interface{}, len(skos.Prefixes))
	for _, p := range skos.Prefixes {
		ldContext[p.Prefix] = p.Namespace
	}

	qw := jsonld.NewWriter(w)
	qw.SetLdContext(ldContext)
	for _, q := range quads {
		if err := qw.WriteQuad(q); err != nil {
			return err
		}
	}
	return qw.Close()
}
