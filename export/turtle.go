package export

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/knakk/rdf"

	"github.com/Financial-Times/thesaurus-api/skos"
)

// rdfTriple converts a quad to the term model of the Turtle encoder.
func rdfTriple(q quad.Quad) (rdf.Triple, error) {
	s, err := rdf.NewIRI(iriOf(q.Subject))
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("invalid subject %q: %w", iriOf(q.Subject), err)
	}
	p, err := rdf.NewIRI(iriOf(q.Predicate))
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("invalid predicate %q: %w", iriOf(q.Predicate), err)
	}
	o, err := rdfObject(q.Object)
	if err != nil {
		return rdf.Triple{}, err
	}
	return rdf.Triple{Subj: s, Pred: p, Obj: o}, nil
}

func rdfObject(v quad.Value) (rdf.Object, error) {
	switch o := v.(type) {
	case quad.IRI:
		return rdf.NewIRI(string(o))
	case quad.LangString:
		return rdf.NewLangLiteral(string(o.Value), o.Lang)
	case quad.String:
		return rdf.NewLiteral(string(o))
	}
	return rdf.NewLiteral(quad.StringOf(v))
}

func rdfTriples(quads []quad.Quad) ([]rdf.Triple, error) {
	triples := make([]rdf.Triple, 0, len(quads))
	for _, q := range quads {
		t, err := rdfTriple(q)
		if err != nil {
			return nil, err
		}
		triples = append(triples, t)
	}
	return triples, nil
}

// writeTurtle writes quads as prefixed Turtle.
func writeTurtle(w io.Writer, quads []quad.Quad) error {
	triples, err := rdfTriples(quads)
	if err != nil {
		return err
	}

	enc := rdf.NewTripleEncoder(w, rdf.Turtle)
	for _, p := range skos.Prefixes {
		enc.Namespaces[p.Namespace] = p.Prefix
	}
	if err := enc.EncodeAll(triples); err != nil {
		return err
	}
	return enc.Close()
}

// writeTriG writes quads as a TriG default graph block. Prefix directives
// are hoisted above the block.
func writeTriG(w io.Writer, quads []quad.Quad) error {
	buf := &bytes.Buffer{}
	if err := writeTurtle(buf, quads); err != nil {
		return err
	}

	var directives, statements []string
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "@prefix") {
			directives = append(directives, line)
			continue
		}
		if strings.TrimSpace(line) != "" {
			statements = append(statements, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	for _, d := range directives {
		bw.WriteString(d + "\n")
	}
	bw.WriteString("\n{\n")
	for _, s := range statements {
		bw.WriteString("    " + s + "\n")
	}
	bw.WriteString("}\n")
	return bw.Flush()
}
