package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"

	"github.com/cayleygraph/quad"

	"github.com/Financial-Times/thesaurus-api/mapper"
	"github.com/Financial-Times/thesaurus-api/skos"
)

const trixNamespace = "http://www.w3.org/2004/03/trix/trix-1/"

var localName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

type statement struct {
	predicate string
	objects   []quad.Value
}

type description struct {
	subject    string
	statements []*statement
}

// describe groups quads by subject and then by predicate, both in order of first appearance.
func describe(quads []quad.Quad) []*description {
	var out []*description
	bySubject := map[string]*description{}
	byPredicate := map[[2]string]*statement{}
	for _, q := range quads {
		s := iriOf(q.Subject)
		p := iriOf(q.Predicate)
		d, ok := bySubject[s]
		if !ok {
			d = &description{subject: s}
			bySubject[s] = d
			out = append(out, d)
		}
		st, ok := byPredicate[[2]string{s, p}]
		if !ok {
			st = &statement{predicate: p}
			byPredicate[[2]string{s, p}] = st
			d.statements = append(d.statements, st)
		}
		st.objects = append(st.objects, q.Object)
	}
	return out
}

func iriOf(v quad.Value) string {
	if iri, ok := v.(quad.IRI); ok {
		return string(iri)
	}
	return quad.StringOf(v)
}

// qname abbreviates iri with one of the known prefixes.
func qname(iri string) (string, string, bool) {
	ns, local := mapper.SplitNamespace(iri)
	if !localName.MatchString(local) {
		return "", "", false
	}
	for _, p := range skos.Prefixes {
		if p.Namespace == ns {
			return p.Prefix, local, true
		}
	}
	return "", "", false
}

type xmlWriter struct {
	enc *xml.Encoder
	err error
}

func newXMLWriter(w io.Writer) *xmlWriter {
	_, err := io.WriteString(w, xml.Header)
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return &xmlWriter{enc: enc, err: err}
}

func (x *xmlWriter) token(t xml.Token) {
	if x.err == nil {
		x.err = x.enc.EncodeToken(t)
	}
}

func (x *xmlWriter) start(name string, attrs ...xml.Attr) {
	x.token(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (x *xmlWriter) end(name string) {
	x.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (x *xmlWriter) element(name string, text string, attrs ...xml.Attr) {
	x.start(name, attrs...)
	if text != "" {
		x.token(xml.CharData(text))
	}
	x.end(name)
}

func (x *xmlWriter) close() error {
	if x.err != nil {
		return x.err
	}
	return x.enc.Flush()
}

func attr(name string, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// writeRDFXML writes one rdf:Description per subject.
func writeRDFXML(w io.Writer, quads []quad.Quad) error {
	x := newXMLWriter(w)

	rootAttrs := make([]xml.Attr, 0, len(skos.Prefixes))
	for _, p := range skos.Prefixes {
		rootAttrs = append(rootAttrs, attr("xmlns:"+p.Prefix, p.Namespace))
	}
	x.start("rdf:RDF", rootAttrs...)

	generated := 0
	for _, d := range describe(quads) {
		x.start("rdf:Description", attr("rdf:about", d.subject))
		for _, st := range d.statements {
			name, nsAttr := propertyName(st.predicate, &generated)
			for _, o := range st.objects {
				attrs := append([]xml.Attr{}, nsAttr...)
				switch v := o.(type) {
				case quad.IRI:
					x.element(name, "", append(attrs, attr("rdf:resource", string(v)))...)
				case quad.LangString:
					x.element(name, string(v.Value), append(attrs, attr("xml:lang", v.Lang))...)
				case quad.String:
					x.element(name, string(v), attrs...)
				default:
					x.element(name, quad.StringOf(v), attrs...)
				}
			}
		}
		x.end("rdf:Description")
	}
	x.end("rdf:RDF")
	return x.close()
}

// propertyName returns the qualified element name of a predicate, declaring a
// generated prefix when its namespace has none.
func propertyName(predicate string, generated *int) (string, []xml.Attr) {
	if prefix, local, ok := qname(predicate); ok {
		return prefix + ":" + local, nil
	}
	ns, local := mapper.SplitNamespace(predicate)
	prefix := fmt.Sprintf("ns%d", *generated)
	*generated++
	return prefix + ":" + local, []xml.Attr{attr("xmlns:"+prefix, ns)}
}

// writeTriX writes quads as a single TriX graph.
func writeTriX(w io.Writer, quads []quad.Quad) error {
	x := newXMLWriter(w)
	x.start("TriX", attr("xmlns", trixNamespace))
	x.start("graph")
	for _, q := range quads {
		x.start("triple")
		x.element("uri", iriOf(q.Subject))
		x.element("uri", iriOf(q.Predicate))
		switch v := q.Object.(type) {
		case quad.IRI:
			x.element("uri", string(v))
		case quad.LangString:
			x.element("plainLiteral", string(v.Value), attr("xml:lang", v.Lang))
		case quad.String:
			x.element("plainLiteral", string(v))
		default:
			x.element("plainLiteral", quad.StringOf(v))
		}
		x.end("triple")
	}
	x.end("graph")
	x.end("TriX")
	return x.close()
}
