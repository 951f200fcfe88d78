package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Financial-Times/go-logger/v2"
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/pkg/errors"

	"github.com/Financial-Times/thesaurus-api/skos"
)

// ErrUnavailable is matched by every error returned from an index query.
var ErrUnavailable = errors.New("search index unavailable")

// Error reports a failed index operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("search index %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrUnavailable
}

// Index field names.
const (
	URIField = "uri"
)

func LabelsField(lang string) string     { return "labels_" + lang }
func AltLabelsField(lang string) string  { return "alt_labels_" + lang }
func ScopeNotesField(lang string) string { return "scope_notes_" + lang }

// Document is the indexed form of one concept, grouped by language.
type Document struct {
	URI        string
	Labels     map[string]string
	AltLabels  map[string][]string
	ScopeNotes map[string][]string
}

func (d Document) fields() map[string]interface{} {
	fields := map[string]interface{}{URIField: d.URI}
	for lang, label := range d.Labels {
		fields[LabelsField(lang)] = label
	}
	for lang, labels := range d.AltLabels {
		fields[AltLabelsField(lang)] = labels
	}
	for lang, notes := range d.ScopeNotes {
		fields[ScopeNotesField(lang)] = notes
	}
	return fields
}

// Field is a field name and the boost of matches on it.
type Field struct {
	Name  string
	Boost float64
}

// MultiMatch matches Text against each of Fields and returns at most Size hits.
// With Prefix set, the last term of Text also matches as a prefix.
type MultiMatch struct {
	Text   string
	Fields []Field
	Size   int
	Prefix bool
}

// RawHit is an index hit before label resolution.
type RawHit struct {
	Score  float64
	URI    string
	Fields map[string]interface{}
}

// Index is a bleve index of concept documents.
type Index struct {
	index    bleve.Index
	endpoint string
	log      *logger.UPPLogger
}

// NewMapping maps the per-language label fields as stored text and the uri as a keyword.
func NewMapping() *mapping.IndexMappingImpl {
	doc := bleve.NewDocumentMapping()

	uri := bleve.NewTextFieldMapping()
	uri.Analyzer = keyword.Name
	uri.Store = true
	doc.AddFieldMappingsAt(URIField, uri)

	for _, lang := range skos.Languages {
		for _, name := range []string{LabelsField(lang), AltLabelsField(lang), ScopeNotesField(lang)} {
			f := bleve.NewTextFieldMapping()
			f.Analyzer = standard.Name
			f.Store = true
			doc.AddFieldMappingsAt(name, f)
		}
	}

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = standard.Name
	return m
}

// OpenIndex opens the index at path, creating an empty one when none exists.
func OpenIndex(path string, log *logger.UPPLogger) (*Index, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Wrapf(err, "failed to create directory for search index %s", path)
		}
		log.WithField("path", path).Warn("No search index found, creating an empty one")
		idx, err = bleve.New(path, NewMapping())
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open search index %s", path)
	}
	return &Index{index: idx, endpoint: path, log: log}, nil
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex(log *logger.UPPLogger) (*Index, error) {
	idx, err := bleve.NewMemOnly(NewMapping())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create search index")
	}
	return &Index{index: idx, endpoint: "memory", log: log}, nil
}

// IndexDocuments adds or replaces documents, keyed by URI. It is used by loaders and tests.
func (i *Index) IndexDocuments(ctx context.Context, docs ...Document) error {
	if len(docs) == 0 {
		return nil
	}
	batch := i.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.URI, doc.fields()); err != nil {
			return &Error{Op: "index", Err: errors.Wrapf(err, "document %s", doc.URI)}
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return &Error{Op: "index", Err: err}
	}
	return nil
}

// Query runs a boosted disjunction of match queries, one per field.
func (i *Index) Query(ctx context.Context, mm MultiMatch) ([]RawHit, error) {
	var disjuncts []query.Query
	for _, f := range mm.Fields {
		match := bleve.NewMatchQuery(mm.Text)
		match.SetField(f.Name)
		match.SetBoost(f.Boost)
		disjuncts = append(disjuncts, match)

		if term := lastTerm(mm.Text); mm.Prefix && term != "" {
			prefix := bleve.NewPrefixQuery(term)
			prefix.SetField(f.Name)
			prefix.SetBoost(f.Boost)
			disjuncts = append(disjuncts, prefix)
		}
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(disjuncts...), mm.Size, 0, false)
	req.Fields = []string{"*"}

	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, &Error{Op: "query", Err: err}
	}

	hits := make([]RawHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		uri, _ := h.Fields[URIField].(string)
		if uri == "" {
			uri = h.ID
		}
		hits = append(hits, RawHit{Score: h.Score, URI: uri, Fields: h.Fields})
	}
	return hits, nil
}

// lastTerm is the lowercased final whitespace-separated word of text.
func lastTerm(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	return strings.ToLower(words[len(words)-1])
}

// Endpoint is the index path.
func (i *Index) Endpoint() string {
	return i.endpoint
}

// GTG checks the index answers a document count.
func (i *Index) GTG() error {
	if _, err := i.index.DocCount(); err != nil {
		i.log.WithError(err).Error("Search index is not good-to-go")
		return &Error{Op: "gtg", Err: err}
	}
	return nil
}

// Close closes the index.
func (i *Index) Close() error {
	return i.index.Close()
}
