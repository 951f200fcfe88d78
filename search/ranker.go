// Package search ranks concepts against the text index. Matches on the
// preferred label of the requested language weigh three times matches on its
// alternate labels. Hits keep the index's score order and are labelled from
// the store, never from the index.
package search

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/Financial-Times/go-logger/v2"
	tidUtils "github.com/Financial-Times/transactionid-utils-go"
	"github.com/pkg/errors"

	"github.com/Financial-Times/thesaurus-api/mapper"
	"github.com/Financial-Times/thesaurus-api/skos"
)

const (
	prefLabelBoost = 3.0
	altLabelBoost  = 1.0
)

// ErrUnsupportedLanguage is returned for languages outside skos.Languages.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// TextIndex runs multi-field match queries.
type TextIndex interface {
	Query(ctx context.Context, mm MultiMatch) ([]RawHit, error)
}

// LabelResolver resolves the display label of a resource.
type LabelResolver interface {
	Resolve(ctx context.Context, identifier string, lang string) (string, error)
}

// Hit is a ranked concept.
type Hit struct {
	Score float64 `json:"score"`
	URI   string  `json:"uri"`
	mapper.URIRef
	PrefLabel string `json:"pref_label"`
}

type Ranker struct {
	index               TextIndex
	resolver            LabelResolver
	searchMaxHits       int
	autocompleteMaxHits int
	log                 *logger.UPPLogger
}

// NewRanker fails unless both hit limits are positive.
func NewRanker(index TextIndex, resolver LabelResolver, searchMaxHits int, autocompleteMaxHits int, log *logger.UPPLogger) (*Ranker, error) {
	if searchMaxHits <= 0 {
		return nil, fmt.Errorf("search max hits must be positive, got %d", searchMaxHits)
	}
	if autocompleteMaxHits <= 0 {
		return nil, fmt.Errorf("autocomplete max hits must be positive, got %d", autocompleteMaxHits)
	}
	return &Ranker{
		index:               index,
		resolver:            resolver,
		searchMaxHits:       searchMaxHits,
		autocompleteMaxHits: autocompleteMaxHits,
		log:                 log,
	}, nil
}

// Search returns the concepts matching text in lang, best first.
func (r *Ranker) Search(ctx context.Context, text string, lang string) ([]Hit, error) {
	raw, err := r.query(ctx, text, lang, r.searchMaxHits, false)
	if err != nil {
		return nil, err
	}
	return r.resolve(ctx, raw, lang)
}

// Autocomplete returns the concepts whose labels in lang match prefix. Hits
// matched only through another language's fields are dropped.
func (r *Ranker) Autocomplete(ctx context.Context, prefix string, lang string) ([]Hit, error) {
	raw, err := r.query(ctx, prefix, lang, r.autocompleteMaxHits, true)
	if err != nil {
		return nil, err
	}
	kept := raw[:0]
	for _, h := range raw {
		if _, ok := h.Fields[LabelsField(lang)]; ok {
			kept = append(kept, h)
		}
	}
	return r.resolve(ctx, kept, lang)
}

func (r *Ranker) query(ctx context.Context, text string, lang string, size int, prefix bool) ([]RawHit, error) {
	if !skos.IsLanguage(lang) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	text = Sanitize(text)
	if text == "" {
		return []RawHit{}, nil
	}

	hits, err := r.index.Query(ctx, MultiMatch{
		Text: text,
		Fields: []Field{
			{Name: LabelsField(lang), Boost: prefLabelBoost},
			{Name: AltLabelsField(lang), Boost: altLabelBoost},
		},
		Size:   size,
		Prefix: prefix,
	})
	if err != nil {
		tid, _ := tidUtils.GetTransactionIDFromContext(ctx)
		r.log.WithTransactionID(tid).WithError(err).WithField("lang", lang).Error("Search index query failed")
		return nil, err
	}
	return hits, nil
}

func (r *Ranker) resolve(ctx context.Context, raw []RawHit, lang string) ([]Hit, error) {
	hits := make([]Hit, 0, len(raw))
	for _, h := range raw {
		label, err := r.resolver.Resolve(ctx, h.URI, lang)
		if err != nil {
			return nil, err
		}
		hits = append(hits, Hit{
			Score:     h.Score,
			URI:       h.URI,
			URIRef:    mapper.SplitURI(h.URI),
			PrefLabel: label,
		})
	}
	return hits, nil
}

// Sanitize removes control, format and other non-printable characters and
// surrounding whitespace.
func Sanitize(text string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.Is(unicode.C, r) {
			return -1
		}
		return r
	}, text))
}
