// Package listing pages through the members of a thesaurus category.
package listing

import (
	"context"
	"sort"

	"github.com/Financial-Times/go-logger/v2"
	tidUtils "github.com/Financial-Times/transactionid-utils-go"

	"github.com/Financial-Times/thesaurus-api/cache"
	"github.com/Financial-Times/thesaurus-api/mapper"
	"github.com/Financial-Times/thesaurus-api/pagination"
	"github.com/Financial-Times/thesaurus-api/skos"
	"github.com/Financial-Times/thesaurus-api/store"
)

// Store is the set of store queries listings are built from.
type Store interface {
	CountByType(ctx context.Context, typeIRI string) (int, error)
	ListByType(ctx context.Context, typeIRI string, lang string, limit int, offset int) ([]store.ListingRow, error)
	SubjectsByType(ctx context.Context, typeIRI string) ([]string, error)
}

// LabelCache provides the concept labels of the Concept listing.
type LabelCache interface {
	GetMany(ctx context.Context, uris []string) (map[string]cache.Labels, error)
}

// Entry is one listed resource.
type Entry struct {
	mapper.URIRef
	PrefLabel string `json:"pref_label"`
}

// Listing is one page of a category.
type Listing struct {
	Aspect     skos.Aspect           `json:"aspect"`
	Language   string                `json:"lang"`
	Results    []Entry               `json:"results"`
	Pagination pagination.Pagination `json:"pagination"`
}

type Lister struct {
	store     Store
	cache     LabelCache
	paginator *pagination.Paginator
	log       *logger.UPPLogger
}

func NewLister(store Store, cache LabelCache, paginator *pagination.Paginator, log *logger.UPPLogger) *Lister {
	return &Lister{store: store, cache: cache, paginator: paginator, log: log}
}

// List returns page of aspect labelled in lang. Unknown aspects list the default aspect.
func (l *Lister) List(ctx context.Context, aspect skos.Aspect, lang string, page int) (*Listing, error) {
	tid, _ := tidUtils.GetTransactionIDFromContext(ctx)
	typeIRI, ok := aspect.TypeIRI()
	if !ok {
		l.log.WithTransactionID(tid).WithField("aspect", aspect).Warn("Unknown aspect requested, listing the default aspect")
		aspect = skos.DefaultAspect
		typeIRI, _ = aspect.TypeIRI()
	}

	var (
		listing *Listing
		err     error
	)
	if aspect == skos.AspectConcept {
		listing, err = l.listConcepts(ctx, lang, page)
	} else {
		listing, err = l.listByType(ctx, typeIRI, lang, page)
	}
	if err != nil {
		l.log.WithTransactionID(tid).WithError(err).WithField("aspect", aspect).Error("Failed to list aspect")
		return nil, err
	}
	listing.Aspect = aspect
	listing.Language = lang
	return listing, nil
}

func (l *Lister) listByType(ctx context.Context, typeIRI string, lang string, page int) (*Listing, error) {
	total, err := l.store.CountByType(ctx, typeIRI)
	if err != nil {
		return nil, err
	}
	p := l.paginator.Page(page, total)
	rows, err := l.store.ListByType(ctx, typeIRI, lang, p.PerPage, p.Offset())
	if err != nil {
		return nil, err
	}
	results := make([]Entry, 0, len(rows))
	for _, row := range rows {
		results = append(results, Entry{URIRef: mapper.SplitURI(row.URI), PrefLabel: row.PrefLabel})
	}
	return &Listing{Results: results, Pagination: p}, nil
}

// listConcepts reads every concept label from the cache so the listing can be
// sorted by label across pages. Concepts without a label in lang are skipped.
func (l *Lister) listConcepts(ctx context.Context, lang string, page int) (*Listing, error) {
	uris, err := l.store.SubjectsByType(ctx, skos.Concept)
	if err != nil {
		return nil, err
	}
	labels, err := l.cache.GetMany(ctx, uris)
	if err != nil {
		return nil, err
	}

	type labelled struct {
		uri   string
		label string
	}
	all := make([]labelled, 0, len(uris))
	for _, uri := range uris {
		label, ok := labels[uri][lang]
		if !ok || label == "" {
			continue
		}
		all = append(all, labelled{uri: uri, label: label})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].label != all[j].label {
			return all[i].label < all[j].label
		}
		return all[i].uri < all[j].uri
	})

	p := l.paginator.Page(page, len(all))
	window := pagination.Window(all, p)
	results := make([]Entry, 0, len(window))
	for _, c := range window {
		results = append(results, Entry{URIRef: mapper.SplitURI(c.uri), PrefLabel: c.label})
	}
	return &Listing{Results: results, Pagination: p}, nil
}
