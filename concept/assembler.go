package concept

import (
	"context"
	"sort"

	"github.com/Financial-Times/go-logger/v2"
	tidUtils "github.com/Financial-Times/transactionid-utils-go"
	"golang.org/x/sync/errgroup"

	"github.com/Financial-Times/thesaurus-api/mapper"
	"github.com/Financial-Times/thesaurus-api/skos"
	"github.com/Financial-Times/thesaurus-api/store"
)

// Store is the set of store queries a profile is assembled from.
type Store interface {
	Objects(ctx context.Context, subject string, predicate string) ([]store.Literal, error)
	Breadcrumbs(ctx context.Context, concept string) ([]store.BreadcrumbRow, error)
	Matches(ctx context.Context, concept string) ([]string, error)
}

// LabelResolver resolves the display label of a resource.
type LabelResolver interface {
	Resolve(ctx context.Context, identifier string, lang string) (string, error)
}

var relationshipPredicates = []struct {
	kind      string
	predicate string
}{
	{Broader, skos.Broader},
	{Related, skos.Related},
	{Narrower, skos.Narrower},
	{Member, skos.Member},
	{HasTopConcept, skos.HasTopConcept},
}

// Assembler builds concept profiles.
type Assembler struct {
	store    Store
	resolver LabelResolver
	log      *logger.UPPLogger
}

func NewAssembler(store Store, resolver LabelResolver, log *logger.UPPLogger) *Assembler {
	return &Assembler{store: store, resolver: resolver, log: log}
}

// Assemble builds the profile of uri with labels in lang. Alternate labels and
// scope notes are restricted to lang unless it is empty. The store queries run
// concurrently and the first failure cancels the rest.
func (a *Assembler) Assemble(ctx context.Context, uri string, lang string) (*Profile, error) {
	p := newProfile(uri, lang)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		p.PrefLabel, err = a.resolver.Resolve(gctx, uri, lang)
		return err
	})
	g.Go(func() error {
		types, err := a.store.Objects(gctx, uri, skos.RDFType)
		if err != nil {
			return err
		}
		for _, t := range types {
			p.Types = append(p.Types, RDFType{ShortName: mapper.ShortName(t.Value), URI: t.Value})
		}
		sort.Slice(p.Types, func(i, j int) bool { return p.Types[i].URI < p.Types[j].URI })
		return nil
	})
	g.Go(func() error {
		labels, err := a.store.Objects(gctx, uri, skos.PrefLabel)
		if err != nil {
			return err
		}
		p.PrefLabels = prefLabelsByLanguage(labels)
		return nil
	})
	a.literals(g, gctx, uri, skos.AltLabel, lang, &p.AltLabels)
	a.literals(g, gctx, uri, skos.ScopeNote, lang, &p.ScopeNotes)
	a.literals(g, gctx, uri, skos.Note, "", &p.Notes)
	a.literals(g, gctx, uri, skos.Identifier, "", &p.Identifiers)
	a.literals(g, gctx, uri, skos.Title, "", &p.Titles)
	a.iris(g, gctx, uri, skos.InScheme, &p.InScheme)
	a.iris(g, gctx, uri, skos.TopConceptOf, &p.TopConceptOf)

	g.Go(func() error {
		crumbs, err := a.breadcrumbs(gctx, uri, lang)
		if err != nil {
			return err
		}
		p.Breadcrumbs = crumbs
		return nil
	})
	g.Go(func() error {
		matches, err := a.store.Matches(gctx, uri)
		if err != nil {
			return err
		}
		sort.Strings(matches)
		for _, m := range matches {
			p.Matches = append(p.Matches, Match{URI: m})
		}
		return nil
	})

	groups := make([][]Relationship, len(relationshipPredicates))
	for i, rp := range relationshipPredicates {
		i, rp := i, rp
		g.Go(func() (err error) {
			groups[i], err = a.relationships(gctx, uri, rp.kind, rp.predicate, lang)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		tid, _ := tidUtils.GetTransactionIDFromContext(ctx)
		a.log.WithTransactionID(tid).WithError(err).WithField("uri", uri).Error("Failed to assemble concept profile")
		return nil, err
	}

	for _, group := range groups {
		p.Relationships = append(p.Relationships, group...)
	}
	sort.Sort(NewRelationshipSorter(p.Relationships))
	return p, nil
}

func (a *Assembler) literals(g *errgroup.Group, ctx context.Context, uri string, predicate string, lang string, dst *[]store.Literal) {
	g.Go(func() error {
		objects, err := a.store.Objects(ctx, uri, predicate)
		if err != nil {
			return err
		}
		for _, o := range objects {
			if lang != "" && o.Lang != lang {
				continue
			}
			*dst = append(*dst, o)
		}
		sortLiterals(*dst)
		return nil
	})
}

func (a *Assembler) iris(g *errgroup.Group, ctx context.Context, uri string, predicate string, dst *[]string) {
	g.Go(func() error {
		objects, err := a.store.Objects(ctx, uri, predicate)
		if err != nil {
			return err
		}
		for _, o := range objects {
			*dst = append(*dst, o.Value)
		}
		sort.Strings(*dst)
		return nil
	})
}

func (a *Assembler) relationships(ctx context.Context, uri string, kind string, predicate string, lang string) ([]Relationship, error) {
	objects, err := a.store.Objects(ctx, uri, predicate)
	if err != nil {
		return nil, err
	}
	rels := make([]Relationship, 0, len(objects))
	for _, o := range objects {
		label, err := a.resolver.Resolve(ctx, o.Value, lang)
		if err != nil {
			return nil, err
		}
		rels = append(rels, Relationship{Type: kind, URI: o.Value, PrefLabel: label})
	}
	return rels, nil
}

func (a *Assembler) breadcrumbs(ctx context.Context, uri string, lang string) ([]Breadcrumb, error) {
	rows, err := a.store.Breadcrumbs(ctx, uri)
	if err != nil {
		return nil, err
	}
	crumbs := make([]Breadcrumb, 0, len(rows))
	for _, row := range rows {
		domain, err := a.ref(ctx, row.Domain, lang)
		if err != nil {
			return nil, err
		}
		crumb := Breadcrumb{Domain: domain}
		if row.MicroThesaurus != "" {
			mt, err := a.ref(ctx, row.MicroThesaurus, lang)
			if err != nil {
				return nil, err
			}
			crumb.MicroThesaurus = &mt
		}
		crumbs = append(crumbs, crumb)
	}
	sort.Sort(NewBreadcrumbSorter(crumbs))
	return crumbs, nil
}

func (a *Assembler) ref(ctx context.Context, uri string, lang string) (Ref, error) {
	label, err := a.resolver.Resolve(ctx, uri, lang)
	if err != nil {
		return Ref{}, err
	}
	return Ref{URI: uri, PrefLabel: label}, nil
}

// prefLabelsByLanguage keeps one preferred label per supported language, in UN order.
func prefLabelsByLanguage(labels []store.Literal) []store.Literal {
	sortLiterals(labels)
	out := []store.Literal{}
	for _, lang := range skos.Languages {
		for _, l := range labels {
			if l.Lang == lang {
				out = append(out, l)
				break
			}
		}
	}
	return out
}
