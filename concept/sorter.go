package concept

import (
	"sort"
	"strings"

	"github.com/Financial-Times/thesaurus-api/skos"
	"github.com/Financial-Times/thesaurus-api/store"
)

var precedence = map[string]int{
	Broader:       0,
	Related:       1,
	Narrower:      2,
	Member:        3,
	HasTopConcept: 4,
}

type relationshipSorter struct {
	rels []Relationship
}

// NewRelationshipSorter orders relationships by type precedence, then by
// label, then by URI.
func NewRelationshipSorter(rels []Relationship) sort.Interface {
	return &relationshipSorter{rels}
}

func (s *relationshipSorter) Len() int {
	return len(s.rels)
}

func (s *relationshipSorter) Less(i, j int) bool {
	a, b := s.rels[i], s.rels[j]
	if pa, pb := precedence[a.Type], precedence[b.Type]; pa != pb {
		return pa < pb
	}
	compare := strings.Compare(a.PrefLabel, b.PrefLabel)
	if compare == 0 {
		compare = strings.Compare(a.URI, b.URI)
	}
	return compare == -1
}

func (s *relationshipSorter) Swap(i, j int) {
	s.rels[i], s.rels[j] = s.rels[j], s.rels[i]
}

type breadcrumbSorter struct {
	crumbs []Breadcrumb
}

// NewBreadcrumbSorter orders breadcrumbs by domain label, then by
// micro-thesaurus label, paths without a micro-thesaurus first.
func NewBreadcrumbSorter(crumbs []Breadcrumb) sort.Interface {
	return &breadcrumbSorter{crumbs}
}

func (s *breadcrumbSorter) Len() int {
	return len(s.crumbs)
}

func (s *breadcrumbSorter) Less(i, j int) bool {
	a, b := s.crumbs[i], s.crumbs[j]
	if c := compareRefs(a.Domain, b.Domain); c != 0 {
		return c < 0
	}
	switch {
	case a.MicroThesaurus == nil:
		return b.MicroThesaurus != nil
	case b.MicroThesaurus == nil:
		return false
	}
	return compareRefs(*a.MicroThesaurus, *b.MicroThesaurus) < 0
}

func (s *breadcrumbSorter) Swap(i, j int) {
	s.crumbs[i], s.crumbs[j] = s.crumbs[j], s.crumbs[i]
}

func compareRefs(a, b Ref) int {
	if c := strings.Compare(a.PrefLabel, b.PrefLabel); c != 0 {
		return c
	}
	return strings.Compare(a.URI, b.URI)
}

// sortLiterals orders literals by language in UN order, untagged last, then by value.
func sortLiterals(literals []store.Literal) {
	sort.SliceStable(literals, func(i, j int) bool {
		li, lj := languageRank(literals[i].Lang), languageRank(literals[j].Lang)
		if li != lj {
			return li < lj
		}
		if literals[i].Lang != literals[j].Lang {
			return literals[i].Lang < literals[j].Lang
		}
		return literals[i].Value < literals[j].Value
	})
}

func languageRank(lang string) int {
	for i, l := range skos.Languages {
		if l == lang {
			return i
		}
	}
	return len(skos.Languages)
}
