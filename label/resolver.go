// Package label resolves the display label of a thesaurus resource.
//
// The resolver looks up the preferred label in exactly the requested language.
// When that language has no label the raw identifier is returned instead of a
// label in another language, so missing translations stay visible. Callers
// that want the default language must ask for it.
package label

import (
	"context"
)

// LabelStore is the store query the resolver depends on.
type LabelStore interface {
	PreferredLabel(ctx context.Context, subject string, lang string) (string, bool, error)
}

// Resolver returns display labels. It holds no per-call state and is safe for
// concurrent use.
type Resolver struct {
	store           LabelStore
	defaultLanguage string
}

// NewResolver builds a Resolver substituting defaultLanguage when no language is requested.
func NewResolver(store LabelStore, defaultLanguage string) *Resolver {
	return &Resolver{store: store, defaultLanguage: defaultLanguage}
}

// Resolve returns the preferred label of identifier in lang, or identifier itself when there is none.
func (r *Resolver) Resolve(ctx context.Context, identifier string, lang string) (string, error) {
	if lang == "" {
		lang = r.defaultLanguage
	}
	label, found, err := r.store.PreferredLabel(ctx, identifier, lang)
	if err != nil {
		return "", err
	}
	if !found {
		return identifier, nil
	}
	return label, nil
}
