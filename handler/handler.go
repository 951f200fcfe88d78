package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/Financial-Times/go-logger/v2"
	tidutils "github.com/Financial-Times/transactionid-utils-go"
	"github.com/gorilla/mux"

	"github.com/Financial-Times/thesaurus-api/cache"
	"github.com/Financial-Times/thesaurus-api/concept"
	"github.com/Financial-Times/thesaurus-api/export"
	"github.com/Financial-Times/thesaurus-api/listing"
	"github.com/Financial-Times/thesaurus-api/mapper"
	"github.com/Financial-Times/thesaurus-api/pagination"
	"github.com/Financial-Times/thesaurus-api/search"
	"github.com/Financial-Times/thesaurus-api/skos"
	"github.com/Financial-Times/thesaurus-api/store"
)

const (
	noMatchesMessage         = "No Matches"
	searchUnavailableMessage = "Search unavailable"
)

// Lister pages through thesaurus categories.
type Lister interface {
	List(ctx context.Context, aspect skos.Aspect, lang string, page int) (*listing.Listing, error)
}

// ProfileAssembler builds concept profiles.
type ProfileAssembler interface {
	Assemble(ctx context.Context, uri string, lang string) (*concept.Profile, error)
}

// Ranker searches the text index.
type Ranker interface {
	Search(ctx context.Context, text string, lang string) ([]search.Hit, error)
	Autocomplete(ctx context.Context, prefix string, lang string) ([]search.Hit, error)
}

// Exporter serializes concepts as RDF.
type Exporter interface {
	Export(ctx context.Context, uri string, format string) (*export.Document, error)
}

// Handler serves the thesaurus browsing endpoints.
type Handler struct {
	lister          Lister
	assembler       ProfileAssembler
	ranker          Ranker
	exporter        Exporter
	paginator       *pagination.Paginator
	defaultLanguage string
	timeout         time.Duration
	log             *logger.UPPLogger
}

// New initializes Handler.
func New(lister Lister, assembler ProfileAssembler, ranker Ranker, exporter Exporter, paginator *pagination.Paginator, defaultLanguage string, httpTimeout time.Duration, log *logger.UPPLogger) *Handler {
	return &Handler{
		lister:          lister,
		assembler:       assembler,
		ranker:          ranker,
		exporter:        exporter,
		paginator:       paginator,
		defaultLanguage: defaultLanguage,
		timeout:         httpTimeout,
		log:             log,
	}
}

// RegisterRoutes mounts the endpoints on r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.ListAspect).Methods(http.MethodGet)
	r.HandleFunc("/listing", h.ListAspect).Methods(http.MethodGet)
	r.HandleFunc("/term", h.ReadTerm).Methods(http.MethodGet)
	r.HandleFunc("/search", h.Search).Methods(http.MethodGet)
	r.HandleFunc("/autocomplete", h.Autocomplete).Methods(http.MethodGet)
	r.HandleFunc("/api", h.Export).Methods(http.MethodGet, http.MethodPost)
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc, *logger.LogEntry) {
	tID := tidutils.GetTransactionIDFromRequest(r)
	ctx, cancel := context.WithTimeout(tidutils.TransactionAwareContext(r.Context(), tID), h.timeout)
	return ctx, cancel, h.log.WithTransactionID(tID)
}

// language returns the requested language, or the default one when none is requested.
func (h *Handler) language(r *http.Request) (string, error) {
	lang := r.FormValue("lang")
	if lang == "" {
		return h.defaultLanguage, nil
	}
	if !skos.IsLanguage(lang) {
		return "", fmt.Errorf("unsupported language: %s", lang)
	}
	return lang, nil
}

// ListAspect lists one page of a category.
func (h *Handler) ListAspect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, listLog := h.requestContext(r)
	defer cancel()

	w.Header().Add("Content-Type", "application/json")

	lang, err := h.language(r)
	if err != nil {
		writeMessage(w, err.Error(), http.StatusBadRequest)
		return
	}
	aspect := skos.Aspect(r.FormValue("aspect"))
	if aspect == "" {
		aspect = skos.DefaultAspect
	}

	result, err := h.lister.List(ctx, aspect, lang, pagination.ParsePage(r.FormValue("page")))
	if err != nil {
		h.handleErrors(err, listLog.WithField("aspect", aspect), w, "listing")
		return
	}
	writeJSON(w, result, listLog)
}

type termResponse struct {
	mapper.URIRef
	*concept.Profile
	Pagination pagination.Pagination `json:"pagination"`
}

// ReadTerm returns the profile of a concept with one page of its relationships.
func (h *Handler) ReadTerm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, termLog := h.requestContext(r)
	defer cancel()

	w.Header().Add("Content-Type", "application/json")

	ref := mapper.URIRef{BaseURI: r.FormValue("base_uri"), URIAnchor: r.FormValue("uri_anchor")}
	if ref.BaseURI == "" {
		termLog.Error("Term requested without a base URI")
		writeMessage(w, "base_uri is required", http.StatusBadRequest)
		return
	}
	lang, err := h.language(r)
	if err != nil {
		writeMessage(w, err.Error(), http.StatusBadRequest)
		return
	}

	termLog = termLog.WithField("uri", ref.URI())
	profile, err := h.assembler.Assemble(ctx, ref.URI(), lang)
	if err != nil {
		h.handleErrors(err, termLog, w, "term")
		return
	}

	p := h.paginator.Page(pagination.ParsePage(r.FormValue("page")), len(profile.Relationships))
	profile.Relationships = pagination.Window(profile.Relationships, p)
	writeJSON(w, termResponse{URIRef: ref, Profile: profile, Pagination: p}, termLog)
}

type searchResponse struct {
	Query      string                `json:"query"`
	Lang       string                `json:"lang"`
	Results    []search.Hit          `json:"results"`
	Message    string                `json:"message,omitempty"`
	Pagination pagination.Pagination `json:"pagination"`
}

// Search returns one page of the concepts matching q in lang.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, searchLog := h.requestContext(r)
	defer cancel()

	w.Header().Add("Content-Type", "application/json")

	query, lang, ok := h.searchParams(w, r)
	if !ok {
		return
	}

	response := searchResponse{Query: query, Lang: lang, Results: []search.Hit{}}
	hits, err := h.ranker.Search(ctx, query, lang)
	switch {
	case isSearchDegraded(err):
		searchLog.WithError(err).Warn("Search backend unavailable, returning no results")
		response.Message = searchUnavailableMessage
		hits = []search.Hit{}
	case err != nil:
		h.handleErrors(err, searchLog, w, "search")
		return
	case len(hits) == 0:
		response.Message = noMatchesMessage
	}

	response.Pagination = h.paginator.Page(pagination.ParsePage(r.FormValue("page")), len(hits))
	if len(hits) > 0 {
		response.Results = pagination.Window(hits, response.Pagination)
	}
	writeJSON(w, response, searchLog)
}

// Autocomplete suggests concepts whose labels in lang match q.
func (h *Handler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, searchLog := h.requestContext(r)
	defer cancel()

	w.Header().Add("Content-Type", "application/json")

	query, lang, ok := h.searchParams(w, r)
	if !ok {
		return
	}

	hits, err := h.ranker.Autocomplete(ctx, query, lang)
	switch {
	case isSearchDegraded(err):
		searchLog.WithError(err).Warn("Search backend unavailable, returning no suggestions")
		hits = nil
	case err != nil:
		h.handleErrors(err, searchLog, w, "autocomplete")
		return
	}

	suggestions := make([]listing.Entry, 0, len(hits))
	for _, hit := range hits {
		suggestions = append(suggestions, listing.Entry{URIRef: hit.URIRef, PrefLabel: hit.PrefLabel})
	}
	writeJSON(w, suggestions, searchLog)
}

func (h *Handler) searchParams(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	query := r.FormValue("q")
	if query == "" {
		writeMessage(w, "q is required", http.StatusBadRequest)
		return "", "", false
	}
	lang := r.FormValue("lang")
	if lang == "" {
		writeMessage(w, "lang is required", http.StatusBadRequest)
		return "", "", false
	}
	if !skos.IsLanguage(lang) {
		writeMessage(w, fmt.Sprintf("unsupported language: %s", lang), http.StatusBadRequest)
		return "", "", false
	}
	return query, lang, true
}

// Export serializes a concept. The document is sent as an attachment when
// dl_location is "download" and inline otherwise.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, exportLog := h.requestContext(r)
	defer cancel()

	ref := mapper.URIRef{BaseURI: r.FormValue("base_uri"), URIAnchor: r.FormValue("uri_anchor")}
	if ref.BaseURI == "" {
		w.Header().Add("Content-Type", "application/json")
		writeMessage(w, "base_uri is required", http.StatusBadRequest)
		return
	}

	exportLog = exportLog.WithField("uri", ref.URI())
	doc, err := h.exporter.Export(ctx, ref.URI(), r.FormValue("format"))
	var formatErr *export.InvalidFormatError
	if errors.As(err, &formatErr) {
		w.Header().Add("Content-Type", "application/json")
		writeMessage(w, formatErr.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		w.Header().Add("Content-Type", "application/json")
		h.handleErrors(err, exportLog, w, "export")
		return
	}

	disposition := "inline"
	if r.FormValue("dl_location") == "download" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", doc.Format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": doc.Filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Data); err != nil {
		exportLog.WithError(err).Error("Failed to write export response")
	}
}

func (h *Handler) handleErrors(err error, entry *logger.LogEntry, w http.ResponseWriter, operation string) {
	if isTimeoutErr(err) {
		entry.WithError(err).Error("Timeout while reading the thesaurus")
		writeMessage(w, fmt.Sprintf("Timeout while reading %s", operation), http.StatusGatewayTimeout)
		return
	}
	if errors.Is(err, search.ErrUnsupportedLanguage) {
		writeMessage(w, err.Error(), http.StatusBadRequest)
		return
	}
	if isUnavailableErr(err) {
		entry.WithError(err).Error("Thesaurus backend unavailable")
		writeMessage(w, fmt.Sprintf("Service unavailable while reading %s", operation), http.StatusServiceUnavailable)
		return
	}
	entry.WithError(err).Error("Failed to serve request")
	writeMessage(w, fmt.Sprintf("Failed to read %s: %v", operation, err), http.StatusInternalServerError)
}

func isTimeoutErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isUnavailableErr(err error) bool {
	return errors.Is(err, store.ErrUnavailable) ||
		errors.Is(err, cache.ErrUnavailable) ||
		errors.Is(err, search.ErrUnavailable)
}

// isSearchDegraded reports whether a search failure is answered with empty results.
func isSearchDegraded(err error) bool {
	return err != nil && !errors.Is(err, search.ErrUnsupportedLanguage) && (isUnavailableErr(err) || isTimeoutErr(err))
}

func writeJSON(w http.ResponseWriter, v interface{}, entry *logger.LogEntry) {
	j, err := json.Marshal(v)
	if err != nil {
		entry.WithError(err).Error("Failed to encode response")
		writeMessage(w, fmt.Sprintf("Failed to encode response: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(j); err != nil {
		entry.WithError(err).Error("Failed to write response")
	}
}

func writeMessage(w http.ResponseWriter, msg string, status int) {
	w.WriteHeader(status)

	message := make(map[string]interface{})
	message["message"] = msg
	j, err := json.Marshal(&message)
	if err != nil {
		return
	}
	_, _ = w.Write(j)
}
