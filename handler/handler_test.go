package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Financial-Times/go-logger/v2"
	tidutils "github.com/Financial-Times/transactionid-utils-go"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Financial-Times/thesaurus-api/concept"
	"github.com/Financial-Times/thesaurus-api/export"
	"github.com/Financial-Times/thesaurus-api/handler"
	"github.com/Financial-Times/thesaurus-api/listing"
	"github.com/Financial-Times/thesaurus-api/mapper"
	"github.com/Financial-Times/thesaurus-api/pagination"
	"github.com/Financial-Times/thesaurus-api/search"
	"github.com/Financial-Times/thesaurus-api/skos"
	"github.com/Financial-Times/thesaurus-api/store"
)

const (
	testTID     = "test_tid"
	agriculture = "http://example.org/t#123"
)

var testLog = logger.NewUPPLogger("thesaurus-api-test", "ERROR")

func newRouter(t *testing.T, lister handler.Lister, assembler handler.ProfileAssembler, ranker handler.Ranker, exporter handler.Exporter) *mux.Router {
	paginator, err := pagination.NewPaginator(2)
	require.NoError(t, err)

	h := handler.New(lister, assembler, ranker, exporter, paginator, "en", time.Second, testLog)
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func serve(r http.Handler, method string, target string) *http.Response {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(tidutils.TransactionIDHeader, testTID)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Result()
}

func body(t *testing.T, resp *http.Response) map[string]interface{} {
	actual := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&actual))
	return actual
}

func TestListAspectDefaults(t *testing.T) {
	lister := new(ListerMock)
	result := &listing.Listing{
		Aspect:   skos.AspectDomain,
		Language: "en",
		Results: []listing.Entry{
			{URIRef: mapper.SplitURI("http://example.org/t#01"), PrefLabel: "Economic development"},
		},
	}
	lister.On("List", mock.Anything, skos.AspectDomain, "en", 1).Return(result, nil)

	resp := serve(newRouter(t, lister, nil, nil, nil), http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	actual := body(t, resp)
	assert.Equal(t, "Domain", actual["aspect"])
	results := actual["results"].([]interface{})
	require.Len(t, results, 1)
	assert.Equal(t, map[string]interface{}{
		"base_uri":   "http://example.org/t",
		"uri_anchor": "01",
		"pref_label": "Economic development",
	}, results[0])
	lister.AssertExpectations(t)
}

func TestListAspectParameters(t *testing.T) {
	lister := new(ListerMock)
	lister.On("List", mock.Anything, skos.AspectConcept, "fr", 3).Return(&listing.Listing{Aspect: skos.AspectConcept, Language: "fr"}, nil)

	resp := serve(newRouter(t, lister, nil, nil, nil), http.MethodGet, "/listing?aspect=Concept&lang=fr&page=3")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	lister.AssertExpectations(t)
}

func TestListAspectUnsupportedLanguage(t *testing.T) {
	lister := new(ListerMock)

	resp := serve(newRouter(t, lister, nil, nil, nil), http.MethodGet, "/?lang=de")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unsupported language: de", body(t, resp)["message"])
	lister.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListAspectStoreUnavailable(t *testing.T) {
	lister := new(ListerMock)
	lister.On("List", mock.Anything, skos.AspectDomain, "en", 1).Return(nil, &store.QueryError{Query: "count", Err: errors.New("connection refused")})

	resp := serve(newRouter(t, lister, nil, nil, nil), http.MethodGet, "/")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "Service unavailable while reading listing", body(t, resp)["message"])
}

func TestListAspectTimeout(t *testing.T) {
	lister := new(ListerMock)
	lister.On("List", mock.Anything, skos.AspectDomain, "en", 1).Return(nil, &url.Error{Err: context.DeadlineExceeded})

	resp := serve(newRouter(t, lister, nil, nil, nil), http.MethodGet, "/")
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	assert.Equal(t, "Timeout while reading listing", body(t, resp)["message"])
}

func termProfile() *concept.Profile {
	return &concept.Profile{
		URI:       agriculture,
		Language:  "en",
		PrefLabel: "Agriculture",
		Relationships: []concept.Relationship{
			{Type: concept.Broader, URI: "http://example.org/t#100", PrefLabel: "Economics"},
			{Type: concept.Narrower, URI: "http://example.org/t#124", PrefLabel: "Crops"},
			{Type: concept.Narrower, URI: "http://example.org/t#125", PrefLabel: "Livestock"},
		},
	}
}

func TestReadTerm(t *testing.T) {
	assembler := new(AssemblerMock)
	assembler.On("Assemble", mock.Anything, agriculture, "en").Return(termProfile(), nil)

	resp := serve(newRouter(t, nil, assembler, nil, nil), http.MethodGet, "/term?base_uri=http://example.org/t&uri_anchor=123&page=2")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	actual := body(t, resp)
	assert.Equal(t, agriculture, actual["uri"])
	assert.Equal(t, "http://example.org/t", actual["base_uri"])
	assert.Equal(t, "123", actual["uri_anchor"])
	assert.Equal(t, "Agriculture", actual["pref_label"])

	relationships := actual["relationships"].([]interface{})
	require.Len(t, relationships, 1)
	assert.Equal(t, "Livestock", relationships[0].(map[string]interface{})["pref_label"])

	p := actual["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), p["page"])
	assert.Equal(t, float64(3), p["total_count"])
	assert.Equal(t, true, p["has_prev"])
	assert.Equal(t, false, p["has_next"])
	assembler.AssertExpectations(t)
}

func TestReadTermWithoutBaseURI(t *testing.T) {
	assembler := new(AssemblerMock)

	resp := serve(newRouter(t, nil, assembler, nil, nil), http.MethodGet, "/term?uri_anchor=123")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "base_uri is required", body(t, resp)["message"])
	assembler.AssertNotCalled(t, "Assemble", mock.Anything, mock.Anything, mock.Anything)
}

func TestReadTermStoreUnavailable(t *testing.T) {
	assembler := new(AssemblerMock)
	assembler.On("Assemble", mock.Anything, agriculture, "ru").Return(nil, &store.QueryError{Query: "objects", Err: errors.New("connection refused")})

	resp := serve(newRouter(t, nil, assembler, nil, nil), http.MethodGet, "/term?base_uri=http://example.org/t&uri_anchor=123&lang=ru")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestReadTermUnexpectedError(t *testing.T) {
	assembler := new(AssemblerMock)
	assembler.On("Assemble", mock.Anything, agriculture, "en").Return(nil, errors.New("boom"))

	resp := serve(newRouter(t, nil, assembler, nil, nil), http.MethodGet, "/term?base_uri=http://example.org/t&uri_anchor=123")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to read term: boom", body(t, resp)["message"])
}

func hits(labels ...string) []search.Hit {
	out := make([]search.Hit, 0, len(labels))
	for i, l := range labels {
		uri := "http://example.org/t#" + string(rune('a'+i))
		out = append(out, search.Hit{Score: float64(len(labels) - i), URI: uri, URIRef: mapper.SplitURI(uri), PrefLabel: l})
	}
	return out
}

func TestSearch(t *testing.T) {
	ranker := new(RankerMock)
	ranker.On("Search", mock.Anything, "crop", "en").Return(hits("Crops", "Crop yield", "Crop rotation"), nil)

	resp := serve(newRouter(t, nil, nil, ranker, nil), http.MethodGet, "/search?q=crop&lang=en")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	actual := body(t, resp)
	assert.Equal(t, "crop", actual["query"])
	assert.NotContains(t, actual, "message")
	results := actual["results"].([]interface{})
	require.Len(t, results, 2)
	assert.Equal(t, "Crops", results[0].(map[string]interface{})["pref_label"])
	assert.Equal(t, float64(3), actual["pagination"].(map[string]interface{})["total_count"])
	ranker.AssertExpectations(t)
}

func TestSearchNoMatches(t *testing.T) {
	ranker := new(RankerMock)
	ranker.On("Search", mock.Anything, "zzz", "fr").Return([]search.Hit{}, nil)

	resp := serve(newRouter(t, nil, nil, ranker, nil), http.MethodGet, "/search?q=zzz&lang=fr")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	actual := body(t, resp)
	assert.Equal(t, "No Matches", actual["message"])
	assert.Equal(t, []interface{}{}, actual["results"])
}

func TestSearchUnavailable(t *testing.T) {
	ranker := new(RankerMock)
	ranker.On("Search", mock.Anything, "crop", "en").Return(nil, &search.Error{Op: "query", Err: errors.New("index closed")})

	resp := serve(newRouter(t, nil, nil, ranker, nil), http.MethodGet, "/search?q=crop&lang=en")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	actual := body(t, resp)
	assert.Equal(t, "Search unavailable", actual["message"])
	assert.Equal(t, []interface{}{}, actual["results"])
}

func TestSearchMissingParameters(t *testing.T) {
	tests := map[string]struct {
		target  string
		message string
	}{
		"missing query":        {target: "/search?lang=en", message: "q is required"},
		"missing language":     {target: "/search?q=crop", message: "lang is required"},
		"unsupported language": {target: "/search?q=crop&lang=de", message: "unsupported language: de"},
	}
	ranker := new(RankerMock)
	r := newRouter(t, nil, nil, ranker, nil)

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			resp := serve(r, http.MethodGet, test.target)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, test.message, body(t, resp)["message"])
		})
	}
	ranker.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchDegradesOnUpstreamFailure(t *testing.T) {
	tests := map[string]error{
		"label store unavailable": &store.QueryError{Query: "label", Err: errors.New("connection refused")},
		"label store timeout":     &url.Error{Err: context.DeadlineExceeded},
	}

	for name, upstreamErr := range tests {
		t.Run(name, func(t *testing.T) {
			ranker := new(RankerMock)
			ranker.On("Search", mock.Anything, "crop", "en").Return(nil, upstreamErr)

			resp := serve(newRouter(t, nil, nil, ranker, nil), http.MethodGet, "/search?q=crop&lang=en")
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			actual := body(t, resp)
			assert.Equal(t, "Search unavailable", actual["message"])
			assert.Equal(t, []interface{}{}, actual["results"])
		})
	}
}

func TestSearchUnsupportedLanguageFromRanker(t *testing.T) {
	ranker := new(RankerMock)
	ranker.On("Search", mock.Anything, "crop", "en").Return(nil, fmt.Errorf("%w: %q", search.ErrUnsupportedLanguage, "en"))

	resp := serve(newRouter(t, nil, nil, ranker, nil), http.MethodGet, "/search?q=crop&lang=en")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchUnexpectedError(t *testing.T) {
	ranker := new(RankerMock)
	ranker.On("Search", mock.Anything, "crop", "en").Return(nil, errors.New("boom"))

	resp := serve(newRouter(t, nil, nil, ranker, nil), http.MethodGet, "/search?q=crop&lang=en")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestAutocomplete(t *testing.T) {
	ranker := new(RankerMock)
	ranker.On("Autocomplete", mock.Anything, "cro", "en").Return(hits("Crops"), nil)

	resp := serve(newRouter(t, nil, nil, ranker, nil), http.MethodGet, "/autocomplete?q=cro&lang=en")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var actual []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&actual))
	assert.Equal(t, []map[string]interface{}{
		{"base_uri": "http://example.org/t", "uri_anchor": "a", "pref_label": "Crops"},
	}, actual)
}

func TestAutocompleteUnavailable(t *testing.T) {
	ranker := new(RankerMock)
	ranker.On("Autocomplete", mock.Anything, "cro", "en").Return(nil, &search.Error{Op: "query", Err: errors.New("index closed")})

	resp := serve(newRouter(t, nil, nil, ranker, nil), http.MethodGet, "/autocomplete?q=cro&lang=en")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var actual []interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&actual))
	assert.Empty(t, actual)
}

func TestAutocompleteDegradesOnLabelStoreFailure(t *testing.T) {
	ranker := new(RankerMock)
	ranker.On("Autocomplete", mock.Anything, "cro", "en").Return(nil, &store.QueryError{Query: "label", Err: errors.New("connection refused")})

	resp := serve(newRouter(t, nil, nil, ranker, nil), http.MethodGet, "/autocomplete?q=cro&lang=en")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var actual []interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&actual))
	assert.Empty(t, actual)
}

func TestExport(t *testing.T) {
	exporter := new(ExporterMock)
	exporter.On("Export", mock.Anything, agriculture, "turtle").Return(&export.Document{
		Data:     []byte("@prefix skos: <http://www.w3.org/2004/02/skos/core#> .\n"),
		Format:   export.Turtle,
		Filename: "123.ttl",
	}, nil)

	r := newRouter(t, nil, nil, nil, exporter)

	resp := serve(r, http.MethodGet, "/api?base_uri=http://example.org/t&uri_anchor=123&format=turtle&dl_location=download")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, export.Turtle.ContentType(), resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename=123.ttl`, resp.Header.Get("Content-Disposition"))

	resp = serve(r, http.MethodGet, "/api?base_uri=http://example.org/t&uri_anchor=123&format=turtle")
	assert.Equal(t, `inline; filename=123.ttl`, resp.Header.Get("Content-Disposition"))
	exporter.AssertExpectations(t)
}

func TestExportForm(t *testing.T) {
	exporter := new(ExporterMock)
	exporter.On("Export", mock.Anything, agriculture, "nt").Return(&export.Document{Data: []byte{}, Format: export.NTriples, Filename: "123.nt"}, nil)

	form := url.Values{"base_uri": {"http://example.org/t"}, "uri_anchor": {"123"}, "format": {"nt"}}
	req := httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(tidutils.TransactionIDHeader, testTID)
	w := httptest.NewRecorder()

	newRouter(t, nil, nil, nil, exporter).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	exporter.AssertExpectations(t)
}

func TestExportInvalidFormat(t *testing.T) {
	exporter := new(ExporterMock)
	exporter.On("Export", mock.Anything, agriculture, "csv").Return(nil, &export.InvalidFormatError{Format: "csv"})

	resp := serve(newRouter(t, nil, nil, nil, exporter), http.MethodGet, "/api?base_uri=http://example.org/t&uri_anchor=123&format=csv")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unsupported serialization format: csv", body(t, resp)["message"])
}

func TestExportTimeout(t *testing.T) {
	exporter := new(ExporterMock)
	exporter.On("Export", mock.Anything, agriculture, "xml").Return(nil, &url.Error{Err: context.DeadlineExceeded})

	resp := serve(newRouter(t, nil, nil, nil, exporter), http.MethodGet, "/api?base_uri=http://example.org/t&uri_anchor=123&format=xml")
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}

func TestExportWithoutBaseURI(t *testing.T) {
	exporter := new(ExporterMock)

	resp := serve(newRouter(t, nil, nil, nil, exporter), http.MethodGet, "/api?format=xml")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	exporter.AssertNotCalled(t, "Export", mock.Anything, mock.Anything, mock.Anything)
}

func TestIsTimeoutErr(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	})

	s := httptest.NewServer(r)
	defer s.Close()

	req, _ := http.NewRequest("GET", s.URL+"/", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := http.DefaultClient.Do(req.WithContext(ctx))

	var e net.Error
	assert.True(t, errors.As(err, &e))
	assert.True(t, e.Timeout())
}

type ListerMock struct {
	mock.Mock
}

func (m *ListerMock) List(ctx context.Context, aspect skos.Aspect, lang string, page int) (*listing.Listing, error) {
	args := m.Called(ctx, aspect, lang, page)
	if v := args.Get(0); v != nil {
		return v.(*listing.Listing), args.Error(1)
	}
	return nil, args.Error(1)
}

type AssemblerMock struct {
	mock.Mock
}

func (m *AssemblerMock) Assemble(ctx context.Context, uri string, lang string) (*concept.Profile, error) {
	args := m.Called(ctx, uri, lang)
	if v := args.Get(0); v != nil {
		return v.(*concept.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

type RankerMock struct {
	mock.Mock
}

func (m *RankerMock) Search(ctx context.Context, text string, lang string) ([]search.Hit, error) {
	args := m.Called(ctx, text, lang)
	if v := args.Get(0); v != nil {
		return v.([]search.Hit), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RankerMock) Autocomplete(ctx context.Context, prefix string, lang string) ([]search.Hit, error) {
	args := m.Called(ctx, prefix, lang)
	if v := args.Get(0); v != nil {
		return v.([]search.Hit), args.Error(1)
	}
	return nil, args.Error(1)
}

type ExporterMock struct {
	mock.Mock
}

func (m *ExporterMock) Export(ctx context.Context, uri string, format string) (*export.Document, error) {
	args := m.Called(ctx, uri, format)
	if v := args.Get(0); v != nil {
		return v.(*export.Document), args.Error(1)
	}
	return nil, args.Error(1)
}
