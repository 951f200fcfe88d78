package store

import (
	"context"
	"database/sql"
	"net/url"
	"strings"
	"time"

	"github.com/Financial-Times/go-logger/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	metrics "github.com/rcrowley/go-metrics"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/Financial-Times/thesaurus-api/skos"

	_ "modernc.org/sqlite"
)

const connectTimeout = 10 * time.Second

// Store answers the read-only pattern queries of the thesaurus over a triples table.
// Results are returned in no particular order: callers sort.
type Store struct {
	db       *bun.DB
	endpoint string
	log      *logger.UPPLogger
}

// New wraps an already opened bun database.
func New(db *bun.DB, endpoint string, log *logger.UPPLogger) *Store {
	db.AddQueryHook(&queryHook{log: log, registry: metrics.DefaultRegistry})
	return &Store{db: db, endpoint: endpoint, log: log}
}

// Open connects to the store described by dsn. postgres:// and postgresql://
// DSNs use pgx, sqlite: and file: DSNs use the embedded SQLite driver.
func Open(ctx context.Context, dsn string, log *logger.UPPLogger) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		poolConfig, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse store DSN")
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create store connection pool")
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "failed to ping store")
		}
		db := bun.NewDB(stdlib.OpenDBFromPool(pool), pgdialect.New())
		return New(db, redact(dsn), log), nil

	case strings.HasPrefix(dsn, "sqlite:"), strings.HasPrefix(dsn, "file:"):
		path := strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite:"), "//")
		sqldb, err := sql.Open("sqlite", path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open store")
		}
		if strings.Contains(path, ":memory:") {
			// every connection to :memory: is a distinct database
			sqldb.SetMaxOpenConns(1)
		}
		if err := sqldb.PingContext(ctx); err != nil {
			sqldb.Close()
			return nil, errors.Wrap(err, "failed to ping store")
		}
		return New(bun.NewDB(sqldb, sqlitedialect.New()), dsn, log), nil
	}

	return nil, errors.Errorf("unsupported store DSN scheme in %q", redact(dsn))
}

func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}

// CreateSchema creates the triples table and its lookup indexes.
func (s *Store) CreateSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*Triple)(nil)).IfNotExists().Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to create triples table")
	}
	indexes := map[string][]string{
		"triples_subject_predicate_idx": {"subject", "predicate"},
		"triples_predicate_object_idx":  {"predicate", "object"},
	}
	for name, columns := range indexes {
		_, err := s.db.NewCreateIndex().Model((*Triple)(nil)).Index(name).Column(columns...).IfNotExists().Exec(ctx)
		if err != nil {
			return errors.Wrapf(err, "failed to create index %s", name)
		}
	}
	return nil
}

// Add inserts triples. It is used by loaders, never by the read paths.
func (s *Store) Add(ctx context.Context, triples ...Triple) error {
	if len(triples) == 0 {
		return nil
	}
	if _, err := s.db.NewInsert().Model(&triples).Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to insert triples")
	}
	return nil
}

// Objects returns every object of (subject, predicate).
func (s *Store) Objects(ctx context.Context, subject string, predicate string) ([]Literal, error) {
	var rows []Literal
	err := s.db.NewSelect().
		TableExpr("triples AS t").
		ColumnExpr("t.object, t.lang, t.is_iri").
		Where("t.subject = ?", subject).
		Where("t.predicate = ?", predicate).
		Scan(withShape(ctx, "objects"), &rows)
	if err != nil {
		return nil, queryError("objects", err)
	}
	return rows, nil
}

// PreferredLabel returns the skos:prefLabel of subject in exactly lang.
func (s *Store) PreferredLabel(ctx context.Context, subject string, lang string) (string, bool, error) {
	var labels []string
	err := s.db.NewSelect().
		TableExpr("triples AS t").
		ColumnExpr("t.object").
		Where("t.subject = ?", subject).
		Where("t.predicate = ?", skos.PrefLabel).
		Where("t.lang = ?", lang).
		OrderExpr("t.object ASC").
		Limit(1).
		Scan(withShape(ctx, "pref_label"), &labels)
	if err != nil {
		return "", false, queryError("pref_label", err)
	}
	if len(labels) == 0 {
		return "", false, nil
	}
	return labels[0], true, nil
}

// Breadcrumbs returns the ancestry paths of a concept: a domain whose top
// concept is a micro-thesaurus narrowing to the concept, or a domain whose
// top concept is the concept itself.
func (s *Store) Breadcrumbs(ctx context.Context, concept string) ([]BreadcrumbRow, error) {
	ctx = withShape(ctx, "breadcrumbs")

	var viaMicroThesaurus []BreadcrumbRow
	err := s.db.NewSelect().
		TableExpr("triples AS d").
		ColumnExpr("d.subject AS domain, m.subject AS microthesaurus").
		Join("JOIN triples AS m ON m.subject = d.object").
		Where("d.predicate = ?", skos.HasTopConcept).
		Where("m.predicate = ?", skos.Narrower).
		Where("m.object = ?", concept).
		Scan(ctx, &viaMicroThesaurus)
	if err != nil {
		return nil, queryError("breadcrumbs", err)
	}

	var viaDomain []BreadcrumbRow
	err = s.db.NewSelect().
		TableExpr("triples AS d").
		ColumnExpr("d.subject AS domain, '' AS microthesaurus").
		Join("JOIN triples AS ty ON ty.subject = d.subject").
		Where("d.predicate = ?", skos.HasTopConcept).
		Where("d.object = ?", concept).
		Where("ty.predicate = ?", skos.RDFType).
		Where("ty.object = ?", skos.Domain).
		Scan(ctx, &viaDomain)
	if err != nil {
		return nil, queryError("breadcrumbs", err)
	}

	seen := make(map[BreadcrumbRow]struct{})
	var rows []BreadcrumbRow
	for _, row := range append(viaMicroThesaurus, viaDomain...) {
		if _, ok := seen[row]; ok {
			continue
		}
		seen[row] = struct{}{}
		rows = append(rows, row)
	}
	return rows, nil
}

// Matches follows concept -> dcterms:identifier -> skos:exactMatch.
func (s *Store) Matches(ctx context.Context, concept string) ([]string, error) {
	var uris []string
	err := s.db.NewSelect().
		TableExpr("triples AS i").
		ColumnExpr("DISTINCT m.object").
		Join("JOIN triples AS m ON m.subject = i.object").
		Where("i.subject = ?", concept).
		Where("i.predicate = ?", skos.Identifier).
		Where("m.predicate = ?", skos.ExactMatch).
		Scan(withShape(ctx, "matches"), &uris)
	if err != nil {
		return nil, queryError("matches", err)
	}
	return uris, nil
}

// CountByType counts the distinct subjects typed as typeIRI.
func (s *Store) CountByType(ctx context.Context, typeIRI string) (int, error) {
	var count int
	err := s.db.NewSelect().
		TableExpr("triples AS t").
		ColumnExpr("count(DISTINCT t.subject)").
		Where("t.predicate = ?", skos.RDFType).
		Where("t.object = ?", typeIRI).
		Scan(withShape(ctx, "count_by_type"), &count)
	if err != nil {
		return 0, queryError("count_by_type", err)
	}
	return count, nil
}

// ListByType returns one page of the subjects typed as typeIRI that have a
// preferred label in lang, ordered by that label.
func (s *Store) ListByType(ctx context.Context, typeIRI string, lang string, limit int, offset int) ([]ListingRow, error) {
	var rows []ListingRow
	err := s.db.NewSelect().
		TableExpr("triples AS t").
		ColumnExpr("t.subject AS uri, l.object AS pref_label").
		Join("JOIN triples AS l ON l.subject = t.subject").
		Where("t.predicate = ?", skos.RDFType).
		Where("t.object = ?", typeIRI).
		Where("l.predicate = ?", skos.PrefLabel).
		Where("l.lang = ?", lang).
		OrderExpr("l.object ASC, t.subject ASC").
		Limit(limit).
		Offset(offset).
		Scan(withShape(ctx, "list_by_type"), &rows)
	if err != nil {
		return nil, queryError("list_by_type", err)
	}
	return rows, nil
}

// SubjectsByType returns every subject typed as typeIRI.
func (s *Store) SubjectsByType(ctx context.Context, typeIRI string) ([]string, error) {
	var uris []string
	err := s.db.NewSelect().
		TableExpr("triples AS t").
		ColumnExpr("DISTINCT t.subject").
		Where("t.predicate = ?", skos.RDFType).
		Where("t.object = ?", typeIRI).
		Scan(withShape(ctx, "subjects_by_type"), &uris)
	if err != nil {
		return nil, queryError("subjects_by_type", err)
	}
	return uris, nil
}

// Endpoint returns the store DSN with credentials redacted.
func (s *Store) Endpoint() string {
	return s.endpoint
}

// GTG pings the store.
func (s *Store) GTG() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		s.log.WithError(err).Error("Triple store is not good-to-go")
		return queryError("ping", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
