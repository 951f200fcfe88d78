// Package cache is the label snapshot the concept listing reads from: one
// entry per concept URI holding its preferred label in every language.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Financial-Times/go-logger/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/pkg/errors"
)

// ErrUnavailable is matched by every error returned from a cache read.
var ErrUnavailable = errors.New("label cache unavailable")

// Error reports a failed cache operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("label cache %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrUnavailable
}

// Labels maps a language code to a preferred label.
type Labels map[string]string

// LabelCache is a badger database of Labels keyed by concept URI.
type LabelCache struct {
	db       *badger.DB
	timeout  time.Duration
	endpoint string
	log      *logger.UPPLogger
}

type badgerLogger struct {
	log *logger.UPPLogger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(msg string, items ...interface{}) {
	l.log.WithField("component", "badger").Errorf(msg, items...)
}

func (l *badgerLogger) Warningf(msg string, items ...interface{}) {
	l.log.WithField("component", "badger").Warnf(msg, items...)
}

func (l *badgerLogger) Infof(msg string, items ...interface{}) {
	l.log.WithField("component", "badger").Debugf(msg, items...)
}

func (l *badgerLogger) Debugf(msg string, items ...interface{}) {
	l.log.WithField("component", "badger").Debugf(msg, items...)
}

// Open opens the cache directory at path. Reads are bounded by timeout.
func Open(path string, readOnly bool, timeout time.Duration, log *logger.UPPLogger) (*LabelCache, error) {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err) && !readOnly:
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, errors.Wrapf(err, "failed to create label cache directory %s", path)
		}
	case err != nil:
		return nil, errors.Wrapf(err, "failed to stat label cache directory %s", path)
	case !info.IsDir():
		return nil, errors.Errorf("%s is not a directory", path)
	}

	opts := badger.DefaultOptions(path).WithReadOnly(readOnly)
	return open(opts, path, timeout, log)
}

// NewMemoryCache opens an empty in-memory cache.
func NewMemoryCache(timeout time.Duration, log *logger.UPPLogger) (*LabelCache, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), "memory", timeout, log)
}

func open(opts badger.Options, endpoint string, timeout time.Duration, log *logger.UPPLogger) (*LabelCache, error) {
	opts.Logger = &badgerLogger{log: log}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open label cache")
	}
	return &LabelCache{db: db, timeout: timeout, endpoint: endpoint, log: log}, nil
}

// Get returns the labels cached for uri. A missing entry is not an error.
func (c *LabelCache) Get(ctx context.Context, uri string) (Labels, bool, error) {
	all, err := c.GetMany(ctx, []string{uri})
	if err != nil {
		return nil, false, err
	}
	labels, found := all[uri]
	return labels, found, nil
}

// GetMany returns the labels cached for each of uris in one read transaction.
// URIs without an entry are absent from the result.
func (c *LabelCache) GetMany(ctx context.Context, uris []string) (map[string]Labels, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		labels map[string]Labels
		err    error
	}
	done := make(chan result, 1)
	go func() {
		labels, err := c.read(uris)
		done <- result{labels: labels, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, &Error{Op: "get", Err: ctx.Err()}
	case r := <-done:
		if r.err != nil {
			return nil, &Error{Op: "get", Err: r.err}
		}
		return r.labels, nil
	}
}

func (c *LabelCache) read(uris []string) (map[string]Labels, error) {
	out := make(map[string]Labels, len(uris))
	err := c.db.View(func(txn *badger.Txn) error {
		for _, uri := range uris {
			item, err := txn.Get([]byte(uri))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			var labels Labels
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &labels)
			})
			if err != nil {
				return errors.Wrapf(err, "corrupt label cache entry for %s", uri)
			}
			out[uri] = labels
		}
		return nil
	})
	return out, err
}

// Put stores the labels of uri, replacing any previous entry. It is used by
// loaders and tests.
func (c *LabelCache) Put(ctx context.Context, uri string, labels Labels) error {
	val, err := json.Marshal(labels)
	if err != nil {
		return err
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(uri), val)
	})
	if err != nil {
		return &Error{Op: "put", Err: err}
	}
	return nil
}

// Endpoint describes where the cache lives.
func (c *LabelCache) Endpoint() string {
	return c.endpoint
}

// GTG fails when the database has been closed.
func (c *LabelCache) GTG() error {
	if c.db.IsClosed() {
		err := &Error{Op: "gtg", Err: errors.New("database is closed")}
		c.log.WithError(err).Error("Label cache is not good-to-go")
		return err
	}
	return nil
}

// Close closes the database.
func (c *LabelCache) Close() error {
	return c.db.Close()
}
