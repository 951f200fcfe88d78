package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Financial-Times/go-logger/v2"
	metrics "github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"
	logTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func newTestHook() (*queryHook, *logTest.Hook) {
	log := logger.NewUPPLogger("thesaurus-api-test", "DEBUG")
	return &queryHook{log: log, registry: metrics.NewRegistry()}, logTest.NewLocal(log.Logger)
}

func TestQueryHookIgnoresWrappedNoRows(t *testing.T) {
	h, entries := newTestHook()
	ctx := withShape(context.Background(), "label")

	h.AfterQuery(ctx, &bun.QueryEvent{StartTime: time.Now(), Err: fmt.Errorf("scan label: %w", sql.ErrNoRows)})

	entry := entries.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, "Triple store query executed", entry.Message)
}

func TestQueryHookLogsFailures(t *testing.T) {
	h, entries := newTestHook()
	ctx := withShape(context.Background(), "objects")

	h.AfterQuery(ctx, &bun.QueryEvent{StartTime: time.Now(), Err: errors.New("connection reset")})

	entry := entries.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "Triple store query failed", entry.Message)
	assert.Equal(t, "objects", entry.Data["query"])
}

func TestQueryHookTimesEachShape(t *testing.T) {
	h, _ := newTestHook()

	h.AfterQuery(withShape(context.Background(), "label"), &bun.QueryEvent{StartTime: time.Now()})
	h.AfterQuery(context.Background(), &bun.QueryEvent{StartTime: time.Now()})

	assert.Equal(t, int64(1), metrics.GetOrRegisterTimer("store.query.label", h.registry).Count())
	assert.Equal(t, int64(1), metrics.GetOrRegisterTimer("store.query.other", h.registry).Count())
}
