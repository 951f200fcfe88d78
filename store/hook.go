package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Financial-Times/go-logger/v2"
	tidUtils "github.com/Financial-Times/transactionid-utils-go"
	metrics "github.com/rcrowley/go-metrics"
	"github.com/uptrace/bun"
)

type shapeKey struct{}

// withShape tags the context with the query shape so the hook can time each shape apart.
func withShape(ctx context.Context, shape string) context.Context {
	return context.WithValue(ctx, shapeKey{}, shape)
}

func shapeFrom(ctx context.Context) string {
	if shape, ok := ctx.Value(shapeKey{}).(string); ok {
		return shape
	}
	return "other"
}

// queryHook records a timer per query shape and logs failed queries.
type queryHook struct {
	log      *logger.UPPLogger
	registry metrics.Registry
}

func (h *queryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	shape := shapeFrom(ctx)
	metrics.GetOrRegisterTimer("store.query."+shape, h.registry).UpdateSince(event.StartTime)

	tid, _ := tidUtils.GetTransactionIDFromContext(ctx)
	queryLog := h.log.WithTransactionID(tid).
		WithField("query", shape).
		WithField("duration", time.Since(event.StartTime).String())

	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		queryLog.WithError(event.Err).Error("Triple store query failed")
		return
	}
	queryLog.Debug("Triple store query executed")
}
