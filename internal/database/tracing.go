package database

import (
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	callBackBeforeName = "otel:before"
	callBackAfterName  = "otel:after"
	spanKey            = "otel:span"
)

var tracer = otel.Tracer("gorm")

// RegisterCallbacks wraps every gorm operation in a client span.
func RegisterCallbacks(db *gorm.DB, system string) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register(callBackBeforeName, before("gorm:create", system)); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register(callBackAfterName, after); err != nil {
		return err
	}

	if err := cb.Query().Before("gorm:query").Register(callBackBeforeName, before("gorm:query", system)); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register(callBackAfterName, after); err != nil {
		return err
	}

	if err := cb.Update().Before("gorm:update").Register(callBackBeforeName, before("gorm:update", system)); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register(callBackAfterName, after); err != nil {
		return err
	}

	if err := cb.Delete().Before("gorm:delete").Register(callBackBeforeName, before("gorm:delete", system)); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register(callBackAfterName, after); err != nil {
		return err
	}

	if err := cb.Row().Before("gorm:row").Register(callBackBeforeName, before("gorm:row", system)); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register(callBackAfterName, after); err != nil {
		return err
	}

	if err := cb.Raw().Before("gorm:raw").Register(callBackBeforeName, before("gorm:raw", system)); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register(callBackAfterName, after)
}

func before(operation, system string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		ctx, span := tracer.Start(ctx, operation,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("db.system", system),
				attribute.String("db.sql.table", db.Statement.Table),
			),
		)
		db.Statement.Context = ctx
		db.InstanceSet(spanKey, span)
	}
}

func after(db *gorm.DB) {
	v, ok := db.InstanceGet(spanKey)
	if !ok {
		return
	}
	span, ok := v.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if sql := db.Statement.SQL.String(); sql != "" {
		span.SetAttributes(attribute.String("db.statement", sql))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}
}
