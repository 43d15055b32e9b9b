package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldOperatorID is the standardized key for the operator driving a draft.
	FieldOperatorID = "operator_id"
	// FieldIdentityID is the standardized key for canonical numeric identity ids.
	FieldIdentityID = "identity_id"
	// FieldCategory is the standardized key for classifier categories.
	FieldCategory = "category"
	// FieldCorrelationID is the standardized key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

type contextKey int

const (
	operatorKey contextKey = iota
	correlationKey
)

// WithOperator tags ctx with the operator id whose input is being processed.
func WithOperator(ctx context.Context, operatorID int64) context.Context {
	return context.WithValue(ctx, operatorKey, operatorID)
}

// OperatorFromContext returns the operator id attached by WithOperator.
func OperatorFromContext(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(operatorKey).(int64)
	return id, ok
}

// WithCorrelationID tags ctx with id, generating a fresh one when id is empty.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, correlationKey, id)
}

// CorrelationIDFromContext returns the correlation id attached to ctx.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(correlationKey).(string)
	return id, ok && id != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := OperatorFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldOperatorID, id))
	}
	if id, ok := CorrelationIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f
	}
	return logger.With(args...)
}
