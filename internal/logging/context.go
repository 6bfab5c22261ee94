package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for one add invocation.
	FieldRunID = "run_id"
	// FieldArchive is the standardized structured logging key for the project archive path.
	FieldArchive = "archive"
	// FieldFrame is the standardized structured logging key for a 0-based frame index.
	FieldFrame = "frame"
	// FieldAssetID is the standardized structured logging key for content-addressed asset ids.
	FieldAssetID = "asset_id"
)

type contextKey int

const (
	runIDKey contextKey = iota
	archiveKey
)

// WithRunID tags ctx with the identifier of the current run.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, strings.TrimSpace(id))
}

// RunIDFromContext returns the run identifier stored by WithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// WithArchive tags ctx with the project archive being modified.
func WithArchive(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, archiveKey, strings.TrimSpace(path))
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if path, ok := ctx.Value(archiveKey).(string); ok && path != "" {
		fields = append(fields, slog.String(FieldArchive, path))
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
	return logger.With(Args(fields...)...)
}
