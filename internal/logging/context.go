// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	requestIDKey contextKey = "request_id"
)

// NewRunID returns an identifier for one sync or import run.
func NewRunID() string {
	return uuid.New().String()
}

// ContextWithRunID tags ctx with a run id so every record logged during
// that run can be correlated.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// ContextWithNewRunID is ContextWithRunID with a freshly generated id.
func ContextWithNewRunID(ctx context.Context) context.Context {
	return ContextWithRunID(ctx, NewRunID())
}

// RunIDFromContext returns the run id or "".
func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithRequestID tags ctx with an HTTP request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns the global logger enriched with any ids carried by ctx.
//
//	logging.Ctx(ctx).Info().Int("records", n).Msg("Chunk committed")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger()
	runID := RunIDFromContext(ctx)
	reqID := RequestIDFromContext(ctx)
	if runID == "" && reqID == "" {
		return &l
	}

	c := l.With()
	if runID != "" {
		c = c.Str("run_id", runID)
	}
	if reqID != "" {
		c = c.Str("request_id", reqID)
	}
	l = c.Logger()
	return &l
}

// WithComponent returns a child logger with a component field.
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}
