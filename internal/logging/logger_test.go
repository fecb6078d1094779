// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// captureLogs swaps the global logger for one writing into a buffer.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func decodeLine(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return m
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCtxAddsRunAndRequestIDs(t *testing.T) {
	buf := captureLogs(t)

	ctx := ContextWithRunID(context.Background(), "run-1")
	ctx = ContextWithRequestID(ctx, "req-9")
	Ctx(ctx).Info().Int64("post_id", 42).Msg("reconciled")

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["run_id"] != "run-1" {
		t.Errorf("run_id = %v, want run-1", m["run_id"])
	}
	if m["request_id"] != "req-9" {
		t.Errorf("request_id = %v, want req-9", m["request_id"])
	}
	if m["message"] != "reconciled" {
		t.Errorf("message = %v, want reconciled", m["message"])
	}
}

func TestCtxWithoutIDs(t *testing.T) {
	buf := captureLogs(t)

	Ctx(context.Background()).Info().Msg("plain")

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if _, ok := m["run_id"]; ok {
		t.Error("run_id should be absent")
	}
}

func TestContextWithNewRunID(t *testing.T) {
	t.Parallel()

	a := RunIDFromContext(ContextWithNewRunID(context.Background()))
	b := RunIDFromContext(ContextWithNewRunID(context.Background()))
	if a == "" || b == "" || a == b {
		t.Errorf("expected two distinct run ids, got %q and %q", a, b)
	}
	if RunIDFromContext(context.Background()) != "" {
		t.Error("empty context should carry no run id")
	}
}

func TestSlogHandlerWritesThroughZerolog(t *testing.T) {
	buf := captureLogs(t)

	logger := NewSlogLogger().With("supervisor", "root").WithGroup("svc")
	logger.Warn("service restarted", slog.String("name", "sync-scheduler"), slog.Int("attempt", 2))

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["level"] != "warn" {
		t.Errorf("level = %v, want warn", m["level"])
	}
	if m["svc.name"] != "sync-scheduler" {
		t.Errorf("svc.name = %v, want sync-scheduler", m["svc.name"])
	}
	if m["svc.attempt"] != float64(2) {
		t.Errorf("svc.attempt = %v, want 2", m["svc.attempt"])
	}
	if m["supervisor"] != "root" {
		t.Errorf("supervisor = %v", m["supervisor"])
	}
}

func TestSlogHandlerEnabledRespectsGlobalLevel(t *testing.T) {
	captureLogs(t)
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	h := NewSlogHandler()
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}
