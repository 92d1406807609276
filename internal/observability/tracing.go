package observability

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"
)

// Span times one pipeline stage or request. Finished spans are written to
// the logger at debug level; there is no exporter.
type Span struct {
	TraceID   string
	SpanID    string
	ParentID  string
	Operation string
	StartTime time.Time
	Duration  time.Duration
	Status    SpanStatus
	Error     string

	mu     sync.Mutex
	tags   map[string]string
	ended  bool
	logger *slog.Logger
	ctx    context.Context
}

type SpanStatus string

const (
	SpanStatusOK    SpanStatus = "OK"
	SpanStatusError SpanStatus = "ERROR"
)

type spanContextKey struct{}

// StartSpan starts a child of the span in ctx, or a new trace. Children
// inherit the parent's logger.
func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	span := &Span{
		TraceID:   newID(),
		SpanID:    newID(),
		Operation: operation,
		StartTime: time.Now(),
		Status:    SpanStatusOK,
	}

	if parent := GetSpan(ctx); parent != nil {
		span.ParentID = parent.SpanID
		span.TraceID = parent.TraceID
		span.logger = parent.logger
	}

	ctx = context.WithValue(ctx, spanContextKey{}, span)
	span.ctx = ctx
	return ctx, span
}

// StartSpanWithLogger starts a span that logs itself, and its children, on
// Finish.
func StartSpanWithLogger(ctx context.Context, logger *slog.Logger, operation string) (context.Context, *Span) {
	ctx, span := StartSpan(ctx, operation)
	span.logger = logger
	return ctx, span
}

// Finish records the duration once; later calls are no-ops.
func (s *Span) Finish() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.Duration = time.Since(s.StartTime)
	attrs := make([]slog.Attr, 0, len(s.tags)+6)
	attrs = append(attrs,
		slog.String("operation", s.Operation),
		slog.String("span_id", s.SpanID),
		slog.Duration("duration", s.Duration),
		slog.String("status", string(s.Status)),
	)
	if s.ParentID != "" {
		attrs = append(attrs, slog.String("parent_id", s.ParentID))
	}
	if s.Error != "" {
		attrs = append(attrs, slog.String("error", s.Error))
	}
	for k, v := range s.tags {
		attrs = append(attrs, slog.String(k, v))
	}
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.LogAttrs(s.ctx, slog.LevelDebug, "span finished", attrs...)
	}
}

func (s *Span) SetTag(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tags == nil {
		s.tags = make(map[string]string)
	}
	s.tags[key] = value
}

func (s *Span) Tag(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tags[key]
}

func (s *Span) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = SpanStatusError
	if err != nil {
		s.Error = err.Error()
	}
}

func GetSpan(ctx context.Context) *Span {
	if span, ok := ctx.Value(spanContextKey{}).(*Span); ok {
		return span
	}
	return nil
}

func newID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
