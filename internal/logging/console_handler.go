package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const shortRunIDLen = 8

// scope holds the well-known fields the console handler lifts out of the
// attribute list and prints around the message:
//
//	2026-01-02T15:04:05Z INFO  [3f2a9c1d project.sb3] assembler: frame staged #2 asset=<md5> reused=false
type scope struct {
	component string
	runID     string
	archive   string
	frame     string
	assetID   string
}

// absorb records attr if it is one of the lifted fields.
func (s *scope) absorb(attr slog.Attr) bool {
	switch attr.Key {
	case FieldComponent:
		s.component = attr.Value.String()
	case FieldRunID:
		s.runID = attr.Value.String()
	case FieldArchive:
		s.archive = attr.Value.String()
	case FieldFrame:
		s.frame = attr.Value.String()
	case FieldAssetID:
		s.assetID = attr.Value.String()
	default:
		return false
	}
	return true
}

// label renders the run and archive as "<short run id> <archive base name>".
func (s scope) label() string {
	parts := make([]string, 0, 2)
	if s.runID != "" {
		parts = append(parts, shortRunID(s.runID))
	}
	if s.archive != "" {
		parts = append(parts, filepath.Base(s.archive))
	}
	return strings.Join(parts, " ")
}

type consoleHandler struct {
	mu         *sync.Mutex
	w          io.Writer
	level      slog.Leveler
	withSource bool

	scope  scope
	attrs  []slog.Attr
	prefix string
}

func newConsoleHandler(w io.Writer, level slog.Leveler, withSource bool) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level, withSource: withSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	sc := h.scope
	rest := append([]slog.Attr(nil), h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		rest = collect(&sc, rest, h.prefix, attr)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	b.WriteString(ts.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, " %-5s ", levelLabel(record.Level))
	if label := sc.label(); label != "" {
		b.WriteByte('[')
		b.WriteString(label)
		b.WriteString("] ")
	}
	if sc.component != "" {
		b.WriteString(sc.component)
		b.WriteString(": ")
	}
	if msg := strings.TrimSpace(record.Message); msg != "" {
		b.WriteString(msg)
	} else {
		b.WriteString("(no message)")
	}
	if sc.frame != "" {
		b.WriteString(" #")
		b.WriteString(sc.frame)
	}
	if sc.assetID != "" {
		b.WriteString(" asset=")
		b.WriteString(sc.assetID)
	}
	for _, attr := range rest {
		b.WriteByte(' ')
		b.WriteString(attr.Key)
		b.WriteByte('=')
		b.WriteString(formatValue(attr.Value))
	}
	if h.withSource {
		if src := record.Source(); src != nil && src.File != "" {
			fmt.Fprintf(&b, " (%s:%d)", filepath.Base(src.File), src.Line)
		}
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// collect lifts top-level well-known fields into sc and appends everything
// else to rest with group keys dotted.
func collect(sc *scope, rest []slog.Attr, prefix string, attr slog.Attr) []slog.Attr {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return rest
	}
	if attr.Value.Kind() == slog.KindGroup {
		inner := prefix
		if attr.Key != "" {
			inner = joinKey(prefix, attr.Key)
		}
		for _, a := range attr.Value.Group() {
			rest = collect(sc, rest, inner, a)
		}
		return rest
	}
	if prefix == "" && sc.absorb(attr) {
		return rest
	}
	attr.Key = joinKey(prefix, attr.Key)
	return append(rest, attr)
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, attr := range attrs {
		clone.attrs = collect(&clone.scope, clone.attrs, h.prefix, attr)
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}
	return prefix + "." + key
}

func shortRunID(id string) string {
	if len(id) > shortRunIDLen {
		return id[:shortRunIDLen]
	}
	return id
}

func formatValue(v slog.Value) string {
	var s string
	if v.Kind() == slog.KindTime {
		s = v.Time().UTC().Format(time.RFC3339)
	} else {
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " \t\r\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
