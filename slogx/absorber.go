package slogx

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

var _ slog.Handler = (*Absorber)(nil)

// Record is a simplified copy of a [slog.Record] retained by an [Absorber].
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]slog.Value
}

type absorbed struct {
	mux     sync.Mutex
	records []Record
}

// Absorber is a [slog.Handler] that keeps every record it handles in memory instead of writing it anywhere.
// It's useful for asserting that something was logged, and for counting warnings and errors to report at the end of a run.
//
// Handlers derived with WithAttrs and WithGroup share storage with the Absorber they came from.
type Absorber struct {
	level  slog.Leveler
	group  string
	attrs  []slog.Attr
	stored *absorbed
}

// NewAbsorber creates an [Absorber] that retains records at or above level.
// A nil level will retain every record.
func NewAbsorber(level slog.Leveler) *Absorber {
	if level == nil {
		level = slog.Level(-8)
	}
	return &Absorber{
		level:  level,
		stored: new(absorbed),
	}
}

func (a *Absorber) Enabled(_ context.Context, level slog.Level) bool {
	return level >= a.level.Level()
}

func (a *Absorber) Handle(_ context.Context, record slog.Record) error {
	rec := Record{
		Level:   record.Level,
		Message: record.Message,
		Attrs:   make(map[string]slog.Value, len(a.attrs)+record.NumAttrs()),
	}
	for _, attr := range a.attrs {
		rec.Attrs[attr.Key] = attr.Value.Resolve()
	}
	record.Attrs(func(attr slog.Attr) bool {
		rec.Attrs[a.key(attr.Key)] = attr.Value.Resolve()
		return true
	})
	a.stored.mux.Lock()
	defer a.stored.mux.Unlock()
	a.stored.records = append(a.stored.records, rec)
	return nil
}

func (a *Absorber) key(key string) string {
	if len(a.group) == 0 {
		return key
	}
	return a.group + "." + key
}

func (a *Absorber) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return a
	}
	cp := *a
	cp.attrs = slices.Clone(a.attrs)
	for _, attr := range attrs {
		attr.Key = a.key(attr.Key)
		cp.attrs = append(cp.attrs, attr)
	}
	return &cp
}

func (a *Absorber) WithGroup(name string) slog.Handler {
	if len(name) == 0 {
		return a
	}
	cp := *a
	cp.group = a.key(name)
	return &cp
}

// Records returns a copy of every record absorbed so far, in the order they were handled.
func (a *Absorber) Records() []Record {
	a.stored.mux.Lock()
	defer a.stored.mux.Unlock()
	return slices.Clone(a.stored.records)
}

// Count returns the number of absorbed records with exactly the given level.
func (a *Absorber) Count(level slog.Level) int {
	a.stored.mux.Lock()
	defer a.stored.mux.Unlock()
	var n int
	for _, rec := range a.stored.records {
		if rec.Level == level {
			n++
		}
	}
	return n
}

// Reset drops every absorbed record.
func (a *Absorber) Reset() {
	a.stored.mux.Lock()
	defer a.stored.mux.Unlock()
	a.stored.records = nil
}
