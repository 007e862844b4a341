package timeline

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
)

// Source supplies events of one kind, bounded and ordered by occurred_at
// descending. An unavailable source returns an error; it never panics.
type Source interface {
	Events(ctx context.Context, scope domain.Scope, w domain.Window, limit int) ([]domain.CareEvent, error)
}

// SourceFunc adapts a plain function (typically a store query method) to Source.
type SourceFunc func(ctx context.Context, scope domain.Scope, w domain.Window, limit int) ([]domain.CareEvent, error)

func (f SourceFunc) Events(ctx context.Context, scope domain.Scope, w domain.Window, limit int) ([]domain.CareEvent, error) {
	return f(ctx, scope, w, limit)
}

// Renderer turns one event's payload into display text.
type Renderer func(domain.CareEvent) string

// Entry is a single rendered timeline line.
type Entry struct {
	At   time.Time        `json:"at"`
	Kind domain.EventKind `json:"kind"`
	Text string           `json:"text"`
}

type registration struct {
	source Source
	render Renderer
}

// Aggregator merges heterogeneous event streams into one descending,
// length-capped timeline. The set of available kinds is fixed at startup via
// Register; an unregistered kind simply contributes nothing.
type Aggregator struct {
	log   *zap.Logger
	kinds map[domain.EventKind]registration
}

// New creates an empty Aggregator.
func New(log *zap.Logger) *Aggregator {
	return &Aggregator{log: log, kinds: make(map[domain.EventKind]registration)}
}

// Register wires a source and renderer for a kind. Must be called before the
// aggregator is used; registrations are not synchronized.
func (a *Aggregator) Register(kind domain.EventKind, src Source, render Renderer) {
	a.kinds[kind] = registration{source: src, render: render}
}

// Build queries each requested kind within the window, merges the results by
// occurred_at descending and truncates to capN. Equal timestamps keep the
// order of kinds as requested. A failing source is logged and skipped so one
// broken stream never empties the whole view. An inverted window yields an
// empty timeline, not an error.
func (a *Aggregator) Build(ctx context.Context, scope domain.Scope, w domain.Window, capN int, kinds []domain.EventKind) ([]Entry, error) {
	if capN <= 0 || w.Empty() {
		return nil, nil
	}

	var entries []Entry
	for _, kind := range kinds {
		reg, ok := a.kinds[kind]
		if !ok {
			continue
		}
		events, err := reg.source.Events(ctx, scope, w, capN)
		if err != nil {
			a.log.Warn("timeline source unavailable",
				zap.String("kind", string(kind)), zap.Error(err))
			continue
		}
		for _, ev := range events {
			entries = append(entries, Entry{
				At:   ev.OccurredAt,
				Kind: ev.Kind,
				Text: reg.render(ev),
			})
		}
	}

	// Stable sort keeps the per-kind request order as the tie-break for
	// equal timestamps.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].At.After(entries[j].At)
	})
	if len(entries) > capN {
		entries = entries[:capN]
	}
	return entries, nil
}
