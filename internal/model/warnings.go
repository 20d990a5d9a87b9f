package model

import (
	"fmt"
	"log"
	"sync"
)

// WarningKind classifies a soft failure. Warnings never stop a run.
type WarningKind string

const (
	WarnNoProductMatch     WarningKind = "no-product-match"
	WarnBestScoreMatch     WarningKind = "best-score-match"
	WarnMissingFoilPrice   WarningKind = "missing-foil-price"
	WarnMissingNormalPrice WarningKind = "missing-normal-price"
	WarnPriceFallback      WarningKind = "price-fallback"
	WarnMissingHyperspace  WarningKind = "missing-hyperspace"
)

type Warning struct {
	Kind    WarningKind `json:"kind"`
	Card    string      `json:"card"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s: %s", w.Kind, w.Card, w.Message)
}

// Warnings collects soft failures from concurrent workers.
// A nil *Warnings discards everything, so components can run without a collector.
type Warnings struct {
	mu       sync.Mutex
	items    []Warning
	observer func(Warning)
	quiet    bool
}

func NewWarnings() *Warnings {
	return &Warnings{}
}

// OnAdd registers a callback invoked for every new warning (metrics hook).
func (w *Warnings) OnAdd(fn func(Warning)) {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.observer = fn
	w.mu.Unlock()
}

// Quiet disables the log line emitted per warning.
func (w *Warnings) Quiet(q bool) {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.quiet = q
	w.mu.Unlock()
}

func (w *Warnings) Add(kind WarningKind, card, format string, args ...any) {
	if w == nil {
		return
	}
	warning := Warning{Kind: kind, Card: card, Message: fmt.Sprintf(format, args...)}

	w.mu.Lock()
	w.items = append(w.items, warning)
	observer := w.observer
	quiet := w.quiet
	w.mu.Unlock()

	if !quiet {
		log.Printf("Warning: %s", warning)
	}
	if observer != nil {
		observer(warning)
	}
}

// Items returns a copy of the collected warnings in insertion order.
func (w *Warnings) Items() []Warning {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Warning, len(w.items))
	copy(out, w.items)
	return out
}

// Count returns how many warnings of the given kind were recorded.
func (w *Warnings) Count(kind WarningKind) int {
	n := 0
	for _, item := range w.Items() {
		if item.Kind == kind {
			n++
		}
	}
	return n
}

func (w *Warnings) Len() int {
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}
