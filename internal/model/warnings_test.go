package model

import (
	"sync"
	"testing"
)

func TestWarnings_ConcurrentAdd(t *testing.T) {
	w := NewWarnings()
	w.Quiet(true)

	var observed int
	var mu sync.Mutex
	w.OnAdd(func(Warning) {
		mu.Lock()
		observed++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kind := WarnMissingFoilPrice
			if i%2 == 0 {
				kind = WarnNoProductMatch
			}
			w.Add(kind, "card", "iteration %d", i)
		}(i)
	}
	wg.Wait()

	if w.Len() != 50 {
		t.Errorf("expected 50 warnings, got %d", w.Len())
	}
	if got := w.Count(WarnNoProductMatch); got != 25 {
		t.Errorf("expected 25 no-product-match warnings, got %d", got)
	}
	if observed != 50 {
		t.Errorf("observer saw %d warnings, want 50", observed)
	}
}

func TestWarnings_NilIsNoop(t *testing.T) {
	var w *Warnings
	w.Add(WarnPriceFallback, "card", "ignored")
	if w.Len() != 0 || w.Items() != nil {
		t.Error("nil collector should stay empty")
	}
}

func TestCard_KeyAndLabel(t *testing.T) {
	base := Card{Number: 12, Name: "Boba Fett - Any Methods Necessary"}
	hyper := base
	hyper.Hyperspace = true

	if base.Key() == hyper.Key() {
		t.Error("base and hyperspace variants must have distinct keys")
	}
	if got := hyper.Label(); got != "#12 Boba Fett - Any Methods Necessary (Hyperspace)" {
		t.Errorf("unexpected label %q", got)
	}
}
