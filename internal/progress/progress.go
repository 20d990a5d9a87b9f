package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Indicator renders a single-line progress bar for the card fan-out.
// Safe for concurrent use; workers call Increment as they finish.
type Indicator struct {
	mu         sync.Mutex
	out        io.Writer
	enabled    bool
	message    string
	total      int
	current    int
	startTime  time.Time
	lastUpdate time.Time
}

// NewIndicator creates a new progress indicator writing to stderr
func NewIndicator(message string, total int, enabled bool) *Indicator {
	return &Indicator{
		out:       os.Stderr,
		enabled:   enabled,
		message:   message,
		total:     total,
		startTime: time.Now(),
	}
}

// WithTotal creates a progress indicator with a known total
func WithTotal(message string, total int, quiet bool) *Indicator {
	return NewIndicator(message, total, !quiet)
}

// SetOutput redirects rendering, mostly for tests.
func (p *Indicator) SetOutput(w io.Writer) {
	p.mu.Lock()
	p.out = w
	p.mu.Unlock()
}

func (p *Indicator) Start() {
	if p == nil || !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startTime = time.Now()
	p.lastUpdate = p.startTime
	fmt.Fprintf(p.out, "%s...\n", p.message)
}

// Increment records one finished unit of work and returns the new count.
func (p *Indicator) Increment() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++
	p.render(time.Now())
	return p.current
}

// Current returns the number of completed units.
func (p *Indicator) Current() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// render redraws at most every 100ms, except for the final unit. Caller holds mu.
func (p *Indicator) render(now time.Time) {
	if !p.enabled || p.total <= 0 {
		return
	}
	if now.Sub(p.lastUpdate) < 100*time.Millisecond && p.current < p.total {
		return
	}
	p.lastUpdate = now

	percentage := float64(p.current) / float64(p.total) * 100
	var eta string
	if elapsed := now.Sub(p.startTime); p.current > 0 && elapsed > 0 {
		perItem := elapsed / time.Duration(p.current)
		eta = " ETA: " + formatDuration(perItem*time.Duration(p.total-p.current))
	}
	fmt.Fprintf(p.out, "\r%s [%s] %d/%d (%.1f%%)%s",
		p.message, createProgressBar(percentage), p.current, p.total, percentage, eta)
}

func (p *Indicator) Finish() {
	if p == nil || !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\r%s ✓ Completed %d/%d in %s\n",
		p.message, p.current, p.total, formatDuration(time.Since(p.startTime)))
}

func (p *Indicator) FinishWithError(err error) {
	if p == nil || !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\r%s ✗ Failed after %s: %v\n",
		p.message, formatDuration(time.Since(p.startTime)), err)
}

func createProgressBar(percentage float64) string {
	const width = 30
	filled := int(percentage / 100.0 * width)

	var bar strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i < filled:
			bar.WriteString("█")
		case i == filled && percentage < 100:
			bar.WriteString("▓")
		default:
			bar.WriteString("░")
		}
	}
	return bar.String()
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
