// Package analytics records which screens each conversation reaches so the sales team can
// see where visitors drop out of the price calculator.
package analytics

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Tracker receives a hit every time a conversation enters a screen.
type Tracker interface {
	Reach(ctx context.Context, chatID int64, screen string)
}

// FunnelRepository stores hits and counts distinct conversations per screen.
type FunnelRepository interface {
	Hit(ctx context.Context, screen string, chatID int64) error
	Counts(ctx context.Context) (map[string]int, error)
}

// Publisher forwards screen events to an external queue.
type Publisher interface {
	Publish(ctx context.Context, event ScreenEvent) error
}

// ScreenEvent is the queued form of a hit.
type ScreenEvent struct {
	ChatID    int64     `json:"chat_id"`
	Screen    string    `json:"screen"`
	ReachedAt time.Time `json:"reached_at"`
}

// StepStat is one line of the funnel report.
type StepStat struct {
	Screen      string `json:"screen"`
	Count       int    `json:"count"`
	PercentBase int    `json:"percent_of_base"`
	PercentPrev int    `json:"percent_of_prev"`
}

// DefaultReachTimeout bounds each storage or queue call made by Reach. Reach runs inside
// the screen transition while the session is locked.
const DefaultReachTimeout = 300 * time.Millisecond

type Funnel struct {
	repo       FunnelRepository
	publishers []Publisher
	order      []string
	now        func() time.Time
	timeout    time.Duration
}

var _ Tracker = (*Funnel)(nil)

// NewFunnel builds a funnel over the ordered screens. Publishers are optional.
func NewFunnel(repo FunnelRepository, order []string, publishers ...Publisher) *Funnel {
	if repo == nil {
		repo = NewMemoryFunnelRepo()
	}
	return &Funnel{
		repo:       repo,
		publishers: publishers,
		order:      append([]string(nil), order...),
		now:        time.Now,
		timeout:    DefaultReachTimeout,
	}
}

// WithReachTimeout replaces the per-call timeout of Reach. Non-positive values are ignored.
func (f *Funnel) WithReachTimeout(d time.Duration) *Funnel {
	if d > 0 {
		f.timeout = d
	}
	return f
}

// Reach never fails the caller; storage and queue errors are only logged.
func (f *Funnel) Reach(ctx context.Context, chatID int64, screen string) {
	if screen == "" {
		return
	}
	hitCtx, cancel := context.WithTimeout(ctx, f.timeout)
	err := f.repo.Hit(hitCtx, screen, chatID)
	cancel()
	if err != nil {
		log.Printf("[Funnel.Reach] failed to store hit %s for chat %d: %v", screen, chatID, err)
	}
	event := ScreenEvent{ChatID: chatID, Screen: screen, ReachedAt: f.now().UTC()}
	for _, p := range f.publishers {
		pubCtx, cancel := context.WithTimeout(ctx, f.timeout)
		err := p.Publish(pubCtx, event)
		cancel()
		if err != nil {
			log.Printf("[Funnel.Reach] failed to publish hit %s for chat %d: %v", screen, chatID, err)
		}
	}
}

// Report returns the ordered funnel. The base is the first step, or the largest step
// when nobody has reached the first one.
func (f *Funnel) Report(ctx context.Context) ([]StepStat, error) {
	counts, err := f.repo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load funnel counts: %w", err)
	}

	var base int
	if len(f.order) > 0 {
		base = counts[f.order[0]]
	}
	if base == 0 {
		for _, s := range f.order {
			if counts[s] > base {
				base = counts[s]
			}
		}
	}

	stats := make([]StepStat, 0, len(f.order))
	prev := 0
	for i, s := range f.order {
		c := counts[s]
		stat := StepStat{Screen: s, Count: c, PercentBase: percent(c, base)}
		if i == 0 {
			stat.PercentPrev = 100
		} else {
			stat.PercentPrev = percent(c, prev)
		}
		stats = append(stats, stat)
		prev = c
	}
	return stats, nil
}

// Chart renders the report as plain text with a 20-cell bar per step.
func Chart(stats []StepStat) string {
	if len(stats) == 0 {
		return "Данных по воронке пока нет"
	}
	maxCount := 0
	for _, s := range stats {
		if s.Count > maxCount {
			maxCount = s.Count
		}
	}
	var b strings.Builder
	b.WriteString("Воронка по шагам:\n")
	for _, s := range stats {
		fmt.Fprintf(&b, "- %s: %d | %3d%% от базового | %3d%% от пред. %s\n", s.Screen, s.Count, s.PercentBase, s.PercentPrev, bar20(s.Count, maxCount))
	}
	return b.String()
}

func percent(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (100 * a) / b
}

func bar20(val, max int) string {
	if max <= 0 {
		return ""
	}
	filled := (20 * val) / max
	if filled < 0 {
		filled = 0
	}
	if filled > 20 {
		filled = 20
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", 20-filled) + "]"
}
