package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkPoolSaturated BookmarkType = "pool_saturated"
	BookmarkEmissionStall BookmarkType = "emission_stall"
	BookmarkEmissionSpike BookmarkType = "emission_spike"
	BookmarkSteadyState   BookmarkType = "steady_state"
)

// saturationOccupancy is the live fraction at which the pool counts as full.
const saturationOccupancy = 0.98

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Frame       int64        `csv:"frame"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"frame", b.Frame,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable transitions in the particle pool.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	saturated         bool // last window was at saturation
	steadyWindowCount int  // consecutive windows with a stable live count
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady state detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkSaturated(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkEmissionStall(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkEmissionSpike(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkSteadyState(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// last returns the most recent window in history.
func (bd *BookmarkDetector) last() WindowStats {
	i := bd.historyIdx - 1
	if i < 0 {
		i = bd.historySize - 1
	}
	return bd.history[i]
}

// checkSaturated triggers when the pool first fills up. While saturated,
// emission is starved of dead slots and the realised rate falls below the
// configured one.
func (bd *BookmarkDetector) checkSaturated(stats WindowStats) *Bookmark {
	full := stats.Occupancy >= saturationOccupancy
	was := bd.saturated
	bd.saturated = full
	if !full || was {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkPoolSaturated,
		Frame:       stats.WindowEndFrame,
		Description: fmt.Sprintf("Pool saturated: %d of %d slots alive", stats.Alive, stats.Capacity),
	}
}

func (bd *BookmarkDetector) checkEmissionStall(stats WindowStats) *Bookmark {
	prev := bd.last()
	if prev.Emitted == 0 || stats.Emitted != 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkEmissionStall,
		Frame:       stats.WindowEndFrame,
		Description: fmt.Sprintf("Emission stopped after %d particles in the previous window", prev.Emitted),
	}
}

func (bd *BookmarkDetector) checkEmissionSpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.EmitRate
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.EmitRate > avg*2.0 && stats.Emitted >= 10 {
		return &Bookmark{
			Type:        BookmarkEmissionSpike,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("Emission rate %.1f/s is %.1fx average (%.1f/s)", stats.EmitRate, stats.EmitRate/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkSteadyState(stats WindowStats) *Bookmark {
	if stats.Alive < 10 {
		bd.steadyWindowCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	// Variance of the live count over the four most recent windows
	var recent [4]WindowStats
	for k := range recent {
		recent[k] = bd.history[(bd.historyIdx-4+k+bd.historySize)%bd.historySize]
	}
	var sum float64
	for _, h := range recent {
		sum += float64(h.Alive)
	}
	mean := sum / 4
	var variance float64
	for _, h := range recent {
		d := float64(h.Alive) - mean
		variance += d * d
	}
	variance /= 4

	// CV^2 < 0.0025 means the live count varies by less than 5%
	if mean > 0 && variance/(mean*mean) < 0.0025 {
		bd.steadyWindowCount++
	} else {
		bd.steadyWindowCount = 0
	}

	if bd.steadyWindowCount == 5 { // trigger exactly once
		return &Bookmark{
			Type:        BookmarkSteadyState,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("Steady state at %d live particles (%.0f%% occupancy)", stats.Alive, stats.Occupancy*100),
		}
	}
	return nil
}
