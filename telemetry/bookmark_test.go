package telemetry

import "testing"

func hasBookmark(bms []Bookmark, typ BookmarkType) bool {
	for _, bm := range bms {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_PoolSaturated(t *testing.T) {
	bd := NewBookmarkDetector(10)

	if bms := bd.Check(WindowStats{WindowEndFrame: 60, Alive: 50, Capacity: 100, Occupancy: 0.5}); len(bms) != 0 {
		t.Fatalf("unexpected bookmarks: %v", bms)
	}

	full := WindowStats{WindowEndFrame: 120, Alive: 100, Capacity: 100, Occupancy: 1}
	if !hasBookmark(bd.Check(full), BookmarkPoolSaturated) {
		t.Error("expected pool_saturated bookmark")
	}

	// Staying saturated does not trigger again
	full.WindowEndFrame = 180
	if hasBookmark(bd.Check(full), BookmarkPoolSaturated) {
		t.Error("pool_saturated should trigger once per transition")
	}
}

func TestBookmarkDetector_EmissionStall(t *testing.T) {
	bd := NewBookmarkDetector(10)

	bd.Check(WindowStats{WindowEndFrame: 60, Emitted: 50, EmitRate: 50})
	bms := bd.Check(WindowStats{WindowEndFrame: 120, Emitted: 0})
	if !hasBookmark(bms, BookmarkEmissionStall) {
		t.Error("expected emission_stall bookmark")
	}

	// Already stalled
	bms = bd.Check(WindowStats{WindowEndFrame: 180, Emitted: 0})
	if hasBookmark(bms, BookmarkEmissionStall) {
		t.Error("emission_stall should not repeat while stalled")
	}
}

func TestBookmarkDetector_EmissionSpike(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndFrame: int64(i * 60), Emitted: 10, EmitRate: 10})
	}
	bms := bd.Check(WindowStats{WindowEndFrame: 300, Emitted: 100, EmitRate: 100})
	if !hasBookmark(bms, BookmarkEmissionSpike) {
		t.Error("expected emission_spike bookmark")
	}
}

func TestBookmarkDetector_SteadyState(t *testing.T) {
	bd := NewBookmarkDetector(10)

	triggered := 0
	for i := 0; i < 12; i++ {
		bms := bd.Check(WindowStats{
			WindowEndFrame: int64(i * 60),
			Alive:          500,
			Capacity:       1000,
			Occupancy:      0.5,
			Emitted:        100,
			EmitRate:       100,
		})
		if hasBookmark(bms, BookmarkSteadyState) {
			triggered++
		}
	}
	if triggered != 1 {
		t.Errorf("steady_state triggered %d times, want 1", triggered)
	}
}
