package stream

import (
	"context"
	"testing"
	"time"

	"forumscraper/pkg/models"
)

// fakeRenderer replays a scripted sequence of page states, one per poll.
type fakeRenderer struct {
	extents []int64
	calls   int
}

func (f *fakeRenderer) ExtendContent(ctx context.Context) error { return nil }

func (f *fakeRenderer) CurrentExtent(ctx context.Context) (int64, error) {
	i := f.calls - 1
	if i >= len(f.extents) {
		i = len(f.extents) - 1
	}
	return f.extents[i], nil
}

func (f *fakeRenderer) CurrentMarkup(ctx context.Context) (string, error) {
	f.calls++
	return "snapshot", nil
}

// fakeParser exposes a fixed set of streams and applies the predicate the
// way the real parser does, in document order.
type fakeParser struct {
	streams []models.Stream
}

func (f *fakeParser) Streams(markup string, match func(id string) bool) ([]models.Stream, error) {
	var out []models.Stream
	for _, s := range f.streams {
		if match(s.ID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func ids(streams []models.Stream) []string {
	out := make([]string, len(streams))
	for i, s := range streams {
		out[i] = s.ID
	}
	return out
}

func TestTrackerNeverReturnsSeenBatches(t *testing.T) {
	renderer := &fakeRenderer{extents: []int64{100, 200, 200}}
	parser := &fakeParser{streams: []models.Stream{{ID: "0"}, {ID: "1"}, {ID: "2"}}}
	tracker := NewTracker(renderer, parser, time.Millisecond, nil)

	first, err := tracker.Poll(context.Background())
	if err != nil {
		t.Fatalf("first poll: %v", err)
	}
	got := ids(first)
	if len(got) != 3 || got[0] != "0" || got[2] != "2" {
		t.Fatalf("first poll ids = %v, want [0 1 2]", got)
	}
	if tracker.HighestSeen() != "2" {
		t.Errorf("highest seen = %s, want 2", tracker.HighestSeen())
	}

	// Page grew by two more batches; only those come back.
	parser.streams = append(parser.streams, models.Stream{ID: "3"}, models.Stream{ID: "4"})
	second, err := tracker.Poll(context.Background())
	if err != nil {
		t.Fatalf("second poll: %v", err)
	}
	got = ids(second)
	if len(got) != 2 || got[0] != "3" || got[1] != "4" {
		t.Fatalf("second poll ids = %v, want [3 4]", got)
	}

	// Nothing new: empty result, threshold unchanged.
	third, err := tracker.Poll(context.Background())
	if err != nil {
		t.Fatalf("third poll: %v", err)
	}
	if len(third) != 0 {
		t.Fatalf("third poll ids = %v, want none", ids(third))
	}
	if tracker.HighestSeen() != "4" {
		t.Errorf("highest seen = %s, want 4", tracker.HighestSeen())
	}
}

func TestTrackerThresholdSurvivesDigitRollover(t *testing.T) {
	renderer := &fakeRenderer{extents: []int64{100, 200}}
	parser := &fakeParser{streams: []models.Stream{{ID: "9"}}}
	tracker := NewTracker(renderer, parser, time.Millisecond, nil)

	if _, err := tracker.Poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}

	parser.streams = []models.Stream{{ID: "9"}, {ID: "10"}, {ID: "11"}}
	streams, err := tracker.Poll(context.Background())
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	got := ids(streams)
	if len(got) != 2 || got[0] != "10" || got[1] != "11" {
		t.Fatalf("poll ids = %v, want [10 11]", got)
	}
}

func TestTrackerStallDetection(t *testing.T) {
	renderer := &fakeRenderer{extents: []int64{100, 250, 250}}
	parser := &fakeParser{}
	tracker := NewTracker(renderer, parser, time.Millisecond, nil)

	for i, wantStalled := range []bool{false, false, true} {
		if _, err := tracker.Poll(context.Background()); err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
		if tracker.Stalled() != wantStalled {
			t.Errorf("poll %d: stalled = %v, want %v", i, tracker.Stalled(), wantStalled)
		}
	}
}

func TestTrackerSettleDelayHonorsContext(t *testing.T) {
	renderer := &fakeRenderer{extents: []int64{100}}
	tracker := NewTracker(renderer, &fakeParser{}, time.Minute, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := tracker.Poll(ctx); err == nil {
		t.Fatal("expected context error from poll during settle delay")
	}
}
