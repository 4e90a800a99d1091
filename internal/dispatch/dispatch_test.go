package dispatch_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/dispatch"
)

func TestWaves(t *testing.T) {
	tests := []struct {
		n, limit int
		want     [][2]int
	}{
		{5, 3, [][2]int{{0, 2}, {2, 4}, {4, 5}}},
		{3, 1, [][2]int{{0, 1}, {1, 2}, {2, 3}}},
		{2, 0, [][2]int{{0, 1}, {1, 2}}},
		{4, 50, [][2]int{{0, 4}}},
		{0, 50, [][2]int{}},
	}
	for _, tt := range tests {
		if got := dispatch.Waves(tt.n, tt.limit); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("Waves(%d, %d) = %v, want %v", tt.n, tt.limit, got, tt.want)
		}
	}
}

func TestGatherPreservesOrder(t *testing.T) {
	calls := make([]dispatch.Call[int], 10)
	for i := range calls {
		calls[i] = func(ctx context.Context) (int, error) {
			// later calls finish first
			time.Sleep(time.Duration(10-i) * time.Millisecond)
			return i * i, nil
		}
	}
	got, err := dispatch.Gather(context.Background(), 4, calls)
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	want := []int{0, 1, 4, 9, 16, 25, 36, 49, 64, 81}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Gather = %v, want %v", got, want)
	}
}

func TestGatherBoundsConcurrency(t *testing.T) {
	var (
		mu      sync.Mutex
		current int
		peak    int
	)
	calls := make([]dispatch.Call[struct{}], 12)
	for i := range calls {
		calls[i] = func(ctx context.Context) (struct{}, error) {
			mu.Lock()
			current++
			peak = max(peak, current)
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			current--
			mu.Unlock()
			return struct{}{}, nil
		}
	}
	if _, err := dispatch.Gather(context.Background(), 4, calls); err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	if peak > dispatch.Width(4) {
		t.Fatalf("expected at most %d concurrent calls, saw %d", dispatch.Width(4), peak)
	}
}

func TestGatherStopsAfterFailingWave(t *testing.T) {
	boom := errors.New("boom")
	var started atomic.Int32
	calls := make([]dispatch.Call[int], 6)
	for i := range calls {
		calls[i] = func(ctx context.Context) (int, error) {
			started.Add(1)
			if i == 1 {
				return 0, boom
			}
			return i, nil
		}
	}
	_, err := dispatch.Gather(context.Background(), 3, calls)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	// width 2: only the first wave runs
	if n := started.Load(); n != 2 {
		t.Fatalf("expected 2 calls to start, got %d", n)
	}
}

func TestGatherHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := []dispatch.Call[int]{func(context.Context) (int, error) { return 1, nil }}
	if _, err := dispatch.Gather(ctx, 2, calls); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
