package transcribe_test

// Notes:
// - Completion order is forced with channels, not sleeps: each segment
//   waits for the next one to finish, so the last segment completes first.
// - Partial failure uses 5 segments with segment 2 failing.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alnah/go-notetaker/internal/lang"
	"github.com/alnah/go-notetaker/internal/metrics"
	"github.com/alnah/go-notetaker/internal/transcribe"
)

// funcTranscriber adapts a function to the Transcriber interface.
type funcTranscriber func(ctx context.Context, path string, opts transcribe.Options) (string, error)

func (f funcTranscriber) Transcribe(ctx context.Context, path string, opts transcribe.Options) (string, error) {
	return f(ctx, path, opts)
}

func segmentPaths(n int) []string {
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("/tmp/talk-segment-%03d.m4a", i)
	}
	return paths
}

// indexOf extracts the segment number from a path built by segmentPaths.
func indexOf(path string) int {
	var i int
	_, _ = fmt.Sscanf(path[strings.LastIndex(path, "-")+1:], "%03d.m4a", &i)
	return i
}

// ---------------------------------------------------------------------------
// TranscribeFile
// ---------------------------------------------------------------------------

func TestDispatcher_TranscribeFile(t *testing.T) {
	t.Parallel()

	t.Run("returns text", func(t *testing.T) {
		t.Parallel()
		var got transcribe.Options
		d := transcribe.NewDispatcher(funcTranscriber(func(_ context.Context, _ string, opts transcribe.Options) (string, error) {
			got = opts
			return "hello", nil
		}), transcribe.WithOptions(transcribe.Options{Language: lang.MustParse("en")}))

		text, err := d.TranscribeFile(context.Background(), "/tmp/a.m4a")
		if err != nil || text != "hello" {
			t.Fatalf("TranscribeFile() = (%q, %v)", text, err)
		}
		if got.Language.BaseCode() != "en" {
			t.Errorf("options not forwarded: %+v", got)
		}
	})

	t.Run("propagates error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		d := transcribe.NewDispatcher(funcTranscriber(func(context.Context, string, transcribe.Options) (string, error) {
			return "", boom
		}))

		_, err := d.TranscribeFile(context.Background(), "/tmp/a.m4a")
		if !errors.Is(err, boom) {
			t.Errorf("TranscribeFile() error = %v, want %v", err, boom)
		}
	})
}

// ---------------------------------------------------------------------------
// TranscribeAll - ordering and fault tolerance
// ---------------------------------------------------------------------------

func TestDispatcher_TranscribeAll_OrderIndependentOfCompletion(t *testing.T) {
	t.Parallel()

	const n = 6
	done := make([]chan struct{}, n)
	for i := range done {
		done[i] = make(chan struct{})
	}

	var order []int
	var mu sync.Mutex
	d := transcribe.NewDispatcher(funcTranscriber(func(ctx context.Context, path string, _ transcribe.Options) (string, error) {
		i := indexOf(path)
		if i < n-1 {
			select {
			case <-done[i+1]:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		mu.Lock()
		order = append(order, i)
		mu.Unlock()
		close(done[i])
		return fmt.Sprintf("text %d", i), nil
	}))

	got := d.TranscribeAll(context.Background(), segmentPaths(n))

	want := "text 0\ntext 1\ntext 2\ntext 3\ntext 4\ntext 5"
	if got != want {
		t.Errorf("TranscribeAll() = %q, want %q", got, want)
	}
	if order[0] != n-1 {
		t.Errorf("completion order = %v, want last segment first", order)
	}
}

func TestDispatcher_TranscribeAll_PartialFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	d := transcribe.NewDispatcher(funcTranscriber(func(_ context.Context, path string, _ transcribe.Options) (string, error) {
		calls.Add(1)
		i := indexOf(path)
		if i == 2 {
			return "", errors.New("backend unavailable")
		}
		return fmt.Sprintf("part %d", i), nil
	}))

	got := d.TranscribeAll(context.Background(), segmentPaths(5))

	want := "part 0\npart 1\n\npart 3\npart 4"
	if got != want {
		t.Errorf("TranscribeAll() = %q, want %q", got, want)
	}
	if calls.Load() != 5 {
		t.Errorf("calls = %d, want 5 (siblings must not be cancelled)", calls.Load())
	}
}

func TestDispatcher_TranscribeSegments_ReportsFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	paths := segmentPaths(5)
	d := transcribe.NewDispatcher(funcTranscriber(func(_ context.Context, path string, _ transcribe.Options) (string, error) {
		if indexOf(path) == 2 {
			return "", boom
		}
		return "ok", nil
	}))

	texts, failed := d.TranscribeSegments(context.Background(), paths)
	if len(texts) != 5 || texts[2] != "" {
		t.Errorf("texts = %q", texts)
	}
	if len(failed) != 1 {
		t.Fatalf("failed = %v, want one failure", failed)
	}
	if failed[0].Index != 2 || failed[0].Path != paths[2] || !errors.Is(failed[0], boom) {
		t.Errorf("failed[0] = %+v", failed[0])
	}
}

func TestDispatcher_TranscribeAll_AllFail(t *testing.T) {
	t.Parallel()

	d := transcribe.NewDispatcher(funcTranscriber(func(context.Context, string, transcribe.Options) (string, error) {
		return "", errors.New("down")
	}))

	if got := d.TranscribeAll(context.Background(), segmentPaths(3)); got != "\n\n" {
		t.Errorf("TranscribeAll() = %q, want two separators", got)
	}
}

func TestDispatcher_TranscribeAll_Empty(t *testing.T) {
	t.Parallel()

	d := transcribe.NewDispatcher(funcTranscriber(func(context.Context, string, transcribe.Options) (string, error) {
		t.Error("transcriber should not be called")
		return "", nil
	}))
	if got := d.TranscribeAll(context.Background(), nil); got != "" {
		t.Errorf("TranscribeAll(nil) = %q, want empty", got)
	}
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func TestDispatcher_TranscribeAll_UnboundedFanOut(t *testing.T) {
	t.Parallel()

	const n = 4
	var started sync.WaitGroup
	started.Add(n)
	release := make(chan struct{})

	d := transcribe.NewDispatcher(funcTranscriber(func(context.Context, string, transcribe.Options) (string, error) {
		started.Done()
		<-release
		return "x", nil
	}))

	result := make(chan string, 1)
	go func() { result <- d.TranscribeAll(context.Background(), segmentPaths(n)) }()

	// Every request must be in flight at once before any is released.
	started.Wait()
	close(release)

	if got := <-result; got != "x\nx\nx\nx" {
		t.Errorf("TranscribeAll() = %q", got)
	}
}

func TestDispatcher_WithMaxParallel(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	d := transcribe.NewDispatcher(funcTranscriber(func(context.Context, string, transcribe.Options) (string, error) {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return "x", nil
	}), transcribe.WithMaxParallel(2))

	d.TranscribeAll(context.Background(), segmentPaths(8))

	if peak.Load() > 2 {
		t.Errorf("peak in-flight = %d, want <= 2", peak.Load())
	}
}

func TestDispatcher_CancellationReachesRequests(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var started sync.WaitGroup
	started.Add(3)

	d := transcribe.NewDispatcher(funcTranscriber(func(ctx context.Context, _ string, _ transcribe.Options) (string, error) {
		started.Done()
		<-ctx.Done()
		return "", ctx.Err()
	}))

	go func() {
		started.Wait()
		cancel()
	}()

	_, failed := d.TranscribeSegments(ctx, segmentPaths(3))
	if len(failed) != 3 {
		t.Fatalf("failed = %d, want 3", len(failed))
	}
	for _, f := range failed {
		if !errors.Is(f, context.Canceled) {
			t.Errorf("failure %v, want context.Canceled", f)
		}
	}
}

func TestDispatcher_RecordsMetrics(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	d := transcribe.NewDispatcher(funcTranscriber(func(_ context.Context, path string, _ transcribe.Options) (string, error) {
		if indexOf(path) == 0 {
			return "", errors.New("boom")
		}
		return "ok", nil
	}), transcribe.WithMetrics(m))

	d.TranscribeAll(context.Background(), segmentPaths(3))

	mfs, err := m.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	counts := map[string]float64{}
	for _, mf := range mfs {
		if mf.GetName() != "notetaker_segments_transcribed_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			counts[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
		}
	}
	if counts["success"] != 2 || counts["error"] != 1 {
		t.Errorf("segment counters = %v, want success=2 error=1", counts)
	}
}
