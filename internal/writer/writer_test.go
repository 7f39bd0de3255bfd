// internal/writer/writer_test.go
package writer

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/neptun-bridge/internal/hub"
	"github.com/tamzrod/neptun-bridge/internal/poller"
	"github.com/tamzrod/neptun-bridge/internal/status"
)

// ---- fake metrics sink ----

type emit struct {
	name  string
	value float64
	tags  string
}

type fakeSink struct {
	mu    sync.Mutex
	emits []emit
	fail  bool
}

func (f *fakeSink) Gauge(name string, value float64, tags []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("sink down")
	}
	f.emits = append(f.emits, emit{name: name, value: value, tags: strings.Join(tags, ",")})
	return nil
}

func (f *fakeSink) Incr(name string, tags []string) error {
	return f.Gauge(name, 1, tags)
}

func (f *fakeSink) Close() error { return nil }

func (f *fakeSink) take() []emit {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.emits
	f.emits = nil
	return out
}

func names(es []emit) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.name+"{"+e.tags+"}")
	}
	sort.Strings(out)
	return out
}

func newWriter(t *testing.T, sink *fakeSink) (Writer, *status.Mirror) {
	t.Helper()
	w, m, err := Build(hubConfig(), status.DefaultLayout(), sink, zerolog.Nop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return w, m
}

// ---- tests ----

func TestWrite_PublishesDecodedWord(t *testing.T) {
	w, m := newWriter(t, &fakeSink{})

	at := time.Unix(1700000000, 0)
	if err := w.Write(poller.PollResult{Hub: "home", At: at, Word: 0x1D80}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, err := m.Current()
	if err != nil {
		t.Fatalf("expected available mirror, got %v", err)
	}
	if snap.Word != 0x1D80 || !snap.Attributes.KeyboardLocked || !snap.Attributes.WirelessPairing {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(snap.Valves) != 2 || !snap.Valves[0].Open || snap.Valves[1].Open {
		t.Fatalf("unexpected valves: %+v", snap.Valves)
	}
	if snap.Valves[0].Name != "main" {
		t.Fatalf("unexpected valve name %q", snap.Valves[0].Name)
	}
	if !snap.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected timestamp %v", snap.UpdatedAt)
	}
}

func TestWrite_FailureMarksUnavailable(t *testing.T) {
	w, m := newWriter(t, &fakeSink{})

	_ = w.Write(poller.PollResult{Hub: "home", At: time.Now(), Word: 0x0100})
	if err := w.Write(poller.PollResult{Hub: "home", At: time.Now(), Err: errors.New("timeout")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, err := m.Current()
	if !errors.Is(err, status.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if snap.LastErrorCode != 1 {
		t.Fatalf("expected generic code 1, got %d", snap.LastErrorCode)
	}
	// last-known state is kept
	if snap.Word != 0x0100 || !snap.Valves[0].Open {
		t.Fatalf("last known state lost: %+v", snap)
	}
}

func TestWrite_ExceptionCodePassedThrough(t *testing.T) {
	w, m := newWriter(t, &fakeSink{})

	err := &hub.OpError{Hub: "home", Op: "write_status", Err: &hub.ExceptionError{FunctionCode: 0x86}}
	_ = w.Write(poller.PollResult{Hub: "home", At: time.Now(), Err: err})

	if got := m.Snapshot().LastErrorCode; got != 0x86 {
		t.Fatalf("expected code 0x86, got %#x", got)
	}
}

func TestWrite_FullThenDeltaMetrics(t *testing.T) {
	sink := &fakeSink{}
	w, _ := newWriter(t, sink)

	// ---- first write: FULL ASSERT ----
	if err := w.Write(poller.PollResult{Hub: "home", At: time.Now(), Word: 0x0000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := sink.take()
	// available, last_error_code, word, alarm, 5 attributes, 2 valves
	if len(first) != 11 {
		t.Fatalf("expected 11 gauges on full assert, got %d: %v", len(first), names(first))
	}

	// ---- second write: only valve 1 changed ----
	if err := w.Write(poller.PollResult{Hub: "home", At: time.Now(), Word: 0x0100}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := sink.take()
	want := []string{
		MetricWord + "{hub:home}",
		MetricValveOpen + "{hub:home,valve:main}",
	}
	sort.Strings(want)
	if got := names(second); strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected delta: got %v want %v", got, want)
	}

	// ---- unchanged: nothing ----
	_ = w.Write(poller.PollResult{Hub: "home", At: time.Now(), Word: 0x0100})
	if got := sink.take(); len(got) != 0 {
		t.Fatalf("expected no emits, got %v", names(got))
	}
}

func TestWrite_UnavailableEmitsErrorsOnly(t *testing.T) {
	sink := &fakeSink{}
	w, _ := newWriter(t, sink)

	_ = w.Write(poller.PollResult{Hub: "home", At: time.Now(), Word: 0x0100})
	sink.take()

	_ = w.Write(poller.PollResult{Hub: "home", At: time.Now(), Err: errors.New("timeout")})
	want := []string{
		MetricAvailable + "{hub:home}",
		MetricLastErrorCode + "{hub:home}",
		MetricErrors + "{hub:home}",
	}
	sort.Strings(want)
	if got := names(sink.take()); strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected emits: got %v want %v", got, want)
	}

	// recovery with the same word re-asserts availability only
	_ = w.Write(poller.PollResult{Hub: "home", At: time.Now(), Word: 0x0100})
	want = []string{
		MetricAvailable + "{hub:home}",
		MetricLastErrorCode + "{hub:home}",
	}
	sort.Strings(want)
	if got := names(sink.take()); strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected emits: got %v want %v", got, want)
	}
}

func TestWrite_SinkFailureForcesFullAssert(t *testing.T) {
	sink := &fakeSink{}
	w, m := newWriter(t, sink)

	_ = w.Write(poller.PollResult{Hub: "home", At: time.Now(), Word: 0x0000})
	sink.take()

	sink.fail = true
	if err := w.Write(poller.PollResult{Hub: "home", At: time.Now(), Word: 0x0100}); err == nil {
		t.Fatalf("expected sink error")
	}
	// the mirror is updated regardless of metrics
	if !m.Snapshot().Valves[0].Open {
		t.Fatalf("mirror not updated on sink failure")
	}

	sink.fail = false
	if err := w.Write(poller.PollResult{Hub: "home", At: time.Now(), Word: 0x0100}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sink.take(); len(got) != 11 {
		t.Fatalf("expected full re-assert, got %d emits", len(got))
	}
}

func TestWrite_DropsStaleResult(t *testing.T) {
	sink := &fakeSink{}
	w, m := newWriter(t, sink)
	t0 := time.Unix(1700000000, 0)

	_ = w.Write(poller.PollResult{Hub: "home", At: t0.Add(2 * time.Second), Word: 0x0100})
	sink.take()

	// a read that finished before the toggle is delivered after it
	if err := w.Write(poller.PollResult{Hub: "home", At: t0.Add(time.Second), Word: 0x0000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Write(poller.PollResult{Hub: "home", At: t0, Err: errors.New("timeout")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, err := m.Current()
	if err != nil {
		t.Fatalf("stale failure marked mirror unavailable: %v", err)
	}
	if snap.Word != 0x0100 || !snap.Valves[0].Open {
		t.Fatalf("stale word overwrote mirror: %+v", snap)
	}
	if got := sink.take(); len(got) != 0 {
		t.Fatalf("expected no emits for stale results, got %v", names(got))
	}
}

func TestWrite_PlanTags(t *testing.T) {
	sink := &fakeSink{}
	plan := Plan{Hub: "home", Layout: status.DefaultLayout(), Tags: []string{"hub:home", "site:cellar"}}
	w, err := New(plan, status.NewMirror(plan.Layout, []string{"main"}), sink, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_ = w.Write(poller.PollResult{Hub: "home", At: time.Now(), Word: 0x0100})
	for _, e := range sink.take() {
		if !strings.HasPrefix(e.tags, "hub:home,site:cellar") {
			t.Fatalf("plan tags missing on %s: %q", e.name, e.tags)
		}
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Plan{}, status.NewMirror(status.DefaultLayout(), nil), nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for empty hub")
	}
	if _, err := New(Plan{Hub: "home"}, nil, nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for nil mirror")
	}
	if _, err := New(Plan{Hub: "home"}, status.NewMirror(status.DefaultLayout(), nil), nil, zerolog.Nop()); err != nil {
		t.Fatalf("nil sink should fall back to nop: %v", err)
	}
}

func TestErrorCode(t *testing.T) {
	if errorCode(nil) != 0 {
		t.Fatalf("nil error must map to 0")
	}
	if errorCode(errors.New("x")) != 1 {
		t.Fatalf("opaque error must map to 1")
	}
	if errorCode(&hub.ExceptionError{FunctionCode: 0x83}) != 0x83 {
		t.Fatalf("exception code not extracted")
	}
}
