package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

func init() {
	log.SetLevel(log.FatalLevel)
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// failingFactory never produces a worker; it forces DegradedReady.
type failingFactory struct{}

func (failingFactory) Name() string { return "failing" }

func (failingFactory) Spawn(int, chan<- event) (Worker, error) {
	return nil, errors.New("spawn refused")
}

// recorder wraps Execute and notes the order tasks were run in.
type recorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *recorder) exec(env Envelope) Response {
	if env.Kind != KindPing {
		r.mu.Lock()
		r.ids = append(r.ids, env.ID)
		r.mu.Unlock()
	}
	return Execute(env)
}

func TestStateTransitions(t *testing.T) {
	d := New(Config{Workers: 1})
	defer d.Shutdown()

	if d.State() != StateUninitialized {
		t.Fatalf("state = %s, want uninitialized", d.State())
	}
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if d.State() != StateReady {
		t.Fatalf("state = %s, want ready", d.State())
	}
}

func TestInitDegradesWhenEveryFactoryFails(t *testing.T) {
	d := New(Config{Workers: 2, Factories: []Factory{failingFactory{}}})
	defer d.Shutdown()

	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if d.State() != StateDegradedReady {
		t.Fatalf("state = %s, want degraded-ready", d.State())
	}
}

func TestCalculateScoreThroughWorkers(t *testing.T) {
	d := New(Config{Workers: 2})
	defer d.Shutdown()
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	res, err := d.CalculateScore(testCtx(t), ScoreRequest{CorrectCount: 1500, MissCount: 20, ElapsedMs: 60000})
	if err != nil {
		t.Fatal(err)
	}
	if res.KPM != 1500 || res.Accuracy != 98.68 || res.RankLabel != "S" || res.Score != 150986 {
		t.Errorf("unexpected score result: %+v", res)
	}
}

func TestDegradedSubmitsAreSynchronousAndOrdered(t *testing.T) {
	d := New(Config{Factories: []Factory{failingFactory{}}})
	defer d.Shutdown()
	rec := &recorder{}
	d.exec = rec.exec
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	reqs := []ScoreRequest{
		{CorrectCount: 100, ElapsedMs: 60000},
		{CorrectCount: 200, ElapsedMs: 60000},
		{CorrectCount: 300, ElapsedMs: 60000},
		{CorrectCount: 400, ElapsedMs: 60000},
		{CorrectCount: 500, ElapsedMs: 60000},
	}
	for i, req := range reqs {
		fut, err := d.Submit(KindCalculateScore, req)
		if err != nil {
			t.Fatal(err)
		}
		// Degraded submissions settle before Submit returns.
		select {
		case r := <-fut.Done():
			if r.Err != nil {
				t.Fatalf("task %d: %v", i, r.Err)
			}
			var sr struct {
				KPM int `msgpack:"kpm"`
			}
			if err := msgpack.Unmarshal(r.Value, &sr); err != nil {
				t.Fatal(err)
			}
			if want := req.CorrectCount; sr.KPM != want {
				t.Errorf("task %d: kpm = %d, want %d", i, sr.KPM, want)
			}
		default:
			t.Fatalf("task %d did not settle synchronously", i)
		}
	}
	if len(rec.ids) != 5 {
		t.Fatalf("executed %d tasks, want 5", len(rec.ids))
	}
	for i := 1; i < len(rec.ids); i++ {
		if rec.ids[i-1] >= rec.ids[i] {
			t.Errorf("tasks ran out of submission order: %v", rec.ids)
		}
	}
}

func TestBufferedTasksFlushInSubmissionOrder(t *testing.T) {
	rec := &recorder{}
	d := New(Config{
		Workers:   1,
		Factories: []Factory{GoroutineFactory{Execute: rec.exec}},
	})
	defer d.Shutdown()

	var futs []*Future
	for i := 0; i < 5; i++ {
		fut, err := d.Submit(KindCalculateScore, ScoreRequest{CorrectCount: (i + 1) * 100, ElapsedMs: 60000})
		if err != nil {
			t.Fatal(err)
		}
		futs = append(futs, fut)
	}
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	ctx := testCtx(t)
	for i, fut := range futs {
		if _, err := fut.Wait(ctx); err != nil {
			t.Fatalf("task %d: %v", i, err)
		}
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i := 1; i < len(rec.ids); i++ {
		if rec.ids[i-1] >= rec.ids[i] {
			t.Errorf("buffered tasks ran out of order: %v", rec.ids)
		}
	}
}

func TestDegradedModeEquivalence(t *testing.T) {
	req := ScoreRequest{CorrectCount: 321, MissCount: 12, ElapsedMs: 45000}

	worker := New(Config{Workers: 1})
	defer worker.Shutdown()
	if err := worker.Init(); err != nil {
		t.Fatal(err)
	}
	degraded := New(Config{Factories: []Factory{failingFactory{}}})
	defer degraded.Shutdown()
	if err := degraded.Init(); err != nil {
		t.Fatal(err)
	}

	ctx := testCtx(t)
	a, err := worker.CalculateScore(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := degraded.CalculateScore(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("worker and fallback disagree: %+v vs %+v", a, b)
	}

	sa, err := worker.CalculateStats(ctx, StatsRequest{PerPhraseKPM: []float64{120, 180}, CorrectCount: 290, MissCount: 10})
	if err != nil {
		t.Fatal(err)
	}
	sb, err := degraded.CalculateStats(ctx, StatsRequest{PerPhraseKPM: []float64{120, 180}, CorrectCount: 290, MissCount: 10})
	if err != nil {
		t.Fatal(err)
	}
	if sa.AverageKPM != sb.AverageKPM || sa.TotalKeystrokes != sb.TotalKeystrokes || sa.Accuracy != sb.Accuracy {
		t.Errorf("stats disagree: %+v vs %+v", sa, sb)
	}
}

func TestUnknownKindIsAnErrorResponse(t *testing.T) {
	for _, mode := range []struct {
		name string
		cfg  Config
	}{
		{"workers", Config{Workers: 1}},
		{"degraded", Config{Factories: []Factory{failingFactory{}}}},
	} {
		t.Run(mode.name, func(t *testing.T) {
			d := New(mode.cfg)
			defer d.Shutdown()
			if err := d.Init(); err != nil {
				t.Fatal(err)
			}

			fut, err := d.Submit(Kind("renderFrame"), struct{}{})
			if err != nil {
				t.Fatal(err)
			}
			res, err := fut.Wait(testCtx(t))
			if err != nil {
				t.Fatal(err)
			}
			if res.Err == nil || !strings.Contains(res.Err.Error(), "unknown task kind") {
				t.Errorf("res.Err = %v, want unknown task kind", res.Err)
			}
		})
	}
}

func TestPing(t *testing.T) {
	d := New(Config{Workers: 1})
	defer d.Shutdown()
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	res, err := d.Ping(testCtx(t))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Alive || res.Timestamp == 0 {
		t.Errorf("ping result = %+v", res)
	}
}

func TestWorkerPanicRetriesOnceAndOthersComplete(t *testing.T) {
	// The third task panics its worker once; the retry and the
	// remaining tasks must still complete.
	var panicked atomic.Bool
	exec := func(env Envelope) Response {
		if env.Kind == KindCalculateScore {
			var req ScoreRequest
			if err := msgpack.Unmarshal(env.Payload, &req); err == nil {
				if req.CorrectCount == 300 && panicked.CompareAndSwap(false, true) {
					panic("injected worker fault")
				}
			}
		}
		return Execute(env)
	}

	d := New(Config{
		Workers:   2,
		Factories: []Factory{GoroutineFactory{Execute: exec}},
	})
	defer d.Shutdown()
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	ctx := testCtx(t)
	var futs []*Future
	for i := 1; i <= 5; i++ {
		fut, err := d.Submit(KindCalculateScore, ScoreRequest{CorrectCount: i * 100, ElapsedMs: 60000})
		if err != nil {
			t.Fatal(err)
		}
		futs = append(futs, fut)
	}
	for i, fut := range futs {
		res, err := fut.Wait(ctx)
		if err != nil {
			t.Fatalf("task %d did not settle: %v", i+1, err)
		}
		if res.Err != nil {
			t.Errorf("task %d failed: %v", i+1, res.Err)
		}
	}
}

func TestWorkerPersistentFaultFailsOnlyThatTask(t *testing.T) {
	exec := func(env Envelope) Response {
		if env.Kind == KindCalculateScore {
			var req ScoreRequest
			if err := msgpack.Unmarshal(env.Payload, &req); err == nil && req.CorrectCount == 300 {
				panic("persistent worker fault")
			}
		}
		return Execute(env)
	}

	d := New(Config{
		Workers:   2,
		Factories: []Factory{GoroutineFactory{Execute: exec}},
	})
	defer d.Shutdown()
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	ctx := testCtx(t)
	var futs []*Future
	for i := 1; i <= 5; i++ {
		fut, err := d.Submit(KindCalculateScore, ScoreRequest{CorrectCount: i * 100, ElapsedMs: 60000})
		if err != nil {
			t.Fatal(err)
		}
		futs = append(futs, fut)
	}
	for i, fut := range futs {
		res, err := fut.Wait(ctx)
		if err != nil {
			t.Fatalf("task %d did not settle: %v", i+1, err)
		}
		if i+1 == 3 {
			if res.Err == nil {
				t.Error("task 3 should fail after its single retry")
			}
			continue
		}
		if res.Err != nil {
			t.Errorf("task %d failed: %v", i+1, res.Err)
		}
	}
}

func TestScoreMemo(t *testing.T) {
	d := New(Config{Workers: 1})
	defer d.Shutdown()
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	ctx := testCtx(t)
	req := ScoreRequest{CorrectCount: 777, MissCount: 3, ElapsedMs: 61500}
	a, err := d.CalculateScore(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := d.CalculateScore(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("memoized result differs: %+v vs %+v", a, b)
	}
	d.memo.mu.Lock()
	hits := d.memo.cache.Stats()["hits"]
	d.memo.mu.Unlock()
	if hits == 0 {
		t.Error("second identical request should hit the memo")
	}
}

func TestShutdown(t *testing.T) {
	d := New(Config{Workers: 1})
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	d.Shutdown()

	if _, err := d.Submit(KindPing, struct{}{}); err != ErrStopped {
		t.Errorf("Submit after Shutdown: err = %v, want ErrStopped", err)
	}
	// Repeated shutdown is a no-op.
	d.Shutdown()
}

// muteWorker swallows everything sent to it, including the startup ping.
type muteWorker struct{}

func (muteWorker) Send([]byte) {}
func (muteWorker) Close()      {}

type muteFactory struct{}

func (muteFactory) Name() string { return "mute" }

func (muteFactory) Spawn(int, chan<- event) (Worker, error) {
	return muteWorker{}, nil
}

// halfMuteFactory mutes slot 0 and spawns a real worker everywhere else.
type halfMuteFactory struct{}

func (halfMuteFactory) Name() string { return "half-mute" }

func (halfMuteFactory) Spawn(id int, events chan<- event) (Worker, error) {
	if id == 0 {
		return muteWorker{}, nil
	}
	return GoroutineFactory{}.Spawn(id, events)
}

func TestStrayResponseIsIgnored(t *testing.T) {
	d := New(Config{Workers: 1})
	defer d.Shutdown()
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	// Retire one task so its correlation id is known and already settled.
	first, err := d.CalculateScore(testCtx(t), ScoreRequest{CorrectCount: 100, ElapsedMs: 60000})
	if err != nil {
		t.Fatal(err)
	}
	if first.KPM != 100 {
		t.Fatalf("kpm = %d, want 100", first.KPM)
	}

	fut, err := d.Submit(KindCalculateScore, ScoreRequest{CorrectCount: 200, ElapsedMs: 60000})
	if err != nil {
		t.Fatal(err)
	}
	// Responses bearing a never-issued and an already-retired id race
	// the real worker response. Neither may settle the live future.
	for _, id := range []string{"task_999999", "task_000001"} {
		data, err := msgpack.Marshal(Response{ID: id, Error: "stale"})
		if err != nil {
			t.Fatal(err)
		}
		d.events <- event{kind: eventResponse, workerID: 0, data: data}
	}

	r, err := fut.Wait(testCtx(t))
	if err != nil {
		t.Fatal(err)
	}
	if r.Err != nil {
		t.Fatalf("live task settled with stray error: %v", r.Err)
	}
	var sr struct {
		KPM int `msgpack:"kpm"`
	}
	if err := msgpack.Unmarshal(r.Value, &sr); err != nil {
		t.Fatal(err)
	}
	if sr.KPM != 200 {
		t.Errorf("kpm = %d, want 200", sr.KPM)
	}

	if d.State() != StateReady {
		t.Errorf("state = %s, want ready", d.State())
	}
	later, err := d.CalculateScore(testCtx(t), ScoreRequest{CorrectCount: 300, ElapsedMs: 60000})
	if err != nil {
		t.Fatal(err)
	}
	if later.KPM != 300 {
		t.Errorf("kpm = %d, want 300", later.KPM)
	}
}

func TestStartupProbeTimeoutDegrades(t *testing.T) {
	d := New(Config{
		Workers:     1,
		Factories:   []Factory{muteFactory{}},
		PingTimeout: 50 * time.Millisecond,
	})
	defer d.Shutdown()

	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if d.State() != StateDegradedReady {
		t.Fatalf("state = %s, want degraded-ready", d.State())
	}

	res, err := d.CalculateScore(testCtx(t), ScoreRequest{CorrectCount: 200, ElapsedMs: 60000})
	if err != nil {
		t.Fatal(err)
	}
	if res.KPM != 200 {
		t.Errorf("kpm = %d, want 200", res.KPM)
	}
}

func TestStartupProbeDropsSilentSlot(t *testing.T) {
	d := New(Config{
		Workers:     2,
		Factories:   []Factory{halfMuteFactory{}},
		PingTimeout: 100 * time.Millisecond,
	})
	defer d.Shutdown()

	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if d.State() != StateReady {
		t.Fatalf("state = %s, want ready after dropping the silent slot", d.State())
	}

	for i, cc := range []int{100, 200, 300} {
		res, err := d.CalculateScore(testCtx(t), ScoreRequest{CorrectCount: cc, ElapsedMs: 60000})
		if err != nil {
			t.Fatalf("task %d: %v", i, err)
		}
		if res.KPM != cc {
			t.Errorf("task %d: kpm = %d, want %d", i, res.KPM, cc)
		}
	}
}
