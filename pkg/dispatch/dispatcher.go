package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/kanatype/kanatype/pkg/score"
)

// State is the dispatcher lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	// StateReady means at least one worker answered the startup probe.
	StateReady
	// StateDegradedReady means no worker could be created or kept
	// alive; submissions run inline on the caller's goroutine. Fully
	// functional, just not concurrent.
	StateDegradedReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateDegradedReady:
		return "degraded-ready"
	}
	return "unknown"
}

// ErrStopped is returned by Submit after Shutdown.
var ErrStopped = errors.New("dispatch: dispatcher stopped")

// Config tunes a dispatcher instance. The zero value is usable.
type Config struct {
	// Workers is the pool size. Zero means hardware concurrency minus
	// one, minimum one.
	Workers int
	// Factories are tried in order for every pool slot. Nil means a
	// single in-process goroutine strategy.
	Factories []Factory
	// PingTimeout bounds the startup liveness probe.
	PingTimeout time.Duration
	// MemoSize bounds the score-result memo.
	MemoSize int
	// EventBuffer sizes the internal event channel.
	EventBuffer int
}

func (c *Config) fill() {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU() - 1
		if c.Workers < 1 {
			c.Workers = 1
		}
	}
	if c.Factories == nil {
		c.Factories = []Factory{GoroutineFactory{}}
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = time.Second
	}
	if c.MemoSize <= 0 {
		c.MemoSize = 500
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 256
	}
}

// TaskResult is the settled outcome of one task.
type TaskResult struct {
	Value msgpack.RawMessage
	Err   error
}

// Future settles once with the task's result. After Shutdown pending
// futures never settle; callers must not wait on them unboundedly.
type Future struct {
	ch chan TaskResult
}

func newFuture() *Future { return &Future{ch: make(chan TaskResult, 1)} }

// Done exposes the settlement channel.
func (f *Future) Done() <-chan TaskResult { return f.ch }

// Wait blocks until the future settles or ctx expires.
func (f *Future) Wait(ctx context.Context) (TaskResult, error) {
	select {
	case r := <-f.ch:
		return r, nil
	case <-ctx.Done():
		return TaskResult{}, ctx.Err()
	}
}

func (f *Future) resolve(r TaskResult) {
	select {
	case f.ch <- r:
	default:
	}
}

type task struct {
	env     Envelope
	fut     *Future
	retried bool
}

type slot struct {
	id      int
	w       Worker
	live    bool
	busy    bool
	pinged  bool
	pingID  string
	current *task
}

// Dispatcher owns a fixed pool of workers and a FIFO task queue. All
// pool bookkeeping lives on a single event loop goroutine; Submit and
// the workers only ever talk to it through the event channel.
type Dispatcher struct {
	cfg    Config
	state  atomic.Int32
	events chan event
	memo   *resultMemo
	idSeq  atomic.Uint64
	exec   func(Envelope) Response

	// Loop-owned. Never touched outside the run goroutine.
	slots    []*slot
	queue    []*task
	buffered []*task
	pending  map[string]*task
	pings    int

	stopped     atomic.Bool
	ready       chan struct{}
	readyClosed bool
	done        chan struct{}
}

// New constructs a dispatcher and starts its event loop. Workers are
// not created until Init.
func New(cfg Config) *Dispatcher {
	cfg.fill()
	d := &Dispatcher{
		cfg:     cfg,
		events:  make(chan event, cfg.EventBuffer),
		memo:    newResultMemo(cfg.MemoSize),
		exec:    Execute,
		pending: make(map[string]*task),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// State returns the current lifecycle state.
func (d *Dispatcher) State() State { return State(d.state.Load()) }

// Init creates the worker pool and blocks until the dispatcher is
// Ready or DegradedReady. Tasks submitted before Init are buffered and
// flushed, in submission order, the moment readiness is reached.
func (d *Dispatcher) Init() error {
	if d.stopped.Load() {
		return ErrStopped
	}
	d.events <- event{kind: eventInit}
	select {
	case <-d.ready:
	case <-d.done:
		return ErrStopped
	}
	return nil
}

// Shutdown terminates every worker and discards, without settling,
// any still-queued or in-flight task.
func (d *Dispatcher) Shutdown() {
	if !d.stopped.CompareAndSwap(false, true) {
		return
	}
	d.events <- event{kind: eventShutdown}
	<-d.done
}

// Submit enqueues one named computation and returns its future. In
// DegradedReady the computation runs inline and the future is settled
// before Submit returns.
func (d *Dispatcher) Submit(kind Kind, payload any) (*Future, error) {
	if d.stopped.Load() {
		return nil, ErrStopped
	}
	env, err := newEnvelope(d.nextID(), kind, payload)
	if err != nil {
		return nil, err
	}
	t := &task{env: env, fut: newFuture()}

	if d.State() == StateDegradedReady {
		d.runInline(t)
		return t.fut, nil
	}
	d.events <- event{kind: eventSubmit, task: t}
	return t.fut, nil
}

func (d *Dispatcher) nextID() string {
	return fmt.Sprintf("task_%06d", d.idSeq.Add(1))
}

// runInline is the synchronous fallback path. Same envelopes, same
// Execute, same memo as the worker path.
func (d *Dispatcher) runInline(t *task) {
	key := d.memo.key(t.env)
	if raw, ok := d.memo.get(key); ok {
		t.fut.resolve(TaskResult{Value: raw})
		return
	}
	resp := d.exec(t.env)
	d.memo.put(key, resp)
	t.fut.resolve(responseResult(resp))
}

func responseResult(resp Response) TaskResult {
	if resp.Error != "" {
		return TaskResult{Err: errors.New(resp.Error)}
	}
	return TaskResult{Value: resp.Result}
}

// run is the event loop. It is the only goroutine that mutates the
// queue, the slots, and the pending table.
func (d *Dispatcher) run() {
	for ev := range d.events {
		switch ev.kind {
		case eventSubmit:
			d.handleSubmit(ev.task)
		case eventInit:
			d.handleInit()
		case eventResponse:
			d.handleResponse(ev)
		case eventFailure:
			d.handleFailure(ev)
		case eventPingTimeout:
			d.handlePingTimeout()
		case eventShutdown:
			d.handleShutdown()
			return
		}
	}
}

func (d *Dispatcher) handleSubmit(t *task) {
	switch d.State() {
	case StateUninitialized, StateInitializing:
		d.buffered = append(d.buffered, t)
	case StateDegradedReady:
		// Submit raced the degrade transition; run it here so it
		// still settles.
		d.runInline(t)
	default:
		d.admit(t)
	}
}

func (d *Dispatcher) admit(t *task) {
	if raw, ok := d.memo.get(d.memo.key(t.env)); ok {
		t.fut.resolve(TaskResult{Value: raw})
		return
	}
	d.queue = append(d.queue, t)
	d.schedule()
}

// schedule assigns queued tasks to idle live workers, FIFO. A worker
// is busy from send until its response or failure retires the task.
func (d *Dispatcher) schedule() {
	for len(d.queue) > 0 {
		s := d.idleSlot()
		if s == nil {
			return
		}
		t := d.queue[0]
		d.queue = d.queue[1:]

		data, err := msgpack.Marshal(t.env)
		if err != nil {
			t.fut.resolve(TaskResult{Err: fmt.Errorf("dispatch: encode envelope: %w", err)})
			continue
		}
		s.busy = true
		s.current = t
		d.pending[t.env.ID] = t
		s.w.Send(data)
	}
}

func (d *Dispatcher) idleSlot() *slot {
	for _, s := range d.slots {
		if s.live && !s.busy {
			return s
		}
	}
	return nil
}

func (d *Dispatcher) handleInit() {
	if d.State() != StateUninitialized {
		log.Warnf("dispatcher init in state %s ignored", d.State())
		return
	}
	d.state.Store(int32(StateInitializing))

	d.slots = make([]*slot, d.cfg.Workers)
	for i := range d.slots {
		d.slots[i] = &slot{id: i}
		for _, f := range d.cfg.Factories {
			w, err := f.Spawn(i, d.events)
			if err != nil {
				log.Warnf("worker %d: %s factory failed: %v", i, f.Name(), err)
				continue
			}
			d.slots[i].w = w
			d.slots[i].live = true
			log.Debugf("worker %d spawned via %s", i, f.Name())
			break
		}
	}

	if d.liveSlots() == 0 {
		d.degrade()
		return
	}
	d.probeWorkers()
}

// probeWorkers pings every spawned worker before any buffered task is
// flushed to it.
func (d *Dispatcher) probeWorkers() {
	for _, s := range d.slots {
		if !s.live {
			continue
		}
		s.pingID = fmt.Sprintf("ping_%02d", s.id)
		env, err := newEnvelope(s.pingID, KindPing, struct{}{})
		if err != nil {
			s.live = false
			continue
		}
		data, err := msgpack.Marshal(env)
		if err != nil {
			s.live = false
			continue
		}
		s.busy = true
		s.current = nil
		d.pending[s.pingID] = &task{env: env, fut: newFuture()}
		d.pings++
		s.w.Send(data)
	}
	if d.pings == 0 {
		d.degrade()
		return
	}
	timeout := d.cfg.PingTimeout
	time.AfterFunc(timeout, func() {
		// Best effort; the loop ignores the event once ready.
		select {
		case d.events <- event{kind: eventPingTimeout}:
		case <-d.done:
		}
	})
}

func (d *Dispatcher) handlePingTimeout() {
	if d.State() != StateInitializing {
		return
	}
	for _, s := range d.slots {
		if s.live && !s.pinged {
			log.Warnf("worker %d missed startup probe, dropping slot", s.id)
			delete(d.pending, s.pingID)
			s.live = false
			s.busy = false
			s.w.Close()
		}
	}
	d.pings = 0
	if d.liveSlots() > 0 {
		d.becomeReady()
	} else {
		d.degrade()
	}
}

func (d *Dispatcher) becomeReady() {
	d.state.Store(int32(StateReady))
	log.Debugf("dispatcher ready with %d workers", d.liveSlots())
	d.flushBuffered()
	d.closeReady()
}

// degrade drops to inline execution permanently. Buffered and queued
// tasks still run, in order, so no request is ever dropped.
func (d *Dispatcher) degrade() {
	d.state.Store(int32(StateDegradedReady))
	log.Warn("no usable workers, executing tasks synchronously")
	for _, t := range append(d.buffered, d.queue...) {
		d.runInline(t)
	}
	d.buffered = nil
	d.queue = nil
	d.closeReady()
}

func (d *Dispatcher) closeReady() {
	if !d.readyClosed {
		d.readyClosed = true
		close(d.ready)
	}
}

func (d *Dispatcher) flushBuffered() {
	for _, t := range d.buffered {
		d.admit(t)
	}
	d.buffered = nil
}

func (d *Dispatcher) handleResponse(ev event) {
	var resp Response
	if err := msgpack.Unmarshal(ev.data, &resp); err != nil {
		log.Errorf("undecodable response from worker %d: %v", ev.workerID, err)
		return
	}
	t, ok := d.pending[resp.ID]
	if !ok {
		// Protocol violation: never fatal, never crashes the pool.
		log.Warnf("response for unknown correlation id %q ignored", resp.ID)
		return
	}
	delete(d.pending, resp.ID)

	s := d.slots[ev.workerID]
	if d.State() == StateInitializing && resp.ID == s.pingID {
		s.pinged = true
		s.busy = false
		d.pings--
		if d.pings == 0 {
			d.becomeReady()
		}
		return
	}

	s.busy = false
	s.current = nil
	d.memo.put(d.memo.key(t.env), resp)
	t.fut.resolve(responseResult(resp))
	d.schedule()
}

// handleFailure retires a worker runtime failure: the slot is freed
// (or dropped when the failure is fatal), the in-flight task is
// retried once, and the dispatcher degrades only when no slot is left.
func (d *Dispatcher) handleFailure(ev event) {
	s := d.slots[ev.workerID]
	log.Errorf("worker %d failed: %v", s.id, ev.err)

	t := s.current
	s.current = nil
	s.busy = false
	if t != nil {
		delete(d.pending, t.env.ID)
	}

	if d.State() == StateInitializing && !s.pinged {
		delete(d.pending, s.pingID)
		s.live = false
		s.w.Close()
		d.pings--
		if d.pings == 0 {
			if d.liveSlots() > 0 {
				d.becomeReady()
			} else {
				d.degrade()
			}
		}
		return
	}

	if ev.fatal {
		s.live = false
		s.w.Close()
	}

	if t != nil {
		if t.retried {
			t.fut.resolve(TaskResult{Err: ev.err})
		} else {
			t.retried = true
			d.queue = append([]*task{t}, d.queue...)
		}
	}

	if d.liveSlots() == 0 {
		d.degrade()
		return
	}
	d.schedule()
}

func (d *Dispatcher) handleShutdown() {
	for _, s := range d.slots {
		if s.live {
			s.w.Close()
			s.live = false
		}
	}
	// Queued and in-flight futures are deliberately left unsettled.
	d.queue = nil
	d.buffered = nil
	d.pending = map[string]*task{}
	close(d.done)
}

func (d *Dispatcher) liveSlots() int {
	n := 0
	for _, s := range d.slots {
		if s.live {
			n++
		}
	}
	return n
}

// CalculateScore submits a score task and decodes its result.
func (d *Dispatcher) CalculateScore(ctx context.Context, req ScoreRequest) (score.Result, error) {
	var out score.Result
	err := d.call(ctx, KindCalculateScore, req, &out)
	return out, err
}

// CalculateStats submits an aggregate-stats task and decodes its result.
func (d *Dispatcher) CalculateStats(ctx context.Context, req StatsRequest) (score.Stats, error) {
	var out score.Stats
	err := d.call(ctx, KindCalculateStats, req, &out)
	return out, err
}

// Ping submits a liveness probe through the regular task path.
func (d *Dispatcher) Ping(ctx context.Context) (PingResult, error) {
	var out PingResult
	err := d.call(ctx, KindPing, struct{}{}, &out)
	return out, err
}

func (d *Dispatcher) call(ctx context.Context, kind Kind, payload, out any) error {
	fut, err := d.Submit(kind, payload)
	if err != nil {
		return err
	}
	res, err := fut.Wait(ctx)
	if err != nil {
		return err
	}
	if res.Err != nil {
		return res.Err
	}
	if err := msgpack.Unmarshal(res.Value, out); err != nil {
		return fmt.Errorf("dispatch: decode %s result: %w", kind, err)
	}
	return nil
}
