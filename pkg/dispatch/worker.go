package dispatch

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Factory spawns one worker execution context. Factories are tried in
// declaration order for every pool slot; the first that succeeds wins
// the slot. Keeping the strategies as data means a new execution
// context (an external process, say) is an additive change.
type Factory interface {
	// Spawn starts a worker that reads encoded task envelopes and
	// reports encoded responses and failures through events.
	Spawn(id int, events chan<- event) (Worker, error)
	// Name identifies the strategy in logs.
	Name() string
}

// Worker is a live execution context owned by the dispatcher.
type Worker interface {
	// Send hands one encoded envelope to the worker. The dispatcher
	// only sends to idle workers, so Send never blocks.
	Send(data []byte)
	// Close terminates the worker. Pending output is discarded.
	Close()
}

// event is the only way workers and submitters talk to the dispatcher
// loop. All queue and busy-flag mutations happen in the loop, one
// event at a time, which keeps the one-task-per-idle-worker invariant
// race-free without a lock.
type event struct {
	kind     eventKind
	task     *task
	workerID int
	data     []byte // encoded Response for eventResponse
	err      error
	fatal    bool
}

type eventKind int

const (
	eventSubmit eventKind = iota
	eventResponse
	eventFailure
	eventInit
	eventPingTimeout
	eventShutdown
)

// GoroutineFactory runs workers as goroutines inside the process. The
// Execute hook defaults to the package Execute function; tests inject
// failing variants through it.
type GoroutineFactory struct {
	Execute func(Envelope) Response
}

// Name implements Factory.
func (f GoroutineFactory) Name() string { return "goroutine" }

// Spawn implements Factory.
func (f GoroutineFactory) Spawn(id int, events chan<- event) (Worker, error) {
	exec := f.Execute
	if exec == nil {
		exec = Execute
	}
	w := &goroutineWorker{
		id: id,
		// One slot of buffer: the dispatcher never sends to a busy
		// worker, so a single pending envelope is the maximum.
		inbox:  make(chan []byte, 1),
		events: events,
		exec:   exec,
	}
	go w.run()
	return w, nil
}

type goroutineWorker struct {
	id     int
	inbox  chan []byte
	events chan<- event
	exec   func(Envelope) Response
}

func (w *goroutineWorker) Send(data []byte) { w.inbox <- data }

func (w *goroutineWorker) Close() { close(w.inbox) }

// run decodes envelopes, executes them, and reports encoded responses.
// A panic in the computation is a worker runtime failure, reported as
// such rather than crashing the process; the loop then retires or
// retries whatever task was in flight.
func (w *goroutineWorker) run() {
	for data := range w.inbox {
		w.process(data)
	}
}

func (w *goroutineWorker) process(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("worker %d panicked: %v", w.id, r)
			w.events <- event{kind: eventFailure, workerID: w.id, err: fmt.Errorf("worker panic: %v", r), fatal: true}
		}
	}()

	var env Envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		w.events <- event{kind: eventFailure, workerID: w.id, err: fmt.Errorf("worker %d: decode envelope: %w", w.id, err)}
		return
	}
	resp := w.exec(env)
	out, err := msgpack.Marshal(resp)
	if err != nil {
		w.events <- event{kind: eventFailure, workerID: w.id, err: fmt.Errorf("worker %d: encode response: %w", w.id, err)}
		return
	}
	w.events <- event{kind: eventResponse, workerID: w.id, data: out}
}
