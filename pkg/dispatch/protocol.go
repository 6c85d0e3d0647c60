/*
Package dispatch runs named score computations on a pool of worker
goroutines, with a transparent synchronous fallback when no worker can
be created.

Tasks travel between the dispatcher and its workers as msgpack-encoded
envelopes, the same codec the IPC surface speaks, so an in-process
worker and any future out-of-process one share one wire discipline:

	{"id": "task_000001", "kind": "calculateScore", "payload": ...}

and back:

	{"id": "task_000001", "result": ...}
	{"id": "task_000001", "error": "unknown task kind: ..."}

Every outstanding task is tracked by its correlation id and retired
exactly once, whether by success, error, or worker failure. A response
bearing an unknown or already-retired id is logged and dropped; it never
crashes the dispatcher.

The dispatcher is an explicit instance with an explicit lifecycle:

	d := dispatch.New(dispatch.Config{})
	d.Init()
	defer d.Shutdown()
	fut, _ := d.Submit(dispatch.KindCalculateScore, dispatch.ScoreRequest{...})

When every worker factory fails, the dispatcher degrades to running
submissions inline on the caller's goroutine. Degraded mode changes
scheduling only, never results: both paths run the same Execute
function on the same envelopes.
*/
package dispatch

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Kind names one recognized computation. The set is closed; anything
// else in a decoded envelope is answered with an error response.
type Kind string

const (
	KindCalculateScore Kind = "calculateScore"
	KindCalculateStats Kind = "calculateStats"
	// KindPing is the liveness probe used at startup before buffered
	// tasks are flushed. It is not part of the application contract.
	KindPing Kind = "ping"
)

// Envelope is one task request on the wire.
type Envelope struct {
	ID      string             `msgpack:"id"`
	Kind    Kind               `msgpack:"kind"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// Response is one task response on the wire. Exactly one of Result and
// Error is meaningful.
type Response struct {
	ID     string             `msgpack:"id"`
	Result msgpack.RawMessage `msgpack:"result,omitempty"`
	Error  string             `msgpack:"error,omitempty"`
}

// ScoreRequest carries the raw counters for KindCalculateScore.
type ScoreRequest struct {
	CorrectCount int   `msgpack:"cc"`
	MissCount    int   `msgpack:"mc"`
	ElapsedMs    int64 `msgpack:"ms"`
}

// StatsRequest carries the aggregate inputs for KindCalculateStats.
type StatsRequest struct {
	PerPhraseKPM []float64 `msgpack:"kpm"`
	CorrectCount int       `msgpack:"cc"`
	MissCount    int       `msgpack:"mc"`
}

// PingResult answers KindPing.
type PingResult struct {
	Alive     bool  `msgpack:"alive"`
	Timestamp int64 `msgpack:"ts"`
}

// newEnvelope marshals a payload into a task envelope.
func newEnvelope(id string, kind Kind, payload any) (Envelope, error) {
	raw, err := msgpack.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("dispatch: encode %s payload: %w", kind, err)
	}
	return Envelope{ID: id, Kind: kind, Payload: raw}, nil
}

func errorResponse(id string, err error) Response {
	return Response{ID: id, Error: err.Error()}
}

func resultResponse(id string, v any) Response {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return errorResponse(id, fmt.Errorf("dispatch: encode result: %w", err))
	}
	return Response{ID: id, Result: raw}
}
