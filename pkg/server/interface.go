/*
Package server implements msgpack IPC for the typing engine.

The server package provides a minimal interface for keystroke matching and
score calculation using msgpack serialization over stdin/stdout.

The protocol uses binary msgpack encoding and supports session management,
per-keystroke matching, display state retrieval, and score ops.
Messages are processed synchronously with timing info included in responses.

# IPC

The server operates on a request response model where clients send structured
messages via stdin and receive responses through stdout.
Each message contains an ID field, a cmd field, and other fields based on the
operation type.

Session start requests use mainly this structure:

	{"id": "req_001", "cmd": "start", "t": "にほんご"}

The server responds with the session handle and unit count:

	{"id": "req_001", "sid": "sess_0001", "u": 4}

Keystroke requests reference a live session:

	{"id": "req_002", "cmd": "key", "sid": "sess_0001", "k": "n"}
	{"id": "req_002", "a": true, "c": 0, "p": "n", "t": 120}

Score requests run through the dispatcher and return the full breakdown:

	{"id": "req_003", "cmd": "score", "cc": 320, "mc": 4, "ms": 60000}

Response structures include status information and error details when an op fail.

# Message Types

Request is the single inbound message shape; the cmd field selects the op.
Supported cmds: "start", "key", "display", "score", "stats", "health".

Custom pattern entries on a start request replace the builtin romaji table
for that session only.

msgpack encoding has ~30 to 50% smaller message sizes compared to JSON.
binary format enables faster parsing and generation, less errors and
reducing latency by ~40 to 70% in most cases.
*/
package server

// PatternEntry is one caller-supplied kana-to-romaji mapping.
type PatternEntry struct {
	Unit      string   `msgpack:"u"`
	Spellings []string `msgpack:"s"`
}

// Request - single inbound message, cmd selects the operation
type Request struct {
	ID           string         `msgpack:"id"`
	Cmd          string         `msgpack:"cmd"`
	Session      string         `msgpack:"sid,omitempty"`
	Target       string         `msgpack:"t,omitempty"`
	Patterns     []PatternEntry `msgpack:"pat,omitempty"`
	Key          string         `msgpack:"k,omitempty"`
	CorrectCount int            `msgpack:"cc,omitempty"`
	MissCount    int            `msgpack:"mc,omitempty"`
	ElapsedMs    int64          `msgpack:"ms,omitempty"`
	PerPhraseKPM []float64      `msgpack:"kpm,omitempty"`
}

// StartResponse - session creation response
type StartResponse struct {
	ID      string `msgpack:"id"`
	Session string `msgpack:"sid"`
	Units   int    `msgpack:"u"`
}

// KeyResponse - one keystroke outcome
type KeyResponse struct {
	ID        string `msgpack:"id"`
	Accepted  bool   `msgpack:"a"`
	Advanced  bool   `msgpack:"adv"`
	Cursor    int    `msgpack:"c"`
	Pending   string `msgpack:"p"`
	Completed bool   `msgpack:"done"`
	TimeTaken int64  `msgpack:"t"`
}

// DisplayResponse - render state for the current session position
type DisplayResponse struct {
	ID        string `msgpack:"id"`
	Typed     string `msgpack:"tp"`
	Expected  string `msgpack:"exp"`
	Pending   string `msgpack:"p"`
	Remaining string `msgpack:"rem"`
	Completed bool   `msgpack:"done"`
}

// ScoreResponse - score calculation response
type ScoreResponse struct {
	ID        string  `msgpack:"id"`
	KPM       int     `msgpack:"kpm"`
	Accuracy  float64 `msgpack:"acc"`
	Rank      string  `msgpack:"rank"`
	Score     int     `msgpack:"score"`
	TimeTaken int64   `msgpack:"t"`
}

// StatsResponse - aggregate stats response
type StatsResponse struct {
	ID              string  `msgpack:"id"`
	AverageKPM      float64 `msgpack:"avg_kpm"`
	TotalKeystrokes int     `msgpack:"total"`
	Accuracy        float64 `msgpack:"acc"`
}

// HealthResponse - liveness and dispatcher state
type HealthResponse struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
	Mode   string `msgpack:"mode"`
}

// RequestError holds basic error information for failed requests
type RequestError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
