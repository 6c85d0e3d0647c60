package dispatch

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/kanatype/kanatype/pkg/match"
	"github.com/kanatype/kanatype/pkg/score"
)

// ErrUnknownTaskKind is reported back on the originating correlation id
// when an envelope carries a kind outside the closed set. With typed
// submission helpers it can only arise from cross-version protocol
// drift on the IPC surface.
var ErrUnknownTaskKind = errors.New("dispatch: unknown task kind")

// Execute runs one task envelope and produces its response. This is the
// single computation path: worker goroutines and the synchronous
// fallback both call it on identical envelopes, which is what makes
// degraded mode a scheduling change rather than a semantics change.
func Execute(env Envelope) Response {
	switch env.Kind {
	case KindCalculateScore:
		var req ScoreRequest
		if err := msgpack.Unmarshal(env.Payload, &req); err != nil {
			return errorResponse(env.ID, fmt.Errorf("dispatch: decode score payload: %w", err))
		}
		return resultResponse(env.ID, score.Calculate(req.CorrectCount, req.MissCount, req.ElapsedMs))

	case KindCalculateStats:
		var req StatsRequest
		if err := msgpack.Unmarshal(env.Payload, &req); err != nil {
			return errorResponse(env.ID, fmt.Errorf("dispatch: decode stats payload: %w", err))
		}
		return resultResponse(env.ID, score.Aggregate(req.PerPhraseKPM, req.CorrectCount, req.MissCount))

	case KindPing:
		return resultResponse(env.ID, PingResult{Alive: true, Timestamp: time.Now().UnixMilli()})

	default:
		return errorResponse(env.ID, fmt.Errorf("%w: %s", ErrUnknownTaskKind, env.Kind))
	}
}

// resultMemo is a bounded memo for score results keyed by the full
// counter tuple. Results are pure, so entries never go stale. The
// mutex is needed because degraded-mode submissions run on caller
// goroutines while buffered flushes run on the event loop.
type resultMemo struct {
	mu    sync.Mutex
	cache *match.Cache
}

func newResultMemo(size int) *resultMemo {
	return &resultMemo{cache: match.NewCache(size)}
}

// key returns the memo key for an envelope, or "" when the kind is not
// memoized. Every counter is part of the key; a missing component
// would alias results across different logical inputs.
func (m *resultMemo) key(env Envelope) string {
	if env.Kind != KindCalculateScore {
		return ""
	}
	var req ScoreRequest
	if err := msgpack.Unmarshal(env.Payload, &req); err != nil {
		return ""
	}
	return fmt.Sprintf("%d|%d|%d", req.CorrectCount, req.MissCount, req.ElapsedMs)
}

func (m *resultMemo) get(key string) (msgpack.RawMessage, bool) {
	if key == "" {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false
	}
	return v.(msgpack.RawMessage), true
}

func (m *resultMemo) put(key string, resp Response) {
	if key == "" || resp.Error != "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Put(key, resp.Result)
}
