package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/kanatype/kanatype/internal/logger"
	"github.com/kanatype/kanatype/pkg/config"
	"github.com/kanatype/kanatype/pkg/dispatch"
	"github.com/kanatype/kanatype/pkg/match"
	"github.com/kanatype/kanatype/pkg/pattern"
)

const callTimeout = 5 * time.Second

// Server handles the IPC for typing sessions and score calculation
type Server struct {
	disp     *dispatch.Dispatcher
	matcher  *match.Matcher
	dec      *msgpack.Decoder
	enc      *msgpack.Encoder
	sessions map[string]*match.Session
	seq      int
	log      *log.Logger
}

// NewServer creates a new engine server using stdin/stdout for IPC
func NewServer(disp *dispatch.Dispatcher, cfg *config.Config) *Server {
	return &Server{
		disp: disp,
		matcher: match.NewMatcherWithCaches(
			match.NewCache(cfg.Engine.MatchCacheSize),
			match.NewCache(cfg.Engine.DisplayCacheSize),
		),
		dec:      msgpack.NewDecoder(os.Stdin),
		enc:      msgpack.NewEncoder(os.Stdout),
		sessions: make(map[string]*match.Session),
		log:      logger.New("ipc"),
	}
}

// NewServerWithIO builds a server on explicit streams, for tests.
func NewServerWithIO(disp *dispatch.Dispatcher, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	s := NewServer(disp, cfg)
	s.dec = msgpack.NewDecoder(r)
	s.enc = msgpack.NewEncoder(w)
	return s
}

// Start begins listening for IPC requests
func (s *Server) Start() error {
	s.log.Debug("Starting Server.")

	// Signal that the server is ready
	s.sendResponse(map[string]string{"status": "ready"})

	// incoming requests stdin
	for {
		var request Request
		if err := s.dec.Decode(&request); err != nil {
			if err == io.EOF {
				return nil
			}
			s.log.Errorf("Decoding from stdin: %v", err)
			return err
		}
		s.handleRequest(request)
	}
}

// handleRequest processes one decoded request
func (s *Server) handleRequest(request Request) {
	switch request.Cmd {
	case "start":
		s.handleStart(request)
	case "key":
		s.handleKey(request)
	case "display":
		s.handleDisplay(request)
	case "score":
		s.handleScore(request)
	case "stats":
		s.handleStats(request)
	case "health":
		s.sendResponse(HealthResponse{
			ID:     request.ID,
			Status: "ok",
			Mode:   s.disp.State().String(),
		})
	default:
		s.sendError(request.ID, fmt.Sprintf("Unknown cmd: %s", request.Cmd), 400)
	}
}

// sendResponse encodes the given response as msgpack onto the writer.
func (s *Server) sendResponse(response interface{}) {
	if err := s.enc.Encode(response); err != nil {
		s.log.Errorf("Encoding response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(RequestError{
		ID:    id,
		Error: message,
		Code:  code,
	})
}

// handleStart opens a typing session for a target phrase. Custom
// pattern entries, when present, replace the builtin table for this
// session only.
func (s *Server) handleStart(request Request) {
	if request.Target == "" {
		s.sendError(request.ID, "Missing 't' parameter", 400)
		s.log.Debug("Target is empty in request")
		return
	}

	var custom []pattern.Custom
	for _, p := range request.Patterns {
		custom = append(custom, pattern.Custom{Unit: p.Unit, Spellings: p.Spellings})
	}

	sess, err := match.NewSession(request.Target, custom)
	if err != nil {
		s.sendError(request.ID, err.Error(), 400)
		return
	}

	s.seq++
	sid := fmt.Sprintf("sess_%04d", s.seq)
	s.sessions[sid] = sess

	s.sendResponse(StartResponse{
		ID:      request.ID,
		Session: sid,
		Units:   sess.Units(),
	})
}

// handleKey applies one keystroke to a session. It validates the
// request, runs the matcher, and reports acceptance, cursor movement,
// and completion.
func (s *Server) handleKey(request Request) {
	sess, ok := s.sessions[request.Session]
	if !ok {
		s.sendError(request.ID, fmt.Sprintf("Unknown session: %s", request.Session), 404)
		return
	}
	if utf8.RuneCountInString(request.Key) != 1 {
		s.sendError(request.ID, "Parameter 'k' must be a single character", 400)
		s.log.Debug("Key is not a single rune in request")
		return
	}
	key, _ := utf8.DecodeRuneInString(request.Key)

	start := time.Now()
	result, err := s.matcher.Match(sess, key)
	elapsed := time.Since(start)

	if err != nil {
		s.sendError(request.ID, err.Error(), 409)
		return
	}

	s.sendResponse(KeyResponse{
		ID:        request.ID,
		Accepted:  result.Accepted,
		Advanced:  result.CursorAdvanced,
		Cursor:    sess.Cursor(),
		Pending:   sess.Pending(),
		Completed: result.Completed,
		TimeTaken: elapsed.Microseconds(),
	})

	if result.Completed {
		delete(s.sessions, request.Session)
	}
}

// handleDisplay reports render state for a session without mutating it.
func (s *Server) handleDisplay(request Request) {
	sess, ok := s.sessions[request.Session]
	if !ok {
		s.sendError(request.ID, fmt.Sprintf("Unknown session: %s", request.Session), 404)
		return
	}

	info := s.matcher.DisplayInfo(sess)
	s.sendResponse(DisplayResponse{
		ID:        request.ID,
		Typed:     info.TypedPrefix,
		Expected:  info.CurrentExpected,
		Pending:   info.CurrentPending,
		Remaining: info.RemainingSuffix,
		Completed: info.Completed,
	})
}

// handleScore runs a score calculation through the dispatcher.
func (s *Server) handleScore(request Request) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.disp.CalculateScore(ctx, dispatch.ScoreRequest{
		CorrectCount: request.CorrectCount,
		MissCount:    request.MissCount,
		ElapsedMs:    request.ElapsedMs,
	})
	elapsed := time.Since(start)

	if err != nil {
		s.sendError(request.ID, err.Error(), 500)
		s.log.Errorf("Score calculation: %v", err)
		return
	}

	s.sendResponse(ScoreResponse{
		ID:        request.ID,
		KPM:       result.KPM,
		Accuracy:  result.Accuracy,
		Rank:      result.RankLabel,
		Score:     result.Score,
		TimeTaken: elapsed.Microseconds(),
	})
}

// handleStats runs an aggregate stats calculation through the dispatcher.
func (s *Server) handleStats(request Request) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	stats, err := s.disp.CalculateStats(ctx, dispatch.StatsRequest{
		PerPhraseKPM: request.PerPhraseKPM,
		CorrectCount: request.CorrectCount,
		MissCount:    request.MissCount,
	})
	if err != nil {
		s.sendError(request.ID, err.Error(), 500)
		s.log.Errorf("Stats calculation: %v", err)
		return
	}

	s.sendResponse(StatsResponse{
		ID:              request.ID,
		AverageKPM:      stats.AverageKPM,
		TotalKeystrokes: stats.TotalKeystrokes,
		Accuracy:        stats.Accuracy,
	})
}
