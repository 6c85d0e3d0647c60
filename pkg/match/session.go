package match

import (
	"errors"
	"hash/fnv"

	"github.com/kanatype/kanatype/pkg/pattern"
)

var (
	// ErrEmptyTarget is returned when a session is created with no text.
	ErrEmptyTarget = errors.New("match: empty target text")
	// ErrSessionCompleted is returned when Match is called on a session
	// that already reached the end of its target. Callers must discard
	// the session; this is a bug surface, not a silent no-op.
	ErrSessionCompleted = errors.New("match: session already completed")
)

// Session tracks progress for one phrase attempt. It is mutated only by
// Matcher.Match and owned by a single caller at a time.
type Session struct {
	target    string
	units     []pattern.Unit
	cursor    int
	pending   string
	completed bool

	// identity folds the target and any custom patterns into the cache
	// key so two phrases with equal cursors never share memo entries.
	identity uint64
}

// NewSession segments the target once and returns a fresh session.
// When custom patterns are given they replace the default table for
// this phrase.
func NewSession(target string, custom []pattern.Custom) (*Session, error) {
	if target == "" {
		return nil, ErrEmptyTarget
	}
	tbl := pattern.Default()
	if len(custom) > 0 {
		tbl = pattern.FromCustom(custom)
	}
	s := &Session{
		target:   target,
		units:    tbl.Segment(target),
		identity: fingerprint(target, custom),
	}
	return s, nil
}

func fingerprint(target string, custom []pattern.Custom) uint64 {
	h := fnv.New64a()
	h.Write([]byte(target))
	for _, c := range custom {
		h.Write([]byte{0})
		h.Write([]byte(c.Unit))
		for _, sp := range c.Spellings {
			h.Write([]byte{1})
			h.Write([]byte(sp))
		}
	}
	return h.Sum64()
}

// Target returns the full target text.
func (s *Session) Target() string { return s.target }

// Cursor returns the number of confirmed units.
func (s *Session) Cursor() int { return s.cursor }

// Pending returns the keystrokes typed since the last confirmed unit.
func (s *Session) Pending() string { return s.pending }

// Completed reports whether the whole target has been confirmed.
func (s *Session) Completed() bool { return s.completed }

// Units returns the number of typing units in the target.
func (s *Session) Units() int { return len(s.units) }

// confirmedText returns the target text covered by confirmed units.
func (s *Session) confirmedText() string {
	var out string
	for _, u := range s.units[:s.cursor] {
		out += u.Text
	}
	return out
}
