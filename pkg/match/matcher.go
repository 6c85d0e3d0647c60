// Package match implements the keystroke-by-keystroke input matcher.
//
// A Matcher consumes one keystroke at a time against a Session and
// decides whether it extends a valid romaji spelling of the remaining
// target text. Ambiguity between spellings of the same unit (si vs shi,
// n vs nn) is resolved without lookahead past the immediately following
// unit: a pending prefix that exactly equals a spelling but could still
// grow into a longer one is held open, and a keystroke that cannot
// extend the current unit but follows such a satisfied prefix confirms
// the unit and carries over into the next one.
//
// Matching is pure; the optional cache in front of it is a memo, never
// a semantics source, and removing it must not change any verdict.
package match

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kanatype/kanatype/pkg/pattern"
)

// Result is the verdict for one keystroke.
type Result struct {
	Accepted       bool
	CursorAdvanced bool
	Completed      bool
}

// delta is the cacheable pure outcome of one keystroke: how many units
// it confirmed and what the pending input becomes.
type delta struct {
	accepted bool
	advance  int
	pending  string
}

// Matcher validates forward progress on sessions. The zero value works
// without caching; NewMatcher wires the bounded memo in front.
type Matcher struct {
	cache   *Cache
	display *Cache
}

// NewMatcher returns a matcher with default-sized memo caches.
func NewMatcher() *Matcher {
	return &Matcher{
		cache:   NewCache(DefaultMatchCacheSize),
		display: NewCache(DefaultDisplayCacheSize),
	}
}

// NewMatcherWithCaches lets callers size or disable the memos.
// A nil cache disables memoization for that concern.
func NewMatcherWithCaches(match, display *Cache) *Matcher {
	return &Matcher{cache: match, display: display}
}

// Match consumes one keystroke. Rejected keystrokes leave the session
// untouched, so retrying the same wrong key yields the same verdict.
func (m *Matcher) Match(s *Session, keystroke rune) (Result, error) {
	if s == nil {
		return Result{}, ErrEmptyTarget
	}
	if s.completed {
		return Result{}, ErrSessionCompleted
	}

	key := unicode.ToLower(keystroke)
	d, ok := m.cachedDelta(s, key)
	if !ok {
		d = step(s.units, s.cursor, s.pending, key)
		m.putDelta(s, key, d)
	}

	res := Result{Accepted: d.accepted}
	if d.accepted {
		s.cursor += d.advance
		s.pending = d.pending
		res.CursorAdvanced = d.advance > 0
		if s.cursor == len(s.units) {
			s.completed = true
			res.Completed = true
		}
	}
	return res, nil
}

// step evaluates one keystroke against the unit at cursor. It is a pure
// function of its arguments, which is what makes the memo sound.
func step(units []pattern.Unit, cursor int, pending string, key rune) delta {
	c := pending + string(key)
	spellings := units[cursor].Spellings

	exact := false
	prefix := false
	for _, sp := range spellings {
		switch {
		case sp == c:
			exact = true
		case strings.HasPrefix(sp, c):
			prefix = true
		}
	}

	// Exact match with no longer spelling still open: confirm the unit.
	if exact && !prefix {
		return delta{accepted: true, advance: 1}
	}
	// Still extending at least one spelling. An exact match that is
	// also a prefix of a longer spelling (n vs nn) is held open here;
	// the carryover below settles it on the next keystroke.
	if prefix {
		return delta{accepted: true, pending: c}
	}

	// No spelling starts with c. If the pending input already spelled
	// the unit exactly, the keystroke closes it and carries over into
	// the next unit.
	if pending != "" && cursor+1 < len(units) && isExact(spellings, pending) {
		next := step(units, cursor+1, "", key)
		if next.accepted {
			return delta{accepted: true, advance: 1 + next.advance, pending: next.pending}
		}
	}

	// Rejected: pending stays as the last-known-good prefix.
	return delta{pending: pending}
}

func isExact(spellings []string, c string) bool {
	for _, sp := range spellings {
		if sp == c {
			return true
		}
	}
	return false
}

// NextExpectedKey returns the next keystroke of the preferred spelling
// for the current unit, for UI highlighting. It returns 0 on completed
// sessions.
func (m *Matcher) NextExpectedKey(s *Session) rune {
	if s == nil || s.completed {
		return 0
	}
	rest := m.expectedRest(s)
	if rest == "" {
		return 0
	}
	// literal units spell themselves, so the rest may be multi-byte
	r, _ := utf8.DecodeRuneInString(rest)
	return r
}

// expectedRest returns the unconsumed tail of the preferred spelling:
// the first declared spelling that still extends the pending input.
func (m *Matcher) expectedRest(s *Session) string {
	for _, sp := range s.units[s.cursor].Spellings {
		if len(sp) > len(s.pending) && strings.HasPrefix(sp, s.pending) {
			return sp[len(s.pending):]
		}
	}
	return ""
}

func (m *Matcher) cachedDelta(s *Session, key rune) (delta, bool) {
	if m.cache == nil {
		return delta{}, false
	}
	v, ok := m.cache.Get(matchKey(s, key))
	if !ok {
		return delta{}, false
	}
	return v.(delta), true
}

func (m *Matcher) putDelta(s *Session, key rune, d delta) {
	if m.cache == nil {
		return
	}
	m.cache.Put(matchKey(s, key), d)
}

// matchKey folds every input of step into the memo key. Leaving any of
// these out would hand back verdicts for a different logical state.
func matchKey(s *Session, key rune) string {
	return fmt.Sprintf("%016x|%d|%s|%c", s.identity, s.cursor, s.pending, key)
}
