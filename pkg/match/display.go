package match

import "fmt"

// DisplayInfo is the derived read-only view a UI needs to render one
// session state: what is done, what is being typed, and what remains.
type DisplayInfo struct {
	// TypedPrefix is the confirmed portion of the target text.
	TypedPrefix string
	// CurrentExpected is the unconsumed tail of the preferred spelling
	// for the unit under the cursor.
	CurrentExpected string
	// CurrentPending is the keystrokes typed toward the current unit.
	CurrentPending string
	// RemainingSuffix is the target text after the current unit.
	RemainingSuffix string
	Completed       bool
}

// DisplayInfo derives the render view for a session. Results are
// memoized per (phrase, cursor, pending) state.
func (m *Matcher) DisplayInfo(s *Session) DisplayInfo {
	if s == nil {
		return DisplayInfo{}
	}
	if s.completed {
		return DisplayInfo{TypedPrefix: s.target, Completed: true}
	}

	key := displayKey(s)
	if m.display != nil {
		if v, ok := m.display.Get(key); ok {
			return v.(DisplayInfo)
		}
	}

	var suffix string
	for _, u := range s.units[s.cursor+1:] {
		suffix += u.Text
	}
	info := DisplayInfo{
		TypedPrefix:     s.confirmedText(),
		CurrentExpected: m.expectedRest(s),
		CurrentPending:  s.pending,
		RemainingSuffix: suffix,
	}
	if m.display != nil {
		m.display.Put(key, info)
	}
	return info
}

func displayKey(s *Session) string {
	return fmt.Sprintf("%016x|%d|%s", s.identity, s.cursor, s.pending)
}
