// Package pattern maps kana units to their acceptable romaji spellings.
//
// The table is pure data behind a patricia trie: segmentation walks the
// target text longest-unit-first so youon digraphs like きゃ win over the
// single kana き, and anything the table does not know (ASCII, punctuation,
// kanji) degrades to a literal one-character spelling. Context-dependent
// units (っ and ん) get their spellings resolved during segmentation, not
// lookup, because they depend on the unit that follows.
package pattern

import (
	"strings"
	"sync"
	"unicode"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/kanatype/kanatype/internal/kana"
)

// Entry maps one kana unit to its acceptable spellings.
// Spelling order is the declaration order and acts as the tie-break.
type Entry struct {
	Unit      string
	Spellings []string
}

// Custom is a caller-supplied per-phrase entry. When a phrase carries
// custom entries they replace the default table for that phrase entirely.
type Custom struct {
	Unit      string
	Spellings []string
}

// Unit is one confirmed-at-once slice of a segmented phrase.
type Unit struct {
	// Text is the original text of the unit, as typed in the phrase.
	Text string
	// Spellings are the acceptable key sequences, lowercase,
	// context-derived forms included, in tie-break order.
	Spellings []string
}

// Table is an immutable kana unit lookup.
type Table struct {
	trie       *patricia.Trie
	maxUnitLen int
}

var (
	defaultTable *Table
	defaultOnce  sync.Once
)

// Default returns the builtin table, built once.
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable = New(defaultEntries)
	})
	return defaultTable
}

// New builds a table from entries. Later entries with a duplicate unit
// overwrite earlier ones.
func New(entries []Entry) *Table {
	t := &Table{trie: patricia.NewTrie()}
	for _, e := range entries {
		if e.Unit == "" || len(e.Spellings) == 0 {
			continue
		}
		spellings := make([]string, len(e.Spellings))
		for i, s := range e.Spellings {
			spellings[i] = strings.ToLower(s)
		}
		t.trie.Set(patricia.Prefix(e.Unit), spellings)
		if n := len([]rune(e.Unit)); n > t.maxUnitLen {
			t.maxUnitLen = n
		}
	}
	if t.maxUnitLen == 0 {
		t.maxUnitLen = 1
	}
	return t
}

// FromCustom builds a per-phrase replacement table.
func FromCustom(custom []Custom) *Table {
	entries := make([]Entry, 0, len(custom))
	for _, c := range custom {
		entries = append(entries, Entry{Unit: c.Unit, Spellings: c.Spellings})
	}
	return New(entries)
}

// Lookup returns the spellings for one kana unit. The second return is
// false when the table has no entry; callers treat that as "the unit
// spells itself".
func (t *Table) Lookup(unit string) ([]string, bool) {
	item := t.trie.Get(patricia.Prefix(unit))
	if item == nil {
		return nil, false
	}
	return item.([]string), true
}

// Segment splits a phrase into typing units with fully resolved
// spellings. Katakana is normalized to hiragana for lookup only; the
// Text field keeps the original runes for display.
func (t *Table) Segment(text string) []Unit {
	runes := []rune(text)
	units := make([]Unit, 0, len(runes))

	for i := 0; i < len(runes); {
		matched := false
		// Longest unit first.
		max := t.maxUnitLen
		if rest := len(runes) - i; rest < max {
			max = rest
		}
		for n := max; n >= 1; n-- {
			key := kana.NormalizeText(string(runes[i : i+n]))
			if spellings, ok := t.Lookup(key); ok {
				units = append(units, Unit{
					Text:      string(runes[i : i+n]),
					Spellings: spellings,
				})
				i += n
				matched = true
				break
			}
		}
		if !matched {
			units = append(units, literalUnit(runes[i]))
			i++
		}
	}

	resolveContext(units)
	return units
}

// literalUnit is the NotFound policy: the unit has exactly one
// acceptable spelling, its own literal character, lowercased so
// matching stays case-insensitive.
func literalUnit(r rune) Unit {
	return Unit{
		Text:      string(r),
		Spellings: []string{strings.ToLower(string(r))},
	}
}

// resolveContext rewrites っ and ん spellings based on the following
// unit. The pass runs right to left so chained sokuon (っっ) see the
// already-resolved spellings of their successor.
func resolveContext(units []Unit) {
	for i := len(units) - 1; i >= 0; i-- {
		r := []rune(units[i].Text)
		if len(r) != 1 {
			continue
		}
		switch {
		case kana.IsSokuon(r[0]):
			if i+1 < len(units) {
				units[i].Spellings = sokuonSpellings(units[i+1].Spellings, units[i].Spellings)
			}
		case kana.IsMoraicN(r[0]):
			if i+1 < len(units) && allowBareN(units[i+1].Spellings) {
				units[i].Spellings = prepend("n", units[i].Spellings)
			}
		}
	}
}

// sokuonSpellings derives the doubled-consonant forms from the next
// unit and keeps the explicit xtu/ltu family as fallback.
func sokuonSpellings(next, base []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(next)+len(base))
	for _, s := range next {
		if s == "" {
			continue
		}
		c := s[0]
		if kana.IsVowelKey(c) || c == 'n' || !isASCIILetter(rune(c)) {
			continue
		}
		d := string(c)
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return append(out, base...)
}

// allowBareN reports whether ん may be typed as a single n, which holds
// only when every spelling of the next unit starts with a consonant
// other than n or y.
func allowBareN(next []string) bool {
	if len(next) == 0 {
		return false
	}
	for _, s := range next {
		if s == "" {
			return false
		}
		c := s[0]
		if kana.IsVowelKey(c) || c == 'n' || c == 'y' || !isASCIILetter(rune(c)) {
			return false
		}
	}
	return true
}

func prepend(s string, rest []string) []string {
	out := make([]string, 0, len(rest)+1)
	out = append(out, s)
	return append(out, rest...)
}

func isASCIILetter(r rune) bool {
	return r < unicode.MaxASCII && unicode.IsLetter(r)
}
