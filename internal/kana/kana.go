// Package kana provides kana classification and normalization helpers.
package kana

// IsHiragana reports whether r falls in the hiragana block,
// including the prolonged sound mark used by loanword phrases.
func IsHiragana(r rune) bool {
	return (r >= 'ぁ' && r <= 'ゖ') || r == 'ー'
}

// IsKatakana reports whether r falls in the katakana block.
func IsKatakana(r rune) bool {
	return r >= 'ァ' && r <= 'ヶ'
}

// IsKana reports whether r is hiragana or katakana.
func IsKana(r rune) bool {
	return IsHiragana(r) || IsKatakana(r)
}

// ToHiragana maps a katakana rune to its hiragana counterpart.
// Non-katakana runes pass through unchanged.
func ToHiragana(r rune) rune {
	if IsKatakana(r) {
		return r - 'ァ' + 'ぁ'
	}
	return r
}

// NormalizeText converts every katakana rune in s to hiragana so
// that a single pattern table covers both scripts.
func NormalizeText(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, ToHiragana(r))
	}
	return string(out)
}

// smallKana are the runes that form a digraph with the preceding kana.
var smallKana = map[rune]struct{}{
	'ぁ': {}, 'ぃ': {}, 'ぅ': {}, 'ぇ': {}, 'ぉ': {},
	'ゃ': {}, 'ゅ': {}, 'ょ': {}, 'ゎ': {},
}

// IsSmall reports whether r is a small kana (digraph second member).
// The sokuon っ is not included; it forms a unit of its own.
func IsSmall(r rune) bool {
	_, ok := smallKana[ToHiragana(r)]
	return ok
}

// IsSokuon reports whether r is the small tsu.
func IsSokuon(r rune) bool {
	return ToHiragana(r) == 'っ'
}

// IsMoraicN reports whether r is ん.
func IsMoraicN(r rune) bool {
	return ToHiragana(r) == 'ん'
}

// IsVowelKey reports whether b is one of the five vowel keys.
func IsVowelKey(b byte) bool {
	switch b {
	case 'a', 'i', 'u', 'e', 'o':
		return true
	}
	return false
}
