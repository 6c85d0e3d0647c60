// Package score turns raw typing counters into speed, accuracy, and
// rank figures. Everything here is a pure function of its inputs so
// results can be recomputed or memoized freely.
package score

import "math"

// Result is the derived score payload for one attempt.
type Result struct {
	// KPM is keys per minute, floored, clamped to 1 for any
	// nonzero-effort attempt.
	KPM int `msgpack:"kpm"`
	// Accuracy is a percentage in [0,100] rounded to two decimals.
	Accuracy float64 `msgpack:"acc"`
	// Rank is the ordinal tier index, 0 being the top tier.
	Rank int `msgpack:"rank"`
	// RankLabel is the display name of the tier.
	RankLabel string `msgpack:"label"`
	// Score folds speed and accuracy into one number.
	Score int `msgpack:"score"`
}

// Stats is the aggregate payload over several phrase attempts.
type Stats struct {
	AverageKPM      float64 `msgpack:"avg_kpm"`
	TotalKeystrokes int     `msgpack:"total"`
	Accuracy        float64 `msgpack:"acc"`
}

// rankTier pairs a minimum KPM with its label. The table is scanned
// top-down and the first threshold at or below the measured KPM wins,
// so every non-negative KPM maps to exactly one tier.
type rankTier struct {
	minKPM int
	label  string
}

var rankTable = []rankTier{
	{400, "S"},
	{350, "A+"},
	{300, "A"},
	{250, "B+"},
	{200, "B"},
	{150, "C+"},
	{100, "C"},
	{50, "D"},
	{0, "E"},
}

// Calculate derives the full score payload from raw counters.
func Calculate(correct, miss int, elapsedMs int64) Result {
	kpm := calcKPM(correct, elapsedMs)
	acc := calcAccuracy(correct, miss)
	rank, label := rankFor(kpm)
	return Result{
		KPM:       kpm,
		Accuracy:  acc,
		Rank:      rank,
		RankLabel: label,
		Score:     int(math.Floor(float64(kpm)*100 + acc*10)),
	}
}

// Aggregate summarizes several phrase attempts.
func Aggregate(perPhraseKPM []float64, correct, miss int) Stats {
	var avg float64
	if len(perPhraseKPM) > 0 {
		var sum float64
		for _, v := range perPhraseKPM {
			sum += v
		}
		avg = round2(sum / float64(len(perPhraseKPM)))
	}
	return Stats{
		AverageKPM:      avg,
		TotalKeystrokes: correct + miss,
		Accuracy:        calcAccuracy(correct, miss),
	}
}

func calcKPM(correct int, elapsedMs int64) int {
	if elapsedMs <= 0 {
		return 0
	}
	kpm := int(math.Floor(float64(correct) / (float64(elapsedMs) / 60000.0)))
	if correct > 0 && kpm <= 0 {
		// A nonzero-effort attempt never reports zero speed.
		return 1
	}
	return kpm
}

func calcAccuracy(correct, miss int) float64 {
	total := correct + miss
	if total == 0 {
		return 100
	}
	return round2(100 * float64(correct) / float64(total))
}

func rankFor(kpm int) (int, string) {
	for i, tier := range rankTable {
		if kpm >= tier.minKPM {
			return i, tier.label
		}
	}
	// Unreachable while the table ends at 0, kept so a bad table edit
	// fails loudly in tests rather than silently.
	return len(rankTable) - 1, rankTable[len(rankTable)-1].label
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
