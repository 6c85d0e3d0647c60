package score

import "testing"

func TestCalculate(t *testing.T) {
	cases := []struct {
		name      string
		correct   int
		miss      int
		elapsedMs int64
		kpm       int
		accuracy  float64
		rankLabel string
		score     int
	}{
		{"one minute run", 1500, 20, 60000, 1500, 98.68, "S", 150986},
		// The clamp-to-1 rescues floor rounding on long runs only;
		// without a measured duration there is no speed to report.
		{"no elapsed time", 100, 0, 0, 0, 100, "E", 1000},
		{"negative elapsed time", 100, 0, -5, 0, 100, "E", 1000},
		{"no keystrokes", 0, 0, 60000, 0, 100, "E", 1000},
		{"all misses", 0, 40, 30000, 0, 0, "E", 0},
		{"slow but nonzero clamps to 1", 1, 0, 3600000, 1, 100, "E", 1100},
		{"mid tier", 250, 50, 60000, 250, 83.33, "B+", 25833},
		{"exact threshold", 400, 0, 60000, 400, 100, "S", 41000},
		{"just below threshold", 399, 0, 60000, 399, 100, "A+", 40900},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Calculate(c.correct, c.miss, c.elapsedMs)
			if got.KPM != c.kpm {
				t.Errorf("KPM = %d, want %d", got.KPM, c.kpm)
			}
			if got.Accuracy != c.accuracy {
				t.Errorf("Accuracy = %v, want %v", got.Accuracy, c.accuracy)
			}
			if got.RankLabel != c.rankLabel {
				t.Errorf("RankLabel = %q, want %q", got.RankLabel, c.rankLabel)
			}
			if got.Score != c.score {
				t.Errorf("Score = %d, want %d", got.Score, c.score)
			}
		})
	}
}

func TestCalculateDeterministic(t *testing.T) {
	a := Calculate(123, 7, 45678)
	b := Calculate(123, 7, 45678)
	if a != b {
		t.Errorf("same inputs, different results: %+v vs %+v", a, b)
	}
}

func TestRankMonotonic(t *testing.T) {
	// Lower KPM must never yield a better (smaller) rank ordinal.
	prev := Calculate(0, 0, 60000).Rank
	for kpm := 1; kpm <= 500; kpm++ {
		r := Calculate(kpm, 0, 60000).Rank
		if r > prev {
			t.Fatalf("rank got worse as kpm rose: kpm=%d rank=%d prev=%d", kpm, r, prev)
		}
		prev = r
	}
}

func TestRankExhaustive(t *testing.T) {
	// Every non-negative KPM maps to exactly one tier.
	for kpm := 0; kpm <= 1000; kpm++ {
		res := Calculate(kpm, 0, 60000)
		if res.Rank < 0 || res.Rank >= len(rankTable) {
			t.Fatalf("kpm=%d rank=%d out of range", kpm, res.Rank)
		}
		if res.RankLabel == "" {
			t.Fatalf("kpm=%d missing label", kpm)
		}
	}
}

func TestAggregate(t *testing.T) {
	got := Aggregate([]float64{100, 200, 300}, 570, 30)
	if got.AverageKPM != 200 {
		t.Errorf("AverageKPM = %v, want 200", got.AverageKPM)
	}
	if got.TotalKeystrokes != 600 {
		t.Errorf("TotalKeystrokes = %d, want 600", got.TotalKeystrokes)
	}
	if got.Accuracy != 95 {
		t.Errorf("Accuracy = %v, want 95", got.Accuracy)
	}

	empty := Aggregate(nil, 0, 0)
	if empty.AverageKPM != 0 || empty.TotalKeystrokes != 0 || empty.Accuracy != 100 {
		t.Errorf("empty aggregate = %+v", empty)
	}
}
