package pattern

import (
	"reflect"
	"testing"
)

func TestLookup(t *testing.T) {
	tbl := Default()

	spellings, ok := tbl.Lookup("し")
	if !ok {
		t.Fatal("expected entry for し")
	}
	if !reflect.DeepEqual(spellings, []string{"si", "shi", "ci"}) {
		t.Errorf("し spellings = %v", spellings)
	}

	if _, ok := tbl.Lookup("漢"); ok {
		t.Error("expected no entry for 漢")
	}
}

func TestSegmentDigraphs(t *testing.T) {
	cases := []struct {
		text  string
		units []string
	}{
		{"きゃく", []string{"きゃ", "く"}},
		{"しゅじゅつ", []string{"しゅ", "じゅ", "つ"}},
		{"きやく", []string{"き", "や", "く"}},
		{"ちょうし", []string{"ちょ", "う", "し"}},
		{"シャツ", []string{"シャ", "ツ"}},
	}
	for _, c := range cases {
		units := Default().Segment(c.text)
		got := make([]string, len(units))
		for i, u := range units {
			got[i] = u.Text
		}
		if !reflect.DeepEqual(got, c.units) {
			t.Errorf("Segment(%q) units = %v, want %v", c.text, got, c.units)
		}
	}
}

func TestSegmentSokuon(t *testing.T) {
	units := Default().Segment("きって")
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}
	got := units[1].Spellings
	want := []string{"t", "xtu", "ltu", "xtsu", "ltsu"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("っ spellings = %v, want %v", got, want)
	}

	// ち accepts both ti and chi, so っち doubles both t and c.
	units = Default().Segment("まっちゃ")
	got = units[1].Spellings
	want = []string{"t", "c", "xtu", "ltu", "xtsu", "ltsu"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("っ before ちゃ spellings = %v, want %v", got, want)
	}

	// Trailing っ keeps only the explicit forms.
	units = Default().Segment("あっ")
	got = units[1].Spellings
	want = []string{"xtu", "ltu", "xtsu", "ltsu"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("trailing っ spellings = %v, want %v", got, want)
	}
}

func TestSegmentMoraicN(t *testing.T) {
	// Before a plain consonant the bare n form comes first.
	units := Default().Segment("さんか")
	if got, want := units[1].Spellings, []string{"n", "nn", "xn"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ん before か spellings = %v, want %v", got, want)
	}

	// Before a vowel the bare form is not acceptable.
	units = Default().Segment("きんえん")
	if got, want := units[1].Spellings, []string{"nn", "xn"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ん before え spellings = %v, want %v", got, want)
	}

	// Before や rows and な rows the bare form is not acceptable either.
	units = Default().Segment("ほんや")
	if got, want := units[1].Spellings, []string{"nn", "xn"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ん before や spellings = %v, want %v", got, want)
	}

	// Phrase-final ん must be typed in full.
	units = Default().Segment("ほん")
	if got, want := units[1].Spellings, []string{"nn", "xn"}; !reflect.DeepEqual(got, want) {
		t.Errorf("final ん spellings = %v, want %v", got, want)
	}
}

func TestSegmentLiteralFallback(t *testing.T) {
	units := Default().Segment("ABC")
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}
	for i, want := range []string{"a", "b", "c"} {
		if !reflect.DeepEqual(units[i].Spellings, []string{want}) {
			t.Errorf("unit %d spellings = %v, want [%s]", i, units[i].Spellings, want)
		}
	}
	if units[0].Text != "A" {
		t.Errorf("literal unit keeps original text, got %q", units[0].Text)
	}
}

func TestFromCustomReplacesDefaults(t *testing.T) {
	tbl := FromCustom([]Custom{
		{Unit: "し", Spellings: []string{"shi"}},
	})
	spellings, ok := tbl.Lookup("し")
	if !ok || !reflect.DeepEqual(spellings, []string{"shi"}) {
		t.Errorf("custom し spellings = %v, ok=%v", spellings, ok)
	}
	// Units absent from the custom table fall back to literals, not to
	// the default table.
	units := tbl.Segment("か")
	if !reflect.DeepEqual(units[0].Spellings, []string{"か"}) {
		t.Errorf("custom table must not merge defaults, got %v", units[0].Spellings)
	}
}
