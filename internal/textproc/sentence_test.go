package textproc

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			"plain boundaries",
			"The dragon flew over the mountain. The dragon roared loudly.",
			[]string{"The dragon flew over the mountain.", "The dragon roared loudly."},
		},
		{
			"abbreviation not split",
			"Mr. Holmes left early. Dr. Watson followed him.",
			[]string{"Mr. Holmes left early.", "Dr. Watson followed him."},
		},
		{
			"decimal not split",
			"The pressure fell to 3.14 bar. Nobody noticed.",
			[]string{"The pressure fell to 3.14 bar.", "Nobody noticed."},
		},
		{
			"lowercase continuation not split",
			"It rained. and rained. Then it stopped.",
			[]string{"It rained. and rained.", "Then it stopped."},
		},
		{
			"exclamation and question",
			"Run! Where to? Anywhere.",
			[]string{"Run!", "Where to?", "Anywhere."},
		},
		{
			"unterminated tail kept",
			"A full sentence. a trailing fragment",
			[]string{"A full sentence. a trailing fragment"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitSentences(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("SplitSentences(%q)\n got:  %q\n want: %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFilterLengthBounds(t *testing.T) {
	t.Parallel()
	cfg := DefaultFilterConfig()

	short := "Go on." // 6 chars, below the minimum of 10
	long := "The storm " + strings.Repeat("raged on and on ", 40) + "endlessly."
	if len([]rune(long)) <= cfg.MaxChars {
		t.Fatalf("test sentence not long enough: %d", len([]rune(long)))
	}
	good := "The dragon circled the tower twice before dawn." // well within 10..500

	sc := ScanSentences("", cfg)
	if sc.accept(short) {
		t.Error("short sentence should be rejected")
	}
	if sc.accept(long) {
		t.Error("overlong sentence should be rejected")
	}
	if !sc.accept(good) {
		t.Error("normal sentence should be accepted")
	}
}

func TestFilterAlphaRatio(t *testing.T) {
	t.Parallel()
	sc := ScanSentences("", DefaultFilterConfig())
	if sc.accept("12, 47, 363, 41, 99, 102, 7, 55, 310") {
		t.Error("numeric table row should be rejected")
	}
	if !sc.accept("Plain prose with ordinary words flows here.") {
		t.Error("prose should be accepted")
	}
}

func TestFilterUppercaseHeader(t *testing.T) {
	t.Parallel()
	sc := ScanSentences("", DefaultFilterConfig())
	if sc.accept("CHAPTER TWELVE THE FINAL BATTLE BEGINS") {
		t.Error("all-caps header should be rejected")
	}
}

func TestFilterRepeatedWords(t *testing.T) {
	t.Parallel()
	sc := ScanSentences("", DefaultFilterConfig())
	if sc.accept("the the the the the the the the end") {
		t.Error("heavily repeated words should be rejected")
	}
}

func TestScannerSkipsDuplicateOfPrevious(t *testing.T) {
	t.Parallel()
	text := "The fox ran across the field. The fox ran across the field. The owl watched silently."
	sc := ScanSentences(text, DefaultFilterConfig())

	var got []string
	for sc.Scan() {
		got = append(got, sc.Text())
	}
	want := []string{"The fox ran across the field.", "The owl watched silently."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("scanner output %q, want %q", got, want)
	}
	stats := sc.Stats()
	if stats.Accepted != 2 || stats.Rejected != 1 {
		t.Fatalf("stats = %+v, want 2 accepted / 1 rejected", stats)
	}
}

func TestScannerSinglePass(t *testing.T) {
	t.Parallel()
	sc := ScanSentences("One good sentence stands here alone.", DefaultFilterConfig())
	if !sc.Scan() {
		t.Fatal("expected one sentence")
	}
	if sc.Scan() {
		t.Fatal("scanner should be exhausted")
	}
	if sc.Scan() {
		t.Fatal("scanner must not restart")
	}
}
