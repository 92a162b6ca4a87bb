package textproc

import (
	"strings"
	"unicode"
)

// FilterConfig bounds the sentence quality filter.
type FilterConfig struct {
	// MinChars and MaxChars bound sentence length in runes.
	MinChars int
	MaxChars int
	// MinAlphaRatio is the minimum fraction of letters and spaces a sentence
	// must contain. Low ratios indicate OCR noise, tables or page numbers.
	MinAlphaRatio float64
}

// DefaultFilterConfig returns the standard quality thresholds.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{MinChars: 10, MaxChars: 500, MinAlphaRatio: 0.7}
}

// FilterStats counts filter decisions for training diagnostics.
type FilterStats struct {
	Accepted int
	Rejected int
}

// SplitSentences segments cleaned text into sentence candidates on terminal
// punctuation. A boundary requires the punctuation to be followed by an
// uppercase letter or the end of the text. Short capitalized abbreviations
// ("Mr.", "Dr.", "St.") and decimal points do not end a sentence; this is a
// best-effort heuristic, not a guarantee.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// Consume the whole punctuation run ("...", "?!").
		end := i
		for end+1 < len(runes) && isTerminalRune(runes[end+1]) {
			end++
		}
		if r == '.' && i == end && isAbbreviationDot(runes, start, i) {
			continue
		}
		next := end + 1
		for next < len(runes) && unicode.IsSpace(runes[next]) {
			next++
		}
		if next < len(runes) && !unicode.IsUpper(runes[next]) {
			i = end
			continue
		}
		if sent := strings.TrimSpace(string(runes[start : end+1])); sent != "" {
			out = append(out, sent)
		}
		start = next
		i = end
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		out = append(out, tail)
	}
	return out
}

func isTerminalRune(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// isAbbreviationDot reports whether the dot at position dot terminates a
// short capitalized word or sits between digits.
func isAbbreviationDot(runes []rune, start, dot int) bool {
	if dot > start && dot+1 < len(runes) &&
		unicode.IsDigit(runes[dot-1]) && unicode.IsDigit(runes[dot+1]) {
		return true
	}
	w := dot - 1
	for w >= start && unicode.IsLetter(runes[w]) {
		w--
	}
	word := runes[w+1 : dot]
	if len(word) == 0 || len(word) > 3 {
		return false
	}
	return unicode.IsUpper(word[0])
}

// SentenceScanner yields quality-filtered sentences from one cleaned
// document in a single forward pass, in the style of bufio.Scanner. It is
// finite and not restartable.
type SentenceScanner struct {
	candidates []string
	idx        int
	cfg        FilterConfig
	cur        string
	prev       string
	stats      FilterStats
}

// ScanSentences returns a scanner over the accepted sentences of text.
func ScanSentences(text string, cfg FilterConfig) *SentenceScanner {
	return &SentenceScanner{
		candidates: SplitSentences(text),
		cfg:        cfg,
	}
}

// Scan advances to the next accepted sentence. It returns false when the
// document is exhausted.
func (s *SentenceScanner) Scan() bool {
	for s.idx < len(s.candidates) {
		cand := s.candidates[s.idx]
		s.idx++
		if s.accept(cand) {
			s.stats.Accepted++
			s.cur = cand
			s.prev = cand
			return true
		}
		s.stats.Rejected++
	}
	return false
}

// Text returns the current accepted sentence.
func (s *SentenceScanner) Text() string { return s.cur }

// Stats returns the accept/reject counters observed so far.
func (s *SentenceScanner) Stats() FilterStats { return s.stats }

func (s *SentenceScanner) accept(cand string) bool {
	runes := []rune(cand)
	n := len(runes)
	if n < s.cfg.MinChars || n > s.cfg.MaxChars {
		return false
	}

	var letters, alphaLike, upper int
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r):
			letters++
			alphaLike++
			if unicode.IsUpper(r) {
				upper++
			}
		case r == ' ':
			alphaLike++
		}
	}
	if float64(alphaLike)/float64(n) < s.cfg.MinAlphaRatio {
		return false
	}
	// Long all-caps candidates are almost always headers.
	if n > 20 && letters > 0 && upper == letters {
		return false
	}
	// Heavily repeated words indicate corrupted or boilerplate text.
	words := strings.Fields(strings.ToLower(cand))
	if len(words) > 5 {
		uniq := make(map[string]struct{}, len(words))
		for _, w := range words {
			uniq[w] = struct{}{}
		}
		if float64(len(uniq)) < 0.6*float64(len(words)) {
			return false
		}
	}
	// Repetition guard against the immediately preceding accepted sentence.
	if s.prev != "" && strings.EqualFold(cand, s.prev) {
		return false
	}
	return true
}
