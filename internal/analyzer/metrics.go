package analyzer

import (
	"strings"
)

// Mode selects the unit the speaking rate is computed over. The two modes
// are mutually exclusive for a running process.
type Mode string

const (
	ModeWords     Mode = "words"     // whitespace-delimited words per minute
	ModeSyllables Mode = "syllables" // Hangul syllables per minute
)

// ParseMode maps a config string to a Mode, defaulting to words.
func ParseMode(s string) Mode {
	if Mode(s) == ModeSyllables {
		return ModeSyllables
	}
	return ModeWords
}

// Bucket is the qualitative classification of a speaking rate.
type Bucket string

const (
	BucketSlow  Bucket = "slow"
	BucketIdeal Bucket = "ideal"
	BucketFast  Bucket = "fast"
)

// Fixed coaching feedback per rate bucket.
const (
	feedbackSlow  = "조금 더 빠르게 말씀해보시는 건 어떨까요?"
	feedbackIdeal = "적절한 속도로 말하고 계십니다."
	feedbackFast  = "조금 더 천천히, 또박또박 말씀해보세요."
)

// Thresholds are the configured rate bounds used for classification.
type Thresholds struct {
	Slow  float64
	Ideal float64
	Fast  float64
}

// DefaultThresholds returns thresholds for conversational Korean speech.
func DefaultThresholds() Thresholds {
	return Thresholds{Slow: 150, Ideal: 190, Fast: 250}
}

// Elapsed-time clamp bounds for client-supplied timestamp spans.
const (
	MinElapsedSeconds = 1.0
	MaxElapsedSeconds = 600.0
)

// punctuation stripped from token edges before filler matching.
const tokenCutset = ".,!?;:"

// Tokenize splits text on whitespace. It is deterministic and
// locale-insensitive; Hangul tokens pass through unchanged.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// NormalizeToken lowercases a token and strips edge punctuation, the form
// used for vocabulary membership tests.
func NormalizeToken(token string) string {
	return strings.Trim(strings.ToLower(token), tokenCutset)
}

// Tally tracks occurrence counts for every vocabulary entry, including
// zeroes. Only non-zero entries are exported for reporting.
type Tally struct {
	counts map[string]int
}

// NewTally creates a tally with every vocabulary entry at zero.
func NewTally(vocab *Vocabulary) Tally {
	counts := make(map[string]int, vocab.Len())
	for _, w := range vocab.Words() {
		counts[w] = 0
	}
	return Tally{counts: counts}
}

// Count classifies tokens against the vocabulary and increments matches.
// Matching is case-insensitive and ignores edge punctuation; unmatched
// tokens are ignored.
func (t Tally) Count(tokens []string, vocab *Vocabulary) {
	for _, token := range tokens {
		cleaned := NormalizeToken(token)
		if vocab.Contains(cleaned) {
			t.counts[cleaned]++
		}
	}
}

// Used returns only the entries with at least one occurrence.
func (t Tally) Used() map[string]int {
	used := make(map[string]int)
	for word, n := range t.counts {
		if n > 0 {
			used[word] = n
		}
	}
	return used
}

// Total returns the sum of all occurrences.
func (t Tally) Total() int {
	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}

// Get returns the count for a single entry.
func (t Tally) Get(word string) int {
	return t.counts[word]
}

// CountFillers tokenizes text and tallies filler occurrences in one step.
func CountFillers(tokens []string, vocab *Vocabulary) map[string]int {
	tally := NewTally(vocab)
	tally.Count(tokens, vocab)
	return tally.Used()
}

// ComputeRate returns units per minute. Elapsed times of zero or below
// yield a rate of 0 rather than a division fault.
func ComputeRate(unitCount int, elapsedSeconds float64) float64 {
	if elapsedSeconds <= 0 {
		return 0
	}
	return float64(unitCount) / (elapsedSeconds / 60.0)
}

// ClampElapsed bounds a client-supplied elapsed span to
// [MinElapsedSeconds, MaxElapsedSeconds].
func ClampElapsed(seconds float64) float64 {
	if seconds < MinElapsedSeconds {
		return MinElapsedSeconds
	}
	if seconds > MaxElapsedSeconds {
		return MaxElapsedSeconds
	}
	return seconds
}

// ClassifyRate places a rate into a qualitative bucket with its fixed
// feedback text. Rates exactly at either threshold classify as ideal.
func ClassifyRate(rate float64, th Thresholds) (Bucket, string) {
	switch {
	case rate < th.Slow:
		return BucketSlow, feedbackSlow
	case rate > th.Fast:
		return BucketFast, feedbackFast
	default:
		return BucketIdeal, feedbackIdeal
	}
}

// CountSyllables counts runes in the Hangul syllable block (U+AC00 to
// U+D7A3). Whitespace, Latin characters and punctuation do not count.
func CountSyllables(text string) int {
	count := 0
	for _, r := range text {
		if r >= 0xAC00 && r <= 0xD7A3 {
			count++
		}
	}
	return count
}
