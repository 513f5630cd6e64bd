package admission

import "strings"

// Spam heuristic thresholds.
const (
	repeatRunLimit    = 10
	urlCountLimit     = 3
	wordRepeatLimit   = 5
	wordRepeatMinimum = 10
)

// Verdict reports the spam classification of a submission.
type Verdict struct {
	Spam   bool
	Reason string
}

// Classify applies the spam heuristics in a fixed order; the first matching
// heuristic supplies the reason. The three checks are independent sufficient
// conditions, so ordering affects only the reported reason.
func Classify(text string) Verdict {
	if hasRepeatedRun(text, repeatRunLimit) {
		return Verdict{Spam: true, Reason: "Submission contains excessive character repetition."}
	}
	if countURLs(text) > urlCountLimit {
		return Verdict{Spam: true, Reason: "Submission contains too many URLs."}
	}
	if hasRepeatedWord(text, wordRepeatLimit, wordRepeatMinimum) {
		return Verdict{Spam: true, Reason: "Submission repeats the same word too often."}
	}
	return Verdict{}
}

// hasRepeatedRun reports whether any single character repeats at least limit
// times consecutively.
func hasRepeatedRun(text string, limit int) bool {
	var (
		previous rune
		run      int
	)
	for _, r := range text {
		if r == previous {
			run++
			if run >= limit {
				return true
			}
			continue
		}
		previous = r
		run = 1
	}
	return false
}

// countURLs counts URL-scheme prefixes in the text, case-insensitively.
func countURLs(text string) int {
	lower := strings.ToLower(text)
	return strings.Count(lower, "http://") + strings.Count(lower, "https://")
}

// hasRepeatedWord reports whether any lower-cased word occurs more than limit
// times in a text of more than minWords words.
func hasRepeatedWord(text string, limit, minWords int) bool {
	words := strings.Fields(strings.ToLower(text))
	if len(words) <= minWords {
		return false
	}

	counts := make(map[string]int, len(words))
	for _, word := range words {
		counts[word]++
		if counts[word] > limit {
			return true
		}
	}
	return false
}
