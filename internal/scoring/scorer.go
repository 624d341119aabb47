package scoring

import "strings"

// MaxQuestionIndex bounds the scoring loop. Games never carry more than 20
// questions, and answer keys are keyed 1..20.
const MaxQuestionIndex = 20

// KeyEntry is one question's correct option and its point value. An empty
// Correct means the question is unscored and contributes nothing.
type KeyEntry struct {
	Correct string
	Points  int
}

// Result is the outcome of scoring one participant.
type Result struct {
	TotalPoints int `json:"total_points"`
	MaxPoints   int `json:"max_points"`
}

// Score grades a participant's answers against the answer key. Comparison is
// case-insensitive after trimming, so "b" matches "B" and a timed-out empty
// slot never matches anything. The function is pure; scoring twice with the
// same inputs yields the same result.
func Score(answers []string, key map[int]KeyEntry) Result {
	var res Result
	for i := 1; i <= MaxQuestionIndex; i++ {
		entry, ok := key[i]
		if !ok {
			continue
		}
		correct := strings.TrimSpace(entry.Correct)
		if correct == "" {
			continue
		}
		res.MaxPoints += entry.Points

		if i > len(answers) {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(answers[i-1]), correct) {
			res.TotalPoints += entry.Points
		}
	}
	return res
}
