package question

// OptionCount is the fixed number of choices per question, labeled A to D
// by position.
const OptionCount = 4

// DefaultPoints applies when the author leaves the point value unset.
const DefaultPoints = 100

// AllowedPoints are the point values a question may carry.
var AllowedPoints = []int{100, 150, 200}

// Question is the participant-facing view of one question. The correct
// answer never appears here.
type Question struct {
	Index   int      `json:"index"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// Authored is the host-facing view: the question plus its answer key entry.
type Authored struct {
	Question
	Correct string `json:"correct"`
	Points  int    `json:"points"`
}

// Set is the full question list served to a participant starting a session.
// Slots without an authored question stay empty so indexes line up with the
// game's question count.
type Set struct {
	Count     int        `json:"count"`
	Questions []string   `json:"questions"`
	Options   [][]string `json:"options"`
}
