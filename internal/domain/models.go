package domain

// ChoiceKey identifies one of the four lettered answers of a question.
type ChoiceKey string

const (
	ChoiceA ChoiceKey = "a"
	ChoiceB ChoiceKey = "b"
	ChoiceC ChoiceKey = "c"
	ChoiceD ChoiceKey = "d"
)

// ChoiceKeys lists the fixed answer keys in display order.
var ChoiceKeys = []ChoiceKey{ChoiceA, ChoiceB, ChoiceC, ChoiceD}

// Valid reports whether k is one of the fixed answer keys.
func (k ChoiceKey) Valid() bool {
	switch k {
	case ChoiceA, ChoiceB, ChoiceC, ChoiceD:
		return true
	}
	return false
}

// Question models an MCQ question with exactly four choices and one correct key.
type Question struct {
	Topic       string               `json:"topic"`
	Text        string               `json:"text"`
	Choices     map[ChoiceKey]string `json:"choices"`
	Correct     ChoiceKey            `json:"correct"`
	Explanation string               `json:"explanation"`
}

// Validate checks the structural invariants of a question.
func (q Question) Validate() error {
	if q.Topic == "" || q.Text == "" || q.Explanation == "" {
		return ErrIncompleteQuestion
	}
	if len(q.Choices) != len(ChoiceKeys) {
		return ErrIncompleteQuestion
	}
	for _, key := range ChoiceKeys {
		if text, ok := q.Choices[key]; !ok || text == "" {
			return ErrIncompleteQuestion
		}
	}
	if _, ok := q.Choices[q.Correct]; !ok {
		return ErrInvalidChoice
	}
	return nil
}

// IsCorrect reports whether key matches the correct choice.
func (q Question) IsCorrect(key ChoiceKey) bool {
	return key != "" && key == q.Correct
}

// Phase is the top-level state of a game session.
type Phase string

const (
	PhaseStart       Phase = "start"
	PhasePlaying     Phase = "playing"
	PhaseGameOver    Phase = "gameOver"
	PhaseLeaderboard Phase = "leaderboard"
)

// QuestionView is the client-facing projection of a question. The correct key
// and explanation stay hidden until the answer is revealed.
type QuestionView struct {
	Topic       string               `json:"topic"`
	Icon        string               `json:"icon"`
	Text        string               `json:"text"`
	Choices     map[ChoiceKey]string `json:"choices"`
	Correct     ChoiceKey            `json:"correct,omitempty"`
	Explanation string               `json:"explanation,omitempty"`
}

// Snapshot captures the observable state of one game session.
type Snapshot struct {
	SessionID      string        `json:"sessionId"`
	Phase          Phase         `json:"phase"`
	PlayerName     string        `json:"playerName"`
	Score          int           `json:"score"`
	FinalScore     int           `json:"finalScore"`
	QuestionCount  int           `json:"questionCount"`
	Question       *QuestionView `json:"question,omitempty"`
	SelectedChoice ChoiceKey     `json:"selectedChoice,omitempty"`
	AnswerRevealed bool          `json:"answerRevealed"`
	Loading        bool          `json:"loading"`
	LastError      string        `json:"lastError,omitempty"`
}

// AnswerResult summarizes the outcome of a confirmed answer.
type AnswerResult struct {
	Choice      ChoiceKey `json:"choice"`
	Correct     bool      `json:"correct"`
	CorrectKey  ChoiceKey `json:"correctKey"`
	Explanation string    `json:"explanation"`
	TotalScore  int       `json:"totalScore"`
	Phase       Phase     `json:"phase"`
}
