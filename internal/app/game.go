package app

import (
	"strings"

	"quizterios-service/internal/domain"
)

// RoundEnd carries what must be written to the leaderboard when a round ends.
type RoundEnd struct {
	PlayerName string
	FinalScore int
}

// Game is the per-player state machine. It performs no I/O and no locking;
// Session serializes access and the service runs the side effects.
//
// Every question request is tagged with the current round generation. Ending,
// resetting or restarting bumps the generation so late results are dropped.
type Game struct {
	phase      domain.Phase
	playerName string
	score      int
	finalScore int
	answered   int // correctly confirmed questions this round
	question   *domain.Question
	selected   domain.ChoiceKey
	revealed   bool
	loading    bool
	lastErr    string
	round      uint64
}

func NewGame() *Game {
	return &Game{phase: domain.PhaseStart}
}

// Phase returns the current phase.
func (g *Game) Phase() domain.Phase { return g.phase }

// Round returns the current request generation.
func (g *Game) Round() uint64 { return g.round }

// Start moves from start to playing and returns the generation of the
// question request that must be issued.
func (g *Game) Start(name string) (uint64, error) {
	if g.phase != domain.PhaseStart {
		return 0, domain.ErrInvalidTransition
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.ErrEmptyPlayerName
	}
	g.phase = domain.PhasePlaying
	g.playerName = name
	g.score = 0
	g.finalScore = 0
	g.answered = 0
	g.question = nil
	g.selected = ""
	g.revealed = false
	g.loading = false
	return g.beginFetch()
}

// Select marks a pending choice. It can be changed until confirmed.
func (g *Game) Select(key domain.ChoiceKey) error {
	if g.phase != domain.PhasePlaying || g.revealed {
		return domain.ErrInvalidTransition
	}
	if g.question == nil {
		return domain.ErrNoQuestion
	}
	if _, ok := g.question.Choices[key]; !ok {
		return domain.ErrInvalidChoice
	}
	g.selected = key
	return nil
}

// Confirm locks in the pending choice. A correct answer scores a point and
// keeps playing; a wrong one ends the round and returns the RoundEnd to record.
func (g *Game) Confirm() (domain.AnswerResult, *RoundEnd, error) {
	if g.phase != domain.PhasePlaying || g.revealed {
		return domain.AnswerResult{}, nil, domain.ErrInvalidTransition
	}
	if g.question == nil {
		return domain.AnswerResult{}, nil, domain.ErrNoQuestion
	}
	if g.selected == "" {
		return domain.AnswerResult{}, nil, domain.ErrNoSelection
	}

	g.revealed = true
	correct := g.question.IsCorrect(g.selected)
	var end *RoundEnd
	if correct {
		g.score++
		g.answered++
	} else {
		e := g.finish(g.score)
		end = &e
	}
	return domain.AnswerResult{
		Choice:      g.selected,
		Correct:     correct,
		CorrectKey:  g.question.Correct,
		Explanation: g.question.Explanation,
		TotalScore:  g.score,
		Phase:       g.phase,
	}, end, nil
}

// Next advances after a correct answer and returns the new request generation.
func (g *Game) Next() (uint64, error) {
	if g.phase != domain.PhasePlaying || !g.revealed || g.question == nil || !g.question.IsCorrect(g.selected) {
		return 0, domain.ErrInvalidTransition
	}
	g.selected = ""
	g.revealed = false
	g.question = nil
	return g.beginFetch()
}

// Retry re-requests a question after a failed fetch left the round empty.
func (g *Game) Retry() (uint64, error) {
	if g.phase != domain.PhasePlaying || g.question != nil {
		return 0, domain.ErrInvalidTransition
	}
	return g.beginFetch()
}

// End finishes the round on the player's request, at any point while playing.
// A pending, unconfirmed selection that matches the correct choice still
// counts; any other pending state records the confirmed score.
func (g *Game) End() (RoundEnd, error) {
	if g.phase != domain.PhasePlaying {
		return RoundEnd{}, domain.ErrInvalidTransition
	}
	final := g.score
	if !g.revealed && g.question != nil && g.question.IsCorrect(g.selected) {
		final++
	}
	return g.finish(final), nil
}

// ShowLeaderboard opens the read-only leaderboard view.
func (g *Game) ShowLeaderboard() error {
	if g.phase != domain.PhaseGameOver && g.phase != domain.PhaseStart {
		return domain.ErrInvalidTransition
	}
	g.phase = domain.PhaseLeaderboard
	return nil
}

// Reset returns to start with fresh defaults.
func (g *Game) Reset() error {
	if g.phase != domain.PhaseGameOver && g.phase != domain.PhaseLeaderboard {
		return domain.ErrInvalidTransition
	}
	round := g.round + 1
	*g = Game{phase: domain.PhaseStart, round: round}
	return nil
}

// Abandon drops any outstanding request; used when the owning client leaves.
func (g *Game) Abandon() {
	g.round++
	g.loading = false
}

// ApplyQuestion installs a fetched question if round is still current.
func (g *Game) ApplyQuestion(round uint64, q domain.Question) bool {
	if !g.awaiting(round) {
		return false
	}
	g.loading = false
	g.question = &q
	return true
}

// FailFetch records a failed request if round is still current.
func (g *Game) FailFetch(round uint64, err error) bool {
	if !g.awaiting(round) {
		return false
	}
	g.loading = false
	g.lastErr = err.Error()
	return true
}

// Snapshot projects the state for clients. The correct key and explanation
// are exposed only once the answer is revealed.
func (g *Game) Snapshot() domain.Snapshot {
	snap := domain.Snapshot{
		Phase:          g.phase,
		PlayerName:     g.playerName,
		Score:          g.score,
		FinalScore:     g.finalScore,
		QuestionCount:  g.answered,
		SelectedChoice: g.selected,
		AnswerRevealed: g.revealed,
		Loading:        g.loading,
		LastError:      g.lastErr,
	}
	if g.question != nil {
		choices := make(map[domain.ChoiceKey]string, len(g.question.Choices))
		for k, v := range g.question.Choices {
			choices[k] = v
		}
		view := &domain.QuestionView{
			Topic:   g.question.Topic,
			Icon:    domain.TopicIcon(g.question.Topic),
			Text:    g.question.Text,
			Choices: choices,
		}
		if g.revealed {
			view.Correct = g.question.Correct
			view.Explanation = g.question.Explanation
		}
		snap.Question = view
	}
	return snap
}

func (g *Game) beginFetch() (uint64, error) {
	if g.loading {
		return 0, domain.ErrFetchInProgress
	}
	g.round++
	g.loading = true
	g.lastErr = ""
	return g.round, nil
}

func (g *Game) awaiting(round uint64) bool {
	return g.phase == domain.PhasePlaying && g.loading && round == g.round
}

func (g *Game) finish(final int) RoundEnd {
	g.phase = domain.PhaseGameOver
	g.finalScore = final
	g.loading = false
	g.round++
	return RoundEnd{PlayerName: g.playerName, FinalScore: final}
}
