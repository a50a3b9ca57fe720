package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"quizterios-service/internal/domain"
)

// SessionRepository abstracts where live game sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(sessionID string) *Session
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
	Len() int
}

// LeaderboardStore persists the leaderboard. Insert merges one entry with
// whatever is currently stored and returns the result, so several service
// instances can share one store.
type LeaderboardStore interface {
	Load(ctx context.Context) (domain.Leaderboard, error)
	Insert(ctx context.Context, entry domain.LeaderboardEntry) (domain.Leaderboard, error)
}

// QuestionSource produces one question per call.
type QuestionSource interface {
	NextQuestion(ctx context.Context) (domain.Question, error)
}

// Options tune a GameService. Zero values pick sensible defaults.
type Options struct {
	Logger       *zap.Logger
	Now          func() time.Time
	Locale       string
	FetchTimeout time.Duration
}

const defaultFetchTimeout = 30 * time.Second

// GameService contains the game use cases and owns the shared leaderboard.
type GameService struct {
	baseCtx   context.Context
	sessions  SessionRepository
	store     LeaderboardStore
	questions QuestionSource
	logger    *zap.Logger
	now       func() time.Time
	locale    string
	timeout   time.Duration

	// dispatchMu guards closed and every inflight.Add.
	dispatchMu sync.Mutex
	closed     bool
	inflight   sync.WaitGroup

	// flights collapses concurrent leaderboard reloads into one store read.
	flights     singleflight.Group
	lbMu        sync.RWMutex
	leaderboard domain.Leaderboard
	lbVersion   uint64
}

// NewGameService builds the service and loads the leaderboard once. A load
// failure is logged and leaves the leaderboard empty. ctx bounds every
// background question fetch.
func NewGameService(ctx context.Context, sessions SessionRepository, store LeaderboardStore, questions QuestionSource, opts Options) *GameService {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Locale == "" {
		opts.Locale = domain.DefaultLocale
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	s := &GameService{
		baseCtx:     ctx,
		sessions:    sessions,
		store:       store,
		questions:   questions,
		logger:      opts.Logger,
		now:         opts.Now,
		locale:      opts.Locale,
		timeout:     opts.FetchTimeout,
		leaderboard: domain.Leaderboard{},
	}

	lb, err := store.Load(ctx)
	if err != nil {
		s.logger.Error("load leaderboard, starting empty", zap.Error(err))
	} else {
		s.leaderboard = lb
	}
	return s
}

// Open creates (or returns) the session for sessionID.
func (s *GameService) Open(sessionID string) domain.Snapshot {
	return s.sessions.GetOrCreate(sessionID).Snapshot()
}

// Close discards a session; any outstanding fetch result is ignored.
func (s *GameService) Close(sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.closeSubscribers()
	s.sessions.Delete(sessionID)
	s.logger.Debug("session closed",
		zap.String("session", sessionID),
		zap.Duration("age", s.now().Sub(session.CreatedAt())),
	)
}

// Snapshot returns the current state of a session.
func (s *GameService) Snapshot(sessionID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Subscribe returns a channel that receives state updates for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(_ context.Context, sessionID string) (<-chan domain.Snapshot, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Start begins a round for playerName and requests the first question.
func (s *GameService) Start(_ context.Context, sessionID, playerName string) (domain.Snapshot, error) {
	return s.withFetch(sessionID, func(g *Game) (uint64, error) { return g.Start(playerName) })
}

// Next advances after a correct answer and requests a new question.
func (s *GameService) Next(_ context.Context, sessionID string) (domain.Snapshot, error) {
	return s.withFetch(sessionID, func(g *Game) (uint64, error) { return g.Next() })
}

// Retry requests a question again after a failed fetch.
func (s *GameService) Retry(_ context.Context, sessionID string) (domain.Snapshot, error) {
	return s.withFetch(sessionID, func(g *Game) (uint64, error) { return g.Retry() })
}

// Select marks a pending answer.
func (s *GameService) Select(_ context.Context, sessionID string, key domain.ChoiceKey) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.apply(func(g *Game) error { return g.Select(key) })
}

// Confirm locks in the pending answer. A wrong answer ends the round and
// records it on the leaderboard.
func (s *GameService) Confirm(ctx context.Context, sessionID string) (domain.AnswerResult, domain.Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.AnswerResult{}, domain.Snapshot{}, domain.ErrSessionNotFound
	}
	var (
		result domain.AnswerResult
		end    *RoundEnd
	)
	snap, err := session.apply(func(g *Game) error {
		var err error
		result, end, err = g.Confirm()
		return err
	})
	if err != nil {
		return domain.AnswerResult{}, snap, err
	}
	if end != nil {
		s.record(ctx, *end)
	}
	return result, snap, nil
}

// End finishes the round on request and records the final score.
func (s *GameService) End(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	var end RoundEnd
	snap, err := session.apply(func(g *Game) error {
		var err error
		end, err = g.End()
		return err
	})
	if err != nil {
		return snap, err
	}
	s.record(ctx, end)
	return snap, nil
}

// ShowLeaderboard switches the session to the leaderboard view and returns
// the board as currently stored.
func (s *GameService) ShowLeaderboard(ctx context.Context, sessionID string) (domain.Snapshot, domain.Leaderboard, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, nil, domain.ErrSessionNotFound
	}
	snap, err := session.apply(func(g *Game) error { return g.ShowLeaderboard() })
	if err != nil {
		return snap, nil, err
	}
	return snap, s.RefreshLeaderboard(ctx), nil
}

// Reset returns the session to the start screen.
func (s *GameService) Reset(_ context.Context, sessionID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.apply(func(g *Game) error { return g.Reset() })
}

// Leaderboard returns a copy of the current leaderboard.
func (s *GameService) Leaderboard() domain.Leaderboard {
	s.lbMu.RLock()
	defer s.lbMu.RUnlock()
	out := make(domain.Leaderboard, len(s.leaderboard))
	copy(out, s.leaderboard)
	return out
}

// RefreshLeaderboard reloads the leaderboard from the store, picking up
// entries written by other instances. Concurrent callers share one read. On
// a load failure the cached copy is returned.
func (s *GameService) RefreshLeaderboard(ctx context.Context) domain.Leaderboard {
	_, err, _ := s.flights.Do("leaderboard", func() (interface{}, error) {
		s.lbMu.RLock()
		version := s.lbVersion
		s.lbMu.RUnlock()

		lb, err := s.store.Load(ctx)
		if err != nil {
			return nil, err
		}
		s.lbMu.Lock()
		// A round recorded meanwhile already holds a newer board.
		if s.lbVersion == version {
			s.leaderboard = lb
			s.lbVersion++
		}
		s.lbMu.Unlock()
		return nil, nil
	})
	if err != nil {
		s.logger.Warn("reload leaderboard, serving cached copy", zap.Error(err))
	}
	return s.Leaderboard()
}

// ActiveSessions reports how many sessions this instance is serving.
func (s *GameService) ActiveSessions() int {
	return s.sessions.Len()
}

// Wait blocks until all background question fetches have finished.
func (s *GameService) Wait() {
	s.inflight.Wait()
}

// Shutdown stops accepting question fetches and waits for the running ones.
// Sessions asking for a question afterwards see ErrServiceClosed.
func (s *GameService) Shutdown() {
	s.dispatchMu.Lock()
	s.closed = true
	s.dispatchMu.Unlock()
	s.inflight.Wait()
}

func (s *GameService) withFetch(sessionID string, transition func(g *Game) (uint64, error)) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	var round uint64
	snap, err := session.apply(func(g *Game) error {
		var err error
		round, err = transition(g)
		return err
	})
	if err != nil {
		return snap, err
	}
	s.dispatch(session, round)
	return snap, nil
}

// dispatch fetches one question in the background. The loading flag set by
// the transition is always cleared by finishFetch, whatever the outcome.
func (s *GameService) dispatch(session *Session, round uint64) {
	s.dispatchMu.Lock()
	if s.closed {
		s.dispatchMu.Unlock()
		s.finishFetch(session, round, domain.Question{}, domain.ErrServiceClosed)
		return
	}
	s.inflight.Add(1)
	s.dispatchMu.Unlock()

	go func() {
		defer s.inflight.Done()
		var (
			q   domain.Question
			err error
		)
		defer func() { s.finishFetch(session, round, q, err) }()

		ctx, cancel := context.WithTimeout(s.baseCtx, s.timeout)
		defer cancel()
		q, err = s.questions.NextQuestion(ctx)
	}()
}

func (s *GameService) finishFetch(session *Session, round uint64, q domain.Question, fetchErr error) {
	applied := false
	_, _ = session.apply(func(g *Game) error {
		if fetchErr != nil {
			applied = g.FailFetch(round, fetchErr)
		} else {
			applied = g.ApplyQuestion(round, q)
		}
		if !applied {
			return errStale
		}
		return nil
	})

	fields := []zap.Field{zap.String("session", session.ID()), zap.Uint64("round", round)}
	switch {
	case !applied:
		s.logger.Debug("discarding stale question result", fields...)
	case fetchErr != nil:
		s.logger.Warn("question fetch failed", append(fields, zap.Error(fetchErr))...)
	default:
		s.logger.Debug("question ready", append(fields, zap.String("topic", q.Topic))...)
	}
}

var errStale = errors.New("stale round")

// record merges the round's final score into the stored leaderboard. On a
// storage failure the cached leaderboard is left unchanged.
func (s *GameService) record(ctx context.Context, end RoundEnd) {
	now := s.now()
	entry := domain.LeaderboardEntry{
		PlayerName:  end.PlayerName,
		Score:       end.FinalScore,
		DateLabel:   domain.DateLabel(now, s.locale),
		CreatedAtMs: now.UnixMilli(),
	}

	next, err := s.store.Insert(ctx, entry)
	if err != nil {
		s.logger.Error("save leaderboard", zap.Error(err), zap.String("player", end.PlayerName))
		return
	}
	s.lbMu.Lock()
	s.leaderboard = next
	s.lbVersion++
	s.lbMu.Unlock()
	s.logger.Info("round recorded", zap.String("player", end.PlayerName), zap.Int("score", end.FinalScore))
}
