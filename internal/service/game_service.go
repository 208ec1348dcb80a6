package service

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"movie-trivia-service/internal/cache"
	"movie-trivia-service/internal/models"
	"movie-trivia-service/internal/quiz"
)

// sessionSampleSize is the number of questions drawn from the bank for
// one quiz run.
const sessionSampleSize = 10

// ErrSessionNotFound is returned for operations on an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// BankBuilder produces a fresh question bank from the upstream source.
type BankBuilder interface {
	Build(ctx context.Context) (*quiz.Bank, error)
}

// BankCache is the persisted question bank store.
type BankCache interface {
	Write(ctx context.Context, bank *quiz.Bank) error
	Read(ctx context.Context) (*quiz.Bank, error)
	Sample(ctx context.Context, n int) ([]quiz.Question, error)
	Info(ctx context.Context) (cache.Info, error)
	Clear(ctx context.Context) error
}

// StatsStore persists lifetime game stats.
type StatsStore interface {
	RecordSession(score, correct, total int) error
	GetStats() (*models.GameStats, error)
	ResetStats() error
}

// GameService orchestrates bank building, caching, quiz sessions and
// lifetime stats.
type GameService struct {
	builder BankBuilder
	cache   BankCache
	stats   StatsStore

	mu       sync.Mutex
	sessions map[string]*quiz.Session
	// lastBank keeps the most recent build in memory so sessions can
	// still start when the cache write failed.
	lastBank *quiz.Bank

	// rngMu serializes fallback sampling; *rand.Rand is not safe for
	// concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewGameService creates a new GameService.
func NewGameService(builder BankBuilder, bankCache BankCache, stats StatsStore, rng *rand.Rand) *GameService {
	return &GameService{
		builder:  builder,
		cache:    bankCache,
		stats:    stats,
		sessions: make(map[string]*quiz.Session),
		rng:      rng,
	}
}

// BuildQuestionBank returns the cached bank when one is valid, otherwise
// builds a fresh bank from the source and caches it. A cache write
// failure is downgraded to a warning: the built bank is kept in memory
// and remains playable.
func (s *GameService) BuildQuestionBank(ctx context.Context, force bool) (*models.BuildBankResponse, error) {
	if !force {
		bank, err := s.cache.Read(ctx)
		if err != nil {
			return nil, err
		}
		if bank != nil {
			s.setLastBank(bank)
			return &models.BuildBankResponse{
				QuestionCount: len(bank.Questions),
				Version:       bank.Version,
				BuiltAt:       bank.BuiltAt,
				Cached:        true,
			}, nil
		}
	}

	bank, err := s.builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	s.setLastBank(bank)

	cached := true
	if err := s.cache.Write(ctx, bank); err != nil {
		if !errors.Is(err, cache.ErrCacheWrite) {
			return nil, err
		}
		slog.Warn("question bank not persisted, serving from memory", "error", err)
		cached = false
	}

	return &models.BuildBankResponse{
		QuestionCount: len(bank.Questions),
		Version:       bank.Version,
		BuiltAt:       bank.BuiltAt,
		Cached:        cached,
	}, nil
}

func (s *GameService) setLastBank(bank *quiz.Bank) {
	s.mu.Lock()
	s.lastBank = bank
	s.mu.Unlock()
}

// BankInfo reports the cached bank metadata.
func (s *GameService) BankInfo(ctx context.Context) (cache.Info, error) {
	return s.cache.Info(ctx)
}

// ClearBank purges the cached bank. The in-memory copy is dropped too so
// new sessions require a rebuild.
func (s *GameService) ClearBank(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.lastBank = nil
	s.mu.Unlock()
	return nil
}

// StartSession samples questions from the bank and starts a new session,
// returning its id and initial state. When the cache holds no bank the
// last in-memory build is sampled instead.
func (s *GameService) StartSession(ctx context.Context) (*models.SessionResponse, error) {
	questions, err := s.cache.Sample(ctx, sessionSampleSize)
	if errors.Is(err, quiz.ErrNoQuestionsAvailable) {
		questions, err = s.sampleLastBank()
	}
	if err != nil {
		return nil, err
	}

	session := quiz.NewSession(s.stats)
	if err := session.Start(questions); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	slog.Info("quiz session started", "session_id", id, "questions", len(questions))
	return sessionResponse(id, session.Snapshot()), nil
}

// sampleLastBank draws from the in-memory bank with the same
// shuffle-then-truncate semantics as the cache, so a cache outage does
// not degrade sessions into serving the bank's build-order prefix.
func (s *GameService) sampleLastBank() ([]quiz.Question, error) {
	s.mu.Lock()
	bank := s.lastBank
	s.mu.Unlock()

	if bank == nil || len(bank.Questions) == 0 {
		return nil, quiz.ErrNoQuestionsAvailable
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return quiz.SampleQuestions(s.rng, bank.Questions, sessionSampleSize), nil
}

// GetSession returns the current state of a session.
func (s *GameService) GetSession(id string) (*models.SessionResponse, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return sessionResponse(id, session.Snapshot()), nil
}

// Answer submits a choice for the session's current question.
func (s *GameService) Answer(id, choice string) (*models.AnswerResponse, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}

	result, err := session.Answer(choice)
	if err != nil {
		return nil, err
	}

	snap := session.Snapshot()
	return &models.AnswerResponse{
		Correct:       result.Correct,
		Points:        result.Points,
		CorrectAnswer: result.CorrectAnswer,
		Explanation:   result.Explanation,
		Score:         snap.Score,
	}, nil
}

// Advance moves the session to the next question, or finishes it after
// the last one. A finished session is evicted from the manager; the
// returned response is its terminal summary.
func (s *GameService) Advance(id string) (*models.SessionResponse, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if err := session.Advance(); err != nil {
		return nil, err
	}

	snap := session.Snapshot()
	if snap.Status == quiz.StatusFinished {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
	}
	return sessionResponse(id, snap), nil
}

// ResetSession returns the session to the not-started state.
func (s *GameService) ResetSession(id string) (*models.SessionResponse, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	session.Reset()
	return sessionResponse(id, session.Snapshot()), nil
}

// Stats returns the lifetime game stats.
func (s *GameService) Stats() (*models.GameStats, error) {
	return s.stats.GetStats()
}

// ResetStats clears the lifetime game stats.
func (s *GameService) ResetStats() error {
	return s.stats.ResetStats()
}

func (s *GameService) session(id string) (*quiz.Session, error) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func sessionResponse(id string, snap quiz.Snapshot) *models.SessionResponse {
	resp := &models.SessionResponse{
		SessionID:      id,
		Status:         string(snap.Status),
		TotalQuestions: snap.Total,
		Score:          snap.Score,
		CorrectCount:   snap.CorrectCount,
		Answered:       snap.Answered,
	}
	switch snap.Status {
	case quiz.StatusInProgress:
		resp.QuestionNumber = snap.CurrentIndex + 1
	case quiz.StatusFinished:
		resp.QuestionNumber = snap.Total
	}
	if snap.Question != nil {
		resp.Question = &models.QuestionView{
			ID:         snap.Question.ID,
			Category:   string(snap.Question.Category),
			Prompt:     snap.Question.Prompt,
			Options:    snap.Question.Options,
			ImageURL:   snap.Question.ImageURL,
			Difficulty: string(snap.Question.Difficulty),
		}
	}
	return resp
}
