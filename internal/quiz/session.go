package quiz

import (
	"errors"
	"log/slog"
	"sync"
)

// Status is the quiz session lifecycle state.
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusFinished   Status = "finished"
)

// ErrInvalidTransition is returned for session operations that are not
// legal in the current state. Counters are never touched on that path.
var ErrInvalidTransition = errors.New("invalid session transition")

// StatsSink receives the final result of a completed session, exactly
// once per session.
type StatsSink interface {
	RecordSession(score, correct, total int) error
}

// AnswerResult reports the outcome of answering the current question.
type AnswerResult struct {
	Correct       bool   `json:"correct"`
	Points        int    `json:"points"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}

// Snapshot is a read-only view of the session for API responses.
type Snapshot struct {
	Status       Status
	CurrentIndex int
	Total        int
	Score        int
	CorrectCount int
	Answered     bool
	Selected     string
	Question     *Question
}

// Session drives one quiz run over a fixed sample of questions. It is
// safe for concurrent use.
type Session struct {
	mu sync.Mutex

	questions    []Question
	current      int
	score        int
	correctCount int
	selected     string
	answered     bool
	status       Status

	stats StatsSink
}

// NewSession creates a session in the not-started state.
func NewSession(stats StatsSink) *Session {
	return &Session{
		status: StatusNotStarted,
		stats:  stats,
	}
}

// Start begins a run over the given sampled questions. The sample must
// be non-empty; otherwise the session stays not-started.
func (s *Session) Start(questions []Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(questions) == 0 {
		return ErrNoQuestionsAvailable
	}

	s.questions = questions
	s.current = 0
	s.score = 0
	s.correctCount = 0
	s.selected = ""
	s.answered = false
	s.status = StatusInProgress
	return nil
}

// Answer records the choice for the current question and scores it.
// Answering the same question twice is a no-op that returns the first
// outcome unchanged.
func (s *Session) Answer(choice string) (AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusInProgress {
		return AnswerResult{}, ErrInvalidTransition
	}

	question := s.questions[s.current]
	if s.answered {
		return s.resultFor(question, s.selected), nil
	}

	s.selected = choice
	s.answered = true

	result := s.resultFor(question, choice)
	if result.Correct {
		s.score += result.Points
		s.correctCount++
	}
	return result, nil
}

func (s *Session) resultFor(question Question, choice string) AnswerResult {
	correct := choice == question.CorrectAnswer
	points := 0
	if correct {
		points = PointsFor(question.Difficulty)
	}
	return AnswerResult{
		Correct:       correct,
		Points:        points,
		CorrectAnswer: question.CorrectAnswer,
		Explanation:   question.Explanation,
	}
}

// Advance moves to the next question, or finishes the session after the
// last one. It is only legal once the current question was answered.
// Finishing records the final stats exactly once.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusInProgress || !s.answered {
		return ErrInvalidTransition
	}

	if s.current+1 == len(s.questions) {
		s.status = StatusFinished
		if s.stats != nil {
			if err := s.stats.RecordSession(s.score, s.correctCount, len(s.questions)); err != nil {
				slog.Error("failed to record session stats", "error", err)
			}
		}
		return nil
	}

	s.current++
	s.selected = ""
	s.answered = false
	return nil
}

// Reset clears all session fields and returns to not-started. Legal
// from any state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions = nil
	s.current = 0
	s.score = 0
	s.correctCount = 0
	s.selected = ""
	s.answered = false
	s.status = StatusNotStarted
}

// Snapshot returns the current session view. The question pointer is a
// copy; mutating it does not affect the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Status:       s.status,
		CurrentIndex: s.current,
		Total:        len(s.questions),
		Score:        s.score,
		CorrectCount: s.correctCount,
		Answered:     s.answered,
		Selected:     s.selected,
	}
	if s.status == StatusInProgress && s.current < len(s.questions) {
		question := s.questions[s.current]
		snap.Question = &question
	}
	return snap
}
