package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"movie-trivia-service/internal/quiz"
)

const (
	bankKey       = "quiz:question-bank"
	cacheDuration = 7 * 24 * time.Hour
)

// ErrCacheWrite means the bank could not be persisted. Callers treat it
// as a non-fatal warning; the in-memory bank from the build stays
// usable for the current session.
var ErrCacheWrite = errors.New("failed to persist question bank")

// record wraps a bank with its expiry and schema version. Validity is
// the conjunction of version match and non-expiry.
type record struct {
	Version   string    `json:"version"`
	ExpiresAt time.Time `json:"expires_at"`
	Bank      quiz.Bank `json:"bank"`
}

// Info describes the cached bank for UI consumption.
type Info struct {
	IsValid       bool    `json:"is_valid"`
	QuestionCount int     `json:"question_count"`
	ExpiresInDays int     `json:"expires_in_days"`
	SizeKB        float64 `json:"size_kb"`
}

// QuestionCache is the versioned, time-limited persisted store for
// generated question banks. Clock and random source are injected so
// tests control expiry and sampling.
type QuestionCache struct {
	store Store
	now   func() time.Time

	// rngMu serializes sampling; *rand.Rand is not safe for concurrent
	// use and Sample runs on concurrent requests.
	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewQuestionCache(store Store, now func() time.Time, rng *rand.Rand) *QuestionCache {
	return &QuestionCache{
		store: store,
		now:   now,
		rng:   rng,
	}
}

// Write persists the bank with a 7-day expiry under the current schema
// version. On failure any partial state is purged and ErrCacheWrite is
// returned.
func (c *QuestionCache) Write(ctx context.Context, bank *quiz.Bank) error {
	rec := record{
		Version:   quiz.CurrentVersion,
		ExpiresAt: c.now().Add(cacheDuration).UTC(),
		Bank:      *bank,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		_ = c.store.Del(ctx, bankKey)
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}
	if err := c.store.Set(ctx, bankKey, data, cacheDuration); err != nil {
		_ = c.store.Del(ctx, bankKey)
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}

	slog.Info("cached question bank",
		"questions", len(bank.Questions),
		"size_kb", fmt.Sprintf("%.2f", float64(len(data))/1024),
		"expires_at", rec.ExpiresAt)
	return nil
}

// Read returns the cached bank, or nil when no valid record exists. A
// missing, corrupt, version-mismatched or expired record is purged as a
// side effect. The bank is returned exactly as written, unshuffled.
func (c *QuestionCache) Read(ctx context.Context) (*quiz.Bank, error) {
	rec, err := c.readRecord(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return &rec.Bank, nil
}

func (c *QuestionCache) readRecord(ctx context.Context) (*record, error) {
	data, err := c.store.Get(ctx, bankKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		slog.Warn("purging corrupt question bank record", "error", err)
		_ = c.store.Del(ctx, bankKey)
		return nil, nil
	}
	if rec.Version != quiz.CurrentVersion {
		slog.Info("purging question bank with stale version",
			"cached", rec.Version, "current", quiz.CurrentVersion)
		_ = c.store.Del(ctx, bankKey)
		return nil, nil
	}
	if c.now().After(rec.ExpiresAt) {
		slog.Info("purging expired question bank", "expired_at", rec.ExpiresAt)
		_ = c.store.Del(ctx, bankKey)
		return nil, nil
	}
	return &rec, nil
}

// Sample returns n questions drawn without replacement from the cached
// bank, n clamped to the bank size. A missing bank is reported as
// quiz.ErrNoQuestionsAvailable, distinct from transient store errors.
func (c *QuestionCache) Sample(ctx context.Context, n int) ([]quiz.Question, error) {
	bank, err := c.Read(ctx)
	if err != nil {
		return nil, err
	}
	if bank == nil || len(bank.Questions) == 0 {
		return nil, quiz.ErrNoQuestionsAvailable
	}
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return quiz.SampleQuestions(c.rng, bank.Questions, n), nil
}

// Info reports validity, question count, serialized size and the floored
// (never negative) number of days until expiry.
func (c *QuestionCache) Info(ctx context.Context) (Info, error) {
	rec, err := c.readRecord(ctx)
	if err != nil {
		return Info{}, err
	}
	if rec == nil {
		return Info{}, nil
	}

	data, err := json.Marshal(rec.Bank.Questions)
	if err != nil {
		return Info{}, fmt.Errorf("serialize question bank: %w", err)
	}

	days := int(rec.ExpiresAt.Sub(c.now()).Hours() / 24)
	if days < 0 {
		days = 0
	}

	return Info{
		IsValid:       true,
		QuestionCount: len(rec.Bank.Questions),
		ExpiresInDays: days,
		SizeKB:        math.Round(float64(len(data))/1024*100) / 100,
	}, nil
}

// Clear unconditionally purges the cached bank.
func (c *QuestionCache) Clear(ctx context.Context) error {
	if err := c.store.Del(ctx, bankKey); err != nil {
		return fmt.Errorf("clear question bank: %w", err)
	}
	slog.Info("question bank cache cleared")
	return nil
}
