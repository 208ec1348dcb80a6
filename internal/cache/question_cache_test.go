package cache

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-trivia-service/internal/quiz"
)

type failingStore struct {
	*MemoryStore
	setErr error
	getErr error
}

func (s *failingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.MemoryStore.Set(ctx, key, value, ttl)
}

func (s *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.MemoryStore.Get(ctx, key)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestCache() (*QuestionCache, *MemoryStore, *fakeClock) {
	store := NewMemoryStore()
	clock := &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	rng := rand.New(rand.NewSource(42))
	return NewQuestionCache(store, clock.Now, rng), store, clock
}

func testBank(n int) *quiz.Bank {
	questions := make([]quiz.Question, n)
	for i := range questions {
		questions[i] = quiz.Question{
			ID:            strconv.Itoa(i),
			Category:      quiz.CategoryGenre,
			Prompt:        "?",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: "a",
			Difficulty:    quiz.DifficultyEasy,
		}
	}
	return &quiz.Bank{
		Questions: questions,
		BuiltAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Version:   quiz.CurrentVersion,
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _, _ := newTestCache()
	ctx := context.Background()

	bank := testBank(12)
	require.NoError(t, cache.Write(ctx, bank))

	got, err := cache.Read(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)

	// Read returns exactly what was written, unshuffled.
	require.Len(t, got.Questions, 12)
	for i, q := range got.Questions {
		assert.Equal(t, strconv.Itoa(i), q.ID)
	}
	assert.Equal(t, bank.BuiltAt, got.BuiltAt)
	assert.Equal(t, quiz.CurrentVersion, got.Version)
}

func TestCacheReadMissing(t *testing.T) {
	cache, _, _ := newTestCache()

	bank, err := cache.Read(context.Background())
	require.NoError(t, err)
	assert.Nil(t, bank)
}

func TestCacheExpiryPurges(t *testing.T) {
	cache, store, clock := newTestCache()
	ctx := context.Background()

	require.NoError(t, cache.Write(ctx, testBank(4)))
	clock.Advance(7*24*time.Hour + time.Minute)

	bank, err := cache.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, bank)

	// The record is gone from the store, not just filtered on read.
	_, err = store.Get(ctx, bankKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCacheNotExpiredJustBeforeDeadline(t *testing.T) {
	cache, _, clock := newTestCache()
	ctx := context.Background()

	require.NoError(t, cache.Write(ctx, testBank(4)))
	clock.Advance(7*24*time.Hour - time.Minute)

	bank, err := cache.Read(ctx)
	require.NoError(t, err)
	assert.NotNil(t, bank)
}

func TestCacheVersionMismatchPurges(t *testing.T) {
	cache, store, clock := newTestCache()
	ctx := context.Background()

	rec := record{
		Version:   "0.9",
		ExpiresAt: clock.Now().Add(time.Hour),
		Bank:      *testBank(4),
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, bankKey, data, 0))

	bank, err := cache.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, bank)

	_, err = store.Get(ctx, bankKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCacheCorruptRecordPurges(t *testing.T) {
	cache, store, _ := newTestCache()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, bankKey, []byte("{not json"), 0))

	bank, err := cache.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, bank)

	_, err = store.Get(ctx, bankKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCacheWriteFailure(t *testing.T) {
	store := &failingStore{
		MemoryStore: NewMemoryStore(),
		setErr:      errors.New("connection refused"),
	}
	clock := &fakeClock{now: time.Now()}
	cache := NewQuestionCache(store, clock.Now, rand.New(rand.NewSource(1)))

	err := cache.Write(context.Background(), testBank(4))
	assert.ErrorIs(t, err, ErrCacheWrite)
}

func TestCacheStoreErrorPropagates(t *testing.T) {
	store := &failingStore{
		MemoryStore: NewMemoryStore(),
		getErr:      errors.New("connection refused"),
	}
	clock := &fakeClock{now: time.Now()}
	cache := NewQuestionCache(store, clock.Now, rand.New(rand.NewSource(1)))

	_, err := cache.Read(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, quiz.ErrNoQuestionsAvailable)
}

func TestCacheSample(t *testing.T) {
	cache, _, _ := newTestCache()
	ctx := context.Background()

	require.NoError(t, cache.Write(ctx, testBank(600)))

	sample, err := cache.Sample(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sample, 10)

	seen := make(map[string]bool)
	for _, q := range sample {
		assert.False(t, seen[q.ID], "question %s sampled twice", q.ID)
		seen[q.ID] = true
		id, err := strconv.Atoi(q.ID)
		require.NoError(t, err)
		assert.Less(t, id, 600)
	}
}

func TestCacheSampleEmpty(t *testing.T) {
	cache, _, _ := newTestCache()

	_, err := cache.Sample(context.Background(), 10)
	assert.ErrorIs(t, err, quiz.ErrNoQuestionsAvailable)
}

func TestCacheInfo(t *testing.T) {
	cache, _, _ := newTestCache()
	ctx := context.Background()

	info, err := cache.Info(ctx)
	require.NoError(t, err)
	assert.False(t, info.IsValid)
	assert.Zero(t, info.QuestionCount)

	require.NoError(t, cache.Write(ctx, testBank(30)))

	info, err = cache.Info(ctx)
	require.NoError(t, err)
	assert.True(t, info.IsValid)
	assert.Equal(t, 30, info.QuestionCount)
	assert.Equal(t, 7, info.ExpiresInDays)
	assert.Greater(t, info.SizeKB, 0.0)
}

func TestCacheClear(t *testing.T) {
	cache, _, _ := newTestCache()
	ctx := context.Background()

	require.NoError(t, cache.Write(ctx, testBank(4)))
	require.NoError(t, cache.Clear(ctx))

	bank, err := cache.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, bank)
}
