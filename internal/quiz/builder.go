package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"movie-trivia-service/internal/tmdb"
)

const (
	workingSetSize = 100
	batchSize      = 10

	trendingMediaType = "movie"
	trendingWindow    = "week"
)

// ErrSourceUnavailable means the trending feed could not deliver a
// working set at all. Per-entry detail/credits failures are absorbed
// instead; they only shrink the resulting bank.
var ErrSourceUnavailable = errors.New("catalog source unavailable")

// Source is the catalog adapter contract the builder needs.
type Source interface {
	GetTrending(ctx context.Context, mediaType, window string, page int) (*tmdb.TrendingResponse, error)
	GetMovieDetail(ctx context.Context, tmdbID int) (*tmdb.MovieDetail, error)
	GetMovieCredits(ctx context.Context, tmdbID int) (*tmdb.Credits, error)
}

// ProgressFunc receives best-effort progress after each batch. It is
// observational only; callers must not rely on it for control flow.
type ProgressFunc func(processed, total int)

// fallbackCategory maps a generator that could not run to the category
// that fills its slot instead.
var fallbackCategory = map[Category]Category{
	CategoryLeadActor: CategoryGenre,
	CategoryDirector:  CategoryGenre,
}

// Builder assembles a question bank from the trending working set. It
// is safe for concurrent Build calls: each build shuffles with its own
// rand derived from the injected seed source.
type Builder struct {
	source Source
	now    func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	// Progress, when set, is called after every processed batch.
	Progress ProgressFunc
}

// NewBuilder creates a Builder with an injected random source and clock
// so option order and timestamps are reproducible in tests.
func NewBuilder(source Source, rng *rand.Rand, now func() time.Time) *Builder {
	return &Builder{
		source: source,
		rng:    rng,
		now:    now,
	}
}

type entryData struct {
	movie   tmdb.Movie
	detail  *tmdb.MovieDetail
	credits *tmdb.Credits
}

// Build fetches the working set and generates the full question bank.
// One failed entry is skipped; a failed trending page aborts the build.
func (b *Builder) Build(ctx context.Context) (*Bank, error) {
	workingSet, err := b.fetchWorkingSet(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("fetched trending working set", "entries", len(workingSet))

	b.rngMu.Lock()
	rng := rand.New(rand.NewSource(b.rng.Int63()))
	b.rngMu.Unlock()

	questions := make([]Question, 0, 6*len(workingSet))
	for start := 0; start < len(workingSet); start += batchSize {
		end := start + batchSize
		if end > len(workingSet) {
			end = len(workingSet)
		}

		batch := b.fetchBatch(ctx, workingSet[start:end])
		for _, data := range batch {
			if data == nil {
				continue
			}
			questions = append(questions, b.questionsForEntry(rng, data, workingSet)...)
		}

		if b.Progress != nil {
			b.Progress(end, len(workingSet))
		}
	}

	slog.Info("question bank built", "questions", len(questions))
	return &Bank{
		Questions: questions,
		BuiltAt:   b.now().UTC(),
		Version:   CurrentVersion,
	}, nil
}

// fetchWorkingSet collects trending pages until workingSetSize entries
// are gathered, then truncates to exactly that size. Short pages are
// tolerated; a page error aborts the whole fetch.
func (b *Builder) fetchWorkingSet(ctx context.Context) ([]tmdb.Movie, error) {
	entries := make([]tmdb.Movie, 0, workingSetSize)
	for page := 1; len(entries) < workingSetSize; page++ {
		resp, err := b.source.GetTrending(ctx, trendingMediaType, trendingWindow, page)
		if err != nil {
			return nil, fmt.Errorf("%w: trending page %d: %v", ErrSourceUnavailable, page, err)
		}
		if len(resp.Results) == 0 {
			break
		}
		entries = append(entries, resp.Results...)
		if resp.TotalPages > 0 && page >= resp.TotalPages {
			break
		}
	}
	if len(entries) > workingSetSize {
		entries = entries[:workingSetSize]
	}
	return entries, nil
}

// fetchBatch fetches detail and credits for every entry of the batch
// concurrently (two in-flight calls per entry). A failed entry yields a
// nil slot; slots keep the batch's entry order.
func (b *Builder) fetchBatch(ctx context.Context, batch []tmdb.Movie) []*entryData {
	results := make([]*entryData, len(batch))

	var wg sync.WaitGroup
	for i, movie := range batch {
		wg.Add(1)
		go func(i int, movie tmdb.Movie) {
			defer wg.Done()

			var (
				detail     *tmdb.MovieDetail
				credits    *tmdb.Credits
				detailErr  error
				creditsErr error
				inner      sync.WaitGroup
			)
			inner.Add(2)
			go func() {
				defer inner.Done()
				detail, detailErr = b.source.GetMovieDetail(ctx, movie.ID)
			}()
			go func() {
				defer inner.Done()
				credits, creditsErr = b.source.GetMovieCredits(ctx, movie.ID)
			}()
			inner.Wait()

			if detailErr != nil || creditsErr != nil {
				slog.Warn("skipping entry, fetch failed",
					"tmdb_id", movie.ID,
					"detail_error", detailErr,
					"credits_error", creditsErr)
				return
			}
			results[i] = &entryData{movie: movie, detail: detail, credits: credits}
		}(i, movie)
	}
	wg.Wait()

	return results
}

// questionsForEntry runs the six generators in fixed order. An
// unavailable generator falls back per fallbackCategory; each entry
// contributes at most one question per category, so a fallback whose
// category was already produced is dropped.
func (b *Builder) questionsForEntry(rng *rand.Rand, data *entryData, workingSet []tmdb.Movie) []Question {
	movie := data.movie
	if movie.ReleaseDate == "" && data.detail != nil {
		movie.ReleaseDate = data.detail.ReleaseDate
	}

	now := b.now()
	runs := []struct {
		category Category
		run      func() GeneratorResult
	}{
		{CategoryReleaseYear, func() GeneratorResult { return generateReleaseYear(rng, movie, now) }},
		{CategoryLeadActor, func() GeneratorResult { return generateLeadActor(rng, movie, data.credits) }},
		{CategoryGenre, func() GeneratorResult { return generateGenre(rng, movie) }},
		{CategoryRating, func() GeneratorResult { return generateRating(movie) }},
		{CategoryPoster, func() GeneratorResult { return generatePoster(rng, movie, workingSet) }},
		{CategoryDirector, func() GeneratorResult { return generateDirector(rng, movie, data.credits) }},
	}

	seen := make(map[Category]bool, len(runs))
	questions := make([]Question, 0, len(runs))
	for _, step := range runs {
		result := step.run()
		if !result.Produced {
			fallback, ok := fallbackCategory[step.category]
			if !ok || fallback != CategoryGenre {
				continue
			}
			result = generateGenre(rng, movie)
		}
		if !result.Produced || seen[result.Question.Category] {
			continue
		}
		seen[result.Question.Category] = true
		questions = append(questions, result.Question)
	}
	return questions
}
