package quiz

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-trivia-service/internal/tmdb"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func testNow() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func testMovie() tmdb.Movie {
	return tmdb.Movie{
		ID:          550,
		Title:       "Fight Club",
		ReleaseDate: "1999-10-15",
		GenreIDs:    []int{18, 53},
		VoteAverage: 8.4,
		Popularity:  61.4,
		PosterPath:  "/fight-club.jpg",
	}
}

func assertOptionsWellFormed(t *testing.T, q Question, wantLen int) {
	t.Helper()
	require.Len(t, q.Options, wantLen)
	assert.Contains(t, q.Options, q.CorrectAnswer)
	seen := make(map[string]bool)
	for _, opt := range q.Options {
		assert.False(t, seen[opt], "duplicate option %q", opt)
		seen[opt] = true
	}
}

func TestGenerateReleaseYear(t *testing.T) {
	result := generateReleaseYear(testRand(), testMovie(), testNow())
	require.True(t, result.Produced)

	q := result.Question
	assert.Equal(t, "release-year-550", q.ID)
	assert.Equal(t, CategoryReleaseYear, q.Category)
	assert.Equal(t, "1999", q.CorrectAnswer)
	assert.Equal(t, 550, q.SourceEntryID)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/fight-club.jpg", q.ImageURL)
	assertOptionsWellFormed(t, q, 4)

	for _, opt := range q.Options {
		year, err := strconv.Atoi(opt)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, year, 1994)
		assert.LessOrEqual(t, year, 2004)
	}
}

func TestGenerateReleaseYearClampsToCurrentYear(t *testing.T) {
	movie := testMovie()
	movie.ReleaseDate = "2026-05-01"

	result := generateReleaseYear(testRand(), movie, testNow())
	require.True(t, result.Produced)

	for _, opt := range result.Question.Options {
		year, _ := strconv.Atoi(opt)
		assert.LessOrEqual(t, year, 2026, "distractor year in the future")
	}
}

func TestGenerateReleaseYearMissingDate(t *testing.T) {
	movie := testMovie()
	movie.ReleaseDate = ""

	result := generateReleaseYear(testRand(), movie, testNow())
	assert.False(t, result.Produced)
}

func TestGenerateReleaseYearDifficulty(t *testing.T) {
	cases := []struct {
		popularity float64
		want       Difficulty
	}{
		{150, DifficultyEasy},
		{100.1, DifficultyEasy},
		{100, DifficultyMedium},
		{51, DifficultyMedium},
		{50, DifficultyHard},
		{3, DifficultyHard},
	}
	for _, tc := range cases {
		movie := testMovie()
		movie.Popularity = tc.popularity

		result := generateReleaseYear(testRand(), movie, testNow())
		require.True(t, result.Produced)
		assert.Equal(t, tc.want, result.Question.Difficulty, "popularity %.1f", tc.popularity)
	}
}

func TestGenerateLeadActor(t *testing.T) {
	credits := &tmdb.Credits{
		Cast: []tmdb.CastMember{
			{Name: "Edward Norton", Character: "The Narrator", Order: 0},
			{Name: "Helena Bonham Carter", Character: "Marla Singer", Order: 1},
		},
	}

	result := generateLeadActor(testRand(), testMovie(), credits)
	require.True(t, result.Produced)

	q := result.Question
	assert.Equal(t, CategoryLeadActor, q.Category)
	assert.Equal(t, "Edward Norton", q.CorrectAnswer)
	assert.Equal(t, DifficultyMedium, q.Difficulty)
	assert.Contains(t, q.Explanation, "The Narrator")
	assertOptionsWellFormed(t, q, 4)
}

func TestGenerateLeadActorExcludesLeadFromDistractors(t *testing.T) {
	// The lead is a member of the distractor pool; the pool pick must
	// not offer the correct answer twice.
	credits := &tmdb.Credits{
		Cast: []tmdb.CastMember{{Name: "Tom Hanks", Character: "Chuck Noland"}},
	}

	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		result := generateLeadActor(rng, testMovie(), credits)
		require.True(t, result.Produced)
		assertOptionsWellFormed(t, result.Question, 4)
	}
}

func TestGenerateLeadActorNoCast(t *testing.T) {
	assert.False(t, generateLeadActor(testRand(), testMovie(), nil).Produced)
	assert.False(t, generateLeadActor(testRand(), testMovie(), &tmdb.Credits{}).Produced)
}

func TestGenerateGenre(t *testing.T) {
	result := generateGenre(testRand(), testMovie())
	require.True(t, result.Produced)

	q := result.Question
	assert.Equal(t, CategoryGenre, q.Category)
	assert.Equal(t, "Drama", q.CorrectAnswer)
	assert.Equal(t, DifficultyEasy, q.Difficulty)
	assertOptionsWellFormed(t, q, 4)
}

func TestGenerateGenreFallsBackToDrama(t *testing.T) {
	noGenres := testMovie()
	noGenres.GenreIDs = nil

	unknownGenre := testMovie()
	unknownGenre.GenreIDs = []int{99999}

	for _, movie := range []tmdb.Movie{noGenres, unknownGenre} {
		result := generateGenre(testRand(), movie)
		require.True(t, result.Produced)
		assert.Equal(t, "Drama", result.Question.CorrectAnswer)
	}
}

func TestGenerateRating(t *testing.T) {
	high := testMovie()
	high.VoteAverage = 8.4
	low := testMovie()
	low.VoteAverage = 6.2
	boundary := testMovie()
	boundary.VoteAverage = 7.5

	cases := []struct {
		movie tmdb.Movie
		want  string
	}{
		{high, "Yes"},
		{low, "No"},
		{boundary, "Yes"},
	}
	for _, tc := range cases {
		result := generateRating(tc.movie)
		require.True(t, result.Produced)
		assert.Equal(t, []string{"Yes", "No"}, result.Question.Options)
		assert.Equal(t, tc.want, result.Question.CorrectAnswer)
		assert.Equal(t, DifficultyMedium, result.Question.Difficulty)
	}
}

func TestGeneratePoster(t *testing.T) {
	workingSet := []tmdb.Movie{
		testMovie(),
		{ID: 551, Title: "Seven"},
		{ID: 552, Title: "The Game"},
		{ID: 553, Title: "Zodiac"},
		{ID: 554, Title: "Gone Girl"},
	}

	result := generatePoster(testRand(), testMovie(), workingSet)
	require.True(t, result.Produced)

	q := result.Question
	assert.Equal(t, CategoryPoster, q.Category)
	assert.Equal(t, "Fight Club", q.CorrectAnswer)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/fight-club.jpg", q.ImageURL)
	assertOptionsWellFormed(t, q, 4)
}

func TestGeneratePosterExcludesSameTitle(t *testing.T) {
	// A remake shares the title but not the id. It must never appear
	// as a distractor, or the wrong option would read as correct.
	workingSet := []tmdb.Movie{
		testMovie(),
		{ID: 600, Title: "Fight Club"},
		{ID: 551, Title: "Seven"},
		{ID: 552, Title: "The Game"},
		{ID: 553, Title: "Zodiac"},
	}

	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		result := generatePoster(rng, testMovie(), workingSet)
		require.True(t, result.Produced)
		assertOptionsWellFormed(t, result.Question, 4)
	}
}

func TestGeneratePosterUnavailable(t *testing.T) {
	noPoster := testMovie()
	noPoster.PosterPath = ""
	assert.False(t, generatePoster(testRand(), noPoster, nil).Produced)

	// Too few distinct titles for three distractors.
	small := []tmdb.Movie{testMovie(), {ID: 551, Title: "Seven"}}
	assert.False(t, generatePoster(testRand(), testMovie(), small).Produced)
}

func TestGenerateDirector(t *testing.T) {
	credits := &tmdb.Credits{
		Crew: []tmdb.CrewMember{
			{Name: "Arnon Milchan", Job: "Producer"},
			{Name: "David Fincher", Job: "Director"},
			{Name: "Jim Uhls", Job: "Screenplay"},
		},
	}

	result := generateDirector(testRand(), testMovie(), credits)
	require.True(t, result.Produced)

	q := result.Question
	assert.Equal(t, CategoryDirector, q.Category)
	assert.Equal(t, "David Fincher", q.CorrectAnswer)
	assert.Equal(t, DifficultyHard, q.Difficulty)
	assertOptionsWellFormed(t, q, 4)
}

func TestGenerateDirectorNoDirectorCredit(t *testing.T) {
	credits := &tmdb.Credits{
		Crew: []tmdb.CrewMember{{Name: "Arnon Milchan", Job: "Producer"}},
	}
	assert.False(t, generateDirector(testRand(), testMovie(), credits).Produced)
	assert.False(t, generateDirector(testRand(), testMovie(), nil).Produced)
}

func TestPointsFor(t *testing.T) {
	assert.Equal(t, 10, PointsFor(DifficultyEasy))
	assert.Equal(t, 20, PointsFor(DifficultyMedium))
	assert.Equal(t, 30, PointsFor(DifficultyHard))
	assert.Equal(t, 10, PointsFor(Difficulty("unknown")))
}

func TestSampleQuestions(t *testing.T) {
	questions := make([]Question, 25)
	for i := range questions {
		questions[i] = Question{ID: strconv.Itoa(i)}
	}

	sample := SampleQuestions(testRand(), questions, 10)
	require.Len(t, sample, 10)

	seen := make(map[string]bool)
	for _, q := range sample {
		assert.False(t, seen[q.ID], "question %s sampled twice", q.ID)
		seen[q.ID] = true
	}

	// Input order untouched.
	for i, q := range questions {
		assert.Equal(t, strconv.Itoa(i), q.ID)
	}
}

func TestSampleQuestionsClampsToBankSize(t *testing.T) {
	questions := []Question{{ID: "a"}, {ID: "b"}}
	assert.Len(t, SampleQuestions(testRand(), questions, 10), 2)
	assert.Empty(t, SampleQuestions(testRand(), nil, 10))
}
