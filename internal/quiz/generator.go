package quiz

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"movie-trivia-service/internal/tmdb"
)

const (
	// RatingThreshold is the vote-average cutoff for the yes/no rating
	// question. Kept as-is from the original game balance.
	RatingThreshold = 7.5

	minReleaseYear  = 1950
	yearWindow      = 5
	posterImageBase = "https://image.tmdb.org/t/p/w500"
)

// genreNames maps TMDB movie genre IDs to display names.
var genreNames = map[int]string{
	28: "Action", 12: "Adventure", 16: "Animation", 35: "Comedy",
	80: "Crime", 99: "Documentary", 18: "Drama", 10751: "Family",
	14: "Fantasy", 36: "History", 27: "Horror", 10402: "Music",
	9648: "Mystery", 10749: "Romance", 878: "Science Fiction",
	10770: "TV Movie", 53: "Thriller", 10752: "War", 37: "Western",
}

// Distractor pools of well-known names. Plausible in any lineup, so a
// wrong option never looks out of place.
var actorPool = []string{
	"Tom Hanks", "Leonardo DiCaprio", "Meryl Streep", "Denzel Washington",
	"Brad Pitt", "Scarlett Johansson", "Morgan Freeman", "Robert De Niro",
	"Al Pacino", "Christian Bale", "Jennifer Lawrence", "Tom Cruise",
	"Matt Damon", "Sandra Bullock", "Will Smith", "Angelina Jolie",
}

var directorPool = []string{
	"Christopher Nolan", "Martin Scorsese", "Quentin Tarantino",
	"Steven Spielberg", "Denis Villeneuve", "James Cameron",
	"Ridley Scott", "Peter Jackson", "David Fincher",
	"Greta Gerwig", "Jordan Peele", "Wes Anderson",
}

// GeneratorResult is the outcome of one generator run. Unavailable means
// the required input was missing; the builder decides whether a fallback
// category fills the slot.
type GeneratorResult struct {
	Question Question
	Produced bool
}

func produced(q Question) GeneratorResult {
	return GeneratorResult{Question: q, Produced: true}
}

func unavailable() GeneratorResult {
	return GeneratorResult{}
}

func difficultyFor(popularity float64) Difficulty {
	if popularity > 100 {
		return DifficultyEasy
	}
	if popularity > 50 {
		return DifficultyMedium
	}
	return DifficultyHard
}

func questionID(category Category, entryID int) string {
	return fmt.Sprintf("%s-%d", category, entryID)
}

func posterURL(path string) string {
	if path == "" {
		return ""
	}
	return posterImageBase + path
}

// shuffleOptions builds the final option list from the correct answer
// and its distractors with a Fisher-Yates shuffle, so answer position
// carries no signal.
func shuffleOptions(rng *rand.Rand, correct string, distractors []string) []string {
	options := make([]string, 0, len(distractors)+1)
	options = append(options, correct)
	options = append(options, distractors...)
	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

func releaseYear(date string) (int, bool) {
	if len(date) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}

// generateReleaseYear asks for the release year, with distractor years
// drawn from a ±5 window clamped to [1950, current year].
func generateReleaseYear(rng *rand.Rand, movie tmdb.Movie, now time.Time) GeneratorResult {
	correctYear, ok := releaseYear(movie.ReleaseDate)
	if !ok {
		return unavailable()
	}

	candidates := make([]int, 0, 2*yearWindow)
	for offset := -yearWindow; offset <= yearWindow; offset++ {
		year := correctYear + offset
		if year != correctYear && year >= minReleaseYear && year <= now.Year() {
			candidates = append(candidates, year)
		}
	}
	if len(candidates) < 3 {
		return unavailable()
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	correct := strconv.Itoa(correctYear)
	distractors := []string{
		strconv.Itoa(candidates[0]),
		strconv.Itoa(candidates[1]),
		strconv.Itoa(candidates[2]),
	}

	return produced(Question{
		ID:            questionID(CategoryReleaseYear, movie.ID),
		Category:      CategoryReleaseYear,
		Prompt:        fmt.Sprintf("When was %q released?", movie.Title),
		Options:       shuffleOptions(rng, correct, distractors),
		CorrectAnswer: correct,
		SourceEntryID: movie.ID,
		ImageURL:      posterURL(movie.PosterPath),
		Difficulty:    difficultyFor(movie.Popularity),
		Explanation:   fmt.Sprintf("%q was released in %d.", movie.Title, correctYear),
	})
}

// generateLeadActor asks for the top-billed cast member against three
// names from the fixed actor pool.
func generateLeadActor(rng *rand.Rand, movie tmdb.Movie, credits *tmdb.Credits) GeneratorResult {
	if credits == nil || len(credits.Cast) == 0 {
		return unavailable()
	}
	lead := credits.Cast[0]

	distractors := pickNames(rng, actorPool, lead.Name, 3)
	if len(distractors) < 3 {
		return unavailable()
	}

	return produced(Question{
		ID:            questionID(CategoryLeadActor, movie.ID),
		Category:      CategoryLeadActor,
		Prompt:        fmt.Sprintf("Who is the lead actor in %q?", movie.Title),
		Options:       shuffleOptions(rng, lead.Name, distractors),
		CorrectAnswer: lead.Name,
		SourceEntryID: movie.ID,
		ImageURL:      posterURL(movie.PosterPath),
		Difficulty:    DifficultyMedium,
		Explanation:   fmt.Sprintf("%s plays %s in %q.", lead.Name, lead.Character, movie.Title),
	})
}

// generateGenre asks for the primary genre of the entry.
func generateGenre(rng *rand.Rand, movie tmdb.Movie) GeneratorResult {
	correct := "Drama"
	if len(movie.GenreIDs) > 0 {
		if name, ok := genreNames[movie.GenreIDs[0]]; ok {
			correct = name
		}
	}

	others := make([]string, 0, len(genreNames))
	for _, name := range genreNames {
		if name != correct {
			others = append(others, name)
		}
	}
	// Map iteration order is random but not seedable; sort for a
	// reproducible pool before the seeded shuffle.
	sort.Strings(others)
	rng.Shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})

	return produced(Question{
		ID:            questionID(CategoryGenre, movie.ID),
		Category:      CategoryGenre,
		Prompt:        fmt.Sprintf("What genre is %q?", movie.Title),
		Options:       shuffleOptions(rng, correct, others[:3]),
		CorrectAnswer: correct,
		SourceEntryID: movie.ID,
		ImageURL:      posterURL(movie.PosterPath),
		Difficulty:    DifficultyEasy,
		Explanation:   fmt.Sprintf("%q is primarily a %s film.", movie.Title, correct),
	})
}

// generateRating is the yes/no rating-threshold question. The two
// options stay in fixed order; the answer itself varies, so position
// carries no signal.
func generateRating(movie tmdb.Movie) GeneratorResult {
	correct := "No"
	if movie.VoteAverage >= RatingThreshold {
		correct = "Yes"
	}

	return produced(Question{
		ID:            questionID(CategoryRating, movie.ID),
		Category:      CategoryRating,
		Prompt:        fmt.Sprintf("Is %q rated %.1f or higher on TMDB?", movie.Title, RatingThreshold),
		Options:       []string{"Yes", "No"},
		CorrectAnswer: correct,
		SourceEntryID: movie.ID,
		ImageURL:      posterURL(movie.PosterPath),
		Difficulty:    DifficultyMedium,
		Explanation:   fmt.Sprintf("%q has a rating of %.1f on TMDB.", movie.Title, movie.VoteAverage),
	})
}

// generatePoster asks to identify the entry from its poster, with other
// titles from the working set as distractors. Candidates sharing the
// entry's id or title are excluded so a remake can never be a wrong
// option that reads as correct.
func generatePoster(rng *rand.Rand, movie tmdb.Movie, workingSet []tmdb.Movie) GeneratorResult {
	if movie.PosterPath == "" {
		return unavailable()
	}

	shuffled := make([]tmdb.Movie, len(workingSet))
	copy(shuffled, workingSet)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	distractors := make([]string, 0, 3)
	seen := map[string]bool{movie.Title: true}
	for _, other := range shuffled {
		if len(distractors) == 3 {
			break
		}
		if other.ID == movie.ID || seen[other.Title] {
			continue
		}
		seen[other.Title] = true
		distractors = append(distractors, other.Title)
	}
	if len(distractors) < 3 {
		return unavailable()
	}

	return produced(Question{
		ID:            questionID(CategoryPoster, movie.ID),
		Category:      CategoryPoster,
		Prompt:        "Identify the movie from this poster:",
		Options:       shuffleOptions(rng, movie.Title, distractors),
		CorrectAnswer: movie.Title,
		SourceEntryID: movie.ID,
		ImageURL:      posterURL(movie.PosterPath),
		Difficulty:    difficultyFor(movie.Popularity),
		Explanation:   fmt.Sprintf("This is the poster for %q.", movie.Title),
	})
}

// generateDirector asks for the credited director against three names
// from the fixed director pool.
func generateDirector(rng *rand.Rand, movie tmdb.Movie, credits *tmdb.Credits) GeneratorResult {
	var director string
	if credits != nil {
		for _, member := range credits.Crew {
			if member.Job == "Director" {
				director = member.Name
				break
			}
		}
	}
	if director == "" {
		return unavailable()
	}

	distractors := pickNames(rng, directorPool, director, 3)
	if len(distractors) < 3 {
		return unavailable()
	}

	return produced(Question{
		ID:            questionID(CategoryDirector, movie.ID),
		Category:      CategoryDirector,
		Prompt:        fmt.Sprintf("Who directed %q?", movie.Title),
		Options:       shuffleOptions(rng, director, distractors),
		CorrectAnswer: director,
		SourceEntryID: movie.ID,
		ImageURL:      posterURL(movie.PosterPath),
		Difficulty:    DifficultyHard,
		Explanation:   fmt.Sprintf("%q was directed by %s.", movie.Title, director),
	})
}

// pickNames draws n distinct names from the pool, excluding the correct
// answer.
func pickNames(rng *rand.Rand, pool []string, exclude string, n int) []string {
	candidates := make([]string, 0, len(pool))
	for _, name := range pool {
		if name != exclude {
			candidates = append(candidates, name)
		}
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	return candidates[:n]
}
