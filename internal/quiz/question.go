package quiz

import (
	"errors"
	"math/rand"
	"time"
)

// CurrentVersion tags generated banks. Any change to the question shape
// or the generator set must bump it, which invalidates cached banks on
// the next read.
const CurrentVersion = "1.0"

// Category identifies the question strategy that produced a question.
type Category string

const (
	CategoryReleaseYear Category = "release-year"
	CategoryLeadActor   Category = "lead-actor"
	CategoryGenre       Category = "genre"
	CategoryRating      Category = "rating-threshold"
	CategoryPoster      Category = "poster-identification"
	CategoryDirector    Category = "director"
)

// Difficulty buckets questions for scoring.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var ErrNoQuestionsAvailable = errors.New("no questions available")

// Question is a single multiple-choice trivia question.
type Question struct {
	ID            string     `json:"id"`
	Category      Category   `json:"category"`
	Prompt        string     `json:"prompt"`
	Options       []string   `json:"options"`
	CorrectAnswer string     `json:"correct_answer"`
	SourceEntryID int        `json:"source_entry_id"`
	ImageURL      string     `json:"image_url,omitempty"`
	Difficulty    Difficulty `json:"difficulty"`
	Explanation   string     `json:"explanation"`
}

// Bank is the full collection of questions from one build.
type Bank struct {
	Questions []Question `json:"questions"`
	BuiltAt   time.Time  `json:"built_at"`
	Version   string     `json:"version"`
}

// PointsFor returns the score awarded for a correct answer.
func PointsFor(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return 10
	case DifficultyMedium:
		return 20
	case DifficultyHard:
		return 30
	default:
		return 10
	}
}

// SampleQuestions returns n questions drawn without replacement by
// shuffling a copy of the input; n is clamped to the input size.
func SampleQuestions(rng *rand.Rand, questions []Question, n int) []Question {
	shuffled := make([]Question, len(questions))
	copy(shuffled, questions)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}
