package models

import "time"

// GameStats is the lifetime stats record accumulated across sessions.
type GameStats struct {
	GamesPlayed    int       `json:"games_played"`
	TotalScore     int       `json:"total_score"`
	HighScore      int       `json:"high_score"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalQuestions int       `json:"total_questions"`
	WinRate        float64   `json:"win_rate"`
	AverageScore   int       `json:"average_score"`
	LastPlayed     time.Time `json:"last_played"`
}

// BuildBankResponse reports the outcome of a bank build.
type BuildBankResponse struct {
	QuestionCount int       `json:"question_count"`
	Version       string    `json:"version"`
	BuiltAt       time.Time `json:"built_at"`
	Cached        bool      `json:"cached"`
}

// QuestionView is a question as exposed to players: the correct answer
// is withheld until the question has been answered.
type QuestionView struct {
	ID         string   `json:"id"`
	Category   string   `json:"category"`
	Prompt     string   `json:"prompt"`
	Options    []string `json:"options"`
	ImageURL   string   `json:"image_url,omitempty"`
	Difficulty string   `json:"difficulty"`
}

// SessionResponse is the session state returned by the session
// endpoints.
type SessionResponse struct {
	SessionID      string        `json:"session_id"`
	Status         string        `json:"status"`
	QuestionNumber int           `json:"question_number"`
	TotalQuestions int           `json:"total_questions"`
	Score          int           `json:"score"`
	CorrectCount   int           `json:"correct_count"`
	Answered       bool          `json:"answered"`
	Question       *QuestionView `json:"question,omitempty"`
}

// AnswerRequest is the body for submitting an answer.
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// AnswerResponse reports the scored outcome of an answer.
type AnswerResponse struct {
	Correct       bool   `json:"correct"`
	Points        int    `json:"points"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
	Score         int    `json:"score"`
}
