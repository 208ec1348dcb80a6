package repository

import (
	"database/sql"
	"fmt"
	"math"

	"movie-trivia-service/internal/models"
)

// StatsRepository handles database operations for lifetime game stats.
// The stats live in a single accumulator row.
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// RecordSession folds one completed session into the lifetime counters.
func (r *StatsRepository) RecordSession(score, correct, total int) error {
	_, err := r.db.Exec(`
		INSERT INTO game_stats (id, games_played, total_score, high_score,
			correct_answers, total_questions, last_played)
		VALUES (1, 1, $1, $1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET
			games_played = game_stats.games_played + 1,
			total_score = game_stats.total_score + EXCLUDED.total_score,
			high_score = GREATEST(game_stats.high_score, EXCLUDED.high_score),
			correct_answers = game_stats.correct_answers + EXCLUDED.correct_answers,
			total_questions = game_stats.total_questions + EXCLUDED.total_questions,
			last_played = NOW()
	`, score, correct, total)
	if err != nil {
		return fmt.Errorf("record session stats: %w", err)
	}
	return nil
}

// GetStats returns the lifetime stats, or zero-value defaults when no
// session has completed yet. Win rate and average score are derived on
// read rather than stored.
func (r *StatsRepository) GetStats() (*models.GameStats, error) {
	var stats models.GameStats
	err := r.db.QueryRow(`
		SELECT games_played, total_score, high_score,
			correct_answers, total_questions, last_played
		FROM game_stats
		WHERE id = 1
	`).Scan(
		&stats.GamesPlayed, &stats.TotalScore, &stats.HighScore,
		&stats.CorrectAnswers, &stats.TotalQuestions, &stats.LastPlayed,
	)
	if err == sql.ErrNoRows {
		return &models.GameStats{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	if stats.TotalQuestions > 0 {
		rate := float64(stats.CorrectAnswers) / float64(stats.TotalQuestions) * 100
		stats.WinRate = math.Round(rate*10) / 10
	}
	if stats.GamesPlayed > 0 {
		stats.AverageScore = stats.TotalScore / stats.GamesPlayed
	}
	return &stats, nil
}

// ResetStats clears the lifetime counters.
func (r *StatsRepository) ResetStats() error {
	_, err := r.db.Exec(`DELETE FROM game_stats WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("reset stats: %w", err)
	}
	return nil
}
