// models/score.go
package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

const (
	GameNote     = "note"
	GameInterval = "interval"
	GameChord    = "chord"
	GamePitch    = "pitch"
)

const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Games lists the four skills that keep score. The synth page has no
// scoring and is deliberately absent.
var Games = []string{GameNote, GameInterval, GameChord, GamePitch}

var Difficulties = []string{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

func ValidGame(game string) bool {
	switch game {
	case GameNote, GameInterval, GameChord, GamePitch:
		return true
	}
	return false
}

func ValidDifficulty(difficulty string) bool {
	switch difficulty {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// RoundAccuracy is the one rounding rule for every accuracy figure on a
// leaderboard: percentage with one decimal place, 0 when nothing was
// attempted.
func RoundAccuracy(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*1000) / 10
}

// Score records a single completed practice session. Rows are immutable
// once written; leaderboards aggregate over them.
type Score struct {
	ID         string `gorm:"primaryKey" json:"id"`
	UserID     string `gorm:"index;not null" json:"user_id"`
	User       *User  `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Game       string `gorm:"type:varchar(20);not null;index:idx_scores_game_difficulty" json:"game"`
	Difficulty string `gorm:"type:varchar(20);not null;index:idx_scores_game_difficulty" json:"difficulty"`

	Correct    int `gorm:"default:0" json:"correct"`
	Total      int `gorm:"default:0" json:"total"`
	BestStreak int `gorm:"default:0" json:"best_streak"`

	// Derived; rewritten by BeforeSave, never taken from a client
	Accuracy float64 `gorm:"default:0" json:"accuracy"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (s *Score) BeforeSave(tx *gorm.DB) error {
	s.Accuracy = RoundAccuracy(s.Correct, s.Total)
	return nil
}

// WeeklyScore is the rolling aggregate for one (user, game, difficulty)
// in one ISO week, keyed by the Monday that opens the week. Exactly one
// row exists per key; submissions fold into it in place and a new row
// starts automatically when the week rolls over.
type WeeklyScore struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"not null;uniqueIndex:idx_weekly_scores_key" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Game       string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_weekly_scores_key" json:"game"`
	Difficulty string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_weekly_scores_key" json:"difficulty"`
	WeekStart  time.Time `gorm:"type:date;not null;uniqueIndex:idx_weekly_scores_key" json:"week_start"`

	TotalCorrect   int `gorm:"default:0" json:"total_correct"`
	TotalAttempts  int `gorm:"default:0" json:"total_attempts"`
	BestStreak     int `gorm:"default:0" json:"best_streak"`
	SessionsPlayed int `gorm:"default:0" json:"sessions_played"`

	// Derived from the cumulative totals, never averaged across sessions
	Accuracy float64 `gorm:"default:0" json:"accuracy"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (w *WeeklyScore) BeforeSave(tx *gorm.DB) error {
	w.Accuracy = RoundAccuracy(w.TotalCorrect, w.TotalAttempts)
	return nil
}

// WeeklyArchive marks a closed week whose leaderboards were exported to
// object storage, so the scheduler never uploads the same week twice.
type WeeklyArchive struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	WeekStart   time.Time `gorm:"type:date;uniqueIndex" json:"week_start"`
	ObjectCount int       `gorm:"default:0" json:"object_count"`
	ExportedAt  time.Time `json:"exported_at"`
}
