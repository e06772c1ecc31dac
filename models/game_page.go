package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GamePage is one entry in the practice-game catalog the front end
// renders its navigation and leaderboard tabs from.
type GamePage struct {
	ID          string `gorm:"primaryKey" json:"-"`
	Slug        string `gorm:"uniqueIndex;not null" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description,omitempty"`
	Scored      bool   `gorm:"default:true" json:"scored"`
	SortOrder   int    `json:"-"`
}

// SeedGamePages inserts the fixed catalog, skipping rows that already
// exist so restarts are idempotent.
func SeedGamePages(db *gorm.DB) error {
	pages := []GamePage{
		{Slug: GameNote, Name: "Note Reading", Icon: "fa-book-open", Description: "Identify notes on the staff", SortOrder: 1},
		{Slug: GameInterval, Name: "Interval Training", Icon: "fa-music", Description: "Name the interval between two notes", SortOrder: 2},
		{Slug: GameChord, Name: "Chord Identification", Icon: "fa-layer-group", Description: "Identify chords by ear and by sight", SortOrder: 3},
		{Slug: GamePitch, Name: "Pitch Identification", Icon: "fa-headphones", Description: "Identify pitches by ear", SortOrder: 4},
		{Slug: "synth", Name: "Synthesizer", Icon: "fa-wave-square", Description: "Free-play synthesizer", Scored: false, SortOrder: 5},
	}
	for i := range pages {
		pages[i].ID = uuid.NewString()
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).Create(&pages).Error
}
