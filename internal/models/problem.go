package models

import (
	"time"

	"gorm.io/datatypes"
)

// Problem difficulty labels.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// TestCase is a single stdin/expected-stdout pair fed to the judge.
type TestCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Problem is a practice problem with visible and hidden test cases.
type Problem struct {
	ID               uint                          `gorm:"primaryKey" json:"id"`
	Title            string                        `gorm:"size:255;not null" json:"title"`
	Slug             string                        `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description      string                        `gorm:"type:text" json:"description"`
	Difficulty       string                        `gorm:"size:16;not null;index" json:"difficulty"`
	VisibleTestCases datatypes.JSONSlice[TestCase] `json:"visible_test_cases"`
	HiddenTestCases  datatypes.JSONSlice[TestCase] `json:"hidden_test_cases"`
	StarterCode      datatypes.JSONMap             `json:"starter_code"`
	ReferenceCode    datatypes.JSONMap             `json:"reference_code"`
	CreatedAt        time.Time                     `json:"created_at"`
	UpdatedAt        time.Time                     `json:"updated_at"`
}

// IsValidDifficulty reports whether the label is one of the known difficulties.
func IsValidDifficulty(difficulty string) bool {
	switch difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}
