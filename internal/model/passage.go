package model

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty enumerates the difficulty targets used across passages,
// questions and generation requests.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyMixed  Difficulty = "mixed"
)

// Passage is a block of reading text owned by exactly one exam. Immutable
// after generation except for timestamps and the archival/feature flags.
type Passage struct {
	ID         uuid.UUID  `json:"id"`
	ExamID     uuid.UUID  `json:"exam_id"`
	Content    string     `json:"content"`
	WordCount  int        `json:"word_count"`
	Genre      string     `json:"genre"`
	Difficulty Difficulty `json:"difficulty"`
	SourceRef  string     `json:"source_ref,omitempty"`
	IsArchived bool       `json:"is_archived"`
	IsFeatured bool       `json:"is_featured"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
