package model

import (
	"time"

	"github.com/google/uuid"
)

// GenerationStatus enumerates the lifecycle of an exam's generation run.
type GenerationStatus string

const (
	GenerationStatusGenerating GenerationStatus = "GENERATING"
	GenerationStatusCompleted  GenerationStatus = "COMPLETED"
	GenerationStatusFailed     GenerationStatus = "FAILED"
)

// ExamType enumerates the supported exam formats.
type ExamType string

const (
	ExamTypeCustom   ExamType = "CUSTOM"
	ExamTypeOfficial ExamType = "OFFICIAL"
)

// Exam is the top-level generated artifact. It is created once when a
// generation request is accepted; only the orchestrator flips its
// generation status afterwards.
type Exam struct {
	ID                uuid.UUID        `json:"id"`
	Name              string           `json:"name"`
	Year              int              `json:"year"`
	ExamType          ExamType         `json:"exam_type"`
	IsOfficial        bool             `json:"is_official"`
	RequesterID       string           `json:"requester_id"`
	TimeLimitMinutes  int              `json:"time_limit_minutes"`
	SourceMaterialIDs []string         `json:"source_material_ids"`
	GenerationStatus  GenerationStatus `json:"generation_status"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}
