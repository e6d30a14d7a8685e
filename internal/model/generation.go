package model

import (
	"time"

	"github.com/google/uuid"
)

// GenerationStateStatus enumerates the pipeline phases recorded in the
// durable progress record. Completed and failed are terminal; completed
// states are deleted rather than stored.
type GenerationStateStatus string

const (
	StateInitializing          GenerationStateStatus = "initializing"
	StateGeneratingPassages    GenerationStateStatus = "generating_passages"
	StateGeneratingPrimaryQs   GenerationStateStatus = "generating_primary_questions"
	StateGeneratingSecondaryQs GenerationStateStatus = "generating_secondary_questions"
	StateSelectingAnswers      GenerationStateStatus = "selecting_answers"
	StateGeneratingPrimaryRat  GenerationStateStatus = "generating_primary_rationales"
	StateGeneratingSecondRat   GenerationStateStatus = "generating_secondary_rationales"
	StateCompleted             GenerationStateStatus = "completed"
	StateFailed                GenerationStateStatus = "failed"
)

// GenerationState is the durable progress record of one pipeline run,
// keyed by exam id. Exactly one exists per in-flight exam; it is deleted
// on success and retained on failure for diagnosis.
type GenerationState struct {
	ExamID       uuid.UUID             `json:"exam_id"`
	Status       GenerationStateStatus `json:"status"`
	CurrentStep  int                   `json:"current_step"`
	TotalSteps   int                   `json:"total_steps"`
	ErrorMessage *string               `json:"error_message,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// GenerationStateUpdate is a partial update to a GenerationState. Only
// non-nil fields are applied.
type GenerationStateUpdate struct {
	Status       *GenerationStateStatus
	CurrentStep  *int
	TotalSteps   *int
	ErrorMessage *string
}

// Personalization carries externally computed proficiency signals used to
// bias generated content. Consumed opaquely; never produced here.
type Personalization struct {
	TargetSkills []string `json:"target_skills" binding:"omitempty,dive,min=1"`
	WeakAreas    []string `json:"weak_areas" binding:"omitempty,dive,min=1"`
}

// GenerateExamRequest is the payload accepted by the generation endpoint.
// TypeDistribution maps question types to counts and must sum to
// QuestionCount.
type GenerateExamRequest struct {
	Name             string           `json:"name" binding:"omitempty,min=3,max=255"`
	Categories       []string         `json:"categories" binding:"required,min=1,max=10,dive,min=1"`
	PassageCount     int              `json:"passage_count" binding:"required,min=1,max=5"`
	QuestionCount    int              `json:"question_count" binding:"required,min=5,max=50"`
	TypeDistribution map[string]int   `json:"type_distribution" binding:"required"`
	Difficulty       Difficulty       `json:"difficulty" binding:"required,oneof=easy medium hard mixed"`
	TimeLimitMinutes int              `json:"time_limit_minutes" binding:"omitempty,min=5,max=480"`
	Personalization  *Personalization `json:"personalization" binding:"omitempty"`
	// ExamID allows idempotent resubmission with a pre-assigned id.
	ExamID *uuid.UUID `json:"exam_id" binding:"omitempty"`
}

// GenerationStatusResponse is the polling read shape. State is null once
// the pipeline has completed and its record was cleaned up.
type GenerationStatusResponse struct {
	State        *GenerationState `json:"state"`
	IsGenerating bool             `json:"is_generating"`
}
