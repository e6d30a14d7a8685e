package generation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lexidrill/examgen-backend/internal/model"
)

// StateStore persists generation-state records. Implementations must make
// each write durable before returning, and must surface ErrNotFound for
// unknown exam ids.
type StateStore interface {
	Create(ctx context.Context, state *model.GenerationState) error
	Get(ctx context.Context, examID uuid.UUID) (*model.GenerationState, error)
	Update(ctx context.Context, examID uuid.UUID, upd model.GenerationStateUpdate) error
	Delete(ctx context.Context, examID uuid.UUID) error
}

// ExamStatusStore flips an exam's generation-status flag.
type ExamStatusStore interface {
	UpdateGenerationStatus(ctx context.Context, examID uuid.UUID, status model.GenerationStatus) error
}

// ProgressTracker maintains the durable progress record of a pipeline run.
// Every phase transition is persisted before the phase's work begins, so an
// observer polling mid-run always sees "work about to start", never "work
// done but not recorded".
type ProgressTracker struct {
	states StateStore
	exams  ExamStatusStore
	log    zerolog.Logger
}

// NewProgressTracker creates a ProgressTracker.
func NewProgressTracker(states StateStore, exams ExamStatusStore, log zerolog.Logger) *ProgressTracker {
	return &ProgressTracker{
		states: states,
		exams:  exams,
		log:    log.With().Str("component", "progress_tracker").Logger(),
	}
}

// Begin creates the tracker record in the initializing state. Exactly one
// record may exist per exam id; a duplicate create surfaces the store's
// conflict error.
func (t *ProgressTracker) Begin(ctx context.Context, examID uuid.UUID, totalSteps int) error {
	state := &model.GenerationState{
		ExamID:      examID,
		Status:      model.StateInitializing,
		CurrentStep: 1,
		TotalSteps:  totalSteps,
	}
	if err := t.states.Create(ctx, state); err != nil {
		return fmt.Errorf("create generation state: %w", err)
	}
	return nil
}

// Update applies a partial update to the record. Returns ErrNotFound if no
// record exists for examID.
func (t *ProgressTracker) Update(ctx context.Context, examID uuid.UUID, status model.GenerationStateStatus, step int) error {
	upd := model.GenerationStateUpdate{
		Status:      &status,
		CurrentStep: &step,
	}
	if err := t.states.Update(ctx, examID, upd); err != nil {
		return err
	}
	t.log.Debug().
		Str("exam_id", examID.String()).
		Str("status", string(status)).
		Int("step", step).
		Msg("Phase recorded")
	return nil
}

// MarkFailed sets the record to failed with the given message and flips the
// owning exam's generation status. Idempotent: overwriting an already
// failed record is not an error.
func (t *ProgressTracker) MarkFailed(ctx context.Context, examID uuid.UUID, message string) error {
	status := model.StateFailed
	upd := model.GenerationStateUpdate{
		Status:       &status,
		ErrorMessage: &message,
	}
	if err := t.states.Update(ctx, examID, upd); err != nil {
		return err
	}
	if err := t.exams.UpdateGenerationStatus(ctx, examID, model.GenerationStatusFailed); err != nil {
		return fmt.Errorf("flip exam status to failed: %w", err)
	}
	t.log.Warn().
		Str("exam_id", examID.String()).
		Str("error", message).
		Msg("Generation marked failed")
	return nil
}

// MarkCompleted flips the owning exam's generation status to completed and
// deletes the tracker record. A completed pipeline leaves no tracker
// artifact; a subsequent Load returns ErrNotFound.
func (t *ProgressTracker) MarkCompleted(ctx context.Context, examID uuid.UUID) error {
	if err := t.exams.UpdateGenerationStatus(ctx, examID, model.GenerationStatusCompleted); err != nil {
		return fmt.Errorf("flip exam status to completed: %w", err)
	}
	if err := t.states.Delete(ctx, examID); err != nil {
		return fmt.Errorf("delete generation state: %w", err)
	}
	t.log.Info().Str("exam_id", examID.String()).Msg("Generation completed")
	return nil
}

// Load returns the current record, or ErrNotFound if absent.
func (t *ProgressTracker) Load(ctx context.Context, examID uuid.UUID) (*model.GenerationState, error) {
	return t.states.Get(ctx, examID)
}
