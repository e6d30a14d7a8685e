package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexidrill/examgen-backend/internal/generation"
	"github.com/lexidrill/examgen-backend/internal/model"
)

// GenerationStateRepository persists the pipeline's durable progress
// records. One row per in-flight exam, enforced by the primary key.
type GenerationStateRepository struct {
	pool *pgxpool.Pool
}

// NewGenerationStateRepository creates a new GenerationStateRepository.
func NewGenerationStateRepository(pool *pgxpool.Pool) *GenerationStateRepository {
	return &GenerationStateRepository{pool: pool}
}

// Create inserts the record. A duplicate exam id violates the primary key
// and surfaces as a database error, which acceptance treats as a conflict.
func (r *GenerationStateRepository) Create(ctx context.Context, s *model.GenerationState) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO generation_states (exam_id, status, current_step, total_steps, error_message)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		s.ExamID, s.Status, s.CurrentStep, s.TotalSteps, s.ErrorMessage,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// Get returns the last durably written snapshot, or generation.ErrNotFound.
func (r *GenerationStateRepository) Get(ctx context.Context, examID uuid.UUID) (*model.GenerationState, error) {
	s := &model.GenerationState{}
	err := r.pool.QueryRow(ctx,
		`SELECT exam_id, status, current_step, total_steps, error_message, created_at, updated_at
		 FROM generation_states WHERE exam_id = $1`, examID,
	).Scan(&s.ExamID, &s.Status, &s.CurrentStep, &s.TotalSteps, &s.ErrorMessage,
		&s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, generation.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Update applies a partial update; nil fields keep their stored value.
func (r *GenerationStateRepository) Update(ctx context.Context, examID uuid.UUID, upd model.GenerationStateUpdate) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE generation_states SET
		   status = COALESCE($1, status),
		   current_step = COALESCE($2, current_step),
		   total_steps = COALESCE($3, total_steps),
		   error_message = COALESCE($4, error_message),
		   updated_at = NOW()
		 WHERE exam_id = $5`,
		upd.Status, upd.CurrentStep, upd.TotalSteps, upd.ErrorMessage, examID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return generation.ErrNotFound
	}
	return nil
}

// Delete removes the record on successful completion.
func (r *GenerationStateRepository) Delete(ctx context.Context, examID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM generation_states WHERE exam_id = $1`, examID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return generation.ErrNotFound
	}
	return nil
}
