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

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// Create inserts a new exam. Called once at request acceptance, before the
// pipeline starts; content rows arrive later in one transaction.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (id, name, year, exam_type, is_official, requester_id,
		                    time_limit_minutes, source_material_ids, generation_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at`,
		e.ID, e.Name, e.Year, e.ExamType, e.IsOfficial, e.RequesterID,
		e.TimeLimitMinutes, e.SourceMaterialIDs, e.GenerationStatus,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, year, exam_type, is_official, requester_id,
		        time_limit_minutes, source_material_ids, generation_status,
		        created_at, updated_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.Year, &e.ExamType, &e.IsOfficial, &e.RequesterID,
		&e.TimeLimitMinutes, &e.SourceMaterialIDs, &e.GenerationStatus,
		&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, generation.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListByRequesterPaginated retrieves a requester's exams newest-first.
func (r *ExamRepository) ListByRequesterPaginated(ctx context.Context, requesterID string, limit, offset int) ([]model.Exam, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exams WHERE requester_id = $1`, requesterID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, year, exam_type, is_official, requester_id,
		        time_limit_minutes, source_material_ids, generation_status,
		        created_at, updated_at
		 FROM exams WHERE requester_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		requesterID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Name, &e.Year, &e.ExamType, &e.IsOfficial, &e.RequesterID,
			&e.TimeLimitMinutes, &e.SourceMaterialIDs, &e.GenerationStatus,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		exams = append(exams, e)
	}
	return exams, total, rows.Err()
}

// UpdateGenerationStatus flips an exam's generation-status flag. Satisfies
// the pipeline's ExamStatusStore.
func (r *ExamRepository) UpdateGenerationStatus(ctx context.Context, id uuid.UUID, status model.GenerationStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams SET generation_status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return generation.ErrNotFound
	}
	return nil
}
