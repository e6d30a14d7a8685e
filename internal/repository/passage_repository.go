package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexidrill/examgen-backend/internal/model"
)

// PassageRepository handles passage reads. Writes happen only through
// ContentRepository.SaveGraph.
type PassageRepository struct {
	pool *pgxpool.Pool
}

// NewPassageRepository creates a new PassageRepository.
func NewPassageRepository(pool *pgxpool.Pool) *PassageRepository {
	return &PassageRepository{pool: pool}
}

// ListByExam returns an exam's passages in insertion order.
func (r *PassageRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Passage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, content, word_count, genre, difficulty, source_ref,
		        is_archived, is_featured, created_at, updated_at
		 FROM passages WHERE exam_id = $1
		 ORDER BY order_num, id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passages []model.Passage
	for rows.Next() {
		var p model.Passage
		if err := rows.Scan(&p.ID, &p.ExamID, &p.Content, &p.WordCount, &p.Genre,
			&p.Difficulty, &p.SourceRef, &p.IsArchived, &p.IsFeatured,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		passages = append(passages, p)
	}
	return passages, rows.Err()
}
