package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexidrill/examgen-backend/internal/model"
)

// ContentRepository persists a completed generation run. The exported exam,
// its passages and its questions land in one transaction so a crash midway
// never leaves a partially written exam visible.
type ContentRepository struct {
	pool *pgxpool.Pool
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(pool *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{pool: pool}
}

// SaveGraph writes the generated content for an exam. The exam row already
// exists with status GENERATING; this updates its final fields, inserts the
// passages and questions, and marks the exam completed atomically.
func (r *ContentRepository) SaveGraph(ctx context.Context, exam model.Exam, passages []model.Passage, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE exams
		 SET name = $2, year = $3, time_limit_minutes = $4,
		     source_material_ids = $5, generation_status = $6, updated_at = NOW()
		 WHERE id = $1`,
		exam.ID, exam.Name, exam.Year, exam.TimeLimitMinutes,
		exam.SourceMaterialIDs, exam.GenerationStatus)
	if err != nil {
		return err
	}

	for i, p := range passages {
		_, err = tx.Exec(ctx,
			`INSERT INTO passages (id, exam_id, content, word_count, genre, difficulty, source_ref, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			p.ID, p.ExamID, p.Content, p.WordCount, p.Genre, p.Difficulty, p.SourceRef, i+1)
		if err != nil {
			return err
		}
	}

	for i, q := range questions {
		var options, seqMap []byte
		if q.Options != nil {
			if options, err = json.Marshal(q.Options); err != nil {
				return err
			}
		}
		if q.SequencingMap != nil {
			if seqMap, err = json.Marshal(q.SequencingMap); err != nil {
				return err
			}
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO questions (id, exam_id, passage_id, question_text, question_type,
			                        options, sequencing_map, correct_answer, rationale, difficulty, tags, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			q.ID, q.ExamID, q.PassageID, q.QuestionText, q.QuestionType,
			options, seqMap, q.CorrectAnswer, q.Rationale, q.Difficulty, q.Tags, i+1)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
