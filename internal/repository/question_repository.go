package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexidrill/examgen-backend/internal/model"
)

// QuestionRepository handles question reads. Writes happen only through
// ContentRepository.SaveGraph.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam returns an exam's questions in insertion order.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, passage_id, question_text, question_type,
		        options, sequencing_map, correct_answer, rationale, difficulty, tags
		 FROM questions WHERE exam_id = $1
		 ORDER BY order_num, id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var (
			q       model.Question
			options []byte
			seqMap  []byte
		)
		if err := rows.Scan(&q.ID, &q.ExamID, &q.PassageID, &q.QuestionText, &q.QuestionType,
			&options, &seqMap, &q.CorrectAnswer, &q.Rationale, &q.Difficulty, &q.Tags); err != nil {
			return nil, err
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &q.Options); err != nil {
				return nil, err
			}
		}
		if len(seqMap) > 0 {
			if err := json.Unmarshal(seqMap, &q.SequencingMap); err != nil {
				return nil, err
			}
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
