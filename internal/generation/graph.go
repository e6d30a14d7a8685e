package generation

import (
	"time"

	"github.com/google/uuid"

	"github.com/lexidrill/examgen-backend/internal/model"
)

// GraphBuilder is the single source of truth for identifiers and
// referential integrity during one pipeline run. It lives entirely in
// memory and is never shared across runs; nothing is persisted until the
// orchestrator exports and saves the finished graph in one shot.
//
// Registration and UpdateQuestion are the only mutation entry points, so
// the passage-before-question invariant is checked in exactly one place.
type GraphBuilder struct {
	examID        uuid.UUID
	year          int
	passages      map[uuid.UUID]*model.Passage
	passageOrder  []uuid.UUID
	questions     map[uuid.UUID]*model.Question
	questionOrder []uuid.UUID
	sourceIDs     []string
}

// QuestionUpdate is a partial update to a registered question. Nil fields
// are left untouched. Options and SequencingMap are settable so the
// debiasing step can reposition content without bypassing the builder.
type QuestionUpdate struct {
	CorrectAnswer *string
	Rationale     *string
	Tags          []string
	Options       map[string]string
	SequencingMap map[string]string
}

// GraphStats summarizes the accumulated graph for progress logging and
// validation gates.
type GraphStats struct {
	Passages            int
	LinkedQuestions     int
	StandaloneQuestions int
}

// NewGraphBuilder creates an empty builder for one exam.
func NewGraphBuilder(examID uuid.UUID) *GraphBuilder {
	return &GraphBuilder{
		examID:    examID,
		year:      time.Now().Year(),
		passages:  make(map[uuid.UUID]*model.Passage),
		questions: make(map[uuid.UUID]*model.Question),
	}
}

// RegisterPassage assigns a fresh identifier to a new passage. Always
// succeeds.
func (b *GraphBuilder) RegisterPassage(content string, wordCount int, difficulty model.Difficulty, genre, sourceRef string) uuid.UUID {
	id := uuid.New()
	now := time.Now()
	b.passages[id] = &model.Passage{
		ID:         id,
		ExamID:     b.examID,
		Content:    content,
		WordCount:  wordCount,
		Genre:      genre,
		Difficulty: difficulty,
		SourceRef:  sourceRef,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.passageOrder = append(b.passageOrder, id)
	if sourceRef != "" {
		b.sourceIDs = append(b.sourceIDs, sourceRef)
	}
	return id
}

// RegisterLinkedQuestion registers a question owned by a passage. The
// passage must have been registered in this same builder first; otherwise
// a ReferentialIntegrityError is returned and no state is mutated.
func (b *GraphBuilder) RegisterLinkedQuestion(
	passageID uuid.UUID,
	questionText string,
	qt model.QuestionType,
	options map[string]string,
	difficulty model.Difficulty,
	tags []string,
	correctAnswer string,
) (uuid.UUID, error) {
	if _, ok := b.passages[passageID]; !ok {
		return uuid.Nil, &ReferentialIntegrityError{PassageID: passageID}
	}

	id := uuid.New()
	pid := passageID
	b.questions[id] = &model.Question{
		ID:            id,
		ExamID:        b.examID,
		PassageID:     &pid,
		QuestionText:  questionText,
		QuestionType:  qt,
		Options:       copyStringMap(options),
		CorrectAnswer: correctAnswer,
		Difficulty:    difficulty,
		Tags:          copyStrings(tags),
	}
	b.questionOrder = append(b.questionOrder, id)
	return id, nil
}

// RegisterStandaloneQuestion registers a passage-independent question.
// Always succeeds.
func (b *GraphBuilder) RegisterStandaloneQuestion(
	questionText string,
	qt model.QuestionType,
	options map[string]string,
	sequencingMap map[string]string,
	difficulty model.Difficulty,
	tags []string,
	correctAnswer string,
) uuid.UUID {
	id := uuid.New()
	b.questions[id] = &model.Question{
		ID:            id,
		ExamID:        b.examID,
		QuestionText:  questionText,
		QuestionType:  qt,
		Options:       copyStringMap(options),
		SequencingMap: copyStringMap(sequencingMap),
		CorrectAnswer: correctAnswer,
		Difficulty:    difficulty,
		Tags:          copyStrings(tags),
	}
	b.questionOrder = append(b.questionOrder, id)
	return id
}

// UpdateQuestion merges the provided fields into a registered question.
// Returns ErrNotFound for an unknown id.
func (b *GraphBuilder) UpdateQuestion(questionID uuid.UUID, upd QuestionUpdate) error {
	q, ok := b.questions[questionID]
	if !ok {
		return ErrNotFound
	}

	if upd.CorrectAnswer != nil {
		q.CorrectAnswer = *upd.CorrectAnswer
	}
	if upd.Rationale != nil {
		q.Rationale = *upd.Rationale
	}
	if upd.Tags != nil {
		q.Tags = copyStrings(upd.Tags)
	}
	if upd.Options != nil {
		q.Options = copyStringMap(upd.Options)
	}
	if upd.SequencingMap != nil {
		q.SequencingMap = copyStringMap(upd.SequencingMap)
	}
	return nil
}

// ExportPassages returns passage snapshots in registration order. Pure
// read; identifiers are stable across repeated exports within one run.
func (b *GraphBuilder) ExportPassages() []model.Passage {
	out := make([]model.Passage, 0, len(b.passageOrder))
	for _, id := range b.passageOrder {
		out = append(out, *b.passages[id])
	}
	return out
}

// ExportQuestions returns question snapshots in registration order.
func (b *GraphBuilder) ExportQuestions() []model.Question {
	out := make([]model.Question, 0, len(b.questionOrder))
	for _, id := range b.questionOrder {
		q := *b.questions[id]
		q.Options = copyStringMap(q.Options)
		q.SequencingMap = copyStringMap(q.SequencingMap)
		q.Tags = copyStrings(q.Tags)
		out = append(out, q)
	}
	return out
}

// ExportExam produces the persistence-ready exam record.
func (b *GraphBuilder) ExportExam(requesterID, name string, timeLimitMinutes int) model.Exam {
	return model.Exam{
		ID:                b.examID,
		Name:              name,
		Year:              b.year,
		ExamType:          model.ExamTypeCustom,
		IsOfficial:        false,
		RequesterID:       requesterID,
		TimeLimitMinutes:  timeLimitMinutes,
		SourceMaterialIDs: copyStrings(b.sourceIDs),
		GenerationStatus:  model.GenerationStatusCompleted,
	}
}

// Stats counts the accumulated entities by category.
func (b *GraphBuilder) Stats() GraphStats {
	s := GraphStats{Passages: len(b.passageOrder)}
	for _, q := range b.questions {
		if q.PassageID != nil {
			s.LinkedQuestions++
		} else {
			s.StandaloneQuestions++
		}
	}
	return s
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
