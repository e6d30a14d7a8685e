package generation

import (
	"fmt"
	"strings"

	"github.com/lexidrill/examgen-backend/internal/model"
)

const (
	// MinPassageWords is the floor applied at the export gate. Shorter
	// passages cannot support four linked question types.
	MinPassageWords = 60

	minPassages  = 1
	maxPassages  = 5
	minQuestions = 5
	maxQuestions = 50
)

// ValidateRequest rejects malformed generation requests synchronously,
// before any tracker or exam state is created. Returns a *ValidationError.
func ValidateRequest(req *model.GenerateExamRequest) error {
	if req.PassageCount < minPassages || req.PassageCount > maxPassages {
		return &ValidationError{Reason: fmt.Sprintf("passage_count must be between %d and %d", minPassages, maxPassages)}
	}
	if req.QuestionCount < minQuestions || req.QuestionCount > maxQuestions {
		return &ValidationError{Reason: fmt.Sprintf("question_count must be between %d and %d", minQuestions, maxQuestions)}
	}
	if len(req.Categories) == 0 {
		return &ValidationError{Reason: "at least one category is required"}
	}
	if len(req.TypeDistribution) == 0 {
		return &ValidationError{Reason: "type_distribution is required"}
	}

	sum := 0
	linked := 0
	for name, count := range req.TypeDistribution {
		qt := model.QuestionType(name)
		if !model.IsLinkedType(qt) && !model.IsStandaloneType(qt) {
			return &ValidationError{Reason: fmt.Sprintf("unknown question type %q", name)}
		}
		if count < 0 {
			return &ValidationError{Reason: fmt.Sprintf("negative count for question type %q", name)}
		}
		sum += count
		if model.IsLinkedType(qt) {
			linked += count
		}
	}
	if sum != req.QuestionCount {
		return &ValidationError{Reason: fmt.Sprintf("type_distribution sums to %d, question_count is %d", sum, req.QuestionCount)}
	}
	if linked > 0 && linked < req.PassageCount {
		return &ValidationError{Reason: fmt.Sprintf("%d linked questions cannot span %d passages", linked, req.PassageCount)}
	}
	return nil
}

// ValidateGraph gates the exported graph against the data-model invariants
// before the single persist. Reaching this with a violation means a
// pipeline bug, not bad input.
func ValidateGraph(exam model.Exam, passages []model.Passage, questions []model.Question) error {
	passageIDs := make(map[string]bool, len(passages))
	for _, p := range passages {
		if p.ExamID != exam.ID {
			return fmt.Errorf("passage %s belongs to exam %s, expected %s", p.ID, p.ExamID, exam.ID)
		}
		if p.WordCount < MinPassageWords {
			return fmt.Errorf("passage %s has %d words, minimum is %d", p.ID, p.WordCount, MinPassageWords)
		}
		passageIDs[p.ID.String()] = true
	}

	for _, q := range questions {
		if q.ExamID != exam.ID {
			return fmt.Errorf("question %s belongs to exam %s, expected %s", q.ID, q.ExamID, exam.ID)
		}
		if q.PassageID != nil && !passageIDs[q.PassageID.String()] {
			return fmt.Errorf("question %s references passage %s outside this exam", q.ID, q.PassageID)
		}
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			return fmt.Errorf("question %s has no correct answer", q.ID)
		}
		if strings.TrimSpace(q.Rationale) == "" {
			return fmt.Errorf("question %s has no rationale", q.ID)
		}
		switch {
		case model.IsLinkedType(q.QuestionType):
			for _, label := range model.OptionLabels {
				if strings.TrimSpace(q.Options[label]) == "" {
					return fmt.Errorf("question %s is missing option %s", q.ID, label)
				}
			}
		case model.IsStandaloneType(q.QuestionType):
			if len(q.SequencingMap) == 0 {
				return fmt.Errorf("question %s has no sequencing map", q.ID)
			}
		}
	}
	return nil
}
