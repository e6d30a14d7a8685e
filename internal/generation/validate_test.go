package generation

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/lexidrill/examgen-backend/internal/model"
)

func newExamID() uuid.UUID { return uuid.New() }

func wordBlock(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func validRequest() *model.GenerateExamRequest {
	return &model.GenerateExamRequest{
		Categories:       []string{"history"},
		PassageCount:     2,
		QuestionCount:    6,
		TypeDistribution: map[string]int{"main_idea": 3, "title": 2, "sentence_order": 1},
		Difficulty:       model.DifficultyMixed,
	}
}

func TestValidateRequestAccepts(t *testing.T) {
	if err := ValidateRequest(validRequest()); err != nil {
		t.Fatalf("ValidateRequest: %v", err)
	}
}

func TestValidateRequestDistributionMismatch(t *testing.T) {
	req := validRequest()
	req.TypeDistribution["main_idea"] = 10

	err := ValidateRequest(req)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestValidateRequestUnknownType(t *testing.T) {
	req := validRequest()
	req.TypeDistribution = map[string]int{"essay": 6}

	var ve *ValidationError
	if !errors.As(ValidateRequest(req), &ve) {
		t.Fatal("unknown question type accepted")
	}
}

func TestValidateRequestPassageBounds(t *testing.T) {
	req := validRequest()
	req.PassageCount = 9

	var ve *ValidationError
	if !errors.As(ValidateRequest(req), &ve) {
		t.Fatal("out-of-range passage count accepted")
	}
}

func TestValidateRequestQuestionBounds(t *testing.T) {
	req := validRequest()
	req.QuestionCount = 2
	req.TypeDistribution = map[string]int{"main_idea": 2}

	var ve *ValidationError
	if !errors.As(ValidateRequest(req), &ve) {
		t.Fatal("out-of-range question count accepted")
	}
}

func TestValidateGraphRequiresAnswersAndRationales(t *testing.T) {
	b := NewGraphBuilder(newExamID())
	pid := b.RegisterPassage(wordBlock(80), 80, model.DifficultyEasy, "narrative", "")
	b.RegisterLinkedQuestion(pid, "q?", model.QuestionTypeMainIdea, fourOptions(), model.DifficultyEasy, nil, "")

	exam := b.ExportExam("r", "n", 60)
	err := ValidateGraph(exam, b.ExportPassages(), b.ExportQuestions())
	if err == nil {
		t.Fatal("graph with empty correct answer passed validation")
	}
}

func TestValidateGraphRejectsShortPassage(t *testing.T) {
	b := NewGraphBuilder(newExamID())
	b.RegisterPassage(wordBlock(10), 10, model.DifficultyEasy, "narrative", "")

	exam := b.ExportExam("r", "n", 60)
	if err := ValidateGraph(exam, b.ExportPassages(), nil); err == nil {
		t.Fatal("short passage passed validation")
	}
}

func TestValidateGraphAcceptsCompleteGraph(t *testing.T) {
	b := NewGraphBuilder(newExamID())
	pid := b.RegisterPassage(wordBlock(80), 80, model.DifficultyEasy, "narrative", "")
	qid, _ := b.RegisterLinkedQuestion(pid, "q?", model.QuestionTypeMainIdea, fourOptions(), model.DifficultyEasy, nil, "")
	correct, rat := "B", "because"
	b.UpdateQuestion(qid, QuestionUpdate{CorrectAnswer: &correct, Rationale: &rat})

	exam := b.ExportExam("r", "n", 60)
	if err := ValidateGraph(exam, b.ExportPassages(), b.ExportQuestions()); err != nil {
		t.Fatalf("ValidateGraph: %v", err)
	}
}
