package generation

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/lexidrill/examgen-backend/internal/model"
)

func fourOptions() map[string]string {
	return map[string]string{"A": "alpha", "B": "bravo", "C": "charlie", "D": "delta"}
}

func TestRegisterPassageAssignsFreshIDs(t *testing.T) {
	b := NewGraphBuilder(uuid.New())

	id1 := b.RegisterPassage("first", 100, model.DifficultyEasy, "narrative", "src-1")
	id2 := b.RegisterPassage("second", 120, model.DifficultyEasy, "expository", "src-2")

	if id1 == id2 {
		t.Fatal("passage ids are not unique")
	}
	if got := b.Stats().Passages; got != 2 {
		t.Errorf("Stats().Passages = %d, want 2", got)
	}
}

func TestRegisterLinkedQuestionRejectsUnknownPassage(t *testing.T) {
	b := NewGraphBuilder(uuid.New())
	b.RegisterPassage("text", 100, model.DifficultyMedium, "narrative", "")

	_, err := b.RegisterLinkedQuestion(uuid.New(), "q?", model.QuestionTypeMainIdea, fourOptions(), model.DifficultyMedium, nil, "")

	var rie *ReferentialIntegrityError
	if !errors.As(err, &rie) {
		t.Fatalf("err = %v, want ReferentialIntegrityError", err)
	}
	// The failed registration must not mutate internal state.
	if got := len(b.ExportQuestions()); got != 0 {
		t.Errorf("question count after failed registration = %d, want 0", got)
	}
}

func TestRegisterLinkedQuestionAfterPassage(t *testing.T) {
	examID := uuid.New()
	b := NewGraphBuilder(examID)
	pid := b.RegisterPassage("text", 100, model.DifficultyMedium, "narrative", "")

	qid, err := b.RegisterLinkedQuestion(pid, "q?", model.QuestionTypeTitle, fourOptions(), model.DifficultyMedium, []string{"reading"}, "")
	if err != nil {
		t.Fatalf("RegisterLinkedQuestion: %v", err)
	}

	questions := b.ExportQuestions()
	if len(questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(questions))
	}
	q := questions[0]
	if q.ID != qid {
		t.Errorf("exported id = %s, want %s", q.ID, qid)
	}
	if q.ExamID != examID {
		t.Errorf("exam id = %s, want %s", q.ExamID, examID)
	}
	if q.PassageID == nil || *q.PassageID != pid {
		t.Errorf("passage id = %v, want %s", q.PassageID, pid)
	}
}

func TestRegisterStandaloneQuestionHasNilPassage(t *testing.T) {
	b := NewGraphBuilder(uuid.New())
	seq := map[string]string{"1": "one", "2": "two", "3": "three", "4": "four"}

	b.RegisterStandaloneQuestion("order these", model.QuestionTypeSentenceOrder, nil, seq, model.DifficultyHard, nil, "")

	questions := b.ExportQuestions()
	if len(questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(questions))
	}
	if questions[0].PassageID != nil {
		t.Error("standalone question has a passage reference")
	}
}

func TestUpdateQuestionPartialMerge(t *testing.T) {
	b := NewGraphBuilder(uuid.New())
	pid := b.RegisterPassage("text", 100, model.DifficultyEasy, "narrative", "")
	qid, _ := b.RegisterLinkedQuestion(pid, "q?", model.QuestionTypeMainIdea, fourOptions(), model.DifficultyEasy, []string{"orig"}, "")

	correct := "C"
	if err := b.UpdateQuestion(qid, QuestionUpdate{CorrectAnswer: &correct}); err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}

	q := b.ExportQuestions()[0]
	if q.CorrectAnswer != "C" {
		t.Errorf("correct answer = %q, want C", q.CorrectAnswer)
	}
	// Fields not in the update are untouched.
	if len(q.Tags) != 1 || q.Tags[0] != "orig" {
		t.Errorf("tags = %v, want [orig]", q.Tags)
	}
	if q.QuestionText != "q?" {
		t.Errorf("question text changed: %q", q.QuestionText)
	}

	rat := "because"
	if err := b.UpdateQuestion(qid, QuestionUpdate{Rationale: &rat}); err != nil {
		t.Fatalf("UpdateQuestion rationale: %v", err)
	}
	q = b.ExportQuestions()[0]
	if q.CorrectAnswer != "C" || q.Rationale != "because" {
		t.Errorf("merge lost fields: correct=%q rationale=%q", q.CorrectAnswer, q.Rationale)
	}
}

func TestUpdateQuestionUnknownID(t *testing.T) {
	b := NewGraphBuilder(uuid.New())
	rat := "x"
	if err := b.UpdateQuestion(uuid.New(), QuestionUpdate{Rationale: &rat}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestExportPassagesRoundTrip(t *testing.T) {
	b := NewGraphBuilder(uuid.New())
	const content = "A passage about glaciers."
	id := b.RegisterPassage(content, 4, model.DifficultyEasy, "expository", "src")

	first := b.ExportPassages()
	second := b.ExportPassages()

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("export lengths = %d, %d; want 1, 1", len(first), len(second))
	}
	if first[0].Content != content {
		t.Errorf("content = %q, want %q", first[0].Content, content)
	}
	if first[0].ID != id || second[0].ID != id {
		t.Error("identifier not stable across repeated exports")
	}
}

func TestExportQuestionsReturnsSnapshots(t *testing.T) {
	b := NewGraphBuilder(uuid.New())
	pid := b.RegisterPassage("text", 100, model.DifficultyEasy, "narrative", "")
	b.RegisterLinkedQuestion(pid, "q?", model.QuestionTypeMainIdea, fourOptions(), model.DifficultyEasy, nil, "A")

	exported := b.ExportQuestions()
	exported[0].Options["A"] = "mutated"

	if b.ExportQuestions()[0].Options["A"] == "mutated" {
		t.Error("export leaked internal option map")
	}
}

func TestExportExam(t *testing.T) {
	examID := uuid.New()
	b := NewGraphBuilder(examID)
	b.RegisterPassage("text", 100, model.DifficultyEasy, "narrative", "anthology-9")

	exam := b.ExportExam("requester-1", "My Exam", 45)
	if exam.ID != examID {
		t.Errorf("exam id = %s, want %s", exam.ID, examID)
	}
	if exam.RequesterID != "requester-1" || exam.Name != "My Exam" || exam.TimeLimitMinutes != 45 {
		t.Errorf("exam fields not carried: %+v", exam)
	}
	if len(exam.SourceMaterialIDs) != 1 || exam.SourceMaterialIDs[0] != "anthology-9" {
		t.Errorf("source materials = %v", exam.SourceMaterialIDs)
	}
	if exam.GenerationStatus != model.GenerationStatusCompleted {
		t.Errorf("generation status = %s", exam.GenerationStatus)
	}
}

func TestStatsCountsByCategory(t *testing.T) {
	b := NewGraphBuilder(uuid.New())
	pid := b.RegisterPassage("text", 100, model.DifficultyEasy, "narrative", "")
	b.RegisterLinkedQuestion(pid, "q1", model.QuestionTypeMainIdea, fourOptions(), model.DifficultyEasy, nil, "")
	b.RegisterLinkedQuestion(pid, "q2", model.QuestionTypeTitle, fourOptions(), model.DifficultyEasy, nil, "")
	b.RegisterStandaloneQuestion("q3", model.QuestionTypeOddOneOut, nil, map[string]string{"1": "a", "2": "b", "3": "c", "4": "d"}, model.DifficultyEasy, nil, "")

	s := b.Stats()
	if s.Passages != 1 || s.LinkedQuestions != 2 || s.StandaloneQuestions != 1 {
		t.Errorf("stats = %+v", s)
	}
}
