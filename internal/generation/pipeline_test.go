package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lexidrill/examgen-backend/internal/model"
	"github.com/lexidrill/examgen-backend/internal/oracle"
)

// fakeOracle produces deterministic drafts and supports failure injection
// per call kind.
type fakeOracle struct {
	failPassage   bool
	failLinked    bool
	failStandalone bool
	failSelect    bool
	failRationale bool

	passageCalls    int
	linkedCalls     int
	standaloneCalls int
	selectCalls     int
	rationaleCalls  int
}

func (f *fakeOracle) GeneratePassage(_ context.Context, u *oracle.Usage, req oracle.PassageRequest) (*oracle.PassageDraft, error) {
	f.passageCalls++
	u.Record(100, 200)
	if f.failPassage {
		return nil, errors.New("passage generation rejected")
	}
	return &oracle.PassageDraft{
		Content:   strings.TrimSpace(strings.Repeat(fmt.Sprintf("%s word ", req.Category), 50)),
		Genre:     "expository",
		SourceRef: fmt.Sprintf("source-%d", f.passageCalls),
	}, nil
}

func (f *fakeOracle) GenerateLinkedQuestions(_ context.Context, u *oracle.Usage, req oracle.LinkedQuestionsRequest) ([]oracle.QuestionDraft, error) {
	f.linkedCalls++
	u.Record(300, 400)
	if f.failLinked {
		return nil, errors.New("linked question generation rejected")
	}
	var drafts []oracle.QuestionDraft
	for _, qt := range model.LinkedQuestionTypes {
		for i := 0; i < req.Counts[qt]; i++ {
			drafts = append(drafts, oracle.QuestionDraft{
				QuestionText: fmt.Sprintf("%s question %d", qt, i+1),
				QuestionType: qt,
				Options:      map[string]string{"A": "opt a", "B": "opt b", "C": "opt c", "D": "opt d"},
				Tags:         []string{"reading"},
			})
		}
	}
	return drafts, nil
}

func (f *fakeOracle) GenerateStandaloneQuestion(_ context.Context, u *oracle.Usage, req oracle.StandaloneQuestionRequest) (*oracle.StandaloneDraft, error) {
	f.standaloneCalls++
	u.Record(150, 150)
	if f.failStandalone {
		return nil, errors.New("standalone question generation rejected")
	}
	draft := &oracle.StandaloneDraft{
		QuestionText: fmt.Sprintf("%s question", req.Type),
		Fragments:    []string{"first sentence", "second sentence", "third sentence", "fourth sentence"},
		Tags:         []string{"sequencing"},
	}
	if req.Type == model.QuestionTypeOddOneOut {
		draft.OddIndex = 2
	}
	return draft, nil
}

func (f *fakeOracle) SelectAnswers(_ context.Context, u *oracle.Usage, req oracle.AnswerSelectionRequest) ([]string, error) {
	f.selectCalls++
	u.Record(200, 50)
	if f.failSelect {
		return nil, errors.New("answer selection rejected")
	}
	labels := make([]string, len(req.Questions))
	for i := range labels {
		labels[i] = model.OptionLabels[i%len(model.OptionLabels)]
	}
	return labels, nil
}

func (f *fakeOracle) GenerateRationale(_ context.Context, u *oracle.Usage, _ oracle.RationaleRequest) (string, error) {
	f.rationaleCalls++
	u.Record(100, 80)
	if f.failRationale {
		return "", errors.New("rationale generation rejected")
	}
	return "The marked answer follows from the text.", nil
}

// fakeSink collects saved graphs, or refuses.
type fakeSink struct {
	failSave  bool
	saves     int
	exam      model.Exam
	passages  []model.Passage
	questions []model.Question
}

func (s *fakeSink) SaveGraph(_ context.Context, exam model.Exam, passages []model.Passage, questions []model.Question) error {
	if s.failSave {
		return errors.New("connection refused")
	}
	s.saves++
	s.exam = exam
	s.passages = passages
	s.questions = questions
	return nil
}

func testRequest(examID uuid.UUID, passages int, dist map[string]int) Request {
	total := 0
	for _, n := range dist {
		total += n
	}
	return Request{
		ExamID:      examID,
		RequesterID: "requester-1",
		Spec: model.GenerateExamRequest{
			Categories:       []string{"marine biology", "city planning"},
			PassageCount:     passages,
			QuestionCount:    total,
			TypeDistribution: dist,
			Difficulty:       model.DifficultyMedium,
		},
	}
}

func newTestPipeline(o Oracle, sink Sink) (*Pipeline, *ProgressTracker, *memStateStore, *memExamStore) {
	tracker, states, exams := newTestTracker()
	return NewPipeline(o, tracker, sink, zerolog.Nop()), tracker, states, exams
}

func TestPipelineFullRun(t *testing.T) {
	fo := &fakeOracle{}
	sink := &fakeSink{}
	p, tracker, _, exams := newTestPipeline(fo, sink)

	examID := uuid.New()
	req := testRequest(examID, 2, map[string]int{
		"main_idea": 2, "title": 2, "sentence_order": 1, "odd_one_out": 1,
	})
	if err := tracker.Begin(context.Background(), examID, TotalSteps); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	res := p.Run(context.Background(), req)
	if !res.Success {
		t.Fatalf("run failed: %s", res.Message)
	}

	if sink.saves != 1 {
		t.Fatalf("sink saves = %d, want 1", sink.saves)
	}
	if len(sink.passages) != 2 {
		t.Fatalf("persisted %d passages, want 2", len(sink.passages))
	}
	if len(sink.questions) != 6 {
		t.Fatalf("persisted %d questions, want 6", len(sink.questions))
	}

	passageIDs := map[uuid.UUID]bool{}
	for _, p := range sink.passages {
		passageIDs[p.ID] = true
	}
	for _, q := range sink.questions {
		if q.PassageID != nil && !passageIDs[*q.PassageID] {
			t.Errorf("question %s references passage outside the exported set", q.ID)
		}
		if q.CorrectAnswer == "" {
			t.Errorf("question %s persisted without a correct answer", q.ID)
		}
		if q.Rationale == "" {
			t.Errorf("question %s persisted without a rationale", q.ID)
		}
		if q.QuestionType == model.QuestionTypeSentenceOrder && q.CorrectAnswer == "1234" {
			t.Errorf("sentence_order question kept the identity sequence")
		}
	}

	// Tracker record cleaned up; exam flipped to completed.
	if _, err := tracker.Load(context.Background(), examID); !errors.Is(err, ErrNotFound) {
		t.Errorf("tracker record survives completion: %v", err)
	}
	if exams.statuses[examID] != model.GenerationStatusCompleted {
		t.Errorf("exam status = %s, want COMPLETED", exams.statuses[examID])
	}

	if res.Usage.Calls == 0 || res.Usage.TotalTokens() == 0 {
		t.Error("usage accounting is empty")
	}
}

func TestPipelineOracleFailureDuringRationales(t *testing.T) {
	// 1 passage, 4 linked questions; the oracle throws while generating
	// primary rationales.
	fo := &fakeOracle{failRationale: true}
	sink := &fakeSink{}
	p, tracker, _, exams := newTestPipeline(fo, sink)

	examID := uuid.New()
	req := testRequest(examID, 1, map[string]int{"main_idea": 2, "title": 2, "blank_inference": 1})
	tracker.Begin(context.Background(), examID, TotalSteps)

	res := p.Run(context.Background(), req)
	if res.Success {
		t.Fatal("run succeeded despite oracle failure")
	}
	if res.Message == "" {
		t.Error("failure result carries no message")
	}

	// Zero rows written: persistence happens only once, at the end.
	if sink.saves != 0 {
		t.Errorf("sink saves = %d, want 0", sink.saves)
	}

	state, err := tracker.Load(context.Background(), examID)
	if err != nil {
		t.Fatalf("Load after failure: %v", err)
	}
	if state.Status != model.StateFailed {
		t.Errorf("state status = %s, want failed", state.Status)
	}
	if state.ErrorMessage == nil || *state.ErrorMessage == "" {
		t.Error("failure record has no error message")
	}
	if exams.statuses[examID] != model.GenerationStatusFailed {
		t.Errorf("exam status = %s, want FAILED", exams.statuses[examID])
	}
}

func TestPipelineSkipsStandalonePhasesWhenNoneRequested(t *testing.T) {
	fo := &fakeOracle{}
	sink := &fakeSink{}
	p, tracker, _, _ := newTestPipeline(fo, sink)

	examID := uuid.New()
	req := testRequest(examID, 1, map[string]int{"main_idea": 3, "title": 2})
	tracker.Begin(context.Background(), examID, TotalSteps)

	res := p.Run(context.Background(), req)
	if !res.Success {
		t.Fatalf("run failed: %s", res.Message)
	}
	if fo.standaloneCalls != 0 {
		t.Errorf("standalone oracle calls = %d, want 0 (phase should be skipped)", fo.standaloneCalls)
	}
	if len(sink.questions) != 5 {
		t.Errorf("persisted %d questions, want 5", len(sink.questions))
	}
}

func TestPipelinePersistenceFailure(t *testing.T) {
	fo := &fakeOracle{}
	sink := &fakeSink{failSave: true}
	p, tracker, _, exams := newTestPipeline(fo, sink)

	examID := uuid.New()
	req := testRequest(examID, 1, map[string]int{"main_idea": 3, "title": 2})
	tracker.Begin(context.Background(), examID, TotalSteps)

	res := p.Run(context.Background(), req)
	if res.Success {
		t.Fatal("run succeeded despite persistence failure")
	}
	if !strings.Contains(res.Message, "persist generated content") {
		t.Errorf("message = %q, want persistence failure", res.Message)
	}
	if exams.statuses[examID] != model.GenerationStatusFailed {
		t.Errorf("exam status = %s, want FAILED", exams.statuses[examID])
	}
}

func TestPipelineAnswerLabelsSpreadAcrossBatch(t *testing.T) {
	// With 8 linked questions whose pre-shuffle answers cover all labels,
	// the debiased key must still cover all labels at least once over
	// repeated runs (the shuffle must not collapse the distribution).
	covered := map[string]bool{}
	for seed := 0; seed < 5; seed++ {
		fo := &fakeOracle{}
		sink := &fakeSink{}
		p, tracker, _, _ := newTestPipeline(fo, sink)

		examID := uuid.New()
		req := testRequest(examID, 1, map[string]int{"main_idea": 4, "title": 4})
		tracker.Begin(context.Background(), examID, TotalSteps)

		res := p.Run(context.Background(), req)
		if !res.Success {
			t.Fatalf("run failed: %s", res.Message)
		}
		for _, q := range sink.questions {
			covered[q.CorrectAnswer] = true
		}
	}
	for _, label := range model.OptionLabels {
		if !covered[label] {
			t.Errorf("label %s never appears as a correct answer", label)
		}
	}
}
