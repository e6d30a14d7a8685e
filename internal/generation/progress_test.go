package generation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lexidrill/examgen-backend/internal/model"
)

// memStateStore is an in-memory StateStore for tests.
type memStateStore struct {
	states map[uuid.UUID]*model.GenerationState
}

func newMemStateStore() *memStateStore {
	return &memStateStore{states: make(map[uuid.UUID]*model.GenerationState)}
}

func (s *memStateStore) Create(_ context.Context, state *model.GenerationState) error {
	if _, ok := s.states[state.ExamID]; ok {
		return fmt.Errorf("generation state already exists for exam %s", state.ExamID)
	}
	cp := *state
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.states[state.ExamID] = &cp
	return nil
}

func (s *memStateStore) Get(_ context.Context, examID uuid.UUID) (*model.GenerationState, error) {
	state, ok := s.states[examID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *state
	return &cp, nil
}

func (s *memStateStore) Update(_ context.Context, examID uuid.UUID, upd model.GenerationStateUpdate) error {
	state, ok := s.states[examID]
	if !ok {
		return ErrNotFound
	}
	if upd.Status != nil {
		state.Status = *upd.Status
	}
	if upd.CurrentStep != nil {
		state.CurrentStep = *upd.CurrentStep
	}
	if upd.TotalSteps != nil {
		state.TotalSteps = *upd.TotalSteps
	}
	if upd.ErrorMessage != nil {
		state.ErrorMessage = upd.ErrorMessage
	}
	state.UpdatedAt = time.Now()
	return nil
}

func (s *memStateStore) Delete(_ context.Context, examID uuid.UUID) error {
	if _, ok := s.states[examID]; !ok {
		return ErrNotFound
	}
	delete(s.states, examID)
	return nil
}

// memExamStore records generation-status flips.
type memExamStore struct {
	statuses map[uuid.UUID]model.GenerationStatus
}

func newMemExamStore() *memExamStore {
	return &memExamStore{statuses: make(map[uuid.UUID]model.GenerationStatus)}
}

func (s *memExamStore) UpdateGenerationStatus(_ context.Context, examID uuid.UUID, status model.GenerationStatus) error {
	s.statuses[examID] = status
	return nil
}

func newTestTracker() (*ProgressTracker, *memStateStore, *memExamStore) {
	states := newMemStateStore()
	exams := newMemExamStore()
	return NewProgressTracker(states, exams, zerolog.Nop()), states, exams
}

func TestTrackerBeginCreatesInitializing(t *testing.T) {
	tracker, _, _ := newTestTracker()
	examID := uuid.New()

	if err := tracker.Begin(context.Background(), examID, TotalSteps); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	state, err := tracker.Load(context.Background(), examID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.Status != model.StateInitializing || state.CurrentStep != 1 || state.TotalSteps != TotalSteps {
		t.Errorf("state = %+v", state)
	}
}

func TestTrackerBeginRejectsDuplicate(t *testing.T) {
	tracker, _, _ := newTestTracker()
	examID := uuid.New()

	if err := tracker.Begin(context.Background(), examID, TotalSteps); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tracker.Begin(context.Background(), examID, TotalSteps); err == nil {
		t.Fatal("second Begin for the same exam id succeeded")
	}
}

func TestTrackerUpdateUnknownExam(t *testing.T) {
	tracker, _, _ := newTestTracker()

	err := tracker.Update(context.Background(), uuid.New(), model.StateGeneratingPassages, 2)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestTrackerMarkFailedRetainsMessageAndFlipsExam(t *testing.T) {
	tracker, _, exams := newTestTracker()
	examID := uuid.New()
	tracker.Begin(context.Background(), examID, TotalSteps)

	if err := tracker.MarkFailed(context.Background(), examID, "oracle exploded"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	state, err := tracker.Load(context.Background(), examID)
	if err != nil {
		t.Fatalf("Load after MarkFailed: %v", err)
	}
	if state.Status != model.StateFailed {
		t.Errorf("status = %s, want failed", state.Status)
	}
	if state.ErrorMessage == nil || *state.ErrorMessage != "oracle exploded" {
		t.Errorf("error message = %v", state.ErrorMessage)
	}
	if exams.statuses[examID] != model.GenerationStatusFailed {
		t.Errorf("exam status = %s, want FAILED", exams.statuses[examID])
	}
}

func TestTrackerMarkFailedIsIdempotent(t *testing.T) {
	tracker, _, _ := newTestTracker()
	examID := uuid.New()
	tracker.Begin(context.Background(), examID, TotalSteps)

	if err := tracker.MarkFailed(context.Background(), examID, "first"); err != nil {
		t.Fatalf("first MarkFailed: %v", err)
	}
	if err := tracker.MarkFailed(context.Background(), examID, "second"); err != nil {
		t.Fatalf("second MarkFailed: %v", err)
	}

	state, _ := tracker.Load(context.Background(), examID)
	if state.ErrorMessage == nil || *state.ErrorMessage != "second" {
		t.Errorf("error message = %v, want overwrite", state.ErrorMessage)
	}
}

func TestTrackerMarkCompletedDeletesRecord(t *testing.T) {
	tracker, _, exams := newTestTracker()
	examID := uuid.New()
	tracker.Begin(context.Background(), examID, TotalSteps)

	if err := tracker.MarkCompleted(context.Background(), examID); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	if _, err := tracker.Load(context.Background(), examID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load after MarkCompleted = %v, want ErrNotFound", err)
	}
	if exams.statuses[examID] != model.GenerationStatusCompleted {
		t.Errorf("exam status = %s, want COMPLETED", exams.statuses[examID])
	}
}
