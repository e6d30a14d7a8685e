package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lexidrill/examgen-backend/internal/config"
	"github.com/lexidrill/examgen-backend/internal/generation"
	"github.com/lexidrill/examgen-backend/internal/model"
	"github.com/lexidrill/examgen-backend/internal/repository"
)

// Domain Errors
var (
	ErrGenerationInProgress = errors.New("a generation is already running for this exam")
	ErrNotExamRequester     = errors.New("not the requester of this exam")
)

// GenerationJob is the queue payload pushed at acceptance and consumed by
// the generation worker.
type GenerationJob struct {
	ExamID      uuid.UUID                 `json:"exam_id"`
	RequesterID string                    `json:"requester_id"`
	Spec        model.GenerateExamRequest `json:"spec"`
}

// GenerationService owns the acceptance path (validate, lock, create the
// exam shell and tracker record, enqueue) and progress reads. The pipeline
// itself runs in the worker.
type GenerationService struct {
	examRepo  *repository.ExamRepository
	stateRepo *repository.GenerationStateRepository
	tracker   *generation.ProgressTracker
	rdb       *redis.Client
	lockTTL   time.Duration
	log       zerolog.Logger
}

// NewGenerationService creates a new GenerationService.
func NewGenerationService(
	examRepo *repository.ExamRepository,
	stateRepo *repository.GenerationStateRepository,
	tracker *generation.ProgressTracker,
	rdb *redis.Client,
	lockTTL time.Duration,
	log zerolog.Logger,
) *GenerationService {
	return &GenerationService{
		examRepo:  examRepo,
		stateRepo: stateRepo,
		tracker:   tracker,
		rdb:       rdb,
		lockTTL:   lockTTL,
		log:       log.With().Str("component", "generation_service").Logger(),
	}
}

// Accept validates the request, acquires the per-exam generation lock,
// creates the exam shell and tracker record, and enqueues the job. Returns
// the accepted exam so the caller can hand back its id immediately.
func (s *GenerationService) Accept(ctx context.Context, requesterID string, req *model.GenerateExamRequest) (*model.Exam, error) {
	if err := generation.ValidateRequest(req); err != nil {
		return nil, err
	}

	examID := uuid.New()
	if req.ExamID != nil {
		examID = *req.ExamID
	}

	lockKey := config.CacheKey.GenerationLockKey(examID.String())
	acquired, err := s.rdb.SetNX(ctx, lockKey, requesterID, s.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire generation lock: %w", err)
	}
	if !acquired {
		return nil, ErrGenerationInProgress
	}

	exam, err := s.prepareExam(ctx, examID, requesterID, req)
	if err != nil {
		s.rdb.Del(ctx, lockKey)
		return nil, err
	}

	if err := s.tracker.Begin(ctx, examID, generation.TotalSteps); err != nil {
		s.rdb.Del(ctx, lockKey)
		return nil, err
	}

	job := GenerationJob{ExamID: examID, RequesterID: requesterID, Spec: *req}
	payload, err := json.Marshal(job)
	if err != nil {
		s.rdb.Del(ctx, lockKey)
		return nil, fmt.Errorf("marshal generation job: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.GenerateExamsQueue, payload).Err(); err != nil {
		s.rdb.Del(ctx, lockKey)
		return nil, fmt.Errorf("enqueue generation job: %w", err)
	}

	s.rdb.Incr(ctx, config.CacheKey.RequesterActiveGenerationsKey(requesterID))

	s.log.Info().
		Str("exam_id", examID.String()).
		Str("requester_id", requesterID).
		Int("passage_count", req.PassageCount).
		Int("question_count", req.QuestionCount).
		Msg("Generation request accepted")

	return exam, nil
}

// prepareExam creates the GENERATING exam shell. Resubmitting the id of a
// previously failed exam of the same requester resets it for a fresh run;
// any other existing exam is a conflict.
func (s *GenerationService) prepareExam(ctx context.Context, examID uuid.UUID, requesterID string, req *model.GenerateExamRequest) (*model.Exam, error) {
	name := req.Name
	if name == "" {
		name = req.Categories[0] + " practice exam"
	}

	existing, err := s.examRepo.GetByID(ctx, examID)
	if err == nil {
		if existing.RequesterID != requesterID {
			return nil, ErrNotExamRequester
		}
		if existing.GenerationStatus != model.GenerationStatusFailed {
			return nil, ErrGenerationInProgress
		}
		// Retry of a failed run: clear the stale failure record and flip
		// the exam back to GENERATING before the tracker starts over.
		if derr := s.stateRepo.Delete(ctx, examID); derr != nil && !errors.Is(derr, generation.ErrNotFound) {
			return nil, fmt.Errorf("clear failed generation state: %w", derr)
		}
		if uerr := s.examRepo.UpdateGenerationStatus(ctx, examID, model.GenerationStatusGenerating); uerr != nil {
			return nil, uerr
		}
		existing.GenerationStatus = model.GenerationStatusGenerating
		return existing, nil
	}
	if !errors.Is(err, generation.ErrNotFound) {
		return nil, err
	}

	exam := &model.Exam{
		ID:               examID,
		Name:             name,
		Year:             time.Now().Year(),
		ExamType:         model.ExamTypeCustom,
		RequesterID:      requesterID,
		TimeLimitMinutes: req.TimeLimitMinutes,
		GenerationStatus: model.GenerationStatusGenerating,
	}
	if err := s.examRepo.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam shell: %w", err)
	}
	return exam, nil
}

// Status answers the progress poll. A completed run has no tracker record,
// so the state is null and is_generating false; a failed run keeps its
// record with the error message.
func (s *GenerationService) Status(ctx context.Context, examID uuid.UUID) (*model.GenerationStatusResponse, error) {
	state, err := s.tracker.Load(ctx, examID)
	if errors.Is(err, generation.ErrNotFound) {
		if _, gerr := s.examRepo.GetByID(ctx, examID); gerr != nil {
			return nil, gerr
		}
		return &model.GenerationStatusResponse{State: nil, IsGenerating: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &model.GenerationStatusResponse{
		State:        state,
		IsGenerating: state.Status != model.StateFailed,
	}, nil
}

// ReleaseLock drops the acceptance lock and the requester's in-flight
// counter once the pipeline reaches a terminal state.
func (s *GenerationService) ReleaseLock(ctx context.Context, examID uuid.UUID, requesterID string) {
	if err := s.rdb.Del(ctx, config.CacheKey.GenerationLockKey(examID.String())).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Failed to release generation lock")
	}
	key := config.CacheKey.RequesterActiveGenerationsKey(requesterID)
	if n, err := s.rdb.Decr(ctx, key).Result(); err == nil && n <= 0 {
		s.rdb.Del(ctx, key)
	}
}
