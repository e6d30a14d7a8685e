package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lexidrill/examgen-backend/internal/model"
	"github.com/lexidrill/examgen-backend/internal/repository"
	"github.com/lexidrill/examgen-backend/internal/response"
)

// ExamArtifact is the full generated exam as served to clients: the exam
// row plus its passages and questions in presentation order.
type ExamArtifact struct {
	Exam      model.Exam       `json:"exam"`
	Passages  []model.Passage  `json:"passages"`
	Questions []model.Question `json:"questions"`
}

// ExamService serves generated exam artifacts.
type ExamService struct {
	examRepo     *repository.ExamRepository
	passageRepo  *repository.PassageRepository
	questionRepo *repository.QuestionRepository
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	passageRepo *repository.PassageRepository,
	questionRepo *repository.QuestionRepository,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		passageRepo:  passageRepo,
		questionRepo: questionRepo,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves the bare exam row.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// GetArtifact retrieves the exam with its passages and questions. Content
// rows only exist once generation completed, so an in-flight exam comes
// back with empty slices and its GENERATING status.
func (s *ExamService) GetArtifact(ctx context.Context, id uuid.UUID) (*ExamArtifact, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	passages, err := s.passageRepo.ListByExam(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.ListByExam(ctx, id)
	if err != nil {
		return nil, err
	}

	if passages == nil {
		passages = []model.Passage{}
	}
	if questions == nil {
		questions = []model.Question{}
	}

	return &ExamArtifact{Exam: *exam, Passages: passages, Questions: questions}, nil
}

// ListByRequester retrieves a requester's exams, newest first.
func (s *ExamService) ListByRequester(ctx context.Context, requesterID string, page, perPage int) ([]model.Exam, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	exams, total, err := s.examRepo.ListByRequesterPaginated(ctx, requesterID, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	if exams == nil {
		exams = []model.Exam{}
	}

	totalPages := (total + perPage - 1) / perPage

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	return exams, pagination, nil
}
