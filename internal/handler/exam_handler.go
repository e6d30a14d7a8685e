package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lexidrill/examgen-backend/internal/generation"
	"github.com/lexidrill/examgen-backend/internal/middleware"
	"github.com/lexidrill/examgen-backend/internal/response"
	"github.com/lexidrill/examgen-backend/internal/service"
)

// ExamHandler serves generated exam artifacts.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// ListExams godoc
// GET /api/v1/exams
// Lists the requester's exams with pagination, newest first.
func (h *ExamHandler) ListExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	exams, pagination, err := h.examService.ListByRequester(c.Request.Context(), claims.RequesterID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, pagination)
}

// GetExam godoc
// GET /api/v1/exams/:exam_id
// Returns the full exam artifact. While generation is in flight the exam
// row carries GENERATING and the content slices are empty.
func (h *ExamHandler) GetExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	artifact, err := h.examService.GetArtifact(c.Request.Context(), examID)
	if err != nil {
		if errors.Is(err, generation.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		} else {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	if artifact.Exam.RequesterID != claims.RequesterID {
		response.Fail(c, http.StatusForbidden, response.ErrNotExamRequester)
		return
	}

	response.Success(c, http.StatusOK, artifact)
}
