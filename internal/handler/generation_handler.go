package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lexidrill/examgen-backend/internal/generation"
	"github.com/lexidrill/examgen-backend/internal/middleware"
	"github.com/lexidrill/examgen-backend/internal/model"
	"github.com/lexidrill/examgen-backend/internal/response"
	"github.com/lexidrill/examgen-backend/internal/service"
	"github.com/lexidrill/examgen-backend/internal/validator"
)

// GenerationHandler handles the generation acceptance and progress endpoints.
type GenerationHandler struct {
	genService *service.GenerationService
}

// NewGenerationHandler creates a new GenerationHandler.
func NewGenerationHandler(genService *service.GenerationService) *GenerationHandler {
	return &GenerationHandler{genService: genService}
}

// Generate godoc
// POST /api/v1/exams/generate
// Accepts a generation request and returns the exam shell immediately; the
// pipeline runs asynchronously in the worker.
func (h *GenerationHandler) Generate(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.GenerateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.genService.Accept(c.Request.Context(), claims.RequesterID, &req)
	if err != nil {
		var ve *generation.ValidationError
		switch {
		case errors.As(err, &ve):
			response.FailWithMessage(c, http.StatusBadRequest, response.ErrValidation, ve.Error())
		case errors.Is(err, service.ErrGenerationInProgress):
			response.Fail(c, http.StatusConflict, response.ErrGenerationInProgress)
		case errors.Is(err, service.ErrNotExamRequester):
			response.Fail(c, http.StatusForbidden, response.ErrNotExamRequester)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"exam": exam})
}

// GetStatus godoc
// GET /api/v1/exams/:exam_id/generation
// Returns the current generation state for polling clients. A completed
// generation has a null state and is_generating false.
func (h *GenerationHandler) GetStatus(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	status, err := h.genService.Status(c.Request.Context(), examID)
	if err != nil {
		if errors.Is(err, generation.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		} else {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, status)
}
