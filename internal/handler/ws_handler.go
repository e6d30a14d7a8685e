package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lexidrill/examgen-backend/internal/middleware"
	"github.com/lexidrill/examgen-backend/internal/model"
	"github.com/lexidrill/examgen-backend/internal/service"
	ws "github.com/lexidrill/examgen-backend/internal/websocket"
)

// generationPollInterval is how often the stream re-reads the tracker
// record. Phase transitions are coarse, so sub-second polling buys nothing.
const generationPollInterval = 1 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams generation progress over WebSocket.
type WSHandler struct {
	genService  *service.GenerationService
	examService *service.ExamService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(genService *service.GenerationService, examService *service.ExamService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		genService:  genService,
		examService: examService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// GenerationStream godoc
// WS /ws/v1/exams/:exam_id/generation
// Upgrades to WebSocket and pushes a frame on every observed phase
// transition, ending with a completed or failed frame.
func (h *WSHandler) GenerationStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}

	ctx := context.Background()

	exam, err := h.examService.GetByID(ctx, examID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "exam not found"})
		return
	}
	if exam.RequesterID != claims.RequesterID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the requester of this exam"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("requester_id", claims.RequesterID).
		Str("exam_id", examID.String()).
		Logger()
	wsLog.Info().Msg("Progress stream connected")

	// Reader goroutine: answers pings and unblocks the loop when the
	// client goes away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				return
			}
			switch msg.Action {
			case ws.ActionPing:
				ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionClose:
				return
			}
		}
	}()

	ticker := time.NewTicker(generationPollInterval)
	defer ticker.Stop()

	lastStatus := ""
	lastStep := -1

	for {
		select {
		case <-done:
			wsLog.Debug().Msg("Client disconnected")
			return

		case <-ticker.C:
			status, err := h.genService.Status(ctx, examID)
			if err != nil {
				ws.WriteError(conn, "failed to read generation state")
				return
			}

			if status.State == nil {
				ws.WriteTyped(conn, ws.CompletedResponse{Event: ws.EventCompleted, ExamID: examID.String()})
				wsLog.Info().Msg("Progress stream finished")
				return
			}

			if status.State.Status == model.StateFailed {
				errMsg := "generation failed"
				if status.State.ErrorMessage != nil {
					errMsg = *status.State.ErrorMessage
				}
				ws.WriteTyped(conn, ws.FailedResponse{Event: ws.EventFailed, Error: errMsg})
				wsLog.Info().Msg("Progress stream finished with failure")
				return
			}

			if string(status.State.Status) != lastStatus || status.State.CurrentStep != lastStep {
				lastStatus = string(status.State.Status)
				lastStep = status.State.CurrentStep
				ws.WriteTyped(conn, ws.ProgressResponse{
					Event:       ws.EventProgress,
					Status:      lastStatus,
					CurrentStep: lastStep,
					TotalSteps:  status.State.TotalSteps,
				})
			}
		}
	}
}
