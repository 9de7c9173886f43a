// Package questions exposes quiz question, vote and results endpoints.
package questions

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quizz-service/backend/internal/middleware"
	"github.com/quizz-service/backend/internal/models"
	"github.com/quizz-service/backend/internal/quizz"
	"github.com/quizz-service/backend/internal/realtime"
	"github.com/quizz-service/backend/pkg/response"
)

// CreateRequest is the body for POST /api/quizz/questions.
type CreateRequest struct {
	Prompt  string   `json:"prompt"`
	Answers []string `json:"answers"`
}

// VoteRequest carries the zero-based index of the chosen answer, from the
// query string, a form body or JSON.
type VoteRequest struct {
	AnswerIndex *int `json:"answer_index" form:"answer_index" binding:"required"`
}

// Store is the part of the registry used by this package.
type Store interface {
	FindUserIDByEmail(email string) (int, error)
	CreateQuestion(authorID int, prompt string, answers ...string) (string, error)
	GetQuestion(questionID string) (models.Question, error)
	Vote(userID int, questionID string, optionIndex int) error
	GetResults(questionID string) ([]models.VoteResult, error)
}

// Notifier pushes live events to clients watching a question.
type Notifier interface {
	Publish(questionID, event string, payload interface{})
}

// Handler handles question HTTP endpoints.
type Handler struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
}

// NewHandler creates a questions handler. notifier may be nil.
func NewHandler(store Store, notifier Notifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, notifier: notifier, logger: logger}
}

// Create handles POST /api/quizz/questions (teacher).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	authorID, err := h.store.FindUserIDByEmail(middleware.Email(c))
	if err != nil {
		response.Forbidden(c, "unknown user")
		return
	}

	id, err := h.store.CreateQuestion(authorID, req.Prompt, req.Answers...)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.Info("question created", zap.String("question_id", id), zap.Int("author_id", authorID))
	location := strings.TrimSuffix(c.Request.URL.Path, "/") + "/" + id
	response.Created(c, location, gin.H{"id": id})
}

// Get handles GET /api/quizz/questions/:id.
func (h *Handler) Get(c *gin.Context) {
	q, err := h.store.GetQuestion(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, q)
}

// Vote handles PUT /api/quizz/questions/:id/vote (student).
func (h *Handler) Vote(c *gin.Context) {
	questionID := c.Param("id")

	var req VoteRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid request: answer_index is required")
		return
	}

	userID, err := h.store.FindUserIDByEmail(middleware.Email(c))
	if err != nil {
		response.Forbidden(c, "unknown user")
		return
	}

	if err := h.store.Vote(userID, questionID, *req.AnswerIndex); err != nil {
		h.writeError(c, err)
		return
	}
	h.publishResults(questionID)
	response.Accepted(c, gin.H{"question_id": questionID, "answer_index": *req.AnswerIndex})
}

// Results handles GET /api/quizz/questions/:id/vote (teacher).
func (h *Handler) Results(c *gin.Context) {
	results, err := h.store.GetResults(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, results)
}

// Live handles GET /api/quizz/questions/:id/live (teacher). The connection
// receives the current results, then every update.
func (h *Handler) Live(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		questionID := c.Param("id")
		if _, err := h.store.GetQuestion(questionID); err != nil {
			h.writeError(c, err)
			return
		}
		realtime.Serve(c, hub, h.logger, questionID, c.GetInt(middleware.ContextUserID), func() (interface{}, error) {
			return h.store.GetResults(questionID)
		})
	}
}

func (h *Handler) publishResults(questionID string) {
	if h.notifier == nil {
		return
	}
	results, err := h.store.GetResults(questionID)
	if err != nil {
		h.logger.Warn("results after vote", zap.String("question_id", questionID), zap.Error(err))
		return
	}
	h.notifier.Publish(questionID, realtime.EventResults, results)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case quizz.IsNotFound(err):
		response.NotFound(c, err.Error())
	case quizz.IsConflict(err):
		response.Conflict(c, err.Error())
	case quizz.IsValidation(err):
		response.NotAcceptable(c, err.Error())
	default:
		h.logger.Error("unexpected quizz error", zap.Error(err))
		response.Internal(c, "internal error")
	}
}

// Resetter clears all quiz state.
type Resetter interface {
	Reset()
}

// ResetHandler handles POST /api/quizz/reset.
func ResetHandler(r Resetter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		r.Reset()
		if logger != nil {
			logger.Warn("quizz state reset", zap.String("client_ip", c.ClientIP()))
		}
		response.NoContent(c)
	}
}
