// Package users exposes registration, login and profile endpoints.
package users

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quizz-service/backend/internal/auth"
	"github.com/quizz-service/backend/internal/middleware"
	"github.com/quizz-service/backend/internal/models"
	"github.com/quizz-service/backend/internal/quizz"
	"github.com/quizz-service/backend/pkg/response"
)

// RegisterRequest is the body for POST /api/quizz/users. Pseudo is the
// historical name of the email field and is accepted as an alias.
type RegisterRequest struct {
	Email    string `json:"email" form:"email"`
	Pseudo   string `json:"pseudo" form:"pseudo"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"` // optional, defaults to the domain policy
}

// LoginRequest is the body for POST /api/quizz/login when no basic
// credentials are sent.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// TokenResponse is the login response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Store is the part of the registry used by this package.
type Store interface {
	RegisterUser(email, credential string, role models.Role) (int, error)
	FindUserIDByEmail(email string) (int, error)
	GetUser(id int) (quizz.User, error)
}

// Authenticator checks passwords and issues tokens.
type Authenticator interface {
	VerifyPassword(email, password string) (auth.Identity, error)
	IssueToken(id auth.Identity) (string, error)
}

// Handler handles user HTTP endpoints.
type Handler struct {
	store          Store
	auth           Authenticator
	teacherDomains []string
	logger         *zap.Logger
}

// NewHandler creates a users handler. Emails ending with one of
// teacherDomains register as teachers unless the request names a role.
func NewHandler(store Store, authenticator Authenticator, teacherDomains []string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, auth: authenticator, teacherDomains: teacherDomains, logger: logger}
}

// Register handles POST /api/quizz/users.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	email := req.Email
	if email == "" {
		email = req.Pseudo
	}

	role, ok := h.roleFor(email, req.Role)
	if !ok {
		response.NotAcceptable(c, "invalid role")
		return
	}

	id, err := h.store.RegisterUser(email, req.Password, role)
	switch {
	case err == nil:
	case errors.Is(err, quizz.ErrEmailAlreadyUsed):
		response.Conflict(c, err.Error())
		return
	case errors.Is(err, quizz.ErrInvalidEmail), errors.Is(err, quizz.ErrCredentialRequired):
		response.NotAcceptable(c, err.Error())
		return
	default:
		h.logger.Error("register user", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	h.logger.Info("user registered", zap.Int("user_id", id), zap.String("role", string(role)))
	location := strings.TrimSuffix(c.Request.URL.Path, "/") + "/" + strconv.Itoa(id)
	response.Created(c, location, models.UserPublic{ID: id, Email: email, Role: role})
}

func (h *Handler) roleFor(email, requested string) (models.Role, bool) {
	if requested != "" {
		return models.ParseRole(requested)
	}
	for _, d := range h.teacherDomains {
		if strings.HasSuffix(email, d) {
			return models.RoleTeacher, true
		}
	}
	return models.RoleStudent, true
}

// Profile handles GET /api/quizz/users/:id. A user may only read their own
// profile.
func (h *Handler) Profile(c *gin.Context) {
	requested, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	id, err := h.store.FindUserIDByEmail(middleware.Email(c))
	if err != nil || id != requested {
		response.Forbidden(c, "access to this profile is forbidden")
		return
	}
	u, err := h.store.GetUser(id)
	if err != nil {
		response.Forbidden(c, "access to this profile is forbidden")
		return
	}
	response.OK(c, u.ToPublic())
}

// Login handles POST /api/quizz/login. Credentials come from HTTP basic auth
// or the request body.
func (h *Handler) Login(c *gin.Context) {
	email, password, ok := c.Request.BasicAuth()
	if !ok {
		var req LoginRequest
		if err := c.ShouldBind(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
		email, password = req.Email, req.Password
	}

	id, err := h.auth.VerifyPassword(email, password)
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	token, err := h.auth.IssueToken(id)
	if err != nil {
		h.logger.Error("issue token", zap.Int("user_id", id.UserID), zap.Error(err))
		response.Internal(c, "failed to generate token")
		return
	}

	c.JSON(http.StatusOK, response.Body{Success: true, Data: TokenResponse{
		Token: token,
		User:  models.UserPublic{ID: id.UserID, Email: id.Email, Role: models.Role(id.Role)},
	}})
}
