// Package server wires the quizz HTTP routes.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quizz-service/backend/internal/auth"
	"github.com/quizz-service/backend/internal/middleware"
	"github.com/quizz-service/backend/internal/models"
	"github.com/quizz-service/backend/internal/questions"
	"github.com/quizz-service/backend/internal/quizz"
	"github.com/quizz-service/backend/internal/realtime"
	"github.com/quizz-service/backend/internal/users"
	"github.com/quizz-service/backend/pkg/response"
)

// Deps are the collaborators the router needs.
type Deps struct {
	Registry       *quizz.Registry
	Auth           *auth.Authenticator
	Hub            *realtime.Hub
	VoteLimiter    *middleware.UserRateLimiter
	Logger         *zap.Logger
	CORSOrigins    string
	TeacherDomains []string
	AllowReset     bool
}

// NewRouter builds the gin engine with every quizz route.
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	userHandler := users.NewHandler(d.Registry, d.Auth, d.TeacherDomains, logger)
	var notifier questions.Notifier
	if d.Hub != nil {
		notifier = d.Hub
	}
	questionHandler := questions.NewHandler(d.Registry, notifier, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(d.CORSOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	api := router.Group("/api/quizz")

	// Public
	api.POST("/users", userHandler.Register)
	api.POST("/login", userHandler.Login)
	if d.AllowReset {
		api.POST("/reset", questions.ResetHandler(d.Registry, logger))
	}

	// Authenticated
	authed := api.Group("")
	authed.Use(middleware.Authenticate(d.Auth))
	{
		authed.GET("/users/:id", userHandler.Profile)

		authed.POST("/questions", middleware.RequireRole(models.RoleTeacher), questionHandler.Create)
		authed.GET("/questions/:id", questionHandler.Get)

		vote := []gin.HandlerFunc{middleware.RequireRole(models.RoleStudent)}
		if d.VoteLimiter != nil {
			vote = append(vote, d.VoteLimiter.Middleware())
		}
		authed.PUT("/questions/:id/vote", append(vote, questionHandler.Vote)...)

		authed.GET("/questions/:id/vote", middleware.RequireRole(models.RoleTeacher), questionHandler.Results)
		if d.Hub != nil {
			authed.GET("/questions/:id/live", middleware.RequireRole(models.RoleTeacher), questionHandler.Live(d.Hub))
		}
	}

	return router
}
