package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quizz-service/backend/internal/auth"
	"github.com/quizz-service/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for user role in gin context.
	ContextUserRole = "user_role"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
)

// Verifier checks the credentials carried by a request.
type Verifier interface {
	VerifyPassword(email, password string) (auth.Identity, error)
	VerifyToken(token string) (auth.Identity, error)
}

// Authenticate accepts HTTP basic credentials or a bearer token and sets the
// caller's identity in context. Browsers cannot set headers on websocket
// handshakes, so a bearer token may also come from the access_token query
// parameter.
func Authenticate(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if token := c.Query("access_token"); token != "" {
				header = "Bearer " + token
			}
		}
		if header == "" {
			c.Header("WWW-Authenticate", `Basic realm="quizz"`)
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		var (
			id  auth.Identity
			err error
		)
		if email, password, ok := c.Request.BasicAuth(); ok {
			id, err = v.VerifyPassword(email, password)
		} else if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
			id, err = v.VerifyToken(parts[1])
		} else {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		if err != nil {
			response.Unauthorized(c, "invalid credentials")
			c.Abort()
			return
		}

		c.Set(ContextUserID, id.UserID)
		c.Set(ContextUserRole, id.Role)
		c.Set(ContextUserEmail, id.Email)
		c.Next()
	}
}

// Email returns the authenticated email, or "" outside Authenticate.
func Email(c *gin.Context) string {
	return c.GetString(ContextUserEmail)
}
