package auth

import (
	"errors"

	"github.com/quizz-service/backend/internal/quizz"
	"github.com/quizz-service/backend/pkg/utils"
)

// ErrBadCredentials is returned when an email/password pair does not match.
var ErrBadCredentials = errors.New("invalid email or password")

// Identity is the authenticated caller.
type Identity struct {
	UserID int
	Email  string
	Role   string
}

// UserStore is the subset of the registry used to check credentials.
type UserStore interface {
	FindUserIDByEmail(email string) (int, error)
	GetUser(id int) (quizz.User, error)
}

// Authenticator verifies HTTP basic credentials and bearer tokens.
type Authenticator struct {
	users UserStore
	jwt   *JWTService
}

// NewAuthenticator creates an authenticator backed by users and jwt.
func NewAuthenticator(users UserStore, jwt *JWTService) *Authenticator {
	return &Authenticator{users: users, jwt: jwt}
}

// VerifyPassword resolves email exactly and checks password against the
// stored bcrypt hash.
func (a *Authenticator) VerifyPassword(email, password string) (Identity, error) {
	id, err := a.users.FindUserIDByEmail(email)
	if err != nil {
		return Identity{}, ErrBadCredentials
	}
	u, err := a.users.GetUser(id)
	if err != nil {
		return Identity{}, ErrBadCredentials
	}
	if !utils.CheckPassword(password, u.Credential) {
		return Identity{}, ErrBadCredentials
	}
	return Identity{UserID: u.ID, Email: u.Email, Role: string(u.Role)}, nil
}

// VerifyToken validates a bearer token.
func (a *Authenticator) VerifyToken(token string) (Identity, error) {
	claims, err := a.jwt.Validate(token)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}

// IssueToken signs a bearer token for id.
func (a *Authenticator) IssueToken(id Identity) (string, error) {
	return a.jwt.Generate(id.UserID, id.Email, id.Role)
}
