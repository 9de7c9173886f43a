// Package quizz holds the in-memory quiz domain: users, questions, votes and
// their tallies, behind a single Registry that enforces the cross-entity rules.
package quizz

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/quizz-service/backend/internal/models"
)

// CredentialEncoder transforms a validated credential before it is stored
// (e.g. bcrypt hashing done by the HTTP layer).
type CredentialEncoder func(credential string) (string, error)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCredentialEncoder stores encode(credential) instead of the raw value.
func WithCredentialEncoder(encode CredentialEncoder) RegistryOption {
	return func(r *Registry) { r.encode = encode }
}

// Registry owns every user and question. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	users     map[int]User
	byEmail   map[string]int
	questions map[string]*Question
	ids       idSequence

	validate *validator.Validate
	encode   CredentialEncoder
	logger   *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		validate: validator.New(),
		logger:   zap.NewNop(),
	}
	r.clear()
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) clear() {
	r.users = make(map[int]User)
	r.byEmail = make(map[string]int)
	r.questions = make(map[string]*Question)
	r.ids = newIDSequence()
}

// RegisterUser creates a user and returns its id. Checks run in this order:
// email already used, email syntax, blank credential.
//
// The credential is encoded without holding the registry lock; the email is
// checked again under the write lock before the insert.
func (r *Registry) RegisterUser(email, credential string, role models.Role) (int, error) {
	if r.emailUsed(email) {
		return 0, ErrEmailAlreadyUsed
	}
	if err := r.validate.Var(email, "required,email"); err != nil {
		return 0, ErrInvalidEmail
	}
	if strings.TrimSpace(credential) == "" {
		return 0, ErrCredentialRequired
	}
	if r.encode != nil {
		encoded, err := r.encode(credential)
		if err != nil {
			return 0, fmt.Errorf("encode credential: %w", err)
		}
		credential = encoded
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[email]; ok {
		return 0, ErrEmailAlreadyUsed
	}
	u := User{ID: r.ids.Next(), Email: email, Credential: credential, Role: role}
	r.users[u.ID] = u
	r.byEmail[email] = u.ID
	r.logger.Debug("user registered", zap.Int("user_id", u.ID), zap.String("role", string(role)))
	return u.ID, nil
}

func (r *Registry) emailUsed(email string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[email]
	return ok
}

// FindUserIDByEmail returns the id of the user whose email equals email.
func (r *Registry) FindUserIDByEmail(email string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return 0, ErrEmailNotFound
	}
	return id, nil
}

// FindUserByEmail returns the earliest registered user whose email contains
// fragment.
//
// Unlike FindUserIDByEmail this is a substring match, so "b.com" finds
// "a@b.com", and "a@b.com" may find "aa@b.com" if it registered first.
// Callers that need an exact identity should resolve the id with
// FindUserIDByEmail and then call GetUser.
func (r *Registry) FindUserByEmail(fragment string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		found User
		ok    bool
	)
	for _, u := range r.users {
		if strings.Contains(u.Email, fragment) && (!ok || u.ID < found.ID) {
			found, ok = u, true
		}
	}
	if !ok {
		return User{}, ErrUserNotFound
	}
	return found, nil
}

// GetUser returns the user with the given id.
func (r *Registry) GetUser(id int) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

// CreateQuestion stores a new question and returns its id. The author is not
// checked against the registered users.
func (r *Registry) CreateQuestion(authorID int, prompt string, answers ...string) (string, error) {
	if len(answers) < 2 {
		return "", ErrAtLeastTwoAnswersRequired
	}
	if strings.TrimSpace(prompt) == "" {
		return "", ErrPromptRequired
	}
	q, err := NewQuestion(authorID, prompt, answers)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.questions[q.ID] = q
	r.mu.Unlock()

	r.logger.Debug("question created", zap.String("question_id", q.ID), zap.Int("author_id", authorID), zap.Int("answers", len(answers)))
	return q.ID, nil
}

// GetQuestion returns the read model of a question.
func (r *Registry) GetQuestion(questionID string) (models.Question, error) {
	q, err := r.question(questionID)
	if err != nil {
		return models.Question{}, err
	}
	return q.ToModel(), nil
}

// Vote records userID's choice of the answer at optionIndex.
func (r *Registry) Vote(userID int, questionID string, optionIndex int) error {
	q, err := r.question(questionID)
	if err != nil {
		return err
	}
	if err := q.RecordVote(userID, optionIndex); err != nil {
		return err
	}
	r.logger.Debug("vote recorded", zap.String("question_id", questionID), zap.Int("user_id", userID), zap.Int("option", optionIndex))
	return nil
}

// GetResults returns the tally of a question in answer order.
func (r *Registry) GetResults(questionID string) ([]models.VoteResult, error) {
	q, err := r.question(questionID)
	if err != nil {
		return nil, err
	}
	return q.Tally(), nil
}

// Reset drops every user and question and restarts user ids.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clear()
	r.logger.Info("registry reset")
}

func (r *Registry) question(id string) (*Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.questions[id]
	if !ok {
		return nil, ErrQuestionNotFound
	}
	return q, nil
}
