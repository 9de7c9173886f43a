package quizz

import "errors"

// Validation failures.
var (
	ErrEmailAlreadyUsed          = errors.New("email already used")
	ErrInvalidEmail              = errors.New("invalid email")
	ErrCredentialRequired        = errors.New("credential required")
	ErrAtLeastTwoAnswersRequired = errors.New("at least two answers required")
	ErrPromptRequired            = errors.New("question prompt required")
	ErrInvalidOptionIndex        = errors.New("invalid option index")
)

// Not-found failures.
var (
	ErrEmailNotFound    = errors.New("email not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrQuestionNotFound = errors.New("question not found")
)

// ErrDuplicateVote is returned when a user votes twice on the same question.
var ErrDuplicateVote = errors.New("user already voted for this question")

// IsValidation reports whether err is a caller-input failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmailAlreadyUsed) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrCredentialRequired) ||
		errors.Is(err, ErrAtLeastTwoAnswersRequired) ||
		errors.Is(err, ErrPromptRequired) ||
		errors.Is(err, ErrInvalidOptionIndex)
}

// IsNotFound reports whether err signals a missing user, email or question.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmailNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrQuestionNotFound)
}

// IsConflict reports whether err is a business-rule conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateVote)
}
