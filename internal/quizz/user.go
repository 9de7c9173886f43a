package quizz

import "github.com/quizz-service/backend/internal/models"

// User is a registered account. Values are never mutated after registration.
type User struct {
	ID         int
	Email      string
	Credential string
	Role       models.Role
}

// ToPublic converts User to UserPublic.
func (u User) ToPublic() models.UserPublic {
	return models.UserPublic{ID: u.ID, Email: u.Email, Role: u.Role}
}

// idSequence hands out user ids starting at firstUserID. Not safe for concurrent
// use; the Registry calls it under its write lock.
type idSequence struct {
	next int
}

const firstUserID = 1

func newIDSequence() idSequence {
	return idSequence{next: firstUserID}
}

func (s *idSequence) Next() int {
	id := s.next
	s.next++
	return id
}
