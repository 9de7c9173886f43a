package quizz

import (
	"sync"

	"github.com/google/uuid"

	"github.com/quizz-service/backend/internal/models"
)

// Option is one answer of a question with the ids of the users who chose it.
type Option struct {
	Label  string
	Voters []int
}

// Question is a multiple-choice question. Votes are guarded by mu; the other
// fields never change after NewQuestion.
type Question struct {
	ID       string
	AuthorID int
	Prompt   string

	mu      sync.Mutex
	options []Option
	voted   map[int]int // user id -> option index
}

// NewQuestion builds a question with a random id and no votes.
func NewQuestion(authorID int, prompt string, labels []string) (*Question, error) {
	if len(labels) < 2 {
		return nil, ErrAtLeastTwoAnswersRequired
	}
	options := make([]Option, len(labels))
	for i, l := range labels {
		options[i] = Option{Label: l}
	}
	return &Question{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Prompt:   prompt,
		options:  options,
		voted:    make(map[int]int),
	}, nil
}

// RecordVote adds userID to the voters of the option at optionIndex.
// A user can vote once per question, whatever the option.
func (q *Question) RecordVote(userID, optionIndex int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if optionIndex < 0 || optionIndex >= len(q.options) {
		return ErrInvalidOptionIndex
	}
	if _, ok := q.voted[userID]; ok {
		return ErrDuplicateVote
	}
	q.options[optionIndex].Voters = append(q.options[optionIndex].Voters, userID)
	q.voted[userID] = optionIndex
	return nil
}

// Tally returns the vote count of every option in option order.
func (q *Question) Tally() []models.VoteResult {
	q.mu.Lock()
	defer q.mu.Unlock()
	results := make([]models.VoteResult, len(q.options))
	for i, o := range q.options {
		results[i] = models.VoteResult{Answer: o.Label, Votes: len(o.Voters)}
	}
	return results
}

// ToModel returns the read model of q.
func (q *Question) ToModel() models.Question {
	q.mu.Lock()
	defer q.mu.Unlock()
	answers := make([]string, len(q.options))
	for i, o := range q.options {
		answers[i] = o.Label
	}
	return models.Question{ID: q.ID, AuthorID: q.AuthorID, Prompt: q.Prompt, Answers: answers}
}
