package quizz

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizz-service/backend/internal/models"
)

func TestNewQuestion_RejectsSingleAnswer(t *testing.T) {
	q, err := NewQuestion(1, "Q?", []string{"only-one"})
	assert.Nil(t, q)
	assert.ErrorIs(t, err, ErrAtLeastTwoAnswersRequired)
}

func TestNewQuestion_GeneratesDistinctIDs(t *testing.T) {
	q1, err := NewQuestion(1, "Q?", []string{"A", "B"})
	require.NoError(t, err)
	q2, err := NewQuestion(1, "Q?", []string{"A", "B"})
	require.NoError(t, err)

	assert.NotEmpty(t, q1.ID)
	assert.NotEqual(t, q1.ID, q2.ID)
	assert.Equal(t, []models.VoteResult{{Answer: "A"}, {Answer: "B"}}, q1.Tally())
}

func TestRecordVote(t *testing.T) {
	q, err := NewQuestion(1, "Q?", []string{"A", "B"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		userID  int
		option  int
		wantErr error
	}{
		{name: "first vote", userID: 7, option: 0},
		{name: "same user other option", userID: 7, option: 1, wantErr: ErrDuplicateVote},
		{name: "negative index", userID: 8, option: -1, wantErr: ErrInvalidOptionIndex},
		{name: "index past end", userID: 8, option: 2, wantErr: ErrInvalidOptionIndex},
		{name: "other user", userID: 8, option: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := q.RecordVote(tc.userID, tc.option)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	assert.Equal(t, []models.VoteResult{{Answer: "A", Votes: 1}, {Answer: "B", Votes: 1}}, q.Tally())
	assert.ErrorIs(t, q.RecordVote(8, 0), ErrDuplicateVote)
	assert.NoError(t, q.RecordVote(9, 0))
}

func TestRecordVote_OutOfRangeDoesNotConsumeVote(t *testing.T) {
	q, err := NewQuestion(1, "Q?", []string{"A", "B"})
	require.NoError(t, err)

	assert.ErrorIs(t, q.RecordVote(3, 5), ErrInvalidOptionIndex)
	assert.NoError(t, q.RecordVote(3, 0))
}

func TestRecordVote_ConcurrentDistinctUsers(t *testing.T) {
	q, err := NewQuestion(1, "Q?", []string{"A", "B", "C"})
	require.NoError(t, err)

	const voters = 300
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			assert.NoError(t, q.RecordVote(userID, userID%3))
		}(i)
	}
	wg.Wait()

	for _, r := range q.Tally() {
		assert.Equal(t, voters/3, r.Votes, r.Answer)
	}
}

func TestToModel_ConcurrentWithVotes(t *testing.T) {
	q, err := NewQuestion(1, "Q?", []string{"A", "B"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(userID int) {
			defer wg.Done()
			assert.NoError(t, q.RecordVote(userID, userID%2))
		}(i)
		go func() {
			defer wg.Done()
			assert.Equal(t, []string{"A", "B"}, q.ToModel().Answers)
		}()
	}
	wg.Wait()

	total := 0
	for _, r := range q.Tally() {
		total += r.Votes
	}
	assert.Equal(t, 50, total)
}
