package models

// Question is the read model of a quiz question.
type Question struct {
	ID       string   `json:"id"`
	AuthorID int      `json:"author_id"`
	Prompt   string   `json:"prompt"`
	Answers  []string `json:"answers"`
}

// VoteResult is the tally of one answer, in answer order.
type VoteResult struct {
	Answer string `json:"answer"`
	Votes  int    `json:"votes"`
}
