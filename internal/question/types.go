package question

import "strings"

// Answer kinds understood by the evaluator.
const (
	AnswerInt   = "int"
	AnswerFloat = "float"
	AnswerText  = "text"
)

// Question is an immutable task. CorrectAnswer stays server side.
type Question struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Statement     string   `json:"statement"`
	Subject       string   `json:"subject"`
	Topic         string   `json:"topic"`
	Difficulty    int      `json:"difficulty"`
	AnswerType    string   `json:"answer_type"`
	CorrectAnswer string   `json:"correct_answer"`
	Hints         []string `json:"hints"`
}

// NewQuestion is the input for adding a question to the pool.
type NewQuestion struct {
	Title         string   `json:"title"`
	Statement     string   `json:"statement"`
	Subject       string   `json:"subject"`
	Topic         string   `json:"topic"`
	Difficulty    int      `json:"difficulty"`
	AnswerType    string   `json:"answer_type"`
	CorrectAnswer string   `json:"correct_answer"`
	Hints         []string `json:"hints"`
}

func normalizeAnswerType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case AnswerInt:
		return AnswerInt
	case AnswerFloat:
		return AnswerFloat
	default:
		return AnswerText
	}
}
