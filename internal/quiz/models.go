package quiz

import (
	"github.com/bhaskar601/shikshaoffline/internal/bank"
	"github.com/bhaskar601/shikshaoffline/internal/validate"
)

// Quiz is a teacher's ordered selection of bank questions.
type Quiz struct {
	ID          string   `json:"quizId"`
	TeacherID   string   `json:"teacherId" validate:"required"`
	Title       string   `json:"title"`
	Questions   []string `json:"questions" validate:"min=1,unique,dive,required"`
	AttemptedBy []string `json:"attemptedBy"`
	CreatedAt   int64    `json:"createdAt,omitempty"`
}

func (q Quiz) Validate() error { return validate.Struct(q) }

// Populated is a quiz with its question ids replaced by the questions.
type Populated struct {
	ID          string          `json:"quizId"`
	TeacherID   string          `json:"teacherId"`
	Title       string          `json:"title"`
	Questions   []bank.Question `json:"questions"`
	AttemptedBy []string        `json:"attemptedBy"`
	CreatedAt   int64           `json:"createdAt,omitempty"`
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
