package bank

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/bhaskar601/shikshaoffline/internal/apperr"
	"github.com/bhaskar601/shikshaoffline/internal/validate"
)

// Hint is optional help for a question; each part is independently optional.
type Hint struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"` // file name, resolved by the media layer
	Video string `json:"video,omitempty"` // external link
}

func (h *Hint) Empty() bool {
	return h == nil ||
		strings.TrimSpace(h.Text) == "" && strings.TrimSpace(h.Image) == "" && strings.TrimSpace(h.Video) == ""
}

type Question struct {
	ID            string   `json:"id"`
	Class         string   `json:"class" validate:"required,slug"`
	Subject       string   `json:"subject" validate:"required,slug"`
	Topic         string   `json:"topic" validate:"required,slug"`
	Prompt        string   `json:"question" validate:"required"`
	Image         string   `json:"questionImage,omitempty"`
	Options       []string `json:"options" validate:"min=2,unique,dive,required"`
	CorrectAnswer string   `json:"correctAnswer" validate:"required"`
	Hint          *Hint    `json:"hint,omitempty"`
	Position      int      `json:"position,omitempty"`
	CreatedAt     int64    `json:"createdAt,omitempty"`
}

func (q Question) Key() TopicKey {
	return TopicKey{Class: q.Class, Subject: q.Subject, Topic: q.Topic}
}

// Validate checks field rules and that the correct answer is one of the options.
func (q Question) Validate() error {
	if err := validate.Struct(q); err != nil {
		return err
	}
	for _, o := range q.Options {
		if o == q.CorrectAnswer {
			return nil
		}
	}
	return apperr.NewValidationError(errors.New("invalid question"),
		apperr.FieldError{Field: "correctAnswer", Error: "correctAnswer must be one of options"})
}

// TopicKey identifies one practice question set.
type TopicKey struct {
	Class   string `json:"class"`
	Subject string `json:"subject"`
	Topic   string `json:"topic"`
}

type Filter struct {
	Class   string
	Subject string
	Topic   string
	Limit   int
	Offset  int
}
