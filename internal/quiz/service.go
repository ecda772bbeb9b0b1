package quiz

import (
	"context"
	"log"

	"github.com/pkg/errors"

	"github.com/bhaskar601/shikshaoffline/internal/account"
	"github.com/bhaskar601/shikshaoffline/internal/apperr"
	"github.com/bhaskar601/shikshaoffline/internal/bank"
	"github.com/bhaskar601/shikshaoffline/internal/eventlog"
)

type Teachers interface {
	GetTeacher(ctx context.Context, id string) (account.Teacher, error)
	AddCreatedQuiz(ctx context.Context, teacherID, quizID string) error
	RemoveCreatedQuiz(ctx context.Context, teacherID, quizID string) error
}

type Questions interface {
	GetMany(ctx context.Context, ids []string) ([]bank.Question, error)
}

type Events interface {
	Append(ctx context.Context, typ, key string, data any) error
}

// Service ties quizzes to their teachers and the question bank.
type Service struct {
	store     *SQLStore
	teachers  Teachers
	questions Questions
	events    Events
}

func NewService(store *SQLStore, teachers Teachers, questions Questions, events Events) *Service {
	return &Service{store: store, teachers: teachers, questions: questions, events: events}
}

// Create stores a quiz for an existing teacher and records it on the teacher.
func (s *Service) Create(ctx context.Context, q Quiz) (Quiz, error) {
	if err := q.Validate(); err != nil {
		return Quiz{}, err
	}
	if _, err := s.teachers.GetTeacher(ctx, q.TeacherID); err != nil {
		return Quiz{}, err
	}
	if err := s.checkQuestions(ctx, q.Questions); err != nil {
		return Quiz{}, err
	}
	out, err := s.store.Create(ctx, q)
	if err != nil {
		return Quiz{}, err
	}
	if err := s.teachers.AddCreatedQuiz(ctx, out.TeacherID, out.ID); err != nil {
		return Quiz{}, errors.Wrap(err, "quizzes: link teacher")
	}
	if s.events != nil {
		payload := map[string]any{"teacherId": out.TeacherID, "questions": len(out.Questions)}
		if err := s.events.Append(ctx, eventlog.TypeQuizCreated, out.ID, payload); err != nil {
			log.Printf("quizzes: event for %s: %v", out.ID, err)
		}
	}
	return out, nil
}

func (s *Service) checkQuestions(ctx context.Context, ids []string) error {
	found, err := s.questions.GetMany(ctx, ids)
	if err != nil {
		return err
	}
	if len(found) == len(ids) {
		return nil
	}
	have := make(map[string]bool, len(found))
	for _, q := range found {
		have[q.ID] = true
	}
	var flds []apperr.FieldError
	for _, id := range ids {
		if !have[id] {
			flds = append(flds, apperr.FieldError{Field: "questions", Error: "unknown question " + id})
		}
	}
	return apperr.NewValidationError(errors.New("quiz references unknown questions"), flds...)
}

func (s *Service) Get(ctx context.Context, id string) (Populated, error) {
	q, err := s.store.Get(ctx, id)
	if err != nil {
		return Populated{}, err
	}
	return s.populate(ctx, q)
}

func (s *Service) List(ctx context.Context) ([]Populated, error) {
	qs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.populateAll(ctx, qs)
}

func (s *Service) ByTeacher(ctx context.Context, teacherID string) ([]Populated, error) {
	qs, err := s.store.ByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	return s.populateAll(ctx, qs)
}

func (s *Service) ByStudent(ctx context.Context, studentID string) ([]Populated, error) {
	qs, err := s.store.ByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return s.populateAll(ctx, qs)
}

func (s *Service) Update(ctx context.Context, id string, q Quiz) (Quiz, error) {
	old, err := s.store.Get(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	q.TeacherID = old.TeacherID
	if err := q.Validate(); err != nil {
		return Quiz{}, err
	}
	if err := s.checkQuestions(ctx, q.Questions); err != nil {
		return Quiz{}, err
	}
	return s.store.Update(ctx, id, q)
}

// Delete removes the quiz and unlinks it from its teacher.
func (s *Service) Delete(ctx context.Context, id string) error {
	old, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.teachers.RemoveCreatedQuiz(ctx, old.TeacherID, id); err != nil && !apperr.IsNotFound(err) {
		return errors.Wrap(err, "quizzes: unlink teacher")
	}
	return nil
}

func (s *Service) MarkAttempted(ctx context.Context, quizID, studentID string) error {
	return s.store.MarkAttempted(ctx, quizID, studentID)
}

// QuizQuestions returns the quiz's questions in quiz order; it backs quiz
// practice sessions.
func (s *Service) QuizQuestions(ctx context.Context, quizID string) ([]bank.Question, error) {
	q, err := s.store.Get(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return s.questions.GetMany(ctx, q.Questions)
}

func (s *Service) populate(ctx context.Context, q Quiz) (Populated, error) {
	qs, err := s.questions.GetMany(ctx, q.Questions)
	if err != nil {
		return Populated{}, err
	}
	return Populated{
		ID:          q.ID,
		TeacherID:   q.TeacherID,
		Title:       q.Title,
		Questions:   qs,
		AttemptedBy: q.AttemptedBy,
		CreatedAt:   q.CreatedAt,
	}, nil
}

func (s *Service) populateAll(ctx context.Context, qs []Quiz) ([]Populated, error) {
	out := make([]Populated, 0, len(qs))
	for _, q := range qs {
		p, err := s.populate(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
