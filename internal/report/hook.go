package report

import (
	"context"
	"log"

	"github.com/bhaskar601/shikshaoffline/internal/eventlog"
	"github.com/bhaskar601/shikshaoffline/internal/practice"
)

type QuizAttempts interface {
	MarkAttempted(ctx context.Context, quizID, studentID string) error
}

type StudentAttempts interface {
	AddAttemptedQuiz(ctx context.Context, studentID, quizID string) error
}

type Events interface {
	Append(ctx context.Context, typ, key string, data any) error
}

// FromCompletion turns a finished practice session into a report.
func FromCompletion(c practice.Completion) Report {
	s := c.Summary
	return Report{
		StudentID:        c.StudentID,
		QuizID:           c.Source.QuizID,
		Class:            c.Source.Key.Class,
		Subject:          c.Source.Key.Subject,
		Topic:            c.Source.Key.Topic,
		Total:            s.Total,
		Correct:          s.CorrectCount,
		Incorrect:        s.IncorrectCount,
		Unattempted:      s.UnattemptedCount,
		ScorePercent:     s.ScorePercent,
		TotalTimeSeconds: s.TotalTimeSeconds,
		AvgTimeSeconds:   s.AverageTimePerQuestion,
		CreatedAt:        c.FinishedAt.Unix(),
	}
}

// CompletionHook stores a report for every completed session. Quiz sessions
// are also recorded on the quiz and the student. quizzes, students and events
// may be nil.
func CompletionHook(store *Store, quizzes QuizAttempts, students StudentAttempts, events Events) practice.CompletionHook {
	return func(ctx context.Context, c practice.Completion) error {
		r, err := store.Create(ctx, FromCompletion(c))
		if err != nil {
			return err
		}
		if q := c.Source.QuizID; q != "" {
			if quizzes != nil {
				if err := quizzes.MarkAttempted(ctx, q, c.StudentID); err != nil {
					log.Printf("report: mark quiz %s attempted: %v", q, err)
				}
			}
			if students != nil {
				if err := students.AddAttemptedQuiz(ctx, c.StudentID, q); err != nil {
					log.Printf("report: add attempted quiz for %s: %v", c.StudentID, err)
				}
			}
		}
		if events != nil {
			payload := map[string]any{
				"studentId":    c.StudentID,
				"reportId":     r.ID,
				"source":       c.Source,
				"scorePercent": r.ScorePercent,
			}
			if err := events.Append(ctx, eventlog.TypePracticeCompleted, c.SessionID, payload); err != nil {
				log.Printf("report: event for session %s: %v", c.SessionID, err)
			}
		}
		return nil
	}
}
