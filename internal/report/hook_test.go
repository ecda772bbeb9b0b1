package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhaskar601/shikshaoffline/internal/bank"
	"github.com/bhaskar601/shikshaoffline/internal/db/dbtest"
	"github.com/bhaskar601/shikshaoffline/internal/eventlog"
	"github.com/bhaskar601/shikshaoffline/internal/practice"
)

type attempts struct{ quiz, student [][2]string }

func (a *attempts) MarkAttempted(_ context.Context, quizID, studentID string) error {
	a.quiz = append(a.quiz, [2]string{quizID, studentID})
	return nil
}

func (a *attempts) AddAttemptedQuiz(_ context.Context, studentID, quizID string) error {
	a.student = append(a.student, [2]string{studentID, quizID})
	return nil
}

func completion(quizID string) practice.Completion {
	return practice.Completion{
		SessionID: "sess-1",
		StudentID: "stu-1",
		Source: practice.Source{
			Key:    bank.TopicKey{Class: "8", Subject: "science", Topic: "light"},
			QuizID: quizID,
		},
		Summary: practice.Summary{
			Total: 3, CorrectCount: 1, IncorrectCount: 1, UnattemptedCount: 1,
			TotalTimeSeconds: 30, AverageTimePerQuestion: 10, ScorePercent: 33,
		},
		FinishedAt: time.Date(2025, 1, 2, 10, 0, 30, 0, time.UTC),
	}
}

func TestCompletionHookTopicSession(t *testing.T) {
	ctx := context.Background()
	dbh := dbtest.Open(t)
	store := NewStore(dbh)
	events := eventlog.NewRepo(dbh, "")
	a := &attempts{}

	require.NoError(t, CompletionHook(store, a, a, events)(ctx, completion("")))

	reps, err := store.ByStudent(ctx, "stu-1")
	require.NoError(t, err)
	require.Len(t, reps, 1)
	assert.Equal(t, "light", reps[0].Topic)
	assert.Equal(t, 33, reps[0].ScorePercent)
	assert.Equal(t, 10.0, reps[0].AvgTimeSeconds)
	assert.Empty(t, a.quiz)
	assert.Empty(t, a.student)

	ev, err := events.List(ctx, eventlog.TypePracticeCompleted, 10)
	require.NoError(t, err)
	require.Len(t, ev, 1)
	assert.Equal(t, "sess-1", ev[0].Key)
}

func TestCompletionHookQuizSession(t *testing.T) {
	ctx := context.Background()
	store := NewStore(dbtest.Open(t))
	a := &attempts{}

	require.NoError(t, CompletionHook(store, a, a, nil)(ctx, completion("quiz-1")))
	assert.Equal(t, [][2]string{{"quiz-1", "stu-1"}}, a.quiz)
	assert.Equal(t, [][2]string{{"stu-1", "quiz-1"}}, a.student)

	reps, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, reps, 1)
	assert.Equal(t, "quiz-1", reps[0].QuizID)
}
