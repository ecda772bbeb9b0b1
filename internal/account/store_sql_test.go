package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bhaskar601/shikshaoffline/internal/apperr"
	"github.com/bhaskar601/shikshaoffline/internal/db/dbtest"
	"github.com/bhaskar601/shikshaoffline/internal/school"
)

func newStore(t *testing.T) *SQLStore {
	t.Helper()
	dbh := dbtest.Open(t)
	schools := school.NewStore(dbh)
	_, err := schools.Create(context.Background(), school.School{ID: "zp-12", Name: "ZP School"})
	require.NoError(t, err)
	return NewSQLStore(dbh, schools, bcrypt.MinCost)
}

func asha() StudentRegistration {
	return StudentRegistration{
		Student:  Student{ID: "stu-1", Name: "Asha", Email: "Asha@Example.org", SchoolID: "zp-12", Class: "8"},
		Password: "secret1",
	}
}

func TestRegisterAndAuthenticateStudent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	st, err := s.RegisterStudent(ctx, asha())
	require.NoError(t, err)
	assert.Equal(t, "asha@example.org", st.Email)
	assert.Empty(t, st.QuizzesAttempted)

	_, err = s.RegisterStudent(ctx, asha())
	assert.True(t, apperr.IsConflict(err))

	bad := asha()
	bad.ID = "stu-2"
	bad.SchoolID = "nowhere"
	_, err = s.RegisterStudent(ctx, bad)
	assert.True(t, apperr.IsNotFound(err))

	got, err := s.AuthenticateStudent(ctx, "stu-1", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)

	_, err = s.AuthenticateStudent(ctx, "stu-1", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.AuthenticateStudent(ctx, "ghost", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateStudentPassword(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := s.RegisterStudent(ctx, asha())
	require.NoError(t, err)

	upd := asha().Student
	upd.Class = "9"
	st, err := s.UpdateStudent(ctx, "stu-1", upd, "")
	require.NoError(t, err)
	assert.Equal(t, "9", st.Class)
	_, err = s.AuthenticateStudent(ctx, "stu-1", "secret1")
	require.NoError(t, err)

	_, err = s.UpdateStudent(ctx, "stu-1", upd, "newpass")
	require.NoError(t, err)
	_, err = s.AuthenticateStudent(ctx, "stu-1", "newpass")
	require.NoError(t, err)

	_, err = s.UpdateStudent(ctx, "ghost", upd, "")
	assert.True(t, apperr.IsNotFound(err))
}

func TestListStudentsAndAttempts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := s.RegisterStudent(ctx, asha())
	require.NoError(t, err)
	other := asha()
	other.ID, other.Name, other.Class = "stu-2", "Bala", "9"
	_, err = s.RegisterStudent(ctx, other)
	require.NoError(t, err)

	all, err := s.ListStudents(ctx, StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	nine, err := s.ListStudents(ctx, StudentFilter{SchoolID: "zp-12", Class: "9"})
	require.NoError(t, err)
	require.Len(t, nine, 1)
	assert.Equal(t, "stu-2", nine[0].ID)

	require.NoError(t, s.AddAttemptedQuiz(ctx, "stu-1", "quiz-1"))
	require.NoError(t, s.AddAttemptedQuiz(ctx, "stu-1", "quiz-1"))
	require.NoError(t, s.AddAttemptedQuiz(ctx, "stu-1", "quiz-2"))
	st, err := s.GetStudent(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"quiz-1", "quiz-2"}, st.QuizzesAttempted)

	assert.True(t, apperr.IsNotFound(s.AddAttemptedQuiz(ctx, "ghost", "quiz-1")))

	require.NoError(t, s.DeleteStudent(ctx, "stu-2"))
	assert.True(t, apperr.IsNotFound(s.DeleteStudent(ctx, "stu-2")))
}

func TestTeacherLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	reg := TeacherRegistration{
		Teacher:  Teacher{ID: "t-1", Name: "Mr. Rao", Email: "rao@example.org", SchoolID: "zp-12"},
		Password: "teach123",
	}
	_, err := s.RegisterTeacher(ctx, reg)
	require.NoError(t, err)
	_, err = s.RegisterTeacher(ctx, reg)
	assert.True(t, apperr.IsConflict(err))

	_, err = s.AuthenticateTeacher(ctx, "t-1", "teach123")
	require.NoError(t, err)
	_, err = s.AuthenticateTeacher(ctx, "t-1", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, s.AddCreatedQuiz(ctx, "t-1", "quiz-1"))
	require.NoError(t, s.AddCreatedQuiz(ctx, "t-1", "quiz-2"))
	require.NoError(t, s.RemoveCreatedQuiz(ctx, "t-1", "quiz-1"))
	te, err := s.GetTeacher(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"quiz-2"}, te.QuizzesCreated)

	list, err := s.ListTeachers(ctx, "zp-12")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = s.ListTeachers(ctx, "elsewhere")
	require.NoError(t, err)
	assert.Empty(t, list)

	te.Name = "Dr. Rao"
	te, err = s.UpdateTeacher(ctx, "t-1", te, "")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Rao", te.Name)

	require.NoError(t, s.DeleteTeacher(ctx, "t-1"))
	_, err = s.GetTeacher(ctx, "t-1")
	assert.True(t, apperr.IsNotFound(err))
}
