package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bhaskar601/shikshaoffline/internal/account"
	authmw "github.com/bhaskar601/shikshaoffline/internal/auth/middleware"
	"github.com/bhaskar601/shikshaoffline/internal/bank"
	"github.com/bhaskar601/shikshaoffline/internal/db/dbtest"
	"github.com/bhaskar601/shikshaoffline/internal/eventlog"
	"github.com/bhaskar601/shikshaoffline/internal/media"
	"github.com/bhaskar601/shikshaoffline/internal/practice"
	"github.com/bhaskar601/shikshaoffline/internal/quiz"
	"github.com/bhaskar601/shikshaoffline/internal/report"
	"github.com/bhaskar601/shikshaoffline/internal/school"
	"github.com/bhaskar601/shikshaoffline/internal/storage"
)

type testServer struct {
	h     nethttp.Handler
	blobs storage.BlobStore
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	dbh := dbtest.Open(t)
	blobs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)

	schools := school.NewStore(dbh)
	accounts := account.NewSQLStore(dbh, schools, bcrypt.MinCost)
	bankSvc := bank.NewService(bank.NewSQLStore(dbh), nil)
	events := eventlog.NewRepo(dbh, "test")
	quizzes := quiz.NewService(quiz.NewSQLStore(dbh), accounts, bankSvc, events)
	reports := report.NewStore(dbh)
	mgr := practice.NewManager(bankSvc, quizzes,
		practice.WithCompletionHook(report.CompletionHook(reports, quizzes, accounts, events)))

	h := NewRouter(Deps{
		DB:            dbh,
		Auth:          authmw.NewAuthService("test-secret", time.Hour),
		Bank:          bankSvc,
		Quizzes:       quizzes,
		Accounts:      accounts,
		Schools:       schools,
		Reports:       reports,
		Events:        events,
		Practice:      mgr,
		Media:         media.NewResolver(blobs),
		Blobs:         blobs,
		CORSOrigins:   []string{"http://localhost:5173"},
		AdminID:       "admin",
		AdminPassword: "admin-pass",
		Quiet:         true,
	})
	return testServer{h: h, blobs: blobs}
}

func (s testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s testServer) login(t *testing.T, path string, body map[string]string) string {
	t.Helper()
	rec := s.do(t, nethttp.MethodPost, path, "", body)
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	return decode[struct {
		Token string `json:"token"`
	}](t, rec).Token
}

type actors struct{ admin, teacher, student string }

// seed creates a school, one teacher, one class-8 student and two questions
// in 8/science/light; only the first question's image exists.
func (s testServer) seed(t *testing.T) actors {
	t.Helper()
	var a actors
	a.admin = s.login(t, "/admin/login", map[string]string{"adminId": "admin", "password": "admin-pass"})

	rec := s.do(t, nethttp.MethodPost, "/schools", a.admin, map[string]string{"schoolId": "zp-12", "name": "ZP School"})
	require.Equal(t, nethttp.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, nethttp.MethodPost, "/teachers", "", map[string]string{
		"teacherId": "t-1", "name": "Rao", "email": "rao@example.org", "instituteId": "zp-12", "password": "teach123",
	})
	require.Equal(t, nethttp.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(t, nethttp.MethodPost, "/students", "", map[string]string{
		"studentId": "stu-1", "name": "Asha", "email": "asha@example.org", "instituteId": "zp-12",
		"class": "8", "password": "secret1",
	})
	require.Equal(t, nethttp.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	a.teacher = s.login(t, "/teachers/login", map[string]string{"teacherId": "t-1", "password": "teach123"})
	a.student = s.login(t, "/students/login", map[string]string{"studentId": "stu-1", "password": "secret1"})

	_, err := s.blobs.Put("8/science/light/mirror.png", strings.NewReader("png"))
	require.NoError(t, err)
	for _, q := range []bank.Question{
		{ID: "q1", Class: "8", Subject: "science", Topic: "light", Position: 1, Prompt: "Mirror image is?",
			Image: "uploads/mirror.png", Options: []string{"Real", "Virtual"}, CorrectAnswer: "Virtual",
			Hint: &bank.Hint{Text: "Think of a plane mirror"}},
		{ID: "q2", Class: "8", Subject: "science", Topic: "light", Position: 2, Prompt: "Speed of light?",
			Image: "missing.png", Options: []string{"3e8 m/s", "340 m/s"}, CorrectAnswer: "3e8 m/s"},
	} {
		rec := s.do(t, nethttp.MethodPost, "/questions", a.teacher, q)
		require.Equal(t, nethttp.StatusCreated, rec.Code, rec.Body.String())
	}
	return a
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, nethttp.StatusOK, s.do(t, nethttp.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, nethttp.StatusOK, s.do(t, nethttp.MethodGet, "/readyz", "", nil).Code)
}

func TestAuthAndPermissions(t *testing.T) {
	s := newTestServer(t)
	a := s.seed(t)

	assert.Equal(t, nethttp.StatusUnauthorized, s.do(t, nethttp.MethodGet, "/questions", "", nil).Code)
	assert.Equal(t, nethttp.StatusUnauthorized,
		s.do(t, nethttp.MethodPost, "/students/login", "", map[string]string{"studentId": "stu-1", "password": "nope"}).Code)
	assert.Equal(t, nethttp.StatusUnauthorized,
		s.do(t, nethttp.MethodPost, "/admin/login", "", map[string]string{"adminId": "admin", "password": "x"}).Code)

	assert.Equal(t, nethttp.StatusForbidden, s.do(t, nethttp.MethodPost, "/questions", a.student, bank.Question{}).Code)
	assert.Equal(t, nethttp.StatusForbidden, s.do(t, nethttp.MethodGet, "/students", a.student, nil).Code)
	assert.Equal(t, nethttp.StatusForbidden, s.do(t, nethttp.MethodPost, "/schools", a.teacher, map[string]string{}).Code)
	assert.Equal(t, nethttp.StatusForbidden, s.do(t, nethttp.MethodPost, "/practice/sessions", a.teacher, map[string]string{}).Code)

	assert.Equal(t, nethttp.StatusOK, s.do(t, nethttp.MethodGet, "/students/stu-1", a.student, nil).Code)
	assert.Equal(t, nethttp.StatusForbidden, s.do(t, nethttp.MethodGet, "/students/stu-2", a.student, nil).Code)
	assert.Equal(t, nethttp.StatusOK, s.do(t, nethttp.MethodGet, "/students", a.teacher, nil).Code)

	// schools list is public
	rec := s.do(t, nethttp.MethodGet, "/schools", "", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Len(t, decode[[]school.School](t, rec), 1)
}

func TestRegistrationErrors(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.do(t, nethttp.MethodPost, "/students", "", map[string]string{
		"studentId": "stu-2", "name": "B", "email": "not-an-email", "instituteId": "zp-12", "class": "8", "password": "123",
	})
	require.Equal(t, nethttp.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	fields := map[string]bool{}
	for _, f := range body.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])

	rec = s.do(t, nethttp.MethodPost, "/students", "", map[string]string{
		"studentId": "stu-1", "name": "Dup", "email": "d@example.org", "instituteId": "zp-12", "class": "8", "password": "secret1",
	})
	assert.Equal(t, nethttp.StatusConflict, rec.Code)

	rec = s.do(t, nethttp.MethodPost, "/teachers", "", map[string]string{
		"teacherId": "t-9", "name": "X", "email": "x@example.org", "instituteId": "nowhere", "password": "secret1",
	})
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)

	req := httptest.NewRequest(nethttp.MethodPost, "/students", strings.NewReader("{"))
	rec = httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func TestQuestionViews(t *testing.T) {
	s := newTestServer(t)
	a := s.seed(t)

	rec := s.do(t, nethttp.MethodGet, "/questions/topics/8/science", a.student, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"topics":["light"]}`, rec.Body.String())

	rec = s.do(t, nethttp.MethodGet, "/questions/8/science/light", a.student, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "correctAnswer")
	views := decode[[]media.QuestionView](t, rec)
	require.Len(t, views, 2)
	assert.Equal(t, "q1", views[0].ID)
	assert.Equal(t, "/images/8/science/light/mirror.png", views[0].Image.URL)
	assert.True(t, views[1].Image.Hidden)

	rec = s.do(t, nethttp.MethodGet, "/questions/8/science/light", a.teacher, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	full := decode[[]bank.Question](t, rec)
	require.Len(t, full, 2)
	assert.Equal(t, "Virtual", full[0].CorrectAnswer)

	rec = s.do(t, nethttp.MethodGet, "/questions/8/science/sound", a.student, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, nethttp.MethodPost, "/questions", a.teacher, bank.Question{
		Class: "8", Subject: "science", Topic: "light", Prompt: "bad", Options: []string{"a", "b"}, CorrectAnswer: "c",
	})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)

	rec = s.do(t, nethttp.MethodDelete, "/questions/q2", a.teacher, nil)
	assert.Equal(t, nethttp.StatusNoContent, rec.Code)
	rec = s.do(t, nethttp.MethodGet, "/questions/id/q2", a.teacher, nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestImages(t *testing.T) {
	s := newTestServer(t)
	a := s.seed(t)

	rec := s.do(t, nethttp.MethodGet, "/images/8/science/light/mirror.png", "", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "png", rec.Body.String())

	assert.Equal(t, nethttp.StatusNotFound, s.do(t, nethttp.MethodGet, "/images/8/science/light/missing.png", "", nil).Code)
	assert.Equal(t, nethttp.StatusNotFound, s.do(t, nethttp.MethodGet, "/images/../../etc/passwd", "", nil).Code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "prism.jpg")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("jpg"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(nethttp.MethodPost, "/uploads/images/8/science/light", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+a.teacher)
	rec = httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	require.Equal(t, nethttp.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, nethttp.MethodGet, "/images/8/science/light/prism.jpg", "", nil)
	assert.Equal(t, nethttp.StatusOK, rec.Code)
}

type sessionBody struct {
	practice.Snapshot
	Question *media.QuestionView `json:"question"`
	Summary  *practice.Summary   `json:"summary"`
}

func TestPracticeTopicSession(t *testing.T) {
	s := newTestServer(t)
	a := s.seed(t)

	rec := s.do(t, nethttp.MethodPost, "/practice/sessions", a.student, map[string]string{"subject": "science", "topic": "light"})
	require.Equal(t, nethttp.StatusCreated, rec.Code, rec.Body.String())
	sess := decode[sessionBody](t, rec)
	id := sess.ID
	assert.Equal(t, "8", sess.Source.Key.Class)
	assert.Equal(t, 2, sess.View.Total)
	require.NotNil(t, sess.Question)
	assert.Equal(t, "q1", sess.Question.ID)
	assert.Equal(t, "Think of a plane mirror", sess.Question.Hint.Text)
	assert.Nil(t, sess.View.Verdict)
	assert.NotContains(t, rec.Body.String(), "correctOption")
	assert.NotContains(t, rec.Body.String(), "correctAnswer")

	base := "/practice/sessions/" + id
	rec = s.do(t, nethttp.MethodPost, base+"/advance", a.student, nil)
	assert.Equal(t, nethttp.StatusConflict, rec.Code)

	rec = s.do(t, nethttp.MethodPost, base+"/answer", a.student, map[string]string{"option": "Virtual"})
	require.Equal(t, nethttp.StatusOK, rec.Code)
	sess = decode[sessionBody](t, rec)
	require.NotNil(t, sess.View.Verdict)
	assert.True(t, sess.View.Verdict.IsCorrect)
	assert.True(t, sess.View.ShowingFeedback)

	// other students cannot see it
	require.Equal(t, nethttp.StatusCreated, s.do(t, nethttp.MethodPost, "/students", "", map[string]string{
		"studentId": "stu-2", "name": "Bala", "email": "bala@example.org", "instituteId": "zp-12", "class": "8", "password": "secret2",
	}).Code)
	other := s.login(t, "/students/login", map[string]string{"studentId": "stu-2", "password": "secret2"})
	assert.Equal(t, nethttp.StatusNotFound, s.do(t, nethttp.MethodGet, base, other, nil).Code)

	require.Equal(t, nethttp.StatusOK, s.do(t, nethttp.MethodPost, base+"/advance", a.student, nil).Code)
	rec = s.do(t, nethttp.MethodPost, base+"/skip", a.student, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, "q2", decode[sessionBody](t, rec).Question.ID)

	rec = s.do(t, nethttp.MethodGet, base+"/summary", a.student, nil)
	assert.Equal(t, nethttp.StatusConflict, rec.Code)

	rec = s.do(t, nethttp.MethodPost, base+"/advance", a.student, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	sess = decode[sessionBody](t, rec)
	assert.Equal(t, practice.StatusCompleted, sess.View.Status)
	assert.Nil(t, sess.Question)
	require.NotNil(t, sess.Summary)
	assert.Equal(t, 50, sess.Summary.ScorePercent)
	assert.Equal(t, practice.BandNeedsPractice, sess.Summary.Band)
	assert.Equal(t, 1, sess.Summary.UnattemptedCount)

	rec = s.do(t, nethttp.MethodPost, base+"/answer", a.student, map[string]string{"option": "Virtual"})
	assert.Equal(t, nethttp.StatusConflict, rec.Code)

	rec = s.do(t, nethttp.MethodGet, "/reports/student/stu-1", a.student, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	reps := decode[[]report.Report](t, rec)
	require.Len(t, reps, 1)
	assert.Equal(t, "light", reps[0].Topic)
	assert.Equal(t, 50, reps[0].ScorePercent)

	assert.Equal(t, nethttp.StatusOK, s.do(t, nethttp.MethodGet, "/reports/"+reps[0].ID, a.student, nil).Code)
	assert.Equal(t, nethttp.StatusForbidden, s.do(t, nethttp.MethodGet, "/reports/"+reps[0].ID, other, nil).Code)
	assert.Equal(t, nethttp.StatusForbidden, s.do(t, nethttp.MethodGet, "/reports/student/stu-1", other, nil).Code)

	rec = s.do(t, nethttp.MethodPost, base+"/reset", a.student, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	sess = decode[sessionBody](t, rec)
	assert.Equal(t, id, sess.ID)
	assert.Equal(t, practice.StatusInProgress, sess.View.Status)

	assert.Equal(t, nethttp.StatusNoContent, s.do(t, nethttp.MethodDelete, base, a.student, nil).Code)
	assert.Equal(t, nethttp.StatusNotFound, s.do(t, nethttp.MethodGet, base, a.student, nil).Code)
}

func TestPracticeStartFailures(t *testing.T) {
	s := newTestServer(t)
	a := s.seed(t)

	rec := s.do(t, nethttp.MethodPost, "/practice/sessions", a.student, map[string]string{"subject": "science", "topic": "sound"})
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
	rec = s.do(t, nethttp.MethodPost, "/practice/sessions", a.student, map[string]string{"quizId": "nope"})
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
	rec = s.do(t, nethttp.MethodPost, "/practice/sessions", a.student, map[string]string{"topic": "light"})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "subject and topic (or quizId) required", decode[errorBody](t, rec).Error)
}

func TestQuizFlow(t *testing.T) {
	s := newTestServer(t)
	a := s.seed(t)

	rec := s.do(t, nethttp.MethodPost, "/quizzes", a.teacher, map[string]any{"title": "Light basics", "questions": []string{"q2", "q1"}})
	require.Equal(t, nethttp.StatusCreated, rec.Code, rec.Body.String())
	qz := decode[quiz.Quiz](t, rec)
	assert.Equal(t, "t-1", qz.TeacherID)

	rec = s.do(t, nethttp.MethodPost, "/quizzes", a.teacher, map[string]any{"teacherId": "t-2", "questions": []string{"q1"}})
	assert.Equal(t, nethttp.StatusForbidden, rec.Code)
	rec = s.do(t, nethttp.MethodPost, "/quizzes", a.admin, map[string]any{"teacherId": "t-404", "questions": []string{"q1"}})
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)

	rec = s.do(t, nethttp.MethodGet, "/teachers/t-1", a.teacher, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, []string{qz.ID}, decode[account.Teacher](t, rec).QuizzesCreated)

	rec = s.do(t, nethttp.MethodGet, "/quizzes/"+qz.ID, a.student, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	pop := decode[quiz.Populated](t, rec)
	require.Len(t, pop.Questions, 2)
	assert.Equal(t, "q2", pop.Questions[0].ID)

	rec = s.do(t, nethttp.MethodPost, "/practice/sessions", a.student, map[string]string{"quizId": qz.ID})
	require.Equal(t, nethttp.StatusCreated, rec.Code, rec.Body.String())
	sess := decode[sessionBody](t, rec)
	assert.Equal(t, "q2", sess.Question.ID)
	base := "/practice/sessions/" + sess.ID
	for i := 0; i < 2; i++ {
		require.Equal(t, nethttp.StatusOK, s.do(t, nethttp.MethodPost, base+"/skip", a.student, nil).Code)
		require.Equal(t, nethttp.StatusOK, s.do(t, nethttp.MethodPost, base+"/advance", a.student, nil).Code)
	}

	rec = s.do(t, nethttp.MethodGet, "/quizzes/student/stu-1", a.student, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	mine := decode[[]quiz.Populated](t, rec)
	require.Len(t, mine, 1)
	assert.Equal(t, qz.ID, mine[0].ID)

	rec = s.do(t, nethttp.MethodGet, "/students/stu-1", a.student, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, []string{qz.ID}, decode[account.Student](t, rec).QuizzesAttempted)

	rec = s.do(t, nethttp.MethodGet, "/events?type="+eventlog.TypePracticeCompleted, a.teacher, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Len(t, decode[[]eventlog.Event](t, rec), 1)

	assert.Equal(t, nethttp.StatusNoContent, s.do(t, nethttp.MethodDelete, "/quizzes/"+qz.ID, a.teacher, nil).Code)
	assert.Equal(t, nethttp.StatusNotFound, s.do(t, nethttp.MethodGet, "/quizzes/"+qz.ID, a.teacher, nil).Code)
}
