package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bhaskar601/shikshaoffline/internal/apperr"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const selectCols = `id,teacher_id,title,question_ids_json,attempted_by_json,created_at`

func (s *SQLStore) Create(ctx context.Context, q Quiz) (Quiz, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.CreatedAt = time.Now().Unix()
	if q.AttemptedBy == nil {
		q.AttemptedBy = []string{}
	}
	qj, _ := json.Marshal(q.Questions)
	aj, _ := json.Marshal(q.AttemptedBy)
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM quizzes WHERE id=$1`, q.ID).Scan(&one)
	if err == nil {
		return Quiz{}, apperr.Conflict("quiz " + q.ID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Quiz{}, errors.Wrap(err, "quizzes: lookup")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quizzes (id,teacher_id,title,question_ids_json,attempted_by_json,created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		q.ID, q.TeacherID, q.Title, string(qj), string(aj), q.CreatedAt)
	if err != nil {
		return Quiz{}, errors.Wrap(err, "quizzes: insert")
	}
	return q, nil
}

func scanQuiz(sc interface{ Scan(...any) error }) (Quiz, error) {
	var (
		q      Quiz
		qj, aj string
	)
	if err := sc.Scan(&q.ID, &q.TeacherID, &q.Title, &qj, &aj, &q.CreatedAt); err != nil {
		return Quiz{}, err
	}
	if err := json.Unmarshal([]byte(qj), &q.Questions); err != nil {
		return Quiz{}, errors.Wrapf(err, "quizzes: decode questions of %s", q.ID)
	}
	if err := json.Unmarshal([]byte(aj), &q.AttemptedBy); err != nil || q.AttemptedBy == nil {
		q.AttemptedBy = []string{}
	}
	return q, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Quiz, error) {
	q, err := scanQuiz(s.db.QueryRowContext(ctx, `SELECT `+selectCols+` FROM quizzes WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Quiz{}, apperr.NotFound("quiz " + id)
	}
	if err != nil {
		return Quiz{}, errors.Wrap(err, "quizzes: get")
	}
	return q, nil
}

func (s *SQLStore) query(ctx context.Context, where string, args ...any) ([]Quiz, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectCols+` FROM quizzes `+where+` ORDER BY created_at DESC, id`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "quizzes: query")
	}
	defer rows.Close()
	out := []Quiz{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) List(ctx context.Context) ([]Quiz, error) {
	return s.query(ctx, "")
}

func (s *SQLStore) ByTeacher(ctx context.Context, teacherID string) ([]Quiz, error) {
	return s.query(ctx, `WHERE teacher_id=$1`, teacherID)
}

// ByStudent returns the quizzes whose attemptedBy list holds studentID.
func (s *SQLStore) ByStudent(ctx context.Context, studentID string) ([]Quiz, error) {
	b, _ := json.Marshal(studentID)
	cand, err := s.query(ctx, `WHERE attempted_by_json LIKE $1`, "%"+string(b)+"%")
	if err != nil {
		return nil, err
	}
	out := cand[:0]
	for _, q := range cand {
		if contains(q.AttemptedBy, studentID) {
			out = append(out, q)
		}
	}
	return out, nil
}

// Update replaces title and questions; owner and attempts are kept.
func (s *SQLStore) Update(ctx context.Context, id string, q Quiz) (Quiz, error) {
	qj, _ := json.Marshal(q.Questions)
	res, err := s.db.ExecContext(ctx,
		`UPDATE quizzes SET title=$1, question_ids_json=$2 WHERE id=$3`, q.Title, string(qj), id)
	if err != nil {
		return Quiz{}, errors.Wrap(err, "quizzes: update")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Quiz{}, apperr.NotFound("quiz " + id)
	}
	return s.Get(ctx, id)
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return errors.Wrap(err, "quizzes: delete")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("quiz " + id)
	}
	return nil
}

// MarkAttempted adds studentID to the quiz's attemptedBy once.
func (s *SQLStore) MarkAttempted(ctx context.Context, quizID, studentID string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT attempted_by_json FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("quiz " + quizID)
	}
	if err != nil {
		return errors.Wrap(err, "quizzes: load attempts")
	}
	var list []string
	_ = json.Unmarshal([]byte(raw), &list)
	if contains(list, studentID) {
		return nil
	}
	buf, _ := json.Marshal(append(list, studentID))
	_, err = tx.ExecContext(ctx, `UPDATE quizzes SET attempted_by_json=$1 WHERE id=$2`, string(buf), quizID)
	return errors.Wrap(err, "quizzes: save attempts")
}
