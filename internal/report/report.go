// Package report stores the result of finished practice sessions and quizzes.
package report

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bhaskar601/shikshaoffline/internal/apperr"
	"github.com/bhaskar601/shikshaoffline/internal/validate"
)

type Report struct {
	ID               string  `json:"id"`
	StudentID        string  `json:"studentId" validate:"required"`
	QuizID           string  `json:"quizId,omitempty"`
	Class            string  `json:"class,omitempty"`
	Subject          string  `json:"subject,omitempty"`
	Topic            string  `json:"topic,omitempty"`
	Total            int     `json:"total" validate:"gt=0"`
	Correct          int     `json:"correct" validate:"gte=0,ltefield=Total"`
	Incorrect        int     `json:"incorrect" validate:"gte=0"`
	Unattempted      int     `json:"unattempted" validate:"gte=0"`
	ScorePercent     int     `json:"scorePercent" validate:"gte=0,lte=100"`
	TotalTimeSeconds float64 `json:"totalTimeSeconds" validate:"gte=0"`
	AvgTimeSeconds   float64 `json:"averageTimePerQuestion" validate:"gte=0"`
	CreatedAt        int64   `json:"createdAt,omitempty"`
}

// Validate also checks that the three counts add up to Total.
func (r Report) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.Correct+r.Incorrect+r.Unattempted != r.Total {
		return apperr.NewValidationError(errors.New("counts do not add up"),
			apperr.FieldError{Field: "total", Error: "correct + incorrect + unattempted must equal total"})
	}
	return nil
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Create(ctx context.Context, r Report) (Report, error) {
	if err := r.Validate(); err != nil {
		return Report{}, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id,student_id,quiz_id,class,subject,topic,total,correct,incorrect,unattempted,
		 score_percent,total_time_sec,avg_time_sec,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		r.ID, r.StudentID, r.QuizID, r.Class, r.Subject, r.Topic, r.Total, r.Correct, r.Incorrect, r.Unattempted,
		r.ScorePercent, r.TotalTimeSeconds, r.AvgTimeSeconds, r.CreatedAt)
	if err != nil {
		return Report{}, errors.Wrap(err, "reports: insert")
	}
	return r, nil
}

const selectCols = `id,student_id,quiz_id,class,subject,topic,total,correct,incorrect,unattempted,
score_percent,total_time_sec,avg_time_sec,created_at`

func scan(sc interface{ Scan(...any) error }) (Report, error) {
	var r Report
	err := sc.Scan(&r.ID, &r.StudentID, &r.QuizID, &r.Class, &r.Subject, &r.Topic,
		&r.Total, &r.Correct, &r.Incorrect, &r.Unattempted,
		&r.ScorePercent, &r.TotalTimeSeconds, &r.AvgTimeSeconds, &r.CreatedAt)
	return r, err
}

func (s *Store) Get(ctx context.Context, id string) (Report, error) {
	r, err := scan(s.db.QueryRowContext(ctx, `SELECT `+selectCols+` FROM reports WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, apperr.NotFound("report " + id)
	}
	if err != nil {
		return Report{}, errors.Wrap(err, "reports: get")
	}
	return r, nil
}

func (s *Store) query(ctx context.Context, where string, args ...any) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectCols+` FROM reports `+where+` ORDER BY created_at DESC, id`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "reports: query")
	}
	defer rows.Close()
	out := []Report{}
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) List(ctx context.Context) ([]Report, error) { return s.query(ctx, "") }

func (s *Store) ByStudent(ctx context.Context, studentID string) ([]Report, error) {
	return s.query(ctx, `WHERE student_id=$1`, studentID)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id=$1`, id)
	if err != nil {
		return errors.Wrap(err, "reports: delete")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("report " + id)
	}
	return nil
}
