package bank

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bhaskar601/shikshaoffline/internal/apperr"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// body is the part of a question kept as a JSON document.
type body struct {
	Prompt        string   `json:"question"`
	Image         string   `json:"questionImage,omitempty"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Hint          *Hint    `json:"hint,omitempty"`
}

const selectCols = `id,class,subject,topic,position,body_json,created_at`

func (s *SQLStore) Create(ctx context.Context, q Question) (Question, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.CreatedAt = time.Now().Unix()
	bj, err := marshalBody(q)
	if err != nil {
		return Question{}, err
	}
	var exist int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM questions WHERE id=$1`, q.ID).Scan(&exist)
	if err == nil {
		return Question{}, apperr.Conflict("question " + q.ID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Question{}, errors.Wrap(err, "questions: lookup")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO questions (id,class,subject,topic,position,body_json,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		q.ID, q.Class, q.Subject, q.Topic, q.Position, bj, q.CreatedAt)
	if err != nil {
		return Question{}, errors.Wrap(err, "questions: insert")
	}
	return q, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectCols+` FROM questions WHERE id=$1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, apperr.NotFound("question " + id)
	}
	return q, err
}

func (s *SQLStore) GetMany(ctx context.Context, ids []string) ([]Question, error) {
	if len(ids) == 0 {
		return []Question{}, nil
	}
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectCols+` FROM questions WHERE id IN (`+strings.Join(ph, ",")+`)`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "questions: get many")
	}
	found, err := scanAll(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}
	out := make([]Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *SQLStore) List(ctx context.Context, f Filter) ([]Question, error) {
	var (
		where []string
		args  []any
	)
	add := func(col, v string) {
		if v == "" {
			return
		}
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	add("class", f.Class)
	add("subject", f.Subject)
	add("topic", f.Topic)

	q := `SELECT ` + selectCols + ` FROM questions`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY class, subject, topic, position, created_at, id`
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	args = append(args, limit, f.Offset)
	q += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "questions: list")
	}
	return scanAll(rows)
}

func (s *SQLStore) ByTopic(ctx context.Context, key TopicKey) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectCols+` FROM questions WHERE class=$1 AND subject=$2 AND topic=$3
		 ORDER BY position, created_at, id`,
		key.Class, key.Subject, key.Topic)
	if err != nil {
		return nil, errors.Wrap(err, "questions: by topic")
	}
	return scanAll(rows)
}

func (s *SQLStore) Topics(ctx context.Context, class, subject string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT topic FROM questions WHERE class=$1 AND subject=$2 ORDER BY topic`, class, subject)
	if err != nil {
		return nil, errors.Wrap(err, "questions: topics")
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) Update(ctx context.Context, id string, q Question) (Question, error) {
	old, err := s.Get(ctx, id)
	if err != nil {
		return Question{}, err
	}
	q.ID = id
	q.CreatedAt = old.CreatedAt
	bj, err := marshalBody(q)
	if err != nil {
		return Question{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE questions SET class=$1, subject=$2, topic=$3, position=$4, body_json=$5 WHERE id=$6`,
		q.Class, q.Subject, q.Topic, q.Position, bj, id)
	if err != nil {
		return Question{}, errors.Wrap(err, "questions: update")
	}
	return q, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return errors.Wrap(err, "questions: delete")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("question " + id)
	}
	return nil
}

func marshalBody(q Question) (string, error) {
	b, err := json.Marshal(body{
		Prompt:        q.Prompt,
		Image:         q.Image,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		Hint:          q.Hint,
	})
	if err != nil {
		return "", errors.Wrap(err, "questions: encode body")
	}
	return string(b), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(sc scanner) (Question, error) {
	var (
		q  Question
		bj string
	)
	if err := sc.Scan(&q.ID, &q.Class, &q.Subject, &q.Topic, &q.Position, &bj, &q.CreatedAt); err != nil {
		return Question{}, err
	}
	var b body
	if err := json.Unmarshal([]byte(bj), &b); err != nil {
		return Question{}, errors.Wrapf(err, "questions: decode body of %s", q.ID)
	}
	q.Prompt, q.Image, q.Options, q.CorrectAnswer, q.Hint = b.Prompt, b.Image, b.Options, b.CorrectAnswer, b.Hint
	return q, nil
}

func scanAll(rows *sql.Rows) ([]Question, error) {
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
