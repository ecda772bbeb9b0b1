package school

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/bhaskar601/shikshaoffline/internal/apperr"
)

type School struct {
	ID        string `json:"schoolId" validate:"required,slug"`
	Name      string `json:"name" validate:"required"`
	District  string `json:"district,omitempty"`
	Address   string `json:"address,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Create(ctx context.Context, sc School) (School, error) {
	sc.CreatedAt = time.Now().Unix()
	if ok, err := s.Exists(ctx, sc.ID); err != nil {
		return School{}, err
	} else if ok {
		return School{}, apperr.Conflict("school " + sc.ID)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schools (id,name,district,address,created_at) VALUES ($1,$2,$3,$4,$5)`,
		sc.ID, sc.Name, sc.District, sc.Address, sc.CreatedAt)
	if err != nil {
		return School{}, errors.Wrap(err, "schools: insert")
	}
	return sc, nil
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM schools WHERE id=$1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "schools: exists")
	}
	return true, nil
}

func (s *Store) Get(ctx context.Context, id string) (School, error) {
	var sc School
	err := s.db.QueryRowContext(ctx,
		`SELECT id,name,district,address,created_at FROM schools WHERE id=$1`, id).
		Scan(&sc.ID, &sc.Name, &sc.District, &sc.Address, &sc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return School{}, apperr.NotFound("school " + id)
	}
	if err != nil {
		return School{}, errors.Wrap(err, "schools: get")
	}
	return sc, nil
}

func (s *Store) List(ctx context.Context) ([]School, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,name,district,address,created_at FROM schools ORDER BY name, id`)
	if err != nil {
		return nil, errors.Wrap(err, "schools: list")
	}
	defer rows.Close()
	out := []School{}
	for rows.Next() {
		var sc School
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.District, &sc.Address, &sc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, id string, sc School) (School, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE schools SET name=$1, district=$2, address=$3 WHERE id=$4`,
		sc.Name, sc.District, sc.Address, id)
	if err != nil {
		return School{}, errors.Wrap(err, "schools: update")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return School{}, apperr.NotFound("school " + id)
	}
	return s.Get(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schools WHERE id=$1`, id)
	if err != nil {
		return errors.Wrap(err, "schools: delete")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("school " + id)
	}
	return nil
}
