package account

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/bhaskar601/shikshaoffline/internal/apperr"
)

// SchoolChecker is satisfied by school.Store.
type SchoolChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type SQLStore struct {
	db      *sql.DB
	schools SchoolChecker
	cost    int
}

func NewSQLStore(db *sql.DB, schools SchoolChecker, bcryptCost int) *SQLStore {
	if bcryptCost == 0 {
		bcryptCost = 12
	}
	return &SQLStore{db: db, schools: schools, cost: bcryptCost}
}

func (s *SQLStore) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", errors.Wrap(err, "accounts: hash password")
	}
	return string(b), nil
}

func (s *SQLStore) requireSchool(ctx context.Context, id string) error {
	ok, err := s.schools.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("school " + id)
	}
	return nil
}

func (s *SQLStore) exists(ctx context.Context, table, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id=$1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "%s: exists", table)
	}
	return true, nil
}

// ---- students ----

func (s *SQLStore) RegisterStudent(ctx context.Context, r StudentRegistration) (Student, error) {
	st := r.Student
	if err := s.requireSchool(ctx, st.SchoolID); err != nil {
		return Student{}, err
	}
	if ok, err := s.exists(ctx, "students", st.ID); err != nil {
		return Student{}, err
	} else if ok {
		return Student{}, apperr.Conflict("student " + st.ID)
	}
	ph, err := s.hash(r.Password)
	if err != nil {
		return Student{}, err
	}
	st.QuizzesAttempted = []string{}
	st.CreatedAt = time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO students (id,name,email,password_hash,school_id,class,quizzes_attempted_json,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,'[]',$7)`,
		st.ID, st.Name, strings.ToLower(st.Email), ph, st.SchoolID, st.Class, st.CreatedAt)
	if err != nil {
		return Student{}, errors.Wrap(err, "students: insert")
	}
	st.Email = strings.ToLower(st.Email)
	return st, nil
}

const studentCols = `id,name,email,school_id,class,quizzes_attempted_json,created_at`

func scanStudent(sc interface{ Scan(...any) error }) (Student, error) {
	var (
		st Student
		qj string
	)
	if err := sc.Scan(&st.ID, &st.Name, &st.Email, &st.SchoolID, &st.Class, &qj, &st.CreatedAt); err != nil {
		return Student{}, err
	}
	if err := json.Unmarshal([]byte(qj), &st.QuizzesAttempted); err != nil || st.QuizzesAttempted == nil {
		st.QuizzesAttempted = []string{}
	}
	return st, nil
}

func (s *SQLStore) GetStudent(ctx context.Context, id string) (Student, error) {
	st, err := scanStudent(s.db.QueryRowContext(ctx, `SELECT `+studentCols+` FROM students WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, apperr.NotFound("student " + id)
	}
	if err != nil {
		return Student{}, errors.Wrap(err, "students: get")
	}
	return st, nil
}

func (s *SQLStore) ListStudents(ctx context.Context, f StudentFilter) ([]Student, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+studentCols+` FROM students
		 WHERE ($1 = '' OR school_id = $1) AND ($2 = '' OR class = $2)
		 ORDER BY name, id`, f.SchoolID, f.Class)
	if err != nil {
		return nil, errors.Wrap(err, "students: list")
	}
	defer rows.Close()
	out := []Student{}
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// UpdateStudent replaces the profile fields; a non-empty password is re-hashed.
func (s *SQLStore) UpdateStudent(ctx context.Context, id string, st Student, password string) (Student, error) {
	if _, err := s.GetStudent(ctx, id); err != nil {
		return Student{}, err
	}
	if err := s.requireSchool(ctx, st.SchoolID); err != nil {
		return Student{}, err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE students SET name=$1, email=$2, school_id=$3, class=$4 WHERE id=$5`,
		st.Name, strings.ToLower(st.Email), st.SchoolID, st.Class, id)
	if err != nil {
		return Student{}, errors.Wrap(err, "students: update")
	}
	if password != "" {
		if err := s.setPassword(ctx, "students", id, password); err != nil {
			return Student{}, err
		}
	}
	return s.GetStudent(ctx, id)
}

func (s *SQLStore) DeleteStudent(ctx context.Context, id string) error {
	return s.delete(ctx, "students", id)
}

func (s *SQLStore) AuthenticateStudent(ctx context.Context, id, password string) (Student, error) {
	if err := s.checkPassword(ctx, "students", id, password); err != nil {
		return Student{}, err
	}
	return s.GetStudent(ctx, id)
}

// AddAttemptedQuiz records quizID on the student once.
func (s *SQLStore) AddAttemptedQuiz(ctx context.Context, studentID, quizID string) error {
	return s.editList(ctx, "students", "quizzes_attempted_json", studentID, func(l []string) ([]string, bool) {
		return appendUnique(l, quizID)
	})
}

// ---- teachers ----

func (s *SQLStore) RegisterTeacher(ctx context.Context, r TeacherRegistration) (Teacher, error) {
	te := r.Teacher
	if err := s.requireSchool(ctx, te.SchoolID); err != nil {
		return Teacher{}, err
	}
	if ok, err := s.exists(ctx, "teachers", te.ID); err != nil {
		return Teacher{}, err
	} else if ok {
		return Teacher{}, apperr.Conflict("teacher " + te.ID)
	}
	ph, err := s.hash(r.Password)
	if err != nil {
		return Teacher{}, err
	}
	te.QuizzesCreated = []string{}
	te.CreatedAt = time.Now().Unix()
	te.Email = strings.ToLower(te.Email)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO teachers (id,name,email,password_hash,school_id,quizzes_created_json,created_at)
		 VALUES ($1,$2,$3,$4,$5,'[]',$6)`,
		te.ID, te.Name, te.Email, ph, te.SchoolID, te.CreatedAt)
	if err != nil {
		return Teacher{}, errors.Wrap(err, "teachers: insert")
	}
	return te, nil
}

const teacherCols = `id,name,email,school_id,quizzes_created_json,created_at`

func scanTeacher(sc interface{ Scan(...any) error }) (Teacher, error) {
	var (
		te Teacher
		qj string
	)
	if err := sc.Scan(&te.ID, &te.Name, &te.Email, &te.SchoolID, &qj, &te.CreatedAt); err != nil {
		return Teacher{}, err
	}
	if err := json.Unmarshal([]byte(qj), &te.QuizzesCreated); err != nil || te.QuizzesCreated == nil {
		te.QuizzesCreated = []string{}
	}
	return te, nil
}

func (s *SQLStore) GetTeacher(ctx context.Context, id string) (Teacher, error) {
	te, err := scanTeacher(s.db.QueryRowContext(ctx, `SELECT `+teacherCols+` FROM teachers WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Teacher{}, apperr.NotFound("teacher " + id)
	}
	if err != nil {
		return Teacher{}, errors.Wrap(err, "teachers: get")
	}
	return te, nil
}

func (s *SQLStore) ListTeachers(ctx context.Context, schoolID string) ([]Teacher, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+teacherCols+` FROM teachers WHERE ($1 = '' OR school_id = $1) ORDER BY name, id`, schoolID)
	if err != nil {
		return nil, errors.Wrap(err, "teachers: list")
	}
	defer rows.Close()
	out := []Teacher{}
	for rows.Next() {
		te, err := scanTeacher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, te)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateTeacher(ctx context.Context, id string, te Teacher, password string) (Teacher, error) {
	if _, err := s.GetTeacher(ctx, id); err != nil {
		return Teacher{}, err
	}
	if err := s.requireSchool(ctx, te.SchoolID); err != nil {
		return Teacher{}, err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE teachers SET name=$1, email=$2, school_id=$3 WHERE id=$4`,
		te.Name, strings.ToLower(te.Email), te.SchoolID, id)
	if err != nil {
		return Teacher{}, errors.Wrap(err, "teachers: update")
	}
	if password != "" {
		if err := s.setPassword(ctx, "teachers", id, password); err != nil {
			return Teacher{}, err
		}
	}
	return s.GetTeacher(ctx, id)
}

func (s *SQLStore) DeleteTeacher(ctx context.Context, id string) error {
	return s.delete(ctx, "teachers", id)
}

func (s *SQLStore) AuthenticateTeacher(ctx context.Context, id, password string) (Teacher, error) {
	if err := s.checkPassword(ctx, "teachers", id, password); err != nil {
		return Teacher{}, err
	}
	return s.GetTeacher(ctx, id)
}

func (s *SQLStore) AddCreatedQuiz(ctx context.Context, teacherID, quizID string) error {
	return s.editList(ctx, "teachers", "quizzes_created_json", teacherID, func(l []string) ([]string, bool) {
		return appendUnique(l, quizID)
	})
}

func (s *SQLStore) RemoveCreatedQuiz(ctx context.Context, teacherID, quizID string) error {
	return s.editList(ctx, "teachers", "quizzes_created_json", teacherID, func(l []string) ([]string, bool) {
		return remove(l, quizID)
	})
}

// ---- shared ----

func (s *SQLStore) checkPassword(ctx context.Context, table, id, password string) error {
	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM `+table+` WHERE id=$1`, id).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return errors.Wrapf(err, "%s: load credentials", table)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *SQLStore) setPassword(ctx context.Context, table, id, password string) error {
	ph, err := s.hash(password)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE `+table+` SET password_hash=$1 WHERE id=$2`, ph, id)
	return errors.Wrapf(err, "%s: set password", table)
}

func (s *SQLStore) delete(ctx context.Context, table, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id=$1`, id)
	if err != nil {
		return errors.Wrapf(err, "%s: delete", table)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(strings.TrimSuffix(table, "s") + " " + id)
	}
	return nil
}

// editList rewrites one JSON id-list column inside a transaction.
func (s *SQLStore) editList(ctx context.Context, table, col, id string, edit func([]string) ([]string, bool)) (err error) {
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
	err = tx.QueryRowContext(ctx, `SELECT `+col+` FROM `+table+` WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(strings.TrimSuffix(table, "s") + " " + id)
	}
	if err != nil {
		return errors.Wrapf(err, "%s: load %s", table, col)
	}
	var list []string
	if jerr := json.Unmarshal([]byte(raw), &list); jerr != nil {
		list = nil
	}
	list, changed := edit(list)
	if !changed {
		return nil
	}
	if list == nil {
		list = []string{}
	}
	buf, _ := json.Marshal(list)
	_, err = tx.ExecContext(ctx, `UPDATE `+table+` SET `+col+`=$1 WHERE id=$2`, string(buf), id)
	return errors.Wrapf(err, "%s: save %s", table, col)
}
