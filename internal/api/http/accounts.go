package http

import (
	"crypto/subtle"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bhaskar601/shikshaoffline/internal/account"
	authmw "github.com/bhaskar601/shikshaoffline/internal/auth/middleware"
	"github.com/bhaskar601/shikshaoffline/internal/rbac"
	"github.com/bhaskar601/shikshaoffline/internal/validate"
)

type loginRequest struct {
	StudentID string `json:"studentId"`
	TeacherID string `json:"teacherId"`
	AdminID   string `json:"adminId"`
	Password  string `json:"password"`
}

// ---- students ----

// POST /students (public registration)
func RegisterStudentHandler(accounts *account.SQLStore) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req account.StudentRegistration
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, r, err)
			return
		}
		st, err := accounts.RegisterStudent(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusCreated, st)
	}
}

// POST /students/login  { "studentId", "password" }
func StudentLoginHandler(accounts *account.SQLStore, a *authmw.AuthService) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		st, err := accounts.AuthenticateStudent(r.Context(), req.StudentID, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		tok, err := a.IssueJWT(st.ID, rbac.RoleStudent)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{"student": st, "token": tok})
	}
}

// GET /students?instituteId=&class=
func ListStudentsHandler(accounts *account.SQLStore) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		q := r.URL.Query()
		out, err := accounts.ListStudents(r.Context(), account.StudentFilter{
			SchoolID: q.Get("instituteId"),
			Class:    q.Get("class"),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, out)
	}
}

func GetStudentHandler(accounts *account.SQLStore) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		st, err := accounts.GetStudent(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, st)
	}
}

type studentUpdate struct {
	account.Student
	Password string `json:"password" validate:"omitempty,min=6"`
}

// PUT /students/{id}; an empty password keeps the current one.
func UpdateStudentHandler(accounts *account.SQLStore) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req studentUpdate
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		req.ID = chi.URLParam(r, "id")
		if err := validate.Struct(req); err != nil {
			writeError(w, r, err)
			return
		}
		st, err := accounts.UpdateStudent(r.Context(), req.ID, req.Student, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, st)
	}
}

func DeleteStudentHandler(accounts *account.SQLStore) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if err := accounts.DeleteStudent(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(nethttp.StatusNoContent)
	}
}

// ---- teachers ----

func RegisterTeacherHandler(accounts *account.SQLStore) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req account.TeacherRegistration
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, r, err)
			return
		}
		te, err := accounts.RegisterTeacher(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusCreated, te)
	}
}

// POST /teachers/login  { "teacherId", "password" }
func TeacherLoginHandler(accounts *account.SQLStore, a *authmw.AuthService) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		te, err := accounts.AuthenticateTeacher(r.Context(), req.TeacherID, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		tok, err := a.IssueJWT(te.ID, rbac.RoleTeacher)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{"teacher": te, "token": tok})
	}
}

// GET /teachers?instituteId=
func ListTeachersHandler(accounts *account.SQLStore) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		out, err := accounts.ListTeachers(r.Context(), r.URL.Query().Get("instituteId"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, out)
	}
}

func GetTeacherHandler(accounts *account.SQLStore) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		te, err := accounts.GetTeacher(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, te)
	}
}

type teacherUpdate struct {
	account.Teacher
	Password string `json:"password" validate:"omitempty,min=6"`
}

func UpdateTeacherHandler(accounts *account.SQLStore) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req teacherUpdate
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		req.ID = chi.URLParam(r, "id")
		if err := validate.Struct(req); err != nil {
			writeError(w, r, err)
			return
		}
		te, err := accounts.UpdateTeacher(r.Context(), req.ID, req.Teacher, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, te)
	}
}

func DeleteTeacherHandler(accounts *account.SQLStore) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if err := accounts.DeleteTeacher(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(nethttp.StatusNoContent)
	}
}

// ---- admin ----

// POST /admin/login  { "adminId", "password" }; only mounted when an admin
// password is configured.
func AdminLoginHandler(a *authmw.AuthService, adminID, password string) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		idOK := subtle.ConstantTimeCompare([]byte(req.AdminID), []byte(adminID)) == 1
		pwOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(password)) == 1
		if !idOK || !pwOK {
			writeError(w, r, account.ErrInvalidCredentials)
			return
		}
		tok, err := a.IssueJWT(adminID, rbac.RoleAdmin)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{"token": tok})
	}
}
