package http

import (
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/bhaskar601/shikshaoffline/internal/auth/middleware"
	"github.com/bhaskar601/shikshaoffline/internal/quiz"
	"github.com/bhaskar601/shikshaoffline/internal/rbac"
)

// POST /quizzes  { "teacherId", "title", "questions": [ids] }
// Teachers create quizzes for themselves; teacherId defaults to the caller.
func CreateQuizHandler(svc *quiz.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var q quiz.Quiz
		if err := decodeJSON(r, &q); err != nil {
			writeError(w, r, err)
			return
		}
		if rbac.RoleFromContext(r.Context()) == rbac.RoleTeacher {
			sub := authmw.SubjectFromContext(r.Context())
			if q.TeacherID == "" {
				q.TeacherID = sub
			}
			if q.TeacherID != sub {
				writeJSON(w, nethttp.StatusForbidden, errorBody{Error: "forbidden"})
				return
			}
		}
		out, err := svc.Create(r.Context(), q)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusCreated, out)
	}
}

func ListQuizzesHandler(svc *quiz.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		out, err := svc.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, out)
	}
}

func GetQuizHandler(svc *quiz.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		out, err := svc.Get(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, out)
	}
}

func TeacherQuizzesHandler(svc *quiz.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		out, err := svc.ByTeacher(r.Context(), chi.URLParam(r, "teacherID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, out)
	}
}

func StudentQuizzesHandler(svc *quiz.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		out, err := svc.ByStudent(r.Context(), chi.URLParam(r, "studentID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, out)
	}
}

func UpdateQuizHandler(svc *quiz.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var q quiz.Quiz
		if err := decodeJSON(r, &q); err != nil {
			writeError(w, r, err)
			return
		}
		out, err := svc.Update(r.Context(), chi.URLParam(r, "quizID"), q)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, out)
	}
}

func DeleteQuizHandler(svc *quiz.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "quizID")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(nethttp.StatusNoContent)
	}
}
