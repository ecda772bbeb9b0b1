package http

import (
	nethttp "net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bhaskar601/shikshaoffline/internal/account"
	authmw "github.com/bhaskar601/shikshaoffline/internal/auth/middleware"
	"github.com/bhaskar601/shikshaoffline/internal/bank"
	"github.com/bhaskar601/shikshaoffline/internal/media"
	"github.com/bhaskar601/shikshaoffline/internal/practice"
)

// practiceView is what the practice screen renders: the session state plus
// the current question with resolved media. Question is omitted once the
// session is completed and Summary is set instead.
type practiceView struct {
	practice.Snapshot
	Question *media.QuestionView `json:"question,omitempty"`
	Summary  *practice.Summary   `json:"summary,omitempty"`
}

type practiceHandlers struct {
	mgr      *practice.Manager
	res      *media.Resolver
	students *account.SQLStore
}

func (h practiceHandlers) render(w nethttp.ResponseWriter, r *nethttp.Request, status int, snap practice.Snapshot) {
	out := practiceView{Snapshot: snap}
	if snap.View.Status == practice.StatusCompleted {
		if sum, err := h.mgr.Summary(snap.Owner, snap.ID); err == nil {
			out.Summary = &sum
		}
	} else {
		qv := h.res.Question(snap.Question.Key(), snap.Question)
		out.Question = &qv
	}
	writeJSON(w, status, out)
}

// POST /practice/sessions  { "class"?, "subject", "topic" } or { "quizId" }
func (h practiceHandlers) start(w nethttp.ResponseWriter, r *nethttp.Request) {
	var req struct {
		Class   string `json:"class"`
		Subject string `json:"subject"`
		Topic   string `json:"topic"`
		QuizID  string `json:"quizId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sub := authmw.SubjectFromContext(r.Context())
	src := practice.Source{QuizID: strings.TrimSpace(req.QuizID)}
	if src.QuizID == "" {
		if req.Subject == "" || req.Topic == "" {
			writeJSON(w, nethttp.StatusBadRequest, errorBody{Error: "subject and topic (or quizId) required"})
			return
		}
		if req.Class == "" {
			st, err := h.students.GetStudent(r.Context(), sub)
			if err != nil {
				writeError(w, r, err)
				return
			}
			req.Class = st.Class
		}
		src.Key = bank.TopicKey{Class: req.Class, Subject: req.Subject, Topic: req.Topic}
	}
	snap, err := h.mgr.Start(r.Context(), sub, src)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.render(w, r, nethttp.StatusCreated, snap)
}

func (h practiceHandlers) get(w nethttp.ResponseWriter, r *nethttp.Request) {
	snap, err := h.mgr.Get(authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.render(w, r, nethttp.StatusOK, snap)
}

// POST /practice/sessions/{sessionID}/answer  { "option" }
func (h practiceHandlers) answer(w nethttp.ResponseWriter, r *nethttp.Request) {
	var req struct {
		Option string `json:"option"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := h.mgr.Answer(authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "sessionID"), req.Option)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.render(w, r, nethttp.StatusOK, snap)
}

func (h practiceHandlers) skip(w nethttp.ResponseWriter, r *nethttp.Request) {
	snap, err := h.mgr.Skip(authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.render(w, r, nethttp.StatusOK, snap)
}

func (h practiceHandlers) advance(w nethttp.ResponseWriter, r *nethttp.Request) {
	snap, err := h.mgr.Advance(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.render(w, r, nethttp.StatusOK, snap)
}

func (h practiceHandlers) reset(w nethttp.ResponseWriter, r *nethttp.Request) {
	snap, err := h.mgr.Reset(authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.render(w, r, nethttp.StatusOK, snap)
}

func (h practiceHandlers) summary(w nethttp.ResponseWriter, r *nethttp.Request) {
	sum, err := h.mgr.Summary(authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, nethttp.StatusOK, sum)
}

func (h practiceHandlers) discard(w nethttp.ResponseWriter, r *nethttp.Request) {
	if err := h.mgr.Discard(authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(nethttp.StatusNoContent)
}

// MountPractice registers the practice session routes on r.
func MountPractice(r chi.Router, mgr *practice.Manager, res *media.Resolver, students *account.SQLStore) {
	h := practiceHandlers{mgr: mgr, res: res, students: students}
	r.Post("/", h.start)
	r.Route("/{sessionID}", func(sr chi.Router) {
		sr.Get("/", h.get)
		sr.Delete("/", h.discard)
		sr.Post("/answer", h.answer)
		sr.Post("/skip", h.skip)
		sr.Post("/advance", h.advance)
		sr.Post("/reset", h.reset)
		sr.Get("/summary", h.summary)
	})
}
