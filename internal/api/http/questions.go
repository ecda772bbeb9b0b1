package http

import (
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bhaskar601/shikshaoffline/internal/bank"
	"github.com/bhaskar601/shikshaoffline/internal/media"
	"github.com/bhaskar601/shikshaoffline/internal/rbac"
)

// callers without this permission get learner views with no answers
const permAnswers = "question:answers"

func CreateQuestionHandler(svc *bank.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var q bank.Question
		if err := decodeJSON(r, &q); err != nil {
			writeError(w, r, err)
			return
		}
		out, err := svc.Create(r.Context(), q)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusCreated, out)
	}
}

// GET /questions?class=&subject=&topic=&limit=&offset=
func ListQuestionsHandler(svc *bank.Service, res *media.Resolver) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		q := r.URL.Query()
		qs, err := svc.List(r.Context(), bank.Filter{
			Class:   q.Get("class"),
			Subject: q.Get("subject"),
			Topic:   q.Get("topic"),
			Limit:   queryInt(r, "limit", 0),
			Offset:  queryInt(r, "offset", 0),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeQuestions(w, r, res, qs)
	}
}

// GET /questions/topics/{class}/{subject}
func TopicsHandler(svc *bank.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		topics, err := svc.Topics(r.Context(), chi.URLParam(r, "class"), chi.URLParam(r, "subject"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, map[string][]string{"topics": topics})
	}
}

// GET /questions/{class}/{subject}/{topic}
func TopicQuestionsHandler(svc *bank.Service, res *media.Resolver) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		key := bank.TopicKey{
			Class:   chi.URLParam(r, "class"),
			Subject: chi.URLParam(r, "subject"),
			Topic:   chi.URLParam(r, "topic"),
		}
		qs, err := svc.FetchQuestions(r.Context(), key)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeQuestions(w, r, res, qs)
	}
}

func GetQuestionHandler(svc *bank.Service, res *media.Resolver) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		q, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if rbac.Can(r.Context(), permAnswers) {
			writeJSON(w, nethttp.StatusOK, q)
			return
		}
		writeJSON(w, nethttp.StatusOK, res.Question(q.Key(), q))
	}
}

func UpdateQuestionHandler(svc *bank.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var q bank.Question
		if err := decodeJSON(r, &q); err != nil {
			writeError(w, r, err)
			return
		}
		out, err := svc.Update(r.Context(), chi.URLParam(r, "id"), q)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, out)
	}
}

func DeleteQuestionHandler(svc *bank.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(nethttp.StatusNoContent)
	}
}

func writeQuestions(w nethttp.ResponseWriter, r *nethttp.Request, res *media.Resolver, qs []bank.Question) {
	if rbac.Can(r.Context(), permAnswers) {
		writeJSON(w, nethttp.StatusOK, qs)
		return
	}
	views := make([]media.QuestionView, len(qs))
	for i, q := range qs {
		views[i] = res.Question(q.Key(), q)
	}
	writeJSON(w, nethttp.StatusOK, views)
}
