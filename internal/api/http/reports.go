package http

import (
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/bhaskar601/shikshaoffline/internal/auth/middleware"
	"github.com/bhaskar601/shikshaoffline/internal/eventlog"
	"github.com/bhaskar601/shikshaoffline/internal/rbac"
	"github.com/bhaskar601/shikshaoffline/internal/report"
)

func CreateReportHandler(reports *report.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var rep report.Report
		if err := decodeJSON(r, &rep); err != nil {
			writeError(w, r, err)
			return
		}
		rep.ID, rep.CreatedAt = "", 0
		out, err := reports.Create(r.Context(), rep)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusCreated, out)
	}
}

func ListReportsHandler(reports *report.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		out, err := reports.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, out)
	}
}

// GET /reports/{id}; students only see their own.
func GetReportHandler(reports *report.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		rep, err := reports.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !rbac.Can(r.Context(), "report:view-all") && rep.StudentID != authmw.SubjectFromContext(r.Context()) {
			writeJSON(w, nethttp.StatusForbidden, errorBody{Error: "forbidden"})
			return
		}
		writeJSON(w, nethttp.StatusOK, rep)
	}
}

func StudentReportsHandler(reports *report.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		out, err := reports.ByStudent(r.Context(), chi.URLParam(r, "studentID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, out)
	}
}

func DeleteReportHandler(reports *report.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if err := reports.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(nethttp.StatusNoContent)
	}
}

// GET /events?type=&limit=
func ListEventsHandler(events *eventlog.Repo) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		out, err := events.List(r.Context(), r.URL.Query().Get("type"), queryInt(r, "limit", 100))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, out)
	}
}
