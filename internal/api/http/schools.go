package http

import (
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bhaskar601/shikshaoffline/internal/school"
	"github.com/bhaskar601/shikshaoffline/internal/validate"
)

func CreateSchoolHandler(schools *school.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var sc school.School
		if err := decodeJSON(r, &sc); err != nil {
			writeError(w, r, err)
			return
		}
		if err := validate.Struct(sc); err != nil {
			writeError(w, r, err)
			return
		}
		out, err := schools.Create(r.Context(), sc)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusCreated, out)
	}
}

// GET /schools is public; the registration form lists institutes from it.
func ListSchoolsHandler(schools *school.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		out, err := schools.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, out)
	}
}

func GetSchoolHandler(schools *school.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		out, err := schools.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, out)
	}
}

func UpdateSchoolHandler(schools *school.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var sc school.School
		if err := decodeJSON(r, &sc); err != nil {
			writeError(w, r, err)
			return
		}
		sc.ID = chi.URLParam(r, "id")
		if err := validate.Struct(sc); err != nil {
			writeError(w, r, err)
			return
		}
		out, err := schools.Update(r.Context(), sc.ID, sc)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, out)
	}
}

func DeleteSchoolHandler(schools *school.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if err := schools.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(nethttp.StatusNoContent)
	}
}
