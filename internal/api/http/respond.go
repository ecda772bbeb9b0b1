package http

import (
	"encoding/json"
	"io"
	"log"
	nethttp "net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/bhaskar601/shikshaoffline/internal/account"
	"github.com/bhaskar601/shikshaoffline/internal/apperr"
	"github.com/bhaskar601/shikshaoffline/internal/practice"
)

const maxBody = 1 << 20

var errBadJSON = errors.New("bad json")

type errorBody struct {
	Error  string              `json:"error"`
	Fields []apperr.FieldError `json:"fields,omitempty"`
}

func writeJSON(w nethttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes. Unknown errors are logged
// and reported as 500 without detail.
func writeError(w nethttp.ResponseWriter, r *nethttp.Request, err error) {
	var verr *apperr.ValidationError
	switch {
	case errors.Is(err, errBadJSON):
		writeJSON(w, nethttp.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.As(err, &verr):
		writeJSON(w, nethttp.StatusBadRequest, errorBody{Error: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, account.ErrInvalidCredentials):
		writeJSON(w, nethttp.StatusUnauthorized, errorBody{Error: err.Error()})
	case apperr.IsNotFound(err):
		writeJSON(w, nethttp.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, practice.ErrEmptyQuestionSet):
		writeJSON(w, nethttp.StatusNotFound, errorBody{Error: "no questions available"})
	case apperr.IsConflict(err),
		errors.Is(err, practice.ErrNoResponseYet),
		errors.Is(err, practice.ErrSessionCompleted),
		errors.Is(err, practice.ErrSessionNotFinished):
		writeJSON(w, nethttp.StatusConflict, errorBody{Error: err.Error()})
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, nethttp.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func decodeJSON(r *nethttp.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errBadJSON, err.Error())
	}
	return nil
}

func queryInt(r *nethttp.Request, name string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && v >= 0 {
		return v
	}
	return def
}
