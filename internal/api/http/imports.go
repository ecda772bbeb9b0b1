package http

import (
	"bytes"
	"io"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bhaskar601/shikshaoffline/internal/bank"
	"github.com/bhaskar601/shikshaoffline/internal/media"
	"github.com/bhaskar601/shikshaoffline/internal/qti"
	"github.com/bhaskar601/shikshaoffline/internal/storage"
)

const maxPackage = 32 << 20

type importResult struct {
	Imported  int             `json:"imported"`
	Questions []bank.Question `json:"questions"`
	Skipped   []qti.Skipped   `json:"skipped"`
}

// ImportQTIHandler loads a QTI content package (multipart "file") into a topic.
// Items that cannot be mapped or stored are reported back, not fatal.
// POST /questions/import/{class}/{subject}/{topic}
func ImportQTIHandler(svc *bank.Service, bs storage.BlobStore) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		r.Body = nethttp.MaxBytesReader(w, r.Body, maxPackage+1<<20)
		f, _, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, nethttp.StatusBadRequest, errorBody{Error: "file required"})
			return
		}
		defer f.Close()
		buf, err := io.ReadAll(io.LimitReader(f, maxPackage+1))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if len(buf) > maxPackage {
			writeJSON(w, nethttp.StatusRequestEntityTooLarge, errorBody{Error: "package too large"})
			return
		}
		pkg, err := qti.Open(bytes.NewReader(buf), int64(len(buf)))
		if err != nil {
			writeJSON(w, nethttp.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}

		k := bank.TopicKey{
			Class:   chi.URLParam(r, "class"),
			Subject: chi.URLParam(r, "subject"),
			Topic:   chi.URLParam(r, "topic"),
		}
		imp := pkg.Questions(k)
		res := importResult{Questions: []bank.Question{}, Skipped: imp.Skipped}

		for name, src := range imp.Images {
			b, err := pkg.ReadFile(src)
			if err == nil {
				_, err = bs.Put(media.Key(k, name), bytes.NewReader(b))
			}
			if err != nil {
				// the question still imports; the resolver hides a missing image
				res.Skipped = append(res.Skipped, qti.Skipped{Item: src, Reason: err.Error()})
			}
		}
		for _, q := range imp.Questions {
			out, err := svc.Create(r.Context(), q)
			if err != nil {
				res.Skipped = append(res.Skipped, qti.Skipped{Item: q.Prompt, Reason: err.Error()})
				continue
			}
			res.Questions = append(res.Questions, out)
		}
		res.Imported = len(res.Questions)
		if res.Skipped == nil {
			res.Skipped = []qti.Skipped{}
		}
		writeJSON(w, nethttp.StatusCreated, res)
	}
}
