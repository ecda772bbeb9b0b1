package http

import (
	"encoding/json"
	"io"
	"mime"
	nethttp "net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/bhaskar601/shikshaoffline/internal/bank"
	"github.com/bhaskar601/shikshaoffline/internal/media"
	"github.com/bhaskar601/shikshaoffline/internal/storage"
)

// MountImages serves question and hint images read-only. Missing assets are
// 404 so the client hides the element.
func MountImages(r chi.Router, bs storage.BlobStore) {
	// GET /images/*  -> the blob at {class}/{subject}/{topic}/{file}
	r.Get("/*", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		if key == "" {
			nethttp.NotFound(w, r)
			return
		}
		rc, err := bs.Get(key)
		if errors.Is(err, storage.ErrNotExist) {
			nethttp.NotFound(w, r)
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer rc.Close()
		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = io.Copy(w, rc)
	})
}

// UploadImageHandler stores a multipart "file" under the topic's image folder.
// POST /uploads/images/{class}/{subject}/{topic}
func UploadImageHandler(bs storage.BlobStore) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		r.Body = nethttp.MaxBytesReader(w, r.Body, 10<<20)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, nethttp.StatusBadRequest, errorBody{Error: "file required"})
			return
		}
		defer f.Close()

		k := bank.TopicKey{
			Class:   chi.URLParam(r, "class"),
			Subject: chi.URLParam(r, "subject"),
			Topic:   chi.URLParam(r, "topic"),
		}
		name := media.FileName(hdr.Filename)
		if name == "" {
			writeJSON(w, nethttp.StatusBadRequest, errorBody{Error: "bad file name"})
			return
		}
		key, err := bs.Put(media.Key(k, name), f)
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(nethttp.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"key": key, "name": name, "url": media.URL(k, name)})
	}
}
