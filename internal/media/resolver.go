// Package media turns the image references stored on questions into local
// asset URLs under /images/{class}/{subject}/{topic}/{filename}.
package media

import (
	"log"
	"net/url"
	"strings"

	"github.com/bhaskar601/shikshaoffline/internal/bank"
	"github.com/bhaskar601/shikshaoffline/internal/storage"
)

const URLPrefix = "/images/"

// Asset is a resolved image. Hidden means the display layer must omit the
// element entirely; URL is empty in that case.
type Asset struct {
	URL    string `json:"url,omitempty"`
	Hidden bool   `json:"hidden"`
}

type HintView struct {
	Text  string `json:"text,omitempty"`
	Image *Asset `json:"image,omitempty"`
	Video string `json:"video,omitempty"`
}

// QuestionView is a question as shown to a learner: no correct answer.
type QuestionView struct {
	ID      string    `json:"id"`
	Prompt  string    `json:"question"`
	Image   *Asset    `json:"questionImage,omitempty"`
	Options []string  `json:"options"`
	Hint    *HintView `json:"hint,omitempty"`
}

type Resolver struct {
	store storage.BlobStore
}

func NewResolver(store storage.BlobStore) *Resolver {
	return &Resolver{store: store}
}

// FileName is the last path segment of a stored reference; the reference
// itself (often a remote URL or an upload path) is never followed.
func FileName(ref string) string {
	ref = strings.TrimSpace(ref)
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		ref = ref[i+1:]
	}
	if ref == "." || ref == ".." {
		return ""
	}
	return ref
}

// Key is the blob-store key for a file name within a topic.
func Key(k bank.TopicKey, name string) string {
	return k.Class + "/" + k.Subject + "/" + k.Topic + "/" + name
}

// URL is the public path for a file name within a topic.
func URL(k bank.TopicKey, name string) string {
	return URLPrefix + url.PathEscape(k.Class) + "/" + url.PathEscape(k.Subject) + "/" +
		url.PathEscape(k.Topic) + "/" + url.PathEscape(name)
}

// Image resolves ref. It returns nil for a blank ref and a hidden asset when
// the file is not in the store.
func (r *Resolver) Image(k bank.TopicKey, ref string) *Asset {
	if strings.TrimSpace(ref) == "" {
		return nil
	}
	name := FileName(ref)
	if name == "" {
		return &Asset{Hidden: true}
	}
	ok, err := r.store.Exists(Key(k, name))
	if err != nil {
		log.Printf("media: stat %s: %v", Key(k, name), err)
	}
	if !ok {
		return &Asset{Hidden: true}
	}
	return &Asset{URL: URL(k, name)}
}

// Hint resolves a hint; nil when it has no content.
func (r *Resolver) Hint(k bank.TopicKey, h *bank.Hint) *HintView {
	if h.Empty() {
		return nil
	}
	return &HintView{
		Text:  strings.TrimSpace(h.Text),
		Image: r.Image(k, h.Image),
		Video: strings.TrimSpace(h.Video),
	}
}

// Question builds the learner-facing view of q. Assets resolve against the
// topic the learner opened, which is q's own topic for topic practice.
func (r *Resolver) Question(k bank.TopicKey, q bank.Question) QuestionView {
	return QuestionView{
		ID:      q.ID,
		Prompt:  q.Prompt,
		Image:   r.Image(k, q.Image),
		Options: q.Options,
		Hint:    r.Hint(k, q.Hint),
	}
}
