package qti

import (
	"github.com/bhaskar601/shikshaoffline/internal/bank"
	"github.com/bhaskar601/shikshaoffline/internal/media"
)

type Skipped struct {
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

// Import is the mapped content of a package for one topic.
type Import struct {
	Questions []bank.Question
	// image file name -> package path; the caller copies them to the blob store
	Images  map[string]string
	Skipped []Skipped
}

// Questions maps the package's single-choice items onto questions of topic k,
// in manifest order. Other item kinds are reported as skipped.
func (p *Package) Questions(k bank.TopicKey) Import {
	out := Import{Images: map[string]string{}}
	for i, name := range p.Items {
		it, err := p.ParseItem(name)
		if err != nil {
			out.Skipped = append(out.Skipped, Skipped{Item: name, Reason: err.Error()})
			continue
		}
		q, reason := toQuestion(k, it)
		if reason != "" {
			out.Skipped = append(out.Skipped, Skipped{Item: name, Reason: reason})
			continue
		}
		q.Position = i
		if it.Image != "" {
			if fn := media.FileName(it.Image); fn != "" {
				q.Image = fn
				out.Images[fn] = it.Image
			}
		}
		out.Questions = append(out.Questions, q)
	}
	return out
}

func toQuestion(k bank.TopicKey, it Item) (bank.Question, string) {
	if it.Kind != InteractionChoiceSingle {
		return bank.Question{}, "unsupported interaction " + string(it.Kind)
	}
	if len(it.AnswerKey) != 1 {
		return bank.Question{}, "expected exactly one correct response"
	}
	q := bank.Question{
		Class:   k.Class,
		Subject: k.Subject,
		Topic:   k.Topic,
		Prompt:  it.Prompt,
	}
	if q.Prompt == "" {
		q.Prompt = it.Title
	}
	for _, c := range it.Choices {
		q.Options = append(q.Options, c.Label)
		if c.ID == it.AnswerKey[0] {
			q.CorrectAnswer = c.Label
		}
	}
	if q.CorrectAnswer == "" {
		return bank.Question{}, "correct response " + it.AnswerKey[0] + " is not a choice"
	}
	return q, ""
}
