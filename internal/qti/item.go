package qti

import (
	"bytes"
	"encoding/xml"
	"path"
	"strings"

	"github.com/pkg/errors"
)

type assessmentItem struct {
	XMLName      xml.Name            `xml:"assessmentItem"`
	Identifier   string              `xml:"identifier,attr"`
	Title        string              `xml:"title,attr"`
	Body         itemBody            `xml:"itemBody"`
	ResponseDecl responseDeclaration `xml:"responseDeclaration"`
}
type itemBody struct {
	RawXML string `xml:",innerxml"`
}
type responseDeclaration struct {
	Identifier  string `xml:"identifier,attr"`
	Cardinality string `xml:"cardinality,attr"` // single|multiple
	Correct     struct {
		Values []string `xml:"value"`
	} `xml:"correctResponse"`
}

type InteractionType string

const (
	InteractionChoiceSingle InteractionType = "choice_single"
	InteractionChoiceMulti  InteractionType = "choice_multi"
	InteractionTextEntry    InteractionType = "text_entry"
	InteractionExtendedText InteractionType = "extended_text"
)

type Item struct {
	ID        string
	Title     string
	Prompt    string // plain text
	Image     string // package path of the first prompt image, if any
	Kind      InteractionType
	Choices   []Choice
	AnswerKey []string // correct choice ids
}

type Choice struct {
	ID    string
	Label string // plain text
}

// ParseItem reads one assessmentItem file from the package.
func (p *Package) ParseItem(name string) (Item, error) {
	b, err := p.ReadFile(name)
	if err != nil {
		return Item{}, err
	}
	// item bodies are XHTML-ish; tolerate HTML entities and void tags
	dec := xml.NewDecoder(bytes.NewReader(b))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	var it assessmentItem
	if err := dec.Decode(&it); err != nil {
		return Item{}, errors.Wrapf(err, "qti: parse %s", name)
	}

	prompt, choices, img := scanBody(it.Body.RawXML)
	out := Item{
		ID:      it.Identifier,
		Title:   it.Title,
		Prompt:  prompt,
		Choices: choices,
	}
	if img != "" && !strings.Contains(img, "://") {
		out.Image = path.Join(path.Dir(name), img)
	}

	body := strings.ToLower(it.Body.RawXML)
	switch {
	case strings.Contains(body, "<choiceinteraction"):
		out.Kind = InteractionChoiceSingle
		if it.ResponseDecl.Cardinality == "multiple" {
			out.Kind = InteractionChoiceMulti
		}
		out.AnswerKey = it.ResponseDecl.Correct.Values
	case strings.Contains(body, "<textentryinteraction"):
		out.Kind = InteractionTextEntry
		out.AnswerKey = it.ResponseDecl.Correct.Values
	default:
		out.Kind = InteractionExtendedText
	}
	return out, nil
}

// scanBody walks the item body once. Text outside interactions (and the
// interaction's own <prompt>) becomes the prompt; simpleChoice elements become
// choices; the first <img src> is returned.
func scanBody(inner string) (prompt string, choices []Choice, img string) {
	dec := xml.NewDecoder(strings.NewReader("<body>" + inner + "</body>"))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var (
		sb     strings.Builder
		choice *Choice
		label  strings.Builder
	)
	for {
		t, err := dec.Token()
		if err != nil {
			break
		}
		switch tok := t.(type) {
		case xml.StartElement:
			switch strings.ToLower(tok.Name.Local) {
			case "simplechoice":
				choice = &Choice{ID: attr(tok, "identifier")}
				label.Reset()
			case "img":
				if img == "" {
					img = attr(tok, "src")
				}
			case "p", "div", "br":
				if choice == nil {
					sb.WriteByte(' ')
				}
			}
		case xml.EndElement:
			if strings.EqualFold(tok.Name.Local, "simpleChoice") && choice != nil {
				choice.Label = collapse(label.String())
				choices = append(choices, *choice)
				choice = nil
			}
		case xml.CharData:
			if choice != nil {
				label.Write(tok)
			} else {
				sb.Write(tok)
			}
		}
	}
	return collapse(sb.String()), choices, img
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
