package practice

import "time"

// Verdict is shown once an answer is recorded for the current question.
type Verdict struct {
	SelectedOption string `json:"selectedOption"`
	IsCorrect      bool   `json:"isCorrect"`
	CorrectOption  string `json:"correctOption"`
}

// View is the read model the display layer renders between actions.
type View struct {
	Index           int      `json:"index"`
	Total           int      `json:"total"`
	Status          Status   `json:"status"`
	Phase           Phase    `json:"phase"`
	ShowingFeedback bool     `json:"showingFeedback"`
	Answered        int      `json:"answered"`
	Unattempted     int      `json:"unattempted"`
	Verdict         *Verdict `json:"verdict,omitempty"`

	Elapsed         time.Duration `json:"-"`
	QuestionElapsed time.Duration `json:"-"`
	ElapsedSeconds  float64       `json:"elapsedSeconds"`
	// time on the current question; restarts on every Advance
	QuestionElapsedSeconds float64 `json:"questionElapsedSeconds"`
}

func (s *Session) View() View {
	v := View{
		Index:           s.current,
		Total:           len(s.questions),
		Status:          s.status,
		Phase:           s.phase,
		ShowingFeedback: s.phase == PhaseShowingFeedback,
		Answered:        len(s.responses),
		Unattempted:     s.Unattempted(),
		Elapsed:         s.Elapsed(),
	}
	if s.status == StatusCompleted {
		v.QuestionElapsed = s.finishedAt.Sub(s.questionStartedAt)
	} else {
		v.QuestionElapsed = s.now().Sub(s.questionStartedAt)
	}
	v.ElapsedSeconds = v.Elapsed.Seconds()
	v.QuestionElapsedSeconds = v.QuestionElapsed.Seconds()

	if v.ShowingFeedback {
		q := s.questions[s.current]
		r := s.responses[q.ID]
		v.Verdict = &Verdict{SelectedOption: r.SelectedOption, IsCorrect: r.IsCorrect, CorrectOption: q.CorrectAnswer}
	}
	return v
}
