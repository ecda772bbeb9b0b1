// Package practice implements one learner's pass through a fixed, ordered
// question set: answer or skip each question, advance, and score the result.
//
// A Session is owned by a single caller and is not safe for concurrent use;
// Manager adds locking for sessions shared through the HTTP API.
package practice

import (
	"errors"
	"math"
	"time"

	"github.com/bhaskar601/shikshaoffline/internal/bank"
)

var (
	ErrEmptyQuestionSet   = errors.New("practice: empty question set")
	ErrNoResponseYet      = errors.New("practice: current question has not been answered or skipped")
	ErrSessionNotFinished = errors.New("practice: session not finished")
	ErrSessionCompleted   = errors.New("practice: session already completed")
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Phase is the sub-state of an in-progress session.
type Phase string

const (
	PhaseAwaitingAnswer  Phase = "awaiting_answer"
	PhaseShowingFeedback Phase = "showing_feedback"
	PhaseDone            Phase = "done"
)

type Response struct {
	SelectedOption string `json:"selectedOption"`
	IsCorrect      bool   `json:"isCorrect"`
}

type Option func(*Session)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

type Session struct {
	questions []bank.Question
	current   int
	phase     Phase
	status    Status
	// current question was skipped; only unlocks Advance
	skipped   bool
	responses map[string]Response

	startedAt         time.Time
	questionStartedAt time.Time
	finishedAt        time.Time

	now  func() time.Time
	opts []Option
}

// Start begins a session over questions. The slice is copied and fixed for
// the session's lifetime.
func Start(questions []bank.Question, opts ...Option) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrEmptyQuestionSet
	}
	s := &Session{
		questions: append([]bank.Question(nil), questions...),
		now:       time.Now,
		opts:      opts,
	}
	for _, o := range opts {
		o(s)
	}
	s.begin()
	return s, nil
}

func (s *Session) begin() {
	t := s.now()
	s.current = 0
	s.phase = PhaseAwaitingAnswer
	s.skipped = false
	s.status = StatusInProgress
	s.responses = map[string]Response{}
	s.startedAt = t
	s.questionStartedAt = t
	s.finishedAt = time.Time{}
}

// Reset returns a fresh session over the same questions. The receiver is left
// untouched; callers drop it.
func (s *Session) Reset() *Session {
	n := &Session{questions: s.questions, now: time.Now, opts: s.opts}
	for _, o := range s.opts {
		o(n)
	}
	n.begin()
	return n
}

// SubmitAnswer records option for the current question, also after a Skip.
// Repeating the call before Advance returns the recorded verdict without
// scoring again.
func (s *Session) SubmitAnswer(option string) (View, error) {
	if s.status == StatusCompleted {
		return View{}, ErrSessionCompleted
	}
	q := s.questions[s.current]
	if s.phase == PhaseShowingFeedback {
		return s.View(), nil
	}
	// a question repeated later in the set keeps its first response
	if _, ok := s.responses[q.ID]; !ok {
		s.responses[q.ID] = Response{SelectedOption: option, IsCorrect: option == q.CorrectAnswer}
	}
	s.phase = PhaseShowingFeedback
	return s.View(), nil
}

// Skip lets Advance pass the current question without a response. The
// sub-state does not change. Skipping an answered question does nothing.
func (s *Session) Skip() error {
	if s.status == StatusCompleted {
		return ErrSessionCompleted
	}
	if s.phase == PhaseAwaitingAnswer {
		s.skipped = true
	}
	return nil
}

// Advance moves past the current question once it has been answered or
// skipped. Advancing from the last question completes the session.
func (s *Session) Advance() (View, error) {
	if s.status == StatusCompleted {
		return View{}, ErrSessionCompleted
	}
	if s.phase == PhaseAwaitingAnswer && !s.skipped {
		return View{}, ErrNoResponseYet
	}
	t := s.now()
	s.skipped = false
	if s.current == len(s.questions)-1 {
		s.finishedAt = t
		s.status = StatusCompleted
		s.phase = PhaseDone
		return s.View(), nil
	}
	s.current++
	s.phase = PhaseAwaitingAnswer
	s.questionStartedAt = t
	return s.View(), nil
}

func (s *Session) Status() Status { return s.status }

func (s *Session) Completed() bool { return s.status == StatusCompleted }

func (s *Session) CurrentIndex() int { return s.current }

func (s *Session) Len() int { return len(s.questions) }

// Current is the question at the current index. After completion it is the last question.
func (s *Session) Current() bank.Question { return s.questions[s.current] }

func (s *Session) Questions() []bank.Question {
	return append([]bank.Question(nil), s.questions...)
}

// Responses returns a copy of the recorded responses keyed by question ID.
func (s *Session) Responses() map[string]Response {
	out := make(map[string]Response, len(s.responses))
	for k, v := range s.responses {
		out[k] = v
	}
	return out
}

// Unattempted counts questions without a response, skipped or not yet reached.
func (s *Session) Unattempted() int { return len(s.questions) - len(s.responses) }

func (s *Session) StartedAt() time.Time { return s.startedAt }

// FinishedAt is zero until the session completes.
func (s *Session) FinishedAt() time.Time { return s.finishedAt }

// Elapsed is the live session time, frozen at completion.
func (s *Session) Elapsed() time.Duration {
	if s.status == StatusCompleted {
		return s.finishedAt.Sub(s.startedAt)
	}
	return s.now().Sub(s.startedAt)
}

type Summary struct {
	Total                  int     `json:"total"`
	CorrectCount           int     `json:"correct"`
	IncorrectCount         int     `json:"incorrect"`
	UnattemptedCount       int     `json:"unattempted"`
	TotalTimeSeconds       float64 `json:"totalTimeSeconds"`
	AverageTimePerQuestion float64 `json:"averageTimePerQuestion"`
	ScorePercent           int     `json:"scorePercent"`
	Band                   Band    `json:"band"`
}

func (s *Session) Summary() (Summary, error) {
	if s.status != StatusCompleted {
		return Summary{}, ErrSessionNotFinished
	}
	sum := Summary{Total: len(s.questions), UnattemptedCount: s.Unattempted()}
	for _, r := range s.responses {
		if r.IsCorrect {
			sum.CorrectCount++
		} else {
			sum.IncorrectCount++
		}
	}
	sum.TotalTimeSeconds = s.finishedAt.Sub(s.startedAt).Seconds()
	if sum.Total > 0 {
		sum.AverageTimePerQuestion = sum.TotalTimeSeconds / float64(sum.Total)
	}
	sum.ScorePercent = ScorePercent(sum.CorrectCount, sum.Total)
	sum.Band = BandFor(sum.ScorePercent)
	return sum, nil
}

// ScorePercent is round(100*correct/total), 0 for an empty set.
func ScorePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// Band labels a score for the result screen.
type Band string

const (
	BandOutstanding    Band = "outstanding"
	BandExcellent      Band = "excellent"
	BandGood           Band = "good"
	BandKeepPracticing Band = "keep_practicing"
	BandNeedsPractice  Band = "needs_practice"
)

func BandFor(score int) Band {
	switch {
	case score >= 90:
		return BandOutstanding
	case score >= 80:
		return BandExcellent
	case score >= 70:
		return BandGood
	case score >= 60:
		return BandKeepPracticing
	}
	return BandNeedsPractice
}
