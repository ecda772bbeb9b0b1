package practice

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bhaskar601/shikshaoffline/internal/apperr"
	"github.com/bhaskar601/shikshaoffline/internal/bank"
)

// TopicFetcher loads the question set for one topic.
type TopicFetcher interface {
	FetchQuestions(ctx context.Context, key bank.TopicKey) ([]bank.Question, error)
}

// QuizFetcher loads the ordered questions of a teacher-made quiz.
type QuizFetcher interface {
	QuizQuestions(ctx context.Context, quizID string) ([]bank.Question, error)
}

// Source says where a session's questions came from: a topic or a quiz.
type Source struct {
	Key    bank.TopicKey `json:"key"`
	QuizID string        `json:"quizId,omitempty"`
}

// Completion is handed to hooks when a session reaches Completed.
type Completion struct {
	SessionID  string
	StudentID  string
	Source     Source
	Summary    Summary
	FinishedAt time.Time
}

type CompletionHook func(ctx context.Context, c Completion) error

// Snapshot is a session's state after an operation.
type Snapshot struct {
	ID       string        `json:"id"`
	Owner    string        `json:"studentId"`
	Source   Source        `json:"source"`
	View     View          `json:"view"`
	Question bank.Question `json:"-"`
}

type entry struct {
	id      string
	owner   string
	source  Source
	session *Session
	touched time.Time
}

type ManagerOption func(*Manager)

func WithSessionOptions(opts ...Option) ManagerOption {
	return func(m *Manager) { m.sessionOpts = append(m.sessionOpts, opts...) }
}

// WithManagerClock sets the clock for both idle tracking and the sessions.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
		m.sessionOpts = append(m.sessionOpts, WithClock(now))
	}
}

func WithCompletionHook(h CompletionHook) ManagerOption {
	return func(m *Manager) { m.hooks = append(m.hooks, h) }
}

// Manager keeps the in-progress sessions of all learners in memory, keyed by
// session ID. Each session is visible only to the student who started it.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry

	topics  TopicFetcher
	quizzes QuizFetcher

	sessionOpts []Option
	hooks       []CompletionHook
	now         func() time.Time
}

func NewManager(topics TopicFetcher, quizzes QuizFetcher, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions: map[string]*entry{},
		topics:   topics,
		quizzes:  quizzes,
		now:      time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Start loads the question set and opens a session for owner. No session is
// created if loading fails or the set is empty.
func (m *Manager) Start(ctx context.Context, owner string, src Source) (Snapshot, error) {
	var (
		qs  []bank.Question
		err error
	)
	if strings.TrimSpace(src.QuizID) != "" {
		if m.quizzes == nil {
			return Snapshot{}, errors.New("practice: quiz sessions not configured")
		}
		qs, err = m.quizzes.QuizQuestions(ctx, src.QuizID)
	} else {
		qs, err = m.topics.FetchQuestions(ctx, src.Key)
	}
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "practice: load questions")
	}
	s, err := Start(qs, m.sessionOpts...)
	if err != nil {
		return Snapshot{}, err
	}

	e := &entry{id: uuid.NewString(), owner: owner, source: src, session: s, touched: m.now()}
	m.mu.Lock()
	m.sessions[e.id] = e
	m.mu.Unlock()
	return e.snapshot(), nil
}

func (m *Manager) Get(owner, id string) (Snapshot, error) {
	var snap Snapshot
	err := m.with(owner, id, func(e *entry) error {
		snap = e.snapshot()
		return nil
	})
	return snap, err
}

func (m *Manager) Answer(owner, id, option string) (Snapshot, error) {
	var snap Snapshot
	err := m.with(owner, id, func(e *entry) error {
		if _, err := e.session.SubmitAnswer(option); err != nil {
			return err
		}
		snap = e.snapshot()
		return nil
	})
	return snap, err
}

func (m *Manager) Skip(owner, id string) (Snapshot, error) {
	var snap Snapshot
	err := m.with(owner, id, func(e *entry) error {
		if err := e.session.Skip(); err != nil {
			return err
		}
		snap = e.snapshot()
		return nil
	})
	return snap, err
}

// Advance moves the session on and runs the completion hooks if this call
// completed it. Hook errors are logged; the session result stands.
func (m *Manager) Advance(ctx context.Context, owner, id string) (Snapshot, error) {
	var (
		snap Snapshot
		done *Completion
	)
	err := m.with(owner, id, func(e *entry) error {
		v, err := e.session.Advance()
		if err != nil {
			return err
		}
		snap = e.snapshot()
		if v.Status == StatusCompleted {
			sum, err := e.session.Summary()
			if err != nil {
				return err
			}
			done = &Completion{
				SessionID:  e.id,
				StudentID:  e.owner,
				Source:     e.source,
				Summary:    sum,
				FinishedAt: e.session.FinishedAt(),
			}
		}
		return nil
	})
	if err != nil || done == nil {
		return snap, err
	}
	for _, h := range m.hooks {
		if herr := h(ctx, *done); herr != nil {
			log.Printf("practice: completion hook for session %s: %v", done.SessionID, herr)
		}
	}
	return snap, nil
}

// Reset replaces the session with a fresh one over the same questions; the ID is kept.
func (m *Manager) Reset(owner, id string) (Snapshot, error) {
	var snap Snapshot
	err := m.with(owner, id, func(e *entry) error {
		e.session = e.session.Reset()
		snap = e.snapshot()
		return nil
	})
	return snap, err
}

func (m *Manager) Summary(owner, id string) (Summary, error) {
	var sum Summary
	err := m.with(owner, id, func(e *entry) error {
		var err error
		sum, err = e.session.Summary()
		return err
	})
	return sum, err
}

// Discard drops a session, e.g. when the learner navigates away.
func (m *Manager) Discard(owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok || e.owner != owner {
		return apperr.NotFound("practice session " + id)
	}
	delete(m.sessions, id)
	return nil
}

// Prune drops sessions untouched for longer than idle and returns how many went.
func (m *Manager) Prune(idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.sessions {
		if e.touched.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) with(owner, id string, fn func(e *entry) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok || e.owner != owner {
		return apperr.NotFound("practice session " + id)
	}
	e.touched = m.now()
	return fn(e)
}

func (e *entry) snapshot() Snapshot {
	return Snapshot{
		ID:       e.id,
		Owner:    e.owner,
		Source:   e.source,
		View:     e.session.View(),
		Question: e.session.Current(),
	}
}
