package bank

import (
	"context"
	"log"
)

// Service is the question bank used by the HTTP layer and practice sessions.
// Topic reads go through the cache; writes invalidate the affected topics.
// Cache failures are logged and never fail a request.
type Service struct {
	store Store
	cache Cache
}

func NewService(store Store, cache Cache) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{store: store, cache: cache}
}

// FetchQuestions returns the ordered question set for one topic.
func (s *Service) FetchQuestions(ctx context.Context, key TopicKey) ([]Question, error) {
	if qs, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Printf("bank: cache get %v: %v", key, err)
	} else if ok {
		return qs, nil
	}
	qs, err := s.store.ByTopic(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, qs); err != nil {
		log.Printf("bank: cache set %v: %v", key, err)
	}
	return qs, nil
}

func (s *Service) Topics(ctx context.Context, class, subject string) ([]string, error) {
	return s.store.Topics(ctx, class, subject)
}

func (s *Service) Get(ctx context.Context, id string) (Question, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) GetMany(ctx context.Context, ids []string) ([]Question, error) {
	return s.store.GetMany(ctx, ids)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Question, error) {
	return s.store.List(ctx, f)
}

func (s *Service) Create(ctx context.Context, q Question) (Question, error) {
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	out, err := s.store.Create(ctx, q)
	if err != nil {
		return Question{}, err
	}
	s.invalidate(ctx, out.Key())
	return out, nil
}

func (s *Service) Update(ctx context.Context, id string, q Question) (Question, error) {
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	old, err := s.store.Get(ctx, id)
	if err != nil {
		return Question{}, err
	}
	out, err := s.store.Update(ctx, id, q)
	if err != nil {
		return Question{}, err
	}
	s.invalidate(ctx, old.Key(), out.Key())
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	old, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, old.Key())
	return nil
}

func (s *Service) invalidate(ctx context.Context, keys ...TopicKey) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		log.Printf("bank: cache invalidate %v: %v", keys, err)
	}
}
