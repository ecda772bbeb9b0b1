package bank

import "context"

type Store interface {
	Create(ctx context.Context, q Question) (Question, error)
	Get(ctx context.Context, id string) (Question, error)
	// GetMany returns the questions in ids order, skipping ids that do not exist.
	GetMany(ctx context.Context, ids []string) ([]Question, error)
	List(ctx context.Context, f Filter) ([]Question, error)
	ByTopic(ctx context.Context, key TopicKey) ([]Question, error)
	Topics(ctx context.Context, class, subject string) ([]string, error)
	Update(ctx context.Context, id string, q Question) (Question, error)
	Delete(ctx context.Context, id string) error
}
