package absence

import "context"

type StoreAPI interface {
	Create(ctx context.Context, req Request) (Request, error)
	Get(ctx context.Context, id string) (Request, error)
	ListByUser(ctx context.Context, userID string) ([]Request, error)
	ListByStatus(ctx context.Context, status string) ([]Request, error)
	// Update rewrites type, dates, reason and hours of a request still pending.
	Update(ctx context.Context, req Request) (Request, error)
	// Transition moves a request from d.From to d.To. It returns ErrInvalidState
	// when the stored status is no longer d.From.
	Transition(ctx context.Context, id string, d Decision) (Request, error)
	Delete(ctx context.Context, id string, allowed []string) error
}
