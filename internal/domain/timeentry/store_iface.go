package timeentry

import (
	"context"
	"time"

	"timebank/internal/domain/workday"
)

// StoreAPI persists one user's entries. At most one open entry per user is
// enforced by the backend; violations surface as ErrOpenEntryExists.
type StoreAPI interface {
	List(ctx context.Context, userID string) ([]workday.Entry, error)
	Create(ctx context.Context, userID string, start time.Time) (workday.Entry, error)
	Update(ctx context.Context, userID string, entry workday.Entry) error
	DeleteMany(ctx context.Context, userID string, ids []string) error
}
