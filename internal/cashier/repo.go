package cashier

import (
	"context"

	"github.com/google/uuid"
)

type Repo interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	// FindOpenByBranch returns the branch's open session, or nil.
	FindOpenByBranch(ctx context.Context, branchID string) (*Session, error)
	ListByBranch(ctx context.Context, branchID string) ([]*Session, error)
	Save(ctx context.Context, session *Session) error
}
