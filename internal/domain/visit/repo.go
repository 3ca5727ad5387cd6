package visit

import (
	"context"
	"errors"

	"github.com/visitdesk/visitdesk/pkg/pagination"
)

var (
	ErrNotFound             = errors.New("visit not found")
	ErrNotOwned             = errors.New("no visit owned by the caller matched")
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
	ErrUnknownPatient       = errors.New("patient does not exist")
)

// Repository is the visit entity store.
type Repository interface {
	Create(ctx context.Context, v *Visit) error
	// GetOwned returns ErrNotFound unless visit id belongs to clinicianID.
	GetOwned(ctx context.Context, id, clinicianID int64) (*Visit, error)
	// Update replaces every mutable field of an owned visit and refreshes v
	// from the stored row. ErrNotFound if no owned row matched.
	Update(ctx context.Context, v *Visit) error
	// UpdateStatus sets the status of an owned visit whose current status is
	// in from, reporting whether a row matched.
	UpdateStatus(ctx context.Context, id, clinicianID int64, to VisitStatus, from []VisitStatus) (bool, error)
	// Search returns one page of visits matching p plus the total match count.
	Search(ctx context.Context, p Predicate, page pagination.Params) ([]*Detail, int, error)
}
