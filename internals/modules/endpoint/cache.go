package endpoint

import (
	"context"

	"github.com/google/uuid"
)

type StatusCache interface {
	StoreStatus(ctx context.Context, s StatusSnapshot) error
	GetStatus(ctx context.Context, endpointID uuid.UUID) (StatusSnapshot, bool, error)
	DelStatus(ctx context.Context, endpointID uuid.UUID) error
}
