package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and audit timestamps every persisted
// domain object shares. Both aggregates in this domain are roots, so
// there is no separate entity abstraction on top of it.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity assigns a fresh id and stamps both timestamps
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch records a mutation time. Aggregates call it alongside every
// state change so UpdatedAt always reflects the last write.
func (e *BaseEntity) Touch(now time.Time) {
	e.UpdatedAt = now
}
