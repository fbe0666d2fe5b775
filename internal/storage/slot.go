package storage

import (
	"context"
	"errors"
)

var (
	ErrSlotEmpty     = errors.New("slot is empty")
	ErrQuotaExceeded = errors.New("slot quota exceeded")
)

// Slot holds one serialized snapshot. Save overwrites whatever the slot held.
type Slot interface {
	Name() string
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
}
