// Package slotlock serialises writers of a single reservation slot. A slot
// is identified by its gym product and exact reservation date time.
package slotlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrLockTimeout = errors.New("slot lock not acquired")

// Locker acquires an exclusive lock on key. The returned release function
// is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

func Key(gymProductID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("slot:%s:%d", gymProductID, at.UTC().UnixMicro())
}
