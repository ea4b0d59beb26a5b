package booking

import (
	"context"
	"sync"

	"github.com/google/uuid"

	redisclient "github.com/hackgods/clinic-booking/internal/redis"
)

// LocalLocker serializes mutations of a form within one process. It fails
// fast like the Redis locker instead of queueing.
type LocalLocker struct {
	mu   sync.Mutex
	held map[uuid.UUID]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[uuid.UUID]struct{})}
}

var _ redisclient.Locker = (*LocalLocker)(nil)

func (l *LocalLocker) WithFormLock(ctx context.Context, formID uuid.UUID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if _, busy := l.held[formID]; busy {
		l.mu.Unlock()
		return redisclient.ErrLockNotAcquired
	}
	l.held[formID] = struct{}{}
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, formID)
		l.mu.Unlock()
	}()

	return fn(ctx)
}
