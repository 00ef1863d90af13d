package reconcile

import (
	"context"
	"sync"
)

// AccountLocks serializes work per account. Different accounts never contend.
type AccountLocks struct {
	locks map[string]*accountLock
	mu    sync.Mutex
}

type accountLock struct {
	sem  chan struct{}
	refs int
}

// NewAccountLocks creates an empty lock set.
func NewAccountLocks() *AccountLocks {
	return &AccountLocks{locks: make(map[string]*accountLock)}
}

// Lock blocks until accountID is free or ctx is done. The returned func releases the lock.
func (l *AccountLocks) Lock(ctx context.Context, accountID string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[accountID]
	if !ok {
		lock = &accountLock{sem: make(chan struct{}, 1)}
		l.locks[accountID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.sem <- struct{}{}:
		return func() {
			<-lock.sem
			l.release(accountID, lock)
		}, nil
	case <-ctx.Done():
		l.release(accountID, lock)
		return nil, ctx.Err()
	}
}

func (l *AccountLocks) release(accountID string, lock *accountLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, accountID)
	}
}

// size reports how many accounts currently hold or wait for a lock.
func (l *AccountLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
