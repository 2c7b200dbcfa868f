package session

import (
	"context"
	"sync"
)

// Locker serializes work per chat id. Entries are refcounted and removed
// once nobody holds or waits on them.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[int64]*keyLock)}
}

// Lock blocks until the lock for chatID is held or ctx is done.
func (l *Locker) Lock(ctx context.Context, chatID int64) (unlock func(), err error) {
	l.mu.Lock()
	kl, ok := l.locks[chatID]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[chatID] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(chatID, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			l.release(chatID, kl)
		})
	}, nil
}

func (l *Locker) release(chatID int64, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, chatID)
	}
}

// Len returns the number of live entries.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
