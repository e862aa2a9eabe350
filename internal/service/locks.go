package service

import "sync"

// ownerLocks serializes mutations per cart owner. The merge increment is
// atomic on the storage side, but the append/remove/clear paths are
// read-recompute-write sequences; without a total order two concurrent
// requests from the same owner (a double-clicked add, two tabs) can
// overwrite each other's items array.
type ownerLocks struct {
	mu sync.Map // owner -> *sync.Mutex
}

func (l *ownerLocks) Lock(owner string) func() {
	v, _ := l.mu.LoadOrStore(owner, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
