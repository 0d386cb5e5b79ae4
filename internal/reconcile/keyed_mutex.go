package reconcile

import "sync"

// keyedMutex hands out one mutex per goal id so that concurrent income
// allocations for the same goal serialize while different goals proceed in
// parallel. The zero value is ready to use.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// lock acquires the mutex for the given key and returns its unlock func.
func (k *keyedMutex) lock(key uint) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[uint]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
