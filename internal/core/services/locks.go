package services

import (
	"sort"
	"sync"
)

// KeyLocker hands out one mutex per key. Services that touch the same
// customer share a locker so their read-modify-write cycles serialize.
type KeyLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyLocker() *KeyLocker {
	return &KeyLocker{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires every key in sorted order and returns the release func.
func (l *KeyLocker) Lock(keys ...string) func() {
	if len(keys) == 0 {
		return func() {}
	}
	keys = append([]string(nil), keys...)
	sort.Strings(keys)
	l.mu.Lock()
	acquired := make([]*sync.Mutex, 0, len(keys))
	for i, k := range keys {
		if i > 0 && keys[i-1] == k {
			continue
		}
		m := l.locks[k]
		if m == nil {
			m = &sync.Mutex{}
			l.locks[k] = m
		}
		acquired = append(acquired, m)
	}
	l.mu.Unlock()
	for _, m := range acquired {
		m.Lock()
	}
	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
	}
}

func customerKey(id string) string {
	return "customer:" + id
}
