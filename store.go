package tinycore

import (
	"sync"
	"sync/atomic"
)

// Store is a reactive state container.
// Subscribe registers a listener called after every mutation
// and returns a function removing it.
type Store[S any] interface {
	Get() S
	Subscribe(listener func()) (unsubscribe func())
}

var (
	_ Store[struct{}] = new(Atom[struct{}])
	_ Store[struct{}] = StoreFunc[struct{}]{}
)

// StoreFunc adapts a pair of functions to Store.
type StoreFunc[S any] struct {
	GetFunc       func() S
	SubscribeFunc func(listener func()) func()
}

func (sf StoreFunc[S]) Get() S {
	return sf.GetFunc()
}

func (sf StoreFunc[S]) Subscribe(listener func()) func() {
	return sf.SubscribeFunc(listener)
}

// Returns new Atom holding initial.
func NewStore[S any](initial S) *Atom[S] {
	return &Atom[S]{value: initial}
}

// Atom is a minimal Store: every Set or Update is one mutation
// and notifies listeners in registration order.
type Atom[S any] struct {
	value     S
	listeners listenerList[struct{}]
	rwm       sync.RWMutex
}

func (a *Atom[S]) Get() S {
	a.rwm.RLock()
	defer a.rwm.RUnlock()

	return a.value
}

func (a *Atom[S]) Set(value S) {
	a.rwm.Lock()
	a.value = value
	a.rwm.Unlock()

	a.listeners.notify(struct{}{})
}

// Update replaces state with fn(state) as a single mutation.
func (a *Atom[S]) Update(fn func(S) S) {
	a.rwm.Lock()
	a.value = fn(a.value)
	a.rwm.Unlock()

	a.listeners.notify(struct{}{})
}

func (a *Atom[S]) Subscribe(listener func()) func() {
	return a.listeners.add(func(struct{}) { listener() })
}

type listenerEntry[T any] struct {
	fn     func(T)
	active atomic.Bool
}

// copy-on-write list: notify iterates over a snapshot,
// removed entries are skipped even mid-notification.
type listenerList[T any] struct {
	entries []*listenerEntry[T]
	mu      sync.Mutex
}

func (ll *listenerList[T]) add(fn func(T)) func() {
	entry := &listenerEntry[T]{fn: fn}
	entry.active.Store(true)

	ll.mu.Lock()
	entries := make([]*listenerEntry[T], len(ll.entries), len(ll.entries)+1)
	copy(entries, ll.entries)
	ll.entries = append(entries, entry)
	ll.mu.Unlock()

	return func() {
		if !entry.active.CompareAndSwap(true, false) {
			return
		}

		ll.mu.Lock()
		defer ll.mu.Unlock()

		entries := make([]*listenerEntry[T], 0, len(ll.entries))
		for _, e := range ll.entries {
			if e != entry {
				entries = append(entries, e)
			}
		}

		ll.entries = entries
	}
}

func (ll *listenerList[T]) len() int {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	return len(ll.entries)
}

func (ll *listenerList[T]) notify(value T) {
	ll.mu.Lock()
	entries := ll.entries
	ll.mu.Unlock()

	for _, e := range entries {
		if e.active.Load() {
			e.fn(value)
		}
	}
}
