package tinycore

import "sync"

// Unsubscribe removes a listener. It is safe to call it more than once
// and while listeners are being notified.
type Unsubscribe func()

// StoreProxy exposes a uniform read and subscribe surface over a Store.
// It keeps at most one subscription on the underlying store:
// it is made with the first listener and dropped with the last one.
type StoreProxy[S any] struct {
	store    Store[S]
	upstream func()
	subs     listenerList[S]
	mu       sync.Mutex
}

// Returns new StoreProxy over store.
func NewStoreProxy[S any](store Store[S]) *StoreProxy[S] {
	return &StoreProxy[S]{store: store}
}

// Snapshot returns current state.
func (p *StoreProxy[S]) Snapshot() S {
	return p.store.Get()
}

// Subscribe registers listener called after every store mutation.
// Use Watch or WatchFunc to be notified only when a selected value changes.
func (p *StoreProxy[S]) Subscribe(listener func()) Unsubscribe {
	return p.subscribe(func(S) { listener() })
}

// Subscribers returns number of currently registered listeners.
func (p *StoreProxy[S]) Subscribers() int {
	return p.subs.len()
}

func (p *StoreProxy[S]) subscribe(fn func(S)) Unsubscribe {
	p.mu.Lock()
	remove := p.subs.add(fn)
	if p.upstream == nil {
		p.upstream = p.store.Subscribe(p.onStoreChange)
	}
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			var upstream func()

			p.mu.Lock()
			remove()
			if p.subs.len() == 0 {
				upstream, p.upstream = p.upstream, nil
			}
			p.mu.Unlock()

			if upstream != nil {
				upstream()
			}
		})
	}
}

// every listener of one notification round sees the same, latest snapshot
func (p *StoreProxy[S]) onStoreChange() {
	p.subs.notify(p.store.Get())
}

func (p *StoreProxy[S]) snapshotAny() any {
	return p.Snapshot()
}

func (p *StoreProxy[S]) subscribeAny(fn func(any)) Unsubscribe {
	return p.subscribe(func(snapshot S) { fn(snapshot) })
}

// anyStore is a StoreProxy with its state type erased.
type anyStore interface {
	snapshotAny() any
	subscribeAny(func(any)) Unsubscribe
}

// Select applies selector to current snapshot.
func Select[S, V any](p *StoreProxy[S], selector func(S) V) V {
	return selector(p.Snapshot())
}

// Watch calls listener with newly selected value
// after every mutation that changed it.
func Watch[S any, V comparable](p *StoreProxy[S], selector func(S) V, listener func(V)) Unsubscribe {
	return WatchFunc(p, selector, func(a, b V) bool { return a == b }, listener)
}

// WatchFunc is Watch for values that are compared with equal.
// ShallowEqual can be used for structs, maps and slices.
func WatchFunc[S, V any](
	p *StoreProxy[S], selector func(S) V, equal func(a, b V) bool, listener func(V),
) Unsubscribe {
	var mu sync.Mutex
	last := selector(p.Snapshot())

	return p.subscribe(func(snapshot S) {
		next := selector(snapshot)

		mu.Lock()
		if equal(last, next) {
			mu.Unlock()
			return
		}

		last = next
		mu.Unlock()

		listener(next)
	})
}
