package tinycore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrConsumerClosed   = fmt.Errorf("consumer is closed")
	ErrNestedEvaluation = fmt.Errorf("consumer is already evaluating")
)

type consumerCtxKey struct{}

type ConsumerConfiguration struct {
	Logger *zap.Logger
}

type ConsumerOption func(*ConsumerConfiguration)

var WithConsumerLogger = func(log *zap.Logger) ConsumerOption {
	return func(conf *ConsumerConfiguration) { conf.Logger = log }
}

// selectorSlot is one selector hook call of an evaluation pass,
// identified by its position in the pass.
type selectorSlot struct {
	store    anyStore
	selector func(snapshot any) any
	last     any
}

// Consumer is a reactive host for hooks: a render cycle, a worker, a view.
// Selector hooks called within Evaluate are remembered,
// and onChange is called once per store mutation that changed
// at least one of selected values.
// Consumer holds a single subscription per store regardless
// of how many selectors use it or how many times Evaluate is called.
type Consumer struct {
	onChange   func()
	log        *zap.Logger
	watchers   map[anyStore]Unsubscribe
	slots      []*selectorSlot
	cursor     int
	mu         sync.Mutex
	id         uuid.UUID
	evaluating bool
	closed     bool
}

// Returns new Consumer calling onChange when selected state changes.
func NewConsumer(onChange func(), opts ...ConsumerOption) *Consumer {
	conf := ConsumerConfiguration{Logger: logger()}

	for _, opt := range opts {
		opt(&conf)
	}

	id := uuid.New()

	return &Consumer{
		id:       id,
		onChange: onChange,
		log:      conf.Logger.With(zap.Stringer("consumer", id)),
		watchers: make(map[anyStore]Unsubscribe),
	}
}

func (c *Consumer) ID() uuid.UUID {
	return c.id
}

// Evaluate runs one pass of fn.
// Selectors not called again in this pass are forgotten
// and stores no selector reads from anymore are unsubscribed.
func (c *Consumer) Evaluate(ctx context.Context, fn func(ctx context.Context) error) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrConsumerClosed
	case c.evaluating:
		c.mu.Unlock()
		return ErrNestedEvaluation
	}

	c.evaluating = true
	c.cursor = 0
	c.mu.Unlock()

	defer c.finish()

	return fn(context.WithValue(ctx, consumerCtxKey{}, c))
}

func (c *Consumer) finish() {
	c.mu.Lock()

	for i := c.cursor; i < len(c.slots); i++ {
		c.slots[i] = nil
	}

	c.slots = c.slots[:c.cursor]
	c.evaluating = false

	used := make(map[anyStore]struct{}, len(c.watchers))
	for _, slot := range c.slots {
		used[slot.store] = struct{}{}
	}

	unsubscribes := make([]Unsubscribe, 0)
	for store, unsubscribe := range c.watchers {
		if _, ok := used[store]; !ok {
			unsubscribes = append(unsubscribes, unsubscribe)
			delete(c.watchers, store)
		}
	}
	c.mu.Unlock()

	for _, unsubscribe := range unsubscribes {
		unsubscribe()
	}

	if len(unsubscribes) > 0 {
		c.log.Debug("consumer released stores", zap.Int("released", len(unsubscribes)))
	}
}

func (c *Consumer) track(store anyStore, selector func(any) any, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.evaluating {
		return
	}

	slot := &selectorSlot{store: store, selector: selector, last: value}
	if c.cursor < len(c.slots) {
		c.slots[c.cursor] = slot
	} else {
		c.slots = append(c.slots, slot)
	}

	c.cursor++

	if _, ok := c.watchers[store]; ok {
		return
	}

	c.watchers[store] = store.subscribeAny(func(snapshot any) { c.onStoreChange(store, snapshot) })
	c.log.Debug("consumer subscribed to store")
}

func (c *Consumer) onStoreChange(store anyStore, snapshot any) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	changed := false
	for _, slot := range c.slots {
		if slot == nil || slot.store != store {
			continue
		}

		next := slot.selector(snapshot)
		if !ShallowEqual(slot.last, next) {
			slot.last = next
			changed = true
		}
	}
	c.mu.Unlock()

	if changed && c.onChange != nil {
		c.onChange()
	}
}

// Close unsubscribes consumer from all stores. It is safe to call Close more than once.
func (c *Consumer) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.closed = true
	c.slots = nil

	watchers := c.watchers
	c.watchers = make(map[anyStore]Unsubscribe)
	c.mu.Unlock()

	for _, unsubscribe := range watchers {
		unsubscribe()
	}
}

func consumerFromContext(ctx context.Context) *Consumer {
	consumer, _ := ctx.Value(consumerCtxKey{}).(*Consumer)
	return consumer
}
