package realtime

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/placemates/go-kit/logger"
	"github.com/smallnest/chanx"
	"go.uber.org/zap"
)

// Dispatcher routes backend change events to subscriptions.
//
// Publish never blocks on slow handlers: events land in an unbounded
// channel and a single pump goroutine fans them out, preserving arrival
// order across all handlers.
type Dispatcher struct {
	config *Config
	logger logger.Logger

	events *chanx.UnboundedChan[Event]

	mu     sync.RWMutex
	subs   map[int64]*Subscription
	nextID atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc

	wg     sync.WaitGroup
	closed atomic.Bool
}

// Subscription is one screen's registration for events on a table.
// Unsubscribe must be called when the owning screen is dismissed.
type Subscription struct {
	id      int64
	table   string
	filter  Filter
	handler Handler

	d    *Dispatcher
	once sync.Once
}

// NewDispatcher creates a dispatcher. Start must be called before events
// are delivered.
func NewDispatcher(log logger.Logger, cfg *Config) (*Dispatcher, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else if cfg.InitialBuffer == 0 {
		cfg.InitialBuffer = DefaultConfig().InitialBuffer
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		config: cfg,
		logger: log,
		events: chanx.NewUnboundedChan[Event](context.Background(), cfg.InitialBuffer),
		subs:   make(map[int64]*Subscription),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start begins the pump loop.
func (d *Dispatcher) Start() error {
	if d.closed.Load() {
		return ErrDispatcherClosed
	}

	d.wg.Add(1)
	go d.pump()

	d.logger.Info("realtime dispatcher started")
	return nil
}

// Publish enqueues an event for delivery. It never blocks on handlers.
// The read lock keeps the send ordered against Close, which closes the
// inbound channel under the write lock.
func (d *Dispatcher) Publish(ev Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed.Load() {
		return ErrDispatcherClosed
	}
	d.events.In <- ev
	return nil
}

// Subscribe registers handler for events on table whose row filter
// satisfies filter. The returned Subscription must be released with
// Unsubscribe when the owner goes away.
func (d *Dispatcher) Subscribe(table string, filter Filter, handler Handler) *Subscription {
	sub := &Subscription{
		id:      d.nextID.Add(1),
		table:   table,
		filter:  filter,
		handler: handler,
		d:       d,
	}

	d.mu.Lock()
	d.subs[sub.id] = sub
	n := len(d.subs)
	d.mu.Unlock()

	d.logger.Debug("realtime subscription added",
		zap.String("table", table),
		zap.Int64("subscription_id", sub.id),
		zap.Int("active", n),
	)
	return sub
}

// SubscriptionCount reports the number of active subscriptions.
func (d *Dispatcher) SubscriptionCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}

// Close stops delivery, drains the pump and drops all subscriptions.
// It can be called multiple times safely.
func (d *Dispatcher) Close() {
	if !d.closed.CompareAndSwap(false, true) {
		return
	}

	d.logger.Info("realtime dispatcher shutting down")

	// closed is already set, so any Publish entering after this lock is
	// acquired reports ErrDispatcherClosed instead of hitting the closed
	// channel.
	d.mu.Lock()
	close(d.events.In)
	d.mu.Unlock()

	d.wg.Wait()
	d.cancel()

	d.mu.Lock()
	d.subs = make(map[int64]*Subscription)
	d.mu.Unlock()

	d.logger.Info("realtime dispatcher shutdown complete")
}

// Unsubscribe removes the subscription. Safe to call more than once and on
// all exit paths of the owning screen.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.d.mu.Lock()
		delete(s.d.subs, s.id)
		n := len(s.d.subs)
		s.d.mu.Unlock()

		s.d.logger.Debug("realtime subscription removed",
			zap.String("table", s.table),
			zap.Int64("subscription_id", s.id),
			zap.Int("active", n),
		)
	})
}

func (d *Dispatcher) pump() {
	defer d.wg.Done()

	for ev := range d.events.Out {
		d.dispatch(ev)
	}

	d.logger.Info("realtime pump stopped")
}

func (d *Dispatcher) dispatch(ev Event) {
	d.mu.RLock()
	matched := make([]*Subscription, 0, len(d.subs))
	for _, sub := range d.subs {
		if sub.table == ev.Table && sub.filter.Matches(ev.Filter) {
			matched = append(matched, sub)
		}
	}
	d.mu.RUnlock()

	for _, sub := range matched {
		d.invoke(sub, ev)
	}
}

// invoke shields the pump from a panicking handler.
func (d *Dispatcher) invoke(sub *Subscription, ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("realtime handler panicked",
				zap.String("table", sub.table),
				zap.Int64("subscription_id", sub.id),
				zap.Any("panic", rec),
				zap.String("stack", string(debug.Stack())),
			)
		}
	}()
	sub.handler(d.ctx, ev)
}
