package boundary

import (
	"sync"

	"github.com/walteh/copify/pkg/progress"
)

// Bus fans notifications out to subscribers by event name. Every subscriber
// owns an unbounded queue drained by a single goroutine, so a slow handler
// never blocks the publisher and never sees events out of order.
type Bus struct {
	mu     sync.Mutex
	subs   map[string]map[uint64]*subscriber
	nextID uint64
	closed bool
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string]map[uint64]*subscriber),
	}
}

type subscriber struct {
	handler Handler

	mu    sync.Mutex
	queue []progress.Notification
	wake  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func newSubscriber(h Handler) *subscriber {
	s := &subscriber{
		handler: h,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *subscriber) push(n progress.Notification) {
	s.mu.Lock()
	s.queue = append(s.queue, n)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			batch := s.queue
			s.queue = nil
			s.mu.Unlock()

			if len(batch) == 0 {
				break
			}

			for _, n := range batch {
				select {
				case <-s.done:
					return
				default:
				}
				s.handler(n)
			}
		}
	}
}

// Subscribe registers h for event. The returned func removes the
// subscription; it is safe to call more than once.
func (b *Bus) Subscribe(event string, h Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	b.nextID++
	id := b.nextID
	sub := newSubscriber(h)

	if b.subs[event] == nil {
		b.subs[event] = make(map[uint64]*subscriber)
	}
	b.subs[event][id] = sub

	return func() {
		b.mu.Lock()
		if set, ok := b.subs[event]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(b.subs, event)
			}
		}
		b.mu.Unlock()
		sub.stop()
	}, nil
}

// Emit publishes n to every current subscriber of event.
func (b *Bus) Emit(event string, n progress.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs[event] {
		sub.push(n)
	}
}

// Subscribers returns the number of live subscriptions for event.
func (b *Bus) Subscribers(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[event])
}

// Close stops every subscriber and rejects new subscriptions.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for event, set := range b.subs {
		for _, sub := range set {
			sub.stop()
		}
		delete(b.subs, event)
	}
	return nil
}
