package netlink

import (
	"errors"
	"sync"
	"sync/atomic"
)

// Bus errors.
var (
	ErrBusClosed            = errors.New("signal bus closed")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrResourceExhausted    = errors.New("maximum subscriptions reached")
)

// Default bus limits.
const (
	DefaultBufferSize       = 16
	DefaultMaxSubscriptions = 8
)

// BusConfig holds signal bus configuration.
type BusConfig struct {
	// BufferSize is the per-subscription channel capacity.
	BufferSize int

	// MaxSubscriptions is the maximum number of concurrent subscriptions.
	MaxSubscriptions int
}

// DefaultBusConfig returns the default bus configuration.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		BufferSize:       DefaultBufferSize,
		MaxSubscriptions: DefaultMaxSubscriptions,
	}
}

// Bus fans delegate signals out to scoped subscriptions.
// Publish never blocks: a subscriber whose buffer is full loses its oldest
// signal instead of stalling the radio driver.
type Bus struct {
	mu sync.RWMutex

	config BusConfig

	// Active subscriptions by ID
	subscribers map[uint32]chan Signal

	closed bool
}

// NewBus creates a signal bus with default configuration.
func NewBus() *Bus {
	return NewBusWithConfig(DefaultBusConfig())
}

// NewBusWithConfig creates a signal bus with custom configuration.
func NewBusWithConfig(config BusConfig) *Bus {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}
	if config.MaxSubscriptions <= 0 {
		config.MaxSubscriptions = DefaultMaxSubscriptions
	}

	return &Bus{
		config:      config,
		subscribers: make(map[uint32]chan Signal),
	}
}

// Subscribe registers a new scoped subscription and returns its ID and
// receive channel. The caller must Unsubscribe when done; the channel is
// closed on Unsubscribe or Close.
func (b *Bus) Subscribe() (uint32, <-chan Signal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, nil, ErrBusClosed
	}
	if len(b.subscribers) >= b.config.MaxSubscriptions {
		return 0, nil, ErrResourceExhausted
	}

	id := nextID()
	ch := make(chan Signal, b.config.BufferSize)
	b.subscribers[id] = ch

	return id, ch, nil
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call on any path (success, failure, timeout); unknown IDs return
// ErrSubscriptionNotFound.
func (b *Bus) Unsubscribe(id uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, exists := b.subscribers[id]
	if !exists {
		return ErrSubscriptionNotFound
	}

	delete(b.subscribers, id)
	close(ch)
	return nil
}

// Publish delivers a signal to every current subscription.
// Delivery is per-subscription FIFO. Publish never blocks; if a subscriber's
// buffer is full its oldest signal is dropped to make room.
func (b *Bus) Publish(sig Signal) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subscribers {
		select {
		case ch <- sig:
		default:
			// Buffer full: drop the oldest, then deliver.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- sig:
			default:
			}
		}
	}
}

// Count returns the number of active subscriptions.
func (b *Bus) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close shuts the bus down and closes all subscription channels.
// Subsequent Publish calls are ignored and Subscribe returns ErrBusClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}

// idGenerator generates unique subscription IDs.
var idGenerator atomic.Uint32

// nextID returns the next unique subscription ID.
func nextID() uint32 {
	return idGenerator.Add(1)
}
