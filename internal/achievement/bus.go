package achievement

import (
	"sync"

	"github.com/steamfolio/portfolio/internal/domain"
)

// Listener receives every unlocked achievement.
type Listener func(domain.Achievement)

type subscription struct {
	id uint64
	fn Listener
}

// Bus fans unlock events out to subscribers in registration order.
// Delivery is synchronous on the publishing goroutine.
type Bus struct {
	mu   sync.RWMutex
	next uint64
	subs []subscription
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a func that removes it again.
// Calling the returned func more than once is safe.
func (b *Bus) Subscribe(fn Listener) func() {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers a to every current subscriber.
func (b *Bus) Publish(a domain.Achievement) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(a)
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
