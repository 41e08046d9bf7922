// broker/broker.go
package broker

import (
	"sync"
)

// Broker fans events out to per-topic subscribers. Chat topics are keyed by
// session date so websocket clients only see their own session's events.
type Broker[T any] struct {
	subscribers map[string][]chan T
	mu          sync.RWMutex
}

func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subscribers: make(map[string][]chan T),
	}
}

func (b *Broker[T]) Subscribe(topic string) <-chan T {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan T, 16)
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	return ch
}

func (b *Broker[T]) Unsubscribe(topic string, ch <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if chans, ok := b.subscribers[topic]; ok {
		for i, c := range chans {
			if c == ch {
				b.subscribers[topic] = append(chans[:i], chans[i+1:]...)
				close(c)
				break
			}
		}
	}
}

// Publish delivers msg to every subscriber of topic. A subscriber that has
// fallen behind its buffer is skipped rather than stalling the publisher.
func (b *Broker[T]) Publish(topic string, msg T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- msg:
		default:
		}
	}
}
