package sse

import (
	"context"
	"sync"
)

const clientBuffer = 16

// Event is one message on a topic. Name becomes the SSE "event:" field and
// Data is sent JSON encoded.
type Event struct {
	Name string
	Data interface{}
}

// Broker fans events out to every client subscribed to a topic.
type Broker struct {
	mu      sync.RWMutex
	clients map[string][]chan Event
}

func NewBroker() *Broker {
	return &Broker{clients: make(map[string][]chan Event)}
}

// Subscribe registers a client on topic. The channel is closed once ctx ends.
func (b *Broker) Subscribe(ctx context.Context, topic string) <-chan Event {
	clientChan := make(chan Event, clientBuffer)

	b.mu.Lock()
	b.clients[topic] = append(b.clients[topic], clientChan)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(topic, clientChan)
	}()

	return clientChan
}

// Publish never blocks: clients whose buffer is full miss the event.
func (b *Broker) Publish(topic string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, clientChan := range b.clients[topic] {
		select {
		case clientChan <- event:
		default:
		}
	}
}

// ClientCount reports how many clients are subscribed to topic.
func (b *Broker) ClientCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[topic])
}

func (b *Broker) remove(topic string, clientChan chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients := b.clients[topic]
	for i, ch := range clients {
		if ch == clientChan {
			b.clients[topic] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(b.clients[topic]) == 0 {
		delete(b.clients, topic)
	}
}
