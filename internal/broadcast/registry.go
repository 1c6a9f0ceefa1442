package broadcast

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// registry owns the live connections and the match subscription index.
//
// A client is in bucket T iff T is in client.topics, and no empty bucket is
// kept. Every method holds mu for its whole mutation, so readers never see a
// half-applied change.
type registry struct {
	mu      sync.Mutex
	clients map[uuid.UUID]*client
	topics  map[int64]map[uuid.UUID]*client
}

func newRegistry() *registry {
	return &registry{
		clients: make(map[uuid.UUID]*client),
		topics:  make(map[int64]map[uuid.UUID]*client),
	}
}

func (r *registry) register(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.id] = c
}

// subscribe returns false when the connection is no longer registered.
func (r *registry) subscribe(id uuid.UUID, topic int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return false
	}
	r.addLocked(c, topic)
	return true
}

func (r *registry) unsubscribe(id uuid.UUID, topic int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return false
	}
	r.removeLocked(c, topic)
	return true
}

// replaceSubscriptions swaps the connection's whole subscription set in one step.
func (r *registry) replaceSubscriptions(id uuid.UUID, topics []int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return false
	}
	for topic := range c.topics {
		r.removeLocked(c, topic)
	}
	for _, topic := range topics {
		r.addLocked(c, topic)
	}
	return true
}

// unregister drops the connection and all of its bucket memberships.
// The second result is false if it was already gone.
func (r *registry) unregister(id uuid.UUID) (*client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return nil, false
	}
	for topic := range c.topics {
		r.removeLocked(c, topic)
	}
	delete(r.clients, id)
	return c, true
}

func (r *registry) addLocked(c *client, topic int64) {
	bucket, ok := r.topics[topic]
	if !ok {
		bucket = make(map[uuid.UUID]*client)
		r.topics[topic] = bucket
	}
	bucket[c.id] = c
	c.topics[topic] = struct{}{}
}

func (r *registry) removeLocked(c *client, topic int64) {
	delete(c.topics, topic)

	bucket, ok := r.topics[topic]
	if !ok {
		return
	}
	delete(bucket, c.id)
	if len(bucket) == 0 {
		delete(r.topics, topic)
	}
}

// all snapshots every registered connection.
func (r *registry) all() []*client {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// subscribers snapshots the bucket for topic.
func (r *registry) subscribers(topic int64) []*client {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := r.topics[topic]
	out := make([]*client, 0, len(bucket))
	for _, c := range bucket {
		out = append(out, c)
	}
	return out
}

// subscriptions returns the connection's topics in ascending order.
func (r *registry) subscriptions(id uuid.UUID) ([]int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return nil, false
	}
	out := make([]int64, 0, len(c.topics))
	for topic := range c.topics {
		out = append(out, topic)
	}
	slices.Sort(out)
	return out, true
}

func (r *registry) counts() (connections, topics int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients), len(r.topics)
}

func (r *registry) subscriberCount(topic int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.topics[topic])
}
