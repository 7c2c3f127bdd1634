package live

import "sync"

// Broker fans out change notifications per user. Notifications coalesce: a subscriber that
// has not consumed the previous signal does not queue another.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[int]chan struct{}{}}
}

// Subscribe registers a listener for userID. The returned cancel func is idempotent and
// closes the channel.
func (b *Broker) Subscribe(userID string) (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan struct{}, 1)
	if b.subs[userID] == nil {
		b.subs[userID] = map[int]chan struct{}{}
	}
	b.subs[userID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[userID], id)
			if len(b.subs[userID]) == 0 {
				delete(b.subs, userID)
			}
			close(ch)
		})
	}
}

func (b *Broker) Publish(userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers reports how many listeners are registered for userID.
func (b *Broker) Subscribers(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[userID])
}
