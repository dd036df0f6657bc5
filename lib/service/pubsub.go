package service

import (
	"sync"

	"github.com/labstack/gommon/random"
	"github.com/sufhub/sufhub.go/db/models"
)

// Pubsub fans reconciled receipts out to the optional publishers (webhook,
// rabbitmq). Topics are country codes.
type Pubsub struct {
	mu   sync.RWMutex
	subs map[string]map[string]chan models.Receipt
}

func NewPubsub() *Pubsub {
	ps := &Pubsub{}
	ps.subs = make(map[string]map[string]chan models.Receipt)
	return ps
}

func (ps *Pubsub) Subscribe(topic string, ch chan models.Receipt) (subID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		ps.subs[topic] = make(map[string]chan models.Receipt)
	}
	subID = random.String(16, random.Alphanumeric)
	ps.subs[topic][subID] = ch
	return subID
}

func (ps *Pubsub) Unsubscribe(id string, topic string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		return
	}
	if ps.subs[topic][id] == nil {
		return
	}
	close(ps.subs[topic][id])
	delete(ps.subs[topic], id)
}

func (ps *Pubsub) Publish(topic string, msg models.Receipt) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if ps.subs[topic] == nil {
		return
	}

	for _, ch := range ps.subs[topic] {
		ch <- msg
	}
}
