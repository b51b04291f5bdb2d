package testutil

import (
	"context"
	"sync"

	"collabolab/internal/push"
)

type Delivery struct {
	To  string // device token or topic
	Msg push.Message
}

// FakePusher records deliveries and subscriptions. SendErr, when set, is
// returned from every device send.
type FakePusher struct {
	mu         sync.Mutex
	SendErr    error
	deliveries []Delivery
	broadcasts []Delivery
	subs       map[string]map[string]bool
}

func NewFakePusher() *FakePusher {
	return &FakePusher{subs: make(map[string]map[string]bool)}
}

func (p *FakePusher) Send(_ context.Context, token string, msg push.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SendErr != nil {
		return p.SendErr
	}
	p.deliveries = append(p.deliveries, Delivery{To: token, Msg: msg})
	return nil
}

func (p *FakePusher) SendToTopic(_ context.Context, topic string, msg push.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcasts = append(p.broadcasts, Delivery{To: topic, Msg: msg})
	return nil
}

func (p *FakePusher) Subscribe(_ context.Context, token, topic string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subs[topic] == nil {
		p.subs[topic] = make(map[string]bool)
	}
	p.subs[topic][token] = true
	return nil
}

func (p *FakePusher) Unsubscribe(_ context.Context, token, topic string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs[topic], token)
	return nil
}

func (p *FakePusher) Subscribed(token, topic string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.subs[topic][token]
}

func (p *FakePusher) SentTo(token string) []push.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []push.Message
	for _, d := range p.deliveries {
		if d.To == token {
			out = append(out, d.Msg)
		}
	}
	return out
}

func (p *FakePusher) Broadcasts(topic string) []push.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []push.Message
	for _, d := range p.broadcasts {
		if d.To == topic {
			out = append(out, d.Msg)
		}
	}
	return out
}
