package broker

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Group keeps the subscriptions a component made so it can drop all of them at
// once. Topics are cached by their broker, so releasing a channel means
// unsubscribing its subscribers.
type Group struct {
	mu   sync.Mutex
	subs *orderedmap.OrderedMap[string, Subscription]
}

func NewGroup() *Group {
	return &Group{subs: orderedmap.New[string, Subscription]()}
}

// Track adds sub to the group. Unsubscribing the returned subscription also
// removes it from the group.
func (g *Group) Track(sub Subscription) Subscription {
	g.mu.Lock()
	g.subs.Set(sub.ID(), sub)
	g.mu.Unlock()
	return &groupSubscription{Subscription: sub, group: g}
}

func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.subs.Len()
}

// UnsubscribeAll unsubscribes every tracked subscription, oldest first.
func (g *Group) UnsubscribeAll() {
	g.mu.Lock()
	subs := make([]Subscription, 0, g.subs.Len())
	for pair := g.subs.Oldest(); pair != nil; pair = pair.Next() {
		subs = append(subs, pair.Value)
	}
	g.subs = orderedmap.New[string, Subscription]()
	g.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

func (g *Group) forget(id string) {
	g.mu.Lock()
	g.subs.Delete(id)
	g.mu.Unlock()
}

type groupSubscription struct {
	Subscription
	group *Group
}

func (s *groupSubscription) Unsubscribe() {
	s.group.forget(s.ID())
	s.Subscription.Unsubscribe()
}
