// Package changes broadcasts table invalidations to observers.
//
// Repositories publish the tables a successful write touched; observers
// subscribe to the tables their query reads and re-run it when notified.
// Notifications carry no payload and coalesce: a subscriber that has not yet
// consumed a pending notification will not receive a second one, it simply
// re-reads once and sees every write so far.
//
//	sub := broker.Subscribe(changes.Moves, changes.MoveTagLinks)
//	defer sub.Close()
//	for range sub.C() {
//	    // re-query
//	}
package changes

import (
	"sync"
)

// Table names a group of rows whose writes are published together.
type Table string

const (
	Moves               Table = "moves"
	MoveTags            Table = "move_tags"
	MoveTagLinks        Table = "move_tag_cross_refs"
	SavedCombos         Table = "saved_combos"
	BattleCombos        Table = "battle_combos"
	BattleTags          Table = "battle_tags"
	BattleComboTagLinks Table = "battle_combo_tag_cross_refs"
	Goals               Table = "goals"
	GoalStages          Table = "goal_stages"
)

// AllTables lists every table covered by backups, for whole-database writes.
var AllTables = []Table{
	Moves, MoveTags, MoveTagLinks,
	SavedCombos,
	BattleCombos, BattleTags, BattleComboTagLinks,
	Goals, GoalStages,
}

// Publisher is the write side used by repositories.
type Publisher interface {
	Publish(tables ...Table)
}

// NoopPublisher discards every notification.
type NoopPublisher struct{}

// Publish implements Publisher as a no-op.
func (NoopPublisher) Publish(...Table) {}

// Broker fans table invalidations out to subscriptions.
type Broker struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[uint64]*Subscription)}
}

// Subscription receives a signal whenever one of its tables is published.
type Subscription struct {
	id     uint64
	tables map[Table]struct{}
	ch     chan struct{}
	broker *Broker
	once   sync.Once
}

// Subscribe registers interest in the given tables. With no tables the
// subscription matches every publish.
func (b *Broker) Subscribe(tables ...Table) *Subscription {
	sub := &Subscription{
		tables: make(map[Table]struct{}, len(tables)),
		ch:     make(chan struct{}, 1),
		broker: b,
	}
	for _, t := range tables {
		sub.tables[t] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}
	b.nextID++
	sub.id = b.nextID
	b.subs[sub.id] = sub
	return sub
}

// Publish signals every subscription interested in any of the tables.
// It never blocks.
func (b *Broker) Publish(tables ...Table) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if !sub.matches(tables) {
			continue
		}
		select {
		case sub.ch <- struct{}{}:
		default:
			// A notification is already pending.
		}
	}
}

// Len returns the number of live subscriptions.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscription channel. Later subscriptions are born closed.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		sub.once.Do(func() { close(sub.ch) })
	}
}

// C returns the notification channel. It is closed by Close.
func (s *Subscription) C() <-chan struct{} {
	return s.ch
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.broker.mu.Lock()
	delete(s.broker.subs, s.id)
	s.broker.mu.Unlock()
	s.once.Do(func() { close(s.ch) })
}

func (s *Subscription) matches(tables []Table) bool {
	if len(s.tables) == 0 {
		return true
	}
	for _, t := range tables {
		if _, ok := s.tables[t]; ok {
			return true
		}
	}
	return false
}
