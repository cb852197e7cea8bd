// Package event provides the session-wide event bus. Delivery is
// synchronous and in subscription order, which the exploration and
// encounter pipelines rely on for their ordering contracts (the encounter
// code is rolled before the room-entered event is delivered, and so on).
package event

import "sync"

// Kind identifies an event type on the bus.
type Kind string

// Event kinds published by the simulation core.
const (
	KindRoomEntered          Kind = "room_entered"
	KindRoomExited           Kind = "room_exited"
	KindRoomRevealed         Kind = "room_revealed"
	KindPlayerMoved          Kind = "player_moved"
	KindCombatStarted        Kind = "combat_started"
	KindCombatEnded          Kind = "combat_ended"
	KindAttackResolved       Kind = "attack_resolved"
	KindRoundStarted         Kind = "round_started"
	KindRoundEnded           Kind = "round_ended"
	KindMonsterDamaged       Kind = "monster_damaged"
	KindPlayerFled           Kind = "player_fled"
	KindHealthChanged        Kind = "health_changed"
	KindXPChanged            Kind = "xp_changed"
	KindRoomsExploredChanged Kind = "rooms_explored_changed"
	KindWeaponChanged        Kind = "weapon_changed"
	KindSilverChanged        Kind = "silver_changed"
	KindInventoryChanged     Kind = "inventory_changed"
	KindPlayerDied           Kind = "player_died"
	KindLeveledUp            Kind = "leveled_up"
	KindLevelRewardApplied   Kind = "level_reward_applied"
	KindLevelChoiceRequired  Kind = "level_choice_required"
	KindGameStateChanged     Kind = "game_state_changed"
	KindGameOver             Kind = "game_over"
)

// Event is any value published on the bus.
type Event interface {
	// EventKind returns the kind this event is delivered under.
	EventKind() Kind
}

// Handler receives published events. Handlers run synchronously on the
// publishing goroutine and must not publish re-entrantly for the same kind.
type Handler func(Event)

// Bus is a synchronous observer list keyed by event kind.
// Subscribe calls are safe for concurrent use; Publish delivery order is
// kind-specific subscribers first, then wildcard subscribers, each in
// subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
	wildcard []Handler
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Kind][]Handler)}
}

// Subscribe registers fn for events of kind k.
//
// Precondition: fn must be non-nil.
func (b *Bus) Subscribe(k Kind, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[k] = append(b.handlers[k], fn)
}

// SubscribeAll registers fn for every published event.
//
// Precondition: fn must be non-nil.
func (b *Bus) SubscribeAll(fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = append(b.wildcard, fn)
}

// Publish delivers e synchronously to all matching handlers.
//
// Postcondition: every kind-specific handler has run before any wildcard
// handler; Publish returns only after the last handler returns.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	kindHandlers := b.handlers[e.EventKind()]
	wildcard := b.wildcard
	b.mu.RUnlock()

	for _, fn := range kindHandlers {
		fn(e)
	}
	for _, fn := range wildcard {
		fn(e)
	}
}
