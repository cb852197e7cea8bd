package event

// RoomEntered fires after a room's encounter code is rolled and the player
// occupies the room.
type RoomEntered struct {
	RoomID     string
	X, Y       int
	FirstVisit bool
}

func (RoomEntered) EventKind() Kind { return KindRoomEntered }

// RoomExited fires when the player leaves a room.
type RoomExited struct {
	RoomID string
}

func (RoomExited) EventKind() Kind { return KindRoomExited }

// RoomRevealed fires when a previously unknown room becomes visible,
// either freshly created or merged into during lazy expansion.
type RoomRevealed struct {
	RoomID string
	X, Y   int
}

func (RoomRevealed) EventKind() Kind { return KindRoomRevealed }

// PlayerMoved fires on every successful movement command.
type PlayerMoved struct {
	FromRoomID string
	ToRoomID   string
	Direction  string
}

func (PlayerMoved) EventKind() Kind { return KindPlayerMoved }

// CombatStarted carries a snapshot of the monster at combat start.
type CombatStarted struct {
	MonsterName string
	MonsterHP   int
	MonsterMax  int
}

func (CombatStarted) EventKind() Kind { return KindCombatStarted }

// CombatEnded fires on any combat terminal: victory, defeat, or flee.
type CombatEnded struct {
	Victory bool
	Fled    bool
}

func (CombatEnded) EventKind() Kind { return KindCombatEnded }

// AttackResolved reports one player attack roll against the hit threshold.
type AttackResolved struct {
	Roll      int
	Threshold int
	Hit       bool
	Damage    int
}

func (AttackResolved) EventKind() Kind { return KindAttackResolved }

// RoundStarted fires at the top of each combat round.
type RoundStarted struct {
	Round int
}

func (RoundStarted) EventKind() Kind { return KindRoundStarted }

// RoundEnded fires at the bottom of each non-terminal combat round.
type RoundEnded struct {
	Round int
}

func (RoundEnded) EventKind() Kind { return KindRoundEnded }

// MonsterDamaged reports damage applied to the monster.
type MonsterDamaged struct {
	MonsterName string
	Damage      int
	RemainingHP int
}

func (MonsterDamaged) EventKind() Kind { return KindMonsterDamaged }

// PlayerFled fires when the player abandons a combat.
type PlayerFled struct{}

func (PlayerFled) EventKind() Kind { return KindPlayerFled }

// HealthChanged reports the player's hit point state after any change.
type HealthChanged struct {
	Current int
	Max     int
}

func (HealthChanged) EventKind() Kind { return KindHealthChanged }

// XPChanged reports the player's experience state after any change.
type XPChanged struct {
	Current  int
	Required int
}

func (XPChanged) EventKind() Kind { return KindXPChanged }

// RoomsExploredChanged reports the exploration gate counter after any change.
type RoomsExploredChanged struct {
	Current  int
	Required int
}

func (RoomsExploredChanged) EventKind() Kind { return KindRoomsExploredChanged }

// WeaponChanged fires when the equipped weapon changes; Name is empty when
// the player becomes unarmed.
type WeaponChanged struct {
	Name string
}

func (WeaponChanged) EventKind() Kind { return KindWeaponChanged }

// SilverChanged reports the player's new silver total.
type SilverChanged struct {
	Amount int
}

func (SilverChanged) EventKind() Kind { return KindSilverChanged }

// InventoryChanged fires on any inventory mutation.
type InventoryChanged struct{}

func (InventoryChanged) EventKind() Kind { return KindInventoryChanged }

// PlayerDied fires exactly once when the player is incapacitated.
type PlayerDied struct {
	Cause string
}

func (PlayerDied) EventKind() Kind { return KindPlayerDied }

// LeveledUp fires after a level increment, before any reward roll.
type LeveledUp struct {
	NewLevel int
}

func (LeveledUp) EventKind() Kind { return KindLeveledUp }

// LevelRewardApplied reports a granted level-up reward face (1-6).
type LevelRewardApplied struct {
	Face int
}

func (LevelRewardApplied) EventKind() Kind { return KindLevelRewardApplied }

// LevelChoiceRequired fires when a reward face needs external input; the
// continuation lives on the session's pending choice slot.
type LevelChoiceRequired struct {
	Face int
}

func (LevelChoiceRequired) EventKind() Kind { return KindLevelChoiceRequired }

// GameStateChanged reports session state machine transitions.
type GameStateChanged struct {
	State string
}

func (GameStateChanged) EventKind() Kind { return KindGameStateChanged }

// GameOver fires exactly once when the run reaches a terminal condition.
type GameOver struct {
	Victory bool
	Cause   string
}

func (GameOver) EventKind() Kind { return KindGameOver }
