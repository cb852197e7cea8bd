package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/delve/internal/game/catalog"
	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/inventory"
)

func potionDef() *catalog.ItemDef {
	return &catalog.ItemDef{
		ID:         "healing_potion",
		Name:       "Healing Potion",
		Kind:       catalog.KindHeal,
		EffectDice: "1d6",
		Uses:       1,
		BuyPrice:   20,
		SellPrice:  10,
	}
}

func ropeDef() *catalog.ItemDef {
	return &catalog.ItemDef{
		ID:        "rope",
		Name:      "Rope",
		Kind:      catalog.KindRope,
		Uses:      catalog.UsesUnlimited,
		BuyPrice:  15,
		SellPrice: 7,
	}
}

func wandDef() *catalog.ItemDef {
	return &catalog.ItemDef{
		ID:         "wand",
		Name:       "Wand of Sparks",
		Kind:       catalog.KindDamage,
		EffectDice: "1d4",
		Uses:       3,
		BuyPrice:   30,
		SellPrice:  15,
	}
}

func swordDef() *catalog.WeaponDef {
	return &catalog.WeaponDef{
		ID:         "shortsword",
		Name:       "Shortsword",
		Tier:       catalog.TierCommon,
		DamageDice: "1d6",
		BuyPrice:   25,
		SellPrice:  12,
	}
}

func newInventory(t *testing.T) *inventory.Inventory {
	t.Helper()
	return inventory.New(6, 2, event.NewBus())
}

func TestAddItemMergesIdenticalUses(t *testing.T) {
	inv := newInventory(t)
	require.NoError(t, inv.AddItem(potionDef()))
	require.NoError(t, inv.AddItem(potionDef()))

	stacks := inv.Stacks()
	require.Len(t, stacks, 1)
	assert.Equal(t, 2, stacks[0].Quantity)
}

func TestAddItemDifferingFiniteUsesNeverMerge(t *testing.T) {
	inv := newInventory(t)
	require.NoError(t, inv.AddItem(wandDef()))

	worn := wandDef()
	worn.Uses = 2
	require.NoError(t, inv.AddItem(worn))

	assert.Equal(t, 2, inv.UsedSlots())
}

func TestAddItemFull(t *testing.T) {
	inv := inventory.New(1, 1, event.NewBus())
	require.NoError(t, inv.AddItem(potionDef()))
	assert.ErrorIs(t, inv.AddItem(ropeDef()), inventory.ErrInventoryFull)

	// Merging into an existing stack still works at capacity.
	assert.NoError(t, inv.AddItem(potionDef()))
}

func TestConsumeChargeLastChargeDestroysUnit(t *testing.T) {
	inv := newInventory(t)
	require.NoError(t, inv.AddItem(potionDef()))

	def, err := inv.ConsumeCharge(0)
	require.NoError(t, err)
	assert.Equal(t, "healing_potion", def.ID)
	assert.Equal(t, 0, inv.UsedSlots())
}

func TestConsumeChargeUnlimitedNeverDepletes(t *testing.T) {
	inv := newInventory(t)
	require.NoError(t, inv.AddItem(ropeDef()))

	for i := 0; i < 10; i++ {
		_, err := inv.ConsumeCharge(0)
		require.NoError(t, err)
	}
	stacks := inv.Stacks()
	require.Len(t, stacks, 1)
	assert.Equal(t, 1, stacks[0].Quantity)
	assert.Equal(t, catalog.UsesUnlimited, stacks[0].Uses)
}

func TestConsumeChargeSplitsMultiUseStack(t *testing.T) {
	inv := newInventory(t)
	require.NoError(t, inv.AddItem(wandDef()))
	require.NoError(t, inv.AddItem(wandDef()))

	_, err := inv.ConsumeCharge(0)
	require.NoError(t, err)

	stacks := inv.Stacks()
	require.Len(t, stacks, 2)
	assert.Equal(t, 1, stacks[0].Quantity)
	assert.Equal(t, 3, stacks[0].Uses)
	assert.Equal(t, 1, stacks[1].Quantity)
	assert.Equal(t, 2, stacks[1].Uses)
}

func TestConsumeChargeSingleUnitDecrements(t *testing.T) {
	inv := newInventory(t)
	require.NoError(t, inv.AddItem(wandDef()))

	for want := 2; want >= 1; want-- {
		_, err := inv.ConsumeCharge(0)
		require.NoError(t, err)
		stacks := inv.Stacks()
		require.Len(t, stacks, 1)
		assert.Equal(t, want, stacks[0].Uses)
	}
	_, err := inv.ConsumeCharge(0)
	require.NoError(t, err)
	assert.Equal(t, 0, inv.UsedSlots())
}

func TestEquipSwapReturnsPrevious(t *testing.T) {
	inv := newInventory(t)
	sword := swordDef()
	axe := swordDef()
	axe.ID, axe.Name = "axe", "Axe"

	assert.True(t, inv.EquipDirect(sword))
	require.NoError(t, inv.AddWeapon(axe))

	require.NoError(t, inv.Equip(0))
	assert.Equal(t, "Axe", inv.Equipped().Name)
	require.Len(t, inv.Weapons(), 1)
	assert.Equal(t, "Shortsword", inv.Weapons()[0].Name)
}

func TestEquipWhileUnarmedFreesSlot(t *testing.T) {
	inv := newInventory(t)
	require.NoError(t, inv.AddWeapon(swordDef()))
	require.NoError(t, inv.Equip(0))

	assert.Equal(t, "Shortsword", inv.Equipped().Name)
	assert.Empty(t, inv.Weapons())
}

func TestUnequipFullSlots(t *testing.T) {
	inv := inventory.New(6, 1, event.NewBus())
	inv.EquipDirect(swordDef())
	require.NoError(t, inv.AddWeapon(swordDef()))

	assert.ErrorIs(t, inv.Unequip(), inventory.ErrWeaponSlotsFull)
	assert.NotNil(t, inv.Equipped())
}

func TestSilverOperations(t *testing.T) {
	inv := newInventory(t)
	inv.GainSilver(30)
	assert.Equal(t, 30, inv.Silver())

	assert.ErrorIs(t, inv.SpendSilver(31), inventory.ErrInsufficientSilver)
	assert.Equal(t, 30, inv.Silver())

	require.NoError(t, inv.SpendSilver(10))
	assert.Equal(t, 20, inv.Silver())

	assert.Equal(t, 20, inv.StealSilver(50))
	assert.Equal(t, 0, inv.Silver())
	assert.Equal(t, 0, inv.StealSilver(5))
}

func TestBuyItemRollsBackNothingOnFailure(t *testing.T) {
	inv := inventory.New(1, 1, event.NewBus())
	inv.GainSilver(100)
	require.NoError(t, inv.BuyItem(potionDef()))

	// Slot full and no merge target: silver must be untouched.
	err := inv.BuyItem(ropeDef())
	assert.ErrorIs(t, err, inventory.ErrInventoryFull)
	assert.Equal(t, 80, inv.Silver())

	// Merge target exists: buying past the slot cap still succeeds.
	require.NoError(t, inv.BuyItem(potionDef()))
	assert.Equal(t, 60, inv.Silver())
}

func TestBuyWeaponInsufficientSilver(t *testing.T) {
	inv := newInventory(t)
	inv.GainSilver(10)
	assert.ErrorIs(t, inv.BuyWeapon(swordDef()), inventory.ErrInsufficientSilver)
	assert.Equal(t, 10, inv.Silver())
}

func TestSellStackCreditsSellPrice(t *testing.T) {
	inv := newInventory(t)
	require.NoError(t, inv.AddItem(potionDef()))
	require.NoError(t, inv.AddItem(potionDef()))

	price, err := inv.SellStack(0)
	require.NoError(t, err)
	assert.Equal(t, 10, price)
	assert.Equal(t, 10, inv.Silver())

	stacks := inv.Stacks()
	require.Len(t, stacks, 1)
	assert.Equal(t, 1, stacks[0].Quantity)
}

func TestSellWeapon(t *testing.T) {
	inv := newInventory(t)
	require.NoError(t, inv.AddWeapon(swordDef()))

	price, err := inv.SellWeapon(0)
	require.NoError(t, err)
	assert.Equal(t, 12, price)
	assert.Equal(t, 12, inv.Silver())
	assert.Empty(t, inv.Weapons())
}

func TestHasKind(t *testing.T) {
	inv := newInventory(t)
	assert.False(t, inv.HasKind(catalog.KindRope))
	require.NoError(t, inv.AddItem(ropeDef()))
	assert.True(t, inv.HasKind(catalog.KindRope))
}

func TestSilverNeverNegativeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		inv := inventory.New(6, 2, event.NewBus())
		ops := rapid.IntRange(1, 50).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				inv.GainSilver(rapid.IntRange(0, 40).Draw(t, "gain"))
			case 1:
				_ = inv.SpendSilver(rapid.IntRange(0, 40).Draw(t, "spend"))
			case 2:
				inv.StealSilver(rapid.IntRange(0, 40).Draw(t, "steal"))
			}
			if inv.Silver() < 0 {
				t.Fatalf("silver went negative: %d", inv.Silver())
			}
		}
	})
}

func TestStackInvariantsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		inv := inventory.New(10, 2, event.NewBus())
		ops := rapid.IntRange(1, 60).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			if rapid.Bool().Draw(t, "add") {
				_ = inv.AddItem(wandDef())
			} else if n := inv.UsedSlots(); n > 0 {
				_, _ = inv.ConsumeCharge(rapid.IntRange(0, n-1).Draw(t, "idx"))
			}
		}
		for _, s := range inv.Stacks() {
			if s.Uses <= 0 {
				t.Fatalf("finite stack with uses %d", s.Uses)
			}
			if s.Quantity < 1 {
				t.Fatalf("stack with quantity %d", s.Quantity)
			}
		}
	})
}
