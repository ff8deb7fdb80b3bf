package entity

import (
	"sync"

	"github.com/dm-vev/ferrite/server/protocol"
)

// Inventory layout constants, per spec.md §3: four armor slots, a 2x2
// crafting grid, its output, 27 main slots, 9 hotbar slots and 1
// off-hand slot.
const (
	ArmorSlots     = 4
	CraftingInput  = 4
	CraftingOutput = 1
	MainSlots      = 27
	HotbarSlots    = 9
	OffHandSlots   = 1

	InventorySize = ArmorSlots + CraftingInput + CraftingOutput + MainSlots + HotbarSlots + OffHandSlots
)

// Inventory is a fixed-size, mutex-guarded slot array matching the
// vanilla player inventory window layout.
type Inventory struct {
	mu    sync.Mutex
	slots [InventorySize]protocol.Slot
}

// NewInventory returns an inventory with every slot empty.
func NewInventory() *Inventory { return &Inventory{} }

// Slot returns a copy of the item at index i.
func (inv *Inventory) Slot(i int) protocol.Slot {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.slots[i]
}

// SetSlot overwrites the item at index i.
func (inv *Inventory) SetSlot(i int, item protocol.Slot) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.slots[i] = item
}

// HotbarSlot returns the item in hotbar slot i (0..8).
func (inv *Inventory) HotbarSlot(i int) protocol.Slot {
	return inv.Slot(ArmorSlots + CraftingInput + CraftingOutput + MainSlots + i)
}
