// Package entity implements the entity registry of spec.md §3/§4.7: an
// identity-assigned, mutable record per live entity, polymorphic between
// plain entities and players via a tagged Kind rather than separate Go
// types, grounded on the tagged BoatVariant/behaviour style of
// server/entity/boat.go (a Kind constant selects behaviour without an
// interface hierarchy deep enough to need one).
package entity

import (
	"sync"

	"github.com/dm-vev/ferrite/server/protocol"
	"github.com/dm-vev/ferrite/server/world/chunk"
	"github.com/dm-vev/ferrite/server/world/worldid"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Kind tags which concrete sort of entity a Record represents.
type Kind int32

const (
	KindGeneric Kind = iota
	KindPlayer
)

// EquipmentSlot names one of the six wire equipment slots, per spec.md §3.
type EquipmentSlot byte

const (
	SlotMainHand EquipmentSlot = iota
	SlotOffHand
	SlotHead
	SlotChest
	SlotLegs
	SlotFeet
)

// NumEquipmentSlots is the number of named equipment slots an entity
// carries.
const NumEquipmentSlots = int(SlotFeet) + 1

// Location is an entity's position and facing.
type Location struct {
	Pos        mgl64.Vec3
	Yaw, Pitch float32
	OnGround   bool
}

// Record is one entity's mutable state, owned by a Registry. Field
// access outside of the tick step must go through the Record's own
// lock so the visibility pass can mutate distinct entities in parallel,
// per spec.md §5.
type Record struct {
	ID   worldid.EntityID
	UUID uuid.UUID
	Kind Kind
	Type int32 // protocol entity type id, used for SpawnEntity

	mu              sync.Mutex
	loc             Location
	synced          Location // last location broadcast to observers
	velocity        mgl64.Vec3
	metadata        []protocol.MetadataEntry
	equipment       [NumEquipmentSlots]protocol.Slot
	syncedEquipment [NumEquipmentSlots]protocol.Slot

	// Target is a non-owning reference to another entity this record is
	// tracking (e.g. a ghost's hunted player, grounded on
	// mc_example_server/src/entities/ghost.rs's target handle): it is
	// looked up through the Registry each use, never dereferenced
	// directly, so it never keeps a removed entity alive.
	Target    worldid.EntityID
	HasTarget bool

	// Player is non-nil only when Kind == KindPlayer.
	Player *PlayerData

	// Tick, when set, runs once per world step before the visibility
	// pass observes this record's location/equipment.
	Tick func(r *Record)
}

// NewRecord allocates a Record with the given id, identity and type.
func NewRecord(id worldid.EntityID, u uuid.UUID, kind Kind, entityType int32) *Record {
	return &Record{ID: id, UUID: u, Kind: kind, Type: entityType}
}

// Location returns a snapshot of the entity's current location.
func (r *Record) Location() Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loc
}

// SetLocation updates the entity's location.
func (r *Record) SetLocation(l Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loc = l
}

// SyncedLocation returns the location last broadcast to observers.
func (r *Record) SyncedLocation() Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.synced
}

// MarkSynced records loc as the last-broadcast location.
func (r *Record) MarkSynced(loc Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.synced = loc
}

// Velocity returns the entity's current velocity.
func (r *Record) Velocity() mgl64.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.velocity
}

// SetVelocity updates the entity's velocity.
func (r *Record) SetVelocity(v mgl64.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.velocity = v
}

// Metadata returns a copy of the entity's current metadata entries.
func (r *Record) Metadata() []protocol.MetadataEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]protocol.MetadataEntry, len(r.metadata))
	copy(out, r.metadata)
	return out
}

// SetMetadata replaces the entity's metadata entries.
func (r *Record) SetMetadata(entries []protocol.MetadataEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metadata = entries
}

// Equipment returns the item in the given slot.
func (r *Record) Equipment(slot EquipmentSlot) protocol.Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.equipment[slot]
}

// SetEquipment sets the item in the given slot.
func (r *Record) SetEquipment(slot EquipmentSlot, item protocol.Slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.equipment[slot] = item
}

// EquipmentDiff returns the slots whose item differs from what was last
// synchronized, and marks them synchronized.
func (r *Record) EquipmentDiff() map[EquipmentSlot]protocol.Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	var diff map[EquipmentSlot]protocol.Slot
	for i := 0; i < NumEquipmentSlots; i++ {
		slot := EquipmentSlot(i)
		if !slotsEqual(r.equipment[slot], r.syncedEquipment[slot]) {
			if diff == nil {
				diff = make(map[EquipmentSlot]protocol.Slot)
			}
			diff[slot] = r.equipment[slot]
			r.syncedEquipment[slot] = r.equipment[slot]
		}
	}
	return diff
}

func slotsEqual(a, b protocol.Slot) bool {
	if a.Present != b.Present {
		return false
	}
	if !a.Present {
		return true
	}
	return a.ItemID == b.ItemID && a.Count == b.Count
}

// PlayerData holds the additional state spec.md §3 attaches to player
// entities.
type PlayerData struct {
	mu sync.Mutex

	ViewDistance int32
	Gamemode     int32
	FlightFlags  byte
	HeldHotbar   int32
	Inventory    *Inventory
	PingMs       int64

	LoadedEntities  map[worldid.EntityID]struct{}
	LoadedChunks    map[chunk.ColumnPos]struct{}
	LastChunkCenter chunk.ColumnPos
}

// NewPlayerData returns a PlayerData with its sets initialized.
func NewPlayerData() *PlayerData {
	return &PlayerData{
		Inventory:      NewInventory(),
		LoadedEntities: make(map[worldid.EntityID]struct{}),
		LoadedChunks:   make(map[chunk.ColumnPos]struct{}),
	}
}

func (p *PlayerData) HasLoadedEntity(id worldid.EntityID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.LoadedEntities[id]
	return ok
}

func (p *PlayerData) MarkEntityLoaded(id worldid.EntityID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.LoadedEntities[id] = struct{}{}
}

func (p *PlayerData) UnmarkEntityLoaded(id worldid.EntityID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.LoadedEntities, id)
}

func (p *PlayerData) LoadedEntityIDs() []worldid.EntityID {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]worldid.EntityID, 0, len(p.LoadedEntities))
	for id := range p.LoadedEntities {
		out = append(out, id)
	}
	return out
}
