package entity

import (
	"testing"

	"github.com/dm-vev/ferrite/server/protocol"
	"github.com/dm-vev/ferrite/server/world/worldid"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

func TestRegistryAddGetRemove(t *testing.T) {
	reg := NewRegistry()
	id := reg.Allocate()
	r := NewRecord(id, uuid.New(), KindGeneric, 1)
	reg.Add(r)

	if !reg.Contains(id) {
		t.Fatal("expected registry to contain newly added entity")
	}
	if reg.Get(id) != r {
		t.Fatal("Get returned a different record")
	}
	reg.Remove(id)
	if reg.Contains(id) {
		t.Fatal("expected registry to no longer contain removed entity")
	}
}

func TestRecordEquipmentDiffOnlyReportsChangedSlots(t *testing.T) {
	r := NewRecord(1, uuid.New(), KindPlayer, 0)
	if diff := r.EquipmentDiff(); diff != nil {
		t.Fatalf("expected no diff on fresh record, got %v", diff)
	}
	r.SetEquipment(SlotMainHand, protocol.Slot{Present: true, ItemID: 5, Count: 1})
	diff := r.EquipmentDiff()
	if len(diff) != 1 {
		t.Fatalf("expected exactly one changed slot, got %d", len(diff))
	}
	if _, ok := diff[SlotMainHand]; !ok {
		t.Fatalf("expected MainHand in diff, got %v", diff)
	}
	if diff := r.EquipmentDiff(); diff != nil {
		t.Fatalf("expected diff to be empty after being consumed, got %v", diff)
	}
}

func TestRecordLocationSyncTracking(t *testing.T) {
	r := NewRecord(1, uuid.New(), KindGeneric, 0)
	loc := Location{Pos: mgl64.Vec3{1, 2, 3}}
	r.SetLocation(loc)
	if r.Location().Pos != loc.Pos {
		t.Fatal("Location did not round-trip")
	}
	if r.SyncedLocation().Pos == loc.Pos {
		t.Fatal("synced location should start distinct from the live location")
	}
	r.MarkSynced(loc)
	if r.SyncedLocation().Pos != loc.Pos {
		t.Fatal("MarkSynced did not update synced location")
	}
}

var _ = worldid.EntityID(0)
