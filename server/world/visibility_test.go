package world

import (
	"bytes"
	"sync"
	"testing"

	"github.com/dm-vev/ferrite/server/protocol"
	"github.com/dm-vev/ferrite/server/session/packet"
	"github.com/dm-vev/ferrite/server/world/entity"
	"github.com/dm-vev/ferrite/server/world/worldid"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

type capturedPacket struct {
	id   int32
	body []byte
}

type captureOut struct {
	mu      sync.Mutex
	packets map[worldid.EntityID][]capturedPacket
}

func newCaptureOut() *captureOut {
	return &captureOut{packets: make(map[worldid.EntityID][]capturedPacket)}
}

func (c *captureOut) SendPlayPacket(id worldid.EntityID, packetID int32, body []byte, essential bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packets[id] = append(c.packets[id], capturedPacket{id: packetID, body: body})
	return nil
}

func (c *captureOut) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packets = make(map[worldid.EntityID][]capturedPacket)
}

func (c *captureOut) ids(to worldid.EntityID) []int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []int32
	for _, p := range c.packets[to] {
		out = append(out, p.id)
	}
	return out
}

func newTestPlayer(reg *entity.Registry, pos mgl64.Vec3, viewDistance int32) *entity.Record {
	r := entity.NewRecord(reg.Allocate(), uuid.New(), entity.KindPlayer, 0)
	r.Player = entity.NewPlayerData()
	r.Player.ViewDistance = viewDistance
	loc := entity.Location{Pos: pos}
	r.SetLocation(loc)
	r.MarkSynced(loc)
	reg.Add(r)
	return r
}

func TestMovementDeltaSelection(t *testing.T) {
	reg := entity.NewRegistry()
	observer := newTestPlayer(reg, mgl64.Vec3{0, 64, 0}, 8)

	src := entity.NewRecord(reg.Allocate(), uuid.New(), entity.KindGeneric, 1)
	src.MarkSynced(entity.Location{Pos: mgl64.Vec3{10, 64, 10}})
	src.SetLocation(entity.Location{Pos: mgl64.Vec3{10.10, 64, 10.05}})
	reg.Add(src)
	observer.Player.MarkEntityLoaded(src.ID)

	out := newCaptureOut()
	RunVisibilityPass(reg, reg.Snapshot(), out, nil)

	got := out.packets[observer.ID]
	if len(got) != 1 {
		t.Fatalf("observer received %d packets (%v), want exactly one", len(got), out.ids(observer.ID))
	}
	if got[0].id != packet.IDEntityPosition {
		t.Fatalf("packet id = 0x%02X, want position-only update", got[0].id)
	}

	r := protocol.NewReader(bytes.NewReader(got[0].body))
	eid, err := protocol.ReadVarInt(r)
	if err != nil {
		t.Fatalf("decode entity id: %v", err)
	}
	if eid != int32(src.ID) {
		t.Fatalf("entity id = %d, want %d", eid, src.ID)
	}
	dx, _ := protocol.ReadUint16(r)
	dy, _ := protocol.ReadUint16(r)
	dz, _ := protocol.ReadUint16(r)
	if int16(dx) != 410 || int16(dy) != 0 || int16(dz) != 205 {
		t.Fatalf("deltas = (%d, %d, %d), want (410, 0, 205)", int16(dx), int16(dy), int16(dz))
	}
}

func TestTeleportChosenForLargeDelta(t *testing.T) {
	reg := entity.NewRegistry()
	observer := newTestPlayer(reg, mgl64.Vec3{0, 64, 0}, 8)

	src := entity.NewRecord(reg.Allocate(), uuid.New(), entity.KindGeneric, 1)
	src.MarkSynced(entity.Location{Pos: mgl64.Vec3{10, 64, 10}})
	src.SetLocation(entity.Location{Pos: mgl64.Vec3{30, 64, 10}})
	reg.Add(src)
	observer.Player.MarkEntityLoaded(src.ID)

	out := newCaptureOut()
	RunVisibilityPass(reg, reg.Snapshot(), out, nil)

	ids := out.ids(observer.ID)
	if len(ids) != 1 || ids[0] != packet.IDEntityTeleport {
		t.Fatalf("observer received %v, want a single teleport", ids)
	}
}

func TestVisibilityTransitions(t *testing.T) {
	reg := entity.NewRegistry()
	// View distance 8 chunks = 128 blocks.
	p := newTestPlayer(reg, mgl64.Vec3{0, 64, 0}, 8)
	q := newTestPlayer(reg, mgl64.Vec3{127, 64, 0}, 8)

	out := newCaptureOut()
	RunVisibilityPass(reg, reg.Snapshot(), out, nil)

	for _, pair := range []struct {
		observer, target *entity.Record
	}{{p, q}, {q, p}} {
		ids := out.ids(pair.observer.ID)
		if len(ids) < 2 || ids[0] != packet.IDSpawnPlayer || ids[1] != packet.IDEntityHeadLook {
			t.Fatalf("observer %d received %v, want spawn player then head look", pair.observer.ID, ids)
		}
		if !pair.observer.Player.HasLoadedEntity(pair.target.ID) {
			t.Fatalf("observer %d did not mark %d loaded", pair.observer.ID, pair.target.ID)
		}
	}

	// Q steps out of range; the next tick destroys the pair both ways.
	loc := q.Location()
	loc.Pos[0] = 129
	q.SetLocation(loc)
	out.reset()
	RunVisibilityPass(reg, reg.Snapshot(), out, nil)

	assertDestroyed := func(observer *entity.Record, target worldid.EntityID) {
		t.Helper()
		for _, pk := range out.packets[observer.ID] {
			if pk.id != packet.IDDestroyEntities {
				continue
			}
			r := protocol.NewReader(bytes.NewReader(pk.body))
			n, _ := protocol.ReadVarInt(r)
			for i := int32(0); i < n; i++ {
				eid, _ := protocol.ReadVarInt(r)
				if eid == int32(target) {
					return
				}
			}
		}
		t.Fatalf("observer %d never received DestroyEntities for %d: %v", observer.ID, target, out.ids(observer.ID))
	}
	assertDestroyed(p, q.ID)
	assertDestroyed(q, p.ID)

	// Subsequent ticks emit nothing further for the pair.
	out.reset()
	RunVisibilityPass(reg, reg.Snapshot(), out, nil)
	if ids := out.ids(p.ID); len(ids) != 0 {
		t.Fatalf("P received %v after the pair separated", ids)
	}
	if ids := out.ids(q.ID); len(ids) != 0 {
		t.Fatalf("Q received %v after the pair separated", ids)
	}
}

func TestStaleLoadedEntitiesAreSwept(t *testing.T) {
	reg := entity.NewRegistry()
	observer := newTestPlayer(reg, mgl64.Vec3{0, 64, 0}, 8)

	ghost := worldid.EntityID(999)
	observer.Player.MarkEntityLoaded(ghost)

	out := newCaptureOut()
	RunVisibilityPass(reg, reg.Snapshot(), out, nil)

	ids := out.ids(observer.ID)
	if len(ids) != 1 || ids[0] != packet.IDDestroyEntities {
		t.Fatalf("observer received %v, want a single destroy for the stale id", ids)
	}
	if observer.Player.HasLoadedEntity(ghost) {
		t.Fatal("stale id still marked loaded after the sweep")
	}
}
