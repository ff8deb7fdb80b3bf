package world

import (
	"bytes"
	"math"
	"sort"

	"github.com/dm-vev/ferrite/server/session/packet"
	"github.com/dm-vev/ferrite/server/world/entity"
	"github.com/dm-vev/ferrite/server/world/worldid"
)

// Outbound is how the visibility pass delivers packets to a player's
// session, per spec.md §6 "a broadcast operation to all or filtered
// players".
type Outbound interface {
	SendPlayPacket(id worldid.EntityID, packetID int32, body []byte, essential bool) error
}

// VisibilityPredicate decides whether the target observer should
// currently have source loaded, source and target both drawn from the
// registry's snapshot. The default, installed when nil, is the
// horizontal distance test of spec.md §4.7.
type VisibilityPredicate func(reg *entity.Registry, source, target *entity.Record) bool

// DefaultVisibilityPredicate implements spec.md §4.7's rule:
// horizontal_distance² < view_distance², using the target observer's
// view distance.
func DefaultVisibilityPredicate(reg *entity.Registry, source, target *entity.Record) bool {
	if target.Player == nil {
		return false
	}
	a := source.Location().Pos
	b := target.Location().Pos
	dx := a.X() - b.X()
	dz := a.Z() - b.Z()
	viewBlocks := float64(target.Player.ViewDistance) * 16
	return dx*dx+dz*dz < viewBlocks*viewBlocks
}

const teleportThreshold = 8.0 // blocks; beyond this a delta no longer fits an i16

func quantizeDelta(d float64) int16 {
	v := math.Round(d * 4096)
	if v > math.MaxInt16 {
		v = math.MaxInt16
	} else if v < math.MinInt16 {
		v = math.MinInt16
	}
	return int16(v)
}

func quantizeAngle(degrees float32) byte {
	a := int32(math.Round(float64(degrees) * 256 / 360))
	return byte(((a % 256) + 256) % 256)
}

// RunVisibilityPass performs one tick's worth of spec.md §4.7: per-entity
// tick functions, location/rotation/equipment diffing, and visibility
// transitions, for every player in snap as an observer.
func RunVisibilityPass(reg *entity.Registry, snap []*entity.Record, out Outbound, predicate VisibilityPredicate) {
	if predicate == nil {
		predicate = DefaultVisibilityPredicate
	}

	for _, r := range snap {
		if r.Tick != nil {
			r.Tick(r)
		}
	}

	players := make([]*entity.Record, 0, len(snap))
	for _, r := range snap {
		if r.Player != nil {
			players = append(players, r)
		}
	}

	for _, src := range snap {
		broadcastMovement(src, players, out)
		broadcastEquipment(src, players, out)
	}

	for _, observer := range players {
		applyVisibilityTransitions(reg, observer, snap, out, predicate)
	}
}

func broadcastMovement(src *entity.Record, observers []*entity.Record, out Outbound) {
	cur := src.Location()
	prev := src.SyncedLocation()
	if cur == prev {
		return
	}
	src.MarkSynced(cur)

	dx := cur.Pos.X() - prev.Pos.X()
	dy := cur.Pos.Y() - prev.Pos.Y()
	dz := cur.Pos.Z() - prev.Pos.Z()
	posChanged := dx != 0 || dy != 0 || dz != 0
	rotChanged := cur.Yaw != prev.Yaw || cur.Pitch != prev.Pitch

	teleport := math.Abs(dx) > teleportThreshold || math.Abs(dy) > teleportThreshold || math.Abs(dz) > teleportThreshold

	yawByte := quantizeAngle(cur.Yaw)
	pitchByte := quantizeAngle(cur.Pitch)

	for _, obs := range observers {
		if obs.ID == src.ID || !obs.Player.HasLoadedEntity(src.ID) {
			continue
		}
		switch {
		case teleport:
			buf := new(bytes.Buffer)
			packet.EncodeEntityTeleport(buf, packet.EntityTeleport{
				EntityID: int32(src.ID), X: cur.Pos.X(), Y: cur.Pos.Y(), Z: cur.Pos.Z(),
				Yaw: yawByte, Pitch: pitchByte, OnGround: cur.OnGround,
			})
			out.SendPlayPacket(obs.ID, packet.IDEntityTeleport, buf.Bytes(), false)
		case posChanged && rotChanged:
			buf := new(bytes.Buffer)
			packet.EncodeEntityPositionAndRotation(buf, packet.EntityPositionAndRotation{
				EntityID: int32(src.ID), DX: quantizeDelta(dx), DY: quantizeDelta(dy), DZ: quantizeDelta(dz),
				Yaw: yawByte, Pitch: pitchByte, OnGround: cur.OnGround,
			})
			out.SendPlayPacket(obs.ID, packet.IDEntityPositionAndRot, buf.Bytes(), false)
		case posChanged:
			buf := new(bytes.Buffer)
			packet.EncodeEntityPosition(buf, packet.EntityPosition{
				EntityID: int32(src.ID), DX: quantizeDelta(dx), DY: quantizeDelta(dy), DZ: quantizeDelta(dz),
				OnGround: cur.OnGround,
			})
			out.SendPlayPacket(obs.ID, packet.IDEntityPosition, buf.Bytes(), false)
		case rotChanged:
			buf := new(bytes.Buffer)
			packet.EncodeEntityRotation(buf, packet.EntityRotation{
				EntityID: int32(src.ID), Yaw: yawByte, Pitch: pitchByte, OnGround: cur.OnGround,
			})
			out.SendPlayPacket(obs.ID, packet.IDEntityRotation, buf.Bytes(), false)
		}
		if rotChanged {
			hl := new(bytes.Buffer)
			packet.EncodeEntityHeadLook(hl, packet.EntityHeadLook{EntityID: int32(src.ID), HeadYaw: yawByte})
			out.SendPlayPacket(obs.ID, packet.IDEntityHeadLook, hl.Bytes(), false)
		}
	}
}

func broadcastEquipment(src *entity.Record, observers []*entity.Record, out Outbound) {
	diff := src.EquipmentDiff()
	if len(diff) == 0 {
		return
	}
	entries := make([]packet.EquipmentEntry, 0, len(diff))
	for slot, item := range diff {
		entries = append(entries, packet.EquipmentEntry{Slot: byte(slot), Item: item})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Slot < entries[j].Slot })

	buf := new(bytes.Buffer)
	packet.EncodeEntityEquipment(buf, packet.EntityEquipment{EntityID: int32(src.ID), Entries: entries})
	for _, obs := range observers {
		if obs.ID == src.ID || !obs.Player.HasLoadedEntity(src.ID) {
			continue
		}
		out.SendPlayPacket(obs.ID, packet.IDEntityEquipment, buf.Bytes(), true)
	}
}

func applyVisibilityTransitions(reg *entity.Registry, observer *entity.Record, snap []*entity.Record, out Outbound, predicate VisibilityPredicate) {
	seen := make(map[worldid.EntityID]struct{}, len(snap))
	for _, target := range snap {
		if target.ID == observer.ID {
			continue
		}
		seen[target.ID] = struct{}{}
		visible := predicate(reg, target, observer)
		loaded := observer.Player.HasLoadedEntity(target.ID)
		switch {
		case visible && !loaded:
			spawnTo(observer, target, out)
			observer.Player.MarkEntityLoaded(target.ID)
		case !visible && loaded:
			destroyTo(observer, target.ID, out)
			observer.Player.UnmarkEntityLoaded(target.ID)
		}
	}

	var stale []worldid.EntityID
	for _, id := range observer.Player.LoadedEntityIDs() {
		if _, ok := seen[id]; !ok {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		destroyTo(observer, id, out)
		observer.Player.UnmarkEntityLoaded(id)
	}
}

func spawnTo(observer, target *entity.Record, out Outbound) {
	loc := target.Location()
	yawByte := quantizeAngle(loc.Yaw)
	pitchByte := quantizeAngle(loc.Pitch)

	buf := new(bytes.Buffer)
	if target.Kind == entity.KindPlayer {
		packet.EncodeSpawnPlayer(buf, packet.SpawnPlayer{
			EntityID: int32(target.ID), UUID: target.UUID,
			X: loc.Pos.X(), Y: loc.Pos.Y(), Z: loc.Pos.Z(), Yaw: yawByte, Pitch: pitchByte,
		})
		out.SendPlayPacket(observer.ID, packet.IDSpawnPlayer, buf.Bytes(), true)
	} else {
		packet.EncodeSpawnEntity(buf, packet.SpawnEntity{
			EntityID: int32(target.ID), UUID: target.UUID, Type: target.Type,
			X: loc.Pos.X(), Y: loc.Pos.Y(), Z: loc.Pos.Z(), Pitch: pitchByte, Yaw: yawByte, HeadYaw: yawByte,
		})
		out.SendPlayPacket(observer.ID, packet.IDSpawnEntity, buf.Bytes(), true)
	}

	hl := new(bytes.Buffer)
	packet.EncodeEntityHeadLook(hl, packet.EntityHeadLook{EntityID: int32(target.ID), HeadYaw: yawByte})
	out.SendPlayPacket(observer.ID, packet.IDEntityHeadLook, hl.Bytes(), true)

	var entries []packet.EquipmentEntry
	for i := 0; i < entity.NumEquipmentSlots; i++ {
		slot := entity.EquipmentSlot(i)
		item := target.Equipment(slot)
		if !item.Present {
			continue
		}
		entries = append(entries, packet.EquipmentEntry{Slot: byte(slot), Item: item})
	}
	if len(entries) > 0 {
		eq := new(bytes.Buffer)
		packet.EncodeEntityEquipment(eq, packet.EntityEquipment{EntityID: int32(target.ID), Entries: entries})
		out.SendPlayPacket(observer.ID, packet.IDEntityEquipment, eq.Bytes(), true)
	}
}

func destroyTo(observer *entity.Record, target worldid.EntityID, out Outbound) {
	buf := new(bytes.Buffer)
	packet.EncodeDestroyEntities(buf, packet.DestroyEntities{EntityIDs: []int32{int32(target)}})
	out.SendPlayPacket(observer.ID, packet.IDDestroyEntities, buf.Bytes(), true)
}
