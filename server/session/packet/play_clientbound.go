package packet

import (
	"bytes"

	"github.com/dm-vev/ferrite/server/protocol"
	"github.com/google/uuid"
)

// JoinGame is sent once, immediately after LoginSuccess, to move the
// session into Play.
type JoinGame struct {
	EntityID         int32
	IsHardcore       bool
	Gamemode         byte
	PreviousGamemode int8
	WorldNames       []string
	RegistryCodec    map[string]any
	DimensionType    string
	WorldName        string
	HashedSeed       int64
	MaxPlayers       int32
	ViewDistance     int32
	SimDistance      int32
	ReducedDebug     bool
	RespawnScreen    bool
	IsDebug          bool
	IsFlat           bool
}

func EncodeJoinGame(w *bytes.Buffer, p JoinGame) error {
	protocol.WriteInt32(w, p.EntityID)
	if err := protocol.WriteBool(w, p.IsHardcore); err != nil {
		return err
	}
	w.WriteByte(p.Gamemode)
	w.WriteByte(byte(p.PreviousGamemode))
	if err := protocol.WriteVarInt(w, int32(len(p.WorldNames))); err != nil {
		return err
	}
	for _, n := range p.WorldNames {
		if err := protocol.WriteString(w, n); err != nil {
			return err
		}
	}
	codec, err := protocol.EncodeNBT(p.RegistryCodec)
	if err != nil {
		return err
	}
	w.Write(codec)
	if err := protocol.WriteString(w, p.DimensionType); err != nil {
		return err
	}
	if err := protocol.WriteString(w, p.WorldName); err != nil {
		return err
	}
	protocol.WriteInt64(w, p.HashedSeed)
	if err := protocol.WriteVarInt(w, p.MaxPlayers); err != nil {
		return err
	}
	if err := protocol.WriteVarInt(w, p.ViewDistance); err != nil {
		return err
	}
	if err := protocol.WriteVarInt(w, p.SimDistance); err != nil {
		return err
	}
	if err := protocol.WriteBool(w, p.ReducedDebug); err != nil {
		return err
	}
	if err := protocol.WriteBool(w, p.RespawnScreen); err != nil {
		return err
	}
	if err := protocol.WriteBool(w, p.IsDebug); err != nil {
		return err
	}
	return protocol.WriteBool(w, p.IsFlat)
}

// ChunkDataAndUpdateLight carries one fully-populated Column (spec.md
// §4.4/§4.5): the palette-compacted section data plus heightmap and an
// always-lit light payload (the core has no block/sky light simulation,
// per spec.md Non-goals).
type ChunkDataAndUpdateLight struct {
	ChunkX, ChunkZ int32
	Heightmap      map[string]any
	Data           []byte
	BlockEntities  int32
	TrustEdges     bool
	SkyLightMask   []int64
	BlockLightMask []int64
	EmptySkyMask   []int64
	EmptyBlockMask []int64
	SkyLight       [][]byte
	BlockLight     [][]byte
}

func EncodeChunkDataAndUpdateLight(w *bytes.Buffer, p ChunkDataAndUpdateLight) error {
	protocol.WriteInt32(w, p.ChunkX)
	protocol.WriteInt32(w, p.ChunkZ)
	hm, err := protocol.EncodeNBT(p.Heightmap)
	if err != nil {
		return err
	}
	w.Write(hm)
	if err := protocol.WriteVarInt(w, int32(len(p.Data))); err != nil {
		return err
	}
	w.Write(p.Data)
	if err := protocol.WriteVarInt(w, p.BlockEntities); err != nil {
		return err
	}
	if err := protocol.WriteBool(w, p.TrustEdges); err != nil {
		return err
	}
	if err := writeLongArray(w, p.SkyLightMask); err != nil {
		return err
	}
	if err := writeLongArray(w, p.BlockLightMask); err != nil {
		return err
	}
	if err := writeLongArray(w, p.EmptySkyMask); err != nil {
		return err
	}
	if err := writeLongArray(w, p.EmptyBlockMask); err != nil {
		return err
	}
	if err := writeByteArrayArray(w, p.SkyLight); err != nil {
		return err
	}
	return writeByteArrayArray(w, p.BlockLight)
}

func writeLongArray(w *bytes.Buffer, a []int64) error {
	if err := protocol.WriteVarInt(w, int32(len(a))); err != nil {
		return err
	}
	for _, v := range a {
		protocol.WriteInt64(w, v)
	}
	return nil
}

func writeByteArrayArray(w *bytes.Buffer, a [][]byte) error {
	if err := protocol.WriteVarInt(w, int32(len(a))); err != nil {
		return err
	}
	for _, b := range a {
		if err := protocol.WriteVarInt(w, int32(len(b))); err != nil {
			return err
		}
		w.Write(b)
	}
	return nil
}

// UnloadChunk tells the client to drop a column it can no longer see.
type UnloadChunk struct {
	ChunkX, ChunkZ int32
}

func EncodeUnloadChunk(w *bytes.Buffer, p UnloadChunk) error {
	protocol.WriteInt32(w, p.ChunkX)
	protocol.WriteInt32(w, p.ChunkZ)
	return nil
}

// SetCenterChunk re-centers the client's chunk-loading radius, per
// spec.md §4.6.
type SetCenterChunk struct {
	ChunkX, ChunkZ int32
}

func EncodeSetCenterChunk(w *bytes.Buffer, p SetCenterChunk) error {
	if err := protocol.WriteVarInt(w, p.ChunkX); err != nil {
		return err
	}
	return protocol.WriteVarInt(w, p.ChunkZ)
}

// KeepAliveClientbound is sent every K seconds per spec.md §4.3.
type KeepAliveClientbound struct {
	ID int64
}

func EncodeKeepAliveClientbound(w *bytes.Buffer, p KeepAliveClientbound) error {
	protocol.WriteInt64(w, p.ID)
	return nil
}

// SpawnEntity introduces a non-player entity into the client's view.
type SpawnEntity struct {
	EntityID         int32
	UUID             uuid.UUID
	Type             int32
	X, Y, Z          float64
	Pitch, Yaw       byte
	HeadYaw          byte
	Data             int32
	VelX, VelY, VelZ int16
}

func EncodeSpawnEntity(w *bytes.Buffer, p SpawnEntity) error {
	if err := protocol.WriteVarInt(w, p.EntityID); err != nil {
		return err
	}
	if err := protocol.WriteUUID(w, p.UUID); err != nil {
		return err
	}
	if err := protocol.WriteVarInt(w, p.Type); err != nil {
		return err
	}
	protocol.WriteFloat64(w, p.X)
	protocol.WriteFloat64(w, p.Y)
	protocol.WriteFloat64(w, p.Z)
	w.WriteByte(p.Pitch)
	w.WriteByte(p.Yaw)
	w.WriteByte(p.HeadYaw)
	if err := protocol.WriteVarInt(w, p.Data); err != nil {
		return err
	}
	protocol.WriteUint16(w, uint16(p.VelX))
	protocol.WriteUint16(w, uint16(p.VelY))
	protocol.WriteUint16(w, uint16(p.VelZ))
	return nil
}

// SpawnPlayer introduces a player entity into the client's view.
type SpawnPlayer struct {
	EntityID   int32
	UUID       uuid.UUID
	X, Y, Z    float64
	Yaw, Pitch byte
}

func EncodeSpawnPlayer(w *bytes.Buffer, p SpawnPlayer) error {
	if err := protocol.WriteVarInt(w, p.EntityID); err != nil {
		return err
	}
	if err := protocol.WriteUUID(w, p.UUID); err != nil {
		return err
	}
	protocol.WriteFloat64(w, p.X)
	protocol.WriteFloat64(w, p.Y)
	protocol.WriteFloat64(w, p.Z)
	w.WriteByte(p.Yaw)
	w.WriteByte(p.Pitch)
	return nil
}

// EntityPosition carries a short-range relative movement delta, per
// spec.md §4.7's quantization rule.
type EntityPosition struct {
	EntityID   int32
	DX, DY, DZ int16
	OnGround   bool
}

func EncodeEntityPosition(w *bytes.Buffer, p EntityPosition) error {
	if err := protocol.WriteVarInt(w, p.EntityID); err != nil {
		return err
	}
	protocol.WriteUint16(w, uint16(p.DX))
	protocol.WriteUint16(w, uint16(p.DY))
	protocol.WriteUint16(w, uint16(p.DZ))
	return protocol.WriteBool(w, p.OnGround)
}

// EntityPositionAndRotation carries both a movement delta and a new
// yaw/pitch.
type EntityPositionAndRotation struct {
	EntityID   int32
	DX, DY, DZ int16
	Yaw, Pitch byte
	OnGround   bool
}

func EncodeEntityPositionAndRotation(w *bytes.Buffer, p EntityPositionAndRotation) error {
	if err := protocol.WriteVarInt(w, p.EntityID); err != nil {
		return err
	}
	protocol.WriteUint16(w, uint16(p.DX))
	protocol.WriteUint16(w, uint16(p.DY))
	protocol.WriteUint16(w, uint16(p.DZ))
	w.WriteByte(p.Yaw)
	w.WriteByte(p.Pitch)
	return protocol.WriteBool(w, p.OnGround)
}

// EntityRotation carries a yaw/pitch change with no position delta.
type EntityRotation struct {
	EntityID   int32
	Yaw, Pitch byte
	OnGround   bool
}

func EncodeEntityRotation(w *bytes.Buffer, p EntityRotation) error {
	if err := protocol.WriteVarInt(w, p.EntityID); err != nil {
		return err
	}
	w.WriteByte(p.Yaw)
	w.WriteByte(p.Pitch)
	return protocol.WriteBool(w, p.OnGround)
}

// EntityHeadLook updates the head yaw independently of body rotation.
type EntityHeadLook struct {
	EntityID int32
	HeadYaw  byte
}

func EncodeEntityHeadLook(w *bytes.Buffer, p EntityHeadLook) error {
	if err := protocol.WriteVarInt(w, p.EntityID); err != nil {
		return err
	}
	w.WriteByte(p.HeadYaw)
	return nil
}

// EntityTeleport carries an absolute position, used when a delta would
// overflow the 16-bit quantized range (spec.md §4.7).
type EntityTeleport struct {
	EntityID   int32
	X, Y, Z    float64
	Yaw, Pitch byte
	OnGround   bool
}

func EncodeEntityTeleport(w *bytes.Buffer, p EntityTeleport) error {
	if err := protocol.WriteVarInt(w, p.EntityID); err != nil {
		return err
	}
	protocol.WriteFloat64(w, p.X)
	protocol.WriteFloat64(w, p.Y)
	protocol.WriteFloat64(w, p.Z)
	w.WriteByte(p.Yaw)
	w.WriteByte(p.Pitch)
	return protocol.WriteBool(w, p.OnGround)
}

// EntityMetadata carries a terminated run of MetadataEntry values.
type EntityMetadata struct {
	EntityID int32
	Entries  []protocol.MetadataEntry
}

func EncodeEntityMetadata(w *bytes.Buffer, p EntityMetadata) error {
	if err := protocol.WriteVarInt(w, p.EntityID); err != nil {
		return err
	}
	return protocol.WriteMetadata(w, p.Entries)
}

// SetEntityVelocity carries the entity's velocity in units of 1/8000
// block per tick, matching the vanilla wire scale.
type SetEntityVelocity struct {
	EntityID         int32
	VelX, VelY, VelZ int16
}

func EncodeSetEntityVelocity(w *bytes.Buffer, p SetEntityVelocity) error {
	if err := protocol.WriteVarInt(w, p.EntityID); err != nil {
		return err
	}
	protocol.WriteUint16(w, uint16(p.VelX))
	protocol.WriteUint16(w, uint16(p.VelY))
	protocol.WriteUint16(w, uint16(p.VelZ))
	return nil
}

// EquipmentEntry is one (slot, item) pair of an EntityEquipment packet.
type EquipmentEntry struct {
	Slot byte
	Item protocol.Slot
}

// EntityEquipment carries every changed equipment slot of one entity in
// a single packet: the top bit of each slot byte except the last signals
// that another entry follows, matching the vanilla wire layout.
type EntityEquipment struct {
	EntityID int32
	Entries  []EquipmentEntry
}

func EncodeEntityEquipment(w *bytes.Buffer, p EntityEquipment) error {
	if err := protocol.WriteVarInt(w, p.EntityID); err != nil {
		return err
	}
	for i, e := range p.Entries {
		slot := e.Slot
		if i < len(p.Entries)-1 {
			slot |= 0x80
		}
		w.WriteByte(slot)
		if err := protocol.WriteSlot(w, e.Item); err != nil {
			return err
		}
	}
	return nil
}

// DestroyEntities removes a batch of entities from the client's view.
type DestroyEntities struct {
	EntityIDs []int32
}

func EncodeDestroyEntities(w *bytes.Buffer, p DestroyEntities) error {
	if err := protocol.WriteVarInt(w, int32(len(p.EntityIDs))); err != nil {
		return err
	}
	for _, id := range p.EntityIDs {
		if err := protocol.WriteVarInt(w, id); err != nil {
			return err
		}
	}
	return nil
}

// PlayerInfoAddPlayer is the single action variant the core emits: it
// never removes or updates info for players it hasn't first added.
type PlayerInfoAddPlayer struct {
	UUID     uuid.UUID
	Name     string
	Gamemode int32
	Ping     int32
}

// PlayerInfo with action 0 (add player), the only action the core uses.
type PlayerInfo struct {
	Players []PlayerInfoAddPlayer
}

func EncodePlayerInfo(w *bytes.Buffer, p PlayerInfo) error {
	if err := protocol.WriteVarInt(w, 0); err != nil {
		return err
	}
	if err := protocol.WriteVarInt(w, int32(len(p.Players))); err != nil {
		return err
	}
	for _, pl := range p.Players {
		if err := protocol.WriteUUID(w, pl.UUID); err != nil {
			return err
		}
		if err := protocol.WriteString(w, pl.Name); err != nil {
			return err
		}
		if err := protocol.WriteVarInt(w, 0); err != nil {
			return err
		}
		if err := protocol.WriteVarInt(w, pl.Gamemode); err != nil {
			return err
		}
		if err := protocol.WriteVarInt(w, pl.Ping); err != nil {
			return err
		}
		if err := protocol.WriteBool(w, false); err != nil {
			return err
		}
	}
	return nil
}

// PlayerAbilitiesClientbound pushes the server-authoritative ability
// flags and fly/walk speeds to the client.
type PlayerAbilitiesClientbound struct {
	Flags       byte
	FlyingSpeed float32
	FOVModifier float32
}

func EncodePlayerAbilitiesClientbound(w *bytes.Buffer, p PlayerAbilitiesClientbound) error {
	w.WriteByte(p.Flags)
	protocol.WriteFloat32(w, p.FlyingSpeed)
	protocol.WriteFloat32(w, p.FOVModifier)
	return nil
}

// PlayerPositionAndLook forces an absolute teleport that the client
// must acknowledge with TeleportConfirm.
type PlayerPositionAndLook struct {
	X, Y, Z         float64
	Yaw, Pitch      float32
	Flags           byte
	TeleportID      int32
	DismountVehicle bool
}

func EncodePlayerPositionAndLook(w *bytes.Buffer, p PlayerPositionAndLook) error {
	protocol.WriteFloat64(w, p.X)
	protocol.WriteFloat64(w, p.Y)
	protocol.WriteFloat64(w, p.Z)
	protocol.WriteFloat32(w, p.Yaw)
	protocol.WriteFloat32(w, p.Pitch)
	w.WriteByte(p.Flags)
	if err := protocol.WriteVarInt(w, p.TeleportID); err != nil {
		return err
	}
	return protocol.WriteBool(w, p.DismountVehicle)
}

// ChatMessageClientbound carries a JSON chat component broadcast.
type ChatMessageClientbound struct {
	JSON     string
	Position byte
	Sender   uuid.UUID
}

func EncodeChatMessageClientbound(w *bytes.Buffer, p ChatMessageClientbound) error {
	if err := protocol.WriteString(w, p.JSON); err != nil {
		return err
	}
	w.WriteByte(p.Position)
	return protocol.WriteUUID(w, p.Sender)
}

// DisconnectPlay ends the session from the Play state with a reason.
type DisconnectPlay struct {
	Reason string
}

func EncodeDisconnectPlay(w *bytes.Buffer, p DisconnectPlay) error {
	return protocol.WriteString(w, p.Reason)
}
