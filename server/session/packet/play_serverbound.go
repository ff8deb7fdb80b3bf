package packet

import (
	"github.com/dm-vev/ferrite/server/protocol"
)

// ChatMessageServerbound is a player's typed chat line.
type ChatMessageServerbound struct {
	Message string
}

func DecodeChatMessageServerbound(r *protocol.Reader) (ChatMessageServerbound, error) {
	s, err := protocol.ReadString(r, 256)
	return ChatMessageServerbound{Message: s}, err
}

// KeepAliveServerbound echoes the id of a clientbound KeepAlive.
type KeepAliveServerbound struct {
	ID int64
}

func DecodeKeepAliveServerbound(r *protocol.Reader) (KeepAliveServerbound, error) {
	v, err := protocol.ReadInt64(r)
	return KeepAliveServerbound{ID: v}, err
}

// TeleportConfirm acknowledges a clientbound Player Position And Look.
type TeleportConfirm struct {
	TeleportID int32
}

func DecodeTeleportConfirm(r *protocol.Reader) (TeleportConfirm, error) {
	v, err := protocol.ReadVarInt(r)
	return TeleportConfirm{TeleportID: v}, err
}

// ClientStatus reports a respawn request or statistics request.
type ClientStatus struct {
	Action int32
}

func DecodeClientStatus(r *protocol.Reader) (ClientStatus, error) {
	v, err := protocol.ReadVarInt(r)
	return ClientStatus{Action: v}, err
}

// ClientSettings carries the client-reported view distance among other
// display preferences. The session decodes it and discards every field;
// the reported view distance is not applied to the player.
type ClientSettings struct {
	Locale       string
	ViewDistance byte
	ChatMode     int32
	ChatColors   bool
	SkinParts    byte
	MainHand     int32
}

func DecodeClientSettings(r *protocol.Reader) (ClientSettings, error) {
	var p ClientSettings
	locale, err := protocol.ReadString(r, 16)
	if err != nil {
		return p, err
	}
	p.Locale = locale
	vd, err := r.ReadByte()
	if err != nil {
		return p, err
	}
	p.ViewDistance = vd
	mode, err := protocol.ReadVarInt(r)
	if err != nil {
		return p, err
	}
	p.ChatMode = mode
	colors, err := protocol.ReadBool(r)
	if err != nil {
		return p, err
	}
	p.ChatColors = colors
	parts, err := r.ReadByte()
	if err != nil {
		return p, err
	}
	p.SkinParts = parts
	hand, err := protocol.ReadVarInt(r)
	p.MainHand = hand
	return p, err
}

// PlayerPosition reports the player's position and ground state.
type PlayerPosition struct {
	X, Y, Z  float64
	OnGround bool
}

func DecodePlayerPosition(r *protocol.Reader) (PlayerPosition, error) {
	var p PlayerPosition
	var err error
	if p.X, err = protocol.ReadFloat64(r); err != nil {
		return p, err
	}
	if p.Y, err = protocol.ReadFloat64(r); err != nil {
		return p, err
	}
	if p.Z, err = protocol.ReadFloat64(r); err != nil {
		return p, err
	}
	p.OnGround, err = protocol.ReadBool(r)
	return p, err
}

// PlayerPositionAndRotation additionally reports yaw/pitch.
type PlayerPositionAndRotation struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	OnGround   bool
}

func DecodePlayerPositionAndRotation(r *protocol.Reader) (PlayerPositionAndRotation, error) {
	var p PlayerPositionAndRotation
	var err error
	if p.X, err = protocol.ReadFloat64(r); err != nil {
		return p, err
	}
	if p.Y, err = protocol.ReadFloat64(r); err != nil {
		return p, err
	}
	if p.Z, err = protocol.ReadFloat64(r); err != nil {
		return p, err
	}
	if p.Yaw, err = protocol.ReadFloat32(r); err != nil {
		return p, err
	}
	if p.Pitch, err = protocol.ReadFloat32(r); err != nil {
		return p, err
	}
	p.OnGround, err = protocol.ReadBool(r)
	return p, err
}

// PlayerRotation reports only yaw/pitch/on-ground.
type PlayerRotation struct {
	Yaw, Pitch float32
	OnGround   bool
}

func DecodePlayerRotation(r *protocol.Reader) (PlayerRotation, error) {
	var p PlayerRotation
	var err error
	if p.Yaw, err = protocol.ReadFloat32(r); err != nil {
		return p, err
	}
	if p.Pitch, err = protocol.ReadFloat32(r); err != nil {
		return p, err
	}
	p.OnGround, err = protocol.ReadBool(r)
	return p, err
}

// PlayerMovement reports only the on-ground flag.
type PlayerMovement struct {
	OnGround bool
}

func DecodePlayerMovement(r *protocol.Reader) (PlayerMovement, error) {
	v, err := protocol.ReadBool(r)
	return PlayerMovement{OnGround: v}, err
}

// EntityAction reports sneak/sprint/jump-with-horse/etc. actions.
type EntityAction struct {
	EntityID  int32
	ActionID  int32
	JumpBoost int32
}

func DecodeEntityAction(r *protocol.Reader) (EntityAction, error) {
	var p EntityAction
	var err error
	if p.EntityID, err = protocol.ReadVarInt(r); err != nil {
		return p, err
	}
	if p.ActionID, err = protocol.ReadVarInt(r); err != nil {
		return p, err
	}
	p.JumpBoost, err = protocol.ReadVarInt(r)
	return p, err
}

// PlayerAbilitiesServerbound reports the client's flight toggle.
type PlayerAbilitiesServerbound struct {
	Flags byte
}

func DecodePlayerAbilitiesServerbound(r *protocol.Reader) (PlayerAbilitiesServerbound, error) {
	b, err := r.ReadByte()
	return PlayerAbilitiesServerbound{Flags: b}, err
}

// PlayerDigging reports a dig start/cancel/finish or an item-use action.
type PlayerDigging struct {
	Status   int32
	Location protocol.Position
	Face     byte
}

func DecodePlayerDigging(r *protocol.Reader) (PlayerDigging, error) {
	var p PlayerDigging
	var err error
	if p.Status, err = protocol.ReadVarInt(r); err != nil {
		return p, err
	}
	if p.Location, err = protocol.ReadPosition(r); err != nil {
		return p, err
	}
	p.Face, err = r.ReadByte()
	return p, err
}

// HeldItemChangeServerbound reports the newly selected hotbar slot.
type HeldItemChangeServerbound struct {
	Slot int16
}

func DecodeHeldItemChangeServerbound(r *protocol.Reader) (HeldItemChangeServerbound, error) {
	v, err := protocol.ReadUint16(r)
	return HeldItemChangeServerbound{Slot: int16(v)}, err
}

// CreativeInventoryAction reports a creative-mode slot overwrite.
type CreativeInventoryAction struct {
	Slot        int16
	ClickedItem protocol.Slot
}

func DecodeCreativeInventoryAction(r *protocol.Reader) (CreativeInventoryAction, error) {
	var p CreativeInventoryAction
	slot, err := protocol.ReadUint16(r)
	if err != nil {
		return p, err
	}
	p.Slot = int16(slot)
	p.ClickedItem, err = protocol.ReadSlot(r)
	return p, err
}

// AnimationServerbound reports a swing-arm animation.
type AnimationServerbound struct {
	Hand int32
}

func DecodeAnimationServerbound(r *protocol.Reader) (AnimationServerbound, error) {
	v, err := protocol.ReadVarInt(r)
	return AnimationServerbound{Hand: v}, err
}

// PlayerBlockPlacement reports a right-click placement/use against a
// block face.
type PlayerBlockPlacement struct {
	Hand                      int32
	Location                  protocol.Position
	Face                      int32
	CursorX, CursorY, CursorZ float32
	InsideBlock               bool
}

func DecodePlayerBlockPlacement(r *protocol.Reader) (PlayerBlockPlacement, error) {
	var p PlayerBlockPlacement
	var err error
	if p.Hand, err = protocol.ReadVarInt(r); err != nil {
		return p, err
	}
	if p.Location, err = protocol.ReadPosition(r); err != nil {
		return p, err
	}
	if p.Face, err = protocol.ReadVarInt(r); err != nil {
		return p, err
	}
	if p.CursorX, err = protocol.ReadFloat32(r); err != nil {
		return p, err
	}
	if p.CursorY, err = protocol.ReadFloat32(r); err != nil {
		return p, err
	}
	if p.CursorZ, err = protocol.ReadFloat32(r); err != nil {
		return p, err
	}
	p.InsideBlock, err = protocol.ReadBool(r)
	return p, err
}
