// Package packet defines the wire packet structs of the published 1.19-era
// Java-edition layout named in spec.md §6, and their symmetric encode/decode
// against server/protocol's primitives.
package packet

// Handshaking state, serverbound.
const (
	IDHandshake = 0x00
)

// Status state.
const (
	IDStatusRequest  = 0x00 // serverbound
	IDStatusPing     = 0x01 // serverbound
	IDStatusResponse = 0x00 // clientbound
	IDStatusPong     = 0x01 // clientbound
)

// Login state.
const (
	IDLoginStart          = 0x00 // serverbound
	IDEncryptionResponse  = 0x01 // serverbound
	IDLoginPluginResponse = 0x02 // serverbound
	IDLoginDisconnect     = 0x00 // clientbound
	IDEncryptionRequest   = 0x01 // clientbound
	IDLoginSuccess        = 0x02 // clientbound
	IDSetCompression      = 0x03 // clientbound
	IDLoginPluginRequest  = 0x04 // clientbound
)

// Play state, serverbound.
const (
	IDTeleportConfirm          = 0x00
	IDChatMessageServerbound   = 0x05
	IDClientStatus             = 0x07
	IDClientSettings           = 0x08
	IDPluginMessageServerbound = 0x0C
	IDKeepAliveServerbound     = 0x12
	IDPlayerPosition           = 0x14
	IDPlayerPositionAndRot     = 0x15
	IDPlayerRotation           = 0x16
	IDPlayerMovement           = 0x17
	IDPlayerAbilitiesServer    = 0x1D
	IDPlayerDigging            = 0x1E
	IDEntityAction             = 0x1F
	IDHeldItemChangeServer     = 0x28
	IDCreativeInventoryAction  = 0x2B
	IDAnimationServerbound     = 0x2E
	IDPlayerBlockPlacement     = 0x31
)

// Play state, clientbound.
const (
	IDSpawnEntity              = 0x00
	IDSpawnPlayer              = 0x04
	IDAnimationClientbound     = 0x05
	IDBlockUpdate              = 0x09
	IDChangeDifficulty         = 0x0B
	IDChatMessageClientbound   = 0x0F
	IDPluginMessageClientbound = 0x17
	IDDisconnectPlay           = 0x19
	IDEntityStatus             = 0x1A
	IDUnloadChunk              = 0x1D
	IDKeepAliveClientbound     = 0x21
	IDChunkDataAndLight        = 0x22
	IDJoinGame                 = 0x25
	IDEntityPosition           = 0x27
	IDEntityPositionAndRot     = 0x28
	IDEntityRotation           = 0x29
	IDPlayerAbilitiesClient    = 0x32
	IDPlayerInfo               = 0x36
	IDPlayerPositionAndLook    = 0x38
	IDDestroyEntities          = 0x3A
	IDEntityHeadLook           = 0x3E
	IDUpdateViewPosition       = 0x4A
	IDSetCenterChunk           = 0x4B
	IDEntityMetadata           = 0x4E
	IDSetEntityVelocity        = 0x4F
	IDEntityEquipment          = 0x50
	IDEntityTeleport           = 0x61
)
