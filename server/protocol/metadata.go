package protocol

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
)

// MetadataType identifies the tagged-union variant of a MetadataValue, per
// spec.md §3 "Entity record".
type MetadataType byte

const (
	MetadataByte MetadataType = iota
	MetadataVarInt
	MetadataFloat
	MetadataString
	MetadataChat
	MetadataOptChat
	MetadataSlot
	MetadataBool
	MetadataRotation
	MetadataPosition
	MetadataOptPosition
	MetadataDirection
	MetadataOptUUID
	MetadataOptBlockID
	MetadataNBT
	MetadataParticle
	MetadataOptVarInt
	MetadataPose
	MetadataVillagerData
)

// metadataEnd is the sentinel byte (0xFF) terminating a metadata stream.
const metadataEnd = 0xFF

// MetadataEntry is a single (index, type, value) triple of an entity's
// metadata map.
type MetadataEntry struct {
	Index uint8
	Type  MetadataType
	Value any
}

// Rotation is the packed float3 rotation metadata value.
type Rotation struct{ X, Y, Z float32 }

// VillagerData is the packed (type, profession, level) metadata value.
type VillagerData struct{ Type, Profession, Level int32 }

// WriteMetadata encodes entries followed by the terminating sentinel.
func WriteMetadata(w *bytes.Buffer, entries []MetadataEntry) error {
	for _, e := range entries {
		w.WriteByte(e.Index)
		if err := WriteVarInt(w, int32(e.Type)); err != nil {
			return err
		}
		if err := writeMetadataValue(w, e.Type, e.Value); err != nil {
			return fmt.Errorf("protocol: metadata index %d: %w", e.Index, err)
		}
	}
	w.WriteByte(metadataEnd)
	return nil
}

func writeMetadataValue(w *bytes.Buffer, t MetadataType, v any) error {
	switch t {
	case MetadataByte:
		w.WriteByte(v.(byte))
	case MetadataVarInt, MetadataOptBlockID:
		return WriteVarInt(w, v.(int32))
	case MetadataOptVarInt:
		if n, ok := v.(int32); ok {
			return WriteVarInt(w, n+1)
		}
		return WriteVarInt(w, 0)
	case MetadataFloat:
		WriteFloat32(w, v.(float32))
	case MetadataString, MetadataChat:
		return WriteString(w, v.(string))
	case MetadataOptChat:
		s, ok := v.(string)
		WriteBool(w, ok)
		if ok {
			return WriteString(w, s)
		}
	case MetadataSlot:
		return WriteSlot(w, v.(Slot))
	case MetadataBool:
		WriteBool(w, v.(bool))
	case MetadataRotation:
		r := v.(Rotation)
		WriteFloat32(w, r.X)
		WriteFloat32(w, r.Y)
		WriteFloat32(w, r.Z)
	case MetadataPosition:
		WritePosition(w, v.(Position))
	case MetadataOptPosition:
		p, ok := v.(Position)
		WriteBool(w, ok)
		if ok {
			WritePosition(w, p)
		}
	case MetadataDirection, MetadataPose:
		return WriteVarInt(w, v.(int32))
	case MetadataOptUUID:
		id, ok := v.(uuid.UUID)
		WriteBool(w, ok)
		if ok {
			return WriteUUID(w, id)
		}
	case MetadataParticle:
		// Particle payloads are opaque to the core; callers pass pre-encoded
		// bytes for the particle id and its parameters.
		if b, ok := v.([]byte); ok {
			w.Write(b)
		}
	case MetadataVillagerData:
		d := v.(VillagerData)
		if err := WriteVarInt(w, d.Type); err != nil {
			return err
		}
		if err := WriteVarInt(w, d.Profession); err != nil {
			return err
		}
		return WriteVarInt(w, d.Level)
	default:
		return fmt.Errorf("protocol: unknown metadata type %d", t)
	}
	return nil
}
