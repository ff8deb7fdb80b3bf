package protocol

import (
	"bytes"
	"fmt"
	"io"

	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// Slot is an inventory slot: either empty, or an item id, a count and an NBT
// compound of extra tag data. An empty tag is encoded as a single TAG_End
// (0x00) byte, per spec.md §4.1.
type Slot struct {
	Present bool
	ItemID  int32
	Count   byte
	Tag     map[string]any
}

// ReadSlot decodes a Slot.
func ReadSlot(r *Reader) (Slot, error) {
	present, err := ReadBool(r)
	if err != nil || !present {
		return Slot{}, err
	}
	id, err := ReadVarInt(r)
	if err != nil {
		return Slot{}, err
	}
	count, err := r.ReadByte()
	if err != nil {
		return Slot{}, err
	}
	tagByte, err := r.ReadByte()
	if err != nil {
		return Slot{}, err
	}
	if tagByte == 0 {
		return Slot{Present: true, ItemID: id, Count: count}, nil
	}
	// tagByte is the first byte (the root compound's type tag) of a Java
	// big-endian NBT stream; put it back for the decoder to consume.
	rest := io.MultiReader(bytes.NewReader([]byte{tagByte}), r)
	dec := nbt.NewDecoderWithEncoding(rest, nbt.BigEndian)
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return Slot{}, fmt.Errorf("protocol: decode slot nbt: %w", err)
	}
	return Slot{Present: true, ItemID: id, Count: count, Tag: m}, nil
}

// WriteSlot encodes a Slot.
func WriteSlot(w *bytes.Buffer, s Slot) error {
	WriteBool(w, s.Present)
	if !s.Present {
		return nil
	}
	if err := WriteVarInt(w, s.ItemID); err != nil {
		return err
	}
	w.WriteByte(s.Count)
	if len(s.Tag) == 0 {
		w.WriteByte(0)
		return nil
	}
	enc := nbt.NewEncoderWithEncoding(w, nbt.BigEndian)
	if err := enc.Encode(s.Tag); err != nil {
		return fmt.Errorf("protocol: encode slot nbt: %w", err)
	}
	return nil
}
