package protocol

import (
	"bytes"
	"fmt"

	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// EncodeNBT marshals v as a Java big-endian NBT compound with no name tag,
// the encoding used throughout the Play protocol for compound payloads
// embedded directly in a packet body (heightmaps, the registry codec).
func EncodeNBT(v any) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := nbt.NewEncoderWithEncoding(buf, nbt.BigEndian)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("protocol: encode nbt: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeNBT unmarshals a Java big-endian NBT compound from buf into v.
func DecodeNBT(buf []byte, v any) error {
	dec := nbt.NewDecoderWithEncoding(bytes.NewReader(buf), nbt.BigEndian)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("protocol: decode nbt: %w", err)
	}
	return nil
}

// Heightmap encodes the MOTION_BLOCKING heightmap of a single chunk column:
// 256 9-bit entries, each the y of the highest non-air block in that
// column, packed via a BitBuffer and wrapped as a single compacted long
// array NBT compound, per spec.md §4.4.
func Heightmap(columnHeights [256]int) map[string]any {
	bb := NewBitBuffer(9, 256)
	for i, h := range columnHeights {
		bb.Set(i, uint64(h))
	}
	words := bb.Words()
	longs := make([]int64, len(words))
	for i, w := range words {
		longs[i] = int64(w)
	}
	return map[string]any{
		"MOTION_BLOCKING": longs,
	}
}
