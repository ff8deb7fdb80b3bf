// Package protocol implements the primitive wire types of the Java-edition
// protocol: variable-length integers, length-prefixed strings, UUIDs, packed
// positions, palette bit buffers and inventory slots.
package protocol

import (
	"errors"
	"io"
)

// ErrVarIntTooLong is returned when a VarInt or VarLong would require more
// than its maximum number of continuation bytes.
var ErrVarIntTooLong = errors.New("protocol: varint too long")

// maxVarIntLen and maxVarLongLen are the longest a VarInt/VarLong are
// permitted to encode as.
const (
	maxVarIntLen  = 5
	maxVarLongLen = 10
)

// ReadVarInt reads a variable-length 32-bit signed integer from r.
func ReadVarInt(r io.ByteReader) (int32, error) {
	var result uint32
	var numRead uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7F) << (7 * numRead)
		numRead++
		if numRead > maxVarIntLen {
			return 0, ErrVarIntTooLong
		}
		if b&0x80 == 0 {
			break
		}
	}
	return int32(result), nil
}

// WriteVarInt writes v to w as a variable-length 32-bit signed integer.
func WriteVarInt(w io.ByteWriter, v int32) error {
	u := uint32(v)
	for {
		b := byte(u & 0x7F)
		u >>= 7
		if u != 0 {
			b |= 0x80
		}
		if err := w.WriteByte(b); err != nil {
			return err
		}
		if u == 0 {
			return nil
		}
	}
}

// VarIntSize returns the number of bytes WriteVarInt would emit for v.
func VarIntSize(v int32) int {
	u := uint32(v)
	n := 1
	for u >= 0x80 {
		u >>= 7
		n++
	}
	return n
}

// ReadVarLong reads a variable-length 64-bit signed integer from r.
func ReadVarLong(r io.ByteReader) (int64, error) {
	var result uint64
	var numRead uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7F) << (7 * numRead)
		numRead++
		if numRead > maxVarLongLen {
			return 0, ErrVarIntTooLong
		}
		if b&0x80 == 0 {
			break
		}
	}
	return int64(result), nil
}

// WriteVarLong writes v to w as a variable-length 64-bit signed integer.
func WriteVarLong(w io.ByteWriter, v int64) error {
	u := uint64(v)
	for {
		b := byte(u & 0x7F)
		u >>= 7
		if u != 0 {
			b |= 0x80
		}
		if err := w.WriteByte(b); err != nil {
			return err
		}
		if u == 0 {
			return nil
		}
	}
}
