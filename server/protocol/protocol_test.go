package protocol

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"reflect"
	"testing"
)

func TestVarIntRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		x := int32(r.Uint32())
		buf := new(bytes.Buffer)
		if err := WriteVarInt(buf, x); err != nil {
			t.Fatalf("write: %v", err)
		}
		if buf.Len() > 5 {
			t.Fatalf("encoding of %d took %d bytes, want <=5", x, buf.Len())
		}
		got, err := ReadVarInt(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if got != x {
			t.Fatalf("round trip mismatch: got %d want %d", got, x)
		}
	}
}

func TestVarIntTruncated(t *testing.T) {
	buf := new(bytes.Buffer)
	WriteVarInt(buf, 300)
	truncated := buf.Bytes()[:1]
	_, err := ReadVarInt(bytes.NewReader(truncated))
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF-like error for truncated varint, got %v", err)
	}
}

func TestVarIntTooLong(t *testing.T) {
	allSet := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}
	_, err := ReadVarInt(bytes.NewReader(allSet))
	if !errors.Is(err, ErrVarIntTooLong) {
		t.Fatalf("expected ErrVarIntTooLong, got %v", err)
	}
}

func TestPositionRoundTrip(t *testing.T) {
	cases := []Position{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: -1, Z: 1},
		{X: -33554432, Y: -2048, Z: 33554431},
		{X: 33554431, Y: 2047, Z: -33554432},
		{X: 18, Y: 65, Z: -18},
	}
	for _, p := range cases {
		v := EncodePosition(p)
		got := DecodePosition(v)
		if got != p {
			t.Fatalf("position round trip mismatch: got %+v want %+v", got, p)
		}
	}
}

func TestBitBufferRoundTrip(t *testing.T) {
	for _, bits := range []int{1, 4, 5, 8, 15, 31} {
		count := 300
		bb := NewBitBuffer(bits, count)
		max := uint64(1)<<uint(bits) - 1
		r := rand.New(rand.NewSource(int64(bits)))
		values := make([]uint64, count)
		for i := range values {
			v := uint64(r.Int63()) & max
			values[i] = v
			bb.Set(i, v)
		}
		for i, want := range values {
			if got := bb.Get(i); got != want {
				t.Fatalf("bits=%d index=%d: got %d want %d", bits, i, got, want)
			}
		}
	}
}

func TestStringTooLong(t *testing.T) {
	buf := new(bytes.Buffer)
	long := make([]byte, 40)
	for i := range long {
		long[i] = 'a'
	}
	WriteString(buf, string(long))
	_, err := ReadString(NewReader(bytes.NewReader(buf.Bytes())), 10)
	if !errors.Is(err, ErrStringTooLong) {
		t.Fatalf("expected ErrStringTooLong, got %v", err)
	}
}

func TestIdentifierDefaultsNamespace(t *testing.T) {
	id, err := ParseIdentifier("stone")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id.Namespace != "minecraft" || id.Path != "stone" {
		t.Fatalf("got %+v", id)
	}
	if _, err := ParseIdentifier("Bad Name"); err == nil {
		t.Fatal("expected error for invalid identifier")
	}
}

func TestSlotRoundTripEmpty(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := WriteSlot(buf, Slot{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadSlot(NewReader(bytes.NewReader(buf.Bytes())))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Present {
		t.Fatalf("expected absent slot, got %+v", got)
	}
}

func TestSlotRoundTripPresentNoTag(t *testing.T) {
	buf := new(bytes.Buffer)
	s := Slot{Present: true, ItemID: 42, Count: 5}
	if err := WriteSlot(buf, s); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadSlot(NewReader(bytes.NewReader(buf.Bytes())))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got, s) {
		t.Fatalf("got %+v want %+v", got, s)
	}
}
