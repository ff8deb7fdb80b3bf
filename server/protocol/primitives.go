package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"

	"github.com/google/uuid"
)

// ErrStringTooLong is returned by ReadString when the decoded string has
// more characters than the caller-supplied maximum (or a byte length above
// four times that maximum).
var ErrStringTooLong = errors.New("protocol: string too long")

// DefaultMaxStringLength is the bound used for most protocol strings (chat
// messages, usernames, single-line fields) unless a packet specifies
// otherwise.
const DefaultMaxStringLength = 32767

// Reader wraps an io.Reader with the ReadByte method the VarInt/VarLong
// decoders require.
type Reader struct {
	r io.Reader
}

// NewReader wraps r. It always wraps, even when r already implements
// io.ByteReader.
func NewReader(r io.Reader) *Reader { return &Reader{r: r} }

func (r *Reader) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Read(p []byte) (int, error) { return io.ReadFull(r.r, p) }

// ReadString reads a VarInt-length-prefixed UTF-8 string, rejecting byte
// lengths above max*4 and strings of more than max characters.
func ReadString(r *Reader, max int) (string, error) {
	n, err := ReadVarInt(r)
	if err != nil {
		return "", err
	}
	if n < 0 || int(n) > max*4 {
		return "", ErrStringTooLong
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	if len([]rune(string(buf))) > max {
		return "", ErrStringTooLong
	}
	return string(buf), nil
}

// WriteString writes s as a VarInt-length-prefixed UTF-8 string.
func WriteString(w *bytes.Buffer, s string) error {
	b := []byte(s)
	if err := WriteVarInt(w, int32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadUUID reads a 16-byte big-endian UUID.
func ReadUUID(r *Reader) (uuid.UUID, error) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return uuid.UUID{}, err
	}
	return uuid.UUID(buf), nil
}

// WriteUUID writes a 16-byte big-endian UUID.
func WriteUUID(w *bytes.Buffer, id uuid.UUID) error {
	_, err := w.Write(id[:])
	return err
}

func ReadBool(r *Reader) (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

func WriteBool(w *bytes.Buffer, v bool) error {
	if v {
		return w.WriteByte(1)
	}
	return w.WriteByte(0)
}

func ReadByte(r *Reader) (byte, error) { return r.ReadByte() }

func WriteByteV(w *bytes.Buffer, v byte) { w.WriteByte(v) }

func ReadUint16(r *Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func WriteUint16(w *bytes.Buffer, v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	w.Write(buf[:])
}

func ReadInt32(r *Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

func WriteInt32(w *bytes.Buffer, v int32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	w.Write(buf[:])
}

func ReadInt64(r *Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

func WriteInt64(w *bytes.Buffer, v int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	w.Write(buf[:])
}

func ReadFloat32(r *Reader) (float32, error) {
	v, err := ReadInt32(r)
	return math.Float32frombits(uint32(v)), err
}

func WriteFloat32(w *bytes.Buffer, v float32) {
	WriteInt32(w, int32(math.Float32bits(v)))
}

func ReadFloat64(r *Reader) (float64, error) {
	v, err := ReadInt64(r)
	return math.Float64frombits(uint64(v)), err
}

func WriteFloat64(w *bytes.Buffer, v float64) {
	WriteInt64(w, int64(math.Float64bits(v)))
}

// Position is a block position packed into a single 64-bit integer: x:26,
// z:26, y:12, each two's-complement.
type Position struct {
	X, Y, Z int
}

// EncodePosition packs p into the wire's 64-bit representation.
func EncodePosition(p Position) uint64 {
	x := uint64(p.X) & 0x3FFFFFF
	y := uint64(p.Y) & 0xFFF
	z := uint64(p.Z) & 0x3FFFFFF
	return (x << 38) | (z << 12) | y
}

// DecodePosition unpacks the wire's 64-bit representation into a Position,
// sign-extending each field.
func DecodePosition(v uint64) Position {
	x := int64(v) >> 38
	y := int64(v<<52) >> 52
	z := int64(v<<26) >> 38
	return Position{X: int(x), Y: int(y), Z: int(z)}
}

func ReadPosition(r *Reader) (Position, error) {
	v, err := ReadInt64(r)
	if err != nil {
		return Position{}, err
	}
	return DecodePosition(uint64(v)), nil
}

func WritePosition(w *bytes.Buffer, p Position) {
	WriteInt64(w, int64(EncodePosition(p)))
}

// namespacePattern and pathPattern validate the restricted alphabet of a
// namespaced identifier's two components, per spec.md §6.
var (
	namespacePattern = regexp.MustCompile(`^[0-9a-z_\-]+$`)
	pathPattern      = regexp.MustCompile(`^[0-9a-z_\-/.]+$`)
)

// ErrInvalidIdentifier is returned by ParseIdentifier when either component
// uses a character outside the protocol's allowed alphabet.
var ErrInvalidIdentifier = errors.New("protocol: invalid identifier")

// Identifier is a namespace:path resource location.
type Identifier struct {
	Namespace, Path string
}

// ParseIdentifier parses s, defaulting the namespace to "minecraft" when s
// carries no colon.
func ParseIdentifier(s string) (Identifier, error) {
	ns, path := "minecraft", s
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			ns, path = s[:i], s[i+1:]
			break
		}
	}
	if !namespacePattern.MatchString(ns) || !pathPattern.MatchString(path) {
		return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	return Identifier{Namespace: ns, Path: path}, nil
}

func (id Identifier) String() string { return id.Namespace + ":" + id.Path }
