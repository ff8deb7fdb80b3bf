// Package net implements the length-prefixed, optionally compressed and
// optionally encrypted frame layer of the Java-edition wire protocol
// (spec.md §4.2), sitting directly on top of server/protocol's VarInt
// codec.
package net

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	kzlib "github.com/klauspost/compress/zlib"

	"github.com/dm-vev/ferrite/server/protocol"
)

// MaxFrameSize is the largest frame length this implementation accepts,
// matching spec.md §4.2's recommended 2 MiB bound.
const MaxFrameSize = 2 * 1024 * 1024

// ErrNotEnoughBytes signals the frame buffer holds an incomplete frame; it
// never escapes the frame layer; Conn.ReadFrame retries once more bytes have
// arrived from the socket.
var ErrNotEnoughBytes = errors.New("net: not enough bytes buffered")

// ErrFrameTooLarge is returned when a length prefix describes a frame
// exceeding MaxFrameSize.
var ErrFrameTooLarge = errors.New("net: frame too large")

// ParseError wraps a failure decoding a specific part of a frame.
type ParseError struct {
	Kind string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("net: parse %s: %v", e.Kind, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// RawFrame is a decoded packet id and body, prior to session-level
// interpretation.
type RawFrame struct {
	ID   int32
	Body []byte
}

// decodeFrame attempts to parse one frame from buf. It returns the number
// of bytes consumed from buf's front. If buf does not yet hold a complete
// frame, it returns ErrNotEnoughBytes and zero bytes consumed; buf must be
// left untouched by the caller in that case so more bytes can be appended
// and decoding retried.
func decodeFrame(buf []byte, threshold int) (RawFrame, int, error) {
	br := bytes.NewReader(buf)
	frameLen, n, err := tryReadVarInt(br)
	if err != nil {
		return RawFrame{}, 0, err
	}
	if frameLen < 0 || frameLen > MaxFrameSize {
		return RawFrame{}, 0, ErrFrameTooLarge
	}
	total := n + int(frameLen)
	if len(buf) < total {
		return RawFrame{}, 0, ErrNotEnoughBytes
	}
	rest := buf[n:total]

	if threshold < 1 {
		f, err := decodeUncompressedBody(rest)
		return f, total, err
	}
	f, err := decodeCompressedBody(rest)
	return f, total, err
}

func decodeUncompressedBody(rest []byte) (RawFrame, error) {
	r := protocol.NewReader(bytes.NewReader(rest))
	id, err := protocol.ReadVarInt(r)
	if err != nil {
		return RawFrame{}, &ParseError{Kind: "packet id", Err: err}
	}
	body := make([]byte, len(rest)-protocol.VarIntSize(id))
	if _, err := io.ReadFull(r, body); err != nil {
		return RawFrame{}, &ParseError{Kind: "body", Err: err}
	}
	return RawFrame{ID: id, Body: body}, nil
}

func decodeCompressedBody(rest []byte) (RawFrame, error) {
	br := bytes.NewReader(rest)
	uncompressedLen, err := protocol.ReadVarInt(protocol.NewReader(br))
	if err != nil {
		return RawFrame{}, &ParseError{Kind: "uncompressed length", Err: err}
	}
	remaining := make([]byte, br.Len())
	io.ReadFull(br, remaining)

	if uncompressedLen == 0 {
		return decodeUncompressedBody(remaining)
	}
	if int(uncompressedLen) > MaxFrameSize {
		return RawFrame{}, ErrFrameTooLarge
	}
	zr, err := kzlib.NewReader(bytes.NewReader(remaining))
	if err != nil {
		return RawFrame{}, &ParseError{Kind: "zlib header", Err: err}
	}
	defer zr.Close()
	out := make([]byte, uncompressedLen)
	if _, err := io.ReadFull(zr, out); err != nil {
		return RawFrame{}, &ParseError{Kind: "zlib body", Err: err}
	}
	return decodeUncompressedBody(out)
}

// tryReadVarInt reads a VarInt from br, reporting ErrNotEnoughBytes instead
// of io.EOF/io.ErrUnexpectedEOF when br runs dry mid-value, and returning
// the number of bytes consumed on success.
func tryReadVarInt(br *bytes.Reader) (int32, int, error) {
	start := br.Len()
	v, err := protocol.ReadVarInt(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, 0, ErrNotEnoughBytes
		}
		if errors.Is(err, protocol.ErrVarIntTooLong) {
			return 0, 0, err
		}
		return 0, 0, ErrNotEnoughBytes
	}
	return v, start - br.Len(), nil
}

// encodeFrame serializes id and body into the wire's frame format for the
// given compression threshold.
func encodeFrame(id int32, body []byte, threshold int) ([]byte, error) {
	inner := new(bytes.Buffer)
	if err := protocol.WriteVarInt(inner, id); err != nil {
		return nil, err
	}
	inner.Write(body)

	out := new(bytes.Buffer)
	if threshold < 1 {
		if err := protocol.WriteVarInt(out, int32(inner.Len())); err != nil {
			return nil, err
		}
		out.Write(inner.Bytes())
		return out.Bytes(), nil
	}

	payload := new(bytes.Buffer)
	if inner.Len() < threshold {
		protocol.WriteVarInt(payload, 0)
		payload.Write(inner.Bytes())
	} else {
		protocol.WriteVarInt(payload, int32(inner.Len()))
		zw := kzlib.NewWriter(payload)
		if _, err := zw.Write(inner.Bytes()); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
	}
	if err := protocol.WriteVarInt(out, int32(payload.Len())); err != nil {
		return nil, err
	}
	out.Write(payload.Bytes())
	return out.Bytes(), nil
}
