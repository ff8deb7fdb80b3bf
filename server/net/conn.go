package net

import (
	"crypto/cipher"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
)

// Conn is one direction-agnostic wrapper around a TCP socket implementing
// the frame layer described in spec.md §4.2: a growable read buffer, an
// optional AES-128-CFB8 cipher pair, and a compression threshold that can
// be switched mid-stream without reordering frames already written.
//
// A Conn is used by exactly one Session for its lifetime; the read and
// write halves are independent and may be driven by different goroutines,
// but Write itself serializes concurrent callers so queued "switch" commands
// can never interleave with a frame that should see the old setting.
type Conn struct {
	nc net.Conn

	readBuf []byte
	readDec cipher.Stream

	writeMu  sync.Mutex
	writeEnc cipher.Stream

	// threshold is read by the reader goroutine and written under writeMu
	// by compression switches, so it is atomic rather than guarded.
	threshold atomic.Int32
}

// NewConn wraps nc. No compression or encryption is active initially.
func NewConn(nc net.Conn) *Conn {
	c := &Conn{nc: nc}
	c.threshold.Store(-1)
	return c
}

// Close closes the underlying socket.
func (c *Conn) Close() error { return c.nc.Close() }

// RemoteAddr returns the socket's remote address.
func (c *Conn) RemoteAddr() net.Addr { return c.nc.RemoteAddr() }

// ReadFrame blocks until one complete frame has been read. Each chunk of
// bytes is decrypted with the read cipher installed at the moment it was
// read off the wire; the frame is decompressed according to the threshold
// in effect when it is decoded.
func (c *Conn) ReadFrame() (RawFrame, error) {
	for {
		f, n, err := decodeFrame(c.readBuf, int(c.threshold.Load()))
		if err == nil {
			c.readBuf = c.readBuf[n:]
			return f, nil
		}
		if err != ErrNotEnoughBytes {
			return RawFrame{}, err
		}
		if err := c.fill(); err != nil {
			return RawFrame{}, err
		}
	}
}

// fill reads at least one more chunk from the socket, decrypting it in
// place before appending it to the read buffer.
func (c *Conn) fill() error {
	var chunk [4096]byte
	n, err := c.nc.Read(chunk[:])
	if n > 0 {
		buf := chunk[:n]
		if c.readDec != nil {
			c.readDec.XORKeyStream(buf, buf)
		}
		c.readBuf = append(c.readBuf, buf...)
	}
	if err != nil && n == 0 {
		return err
	}
	return nil
}

// WriteFrame encodes and writes id+body under the Conn's current
// compression/encryption settings. Writes are strictly ordered: concurrent
// callers are serialized by writeMu, matching spec.md §5's "within one
// session, outbound frames are delivered in the order they were submitted".
func (c *Conn) WriteFrame(id int32, body []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.writeLocked(id, body)
}

func (c *Conn) writeLocked(id int32, body []byte) error {
	wire, err := encodeFrame(id, body, int(c.threshold.Load()))
	if err != nil {
		return fmt.Errorf("net: encode frame %d: %w", id, err)
	}
	if c.writeEnc != nil {
		c.writeEnc.XORKeyStream(wire, wire)
	}
	_, err = c.nc.Write(wire)
	return err
}

// WriteFrameThenSwitchCompression writes id+body under the current
// threshold, then atomically switches outbound compression to newThreshold
// for every subsequent frame — the "now-and-then-switch" barrier spec.md
// §4.2 and §5 require so the toggle itself is never sent under the new
// setting and nothing after it is sent under the old one.
func (c *Conn) WriteFrameThenSwitchCompression(id int32, body []byte, newThreshold int) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.writeLocked(id, body); err != nil {
		return err
	}
	c.threshold.Store(int32(newThreshold))
	return nil
}

// WriteFrameThenEnableEncryption writes id+body unencrypted, then installs
// enc as the outbound cipher for every subsequent frame. The read side must
// be switched separately by InstallReadCipher once the corresponding
// request has been fully consumed, preserving the same barrier guarantee
// for the inbound direction.
func (c *Conn) WriteFrameThenEnableEncryption(id int32, body []byte, enc cipher.Stream) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.writeLocked(id, body); err != nil {
		return err
	}
	c.writeEnc = enc
	return nil
}

// InstallWriteCipher switches the write side to enc outside of a write
// call, used when the cipher must take effect before the next queued
// frame but no specific frame is the designated "last unencrypted" one
// (the Encryption Request that triggered the handshake was already sent
// earlier under the old setting).
func (c *Conn) InstallWriteCipher(enc cipher.Stream) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.writeEnc = enc
}

// InstallReadCipher switches the read side to dec. It must only be called
// between calls to ReadFrame, after the frame that triggered the switch
// (e.g. EncryptionResponse) has been fully decoded, so unread buffered
// bytes are never double-decrypted.
func (c *Conn) InstallReadCipher(dec cipher.Stream) {
	c.readDec = dec
}

// SetCompressionThreshold changes compression outside of the write path,
// used only before any frame has been written (the handshake has not yet
// reached the point where ordering matters).
func (c *Conn) SetCompressionThreshold(t int) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.threshold.Store(int32(t))
}

var _ io.Closer = (*Conn)(nil)
