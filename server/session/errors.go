package session

import "fmt"

// InvalidHandshake is returned when a Handshake frame carries a next_state
// value other than Status (1) or Login (2).
type InvalidHandshake struct {
	NextState int32
}

func (e InvalidHandshake) Error() string {
	return fmt.Sprintf("session: invalid handshake next_state %d", e.NextState)
}

// UnexpectedPacketForState is returned when a packet id is decoded that the
// current state does not accept.
type UnexpectedPacketForState struct {
	State State
	ID    int32
}

func (e UnexpectedPacketForState) Error() string {
	return fmt.Sprintf("session: unexpected packet 0x%02X for state %s", e.ID, e.State)
}

// BadVerifyToken is returned when the decrypted EncryptionResponse verify
// token does not match the one the server generated.
type BadVerifyToken struct{}

func (BadVerifyToken) Error() string { return "session: verify token mismatch" }

// EventSendFailed is returned when the upstream event queue could not
// accept a ClientEvent (it was full and the session is not willing to
// block indefinitely).
type EventSendFailed struct {
	Event ClientEvent
}

func (e EventSendFailed) Error() string {
	return fmt.Sprintf("session: failed to deliver event %T", e.Event)
}

// PacketSendFailed is returned when the outbound writer could not enqueue
// or flush a packet.
type PacketSendFailed struct {
	Reason string
}

func (e PacketSendFailed) Error() string { return "session: packet send failed: " + e.Reason }

// SocketIo wraps a network error observed by either I/O task.
type SocketIo struct {
	Err error
}

func (e SocketIo) Error() string { return "session: socket error: " + e.Err.Error() }
func (e SocketIo) Unwrap() error { return e.Err }

// KeepAliveTimeout is emitted when a session receives no KeepAlive reply
// for longer than the configured timeout.
type KeepAliveTimeout struct{}

func (KeepAliveTimeout) Error() string { return "session: keep-alive timeout" }

// SlowConsumer is emitted when a session's outbound queue overflows even
// after dropping non-essential frames.
type SlowConsumer struct{}

func (SlowConsumer) Error() string { return "session: slow consumer" }
