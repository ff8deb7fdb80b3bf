package packet

import (
	"bytes"

	"github.com/dm-vev/ferrite/server/protocol"
)

// StatusRequest carries no fields; the server responds with StatusResponse.
type StatusRequest struct{}

// StatusResponse wraps the JSON blob produced by the surroundings' SLP
// responder (spec.md §6 "Collaborator hooks").
type StatusResponse struct {
	JSON string
}

func EncodeStatusResponse(w *bytes.Buffer, p StatusResponse) error {
	return protocol.WriteString(w, p.JSON)
}

func DecodeStatusResponse(r *protocol.Reader) (StatusResponse, error) {
	s, err := protocol.ReadString(r, protocol.DefaultMaxStringLength)
	return StatusResponse{JSON: s}, err
}

// StatusPing/StatusPong echo an opaque 64-bit payload, per spec.md §8
// scenario 1.
type StatusPing struct {
	Payload int64
}

func DecodeStatusPing(r *protocol.Reader) (StatusPing, error) {
	v, err := protocol.ReadInt64(r)
	return StatusPing{Payload: v}, err
}

func EncodeStatusPong(w *bytes.Buffer, p StatusPing) error {
	protocol.WriteInt64(w, p.Payload)
	return nil
}
