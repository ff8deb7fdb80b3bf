package packet

import (
	"bytes"

	"github.com/dm-vev/ferrite/server/protocol"
)

// NewReaderFrom wraps a decoded frame body for packet-level decoding.
func NewReaderFrom(body []byte) *protocol.Reader {
	return protocol.NewReader(bytes.NewReader(body))
}
