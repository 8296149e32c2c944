package status

import (
	"errors"

	"github.com/haveachin/slping/pkg/slping/protocol"
)

const ClientBoundPongID int32 = 0x01

// ErrInvalidPongPayload is returned when a pong does not echo the ping.
var ErrInvalidPongPayload = errors.New("pong payload does not match ping")

type ClientBoundPong struct {
	Payload protocol.Long
}

func (pk ClientBoundPong) Marshal(packet *protocol.Packet) error {
	return packet.Encode(
		ClientBoundPongID,
		pk.Payload,
	)
}

func (pk *ClientBoundPong) Unmarshal(packet protocol.Packet) error {
	if packet.ID != ClientBoundPongID {
		return protocol.ErrInvalidPacketID
	}

	return packet.Decode(
		&pk.Payload,
	)
}

// Verify checks that the pong answers ping.
func (pk ClientBoundPong) Verify(ping ServerBoundPing) error {
	if pk.Payload != ping.Payload {
		return ErrInvalidPongPayload
	}
	return nil
}
