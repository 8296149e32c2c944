package handshaking

import "github.com/haveachin/slping/pkg/slping/protocol"

const (
	ServerBoundHandshakeID int32 = 0x00

	StateStatusServerBoundHandshake = protocol.VarInt(protocol.StateStatus)
)

type ServerBoundHandshake struct {
	ProtocolVersion protocol.VarInt
	ServerAddress   protocol.String
	ServerPort      protocol.UnsignedShort
	NextState       protocol.VarInt
}

// NewStatusHandshake returns a handshake that announces protocol.DefaultVersion
// and switches the connection into the status state.
func NewStatusHandshake(addr string, port uint16) ServerBoundHandshake {
	return ServerBoundHandshake{
		ProtocolVersion: protocol.VarInt(protocol.DefaultVersion),
		ServerAddress:   protocol.String(addr),
		ServerPort:      protocol.UnsignedShort(port),
		NextState:       StateStatusServerBoundHandshake,
	}
}

func (pk ServerBoundHandshake) Marshal(packet *protocol.Packet) error {
	return packet.Encode(
		ServerBoundHandshakeID,
		pk.ProtocolVersion,
		pk.ServerAddress,
		pk.ServerPort,
		pk.NextState,
	)
}
