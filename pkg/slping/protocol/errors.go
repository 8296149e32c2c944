package protocol

import "errors"

var (
	// ErrMalformedVarInt is returned when a VarInt or VarLong does not
	// terminate within its maximum length or runs off the end of a frame.
	ErrMalformedVarInt = errors.New("malformed varint")
	// ErrTruncatedString is returned when a String declares more bytes than
	// its source holds.
	ErrTruncatedString = errors.New("truncated string")
	// ErrIncompletePacket is returned when the transport stops before the
	// declared packet length was received.
	ErrIncompletePacket = errors.New("incomplete packet")
	// ErrInvalidPacketLength is returned for a declared packet length that
	// cannot hold a packet id or exceeds the allowed maximum.
	ErrInvalidPacketLength = errors.New("invalid packet length")
	ErrInvalidPacketID     = errors.New("invalid packet id")
)
