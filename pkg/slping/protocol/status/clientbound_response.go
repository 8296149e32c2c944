package status

import (
	"fmt"
	"io"
	"strings"

	"github.com/haveachin/slping/pkg/slping/protocol"
)

const ClientBoundResponseID int32 = 0x00

type ClientBoundResponse struct {
	JSONResponse protocol.String
}

func (pk ClientBoundResponse) Marshal(packet *protocol.Packet) error {
	return packet.Encode(
		ClientBoundResponseID,
		pk.JSONResponse,
	)
}

// Unmarshal decodes the JSON payload of a status response. Invalid UTF-8
// in the payload is replaced with U+FFFD instead of being rejected.
func (pk *ClientBoundResponse) Unmarshal(packet protocol.Packet) error {
	if packet.ID != ClientBoundResponseID {
		return fmt.Errorf("%w: got 0x%02X, want 0x%02X", protocol.ErrInvalidPacketID, packet.ID, ClientBoundResponseID)
	}

	if err := packet.Decode(&pk.JSONResponse); err != nil {
		return err
	}

	pk.JSONResponse = protocol.String(strings.ToValidUTF8(string(pk.JSONResponse), "\uFFFD"))
	return nil
}

// ReadClientBoundResponse reads one status response packet from r.
func ReadClientBoundResponse(r io.Reader, maxLen int) (ClientBoundResponse, error) {
	var pk protocol.Packet
	if _, err := pk.ReadFromLimited(r, maxLen); err != nil {
		return ClientBoundResponse{}, err
	}

	var resp ClientBoundResponse
	if err := resp.Unmarshal(pk); err != nil {
		return ClientBoundResponse{}, err
	}
	return resp, nil
}
