package protocol_test

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/haveachin/slping/pkg/slping/protocol"
)

func TestPacket_WriteTo(t *testing.T) {
	tt := []struct {
		name     string
		packet   protocol.Packet
		expected []byte
	}{
		{
			name:     "status request",
			packet:   protocol.Packet{ID: 0x00},
			expected: []byte{0x01, 0x00},
		},
		{
			name:     "with data",
			packet:   protocol.Packet{ID: 0x01, Data: []byte{0xca, 0xfe}},
			expected: []byte{0x03, 0x01, 0xca, 0xfe},
		},
		{
			name:     "multi byte id",
			packet:   protocol.Packet{ID: 0x80, Data: []byte{0x01}},
			expected: []byte{0x03, 0x80, 0x01, 0x01},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := tc.packet.WriteTo(&buf)
			if err != nil {
				t.Fatal(err)
			}
			if n != int64(len(tc.expected)) {
				t.Errorf("wrote %d bytes; want %d", n, len(tc.expected))
			}
			if !bytes.Equal(buf.Bytes(), tc.expected) {
				t.Errorf("got \"% x\"; want \"% x\"", buf.Bytes(), tc.expected)
			}
		})
	}
}

func TestPacket_RoundTrip(t *testing.T) {
	tt := []struct {
		name   string
		packet protocol.Packet
	}{
		{
			name:   "empty",
			packet: protocol.Packet{ID: 0x00, Data: []byte{}},
		},
		{
			name:   "negative id",
			packet: protocol.Packet{ID: -1, Data: []byte{0x01, 0x02}},
		},
		{
			name:   "large payload",
			packet: protocol.Packet{ID: 0x00, Data: bytes.Repeat([]byte("{\"players\":[]}"), 5000)},
		},
	}

	readers := map[string]func(io.Reader) io.Reader{
		"single read": func(r io.Reader) io.Reader { return r },
		"one byte":    iotest.OneByteReader,
		"half":        iotest.HalfReader,
	}

	for _, tc := range tt {
		for rName, wrap := range readers {
			t.Run(tc.name+"/"+rName, func(t *testing.T) {
				wire := tc.packet.Bytes()

				var pk protocol.Packet
				n, err := pk.ReadFrom(wrap(bytes.NewReader(wire)))
				if err != nil {
					t.Fatal(err)
				}
				if n != int64(len(wire)) {
					t.Errorf("read %d bytes; want %d", n, len(wire))
				}
				if pk.ID != tc.packet.ID {
					t.Errorf("got id %d; want %d", pk.ID, tc.packet.ID)
				}
				if !bytes.Equal(pk.Data, tc.packet.Data) {
					t.Errorf("data mismatch: got %d bytes; want %d", len(pk.Data), len(tc.packet.Data))
				}
			})
		}
	}
}

func TestPacket_ReadFrom_errors(t *testing.T) {
	tt := []struct {
		name string
		wire []byte
		err  error
	}{
		{
			name: "nothing received",
			wire: []byte{},
			err:  protocol.ErrIncompletePacket,
		},
		{
			name: "one byte short",
			wire: []byte{0x05, 0x00, 0x03, 'a', 'b'},
			err:  protocol.ErrIncompletePacket,
		},
		{
			name: "length cut off",
			wire: []byte{0x80},
			err:  protocol.ErrIncompletePacket,
		},
		{
			name: "endless length",
			wire: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0x01},
			err:  protocol.ErrMalformedVarInt,
		},
		{
			name: "zero length",
			wire: []byte{0x00},
			err:  protocol.ErrInvalidPacketLength,
		},
		{
			name: "negative length",
			wire: []byte{0xff, 0xff, 0xff, 0xff, 0x0f},
			err:  protocol.ErrInvalidPacketLength,
		},
		{
			name: "too long",
			wire: []byte{0x81, 0x80, 0x80, 0x01},
			err:  protocol.ErrInvalidPacketLength,
		},
		{
			name: "packet id runs past frame",
			wire: []byte{0x01, 0x80, 0x01},
			err:  protocol.ErrMalformedVarInt,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var pk protocol.Packet
			_, err := pk.ReadFrom(iotest.OneByteReader(bytes.NewReader(tc.wire)))
			if !errors.Is(err, tc.err) {
				t.Errorf("got %v; want %v", err, tc.err)
			}
		})
	}
}

func TestPacket_ReadFromLimited(t *testing.T) {
	wire := protocol.Packet{ID: 0x00, Data: make([]byte, 64)}.Bytes()

	var pk protocol.Packet
	if _, err := pk.ReadFromLimited(bytes.NewReader(wire), 32); !errors.Is(err, protocol.ErrInvalidPacketLength) {
		t.Errorf("got %v; want %v", err, protocol.ErrInvalidPacketLength)
	}

	if _, err := pk.ReadFromLimited(bytes.NewReader(wire), 65); err != nil {
		t.Error(err)
	}
}

func TestPacket_ReadFrom_transportError(t *testing.T) {
	errTransport := errors.New("connection reset")
	wire := []byte{0x05, 0x00, 0x03}
	r := io.MultiReader(bytes.NewReader(wire), iotest.ErrReader(errTransport))

	var pk protocol.Packet
	_, err := pk.ReadFrom(r)
	if !errors.Is(err, protocol.ErrIncompletePacket) {
		t.Errorf("got %v; want %v", err, protocol.ErrIncompletePacket)
	}
	if !errors.Is(err, errTransport) {
		t.Errorf("transport error was not wrapped: %v", err)
	}
}

func TestPacket_Decode(t *testing.T) {
	pk := protocol.Packet{
		ID:   0x00,
		Data: []byte{0x80, 0x06, 0x02, 'h', 'i', 0x63, 0xdd},
	}

	var (
		version protocol.VarInt
		addr    protocol.String
		port    protocol.UnsignedShort
	)
	if err := pk.Decode(&version, &addr, &port); err != nil {
		t.Fatal(err)
	}

	if version != 768 || addr != "hi" || port != 25565 {
		t.Errorf("got %d, %q, %d", version, addr, port)
	}

	var next protocol.VarInt
	if err := pk.Decode(&version, &addr, &port, &next); err == nil {
		t.Error("decoding past the end of the data should fail")
	}
}
