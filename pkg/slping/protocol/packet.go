package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// MaxPacketLength is the largest declared packet length ReadFrom accepts.
// It matches the biggest value a 3-byte VarInt can hold, which is what
// vanilla servers allow for uncompressed packets.
const MaxPacketLength = 0x200000

type Packet struct {
	ID   int32
	Data []byte
}

func (pk Packet) Decode(fields ...FieldDecoder) error {
	r := bytes.NewReader(pk.Data)
	return ScanFields(r, fields...)
}

func ScanFields(r io.Reader, fields ...FieldDecoder) error {
	for i, v := range fields {
		_, err := v.ReadFrom(r)
		if err != nil {
			return fmt.Errorf("scanning packet field[%d] error: %w", i, err)
		}
	}
	return nil
}

func (pk *Packet) Encode(id int32, fields ...FieldEncoder) error {
	buf := bytes.NewBuffer(pk.Data[:0])
	for _, f := range fields {
		if _, err := f.WriteTo(buf); err != nil {
			return err
		}
	}
	pk.ID = id
	pk.Data = buf.Bytes()
	return nil
}

// Len returns the value of the packet's length prefix.
func (pk Packet) Len() int {
	return VarInt(pk.ID).Len() + len(pk.Data)
}

func (pk Packet) WriteTo(w io.Writer) (int64, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer bufferPool.Put(buf)
	buf.Reset()
	buf.Grow(MaxVarIntLen + pk.Len())

	_, _ = VarInt(pk.Len()).WriteTo(buf)
	_, _ = VarInt(pk.ID).WriteTo(buf)
	buf.Write(pk.Data)

	nn, err := w.Write(buf.Bytes())
	return int64(nn), err
}

// Bytes returns the packet as it is sent on the wire.
func (pk Packet) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = pk.WriteTo(&buf)
	return buf.Bytes()
}

func (pk *Packet) ReadFrom(r io.Reader) (int64, error) {
	return pk.ReadFromLimited(r, MaxPacketLength)
}

// ReadFromLimited reads one packet from r. The whole frame is buffered
// before the packet id is decoded, so the id and data never extend past
// the declared length.
func (pk *Packet) ReadFromLimited(r io.Reader, maxLen int) (int64, error) {
	pkLen, n, err := ReadPacketLength(r, maxLen)
	if err != nil {
		return n, err
	}

	nBody, err := pk.ReadBody(r, pkLen)
	return n + nBody, err
}

// ReadPacketLength reads the length prefix of a packet and validates it
// against maxLen.
func ReadPacketLength(r io.Reader, maxLen int) (int, int64, error) {
	var pkLen VarInt
	n, err := pkLen.ReadFrom(r)
	if err != nil {
		if errors.Is(err, ErrMalformedVarInt) {
			return 0, n, err
		}
		return 0, n, fmt.Errorf("%w: reading length: %w", ErrIncompletePacket, err)
	}

	if pkLen < 1 || int(pkLen) > maxLen {
		return 0, n, fmt.Errorf("%w: %d", ErrInvalidPacketLength, pkLen)
	}
	return int(pkLen), n, nil
}

// ReadBody reads the packet id and data of a packet whose length prefix
// was already consumed. Reads are repeated until length bytes arrived;
// a single short read is never taken as the whole frame.
func (pk *Packet) ReadBody(r io.Reader, length int) (int64, error) {
	frame := make([]byte, length)
	nFrame, err := io.ReadFull(r, frame)
	n := int64(nFrame)
	if err != nil {
		return n, fmt.Errorf("%w: got %d of %d bytes: %w", ErrIncompletePacket, nFrame, length, err)
	}

	fr := bytes.NewReader(frame)
	var pkID VarInt
	nID, err := pkID.ReadFrom(fr)
	if err != nil {
		if errors.Is(err, ErrMalformedVarInt) {
			return n, err
		}
		return n, fmt.Errorf("%w: packet id exceeds frame: %w", ErrMalformedVarInt, err)
	}

	pk.ID = int32(pkID)
	pk.Data = frame[nID:]
	return n, nil
}
