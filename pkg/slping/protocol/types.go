package protocol

import (
	"errors"
	"fmt"
	"io"
)

// A Field is both FieldEncoder and FieldDecoder.
type Field interface {
	FieldEncoder
	FieldDecoder
}

// A FieldEncoder can be encoded as minecraft protocol used.
type FieldEncoder io.WriterTo

// A FieldDecoder can Decode from minecraft protocol.
type FieldDecoder io.ReaderFrom

type (
	// Byte is signed 8-bit integer, two's complement.
	Byte int8
	// UnsignedShort is unsigned 16-bit integer.
	UnsignedShort uint16
	// Long is signed 64-bit integer, two's complement.
	Long int64
	// String is a VarInt byte length followed by that many UTF-8 bytes.
	String string

	// VarInt is variable-length data encoding a two's complement signed 32-bit integer.
	VarInt int32
	// VarLong is variable-length data encoding a two's complement signed 64-bit integer.
	VarLong int64
)

const (
	MaxVarIntLen  = 5
	MaxVarLongLen = 10
)

// varNum is the raw bit pattern of a VarInt or VarLong. Shifting it is
// always logical, so negative values never drag their sign bit along.
type varNum interface {
	~uint32 | ~uint64
}

// putVarNum writes num as 7-bit groups into buf and returns the number of
// bytes written. buf must hold at least MaxVarIntLen or MaxVarLongLen bytes.
func putVarNum[T varNum](buf []byte, num T) int {
	i := 0
	for {
		b := byte(num & 0x7F)
		num >>= 7
		if num != 0 {
			b |= 0x80
		}
		buf[i] = b
		i++
		if num == 0 {
			return i
		}
	}
}

func varNumLen[T varNum](num T) int {
	n := 1
	for num >>= 7; num != 0; num >>= 7 {
		n++
	}
	return n
}

// readVarNum reads at most maxLen groups from r. It stops before reading a
// byte past maxLen, so a hostile stream can never make it read forever.
func readVarNum[T varNum](r io.Reader, maxLen int) (T, int64, error) {
	var num T
	var n int64
	for i := 0; ; i++ {
		if i >= maxLen {
			return 0, n, fmt.Errorf("%w: more than %d bytes", ErrMalformedVarInt, maxLen)
		}

		b, err := readByte(r)
		if err != nil {
			if errors.Is(err, io.EOF) && i > 0 {
				err = io.ErrUnexpectedEOF
			}
			return 0, n, err
		}
		n++

		num |= T(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return num, n, nil
		}
	}
}

// readByte reads exactly one byte from r.
func readByte(r io.Reader) (byte, error) {
	if br, ok := r.(io.ByteReader); ok {
		return br.ReadByte()
	}
	var v [1]byte
	if _, err := io.ReadFull(r, v[:]); err != nil {
		return 0, err
	}
	return v[0], nil
}

func (v VarInt) WriteTo(w io.Writer) (int64, error) {
	var vi [MaxVarIntLen]byte
	n := v.WriteToBytes(vi[:])
	nn, err := w.Write(vi[:n])
	return int64(nn), err
}

// WriteToBytes encodes the VarInt into buf and returns the number of bytes written.
// If the buffer is too small, WriteToBytes will panic.
func (v VarInt) WriteToBytes(buf []byte) int {
	return putVarNum(buf, uint32(v))
}

// Bytes returns the encoded form of the VarInt.
func (v VarInt) Bytes() []byte {
	var vi [MaxVarIntLen]byte
	n := v.WriteToBytes(vi[:])
	return vi[:n]
}

func (v *VarInt) ReadFrom(r io.Reader) (int64, error) {
	num, n, err := readVarNum[uint32](r, MaxVarIntLen)
	if err != nil {
		return n, err
	}
	*v = VarInt(num)
	return n, nil
}

// Len returns the number of bytes required to encode the VarInt.
func (v VarInt) Len() int {
	return varNumLen(uint32(v))
}

func (v VarLong) WriteTo(w io.Writer) (int64, error) {
	var vl [MaxVarLongLen]byte
	n := v.WriteToBytes(vl[:])
	nn, err := w.Write(vl[:n])
	return int64(nn), err
}

// WriteToBytes encodes the VarLong into buf and returns the number of bytes written.
// If the buffer is too small, WriteToBytes will panic.
func (v VarLong) WriteToBytes(buf []byte) int {
	return putVarNum(buf, uint64(v))
}

// Bytes returns the encoded form of the VarLong.
func (v VarLong) Bytes() []byte {
	var vl [MaxVarLongLen]byte
	n := v.WriteToBytes(vl[:])
	return vl[:n]
}

func (v *VarLong) ReadFrom(r io.Reader) (int64, error) {
	num, n, err := readVarNum[uint64](r, MaxVarLongLen)
	if err != nil {
		return n, err
	}
	*v = VarLong(num)
	return n, nil
}

// Len returns the number of bytes required to encode the VarLong.
func (v VarLong) Len() int {
	return varNumLen(uint64(v))
}

func (s String) WriteTo(w io.Writer) (int64, error) {
	byteStr := []byte(s)
	n1, err := VarInt(len(byteStr)).WriteTo(w)
	if err != nil {
		return n1, err
	}
	n2, err := w.Write(byteStr)
	return n1 + int64(n2), err
}

// lenReader is implemented by in-memory sources like bytes.Reader.
type lenReader interface {
	Len() int
}

func (s *String) ReadFrom(r io.Reader) (int64, error) {
	var l VarInt // String length

	n, err := l.ReadFrom(r)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return n, fmt.Errorf("%w: string length cut off: %w", ErrMalformedVarInt, err)
		}
		return n, err
	}

	if l < 0 {
		return n, fmt.Errorf("%w: negative length %d", ErrTruncatedString, l)
	}

	if lr, ok := r.(lenReader); ok && lr.Len() < int(l) {
		return n, fmt.Errorf("%w: declared %d bytes, %d available", ErrTruncatedString, l, lr.Len())
	}

	bs := make([]byte, l)
	nn, err := io.ReadFull(r, bs)
	n += int64(nn)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return n, fmt.Errorf("%w: declared %d bytes, got %d", ErrTruncatedString, l, nn)
		}
		return n, err
	}

	*s = String(bs)
	return n, nil
}

func (b Byte) WriteTo(w io.Writer) (int64, error) {
	nn, err := w.Write([]byte{byte(b)})
	return int64(nn), err
}

func (b *Byte) ReadFrom(r io.Reader) (int64, error) {
	v, err := readByte(r)
	if err != nil {
		return 0, err
	}
	*b = Byte(v)
	return 1, nil
}

func (us UnsignedShort) WriteTo(w io.Writer) (int64, error) {
	n := uint16(us)
	nn, err := w.Write([]byte{byte(n >> 8), byte(n)})
	return int64(nn), err
}

func (us *UnsignedShort) ReadFrom(r io.Reader) (int64, error) {
	var bs [2]byte
	nn, err := io.ReadFull(r, bs[:])
	if err != nil {
		return int64(nn), err
	}

	*us = UnsignedShort(uint16(bs[0])<<8 | uint16(bs[1]))
	return int64(nn), nil
}

func (l Long) WriteTo(w io.Writer) (int64, error) {
	n := uint64(l)
	nn, err := w.Write([]byte{
		byte(n >> 56), byte(n >> 48), byte(n >> 40), byte(n >> 32),
		byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n),
	})
	return int64(nn), err
}

func (l *Long) ReadFrom(r io.Reader) (int64, error) {
	var bs [8]byte
	nn, err := io.ReadFull(r, bs[:])
	if err != nil {
		return int64(nn), err
	}

	*l = Long(int64(bs[0])<<56 | int64(bs[1])<<48 | int64(bs[2])<<40 | int64(bs[3])<<32 |
		int64(bs[4])<<24 | int64(bs[5])<<16 | int64(bs[6])<<8 | int64(bs[7]))
	return int64(nn), nil
}
