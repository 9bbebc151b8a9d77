package codec

import (
	"encoding/binary"
	"fmt"
)

// Internal representation for a source of bytes to be unmarshaled. The buffer slice is advanced during reading.
type source struct {
	buffer []byte
}

// NewSource wraps data for reading. The slice is not copied.
func NewSource(data []byte) Source {
	return &source{data}
}

// Available returns the number of bytes that are still available for reading from the source.
func (s *source) Available() int {
	return len(s.buffer)
}

// ReadInt reads a 32-bit signed integer in big-endian byte order.
func (s *source) ReadInt() int {
	b := s.ReadBytes(IntSize)
	return int(int32(binary.BigEndian.Uint32(b)))
}

// ReadNonNegativeInt reads a 32-bit signed integer and panics if it is negative.
func (s *source) ReadNonNegativeInt() int {
	value := s.ReadInt()
	if value < 0 {
		panic(fmt.Sprintf("ReadNonNegativeInt call failed, negative value %d read", value))
	}
	return value
}

// ReadUint64 reads a 64-bit unsigned integer in big-endian byte order.
func (s *source) ReadUint64() uint64 {
	return binary.BigEndian.Uint64(s.ReadBytes(8))
}

// ReadBool reads a single byte boolean. Only 0 and 1 are accepted to keep the encoding canonical.
func (s *source) ReadBool() bool {
	b := s.ReadBytes(1)
	switch b[0] {
	case 0:
		return false
	case 1:
		return true
	default:
		panic(fmt.Sprintf("ReadBool call failed, non-canonical value %d", b[0]))
	}
}

// ReadBytes returns the next length bytes without copying them. The capacity of the result is limited, so appending
// to it never overwrites the source's buffer.
func (s *source) ReadBytes(length int) []byte {
	if length < 0 || len(s.buffer) < length {
		panic(fmt.Sprintf("ReadBytes called with length %d, but only %d bytes available", length, len(s.buffer)))
	}
	value := s.buffer[:length:length]
	s.buffer = s.buffer[length:]
	return value
}

// ReadBytesInto fills buffer from the source.
func (s *source) ReadBytesInto(buffer []byte) {
	copy(buffer, s.ReadBytes(len(buffer)))
}

// ReadLengthPrefixedBytes reads a byte slice prefixed by its 32-bit length. A length of -1 encodes a nil slice.
func (s *source) ReadLengthPrefixedBytes() []byte {
	length := s.ReadInt()
	if length == -1 {
		return nil
	}
	if length < 0 {
		panic("ReadLengthPrefixedBytes call failed, negative length field")
	}
	return s.ReadBytes(length)
}
