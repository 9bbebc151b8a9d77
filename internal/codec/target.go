package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

type target struct {
	buffer []byte
}

func (t *target) Written() int {
	return len(t.buffer)
}

// Bytes returns the encoded data written so far.
func (t *target) Bytes() []byte {
	return t.buffer
}

// Marshal writes object into this target, recovering panics raised by nested marshalers as errors.
// Use Write(...) to propagate panics instead.
func (t *target) Marshal(object Marshaler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered panic during marshaling: %v", r)
		}
	}()

	t.Write(object)
	return nil
}

// Write the given (non-nil) object into this target.
func (t *target) Write(object Marshaler) {
	if object == nil {
		panic("Write called with nil object")
	}
	object.MarshalTo(t)
}

func (t *target) WriteInt(value int) {
	if value > math.MaxInt32 || value < math.MinInt32 {
		panic(fmt.Sprintf("WriteInt called with value %d, which is out of range of int32", value))
	}
	t.buffer = binary.BigEndian.AppendUint32(t.buffer, uint32(int32(value)))
}

func (t *target) WriteUint64(value uint64) {
	t.buffer = binary.BigEndian.AppendUint64(t.buffer, value)
}

func (t *target) WriteBool(value bool) {
	if value {
		t.buffer = append(t.buffer, 1)
	} else {
		t.buffer = append(t.buffer, 0)
	}
}

func (t *target) WriteBytes(value []byte) {
	t.buffer = append(t.buffer, value...)
}

func (t *target) WriteLengthPrefixedBytes(value []byte) {
	if value == nil {
		t.WriteInt(-1)
		return
	}
	t.WriteInt(len(value))
	t.WriteBytes(value)
}
