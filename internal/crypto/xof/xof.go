// Package xof implements a domain-separated hash on top of the SHAKE256 extendable output function. Every input is
// tagged with its type and length, so distinct argument sequences never collide.
package xof

import (
	"crypto/sha3"
	"encoding/binary"
	"io"

	"github.com/smartcontractkit/dkgbeacon/internal/codec"
)

type argType byte

const (
	_ argType = iota
	argTypeNil
	argTypeFalse
	argTypeTrue
	argTypeInt
	argTypeBytes
	argTypeString
	argTypeObject
)

// DigestLength is the length of Digest() in bytes.
const DigestLength = 32

// XOF absorbs typed inputs, then squeezes either a fixed digest or an unbounded stream. The two output modes are
// mutually exclusive for a given state.
type XOF struct {
	dst      string
	shake    *sha3.SHAKE
	digest   []byte
	squeezed bool
}

var _ io.Reader = &XOF{}

// New returns a XOF with the domain separation tag dst already absorbed.
func New(dst string) *XOF {
	h := &XOF{dst: dst, shake: sha3.NewSHAKE256()}
	h.WriteString(dst)
	return h
}

func (h *XOF) tag(t argType) {
	if h.squeezed || h.digest != nil {
		panic("xof: write after output")
	}
	_, _ = h.shake.Write([]byte{byte(t)})
}

func (h *XOF) length(n int) {
	_ = binary.Write(h.shake, binary.BigEndian, uint64(n))
}

func (h *XOF) WriteBool(value bool) {
	if value {
		h.tag(argTypeTrue)
	} else {
		h.tag(argTypeFalse)
	}
}

func (h *XOF) WriteInt(value int) {
	h.WriteUint64(uint64(value))
}

func (h *XOF) WriteUint64(value uint64) {
	h.tag(argTypeInt)
	_ = binary.Write(h.shake, binary.BigEndian, value)
}

// WriteBytes absorbs data; nil and empty slices are distinguished.
func (h *XOF) WriteBytes(data []byte) {
	if data == nil {
		h.tag(argTypeNil)
		return
	}
	h.tag(argTypeBytes)
	h.length(len(data))
	_, _ = h.shake.Write(data)
}

func (h *XOF) WriteString(str string) {
	h.tag(argTypeString)
	h.length(len(str))
	_, _ = h.shake.Write([]byte(str))
}

// WriteObject absorbs the canonical encoding of obj.
func (h *XOF) WriteObject(obj codec.Marshaler) {
	data, err := codec.Marshal(obj)
	if err != nil {
		panic("xof: failed to encode object: " + err.Error())
	}
	h.tag(argTypeObject)
	h.length(len(data))
	_, _ = h.shake.Write(data)
}

// Read squeezes output from the XOF. It never returns an error. Consecutive calls continue the same stream.
func (h *XOF) Read(out []byte) (int, error) {
	if h.digest != nil {
		panic("xof: Read after Digest")
	}
	h.squeezed = true
	return h.shake.Read(out)
}

// Digest returns the first DigestLength bytes of output. Repeated calls return the same value.
func (h *XOF) Digest() []byte {
	if h.squeezed {
		panic("xof: Digest after Read")
	}
	if h.digest == nil {
		h.digest = make([]byte, DigestLength)
		_, _ = h.shake.Read(h.digest)
	}
	return append([]byte(nil), h.digest...)
}

// Reset restores the state right after New, with the domain separation tag absorbed again.
func (h *XOF) Reset() {
	h.shake.Reset()
	h.digest = nil
	h.squeezed = false
	h.WriteString(h.dst)
}
