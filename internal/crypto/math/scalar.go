// Constant time scalar arithmetic over the prime field of a curve's group order, based on filippo.io/bigmod.

package math

import (
	"fmt"
	"io"
	"math/big"

	"filippo.io/bigmod"
	"github.com/smartcontractkit/dkgbeacon/internal/codec"
)

// Scalar is an element of the field Z_q for a group order q. Scalars of different moduli must not be mixed, doing so
// panics. All arithmetic methods mutate and return the receiver, so x.Add(y) computes x = x + y.
type Scalar = *scalar
type Scalars []Scalar

type scalar struct {
	value   *bigmod.Nat
	modulus *Modulus
}

var _ codec.Codec[*scalar] = &scalar{}

// NewScalar returns a zero scalar mod m.
func NewScalar(m *Modulus) Scalar {
	return &scalar{bigmod.NewNat().ExpandFor(&m.value), m}
}

// NewScalarFromString parses a decimal value mod m. Non-constant time, for tests and initialization only.
func NewScalarFromString(value string, m *Modulus) Scalar {
	n, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid scalar value: " + value)
	}
	s, err := NewScalar(m).SetBytes(leftPad(n.Bytes(), m.Size()))
	if err != nil {
		panic("invalid scalar value: " + value + ", error: " + err.Error())
	}
	return s
}

func (x *scalar) IsNil() bool {
	return x == nil
}

// x.Set(y) copies the value of y into x.
func (x *scalar) Set(y Scalar) Scalar {
	requireEqualModulus(x, y)
	copy(x.value.Bits(), y.value.Bits())
	return x
}

// x.SetUint(y) sets x = y. y must be smaller than the modulus.
func (x *scalar) SetUint(y uint) Scalar {
	x.value.SetUint(y).ExpandFor(&x.modulus.value)
	return x
}

// x.SetBytes(y) decodes the canonical big-endian encoding y. On error x is unchanged.
func (x *scalar) SetBytes(y []byte) (Scalar, error) {
	if len(y) != x.modulus.Size() {
		return nil, fmt.Errorf("invalid scalar length %d, expected %d", len(y), x.modulus.Size())
	}
	if _, err := x.value.SetBytes(y, &x.modulus.value); err != nil {
		return nil, err
	}
	return x, nil
}

// x.SetRandom(rand) sets x to a scalar statistically close to uniform in [0, q). Exactly Size()+16 bytes are read,
// so a deterministic reader yields a deterministic scalar. Errors of the reader are returned; x is then undefined.
func (x *scalar) SetRandom(rand io.Reader) (Scalar, error) {
	rngBytes := make([]byte, x.modulus.Size()+16)
	if _, err := io.ReadFull(rand, rngBytes); err != nil {
		return nil, fmt.Errorf("failed to read randomness: %w", err)
	}

	// A modulus of 2^(8·len(rngBytes)) holds the random bytes without reduction.
	largeModBytes := make([]byte, len(rngBytes)+1)
	largeModBytes[0] = 1
	largeMod, err := bigmod.NewModulus(largeModBytes)
	if err != nil {
		return nil, err
	}
	wide, err := bigmod.NewNat().SetBytes(rngBytes, largeMod)
	if err != nil {
		return nil, err
	}
	x.value.Mod(wide, &x.modulus.value)
	return x, nil
}

func (x *scalar) Add(y Scalar) Scalar {
	requireEqualModulus(x, y)
	x.value.Add(y.value, &x.modulus.value)
	return x
}

func (x *scalar) Subtract(y Scalar) Scalar {
	requireEqualModulus(x, y)
	x.value.Sub(y.value, &x.modulus.value)
	return x
}

func (x *scalar) Multiply(y Scalar) Scalar {
	requireEqualModulus(x, y)
	x.value.Mul(y.value, &x.modulus.value)
	return x
}

// x.InverseVarTime() sets x = x⁻¹. Returns false (and leaves x undefined) if x is zero.
func (x *scalar) InverseVarTime() (Scalar, bool) {
	if _, ok := x.value.InverseVarTime(x.value, &x.modulus.value); !ok {
		return nil, false
	}
	return x, true
}

func (x *scalar) IsZero() bool {
	return x.value.IsZero() == 1
}

func (x *scalar) Clone() Scalar {
	return NewScalar(x.modulus).Set(x)
}

// Modulus returns the shared modulus reference; callers must not modify it.
func (x *scalar) Modulus() *Modulus {
	return x.modulus
}

// Bytes returns the canonical fixed-width big-endian encoding of x.
func (x *scalar) Bytes() []byte {
	return x.value.Bytes(&x.modulus.value)
}

func (x *scalar) MarshalTo(target codec.Target) {
	target.WriteBytes(x.Bytes())
}

// UnmarshalFrom reads a canonical encoding into x. The receiver's modulus determines the expected length.
func (x *scalar) UnmarshalFrom(source codec.Source) Scalar {
	if _, err := x.SetBytes(source.ReadBytes(x.modulus.Size())); err != nil {
		panic(err)
	}
	return x
}

func (x *scalar) Equal(y Scalar) bool {
	return x == y || (x.modulus.Equal(y.modulus) && x.value.Equal(y.value) == 1)
}

// String is non-constant time and intended for tests and debugging.
func (x *scalar) String() string {
	return new(big.Int).SetBytes(x.Bytes()).String()
}

func requireEqualModulus(x Scalar, y Scalar) {
	if !x.modulus.Equal(y.modulus) {
		panic("scalars have different moduli")
	}
}

func (ω Scalars) MarshalTo(target codec.Target) {
	for _, ωᵢ := range ω {
		ωᵢ.MarshalTo(target)
	}
}

// ω.Sum() returns the sum of all scalars in ω, or nil for an empty slice.
func (ω Scalars) Sum() Scalar {
	var result Scalar
	for _, ωᵢ := range ω {
		if result == nil {
			result = ωᵢ.Clone()
		} else {
			result.Add(ωᵢ)
		}
	}
	return result
}

func leftPad(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}
