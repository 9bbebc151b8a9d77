package math

import (
	"math/big"

	"filippo.io/bigmod"
)

// Modulus is the order of a prime-order group, i.e., the size of the scalar field of a curve.
type Modulus struct {
	value bigmod.Modulus
}

// NewModulus parses a decimal modulus. Non-constant time; intended for package initialization only.
// Panics on invalid input.
func NewModulus(value string) *Modulus {
	n, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid modulus value: " + value)
	}
	m, err := bigmod.NewModulus(n.Bytes())
	if err != nil {
		panic("invalid modulus value: " + value + ", error: " + err.Error())
	}
	return &Modulus{*m}
}

func (m *Modulus) Equal(other *Modulus) bool {
	return m == other || (&m.value).Nat().Equal((&other.value).Nat()) == 1
}

// Size returns the length in bytes of the canonical (big-endian) encoding of a scalar mod m.
func (m *Modulus) Size() int {
	return (&m.value).Size()
}

func (m *Modulus) Bytes() []byte {
	return (&m.value).Nat().Bytes(&m.value)
}
