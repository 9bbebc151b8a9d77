package xof

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigestIsDeterministic(t *testing.T) {
	a := New("test")
	a.WriteInt(7)
	a.WriteBytes([]byte("abc"))
	b := New("test")
	b.WriteInt(7)
	b.WriteBytes([]byte("abc"))
	require.Equal(t, a.Digest(), b.Digest())
	require.Len(t, a.Digest(), DigestLength)
}

func TestDomainSeparation(t *testing.T) {
	a := New("domain-a")
	b := New("domain-b")
	require.NotEqual(t, a.Digest(), b.Digest())
}

func TestTypedInputsDoNotCollide(t *testing.T) {
	a := New("test")
	a.WriteBytes(nil)
	b := New("test")
	b.WriteBytes([]byte{})
	require.NotEqual(t, a.Digest(), b.Digest())

	c := New("test")
	c.WriteString("ab")
	c.WriteString("c")
	d := New("test")
	d.WriteString("a")
	d.WriteString("bc")
	require.NotEqual(t, c.Digest(), d.Digest())
}

func TestResetRestoresInitialState(t *testing.T) {
	h := New("test")
	initial := New("test").Digest()
	h.WriteBool(true)
	require.NotEqual(t, initial, h.Digest())
	h.Reset()
	require.Equal(t, initial, h.Digest())
}

func TestOutputModesAreExclusive(t *testing.T) {
	h := New("test")
	_, _ = h.Read(make([]byte, 8))
	require.Panics(t, func() { h.Digest() })

	g := New("test")
	g.Digest()
	require.Panics(t, func() { g.WriteInt(1) })
}
