package kv

import (
	"context"
	"sync"
	"testing"

	"github.com/smartcontractkit/dkgbeacon/internal/codec"
	"github.com/stretchr/testify/require"
)

type counter int

func (c counter) MarshalTo(t codec.Target)           { t.WriteInt(int(c)) }
func (counter) UnmarshalFrom(s codec.Source) counter { return counter(s.ReadInt()) }

func TestCompareAndSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ok, err := m.CompareAndSet(ctx, []byte("k"), nil, []byte("a"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.CompareAndSet(ctx, []byte("k"), nil, []byte("b"))
	require.NoError(t, err)
	require.False(t, ok, "absent expectation must fail once a value exists")

	ok, err = m.CompareAndSet(ctx, []byte("k"), []byte("a"), []byte("b"))
	require.NoError(t, err)
	require.True(t, ok)

	value, err := m.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("b"), value)

	ok, err = m.CompareAndSet(ctx, []byte("k"), []byte("b"), nil)
	require.NoError(t, err)
	require.True(t, ok)
	value, err = m.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestWriteOnceHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	key := PolynomialKey(1)

	var wg sync.WaitGroup
	wins := make(chan int, 16)
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := WriteObjectOnce(ctx, m, key, counter(i))
			if err == nil && ok {
				wins <- i
			}
		}()
	}
	wg.Wait()
	close(wins)
	require.Len(t, wins, 1)

	winner := <-wins
	stored, found, err := ReadObject(ctx, m, key, counter(0))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, counter(winner), stored)
}

func TestReadObjectOfAbsentKey(t *testing.T) {
	value, found, err := ReadObject(context.Background(), NewMemory(), ResultKey(3), counter(0))
	require.NoError(t, err)
	require.False(t, found)
	require.Zero(t, value)
}

func TestKeysAreEpochScoped(t *testing.T) {
	require.NotEqual(t, EncryptionSecretKey(1), EncryptionSecretKey(2))
	require.NotEqual(t, SubmittedKey(1, 0), SubmittedKey(1, 1))
	require.NotEqual(t, PolynomialKey(1), EncryptionSecretKey(1))
}

func TestClosedStore(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())
	_, err := m.Get(context.Background(), []byte("k"))
	require.ErrorIs(t, err, ErrClosed)
	_, err = m.CompareAndSet(context.Background(), []byte("k"), nil, []byte("v"))
	require.ErrorIs(t, err, ErrClosed)
}
