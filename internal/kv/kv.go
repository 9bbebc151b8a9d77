// Package kv is the participant-local durable store of the DKG: encryption secrets, polynomials, progress markers and
// results, keyed per epoch. Values are encoded with the codec package. Writes are compare-and-set only, so concurrent
// attempts to initialize the same secret can never both succeed.
package kv

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/smartcontractkit/dkgbeacon/internal/codec"
)

// Store is the storage backend. Get returns nil (without error) for absent keys. CompareAndSet stores value iff the
// current value equals expected, where a nil expected value means "absent"; it reports whether the value was stored.
type Store interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	CompareAndSet(ctx context.Context, key []byte, expected []byte, value []byte) (bool, error)
}

const (
	activeEpochKey      = "ActiveEpoch"
	encryptionSecretKey = "EncryptionSecret"
	polynomialKey       = "Polynomial"
	submittedKey        = "Submitted"
	resultKey           = "Result"
)

type StorageKey []byte

// ActiveEpochKey holds the epoch the participant is currently working on.
func ActiveEpochKey() StorageKey {
	return StorageKey(activeEpochKey)
}

func EncryptionSecretKey(epoch uint64) StorageKey {
	return epochKey(epoch, encryptionSecretKey)
}

func PolynomialKey(epoch uint64) StorageKey {
	return epochKey(epoch, polynomialKey)
}

// SubmittedKey marks that the payload of the given round was accepted by the broadcast channel.
func SubmittedKey(epoch uint64, round int) StorageKey {
	key := epochKey(epoch, submittedKey)
	return binary.BigEndian.AppendUint32(key, uint32(round))
}

func ResultKey(epoch uint64) StorageKey {
	return epochKey(epoch, resultKey)
}

func epochKey(epoch uint64, name string) StorageKey {
	key := binary.BigEndian.AppendUint64(nil, epoch)
	key = append(key, '/')
	return append(key, name...)
}

// ReadObject reads and unmarshals an object. If no value exists for the key, the zero value of T and false are
// returned without an error.
func ReadObject[T any](ctx context.Context, store Store, key StorageKey, unmarshaler codec.Unmarshaler[T]) (T, bool, error) {
	var zero T

	data, err := store.Get(ctx, key)
	if err != nil {
		return zero, false, fmt.Errorf("kv.ReadObject, read failed (key: %x): %w", []byte(key), err)
	}
	if data == nil {
		return zero, false, nil
	}

	object, err := codec.Unmarshal(data, unmarshaler)
	if err != nil {
		return zero, false, fmt.Errorf("kv.ReadObject, unmarshaling failed (key: %x): %w", []byte(key), err)
	}
	return object, true, nil
}

// WriteObjectOnce stores the encoding of an object if, and only if, no value exists for the key yet. It reports
// whether the object was stored; a false result means an earlier write won and nothing was changed.
func WriteObjectOnce(ctx context.Context, store Store, key StorageKey, marshaler codec.Marshaler) (bool, error) {
	data, err := codec.Marshal(marshaler)
	if err != nil {
		return false, fmt.Errorf("kv.WriteObjectOnce, marshaling failed (key: %x): %w", []byte(key), err)
	}
	return WriteOnce(ctx, store, key, data)
}

// WriteOnce is WriteObjectOnce for raw values.
func WriteOnce(ctx context.Context, store Store, key StorageKey, data []byte) (bool, error) {
	if data == nil {
		data = []byte{}
	}
	stored, err := store.CompareAndSet(ctx, key, nil, data)
	if err != nil {
		return false, fmt.Errorf("kv.WriteOnce, compare-and-set failed (key: %x): %w", []byte(key), err)
	}
	return stored, nil
}
