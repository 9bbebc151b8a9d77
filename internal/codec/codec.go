package codec

import "fmt"

// Canonical binary encoding shared by all payloads, persisted state and beacon messages. Equal values always encode
// to equal byte strings, as posted material is hashed into round checkpoints.
//
// Marshaling is written in a panic-on-misuse style; the top-level Marshal(...) and Unmarshal(...) functions recover
// and convert panics into errors.

const IntSize = 4

type Marshaler interface {
	MarshalTo(target Target)
}

type MarshalerWithNilSupport interface {
	Marshaler

	// IsNil returns true if the object is nil.
	IsNil() bool
}

type Unmarshaler[T any] interface {
	UnmarshalFrom(source Source) T
}

type Codec[T any] interface {
	MarshalerWithNilSupport
	Unmarshaler[T]
}

type Target = *target
type Source = *source

// Marshals the given (non-nil) object into a byte slice.
func Marshal(object Marshaler) ([]byte, error) {
	t := &target{}
	if err := t.Marshal(object); err != nil {
		return nil, err
	}
	return t.buffer, nil
}

// Unmarshal decodes data into a new instance of type T using the given unmarshaler. All input bytes must be consumed.
func Unmarshal[T any](data []byte, unmarshaler Unmarshaler[T]) (T, error) {
	return UnmarshalUsing(data, unmarshaler.UnmarshalFrom)
}

// UnmarshalUsing is like Unmarshal, but decoding is implemented by the given function.
func UnmarshalUsing[T any](data []byte, unmarshalFunc func(Source) T) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result, err = zero, fmt.Errorf("recovered panic while unmarshaling: %v", r)
		}
	}()

	src := &source{data}
	result = unmarshalFunc(src)
	if src.Available() > 0 {
		var zero T
		return zero, fmt.Errorf("unmarshaling did not consume all bytes, %d bytes remaining", src.Available())
	}
	return result, nil
}

// Wrapper to read an object of type T from the given source using the provided unmarshaler.
func ReadObject[T any](s Source, u Unmarshaler[T]) T {
	return u.UnmarshalFrom(s)
}

// ReadList reads a length-prefixed list, decoding each element with readElement.
func ReadList[T any](s Source, readElement func(Source) T) []T {
	n := s.ReadNonNegativeInt()
	if n > s.Available() {
		// every element occupies at least one byte, reject absurd lengths before allocating
		panic(fmt.Sprintf("list length %d exceeds remaining input of %d bytes", n, s.Available()))
	}
	result := make([]T, n)
	for i := range result {
		result[i] = readElement(s)
	}
	return result
}

// WriteList writes a length-prefixed list, encoding each element with writeElement.
func WriteList[T any](t Target, list []T, writeElement func(Target, T)) {
	t.WriteInt(len(list))
	for _, e := range list {
		writeElement(t, e)
	}
}
