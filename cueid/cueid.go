// SPDX-License-Identifier: EPL-2.0

// Package cueid provides a fixed-size cue identifier.
//
// Cue ids travel through the lock-free command queue and are compared on the
// render path, so they are stored inline as a byte array instead of a string.
// Building an ID from a string happens on a control thread; comparing,
// copying and using an ID as a map key never allocates.
package cueid

import (
	"encoding/binary"
	"sync/atomic"
)

// MaxLen is the longest cue id accepted, in bytes.
const MaxLen = 63

// ID is a cue identifier of at most MaxLen bytes. The zero value is the empty
// id, which never names a cue.
type ID struct {
	n uint8
	b [MaxLen]byte
}

// New validates s and returns it as an ID.
func New(s string) (ID, error) {
	var id ID
	if len(s) == 0 {
		return id, ErrEmpty
	}
	if len(s) > MaxLen {
		return id, ErrTooLong
	}

	id.n = uint8(len(s))
	copy(id.b[:], s)

	return id, nil
}

// Must is like New but panics on an invalid id. Intended for tests and
// constants.
func Must(s string) ID {
	id, err := New(s)
	if err != nil {
		panic("cueid: " + err.Error() + ": " + s)
	}

	return id
}

// String returns the id as a string. It allocates.
func (id ID) String() string { return string(id.b[:id.n]) }

// Len is the id length in bytes.
func (id ID) Len() int { return int(id.n) }

// IsZero reports whether id is the empty id.
func (id ID) IsZero() bool { return id.n == 0 }

// words packs the id into eight little-endian machine words: the length in
// the first byte followed by the id bytes.
func (id ID) words() (w [8]uint64) {
	var raw [64]byte
	raw[0] = id.n
	copy(raw[1:], id.b[:])
	for i := range w {
		w[i] = binary.LittleEndian.Uint64(raw[i*8:])
	}

	return w
}

func fromWords(w [8]uint64) ID {
	var raw [64]byte
	for i := range w {
		binary.LittleEndian.PutUint64(raw[i*8:], w[i])
	}

	var id ID
	id.n = min(raw[0], MaxLen)
	copy(id.b[:], raw[1:])

	return id
}

// Atomic holds an ID that one goroutine stores and others load without
// locking. Each word is individually atomic; a load racing a store may
// observe a mix of both ids, so callers that need a consistent view guard
// it with a sequence counter.
type Atomic struct {
	w [8]atomic.Uint64
}

// Store publishes id.
func (a *Atomic) Store(id ID) {
	w := id.words()
	for i := range w {
		a.w[i].Store(w[i])
	}
}

// Load returns the last published id.
func (a *Atomic) Load() ID {
	var w [8]uint64
	for i := range w {
		w[i] = a.w[i].Load()
	}

	return fromWords(w)
}
