// Package secure provides locked, zeroable buffers for key material.
// Seed bytes and private keys live in these buffers so they stay out of
// swap where the platform allows it and are wiped when released.
package secure

import (
	"runtime"
	"sync"
)

// Buffer wraps a sensitive byte slice with mlock-backed storage and
// explicit zeroing.
type Buffer struct {
	data   []byte
	locked bool
	mu     sync.Mutex
}

// NewBuffer allocates a Buffer of the given size.
// The memory is locked if the system supports it.
func NewBuffer(size int) *Buffer {
	data := make([]byte, size)

	b := &Buffer{
		data:   data,
		locked: mlock(data),
	}

	// Wipe even if Destroy is never called.
	runtime.SetFinalizer(b, func(b *Buffer) {
		b.Destroy()
	})

	return b
}

// FromBytes copies data into a new Buffer and zeroes the source slice.
// The caller's copy is unusable afterwards; the Buffer owns the only copy.
func FromBytes(data []byte) *Buffer {
	b := NewBuffer(len(data))
	copy(b.data, data)
	Zero(data)
	return b
}

// Bytes returns the underlying byte slice, or nil after Destroy.
// Callers must not retain the slice beyond the Buffer's lifetime.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

// Locked reports whether the memory is mlocked.
func (b *Buffer) Locked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// Len returns the length of the data, 0 after Destroy.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Destroy zeroes the memory and unlocks it. Safe to call multiple times.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data == nil {
		return
	}

	Zero(b.data)

	if b.locked {
		munlock(b.data)
		b.locked = false
	}

	b.data = nil

	runtime.SetFinalizer(b, nil)
}

// Zero overwrites a byte slice with zeroes.
func Zero(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
