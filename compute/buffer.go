package compute

import (
	"fmt"
	"sync/atomic"
)

// Buffer is a fixed-length device-resident array.
//
// The host never touches the backing storage directly: SetData stages a copy
// and enqueues it, Read enqueues a copy back and waits for it. Kernels access
// the storage through Data while they execute on the device.
type Buffer[T any] struct {
	dev      *Device
	name     string
	data     []T
	released atomic.Bool
}

// NewBuffer allocates a zeroed buffer of n elements.
func NewBuffer[T any](d *Device, name string, n int) *Buffer[T] {
	if n < 0 {
		panic(fmt.Sprintf("compute: buffer %q with negative length %d", name, n))
	}
	d.live.Add(1)
	return &Buffer[T]{
		dev:  d,
		name: name,
		data: make([]T, n),
	}
}

// Name returns the buffer label.
func (b *Buffer[T]) Name() string { return b.name }

// Len returns the element count. A nil or released buffer has length 0.
func (b *Buffer[T]) Len() int {
	if b == nil || b.released.Load() {
		return 0
	}
	return len(b.data)
}

// Data returns the device storage. Only kernels and device-side commands may use it.
func (b *Buffer[T]) Data() []T {
	return b.data
}

// SetData uploads src into the start of the buffer.
// src is copied before SetData returns, so the caller may reuse it immediately.
func (b *Buffer[T]) SetData(src []T) {
	b.mustLive()
	if len(src) > len(b.data) {
		panic(fmt.Sprintf("compute: upload of %d elements into %q of length %d", len(src), b.name, len(b.data)))
	}
	staged := make([]T, len(src))
	copy(staged, src)
	b.dev.Enqueue("upload:"+b.name, func() {
		copy(b.data, staged)
	})
}

// Read copies the buffer into dst once every previously enqueued command has run.
// It blocks the caller; use it for presentation and tests, not inside a frame.
func (b *Buffer[T]) Read(dst []T) int {
	b.mustLive()
	var n int
	b.dev.Enqueue("read:"+b.name, func() {
		n = copy(dst, b.data)
	})
	b.dev.Finish()
	return n
}

// Release frees the buffer. It is safe on nil and already-released buffers.
func (b *Buffer[T]) Release() {
	if b == nil || !b.released.CompareAndSwap(false, true) {
		return
	}
	b.dev.live.Add(-1)
	drop := func() { b.data = nil }
	if b.dev.Closed() {
		drop()
		return
	}
	b.dev.Enqueue("release:"+b.name, drop)
}

// Released reports whether Release has been called.
func (b *Buffer[T]) Released() bool {
	return b == nil || b.released.Load()
}

func (b *Buffer[T]) mustLive() {
	if b == nil || b.released.Load() {
		panic("compute: use of released buffer")
	}
}
