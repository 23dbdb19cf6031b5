// Package pipeline provides sample buffering primitives shared by the
// engine's processing stages.
package pipeline

// FIFO is an unsynchronized first-in-first-out buffer of audio samples.
// It is the accumulation buffer between block-sized engine input and
// window-sized vocoder frames, and between resynthesis output and
// caller-sized retrieves. Each FIFO is owned by exactly one channel's
// processing path; callers serialize access.
type FIFO struct {
	data     []float64
	readPos  int
	writePos int
	size     int
}

// NewFIFO creates a FIFO with the given initial capacity. The buffer grows
// automatically when a write would overflow it.
func NewFIFO(capacity int) *FIFO {
	if capacity < 1 {
		capacity = 1
	}

	return &FIFO{data: make([]float64, capacity)}
}

// Len returns the number of buffered samples.
func (f *FIFO) Len() int {
	return f.size
}

// Write appends samples to the buffer, growing it if necessary.
func (f *FIFO) Write(samples []float64) {
	if len(samples) == 0 {
		return
	}

	if f.size+len(samples) > len(f.data) {
		f.grow(f.size + len(samples))
	}

	// May wrap around the end of the backing slice.
	n := copy(f.data[f.writePos:], samples)
	if n < len(samples) {
		copy(f.data, samples[n:])
	}
	f.writePos = (f.writePos + len(samples)) % len(f.data)
	f.size += len(samples)
}

// ReadInto removes up to len(dst) samples into dst and returns the count.
func (f *FIFO) ReadInto(dst []float64) int {
	n := f.PeekInto(dst)
	f.Discard(n)
	return n
}

// PeekInto copies up to len(dst) samples into dst without removing them.
// Returns the number of samples copied.
func (f *FIFO) PeekInto(dst []float64) int {
	n := len(dst)
	if n > f.size {
		n = f.size
	}
	if n <= 0 {
		return 0
	}

	m := copy(dst[:n], f.data[f.readPos:])
	if m < n {
		copy(dst[m:n], f.data)
	}

	return n
}

// Discard removes up to n samples from the front of the buffer and returns
// the number removed.
func (f *FIFO) Discard(n int) int {
	if n > f.size {
		n = f.size
	}
	if n <= 0 {
		return 0
	}

	f.readPos = (f.readPos + n) % len(f.data)
	f.size -= n

	return n
}

// Clear removes all buffered samples.
func (f *FIFO) Clear() {
	f.readPos = 0
	f.writePos = 0
	f.size = 0
}

// grow increases capacity to at least minCapacity, preserving order.
func (f *FIFO) grow(minCapacity int) {
	newCapacity := len(f.data)
	for newCapacity < minCapacity {
		newCapacity *= 2
	}

	newData := make([]float64, newCapacity)
	if f.size > 0 {
		n := copy(newData, f.data[f.readPos:])
		if n < f.size {
			copy(newData[n:], f.data[:f.writePos])
		}
	}

	f.data = newData
	f.readPos = 0
	f.writePos = f.size
}
