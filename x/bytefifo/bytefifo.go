// Package bytefifo provides the fixed-size receive FIFO shared between a UART
// interrupt handler (producer) and the main loop (consumer).
//
// One slot is always left free so that an empty FIFO (wr == rd) can be told
// apart from a full one ((wr+1)%Size == rd); usable capacity is Size-1.
package bytefifo

import "sync/atomic"

// Size is the number of slots in the backing array.
const Size = 64

// FIFO is a single-producer, single-consumer byte ring.
// Put may run in interrupt context while Get runs in the main loop.
type FIFO struct {
	buf [Size]byte
	wr  atomic.Uint32 // producer cursor, 0..Size-1
	rd  atomic.Uint32 // consumer cursor, 0..Size-1
}

// New returns an empty FIFO.
func New() *FIFO { return &FIFO{} }

// Init resets both cursors, discarding anything buffered.
func (f *FIFO) Init() {
	f.wr.Store(0)
	f.rd.Store(0)
}

// Put appends b. It returns false, and stores nothing, when the FIFO is full.
func (f *FIFO) Put(b byte) bool {
	wr := f.wr.Load()
	next := (wr + 1) % Size
	if next == f.rd.Load() {
		return false
	}
	f.buf[wr] = b    // 1) write data
	f.wr.Store(next) // 2) publish
	return true
}

// Get removes and returns the oldest byte. ok is false when the FIFO is empty.
func (f *FIFO) Get() (b byte, ok bool) {
	rd := f.rd.Load()
	if rd == f.wr.Load() {
		return 0, false
	}
	b = f.buf[rd]
	f.rd.Store((rd + 1) % Size) // release the slot
	return b, true
}

// Len returns the number of buffered bytes.
func (f *FIFO) Len() int {
	wr := f.wr.Load()
	rd := f.rd.Load()
	return int((wr + Size - rd) % Size)
}

// Cap returns the usable capacity (Size-1).
func (f *FIFO) Cap() int { return Size - 1 }

// Drain discards everything currently buffered and returns how many bytes
// were dropped. Consumer side only.
func (f *FIFO) Drain() int {
	n := 0
	for {
		if _, ok := f.Get(); !ok {
			return n
		}
		n++
	}
}
