package bytefifo

import (
	"sync"
	"testing"
)

func TestEmptyGetFails(t *testing.T) {
	f := New()
	if b, ok := f.Get(); ok {
		t.Fatalf("Get on empty FIFO returned %d, true", b)
	}
	if f.Len() != 0 {
		t.Fatalf("Len = %d, want 0", f.Len())
	}
}

func TestCapacityIsSizeMinusOne(t *testing.T) {
	f := New()
	if f.Cap() != 63 {
		t.Fatalf("Cap = %d, want 63", f.Cap())
	}
	for i := 0; i < 63; i++ {
		if !f.Put(byte(i)) {
			t.Fatalf("Put #%d failed before reaching capacity", i)
		}
	}
	if f.Put(0xFF) {
		t.Fatal("Put on full FIFO succeeded")
	}
	if f.Len() != 63 {
		t.Fatalf("Len = %d, want 63", f.Len())
	}
	// Contents must be untouched by the rejected Put.
	for i := 0; i < 63; i++ {
		b, ok := f.Get()
		if !ok || b != byte(i) {
			t.Fatalf("Get #%d = %d,%v want %d,true", i, b, ok, i)
		}
	}
	if _, ok := f.Get(); ok {
		t.Fatal("FIFO should be empty after draining")
	}
}

func TestOrderAcrossWrap(t *testing.T) {
	f := New()
	const N = 2000
	next := 0
	want := 0
	for want < N {
		// Producer: push a burst of up to 7 bytes.
		for k := 0; k < 7 && next < N; k++ {
			if !f.Put(byte(next)) {
				break
			}
			next++
		}
		// Consumer: pop up to 5 bytes.
		for k := 0; k < 5; k++ {
			b, ok := f.Get()
			if !ok {
				break
			}
			if b != byte(want) {
				t.Fatalf("mismatch at %d: got=%d want=%d", want, b, byte(want))
			}
			want++
		}
	}
}

func TestInitDiscards(t *testing.T) {
	f := New()
	f.Put('a')
	f.Put('b')
	f.Init()
	if _, ok := f.Get(); ok {
		t.Fatal("Init did not discard buffered bytes")
	}
	f.Put('c')
	if n := f.Drain(); n != 1 {
		t.Fatalf("Drain = %d, want 1", n)
	}
}

func TestConcurrentProducerConsumer(t *testing.T) {
	f := New()
	const N = 10000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < N; {
			if f.Put(byte(i)) {
				i++
			}
		}
	}()
	for i := 0; i < N; {
		b, ok := f.Get()
		if !ok {
			continue
		}
		if b != byte(i) {
			t.Fatalf("mismatch at %d: got=%d", i, b)
		}
		i++
	}
	wg.Wait()
}
