package uartline

import (
	"errors"
	"testing"
)

func TestDivisors(t *testing.T) {
	cases := []struct {
		clk, baud  uint32
		ibrd, fbrd uint32
	}{
		{80_000_000, 115200, 43, 26},
		{50_000_000, 115200, 27, 8},
		{16_000_000, 9600, 104, 11},
	}
	for _, c := range cases {
		i, f := Divisors(c.clk, c.baud)
		if i != c.ibrd || f != c.fbrd {
			t.Errorf("Divisors(%d,%d) = %d,%d want %d,%d", c.clk, c.baud, i, f, c.ibrd, c.fbrd)
		}
	}
	if i, f := Divisors(80_000_000, 0); i != 0 || f != 0 {
		t.Errorf("Divisors with baud 0 = %d,%d", i, f)
	}
}

func TestInitProgramsRegisters(t *testing.T) {
	sim := NewSimRegisters()
	l := New(sim, Config{})
	l.Init(0)

	if got := sim.Load(RegIBRD); got != 43 {
		t.Errorf("IBRD = %d", got)
	}
	if got := sim.Load(RegFBRD); got != 26 {
		t.Errorf("FBRD = %d", got)
	}
	if got := sim.Load(RegLCRH) & lcrhWLENFEN; got != 0x70 {
		t.Errorf("LCRH = %#x", got)
	}
	if got := sim.Load(RegIM); got&(intRX|intRT) != intRX|intRT {
		t.Errorf("IM = %#x, want RX and RT enabled", got)
	}
	if got := sim.Load(RegCTL); got != ctlUARTEN|ctlTXE|ctlRXE {
		t.Errorf("CTL = %#x", got)
	}
	if l.Baud() != 115200 {
		t.Errorf("Baud = %d", l.Baud())
	}
}

func TestWriteStringTransmitsInOrder(t *testing.T) {
	sim := NewSimRegisters()
	var out []byte
	sim.OnTransmit = func(b byte) { out = append(out, b) }
	l := New(sim, Config{})
	l.Init(115200)

	n, err := l.WriteString("AT\r")
	if err != nil || n != 3 {
		t.Fatalf("WriteString = %d,%v", n, err)
	}
	if string(out) != "AT\r" {
		t.Fatalf("transmitted %q", out)
	}
}

func TestWriteByteTimesOutWhenTxStuck(t *testing.T) {
	sim := NewSimRegisters()
	sim.TxFull = true
	l := New(sim, Config{TxSpinLimit: 10})
	if err := l.WriteByte('A'); !errors.Is(err, ErrTxTimeout) {
		t.Fatalf("WriteByte err = %v, want ErrTxTimeout", err)
	}
	if n, err := l.Write([]byte("xy")); n != 0 || !errors.Is(err, ErrTxTimeout) {
		t.Fatalf("Write = %d,%v", n, err)
	}
}

func TestInterruptDrainsIntoFIFO(t *testing.T) {
	sim := NewSimRegisters()
	l := New(sim, Config{})
	l.Init(115200)
	sim.SetIRQ(l.HandleInterrupt)

	sim.Inject([]byte("\r\nOK\r\n"))
	if sim.Pending() != 0 {
		t.Fatalf("hardware FIFO not drained: %d left", sim.Pending())
	}
	if l.Buffered() != 6 {
		t.Fatalf("Buffered = %d, want 6", l.Buffered())
	}
	var got []byte
	for {
		b, err := l.ReadByte()
		if err != nil {
			if !errors.Is(err, ErrEmpty) {
				t.Fatalf("ReadByte err = %v", err)
			}
			break
		}
		got = append(got, b)
	}
	if string(got) != "\r\nOK\r\n" {
		t.Fatalf("received %q", got)
	}
	if sim.Load(RegICR) != intRX|intRT {
		t.Fatalf("ICR = %#x, interrupt not acknowledged", sim.Load(RegICR))
	}
}

func TestInterruptOverflowDropsAndCounts(t *testing.T) {
	sim := NewSimRegisters()
	l := New(sim, Config{})
	l.Init(115200)
	sim.SetIRQ(l.HandleInterrupt)

	burst := make([]byte, 70)
	for i := range burst {
		burst[i] = byte(i)
	}
	sim.Inject(burst)

	if l.Buffered() != 63 {
		t.Fatalf("Buffered = %d, want 63", l.Buffered())
	}
	if l.Overflows() != 7 {
		t.Fatalf("Overflows = %d, want 7", l.Overflows())
	}
	// The oldest bytes survive; the tail of the burst is lost.
	if b, _ := l.ReadByte(); b != 0 {
		t.Fatalf("first byte = %d", b)
	}
	if n := l.Drain(); n != 62 {
		t.Fatalf("Drain = %d", n)
	}
}

func TestMaskedInterruptDoesNotFire(t *testing.T) {
	sim := NewSimRegisters()
	l := New(sim, Config{})
	sim.SetIRQ(l.HandleInterrupt) // Init not called: IM is zero
	sim.Inject([]byte("x"))
	if l.Buffered() != 0 || sim.Pending() != 1 {
		t.Fatalf("Buffered=%d Pending=%d", l.Buffered(), sim.Pending())
	}
}
