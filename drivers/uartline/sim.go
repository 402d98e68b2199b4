package uartline

import "sync"

// SimRegisters is an in-memory UART register file for host builds and tests.
// Writes to DR are handed to OnTransmit; Inject queues bytes in the simulated
// hardware RX FIFO and raises the interrupt handler bound with SetIRQ.
type SimRegisters struct {
	mu   sync.Mutex
	regs map[Reg]uint32
	rx   []byte
	irq  func()

	// TxFull forces FR.TXFF on, for exercising the TX timeout path.
	TxFull bool
	// OnTransmit receives every byte written to DR.
	OnTransmit func(b byte)
}

// NewSimRegisters returns an idle simulated UART.
func NewSimRegisters() *SimRegisters {
	return &SimRegisters{regs: make(map[Reg]uint32)}
}

// SetIRQ binds the function called after Inject (normally Line.HandleInterrupt).
func (s *SimRegisters) SetIRQ(fn func()) {
	s.mu.Lock()
	s.irq = fn
	s.mu.Unlock()
}

// Inject appends p to the hardware RX FIFO and, when the receive interrupt is
// unmasked, runs the bound handler.
func (s *SimRegisters) Inject(p []byte) {
	s.mu.Lock()
	s.rx = append(s.rx, p...)
	irq := s.irq
	armed := s.regs[RegIM]&(intRX|intRT) != 0
	s.mu.Unlock()
	if irq != nil && armed {
		irq()
	}
}

// Pending returns how many bytes sit in the hardware RX FIFO.
func (s *SimRegisters) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rx)
}

func (s *SimRegisters) Load(r Reg) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch r {
	case RegFR:
		var fr uint32
		if len(s.rx) == 0 {
			fr |= frRXFE
		}
		if s.TxFull {
			fr |= frTXFF
		}
		return fr
	case RegDR:
		if len(s.rx) == 0 {
			return 0
		}
		b := s.rx[0]
		s.rx = s.rx[1:]
		return uint32(b)
	}
	return s.regs[r]
}

func (s *SimRegisters) Store(r Reg, v uint32) {
	s.mu.Lock()
	if r == RegDR {
		tx := s.OnTransmit
		s.mu.Unlock()
		if tx != nil {
			tx(byte(v))
		}
		return
	}
	s.regs[r] = v
	s.mu.Unlock()
}
