// Package uartline drives one TM4C123 UART as an interrupt-fed serial line:
// transmit is synchronous (spin on TX-full), receive is drained by the RX
// interrupt into a bytefifo.FIFO and consumed by the main loop.
//
//	line := uartline.New(regs, uartline.Config{})
//	line.Init(115200)
//	// from the UART interrupt: line.HandleInterrupt()
//	line.WriteString("AT\r")
//	b, err := line.ReadByte()
package uartline

import (
	"errors"
	"sync/atomic"

	"gsmphone-go/x/bytefifo"
)

// Errors returned by the line.
var (
	ErrEmpty     = errors.New("uartline: rx empty")
	ErrTxTimeout = errors.New("uartline: tx timeout")
)

// Config controls non-register behaviour. All fields are optional.
type Config struct {
	// ClockHz is the UART bus clock. Default 80 MHz.
	ClockHz uint32
	// Baud is used when Init is called with 0. Default 115200.
	Baud uint32
	// TxSpinLimit bounds the TX-full spin per byte. Default 1_000_000 polls.
	TxSpinLimit int
}

// Line is one UART plus its software receive FIFO.
type Line struct {
	regs Registers
	cfg  Config
	rx   *bytefifo.FIFO

	overflows atomic.Uint32
}

// New creates a Line over regs. It does not touch the hardware; call Init.
func New(regs Registers, cfg Config) *Line {
	if cfg.ClockHz == 0 {
		cfg.ClockHz = 80_000_000
	}
	if cfg.Baud == 0 {
		cfg.Baud = 115200
	}
	if cfg.TxSpinLimit <= 0 {
		cfg.TxSpinLimit = 1_000_000
	}
	return &Line{regs: regs, cfg: cfg, rx: bytefifo.New()}
}

// Init programs the baud divisors, 8N1 framing with FIFOs, and the RX and
// RX-timeout interrupts, then enables the UART and resets the software FIFO.
// Enabling the NVIC line and global interrupts is left to the board.
func (l *Line) Init(baud uint32) {
	if baud == 0 {
		baud = l.cfg.Baud
	}
	l.cfg.Baud = baud
	r := l.regs

	r.Store(RegCTL, r.Load(RegCTL)&^ctlUARTEN)
	ibrd, fbrd := Divisors(l.cfg.ClockHz, baud)
	r.Store(RegIBRD, ibrd)
	r.Store(RegFBRD, fbrd)
	r.Store(RegLCRH, (r.Load(RegLCRH)&^lcrhWLENFEN)|lcrhWLEN8|lcrhFEN)
	r.Store(RegIFLS, ifls)
	r.Store(RegIM, r.Load(RegIM)|intRX|intRT)
	r.Store(RegCTL, r.Load(RegCTL)|ctlUARTEN|ctlTXE|ctlRXE)
	r.Store(RegICR, intRX|intRT)

	l.rx.Init()
	l.overflows.Store(0)
}

// Baud returns the configured baud rate.
func (l *Line) Baud() uint32 { return l.cfg.Baud }

// WriteByte spins while the hardware TX FIFO is full, then writes c.
func (l *Line) WriteByte(c byte) error {
	for i := 0; l.regs.Load(RegFR)&frTXFF != 0; i++ {
		if i >= l.cfg.TxSpinLimit {
			return ErrTxTimeout
		}
	}
	l.regs.Store(RegDR, uint32(c))
	return nil
}

// Write writes p byte by byte.
func (l *Line) Write(p []byte) (int, error) {
	for i, c := range p {
		if err := l.WriteByte(c); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// WriteString writes s byte by byte.
func (l *Line) WriteString(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		if err := l.WriteByte(s[i]); err != nil {
			return i, err
		}
	}
	return len(s), nil
}

// HandleInterrupt is the RX interrupt body: it moves every byte waiting in
// the hardware FIFO into the software FIFO and acknowledges the interrupt.
// Bytes that do not fit are dropped and counted. It never blocks.
func (l *Line) HandleInterrupt() {
	r := l.regs
	for r.Load(RegFR)&frRXFE == 0 {
		b := byte(r.Load(RegDR))
		if !l.rx.Put(b) {
			l.overflows.Add(1)
		}
	}
	r.Store(RegICR, intRX|intRT)
}

// ReadByte pops one received byte, or returns ErrEmpty.
func (l *Line) ReadByte() (byte, error) {
	b, ok := l.rx.Get()
	if !ok {
		return 0, ErrEmpty
	}
	return b, nil
}

// Buffered returns how many received bytes are waiting.
func (l *Line) Buffered() int { return l.rx.Len() }

// Drain discards buffered input and returns the number of bytes dropped.
func (l *Line) Drain() int { return l.rx.Drain() }

// Overflows returns how many received bytes were dropped because the
// software FIFO was full.
func (l *Line) Overflows() uint32 { return l.overflows.Load() }
