package uartline

// Reg is a byte offset into a TM4C123 UART register block.
type Reg uint32

const (
	RegDR   Reg = 0x000 // data
	RegFR   Reg = 0x018 // flags
	RegIBRD Reg = 0x024 // integer baud divisor
	RegFBRD Reg = 0x028 // fractional baud divisor (64ths)
	RegLCRH Reg = 0x02C // line control
	RegCTL  Reg = 0x030 // control
	RegIFLS Reg = 0x034 // interrupt FIFO level select
	RegIM   Reg = 0x038 // interrupt mask
	RegICR  Reg = 0x044 // interrupt clear
)

// Flag register bits.
const (
	frRXFE = 0x10 // receive FIFO empty
	frTXFF = 0x20 // transmit FIFO full
)

// Line control: 8-bit words with FIFOs enabled, no parity, one stop bit.
const (
	lcrhFEN     = 0x10
	lcrhWLEN8   = 0x60
	lcrhWLENFEN = 0x70 // mask of the two fields above
)

// Control register bits.
const (
	ctlUARTEN = 0x001
	ctlTXE    = 0x100
	ctlRXE    = 0x200
)

// Interrupt bits (IM and ICR share the layout).
const (
	intRX = 0x10 // receive FIFO at level
	intRT = 0x40 // receive timeout
)

// ifls selects RX FIFO >= 1/2 full, TX <= 1/8.
const ifls = 0x10

// Registers is the memory-mapped register file of one UART.
// Board code backs it with MMIO; tests and the host board use SimRegisters.
type Registers interface {
	Load(r Reg) uint32
	Store(r Reg, v uint32)
}

// Divisors returns IBRD/FBRD for baud given the UART bus clock, with the
// fractional part rounded to the nearest 64th.
func Divisors(clockHz, baud uint32) (ibrd, fbrd uint32) {
	if baud == 0 {
		return 0, 0
	}
	// 64*clk/(16*baud) = 4*clk/baud, computed at double resolution for rounding.
	x := (uint64(clockHz)*8/uint64(baud) + 1) / 2
	return uint32(x >> 6), uint32(x & 0x3F)
}
