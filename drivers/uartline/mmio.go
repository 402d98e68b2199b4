//go:build tm4c123

package uartline

import (
	"runtime/volatile"
	"unsafe"
)

// UART5Base is the TM4C123 UART5 register block (PE4/PE5).
const UART5Base = 0x40011000

// MMIO backs Registers with the peripheral address space at a block base.
type MMIO uintptr

func (m MMIO) reg(r Reg) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(m) + uintptr(r)))
}

func (m MMIO) Load(r Reg) uint32     { return m.reg(r).Get() }
func (m MMIO) Store(r Reg, v uint32) { m.reg(r).Set(v) }
