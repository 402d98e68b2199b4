//go:build tm4c123

package i2cmaster

import (
	"runtime/volatile"
	"unsafe"
)

// I2C0Base is the TM4C123 I2C0 master register block (PB2 SCL, PB3 SDA).
const I2C0Base = 0x40020000

// MMIO backs Registers with the peripheral address space at a block base.
type MMIO uintptr

func (m MMIO) reg(r Reg) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(m) + uintptr(r)))
}

func (m MMIO) Load(r Reg) uint32     { return m.reg(r).Get() }
func (m MMIO) Store(r Reg, v uint32) { m.reg(r).Set(v) }
