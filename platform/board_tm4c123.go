//go:build tm4c123

package platform

import (
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"gsmphone-go/drivers/i2cmaster"
	"gsmphone-go/drivers/uartline"
	"gsmphone-go/services/config"
)

// Device is the board ID used to pick the embedded config.
const Device = "tm4c123"

// System control and GPIO (APB aperture) addresses.
const (
	rcgcGPIO = 0x400FE608
	rcgcUART = 0x400FE618
	rcgcI2C  = 0x400FE620
	prGPIO   = 0x400FEA08
	prUART   = 0x400FEA18
	prI2C    = 0x400FEA20

	portB = 0x40005000
	portD = 0x40007000
	portE = 0x40024000

	gpioData  = 0x3FC
	gpioDir   = 0x400
	gpioAFSEL = 0x420
	gpioODR   = 0x50C
	gpioDEN   = 0x51C
	gpioPCTL  = 0x52C

	uart5IRQ = 61
)

func reg(addr uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(addr))
}

// enableClock gates a peripheral on and waits for it to be ready.
func enableClock(rcgc, pr uintptr, bit uint32) {
	reg(rcgc).SetBits(bit)
	for !reg(pr).HasBits(bit) {
	}
}

// altFunc routes pins to a peripheral function.
func altFunc(port uintptr, pins uint32, pctl uint32) {
	reg(port + gpioAFSEL).SetBits(pins)
	reg(port + gpioDEN).SetBits(pins)
	mask := uint32(0)
	val := uint32(0)
	for i := 0; i < 8; i++ {
		if pins&(1<<i) != 0 {
			mask |= 0xF << (4 * i)
			val |= pctl << (4 * i)
		}
	}
	reg(port + gpioPCTL).ReplaceBits(val, mask, 0)
}

// resetPin is PD2, the SIM800H reset line.
type resetPin struct{}

func (resetPin) Set(high bool) {
	if high {
		reg(portD + gpioData).SetBits(1 << 2)
	} else {
		reg(portD + gpioData).ClearBits(1 << 2)
	}
}

var modemLine *uartline.Line

func uart5Handler(interrupt.Interrupt) {
	modemLine.HandleInterrupt()
}

func open(cfg config.Config) (*Board, error) {
	// UART5 on PE4 (RX) / PE5 (TX).
	enableClock(rcgcUART, prUART, 1<<5)
	enableClock(rcgcGPIO, prGPIO, 1<<4)
	altFunc(portE, 1<<4|1<<5, 1)

	// I2C0 on PB2 (SCL) / PB3 (SDA, open drain).
	enableClock(rcgcI2C, prI2C, 1<<0)
	enableClock(rcgcGPIO, prGPIO, 1<<1)
	altFunc(portB, 1<<2|1<<3, 3)
	reg(portB + gpioODR).SetBits(1 << 3)

	// Modem reset on PD2, idle high.
	enableClock(rcgcGPIO, prGPIO, 1<<3)
	reg(portD + gpioDir).SetBits(1 << 2)
	reg(portD + gpioDEN).SetBits(1 << 2)
	resetPin{}.Set(true)

	modemLine = uartline.New(uartline.MMIO(uartline.UART5Base), uartline.Config{
		ClockHz: cfg.Modem.BusClockHz,
		Baud:    cfg.Modem.Baud,
	})
	modemLine.Init(cfg.Modem.Baud)
	irq := interrupt.New(uart5IRQ, uart5Handler)
	irq.Enable()

	i2c := i2cmaster.New(i2cmaster.MMIO(i2cmaster.I2C0Base), cfg.RTC.Master())
	i2c.Init()

	return &Board{
		Name:       Device,
		Modem:      modemLine,
		ModemReset: resetPin{},
		RTC:        i2c,
		Overflows:  modemLine.Overflows,
	}, nil
}
