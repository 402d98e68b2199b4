//go:build !tm4c123 && !rp2040 && !rp2350

package platform

import (
	"sync"

	"gsmphone-go/drivers/i2cmaster"
	"gsmphone-go/drivers/pcf8523"
	"gsmphone-go/drivers/sim800h"
	"gsmphone-go/drivers/uartline"
	"gsmphone-go/services/config"
)

// Device is the board ID used to pick the embedded config.
const Device = "host"

// HostParts exposes the simulated hardware behind the host board.
type HostParts struct {
	UART  *uartline.SimRegisters
	I2C   *i2cmaster.SimRegisters
	Modem *sim800h.Emulator
	Reset *HostPin
}

// HostPin records the levels driven on a simulated output.
type HostPin struct {
	mu     sync.Mutex
	levels []bool
}

func (p *HostPin) Set(high bool) {
	p.mu.Lock()
	p.levels = append(p.levels, high)
	p.mu.Unlock()
}

// Levels returns the driven levels in order.
func (p *HostPin) Levels() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.levels...)
}

func open(cfg config.Config) (*Board, error) {
	b, _ := OpenHost(cfg)
	return b, nil
}

// OpenHost builds the simulated board: UART5 and I2C0 register files with an
// emulated SIM800H and PCF8523 attached. The RTC starts with its oscillator
// stop flag set, as after a first power-up.
func OpenHost(cfg config.Config) (*Board, *HostParts) {
	uregs := uartline.NewSimRegisters()
	line := uartline.New(uregs, uartline.Config{ClockHz: cfg.Modem.BusClockHz, Baud: cfg.Modem.Baud})
	uregs.SetIRQ(line.HandleInterrupt)
	line.Init(cfg.Modem.Baud)

	emu := sim800h.NewEmulator(uregs.Inject)
	uregs.OnTransmit = func(b byte) { _ = emu.WriteByte(b) }

	iregs := i2cmaster.NewSimRegisters()
	addr := byte(cfg.RTC.Address)
	iregs.AddSlave(addr)
	iregs.Preset(addr, 0x02, 0xE0)
	iregs.Preset(addr, pcf8523.TimeBase, 0x80, 0x00, 0x00, 0x01, 0x06, 0x01, 0x00)
	i2c := i2cmaster.New(iregs, cfg.RTC.Master())
	i2c.Init()

	rst := &HostPin{}
	board := &Board{
		Name:       Device,
		Modem:      line,
		ModemReset: rst,
		RTC:        i2c,
		Overflows:  line.Overflows,
	}
	return board, &HostParts{UART: uregs, I2C: iregs, Modem: emu, Reset: rst}
}

