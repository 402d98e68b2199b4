// Package i2cmaster is a polled, single-transaction I2C master engine for the
// TM4C123 I2C peripheral. Each call runs one complete bus transaction:
// start, address, data phases and stop, polling BUSY between phases and
// checking the acknowledge/error bits after each one. On any error a STOP is
// issued and the Status bitmask is returned; nothing is retried here.
//
// Master implements tinygo.org/x/drivers.I2C, so chip drivers written against
// that interface run on it unchanged.
package i2cmaster

import (
	"errors"

	"tinygo.org/x/drivers"
)

// ErrTimeout is returned when BUSY does not clear within Config.BusyPolls.
var ErrTimeout = errors.New("i2cmaster: busy timeout")

var errNoRegister = errors.New("i2cmaster: write needs a register byte")

// Compile-time conformance with the tinygo driver bus interface.
var _ drivers.I2C = (*Master)(nil)

// Config controls non-register behaviour. All fields are optional.
type Config struct {
	// ClockHz is the peripheral clock. Default 80 MHz.
	ClockHz uint32
	// SpeedHz is the SCL frequency. Default 100 kHz.
	SpeedHz uint32
	// BusyPolls bounds every wait on the BUSY flag. Default 10000 reads.
	BusyPolls int
}

// Master drives one I2C master block.
type Master struct {
	regs Registers
	cfg  Config
	acks int
}

// New creates a Master over regs. Call Init before the first transaction.
func New(regs Registers, cfg Config) *Master {
	if cfg.ClockHz == 0 {
		cfg.ClockHz = 80_000_000
	}
	if cfg.SpeedHz == 0 {
		cfg.SpeedHz = 100_000
	}
	if cfg.BusyPolls <= 0 {
		cfg.BusyPolls = 10000
	}
	return &Master{regs: regs, cfg: cfg}
}

// Init enables the master function and programs the SCL timer.
func (m *Master) Init() {
	m.regs.Store(RegMCR, mcrMFE)
	m.regs.Store(RegMTPR, TimerPeriod(m.cfg.ClockHz, m.cfg.SpeedHz))
}

// Acks returns how many bus phases of the last transaction were acknowledged.
func (m *Master) Acks() int { return m.acks }

// WriteRegister writes one data byte to register reg of slave.
func (m *Master) WriteRegister(slave, reg, data byte) error {
	return m.WriteRegisters(slave, reg, []byte{data})
}

// WriteRegisters streams data to consecutive registers starting at reg.
// STOP is asserted only with the final byte.
func (m *Master) WriteRegisters(slave, reg byte, data []byte) error {
	m.acks = 0
	if err := m.pointer(slave, reg, len(data) == 0); err != nil {
		return err
	}
	for i, b := range data {
		m.regs.Store(RegMDR, uint32(b))
		ctl := uint32(CtlRun)
		if i == len(data)-1 {
			ctl |= CtlStop
		}
		if err := m.phase(ctl); err != nil {
			return err
		}
	}
	return nil
}

// ReadRegister reads one byte from register reg of slave.
func (m *Master) ReadRegister(slave, reg byte) (byte, error) {
	var b [1]byte
	if err := m.ReadRegisters(slave, reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadRegisters fills dst from consecutive registers starting at reg: a
// pointer write followed by a repeated-start read of len(dst) bytes.
func (m *Master) ReadRegisters(slave, reg byte, dst []byte) error {
	m.acks = 0
	if err := m.pointer(slave, reg, len(dst) == 0); err != nil {
		return err
	}
	return m.receive(slave, dst)
}

// Tx performs a write of w followed by a repeated-start read into r.
// w[0] is taken as the register pointer, matching how register-mapped
// chip drivers use drivers.I2C.
func (m *Master) Tx(addr uint16, w, r []byte) error {
	slave := byte(addr)
	switch {
	case len(w) == 0 && len(r) == 0:
		return nil
	case len(w) == 0:
		m.acks = 0
		return m.receive(slave, r)
	case len(r) == 0:
		return m.WriteRegisters(slave, w[0], w[1:])
	case len(w) == 1:
		return m.ReadRegisters(slave, w[0], r)
	default:
		// Pointer plus payload, then read back.
		m.acks = 0
		if err := m.pointer(slave, w[0], false); err != nil {
			return err
		}
		for _, b := range w[1:] {
			m.regs.Store(RegMDR, uint32(b))
			if err := m.phase(CtlRun); err != nil {
				return err
			}
		}
		return m.receive(slave, r)
	}
}

// pointer sends START, the slave address for writing and the register byte.
func (m *Master) pointer(slave, reg byte, stop bool) error {
	if err := m.waitIdle(); err != nil {
		return err
	}
	m.regs.Store(RegMSA, uint32(slave)<<1) // R/S = 0: transmit
	m.regs.Store(RegMDR, uint32(reg))
	ctl := uint32(CtlStart | CtlRun)
	if stop {
		ctl |= CtlStop
	}
	return m.phase(ctl)
}

// receive runs the read phase. Every byte is ACKed; a single-byte read
// asserts START and STOP together, otherwise START rides on the first byte
// and STOP on the last.
func (m *Master) receive(slave byte, dst []byte) error {
	m.regs.Store(RegMSA, uint32(slave)<<1|1) // R/S = 1: receive
	n := len(dst)
	for i := range dst {
		ctl := uint32(CtlRun | CtlAck)
		switch {
		case n == 1:
			ctl |= CtlStart | CtlStop
		case i == 0:
			ctl |= CtlStart
		case i == n-1:
			ctl |= CtlStop
		}
		m.regs.Store(RegMCS, ctl)
		if err := m.waitIdle(); err != nil {
			return err
		}
		dst[i] = byte(m.regs.Load(RegMDR))
		if err := m.check(); err != nil {
			return err
		}
		m.acks++
	}
	return nil
}

// phase issues ctl, waits for the bus and checks the outcome.
func (m *Master) phase(ctl uint32) error {
	m.regs.Store(RegMCS, ctl)
	if err := m.waitIdle(); err != nil {
		return err
	}
	if err := m.check(); err != nil {
		return err
	}
	m.acks++
	return nil
}

func (m *Master) waitIdle() error {
	for i := 0; m.regs.Load(RegMCS)&stBusy != 0; i++ {
		if i >= m.cfg.BusyPolls {
			m.regs.Store(RegMCS, CtlStop)
			return ErrTimeout
		}
	}
	return nil
}

// check returns the error bits of the last phase, releasing the bus first
// when any are set.
func (m *Master) check() error {
	st := Status(m.regs.Load(RegMCS)) & statusMask
	if st == 0 {
		return nil
	}
	m.regs.Store(RegMCS, CtlStop)
	return st
}

// StatusOf extracts the bus Status from an error returned by this package.
// It returns 0 for nil and for errors that carry no bus status.
func StatusOf(err error) Status {
	var st Status
	if errors.As(err, &st) {
		return st
	}
	return 0
}
