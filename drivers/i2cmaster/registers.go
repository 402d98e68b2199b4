package i2cmaster

import "strings"

// Reg is a byte offset into a TM4C123 I2C master register block.
type Reg uint32

const (
	RegMSA  Reg = 0x000 // slave address + R/S bit
	RegMCS  Reg = 0x004 // control (write) / status (read)
	RegMDR  Reg = 0x008 // data
	RegMTPR Reg = 0x00C // timer period
	RegMCR  Reg = 0x020 // configuration
)

// MCS control bits (write).
const (
	CtlRun   = 0x01
	CtlStart = 0x02
	CtlStop  = 0x04
	CtlAck   = 0x08
)

// MCS status bits (read).
const (
	stBusy = 0x01
)

const mcrMFE = 0x10 // master function enable

// Registers is the memory-mapped register file of one I2C master.
type Registers interface {
	Load(r Reg) uint32
	Store(r Reg, v uint32)
}

// Status is the error bitmask read back from MCS after a bus phase.
// Zero means the phase completed and was acknowledged.
type Status uint8

const (
	StatusError    Status = 0x02 // bus error on the last operation
	StatusAddrNack Status = 0x04 // address not acknowledged
	StatusDataNack Status = 0x08 // data not acknowledged
	StatusArbLost  Status = 0x10 // arbitration lost

	statusMask = StatusError | StatusAddrNack | StatusDataNack | StatusArbLost
)

// Has reports whether all bits of flag are set.
func (s Status) Has(flag Status) bool { return s&flag == flag }

// Error implements error so a non-zero Status can be returned directly.
func (s Status) Error() string {
	if s == 0 {
		return "i2c: ok"
	}
	var parts []string
	if s.Has(StatusAddrNack) {
		parts = append(parts, "address nack")
	}
	if s.Has(StatusDataNack) {
		parts = append(parts, "data nack")
	}
	if s.Has(StatusArbLost) {
		parts = append(parts, "arbitration lost")
	}
	if s.Has(StatusError) {
		parts = append(parts, "bus error")
	}
	return "i2c: " + strings.Join(parts, ", ")
}

// TimerPeriod returns the MTPR value for the requested SCL speed:
// SCL period = 2*(1+TPR)*(6+4) clock cycles.
func TimerPeriod(clockHz, speedHz uint32) uint32 {
	if speedHz == 0 {
		return 0
	}
	tpr := clockHz / (20 * speedHz)
	if tpr == 0 {
		return 0
	}
	return tpr - 1
}
