package pcf8523

const (
	// Address is the fixed 7-bit I2C address.
	Address = 0x68

	regControl1 = 0x00
	regControl2 = 0x01
	regControl3 = 0x02
	// TimeBase is the seconds register; the time/date block runs to year.
	TimeBase = 0x03

	// BlockLen is the size of the seconds..year register block.
	BlockLen = 7
)

// Register bits.
const (
	ctl1Stop     = 0x20 // oscillator stopped
	ctl1Mode12h  = 0x08
	ctl1KeepMask = 0x87 // cap_sel and interrupt enables
	ctl3PMMask   = 0xE0 // power management field
	secOS        = 0x80 // oscillator stop flag, seconds register
)
