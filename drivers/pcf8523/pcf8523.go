// Package pcf8523 reads and writes the PCF8523 real-time clock's time/date
// block over I2C.
//
// The seven registers seconds..year are transferred as one block and kept in
// their packed-BCD form in DateTime; decoding is the caller's job (see
// DecodeBCD, EncodeDecimalPair and Device.Now for helpers).
package pcf8523

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

var (
	// ErrWeekdayRange is returned when the weekday register is outside 0..6.
	ErrWeekdayRange = errors.New("pcf8523: weekday out of range")
	// ErrYearRange is returned by Set for years the two-digit year register
	// cannot hold.
	ErrYearRange = errors.New("pcf8523: year outside 2000..2099")
)

var weekdays = [7]string{"Sun", "Mon", "Tues", "Wed", "Thur", "Fri", "Sat"}

// WeekdayName returns the display name for weekday index idx (0 = Sunday).
func WeekdayName(idx uint8) (string, error) {
	if int(idx) >= len(weekdays) {
		return "", ErrWeekdayRange
	}
	return weekdays[idx], nil
}

// DateTime is a snapshot of the time/date registers, in register order.
// Every numeric field is the raw register byte (packed BCD plus any flag
// bits the chip keeps there).
type DateTime struct {
	Seconds uint8
	Minutes uint8
	Hours   uint8
	Date    uint8
	Weekday uint8
	Month   uint8
	Year    uint8

	// Day is the weekday name resolved from Weekday; empty when out of range.
	Day string
}

// Registers returns the block in wire order.
func (dt DateTime) Registers() [BlockLen]byte {
	return [BlockLen]byte{dt.Seconds, dt.Minutes, dt.Hours, dt.Date, dt.Weekday, dt.Month, dt.Year}
}

// FromRegisters maps a wire-order block onto a DateTime and resolves Day.
// The fields are filled even when the weekday is out of range.
func FromRegisters(b [BlockLen]byte) (DateTime, error) {
	dt := DateTime{
		Seconds: b[0],
		Minutes: b[1],
		Hours:   b[2],
		Date:    b[3],
		Weekday: b[4],
		Month:   b[5],
		Year:    b[6],
	}
	day, err := WeekdayName(dt.Weekday)
	dt.Day = day
	return dt, err
}

// Clock formats hours, minutes and seconds as "HH:MM:SS".
func (dt DateTime) Clock() string {
	h, m, s := EncodeDecimalPair(dt.Hours), EncodeDecimalPair(dt.Minutes), EncodeDecimalPair(dt.Seconds)
	return string([]byte{h[0], h[1], ':', m[0], m[1], ':', s[0], s[1]})
}

// Calendar formats month, date and year as "MM/DD/YY".
func (dt DateTime) Calendar() string {
	mo, d, y := EncodeDecimalPair(dt.Month), EncodeDecimalPair(dt.Date), EncodeDecimalPair(dt.Year)
	return string([]byte{mo[0], mo[1], '/', d[0], d[1], '/', y[0], y[1]})
}

// EncodeDecimalPair renders a register byte as two ASCII digits: the tens
// digit from bits 6..4 and the units digit from bits 3..0. Bit 7 is ignored
// so the seconds register's OS flag never leaks into the display.
func EncodeDecimalPair(v uint8) [2]byte {
	return [2]byte{((v >> 4) & 0x07) + '0', (v & 0x0F) + '0'}
}

// DecodeBCD converts a packed-BCD byte to binary.
func DecodeBCD(b uint8) int { return int(b>>4)*10 + int(b&0x0F) }

// EncodeBCD converts 0..99 to packed BCD.
func EncodeBCD(n int) uint8 { return uint8((n/10)<<4 | n%10) }

// Device is a PCF8523 on an I2C bus.
type Device struct {
	bus     drivers.I2C
	Address uint16

	w [1 + BlockLen]byte // reuse buffers to avoid allocations
	r [BlockLen]byte
}

// New creates a Device on an already configured bus. It does not touch the chip.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

// ReadDateTime fetches the seconds..year block in a single transaction.
// A weekday outside 0..6 yields the populated DateTime and ErrWeekdayRange.
func (d *Device) ReadDateTime() (DateTime, error) {
	d.w[0] = TimeBase
	if err := d.bus.Tx(d.Address, d.w[:1], d.r[:]); err != nil {
		return DateTime{}, err
	}
	return FromRegisters(d.r)
}

// WriteDateTime stores dt's seven registers in a single transaction.
// The values are written as given; no BCD validation is done.
func (d *Device) WriteDateTime(dt DateTime) error {
	d.w[0] = TimeBase
	regs := dt.Registers()
	copy(d.w[1:], regs[:])
	return d.bus.Tx(d.Address, d.w[:], nil)
}

func (d *Device) readReg(reg byte) (byte, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.Address, d.w[:1], d.r[:1]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

func (d *Device) writeReg(reg, v byte) error {
	d.w[0] = reg
	d.w[1] = v
	return d.bus.Tx(d.Address, d.w[:2], nil)
}

// LostPower reports whether the oscillator stopped since the time was last
// set (OS flag in the seconds register).
func (d *Device) LostPower() (bool, error) {
	v, err := d.readReg(TimeBase)
	if err != nil {
		return false, err
	}
	return v&secOS != 0, nil
}

// Initialized reports whether the power-management field has been moved off
// its reset default.
func (d *Device) Initialized() (bool, error) {
	v, err := d.readReg(regControl3)
	if err != nil {
		return false, err
	}
	return v&ctl3PMMask != ctl3PMMask, nil
}

// Set programs t (interpreted in its own location, years 2000..2099), makes
// sure the oscillator runs in 24-hour mode and enables battery switch-over.
func (d *Device) Set(t time.Time) error {
	if y := t.Year(); y < 2000 || y > 2099 {
		return ErrYearRange
	}
	c1, err := d.readReg(regControl1)
	if err != nil {
		return err
	}
	if err := d.writeReg(regControl1, c1&ctl1KeepMask&^(ctl1Stop|ctl1Mode12h)); err != nil {
		return err
	}
	wd := uint8(t.Weekday())
	dt := DateTime{
		Seconds: EncodeBCD(t.Second()),
		Minutes: EncodeBCD(t.Minute()),
		Hours:   EncodeBCD(t.Hour()),
		Date:    EncodeBCD(t.Day()),
		Weekday: wd,
		Month:   EncodeBCD(int(t.Month())),
		Year:    EncodeBCD(t.Year() - 2000),
		Day:     weekdays[wd],
	}
	if err := d.WriteDateTime(dt); err != nil {
		return err
	}
	return d.writeReg(regControl3, 0)
}

// Now reads the clock and decodes it into a UTC time.Time.
func (d *Device) Now() (time.Time, error) {
	dt, err := d.ReadDateTime()
	if err != nil && !errors.Is(err, ErrWeekdayRange) {
		return time.Time{}, err
	}
	return dt.Time(), nil
}

// Time decodes the BCD fields into a UTC time.Time, masking flag bits.
func (dt DateTime) Time() time.Time {
	return time.Date(
		2000+DecodeBCD(dt.Year),
		time.Month(DecodeBCD(dt.Month&0x1F)),
		DecodeBCD(dt.Date&0x3F),
		DecodeBCD(dt.Hours&0x3F),
		DecodeBCD(dt.Minutes&0x7F),
		DecodeBCD(dt.Seconds&0x7F),
		0, time.UTC)
}
