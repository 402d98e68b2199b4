// Package platform brings up the phone's board: the modem UART, the modem
// reset line and the I2C bus the RTC sits on. The board is chosen by build
// tag: tm4c123, rp2040/rp2350, or the simulated host board.
package platform

import (
	"gsmphone-go/drivers/sim800h"
	"gsmphone-go/services/config"

	"tinygo.org/x/drivers"
)

// Board is everything the services need from the hardware.
type Board struct {
	Name string

	// Modem is the UART to the SIM800H.
	Modem sim800h.Port
	// ModemReset drives the modem's reset line; nil when not wired.
	ModemReset sim800h.Pin
	// RTC is the I2C bus the PCF8523 is on.
	RTC drivers.I2C

	// Overflows reports bytes dropped by the modem receive FIFO. It may be nil.
	Overflows func() uint32
}

// Open configures the board for cfg. It is safe to call once.
func Open(cfg config.Config) (*Board, error) {
	return open(cfg)
}
