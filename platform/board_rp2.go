//go:build rp2040 || rp2350

package platform

import (
	"machine"

	"gsmphone-go/services/config"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// Device is the board ID used to pick the embedded config.
const Device = "pico"

// Modem reset on GP2; UART0 on the default GP0/GP1 pins; RTC on I2C0.
const modemResetPin = machine.GP2

func open(cfg config.Config) (*Board, error) {
	u := uartx.UART0
	if err := u.Configure(uartx.UARTConfig{
		BaudRate: cfg.Modem.Baud,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	}); err != nil {
		return nil, err
	}

	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		Frequency: cfg.RTC.SpeedHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	}); err != nil {
		return nil, err
	}

	rst := modemResetPin
	rst.Configure(machine.PinConfig{Mode: machine.PinOutput})
	rst.High()

	return &Board{
		Name:       Device,
		Modem:      u,
		ModemReset: rst,
		RTC:        i2c,
	}, nil
}
