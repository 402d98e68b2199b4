package config

import "time"

// Per-board settings compiled into the firmware. Key: device ID (same value
// placed in ctx under CtxDeviceKey).
var embeddedConfigs = map[string]func() Config{
	"tm4c123": Default,
	"pico": func() Config {
		c := Default()
		c.Device = "pico"
		c.Modem.BusClockHz = 125_000_000
		c.RTC.BusClockHz = 125_000_000
		return c
	},
	"host": func() Config {
		c := Default()
		c.Device = "host"
		c.Modem.BootDelay = 0
		c.Modem.ResetPulse = time.Millisecond
		c.Clock.Interval = 500 * time.Millisecond
		return c
	},
}
