package config

import (
	"context"
	"errors"
	"time"

	"gsmphone-go/bus"
	"gsmphone-go/drivers/i2cmaster"
	"gsmphone-go/drivers/sim800h"
	"gsmphone-go/errcode"
)

// -----------------------------------------------------------------------------
// String constants (live in flash, not RAM)
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

// Section topics, each carrying a retained typed payload.
var (
	TopicSerial = bus.T(configPrefix, "serial")
	TopicModem  = bus.T(configPrefix, "modem")
	TopicRTC    = bus.T(configPrefix, "rtc")
	TopicClock  = bus.T(configPrefix, "clock")
)

// -----------------------------------------------------------------------------
// Configuration model
// -----------------------------------------------------------------------------

// Config is the whole phone configuration.
type Config struct {
	Device string       `yaml:"device"`
	Serial SerialConfig `yaml:"serial"`
	Modem  ModemConfig  `yaml:"modem"`
	RTC    RTCConfig    `yaml:"rtc"`
	Clock  ClockConfig  `yaml:"clock"`
}

// SerialConfig names the host-side USB serial adapter wired to the modem.
// The firmware ignores it.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud uint32 `yaml:"baud"`
}

// ModemConfig drives the SIM800H session and its start-up audio settings.
type ModemConfig struct {
	Baud            uint32        `yaml:"baud"`
	BusClockHz      uint32        `yaml:"bus_clock_hz"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	ResponseTimeout time.Duration `yaml:"response_timeout"`
	PromptTimeout   time.Duration `yaml:"prompt_timeout"`
	SubmitTimeout   time.Duration `yaml:"submit_timeout"`
	CallTimeout     time.Duration `yaml:"call_timeout"`
	ResetPulse      time.Duration `yaml:"reset_pulse"`
	BootDelay       time.Duration `yaml:"boot_delay"`
	MaxResponse     int           `yaml:"max_response"`

	SpeakerVolume int    `yaml:"speaker_volume"` // 0..100
	MicGain       int    `yaml:"mic_gain"`       // 0..15
	Buzzer        bool   `yaml:"buzzer"`
	DefaultNumber string `yaml:"default_number"`
}

// RTCConfig drives the I2C master the PCF8523 sits on.
type RTCConfig struct {
	Address    uint16 `yaml:"address"`
	BusClockHz uint32 `yaml:"bus_clock_hz"`
	SpeedHz    uint32 `yaml:"speed_hz"`
	BusyPolls  int    `yaml:"busy_polls"`
}

// ClockConfig drives the clock service.
type ClockConfig struct {
	Interval time.Duration `yaml:"interval"`
	Retries  int           `yaml:"retries"`
}

// Default returns the stock board settings.
func Default() Config {
	return Config{
		Device: "tm4c123",
		Serial: SerialConfig{Port: "/dev/ttyUSB0", Baud: 115200},
		Modem: ModemConfig{
			Baud:            115200,
			BusClockHz:      80_000_000,
			PollInterval:    10 * time.Millisecond,
			ResponseTimeout: 2 * time.Second,
			PromptTimeout:   5 * time.Second,
			SubmitTimeout:   20 * time.Second,
			CallTimeout:     20 * time.Second,
			ResetPulse:      100 * time.Millisecond,
			BootDelay:       3 * time.Second,
			MaxResponse:     256,
			SpeakerVolume:   80,
			MicGain:         10,
			Buzzer:          true,
		},
		RTC: RTCConfig{
			Address:    0x68,
			BusClockHz: 80_000_000,
			SpeedHz:    100_000,
			BusyPolls:  10_000,
		},
		Clock: ClockConfig{Interval: time.Second, Retries: 5},
	}
}

// Session maps the modem section onto the driver config.
func (m ModemConfig) Session() sim800h.Config {
	return sim800h.Config{
		PollInterval:    m.PollInterval,
		ResponseTimeout: m.ResponseTimeout,
		PromptTimeout:   m.PromptTimeout,
		SubmitTimeout:   m.SubmitTimeout,
		CallTimeout:     m.CallTimeout,
		ResetPulse:      m.ResetPulse,
		BootDelay:       m.BootDelay,
		MaxResponse:     m.MaxResponse,
	}
}

// Master maps the RTC section onto the I2C master config.
func (r RTCConfig) Master() i2cmaster.Config {
	return i2cmaster.Config{ClockHz: r.BusClockHz, SpeedHz: r.SpeedHz, BusyPolls: r.BusyPolls}
}

func invalid(msg string) error {
	return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: msg}
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	switch {
	case c.Modem.Baud == 0:
		return invalid("modem.baud must be set")
	case c.Modem.SpeakerVolume < 0 || c.Modem.SpeakerVolume > 100:
		return invalid("modem.speaker_volume must be 0..100")
	case c.Modem.MicGain < 0 || c.Modem.MicGain > 15:
		return invalid("modem.mic_gain must be 0..15")
	case c.Modem.MaxResponse < 0:
		return invalid("modem.max_response must not be negative")
	case c.RTC.Address == 0 || c.RTC.Address > 0x7F:
		return invalid("rtc.address must be a 7-bit address")
	case c.RTC.SpeedHz == 0 || c.RTC.SpeedHz > 400_000:
		return invalid("rtc.speed_hz must be 1..400000")
	case c.RTC.BusClockHz < 20*c.RTC.SpeedHz:
		return invalid("rtc.bus_clock_hz too low for rtc.speed_hz")
	case c.Clock.Interval < 100*time.Millisecond:
		return invalid("clock.interval must be at least 100ms")
	case c.Clock.Retries < 0 || c.Clock.Retries > 20:
		return invalid("clock.retries must be 0..20")
	}
	if n := c.Modem.DefaultNumber; n != "" && !phoneNumber(n) {
		return invalid("modem.default_number is not a phone number")
	}
	return nil
}

func phoneNumber(n string) bool {
	if n[0] == '+' {
		n = n[1:]
	}
	if n == "" {
		return false
	}
	for i := 0; i < len(n); i++ {
		if n[i] < '0' || n[i] > '9' {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) (Config, bool) {
	f, ok := embeddedConfigs[device]
	if !ok {
		return Config{}, false
	}
	return f(), true
}

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig resolves the device config and publishes each section as a
// retained message.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}

	cfg, ok := EmbeddedConfigLookup(device)
	if !ok {
		return errors.New("no embedded config for device: " + device)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	conn.Publish(conn.NewMessage(TopicSerial, cfg.Serial, true))
	conn.Publish(conn.NewMessage(TopicModem, cfg.Modem, true))
	conn.Publish(conn.NewMessage(TopicRTC, cfg.RTC, true))
	conn.Publish(conn.NewMessage(TopicClock, cfg.Clock, true))
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("Error: config:", err.Error())
		}
	}()
}
