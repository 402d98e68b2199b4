package main

import (
	"context"
	"time"

	"gsmphone-go/bus"
	"gsmphone-go/drivers/pcf8523"
	"gsmphone-go/drivers/sim800h"
	"gsmphone-go/platform"
	"gsmphone-go/services/clock"
	"gsmphone-go/services/config"
	"gsmphone-go/services/modem"
	"gsmphone-go/types"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot", platform.Device)

	cfg, ok := config.EmbeddedConfigLookup(platform.Device)
	if !ok {
		cfg = config.Default()
	}
	board, err := platform.Open(cfg)
	if err != nil {
		println("Error: board:", err.Error())
		return
	}

	b := bus.NewBus(8)
	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, platform.Device)
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	rtc := pcf8523.New(board.RTC)
	rtc.Address = cfg.RTC.Address
	if lost, err := rtc.LostPower(); err != nil {
		println("Error: rtc:", err.Error())
	} else if lost {
		println("Warn: rtc oscillator stopped since last set; time is not valid")
	}
	_ = clock.New(&rtc, cfg.Clock).Start(ctx, b.NewConnection("clock"))

	session := sim800h.New(board.Modem, cfg.Modem.Session())
	if board.ModemReset != nil {
		session.SetResetPin(board.ModemReset)
	}
	_ = modem.New(session, modem.Setup{
		SpeakerVolume: cfg.Modem.SpeakerVolume,
		MicGain:       cfg.Modem.MicGain,
		Buzzer:        cfg.Modem.Buzzer,
	}).Start(ctx, b.NewConnection("modem"))

	// The display is not part of this firmware; log what it would show.
	ui := b.NewConnection("ui")
	now := ui.Subscribe(clock.TopicNow)
	state := ui.Subscribe(modem.TopicState)

	stats := time.NewTicker(10 * time.Second)
	defer stats.Stop()
	var dropped uint32

	for {
		select {
		case m := <-now.Channel():
			if r, ok := m.Payload.(types.ClockReading); ok {
				println("Info:", r.Day, r.Calendar, r.Clock)
			}
		case m := <-state.Channel():
			if st, ok := m.Payload.(types.ServiceState); ok {
				println("Info: modem", st.Level, st.Status)
			}
		case <-stats.C:
			if board.Overflows == nil {
				continue
			}
			if n := board.Overflows(); n != dropped {
				println("Warn: modem rx dropped", n-dropped, "bytes")
				dropped = n
			}
		}
	}
}
