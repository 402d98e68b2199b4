// cmd/boardtest/main.go
package main

import (
	"context"
	"fmt"
	"time"

	"gsmphone-go/drivers/pcf8523"
	"gsmphone-go/drivers/sim800h"
	"gsmphone-go/platform"
	"gsmphone-go/services/config"
)

// ---------- Configuration ----------

const (
	stepTimeout = 5 * time.Second
	cycleDelay  = 10 * time.Second

	// Cycles: 0 = loop forever
	cyclesToRun = 1
)

// ---------- Minimal output with a pass/fail tally ----------

type out struct {
	pass, fail int
}

func (o *out) println(a ...any) {
	print(fmt.Sprintln(a...))
}

func (o *out) printf(format string, a ...any) {
	print(fmt.Sprintf(format, a...))
}

func (o *out) check(name string, err error, detail ...any) bool {
	if err != nil {
		o.fail++
		o.printf("[FAIL] %-10s %v\n", name, err)
		return false
	}
	o.pass++
	o.printf("[PASS] %-10s %s\n", name, fmt.Sprint(detail...))
	return true
}

// ---------- Steps ----------

func testRTC(o *out, rtc *pcf8523.Device) {
	ok, err := rtc.Initialized()
	o.check("rtc-init", err, "battery switchover on: ", ok)

	lost, err := rtc.LostPower()
	if o.check("rtc-osc", err, "lost power: ", lost) && lost {
		o.println("        oscillator stop flag set; run phonectl or rtc/set to set the time")
	}

	first, err := rtc.ReadDateTime()
	if !o.check("rtc-read", err, first.Calendar(), " ", first.Clock()) {
		return
	}
	time.Sleep(1100 * time.Millisecond)
	second, err := rtc.ReadDateTime()
	if err == nil && second == first {
		err = fmt.Errorf("time did not advance: %s", second.Clock())
	}
	o.check("rtc-tick", err, second.Clock())
}

func testModem(o *out, s *sim800h.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*stepTimeout)
	defer cancel()
	if !o.check("modem-at", s.Init(ctx)) {
		return
	}

	ctx, cancel = context.WithTimeout(context.Background(), stepTimeout)
	defer cancel()
	id, err := s.SimCardID(ctx)
	o.check("sim-ccid", err, id)

	q, err := s.SignalStrength(ctx)
	if err == nil && q.RSSI == 99 {
		err = fmt.Errorf("no signal (rssi 99)")
	}
	o.check("signal", err, "rssi=", q.RSSI, " ber=", q.BER)

	b, err := s.BatteryStatus(ctx)
	o.check("battery", err, b.Percent, "% ", b.MilliVolt, "mV")
}

// ---------- Main ----------

func main() {
	// Let USB CDC enumerate.
	time.Sleep(2 * time.Second)

	cfg, ok := config.EmbeddedConfigLookup(platform.Device)
	if !ok {
		cfg = config.Default()
	}
	board, err := platform.Open(cfg)
	if err != nil {
		println("[boardtest] board:", err.Error())
		return
	}

	rtc := pcf8523.New(board.RTC)
	rtc.Address = cfg.RTC.Address

	session := sim800h.New(board.Modem, cfg.Modem.Session())
	if board.ModemReset != nil {
		session.SetResetPin(board.ModemReset)
	}

	var o out
	cycle := 0
	for {
		cycle++
		o.println("=== boardtest: cycle ", cycle, " on ", board.Name, " ===")

		testRTC(&o, &rtc)
		testModem(&o, session)
		if board.Overflows != nil {
			var err error
			if n := board.Overflows(); n != 0 {
				err = fmt.Errorf("%d bytes dropped", n)
			}
			o.check("uart-rx", err, "no overruns")
		}

		o.printf("=== %d passed, %d failed ===\n", o.pass, o.fail)
		if cyclesToRun > 0 && cycle >= cyclesToRun {
			o.println("completed ", cycle, " cycles; halting")
			return
		}
		o.pass, o.fail = 0, 0
		time.Sleep(cycleDelay)
	}
}
