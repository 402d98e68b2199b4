//go:build !tm4c123 && !rp2040 && !rp2350

package platform

import (
	"context"
	"testing"
	"time"

	"gsmphone-go/drivers/pcf8523"
	"gsmphone-go/drivers/sim800h"
	"gsmphone-go/services/config"
)

func TestHostBoardEndToEnd(t *testing.T) {
	cfg, _ := config.EmbeddedConfigLookup("host")
	board, parts := OpenHost(cfg)

	s := sim800h.New(board.Modem, cfg.Modem.Session())
	s.SetResetPin(board.ModemReset)
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("modem Init: %v", err)
	}
	if lv := parts.Reset.Levels(); len(lv) != 3 || lv[1] {
		t.Fatalf("reset levels = %v", lv)
	}
	if err := s.SendText(ctx, "5127431885", "hello"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if msgs := parts.Modem.Messages(); len(msgs) != 1 || msgs[0].To != "5127431885" {
		t.Fatalf("messages = %+v", msgs)
	}
	if board.Overflows() != 0 {
		t.Fatalf("overflows = %d", board.Overflows())
	}

	rtc := pcf8523.New(board.RTC)
	if lost, err := rtc.LostPower(); err != nil || !lost {
		t.Fatalf("LostPower = %v, %v", lost, err)
	}
	want := time.Date(2024, time.March, 9, 8, 7, 6, 0, time.UTC)
	if err := rtc.Set(want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := rtc.Now()
	if err != nil || !got.Equal(want) {
		t.Fatalf("Now = %v, %v", got, err)
	}
	if ok, _ := rtc.Initialized(); !ok {
		t.Fatal("RTC not initialised after Set")
	}
}
