package clock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gsmphone-go/bus"
	"gsmphone-go/drivers/i2cmaster"
	"gsmphone-go/drivers/pcf8523"
	"gsmphone-go/errcode"
	"gsmphone-go/services/errmap"
	"gsmphone-go/services/config"
	"gsmphone-go/types"
)

type fakeRTC struct {
	mu    sync.Mutex
	dt    pcf8523.DateTime
	fails int // remaining failing reads
	reads int
	err   error
	set   time.Time
}

func (f *fakeRTC) ReadDateTime() (pcf8523.DateTime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.fails > 0 {
		f.fails--
		return pcf8523.DateTime{}, f.err
	}
	return pcf8523.FromRegisters(f.dt.Registers())
}

func (f *fakeRTC) WriteDateTime(dt pcf8523.DateTime) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dt = dt
	return nil
}

func (f *fakeRTC) Set(t time.Time) error {
	if y := t.Year(); y < 2000 || y > 2099 {
		return pcf8523.ErrYearRange
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set = t
	f.dt = pcf8523.DateTime{
		Seconds: pcf8523.EncodeBCD(t.Second()),
		Minutes: pcf8523.EncodeBCD(t.Minute()),
		Hours:   pcf8523.EncodeBCD(t.Hour()),
		Date:    pcf8523.EncodeBCD(t.Day()),
		Weekday: uint8(t.Weekday()),
		Month:   pcf8523.EncodeBCD(int(t.Month())),
		Year:    pcf8523.EncodeBCD(t.Year() - 2000),
	}
	return nil
}

var sample = pcf8523.DateTime{Seconds: 0x15, Minutes: 0x31, Hours: 0x16, Date: 0x03, Weekday: 0x02, Month: 0x11, Year: 0x19}

func TestReadRetriesThenSucceeds(t *testing.T) {
	rtc := &fakeRTC{dt: sample, fails: 3, err: i2cmaster.StatusDataNack}
	s := New(rtc, config.ClockConfig{})

	r, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if rtc.reads != 4 {
		t.Fatalf("reads = %d, want 4", rtc.reads)
	}
	if r.Clock != "16:31:15" || r.Calendar != "11/03/19" || r.Day != "Tues" {
		t.Fatalf("reading = %+v", r)
	}
}

func TestReadGivesUpAfterRetries(t *testing.T) {
	rtc := &fakeRTC{fails: 100, err: i2cmaster.StatusAddrNack}
	s := New(rtc, config.ClockConfig{Retries: 2})

	_, err := s.Read(context.Background())
	if errmap.Code(err) != errcode.Nack {
		t.Fatalf("err = %v", err)
	}
	if rtc.reads != 3 {
		t.Fatalf("reads = %d, want 3", rtc.reads)
	}
}

func TestReadBadWeekdayNotRetried(t *testing.T) {
	bad := sample
	bad.Weekday = 9
	rtc := &fakeRTC{dt: bad}
	s := New(rtc, config.ClockConfig{})

	r, err := s.Read(context.Background())
	if !errors.Is(err, pcf8523.ErrWeekdayRange) {
		t.Fatalf("err = %v", err)
	}
	if rtc.reads != 1 || r.Day != "" || r.Clock != "16:31:15" {
		t.Fatalf("reads=%d reading=%+v", rtc.reads, r)
	}
}

func waitReading(t *testing.T, sub *bus.Subscription, pred func(types.ClockReading) bool) types.ClockReading {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case m := <-sub.Channel():
			if r, ok := m.Payload.(types.ClockReading); ok && pred(r) {
				return r
			}
		case <-deadline:
			t.Fatal("timeout waiting for clock reading")
		}
	}
}

func TestServicePublishesAndSets(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("clock")
	user := b.NewConnection("user")
	rtc := &fakeRTC{dt: sample}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = New(rtc, config.ClockConfig{Interval: 20 * time.Millisecond}).Start(ctx, conn)

	now := user.Subscribe(TopicNow)
	waitReading(t, now, func(r types.ClockReading) bool { return r.Clock == "16:31:15" })

	st := user.Subscribe(TopicStatus)
	select {
	case m := <-st.Channel():
		if ps := m.Payload.(types.PeripheralStatus); ps.Link != types.LinkUp {
			t.Fatalf("status = %+v", ps)
		}
	case <-time.After(time.Second):
		t.Fatal("no retained status")
	}

	want := time.Date(2020, time.February, 29, 23, 59, 58, 0, time.UTC)
	rctx, rcancel := context.WithTimeout(ctx, time.Second)
	defer rcancel()
	reply, err := user.RequestWait(rctx, user.NewMessage(TopicSet, types.ClockSet{Unix: want.Unix()}, false))
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	if rp := reply.Payload.(types.Reply); !rp.OK {
		t.Fatalf("reply = %+v", rp)
	}
	r := waitReading(t, now, func(r types.ClockReading) bool { return r.Calendar == "02/29/20" })
	if r.Unix != want.Unix() || r.Day != "Sat" {
		t.Fatalf("reading after set = %+v", r)
	}

	reply, err = user.RequestWait(rctx, user.NewMessage(TopicSet, "noon", false))
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	if rp := reply.Payload.(types.Reply); rp.OK || rp.Error != string(errcode.InvalidPayload) {
		t.Fatalf("bad payload reply = %+v", rp)
	}

	reply, err = user.RequestWait(rctx, user.NewMessage(TopicSet, types.ClockSet{Weekday: 7}, false))
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	if rp := reply.Payload.(types.Reply); rp.Error != string(errcode.OutOfRange) {
		t.Fatalf("bad weekday reply = %+v", rp)
	}

	y1999 := time.Date(1999, time.December, 31, 23, 59, 59, 0, time.UTC).Unix()
	reply, err = user.RequestWait(rctx, user.NewMessage(TopicSet, types.ClockSet{Unix: y1999}, false))
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	if rp := reply.Payload.(types.Reply); rp.Error != string(errcode.OutOfRange) {
		t.Fatalf("1999 reply = %+v", rp)
	}
}

func TestServiceReportsLinkDown(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("clock")
	rtc := &fakeRTC{fails: 1 << 20, err: i2cmaster.ErrTimeout}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = New(rtc, config.ClockConfig{Interval: time.Hour, Retries: 1}).Start(ctx, conn)

	st := conn.Subscribe(TopicStatus)
	select {
	case m := <-st.Channel():
		ps := m.Payload.(types.PeripheralStatus)
		if ps.Link != types.LinkDown || ps.Error != string(errcode.Timeout) {
			t.Fatalf("status = %+v", ps)
		}
	case <-time.After(time.Second):
		t.Fatal("no status published")
	}
}
