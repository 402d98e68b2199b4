package sim800h

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
)

// loopPort connects a Session to an Emulator.
type loopPort struct {
	mu  sync.Mutex
	rx  []byte
	emu *Emulator
}

func newLoop() *loopPort {
	l := &loopPort{}
	l.emu = NewEmulator(func(p []byte) {
		l.mu.Lock()
		l.rx = append(l.rx, p...)
		l.mu.Unlock()
	})
	return l
}

func (l *loopPort) ReadByte() (byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.rx) == 0 {
		return 0, errNoData
	}
	b := l.rx[0]
	l.rx = l.rx[1:]
	return b, nil
}

func (l *loopPort) WriteByte(b byte) error { return l.emu.WriteByte(b) }

func TestEmulatorSession(t *testing.T) {
	l := newLoop()
	s := New(l, fastConfig())
	ctx := context.Background()

	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := s.SendText(ctx, "5127431885", "hello"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if msgs := l.emu.Messages(); len(msgs) != 1 || msgs[0] != (SMS{To: "5127431885", Body: "hello"}) {
		t.Fatalf("messages = %+v", msgs)
	}

	if err := s.AnswerCall(ctx); !errors.Is(err, ErrNoCarrier) {
		t.Fatalf("answer without ring: %v", err)
	}
	l.emu.Ring()
	if err := s.AnswerCall(ctx); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if inCall, _, _, _ := l.emu.Snapshot(); !inCall {
		t.Fatal("emulator not in call after ATA")
	}
	if err := s.HangUp(ctx); err != nil {
		t.Fatalf("hangup: %v", err)
	}

	q, err := s.SignalStrength(ctx)
	if err != nil || q.RSSI != 18 {
		t.Fatalf("SignalStrength = %+v, %v", q, err)
	}
	if _, err := s.Exec(ctx, "AT+NOPE"); !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("unknown command: %v", err)
	}
}

func TestEchoIsNotReply(t *testing.T) {
	l := newLoop()
	s := New(l, fastConfig())
	ctx := context.Background()

	resp, err := s.Exec(ctx, "AT+CBC")
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(resp, []byte("AT+CBC")) {
		t.Fatalf("echo left in reply %q", resp)
	}
	b, err := s.BatteryStatus(ctx)
	if err != nil || b.MilliVolt != 4101 {
		t.Fatalf("BatteryStatus with echo = %+v, %v", b, err)
	}

	// Bodies that spell a result code are echoed back before the real reply.
	for _, body := range []string{"NO ERROR today", "OK see you"} {
		if err := s.SendText(ctx, "5127431885", body); err != nil {
			t.Fatalf("SendText(%q): %v", body, err)
		}
	}
	if n := len(l.emu.Messages()); n != 2 {
		t.Fatalf("emulator accepted %d messages", n)
	}
	if q, err := s.SignalStrength(ctx); err != nil || q.RSSI != 18 {
		t.Fatalf("SignalStrength after SMS = %+v, %v", q, err)
	}
}

func TestInitTurnsEchoOff(t *testing.T) {
	l := newLoop()
	s := New(l, fastConfig())
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	l.emu.mu.Lock()
	echo := l.emu.Echo
	l.emu.mu.Unlock()
	if echo {
		t.Fatal("echo still on after Init")
	}
}
