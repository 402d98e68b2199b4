package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

func run(t *testing.T, a *app, in string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(in))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestEmulatedSMS(t *testing.T) {
	a := &app{}
	defer a.close()
	out, err := run(t, a, "", "--emulate", "sms", "--to", "5127431885", "hello", "there")
	if err != nil {
		t.Fatalf("sms: %v", err)
	}
	if !strings.Contains(out, "sent to 5127431885") {
		t.Fatalf("output = %q", out)
	}
	msgs := a.emu.Messages()
	if len(msgs) != 1 || msgs[0].To != "5127431885" || msgs[0].Body != "hello there" {
		t.Fatalf("emulator got %+v", msgs)
	}
}

func TestEmulatedInfo(t *testing.T) {
	a := &app{}
	defer a.close()
	out, err := run(t, a, "", "--emulate", "info")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	for _, want := range []string{
		"sim:     89014103211118510720",
		"signal:  rssi=18 ber=0",
		"battery: 87% 4101mV",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}
}

func TestSMSWithoutRecipient(t *testing.T) {
	a := &app{}
	defer a.close()
	if _, err := run(t, a, "", "--emulate", "sms", "hi"); err == nil {
		t.Fatal("expected an error without a recipient")
	}
}

func TestAnswerWithoutRing(t *testing.T) {
	a := &app{}
	defer a.close()
	_, err := run(t, a, "", "--emulate", "answer")
	if err == nil || !strings.Contains(err.Error(), "no_carrier") {
		t.Fatalf("err = %v, want no_carrier", err)
	}
}

func TestRawCommand(t *testing.T) {
	a := &app{}
	defer a.close()
	out, err := run(t, a, "", "--emulate", "at", "AT+CSQ")
	if err != nil {
		t.Fatalf("at: %v", err)
	}
	if !strings.Contains(out, "+CSQ: 18,0") {
		t.Fatalf("output = %q", out)
	}
	if _, err := run(t, &app{}, "", "--emulate", "at", "ATD123;\rATH"); err == nil {
		t.Fatal("multi-line raw command accepted")
	}
}

func TestLevelArgs(t *testing.T) {
	a := &app{}
	defer a.close()
	if _, err := run(t, a, "", "--emulate", "volume", "loud"); err == nil {
		t.Fatal("non-numeric volume accepted")
	}
	if _, err := run(t, a, "", "--emulate", "volume", "101"); err == nil {
		t.Fatal("volume 101 accepted")
	}
	if _, err := run(t, a, "", "--emulate", "mic", "1", "12"); err != nil {
		t.Fatalf("mic: %v", err)
	}
	if _, _, _, mic := a.emu.Snapshot(); mic[1] != 12 {
		t.Fatalf("mic gain = %v", mic)
	}
}

func TestShellSharesSession(t *testing.T) {
	a := &app{}
	defer a.close()
	script := strings.Join([]string{
		"# comment",
		`sms --to 5551234 "two words"`,
		"dial 5551234",
		"shell",
		`sms --to "unterminated`,
		"hangup",
		"exit",
		"ping",
	}, "\n")
	out, err := run(t, a, script, "--emulate", "shell")
	if err != nil {
		t.Fatalf("shell: %v", err)
	}
	if got := strings.Count(out, "error:"); got != 2 {
		t.Fatalf("want 2 errors (nested shell, bad quoting), got %d:\n%s", got, out)
	}
	if !strings.Contains(out, "dialing 5551234") {
		t.Fatalf("dial output missing:\n%s", out)
	}
	msgs := a.emu.Messages()
	if len(msgs) != 1 || msgs[0].Body != "two words" {
		t.Fatalf("emulator got %+v", msgs)
	}
	if inCall, _, _, _ := a.emu.Snapshot(); inCall {
		t.Fatal("call still up after hangup")
	}
}

func TestConfigPrintsYAML(t *testing.T) {
	out, err := run(t, &app{}, "", "--emulate", "--port", "/dev/ttyACM3", "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	for _, want := range []string{"device: host", "port: /dev/ttyACM3"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}
}

// pipeRW is a serial port backed by a pipe for reads and a buffer for writes.
type pipeRW struct {
	*io.PipeReader
	mu  sync.Mutex
	out bytes.Buffer
}

func (p *pipeRW) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.Write(b)
}

func TestSerialPortPump(t *testing.T) {
	pr, pw := io.Pipe()
	rw := &pipeRW{PipeReader: pr}
	sp := newSerialPort(rw)

	if _, err := sp.ReadByte(); !errors.Is(err, errNoData) {
		t.Fatalf("empty read err = %v", err)
	}
	go func() { _, _ = pw.Write([]byte("OK\r\n")) }()

	var got []byte
	deadline := time.Now().Add(time.Second)
	for len(got) < 4 && time.Now().Before(deadline) {
		if b, err := sp.ReadByte(); err == nil {
			got = append(got, b)
		} else {
			time.Sleep(time.Millisecond)
		}
	}
	if string(got) != "OK\r\n" {
		t.Fatalf("got %q", got)
	}

	if err := sp.WriteByte('A'); err != nil {
		t.Fatal(err)
	}
	rw.mu.Lock()
	written := rw.out.String()
	rw.mu.Unlock()
	if written != "A" {
		t.Fatalf("wrote %q", written)
	}

	if err := sp.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := sp.ReadByte(); err == nil || errors.Is(err, errNoData) {
		t.Fatalf("read after close err = %v", err)
	}
}
