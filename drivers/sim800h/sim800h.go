// Package sim800h drives a SIM800H GSM modem over a byte-oriented serial
// port using AT commands.
//
// A Session allows a single command in flight. Each command is written as
// "<cmd>\r" and the reply is scanned byte by byte for a final result token
// ("OK", "ERROR", and for call answers "NO CARRIER"). Every wait is bounded
// by a Config timeout and by the caller's context.
//
//	s := sim800h.New(port, sim800h.Config{})
//	if err := s.Init(ctx); err != nil { ... }
//	q, err := s.SignalStrength(ctx)
//
// A Session is not safe for concurrent use.
package sim800h

import (
	"context"
	"errors"
	"io"
	"time"

	"gsmphone-go/x/timex"
)

// Port is the serial line to the modem. ReadByte must not block: any error
// means "nothing buffered right now".
type Port interface {
	io.ByteReader
	io.ByteWriter
}

// Pin drives the modem's active-low reset line.
type Pin interface {
	Set(high bool)
}

// Errors returned by the driver.
var (
	ErrTimeout        = errors.New("sim800h: timeout")
	ErrBusy           = errors.New("sim800h: command in flight")
	ErrState          = errors.New("sim800h: no command awaiting a reply")
	ErrCommandFailed  = errors.New("sim800h: command failed")
	ErrNoCarrier      = errors.New("sim800h: no carrier")
	ErrInvalidNumber  = errors.New("sim800h: invalid phone number")
	ErrInvalidMessage = errors.New("sim800h: invalid message")
	ErrInvalidLevel   = errors.New("sim800h: level out of range")
	ErrParse          = errors.New("sim800h: unexpected response")
)

// State is the command/response state of a Session.
type State uint8

const (
	StateIdle State = iota
	StateCommandSent
	StateAwaitingTerminator
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCommandSent:
		return "command_sent"
	case StateAwaitingTerminator:
		return "awaiting_terminator"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Config controls timing. Zero fields take the defaults noted.
type Config struct {
	// PollInterval is the pause between empty reads. Default 10 ms.
	PollInterval time.Duration
	// ResponseTimeout bounds an ordinary command's wait for OK. Default 2 s.
	ResponseTimeout time.Duration
	// PromptTimeout bounds the wait for the SMS "> " prompt. Default 5 s.
	PromptTimeout time.Duration
	// SubmitTimeout bounds the wait for OK after an SMS body. Default 20 s.
	SubmitTimeout time.Duration
	// CallTimeout bounds AnswerCall and Dial. Default 20 s.
	CallTimeout time.Duration
	// ResetPulse is how long the reset line is held low. Default 100 ms.
	ResetPulse time.Duration
	// BootDelay is the wait after releasing reset before the first command.
	// Zero means no wait.
	BootDelay time.Duration
	// MaxResponse caps the payload kept per reply. Default 256 bytes.
	MaxResponse int
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Millisecond
	}
	if c.ResponseTimeout <= 0 {
		c.ResponseTimeout = 2 * time.Second
	}
	if c.PromptTimeout <= 0 {
		c.PromptTimeout = 5 * time.Second
	}
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = 20 * time.Second
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 20 * time.Second
	}
	if c.ResetPulse <= 0 {
		c.ResetPulse = 100 * time.Millisecond
	}
	if c.MaxResponse <= 0 {
		c.MaxResponse = 256
	}
	return c
}

// Session owns the modem's serial line.
type Session struct {
	port  Port
	reset Pin
	cfg   Config
	state State

	// echo is the last line written; the modem may repeat it back before
	// replying (ATE1, the power-on default).
	echo []byte
}

// New creates a Session on an already configured port. It sends nothing.
func New(port Port, cfg Config) *Session {
	return &Session{port: port, cfg: cfg.withDefaults()}
}

// SetResetPin attaches the reset line used by Init. Without one, Init skips
// the hardware reset.
func (s *Session) SetResetPin(p Pin) { s.reset = p }

// Config returns the effective configuration.
func (s *Session) Config() Config { return s.cfg }

// State reports where the session is in the command/response cycle.
func (s *Session) State() State { return s.state }

// Drain discards everything buffered on the port and returns the count.
func (s *Session) Drain() int {
	n := 0
	for {
		if _, err := s.port.ReadByte(); err != nil {
			return n
		}
		n++
	}
}

// SendCommand writes cmd followed by '\r'. It is rejected with ErrBusy
// while a previous command is still awaiting its reply. After a failed wait
// (StateError) stale input is discarded first.
func (s *Session) SendCommand(cmd string) error {
	return s.send(cmd, '\r')
}

func (s *Session) send(body string, trailer ...byte) error {
	switch s.state {
	case StateIdle:
	case StateError:
		s.Drain()
	default:
		return ErrBusy
	}
	s.state = StateCommandSent
	s.echo = append(append(s.echo[:0], body...), trailer...)
	for i := 0; i < len(body); i++ {
		if err := s.port.WriteByte(body[i]); err != nil {
			s.state = StateError
			return err
		}
	}
	for _, b := range trailer {
		if err := s.port.WriteByte(b); err != nil {
			s.state = StateError
			return err
		}
	}
	s.state = StateAwaitingTerminator
	return nil
}

// AwaitTerminator waits for the reply to the command in flight. On "OK" it
// drains what is left on the line and returns the bytes received before the
// token. "ERROR" yields ErrCommandFailed. Both return the session to Idle.
// Running out of time or context leaves the session in StateError.
func (s *Session) AwaitTerminator(ctx context.Context) ([]byte, error) {
	return s.await(ctx, s.cfg.ResponseTimeout, true, tokOK, tokError)
}

// AwaitCallAnswer is AwaitTerminator for call set-up: "NO CARRIER" is an
// alternative final token reported as ErrNoCarrier.
func (s *Session) AwaitCallAnswer(ctx context.Context) ([]byte, error) {
	return s.await(ctx, s.cfg.CallTimeout, true, tokOK, tokNoCarrier, tokError)
}

// Exec sends cmd and waits for its reply.
func (s *Session) Exec(ctx context.Context, cmd string) ([]byte, error) {
	if err := s.SendCommand(cmd); err != nil {
		return nil, err
	}
	return s.AwaitTerminator(ctx)
}

// awaitPrompt waits for the SMS body prompt. The session stays in
// StateIdle afterwards so the body can be sent as the next write.
func (s *Session) awaitPrompt(ctx context.Context) error {
	_, err := s.await(ctx, s.cfg.PromptTimeout, false, tokPrompt, tokError)
	return err
}

func (s *Session) await(ctx context.Context, timeout time.Duration, drain bool, tokens ...token) ([]byte, error) {
	if s.state != StateAwaitingTerminator {
		return nil, ErrState
	}
	sc := newScanner(s.cfg.MaxResponse, tokens...)
	dl := timex.After(timeout)
	// Leading bytes that repeat what was sent are echo, not reply. An SMS
	// body reading "OK" must not end the wait.
	echo := s.echo
	for {
		for !dl.Expired() {
			b, err := s.port.ReadByte()
			if err != nil {
				break
			}
			if len(echo) > 0 {
				if b == echo[0] {
					echo = echo[1:]
					continue
				}
				echo = nil
			}
			i := sc.feed(b)
			if i < 0 {
				continue
			}
			if drain {
				s.Drain()
			}
			s.state = StateIdle
			return sc.body(i), tokens[i].err
		}
		if dl.Expired() {
			s.state = StateError
			return sc.payload, ErrTimeout
		}
		if err := timex.Sleep(ctx, s.cfg.PollInterval); err != nil {
			s.state = StateError
			return sc.payload, err
		}
	}
}

// Init optionally pulses the reset line, discards boot noise, checks that
// the modem answers "AT" and turns command echo off.
func (s *Session) Init(ctx context.Context) error {
	if s.reset != nil {
		s.reset.Set(true)
		if err := timex.Sleep(ctx, 10*time.Millisecond); err != nil {
			return err
		}
		s.reset.Set(false)
		if err := timex.Sleep(ctx, s.cfg.ResetPulse); err != nil {
			return err
		}
		s.reset.Set(true)
		if err := timex.Sleep(ctx, s.cfg.BootDelay); err != nil {
			return err
		}
	}
	s.Drain()
	s.state = StateIdle
	if _, err := s.Exec(ctx, "AT"); err != nil {
		return err
	}
	_, err := s.Exec(ctx, "ATE0")
	return err
}
