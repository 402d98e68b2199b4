// Package modem serialises access to the SIM800H. One worker goroutine takes
// requests from the bus and runs them one at a time, so the single-command
// rule of the AT session holds however many clients publish.
//
// Topics:
//
//	modem/request  control, payload types.ModemRequest
//	modem/result   types.ModemResult for requests without a reply topic
//	modem/state    retained types.ServiceState
package modem

import (
	"context"
	"strings"

	"gsmphone-go/bus"
	"gsmphone-go/drivers/sim800h"
	"gsmphone-go/errcode"
	"gsmphone-go/services/errmap"
	"gsmphone-go/types"
	"gsmphone-go/x/timex"
)

var (
	TopicRequest = bus.T("modem", "request")
	TopicResult  = bus.T("modem", "result")
	TopicState   = bus.T("modem", "state")
)

// Modem is the AT session as the service uses it. *sim800h.Session
// satisfies it.
type Modem interface {
	Init(ctx context.Context) error
	Exec(ctx context.Context, cmd string) ([]byte, error)
	SimCardID(ctx context.Context) (string, error)
	SignalStrength(ctx context.Context) (sim800h.SignalQuality, error)
	BatteryStatus(ctx context.Context) (sim800h.Battery, error)
	SendText(ctx context.Context, phone, msg string) error
	Dial(ctx context.Context, number string) error
	AnswerCall(ctx context.Context) error
	HangUp(ctx context.Context) error
	EnableBuzzer(ctx context.Context) error
	SetSpeakerVolume(ctx context.Context, level int) error
	SetMicGain(ctx context.Context, channel, level int) error
}

// Setup is applied once after Init.
type Setup struct {
	SpeakerVolume int
	MicGain       int
	Buzzer        bool
}

type Service struct {
	m     Modem
	setup Setup
}

func New(m Modem, setup Setup) *Service {
	return &Service{m: m, setup: setup}
}

func (s *Service) publishState(conn *bus.Connection, level, status string) {
	conn.Publish(conn.NewMessage(TopicState, types.ServiceState{Level: level, Status: status, TS: timex.NowMs()}, true))
}

// bringUp initialises the modem and applies the audio setup. Setup failures
// are logged and leave the service degraded rather than stopped.
func (s *Service) bringUp(ctx context.Context, conn *bus.Connection) {
	s.publishState(conn, "starting", "")
	if err := s.m.Init(ctx); err != nil {
		println("Error: modem: init failed:", err.Error())
		s.publishState(conn, "degraded", string(errmap.Code(err)))
		return
	}
	type step struct {
		name string
		run  func() error
	}
	steps := []step{
		{"volume", func() error { return s.m.SetSpeakerVolume(ctx, s.setup.SpeakerVolume) }},
		{"mic", func() error { return s.m.SetMicGain(ctx, 0, s.setup.MicGain) }},
	}
	if s.setup.Buzzer {
		steps = append(steps, step{"buzzer", func() error { return s.m.EnableBuzzer(ctx) }})
	}
	for _, st := range steps {
		if err := st.run(); err != nil {
			println("Warn: modem:", st.name, "setup failed:", err.Error())
			s.publishState(conn, "degraded", string(errmap.Code(err)))
			return
		}
	}
	println("Info: modem ready")
	s.publishState(conn, "ready", "")
}

// Handle runs one request to completion.
func (s *Service) Handle(ctx context.Context, req types.ModemRequest) types.ModemResult {
	res := types.ModemResult{Op: req.Op}
	var err error
	switch req.Op {
	case types.ModemPing:
		_, err = s.m.Exec(ctx, "AT")
	case types.ModemSimID:
		res.SimID, err = s.m.SimCardID(ctx)
	case types.ModemSignal:
		var q sim800h.SignalQuality
		q, err = s.m.SignalStrength(ctx)
		res.RSSI, res.BER = q.RSSI, q.BER
	case types.ModemBattery:
		var b sim800h.Battery
		b, err = s.m.BatteryStatus(ctx)
		res.Charging, res.Percent, res.MilliVolt = b.Charging, b.Percent, b.MilliVolt
	case types.ModemSMS:
		err = s.m.SendText(ctx, req.Number, req.Text)
	case types.ModemDial:
		err = s.m.Dial(ctx, req.Number)
	case types.ModemAnswer:
		err = s.m.AnswerCall(ctx)
	case types.ModemHangUp:
		err = s.m.HangUp(ctx)
	case types.ModemBuzzer:
		err = s.m.EnableBuzzer(ctx)
	case types.ModemVolume:
		err = s.m.SetSpeakerVolume(ctx, req.Level)
	case types.ModemMicGain:
		err = s.m.SetMicGain(ctx, req.Channel, req.Level)
	case types.ModemRaw:
		if !rawAllowed(req.Command) {
			err = errcode.InvalidParams
			break
		}
		var resp []byte
		resp, err = s.m.Exec(ctx, req.Command)
		res.Response = string(resp)
	default:
		err = errcode.Unsupported
	}
	res.TS = timex.NowMs()
	if err != nil {
		res.Error = string(errmap.Code(err))
		return res
	}
	res.OK = true
	return res
}

// rawAllowed accepts a single AT command line.
func rawAllowed(cmd string) bool {
	if len(cmd) < 2 || !strings.EqualFold(cmd[:2], "AT") {
		return false
	}
	return !strings.ContainsAny(cmd, "\r\n\x1a\x1b")
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	reqSub := conn.Subscribe(TopicRequest)
	defer conn.Unsubscribe(reqSub)

	s.bringUp(ctx, conn)
	for {
		select {
		case <-ctx.Done():
			println("Info: modem service stopping")
			s.publishState(conn, "stopped", "")
			return
		case msg, ok := <-reqSub.Channel():
			if !ok {
				return
			}
			var res types.ModemResult
			if req, ok := msg.Payload.(types.ModemRequest); ok {
				res = s.Handle(ctx, req)
			} else {
				res = types.ModemResult{Error: string(errcode.InvalidPayload), TS: timex.NowMs()}
			}
			if !res.OK {
				println("Warn: modem:", string(res.Op), "failed:", res.Error)
			}
			if !conn.Reply(msg, res, false) {
				conn.Publish(conn.NewMessage(TopicResult, res, false))
			}
		}
	}
}

// Start the modem service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
