// Package clock polls the PCF8523 and publishes the current date and time
// on the bus. It also applies clock-set requests.
//
// Topics:
//
//	rtc/now     retained types.ClockReading, refreshed every interval
//	rtc/status  retained types.PeripheralStatus
//	rtc/set     control, payload types.ClockSet, answered with types.Reply
//	config/clock  retained config.ClockConfig, changes interval and retries
package clock

import (
	"context"
	"errors"
	"time"

	"gsmphone-go/bus"
	"gsmphone-go/drivers/pcf8523"
	"gsmphone-go/errcode"
	"gsmphone-go/services/config"
	"gsmphone-go/services/errmap"
	"gsmphone-go/types"
	"gsmphone-go/x/timex"
)

var (
	TopicNow    = bus.T("rtc", "now")
	TopicStatus = bus.T("rtc", "status")
	TopicSet    = bus.T("rtc", "set")
)

// RTC is the clock chip as the service uses it. *pcf8523.Device satisfies it.
type RTC interface {
	ReadDateTime() (pcf8523.DateTime, error)
	WriteDateTime(pcf8523.DateTime) error
	Set(time.Time) error
}

// retryPause separates attempts of one read.
const retryPause = 5 * time.Millisecond

type Service struct {
	rtc      RTC
	interval time.Duration
	retries  int

	link types.Link
}

// New creates the service; cfg zero fields take the stock values.
func New(rtc RTC, cfg config.ClockConfig) *Service {
	s := &Service{rtc: rtc}
	s.apply(cfg)
	return s
}

func (s *Service) apply(cfg config.ClockConfig) {
	def := config.Default().Clock
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Retries <= 0 {
		cfg.Retries = def.Retries
	}
	s.interval, s.retries = cfg.Interval, cfg.Retries
}

// Read fetches the time/date block, retrying bus failures up to the
// configured count. An out-of-range weekday is not retried: the reading is
// returned with an empty Day alongside the error.
func (s *Service) Read(ctx context.Context) (types.ClockReading, error) {
	var (
		dt  pcf8523.DateTime
		err error
	)
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			if e := timex.Sleep(ctx, retryPause); e != nil {
				return types.ClockReading{}, e
			}
		}
		dt, err = s.rtc.ReadDateTime()
		if err == nil || errors.Is(err, pcf8523.ErrWeekdayRange) {
			break
		}
	}
	if err != nil && !errors.Is(err, pcf8523.ErrWeekdayRange) {
		return types.ClockReading{}, err
	}
	return reading(dt), err
}

func reading(dt pcf8523.DateTime) types.ClockReading {
	return types.ClockReading{
		Seconds:  dt.Seconds,
		Minutes:  dt.Minutes,
		Hours:    dt.Hours,
		Date:     dt.Date,
		Weekday:  dt.Weekday,
		Month:    dt.Month,
		Year:     dt.Year,
		Day:      dt.Day,
		Clock:    dt.Clock(),
		Calendar: dt.Calendar(),
		Unix:     dt.Time().Unix(),
		TS:       timex.NowMs(),
	}
}

// set applies a ClockSet request.
func (s *Service) set(req types.ClockSet) error {
	if req.Unix != 0 {
		return s.rtc.Set(time.Unix(req.Unix, 0).UTC())
	}
	if req.Weekday > 6 {
		return pcf8523.ErrWeekdayRange
	}
	return s.rtc.WriteDateTime(pcf8523.DateTime{
		Seconds: req.Seconds,
		Minutes: req.Minutes,
		Hours:   req.Hours,
		Date:    req.Date,
		Weekday: req.Weekday,
		Month:   req.Month,
		Year:    req.Year,
	})
}

func (s *Service) publishLink(conn *bus.Connection, link types.Link, err error) {
	if link == s.link {
		return
	}
	s.link = link
	st := types.PeripheralStatus{Link: link, TS: timex.NowMs()}
	if err != nil {
		st.Error = string(errmap.Code(err))
	}
	conn.Publish(conn.NewMessage(TopicStatus, st, true))
}

func (s *Service) poll(ctx context.Context, conn *bus.Connection) {
	r, err := s.Read(ctx)
	switch {
	case err == nil:
		s.publishLink(conn, types.LinkUp, nil)
	case errors.Is(err, pcf8523.ErrWeekdayRange):
		println("Warn: clock: weekday register out of range:", r.Weekday)
		s.publishLink(conn, types.LinkDegraded, err)
	default:
		if ctx.Err() == nil {
			println("Error: clock: read failed:", err.Error())
			s.publishLink(conn, types.LinkDown, err)
		}
		return
	}
	conn.Publish(conn.NewMessage(TopicNow, r, true))
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	setSub := conn.Subscribe(TopicSet)
	defer conn.Unsubscribe(setSub)
	cfgSub := conn.Subscribe(config.TopicClock)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	s.poll(ctx, conn)
	for {
		select {
		case <-ctx.Done():
			println("Info: clock service stopping")
			return
		case <-tick.C:
			s.poll(ctx, conn)
		case msg := <-setSub.Channel():
			req, ok := msg.Payload.(types.ClockSet)
			if !ok {
				conn.Reply(msg, types.Reply{Error: string(errcode.InvalidPayload)}, false)
				continue
			}
			if err := s.set(req); err != nil {
				println("Error: clock: set failed:", err.Error())
				conn.Reply(msg, types.Reply{Error: string(errmap.Code(err))}, false)
				continue
			}
			conn.Reply(msg, types.Reply{OK: true}, false)
			s.poll(ctx, conn)
		case msg := <-cfgSub.Channel():
			if cc, ok := msg.Payload.(config.ClockConfig); ok {
				s.apply(cc)
				tick.Reset(s.interval)
				println("Info: clock interval set to", s.interval.String(), "retries", s.retries)
			}
		}
	}
}

// Start the clock service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
