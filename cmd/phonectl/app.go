package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gsmphone-go/drivers/sim800h"
	"gsmphone-go/platform"
	"gsmphone-go/services/config"
	"gsmphone-go/services/errmap"
	"gsmphone-go/services/modem"
	"gsmphone-go/types"
)

// options are the persistent flags.
type options struct {
	configPath string
	port       string
	baud       int
	emulate    bool
	noInit     bool
}

// app holds the open modem between commands, so a shell session reuses one
// connection.
type app struct {
	opts options
	cfg  config.Config

	session *sim800h.Session
	svc     *modem.Service
	closer  io.Closer
	emu     *sim800h.Emulator
}

func (a *app) loadConfig() error {
	a.cfg = config.Default()
	if a.opts.emulate {
		a.cfg, _ = config.EmbeddedConfigLookup("host")
	}
	if a.opts.configPath != "" {
		c, err := config.Load(a.opts.configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		a.cfg = c
	}
	if a.opts.port != "" {
		a.cfg.Serial.Port = a.opts.port
	}
	if a.opts.baud != 0 {
		a.cfg.Serial.Baud = uint32(a.opts.baud)
	}
	return nil
}

// open connects to the modem once and runs its start-up check.
func (a *app) open(ctx context.Context) error {
	if a.session != nil {
		return nil
	}
	if err := a.loadConfig(); err != nil {
		return err
	}

	var (
		port  sim800h.Port
		reset sim800h.Pin
	)
	if a.opts.emulate {
		board, parts := platform.OpenHost(a.cfg)
		port, reset, a.emu = board.Modem, board.ModemReset, parts.Modem
	} else {
		sp, err := openSerial(a.cfg.Serial.Port, int(a.cfg.Serial.Baud))
		if err != nil {
			return err
		}
		port, a.closer = sp, sp
	}

	a.session = sim800h.New(port, a.cfg.Modem.Session())
	if reset != nil {
		a.session.SetResetPin(reset)
	}
	a.svc = modem.New(a.session, modem.Setup{})
	if a.opts.noInit {
		return nil
	}
	if err := a.session.Init(ctx); err != nil {
		return fmt.Errorf("modem not answering on %s: %w", a.cfg.Serial.Port, errmap.Wrap("init", err))
	}
	return nil
}

func (a *app) close() {
	if a.closer != nil {
		_ = a.closer.Close()
		a.closer = nil
	}
	a.session = nil
}

// do runs one request and turns a failed result into an error.
func (a *app) do(ctx context.Context, req types.ModemRequest) (types.ModemResult, error) {
	if err := a.open(ctx); err != nil {
		return types.ModemResult{}, err
	}
	res := a.svc.Handle(ctx, req)
	if !res.OK {
		return res, errors.New(string(req.Op) + ": " + res.Error)
	}
	return res, nil
}
