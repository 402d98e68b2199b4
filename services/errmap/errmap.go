// Package errmap turns driver errors into the stable codes services put on
// the bus.
package errmap

import (
	"errors"

	"gsmphone-go/drivers/i2cmaster"
	"gsmphone-go/drivers/pcf8523"
	"gsmphone-go/drivers/sim800h"
	"gsmphone-go/drivers/uartline"
	"gsmphone-go/errcode"
)

// Code maps err to an errcode.Code. Unknown errors fall through to
// errcode.MapDriverErr.
func Code(err error) errcode.Code {
	if err == nil {
		return errcode.OK
	}
	if c := errcode.Of(err); c != errcode.Error {
		return c
	}
	if st := i2cmaster.StatusOf(err); st != 0 {
		if st.Has(i2cmaster.StatusAddrNack) || st.Has(i2cmaster.StatusDataNack) {
			return errcode.Nack
		}
		return errcode.BusError
	}
	switch {
	case errors.Is(err, i2cmaster.ErrTimeout),
		errors.Is(err, uartline.ErrTxTimeout),
		errors.Is(err, sim800h.ErrTimeout):
		return errcode.Timeout
	case errors.Is(err, sim800h.ErrBusy), errors.Is(err, sim800h.ErrState):
		return errcode.Busy
	case errors.Is(err, sim800h.ErrNoCarrier):
		return errcode.NoCarrier
	case errors.Is(err, sim800h.ErrCommandFailed):
		return errcode.CommandFailed
	case errors.Is(err, sim800h.ErrParse):
		return errcode.BadResponse
	case errors.Is(err, sim800h.ErrInvalidNumber),
		errors.Is(err, sim800h.ErrInvalidMessage),
		errors.Is(err, sim800h.ErrInvalidLevel):
		return errcode.InvalidParams
	case errors.Is(err, pcf8523.ErrWeekdayRange),
		errors.Is(err, pcf8523.ErrYearRange):
		return errcode.OutOfRange
	}
	return errcode.MapDriverErr(err)
}

// Wrap returns an *errcode.E for op carrying err's mapped code, or nil for nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &errcode.E{C: Code(err), Op: op, Msg: err.Error(), Err: err}
}
