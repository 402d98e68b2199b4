package errmap

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gsmphone-go/drivers/i2cmaster"
	"gsmphone-go/drivers/pcf8523"
	"gsmphone-go/drivers/sim800h"
	"gsmphone-go/drivers/uartline"
	"gsmphone-go/errcode"
)

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		want errcode.Code
	}{
		{nil, errcode.OK},
		{i2cmaster.StatusAddrNack | i2cmaster.StatusError, errcode.Nack},
		{i2cmaster.StatusDataNack, errcode.Nack},
		{i2cmaster.StatusArbLost | i2cmaster.StatusError, errcode.BusError},
		{i2cmaster.ErrTimeout, errcode.Timeout},
		{uartline.ErrTxTimeout, errcode.Timeout},
		{sim800h.ErrTimeout, errcode.Timeout},
		{context.DeadlineExceeded, errcode.Timeout},
		{context.Canceled, errcode.Canceled},
		{sim800h.ErrBusy, errcode.Busy},
		{sim800h.ErrState, errcode.Busy},
		{sim800h.ErrNoCarrier, errcode.NoCarrier},
		{sim800h.ErrCommandFailed, errcode.CommandFailed},
		{sim800h.ErrParse, errcode.BadResponse},
		{sim800h.ErrInvalidNumber, errcode.InvalidParams},
		{sim800h.ErrInvalidLevel, errcode.InvalidParams},
		{fmt.Errorf("read: %w", pcf8523.ErrWeekdayRange), errcode.OutOfRange},
		{fmt.Errorf("set: %w", pcf8523.ErrYearRange), errcode.OutOfRange},
		{errcode.Unsupported, errcode.Unsupported},
		{errors.New("mystery"), errcode.Error},
	}
	for _, c := range cases {
		if got := Code(c.err); got != c.want {
			t.Errorf("Code(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestWrapKeepsCause(t *testing.T) {
	if Wrap("x", nil) != nil {
		t.Fatal("Wrap(nil) != nil")
	}
	err := Wrap("sms", sim800h.ErrNoCarrier)
	if errcode.Of(err) != errcode.NoCarrier {
		t.Fatalf("Of = %q", errcode.Of(err))
	}
	if !errors.Is(err, sim800h.ErrNoCarrier) {
		t.Fatal("cause lost")
	}
	if err.Error() != "no_carrier: sim800h: no carrier" {
		t.Fatalf("Error() = %q", err.Error())
	}
}
