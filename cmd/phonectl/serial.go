package main

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"gsmphone-go/x/bytefifo"

	"github.com/tarm/serial"
)

var errNoData = errors.New("phonectl: no data")

// serialPort adapts a USB serial adapter to sim800h.Port. A pump goroutine
// moves received bytes into a FIFO the same way the firmware's RX interrupt
// does, so the session sees identical non-blocking reads.
type serialPort struct {
	rw        io.ReadWriteCloser
	rx        *bytefifo.FIFO
	overflows atomic.Uint32
	done      chan struct{}
	err       atomic.Value // error from the pump
}

func openSerial(name string, baud int) (*serialPort, error) {
	p, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: 50 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return newSerialPort(p), nil
}

func newSerialPort(rw io.ReadWriteCloser) *serialPort {
	s := &serialPort{rw: rw, rx: bytefifo.New(), done: make(chan struct{})}
	go s.pump()
	return s
}

func (s *serialPort) pump() {
	defer close(s.done)
	var buf [64]byte
	for {
		n, err := s.rw.Read(buf[:])
		for _, b := range buf[:n] {
			if !s.rx.Put(b) {
				s.overflows.Add(1)
			}
		}
		// tarm/serial reports a read timeout as 0, io.EOF.
		if err != nil && !errors.Is(err, io.EOF) {
			s.err.Store(err)
			return
		}
	}
}

func (s *serialPort) ReadByte() (byte, error) {
	if b, ok := s.rx.Get(); ok {
		return b, nil
	}
	if err, _ := s.err.Load().(error); err != nil {
		return 0, err
	}
	return 0, errNoData
}

func (s *serialPort) WriteByte(b byte) error {
	_, err := s.rw.Write([]byte{b})
	return err
}

func (s *serialPort) Overflows() uint32 { return s.overflows.Load() }

func (s *serialPort) Close() error {
	err := s.rw.Close()
	<-s.done
	return err
}
