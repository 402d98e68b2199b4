package sim800h

import (
	"strconv"
	"strings"
	"sync"
)

// SMS is a message accepted by the Emulator.
type SMS struct {
	To   string
	Body string
}

// Emulator is a minimal SIM800H stand-in for host builds and tests. Bytes
// written to it are parsed as AT command lines; replies go to Output.
type Emulator struct {
	// Output receives every reply. It is called without the lock held.
	Output func([]byte)
	// Echo repeats received bytes back, like the modem's ATE1 default.
	Echo bool

	mu       sync.Mutex
	line     []byte
	textMode bool
	smsTo    string
	inSMS    bool

	ICCID     string
	RSSI, BER int
	Battery   Battery
	Ringing   bool
	InCall    bool
	Buzzer    bool
	Volume    int
	MicGain   [2]int
	Sent      []SMS
	Commands  []string
}

// NewEmulator returns an emulator with plausible readings and echo on, as
// the modem powers up.
func NewEmulator(output func([]byte)) *Emulator {
	return &Emulator{
		Output:  output,
		Echo:    true,
		ICCID:   "89014103211118510720",
		RSSI:    18,
		Battery: Battery{Percent: 87, MilliVolt: 4101},
	}
}

const (
	replyOK    = "\r\nOK\r\n"
	replyError = "\r\nERROR\r\n"
)

// WriteByte consumes one byte sent to the modem.
func (e *Emulator) WriteByte(b byte) error {
	e.mu.Lock()
	var out []byte
	if e.Echo {
		out = append(out, b)
	}
	out = append(out, e.consume(b)...)
	fn := e.Output
	e.mu.Unlock()
	if len(out) > 0 && fn != nil {
		fn(out)
	}
	return nil
}

func (e *Emulator) consume(b byte) []byte {
	if e.inSMS {
		switch b {
		case 0x1A:
			e.inSMS = false
			e.Sent = append(e.Sent, SMS{To: e.smsTo, Body: string(e.line)})
			e.line = e.line[:0]
			return []byte("\r\n+CMGS: " + strconv.Itoa(len(e.Sent)) + "\r\n" + replyOK)
		case 0x1B:
			e.inSMS = false
			e.line = e.line[:0]
			return []byte(replyOK)
		}
		e.line = append(e.line, b)
		return nil
	}
	switch b {
	case '\n':
		return nil
	case '\r':
		if len(e.line) == 0 {
			return nil
		}
		cmd := string(e.line)
		e.line = e.line[:0]
		e.Commands = append(e.Commands, cmd)
		return []byte(e.exec(cmd))
	}
	e.line = append(e.line, b)
	return nil
}

func (e *Emulator) exec(cmd string) string {
	up := strings.ToUpper(cmd)
	switch {
	case up == "AT":
		return replyOK
	case up == "ATE0", up == "ATE1":
		e.Echo = up == "ATE1"
		return replyOK
	case up == "AT+CCID":
		return "\r\n" + e.ICCID + "\r\n" + replyOK
	case up == "AT+CSQ":
		return "\r\n+CSQ: " + strconv.Itoa(e.RSSI) + "," + strconv.Itoa(e.BER) + "\r\n" + replyOK
	case up == "AT+CBC":
		b := e.Battery
		return "\r\n+CBC: " + strconv.Itoa(b.Charging) + "," + strconv.Itoa(b.Percent) + "," + strconv.Itoa(b.MilliVolt) + "\r\n" + replyOK
	case up == "AT+CMGF=1":
		e.textMode = true
		return replyOK
	case up == "AT+CMGF=0":
		e.textMode = false
		return replyOK
	case strings.HasPrefix(up, "AT+CMGS="):
		to := strings.Trim(cmd[len("AT+CMGS="):], `"`)
		if !e.textMode || !validNumber(to) {
			return replyError
		}
		e.smsTo, e.inSMS = to, true
		return "\r\n> "
	case strings.HasPrefix(up, "AT+SPWM="):
		e.Buzzer = true
		return replyOK
	case strings.HasPrefix(up, "AT+CLVL="):
		v, err := strconv.Atoi(cmd[len("AT+CLVL="):])
		if err != nil || v < 0 || v > 100 {
			return replyError
		}
		e.Volume = v
		return replyOK
	case strings.HasPrefix(up, "AT+CMIC="):
		ch, lvl, ok := strings.Cut(cmd[len("AT+CMIC="):], ",")
		c, err1 := strconv.Atoi(ch)
		l, err2 := strconv.Atoi(lvl)
		if !ok || err1 != nil || err2 != nil || c < 0 || c > 1 || l < 0 || l > 15 {
			return replyError
		}
		e.MicGain[c] = l
		return replyOK
	case up == "ATA":
		if !e.Ringing {
			return "\r\nNO CARRIER\r\n"
		}
		e.Ringing, e.InCall = false, true
		return replyOK
	case up == "ATH":
		e.Ringing, e.InCall = false, false
		return replyOK
	case strings.HasPrefix(up, "ATD") && strings.HasSuffix(up, ";"):
		if !validNumber(cmd[3 : len(cmd)-1]) {
			return replyError
		}
		e.InCall = true
		return replyOK
	}
	return replyError
}

// Ring simulates an incoming call.
func (e *Emulator) Ring() {
	e.mu.Lock()
	e.Ringing = true
	fn := e.Output
	e.mu.Unlock()
	if fn != nil {
		fn([]byte("\r\nRING\r\n"))
	}
}

// Messages returns a copy of the accepted SMS list.
func (e *Emulator) Messages() []SMS {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]SMS(nil), e.Sent...)
}

// Snapshot returns a consistent copy of the emulator's observable state.
func (e *Emulator) Snapshot() (inCall, buzzer bool, volume int, mic [2]int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.InCall, e.Buzzer, e.Volume, e.MicGain
}
