package sim800h

import (
	"bytes"
	"context"
	"strconv"
)

const ctrlZ = 0x1A

// SignalQuality is the +CSQ reply. RSSI 0..31 (99 unknown), BER 0..7 (99 unknown).
type SignalQuality struct {
	RSSI int
	BER  int
}

// Battery is the +CBC reply: charge state, percentage and voltage in mV.
type Battery struct {
	Charging  int
	Percent   int
	MilliVolt int
}

// SimCardID returns the ICCID of the inserted SIM.
func (s *Session) SimCardID(ctx context.Context) (string, error) {
	resp, err := s.Exec(ctx, "AT+CCID")
	if err != nil {
		return "", err
	}
	for _, line := range lines(resp) {
		if len(line) >= 10 && isDigits(line) {
			return string(line), nil
		}
	}
	return "", ErrParse
}

// SignalStrength queries AT+CSQ.
func (s *Session) SignalStrength(ctx context.Context) (SignalQuality, error) {
	resp, err := s.Exec(ctx, "AT+CSQ")
	if err != nil {
		return SignalQuality{}, err
	}
	v, err := fields(resp, "+CSQ:", 2)
	if err != nil {
		return SignalQuality{}, err
	}
	return SignalQuality{RSSI: v[0], BER: v[1]}, nil
}

// BatteryStatus queries AT+CBC.
func (s *Session) BatteryStatus(ctx context.Context) (Battery, error) {
	resp, err := s.Exec(ctx, "AT+CBC")
	if err != nil {
		return Battery{}, err
	}
	v, err := fields(resp, "+CBC:", 3)
	if err != nil {
		return Battery{}, err
	}
	return Battery{Charging: v[0], Percent: v[1], MilliVolt: v[2]}, nil
}

// SendText sends msg to phone as a text-mode SMS.
func (s *Session) SendText(ctx context.Context, phone, msg string) error {
	if !validNumber(phone) {
		return ErrInvalidNumber
	}
	if !validMessage(msg) {
		return ErrInvalidMessage
	}
	if _, err := s.Exec(ctx, "AT+CMGF=1"); err != nil {
		return err
	}
	if err := s.SendCommand(`AT+CMGS="` + phone + `"`); err != nil {
		return err
	}
	if err := s.awaitPrompt(ctx); err != nil {
		return err
	}
	if err := s.send(msg, ctrlZ, '\r'); err != nil {
		return err
	}
	_, err := s.await(ctx, s.cfg.SubmitTimeout, true, tokOK, tokError)
	return err
}

// EnableBuzzer starts the PWM output that drives the vibration motor.
func (s *Session) EnableBuzzer(ctx context.Context) error {
	_, err := s.Exec(ctx, "AT+SPWM=0,10000,5000")
	return err
}

// AnswerCall picks up an incoming call. ErrNoCarrier means the caller
// was gone.
func (s *Session) AnswerCall(ctx context.Context) error {
	if err := s.SendCommand("ATA"); err != nil {
		return err
	}
	_, err := s.AwaitCallAnswer(ctx)
	return err
}

// HangUp ends the current call.
func (s *Session) HangUp(ctx context.Context) error {
	_, err := s.Exec(ctx, "ATH")
	return err
}

// Dial places a voice call to number.
func (s *Session) Dial(ctx context.Context, number string) error {
	if !validNumber(number) {
		return ErrInvalidNumber
	}
	if err := s.SendCommand("ATD" + number + ";"); err != nil {
		return err
	}
	_, err := s.AwaitCallAnswer(ctx)
	return err
}

// SetSpeakerVolume sets the loudspeaker level, 0..100.
func (s *Session) SetSpeakerVolume(ctx context.Context, level int) error {
	if level < 0 || level > 100 {
		return ErrInvalidLevel
	}
	_, err := s.Exec(ctx, "AT+CLVL="+strconv.Itoa(level))
	return err
}

// SetMicGain sets the microphone gain of channel (0 main, 1 aux), level 0..15.
func (s *Session) SetMicGain(ctx context.Context, channel, level int) error {
	if channel < 0 || channel > 1 || level < 0 || level > 15 {
		return ErrInvalidLevel
	}
	_, err := s.Exec(ctx, "AT+CMIC="+strconv.Itoa(channel)+","+strconv.Itoa(level))
	return err
}

func validNumber(n string) bool {
	if len(n) > 0 && n[0] == '+' {
		n = n[1:]
	}
	return len(n) > 0 && len(n) <= 20 && isDigits([]byte(n))
}

func validMessage(m string) bool {
	if len(m) == 0 || len(m) > 160 {
		return false
	}
	for i := 0; i < len(m); i++ {
		if m[i] == ctrlZ || m[i] == 0x1B {
			return false
		}
	}
	return true
}

func isDigits(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// lines splits a reply on CR/LF and drops empty lines.
func lines(resp []byte) [][]byte {
	var out [][]byte
	for _, l := range bytes.FieldsFunc(resp, func(r rune) bool { return r == '\r' || r == '\n' }) {
		if l = bytes.TrimSpace(l); len(l) > 0 {
			out = append(out, l)
		}
	}
	return out
}

// fields finds the line starting with prefix and parses n comma-separated
// integers after it.
func fields(resp []byte, prefix string, n int) ([]int, error) {
	for _, line := range lines(resp) {
		rest, ok := bytes.CutPrefix(line, []byte(prefix))
		if !ok {
			continue
		}
		parts := bytes.Split(bytes.TrimSpace(rest), []byte{','})
		if len(parts) != n {
			return nil, ErrParse
		}
		out := make([]int, n)
		for i, p := range parts {
			v, err := strconv.Atoi(string(bytes.TrimSpace(p)))
			if err != nil {
				return nil, ErrParse
			}
			out[i] = v
		}
		return out, nil
	}
	return nil, ErrParse
}
