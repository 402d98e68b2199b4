package types

// ---- Modem payloads ----

// ModemOp names one modem operation.
type ModemOp string

const (
	ModemPing    ModemOp = "ping"
	ModemSimID   ModemOp = "sim_id"
	ModemSignal  ModemOp = "signal"
	ModemBattery ModemOp = "battery"
	ModemSMS     ModemOp = "sms"
	ModemDial    ModemOp = "dial"
	ModemAnswer  ModemOp = "answer"
	ModemHangUp  ModemOp = "hangup"
	ModemBuzzer  ModemOp = "buzzer"
	ModemVolume  ModemOp = "volume"
	ModemMicGain ModemOp = "mic_gain"
	ModemRaw     ModemOp = "at"
)

// ModemRequest is published on modem/request.
type ModemRequest struct {
	Op      ModemOp `json:"op"`
	Number  string  `json:"number,omitempty"`  // sms, dial
	Text    string  `json:"text,omitempty"`    // sms body
	Command string  `json:"command,omitempty"` // raw AT command, without "\r"
	Level   int     `json:"level,omitempty"`   // volume, mic_gain
	Channel int     `json:"channel,omitempty"` // mic_gain
}

// ModemResult answers a ModemRequest on its reply topic or modem/result.
type ModemResult struct {
	Op    ModemOp `json:"op"`
	OK    bool    `json:"ok"`
	Error string  `json:"error,omitempty"` // errcode.Code

	SimID     string `json:"sim_id,omitempty"`
	RSSI      int    `json:"rssi,omitempty"`
	BER       int    `json:"ber,omitempty"`
	Charging  int    `json:"charging,omitempty"`
	Percent   int    `json:"percent,omitempty"`
	MilliVolt int    `json:"mv,omitempty"`
	Response  string `json:"response,omitempty"` // raw payload for "at"
	TS        int64  `json:"ts_ms"`
}
