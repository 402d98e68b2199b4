package types

// ---- RTC payloads ----

// ClockReading is the retained value on rtc/now. The BCD fields are the raw
// register bytes; Clock and Calendar are the display strings.
type ClockReading struct {
	Seconds uint8 `json:"sec"`
	Minutes uint8 `json:"min"`
	Hours   uint8 `json:"hour"`
	Date    uint8 `json:"date"`
	Weekday uint8 `json:"wday"`
	Month   uint8 `json:"month"`
	Year    uint8 `json:"year"`

	Day      string `json:"day"`      // weekday name, "" when out of range
	Clock    string `json:"clock"`    // HH:MM:SS
	Calendar string `json:"calendar"` // MM/DD/YY
	Unix     int64  `json:"unix"`     // decoded, UTC
	TS       int64  `json:"ts_ms"`    // when it was read
}

// ClockSet is a control payload on rtc/set. Unix wins when non-zero;
// otherwise the raw BCD block is written as given.
type ClockSet struct {
	Unix int64 `json:"unix,omitempty"`

	Seconds uint8 `json:"sec,omitempty"`
	Minutes uint8 `json:"min,omitempty"`
	Hours   uint8 `json:"hour,omitempty"`
	Date    uint8 `json:"date,omitempty"`
	Weekday uint8 `json:"wday,omitempty"`
	Month   uint8 `json:"month,omitempty"`
	Year    uint8 `json:"year,omitempty"`
}

// Reply is the generic control acknowledgement.
type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
