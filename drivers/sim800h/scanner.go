package sim800h

import "bytes"

// token is a final result string the modem may emit and the error it maps to.
type token struct {
	text string
	err  error
}

var (
	tokOK        = token{text: "OK"}
	tokError     = token{text: "ERROR", err: ErrCommandFailed}
	tokNoCarrier = token{text: "NO CARRIER", err: ErrNoCarrier}
	tokPrompt    = token{text: ">"}
)

// scanner recognises tokens in a byte stream that arrives in arbitrary
// pieces. Each token keeps its own match position, so a token split across
// polls is still found; a mismatch restarts the search at this byte.
type scanner struct {
	tokens  []token
	pos     []int
	payload []byte
	max     int
}

func newScanner(max int, tokens ...token) *scanner {
	return &scanner{
		tokens:  tokens,
		pos:     make([]int, len(tokens)),
		payload: make([]byte, 0, max),
		max:     max,
	}
}

// feed consumes one byte and returns the index of the token it completes,
// or -1.
func (s *scanner) feed(b byte) int {
	if len(s.payload) < s.max {
		s.payload = append(s.payload, b)
	}
	for i, t := range s.tokens {
		p := s.pos[i]
		if t.text[p] != b {
			p = 0
			if t.text[0] != b {
				s.pos[i] = 0
				continue
			}
		}
		p++
		if p == len(t.text) {
			s.reset()
			return i
		}
		s.pos[i] = p
	}
	return -1
}

func (s *scanner) reset() {
	for i := range s.pos {
		s.pos[i] = 0
	}
}

// body returns the bytes seen before token i. Bytes beyond the capture limit
// are not kept.
func (s *scanner) body(i int) []byte {
	return bytes.TrimSuffix(s.payload, []byte(s.tokens[i].text))
}
