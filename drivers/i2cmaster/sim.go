package i2cmaster

import "sync"

// Control is one value written to MCS, with the MSA in effect at the time.
type Control struct {
	MSA uint32
	Ctl uint32
}

// Read reports whether the control belongs to a receive phase.
func (c Control) Read() bool { return c.MSA&1 != 0 }

// SimRegisters emulates an I2C master block wired to register-mapped slaves
// (256 byte registers each, auto-incrementing pointer). The first byte
// transmitted after START is taken as the register pointer.
type SimRegisters struct {
	mu     sync.Mutex
	regs   map[Reg]uint32
	slaves map[byte]*[256]byte

	ptr    byte
	status Status
	sent   int // data bytes transmitted since the last START
	log    []Control

	// StuckBusy keeps BUSY asserted forever.
	StuckBusy bool
	// DataNackAt NACKs the n-th transmitted data byte (1-based, register
	// pointer excluded). Zero disables.
	DataNackAt int
}

// NewSimRegisters returns a bus with no slaves attached.
func NewSimRegisters() *SimRegisters {
	return &SimRegisters{
		regs:   make(map[Reg]uint32),
		slaves: make(map[byte]*[256]byte),
	}
}

// AddSlave attaches a slave at the 7-bit address addr.
func (s *SimRegisters) AddSlave(addr byte) {
	s.mu.Lock()
	if s.slaves[addr] == nil {
		s.slaves[addr] = new([256]byte)
	}
	s.mu.Unlock()
}

// Preset writes registers of a slave directly, bypassing the bus.
func (s *SimRegisters) Preset(addr, reg byte, data ...byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mem := s.slaves[addr]
	if mem == nil {
		return
	}
	for i, b := range data {
		mem[reg+byte(i)] = b
	}
}

// Snapshot returns n registers of a slave starting at reg.
func (s *SimRegisters) Snapshot(addr, reg byte, n int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, n)
	if mem := s.slaves[addr]; mem != nil {
		for i := range out {
			out[i] = mem[reg+byte(i)]
		}
	}
	return out
}

// Controls returns a copy of every MCS write since the last ClearLog.
func (s *SimRegisters) Controls() []Control {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Control(nil), s.log...)
}

// ClearLog forgets recorded MCS writes.
func (s *SimRegisters) ClearLog() {
	s.mu.Lock()
	s.log = s.log[:0]
	s.mu.Unlock()
}

func (s *SimRegisters) Load(r Reg) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r == RegMCS {
		v := uint32(s.status)
		if s.StuckBusy {
			v |= stBusy
		}
		return v
	}
	return s.regs[r]
}

func (s *SimRegisters) Store(r Reg, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r != RegMCS {
		s.regs[r] = v
		return
	}
	msa := s.regs[RegMSA]
	s.log = append(s.log, Control{MSA: msa, Ctl: v})
	if v&CtlRun == 0 {
		// STOP alone releases the bus after an error.
		return
	}
	s.status = 0
	mem := s.slaves[byte(msa>>1)]
	if mem == nil {
		s.status = StatusAddrNack | StatusError
		return
	}
	if msa&1 != 0 {
		s.regs[RegMDR] = uint32(mem[s.ptr])
		s.ptr++
		return
	}
	b := byte(s.regs[RegMDR])
	if v&CtlStart != 0 {
		s.ptr = b
		s.sent = 0
		return
	}
	s.sent++
	if s.DataNackAt > 0 && s.sent == s.DataNackAt {
		s.status = StatusDataNack | StatusError
		return
	}
	mem[s.ptr] = b
	s.ptr++
}
