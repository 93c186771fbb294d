package vm

import (
	"bufio"
	"fmt"
	"io"
)

// MaxStackHeight bounds the VM's stack.
const MaxStackHeight = 2000

// RuntimeError is a fatal VM fault: an illegal instruction, division by
// zero, or stack overflow. Run halts on the first one.
type RuntimeError struct {
	Reason string
	PC     int32
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at pc=%d: %s", e.PC, e.Reason)
}

// VM is the register-and-stack machine: a 16-register file, an explicit
// BP/SP activation-record stack, and a fetch-execute step loop that walks
// lexical-level static-link chains to reach enclosing procedures' frames.
type VM struct {
	RF [16]int32
	ST [MaxStackHeight]int32

	PC int32
	BP int32
	SP int32
	IR Instruction

	halted bool

	in  *bufio.Reader
	out io.Writer
}

// New creates a VM with RF and stack zeroed, PC=0, BP=1, SP=0.
func New(in io.Reader, out io.Writer) *VM {
	return &VM{
		BP:  1,
		in:  bufio.NewReader(in),
		out: out,
	}
}

// base follows the static-link chain L hops starting at BP. The static
// link lives at offset +1 within an activation record.
func (m *VM) base(l int32) int32 {
	b := m.BP
	for l > 0 {
		b = m.ST[b+1]
		l--
	}
	return b
}

func (m *VM) fault(reason string) *RuntimeError {
	m.halted = true
	return &RuntimeError{Reason: reason, PC: m.PC}
}

func (m *VM) checkStackAddr(addr int32) *RuntimeError {
	if addr < 0 || addr >= MaxStackHeight {
		return m.fault("stack address out of range")
	}
	return nil
}

// step fetches the instruction at PC, increments PC, and executes it.
func (m *VM) step(image Image) *RuntimeError {
	if m.PC < 0 || int(m.PC) >= len(image) {
		return m.fault("program counter out of range")
	}
	ins := image[m.PC]
	m.IR = ins
	m.PC++

	if ins.R < 0 || ins.R >= 16 {
		return m.fault("register index out of range")
	}

	switch ins.Op {
	case OpLIT:
		m.RF[ins.R] = ins.M

	case OpRTN:
		m.SP = m.BP - 1
		if err := m.checkStackAddr(m.SP + 3); err != nil {
			return err
		}
		m.BP = m.ST[m.SP+3]
		m.PC = m.ST[m.SP+4]

	case OpLOD:
		addr := m.base(ins.L) + ins.M
		if err := m.checkStackAddr(addr); err != nil {
			return err
		}
		m.RF[ins.R] = m.ST[addr]

	case OpSTO:
		addr := m.base(ins.L) + ins.M
		if err := m.checkStackAddr(addr); err != nil {
			return err
		}
		m.ST[addr] = m.RF[ins.R]

	case OpCAL:
		if err := m.checkStackAddr(m.SP + 4); err != nil {
			return err
		}
		m.ST[m.SP+1] = 0
		m.ST[m.SP+2] = m.base(ins.L)
		m.ST[m.SP+3] = m.BP
		m.ST[m.SP+4] = m.PC
		m.BP = m.SP + 1
		m.PC = ins.M

	case OpINC:
		m.SP += ins.M
		if m.SP < 0 || m.SP >= MaxStackHeight {
			return m.fault("stack overflow")
		}

	case OpJMP:
		m.PC = ins.M

	case OpJPC:
		if m.RF[ins.R] == 0 {
			m.PC = ins.M
		}

	case OpSIOWrite:
		fmt.Fprintf(m.out, "%d", m.RF[ins.R])

	case OpSIORead:
		var v int32
		if _, err := fmt.Fscan(m.in, &v); err != nil {
			return m.fault("failed to read input: " + err.Error())
		}
		m.RF[ins.R] = v

	case OpSIOHalt:
		m.halted = true

	case OpNEG:
		m.RF[ins.R] = -m.RF[ins.L]

	case OpADD:
		m.RF[ins.R] = m.RF[ins.L] + m.RF[ins.M]

	case OpSUB:
		m.RF[ins.R] = m.RF[ins.L] - m.RF[ins.M]

	case OpMUL:
		m.RF[ins.R] = m.RF[ins.L] * m.RF[ins.M]

	case OpDIV:
		if m.RF[ins.M] == 0 {
			return m.fault("division by zero")
		}
		m.RF[ins.R] = m.RF[ins.L] / m.RF[ins.M]

	case OpODD:
		m.RF[ins.R] = m.RF[ins.R] % 2
		if m.RF[ins.R] < 0 {
			m.RF[ins.R] = -m.RF[ins.R]
		}

	case OpMOD:
		if m.RF[ins.M] == 0 {
			return m.fault("division by zero")
		}
		m.RF[ins.R] = m.RF[ins.L] % m.RF[ins.M]

	case OpEQL:
		m.RF[ins.R] = boolToInt(m.RF[ins.L] == m.RF[ins.M])

	case OpNEQ:
		m.RF[ins.R] = boolToInt(m.RF[ins.L] != m.RF[ins.M])

	case OpLSS:
		m.RF[ins.R] = boolToInt(m.RF[ins.L] < m.RF[ins.M])

	case OpLEQ:
		m.RF[ins.R] = boolToInt(m.RF[ins.L] <= m.RF[ins.M])

	case OpGTR:
		m.RF[ins.R] = boolToInt(m.RF[ins.L] > m.RF[ins.M])

	case OpGEQ:
		m.RF[ins.R] = boolToInt(m.RF[ins.L] >= m.RF[ins.M])

	default:
		return m.fault("illegal opcode")
	}

	return nil
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// Run executes image from the current state until SIO_HALT or a fatal
// fault terminates it.
func (m *VM) Run(image Image) error {
	if len(image) == 0 {
		return m.fault("empty instruction image")
	}
	for !m.halted {
		if err := m.step(image); err != nil {
			return err
		}
	}
	return nil
}

// Halted reports whether the VM has executed SIO_HALT or hit a fatal fault.
func (m *VM) Halted() bool {
	return m.halted
}

// Run builds a fresh VM and executes image to completion.
func Run(image Image, in io.Reader, out io.Writer) error {
	return New(in, out).Run(image)
}
