// Package vm implements a register-and-stack virtual machine: a
// 16-register fetch-execute loop over a bounded stack with lexical-level
// base-pointer chains for nested-procedure activation records.
package vm

// Op is one of the closed set of PL/0 virtual-machine opcodes. The numeric
// values are stable: instruction images are just four decimal integers per
// line, so a renumbering would break every stored image.
type Op int32

const (
	_ Op = iota // opcode 0 is illegal
	OpLIT
	OpRTN
	OpLOD
	OpSTO
	OpCAL
	OpINC
	OpJMP
	OpJPC
	OpSIOWrite
	OpSIORead
	OpSIOHalt
	OpNEG
	OpADD
	OpSUB
	OpMUL
	OpDIV
	OpODD
	OpMOD
	OpEQL
	OpNEQ
	OpLSS
	OpLEQ
	OpGTR
	OpGEQ
)

// opNames supports readable test failures: fmt.Stringer on a closed enum.
var opNames = [...]string{
	OpLIT:      "LIT",
	OpRTN:      "RTN",
	OpLOD:      "LOD",
	OpSTO:      "STO",
	OpCAL:      "CAL",
	OpINC:      "INC",
	OpJMP:      "JMP",
	OpJPC:      "JPC",
	OpSIOWrite: "SIO_WRITE",
	OpSIORead:  "SIO_READ",
	OpSIOHalt:  "SIO_HALT",
	OpNEG:      "NEG",
	OpADD:      "ADD",
	OpSUB:      "SUB",
	OpMUL:      "MUL",
	OpDIV:      "DIV",
	OpODD:      "ODD",
	OpMOD:      "MOD",
	OpEQL:      "EQL",
	OpNEQ:      "NEQ",
	OpLSS:      "LSS",
	OpLEQ:      "LEQ",
	OpGTR:      "GTR",
	OpGEQ:      "GEQ",
}

func (op Op) String() string {
	if int(op) >= 0 && int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "illegal"
}

// Instruction is a single four-field instruction: op is the opcode, R a
// register index in [0,16), L a lexical-level delta, M a constant,
// address, or code index depending on op.
type Instruction struct {
	Op Op
	R  int32
	L  int32
	M  int32
}

// Image is an ordered sequence of instructions, indexed from 0. Emission
// appends; backpatching mutates a previously appended instruction's M
// field directly by index.
type Image []Instruction

// MaxCodeLength bounds the size of an instruction image.
const MaxCodeLength = 500
