package vm

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
)

func run(t *testing.T, img Image, stdin string) (*VM, string, error) {
	t.Helper()
	var out bytes.Buffer
	m := New(strings.NewReader(stdin), &out)
	err := m.Run(img)
	return m, out.String(), err
}

func TestLitAndSTOLOD(t *testing.T) {
	img := Image{
		{Op: OpINC, M: 1},     // reserve one stack slot at BP+4
		{Op: OpLIT, R: 0, M: 7},
		{Op: OpSTO, R: 0, M: 4},
		{Op: OpLOD, R: 1, M: 4},
		{Op: OpSIOWrite, R: 1},
		{Op: OpSIOHalt, M: 3},
	}
	m, out, err := run(t, img, "")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out != "7" {
		t.Fatalf("out = %q, want %q", out, "7")
	}
	if m.ST[m.BP+4] != 7 {
		t.Fatalf("ST[BP+4] = %d, want 7", m.ST[m.BP+4])
	}
}

func TestArithmeticOps(t *testing.T) {
	cases := []struct {
		op   Op
		l, m int32
		want int32
	}{
		{OpADD, 3, 4, 7},
		{OpSUB, 10, 4, 6},
		{OpMUL, 6, 7, 42},
		{OpDIV, 20, 4, 5},
		{OpMOD, 20, 6, 2},
		{OpEQL, 5, 5, 1},
		{OpEQL, 5, 6, 0},
		{OpNEQ, 5, 6, 1},
		{OpLSS, 3, 5, 1},
		{OpLEQ, 5, 5, 1},
		{OpGTR, 6, 5, 1},
		{OpGEQ, 5, 5, 1},
	}
	for _, c := range cases {
		img := Image{
			{Op: OpLIT, R: 0, M: c.l},
			{Op: OpLIT, R: 1, M: c.m},
			{Op: c.op, R: 0, L: 0, M: 1},
			{Op: OpSIOWrite, R: 0},
			{Op: OpSIOHalt, M: 3},
		}
		_, out, err := run(t, img, "")
		if err != nil {
			t.Fatalf("%v(%d,%d): Run() error: %v", c.op, c.l, c.m, err)
		}
		want := strconv.FormatInt(int64(c.want), 10)
		if out != want {
			t.Errorf("%v(%d,%d) = %q, want %q", c.op, c.l, c.m, out, want)
		}
	}
}

func TestNegAndOdd(t *testing.T) {
	img := Image{
		{Op: OpLIT, R: 0, M: 5},
		{Op: OpNEG, R: 0, L: 0},
		{Op: OpSIOWrite, R: 0},
		{Op: OpLIT, R: 1, M: -3},
		{Op: OpODD, R: 1},
		{Op: OpSIOWrite, R: 1},
		{Op: OpSIOHalt, M: 3},
	}
	_, out, err := run(t, img, "")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out != "-51" {
		t.Fatalf("out = %q, want %q", out, "-51")
	}
}

func TestJMPAndJPC(t *testing.T) {
	// JPC only branches when the register is zero.
	img := Image{
		{Op: OpLIT, R: 0, M: 0},
		{Op: OpJPC, R: 0, M: 4}, // taken, skip to index 4
		{Op: OpLIT, R: 1, M: 99},
		{Op: OpSIOWrite, R: 1},
		{Op: OpLIT, R: 2, M: 1},
		{Op: OpSIOWrite, R: 2},
		{Op: OpSIOHalt, M: 3},
	}
	_, out, err := run(t, img, "")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out != "1" {
		t.Fatalf("out = %q, want %q (the skipped branch must not execute)", out, "1")
	}
}

func TestSIOReadAndWrite(t *testing.T) {
	img := Image{
		{Op: OpSIORead, R: 0},
		{Op: OpSIOWrite, R: 0},
		{Op: OpSIOHalt, M: 3},
	}
	_, out, err := run(t, img, "123")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out != "123" {
		t.Fatalf("out = %q, want %q", out, "123")
	}
}

func TestDivisionByZeroIsFatal(t *testing.T) {
	img := Image{
		{Op: OpLIT, R: 0, M: 1},
		{Op: OpLIT, R: 1, M: 0},
		{Op: OpDIV, R: 0, L: 0, M: 1},
		{Op: OpSIOHalt, M: 3},
	}
	_, _, err := run(t, img, "")
	if err == nil {
		t.Fatalf("Run() = nil error, want division-by-zero fault")
	}
	if _, ok := err.(*RuntimeError); !ok {
		t.Fatalf("Run() error type = %T, want *RuntimeError", err)
	}
}

func TestModByZeroIsFatal(t *testing.T) {
	img := Image{
		{Op: OpLIT, R: 0, M: 1},
		{Op: OpLIT, R: 1, M: 0},
		{Op: OpMOD, R: 0, L: 0, M: 1},
		{Op: OpSIOHalt, M: 3},
	}
	_, _, err := run(t, img, "")
	if err == nil {
		t.Fatalf("Run() = nil error, want mod-by-zero fault")
	}
}

func TestStackOverflowIsFatal(t *testing.T) {
	img := Image{
		{Op: OpINC, M: MaxStackHeight + 1},
		{Op: OpSIOHalt, M: 3},
	}
	_, _, err := run(t, img, "")
	if err == nil {
		t.Fatalf("Run() = nil error, want stack-overflow fault")
	}
}

func TestIllegalOpcodeIsFatal(t *testing.T) {
	img := Image{
		{Op: Op(999), M: 0},
	}
	_, _, err := run(t, img, "")
	if err == nil {
		t.Fatalf("Run() = nil error, want illegal-opcode fault")
	}
}

func TestProgramCounterOutOfRangeIsFatal(t *testing.T) {
	img := Image{
		{Op: OpJMP, M: 99},
	}
	_, _, err := run(t, img, "")
	if err == nil {
		t.Fatalf("Run() = nil error, want pc-out-of-range fault")
	}
}

func TestRegisterIndexOutOfRangeIsFatal(t *testing.T) {
	img := Image{
		{Op: OpLIT, R: 16, M: 1},
	}
	_, _, err := run(t, img, "")
	if err == nil {
		t.Fatalf("Run() = nil error, want register-out-of-range fault")
	}
}

func TestStackAddressOutOfRangeIsFatal(t *testing.T) {
	img := Image{
		{Op: OpLOD, R: 0, L: 0, M: MaxStackHeight},
	}
	_, _, err := run(t, img, "")
	if err == nil {
		t.Fatalf("Run() = nil error, want stack-address-out-of-range fault")
	}
}

// base() must walk the static-link chain L hops from BP, following the
// link stored at activation-record offset +1.
func TestBaseWalksStaticLinkChain(t *testing.T) {
	m := New(strings.NewReader(""), &bytes.Buffer{})
	m.BP = 10
	m.ST[11] = 5 // static link from level-2 frame to level-1 frame
	m.ST[6] = 1  // static link from level-1 frame to level-0 frame

	if got := m.base(0); got != 10 {
		t.Errorf("base(0) = %d, want 10", got)
	}
	if got := m.base(1); got != 5 {
		t.Errorf("base(1) = %d, want 5", got)
	}
	if got := m.base(2); got != 1 {
		t.Errorf("base(2) = %d, want 1", got)
	}
}

func TestCallAndReturn(t *testing.T) {
	// Mirrors the code generator's procedure shape: a JMP skips over the
	// declared procedure body, which CAL later jumps into directly. The
	// procedure doubles a global x via a level-1 static-link load/store,
	// and RTN resumes the caller right after the CAL. The extra INC after
	// storing x reserves headroom so the call frame CAL builds at SP+1..
	// SP+4 cannot alias x's own activation-record slot.
	img := Image{
		{Op: OpINC, M: 1},             // 0: reserve global slot at BP+4
		{Op: OpLIT, R: 0, M: 21},      // 1
		{Op: OpSTO, R: 0, M: 4},       // 2
		{Op: OpINC, M: 4},             // 3: headroom so CAL's frame can't alias x
		{Op: OpJMP, M: 11},            // 4: skip over the procedure body
		{Op: OpINC, M: 4},             // 5: proc prologue
		{Op: OpLOD, R: 0, L: 1, M: 4}, // 6: load global x via static link
		{Op: OpLIT, R: 1, M: 2},       // 7
		{Op: OpMUL, R: 0, L: 0, M: 1}, // 8
		{Op: OpSTO, R: 0, L: 1, M: 4}, // 9: store back to global x
		{Op: OpRTN},                   // 10
		{Op: OpCAL, L: 0, M: 5},       // 11: call proc at 5; resumes at 12 on RTN
		{Op: OpLOD, R: 0, L: 0, M: 4}, // 12: after return, read x
		{Op: OpSIOWrite, R: 0},        // 13
		{Op: OpSIOHalt, M: 3},         // 14
	}
	var out bytes.Buffer
	m := New(strings.NewReader(""), &out)
	if err := m.Run(img); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out.String() != "42" {
		t.Fatalf("out = %q, want %q", out.String(), "42")
	}
}

func TestHaltedReportsState(t *testing.T) {
	m := New(strings.NewReader(""), &bytes.Buffer{})
	if m.Halted() {
		t.Fatalf("Halted() = true before Run()")
	}
	if err := m.Run(Image{{Op: OpSIOHalt, M: 3}}); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !m.Halted() {
		t.Fatalf("Halted() = false after SIO_HALT")
	}
}

func TestPackageLevelRun(t *testing.T) {
	img := Image{
		{Op: OpLIT, R: 0, M: 9},
		{Op: OpSIOWrite, R: 0},
		{Op: OpSIOHalt, M: 3},
	}
	var out bytes.Buffer
	if err := Run(img, strings.NewReader(""), &out); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out.String() != "9" {
		t.Fatalf("out = %q, want %q", out.String(), "9")
	}
}

func TestEmptyImageIsFatal(t *testing.T) {
	_, _, err := run(t, Image{}, "")
	if err == nil {
		t.Fatalf("Run(empty image) = nil error, want fault")
	}
}

// New's initial state must satisfy the activation-record invariant
// 1 <= BP <= SP+1.
func TestInitialStateSatisfiesActivationInvariant(t *testing.T) {
	m := New(strings.NewReader(""), &bytes.Buffer{})
	if m.BP != 1 || m.SP != 0 || m.PC != 0 {
		t.Fatalf("New() = BP=%d SP=%d PC=%d, want BP=1 SP=0 PC=0", m.BP, m.SP, m.PC)
	}
	if !(1 <= m.BP && m.BP <= m.SP+1) {
		t.Fatalf("initial state violates 1<=BP<=SP+1: BP=%d SP=%d", m.BP, m.SP)
	}
}
