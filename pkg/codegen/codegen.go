// Package codegen implements the code generator: the same recursive-descent
// grammar as pkg/parser, augmented with symbol insertion, register
// allocation, and instruction emission.
//
// State that a naive port would leave as package-level globals (the token
// cursor, current lexical level, current scope, symbol table) is bundled
// instead into the generator struct threaded through the recursive-descent
// methods, so a generator instance owns its entire pass and nothing is
// shared across concurrent compiles.
//
// A few things worth calling out about the emission scheme:
//   - assignment resolves the target identifier before parsing the RHS
//     expression, since by the time the RHS has been parsed the token
//     cursor has moved well past the target;
//   - "write" loads its operand into a register before SIO_WRITE rather
//     than reading an uninitialized one;
//   - binary operators use the register pair (cr-2, cr-1): the two operands
//     an expression just pushed, immediately below the cursor.
package codegen

import (
	"errors"
	"fmt"
	"strconv"

	"pl0/pkg/perr"
	"pl0/pkg/symtable"
	"pl0/pkg/token"
	"pl0/pkg/vm"
)

// ErrCodeTooLong and ErrRegisterOverflow are fatal code-generator
// conditions outside the closed parser/codegen error table: that table
// enumerates grammar mismatches, while these are resource-exhaustion
// faults that must be surfaced rather than silently overflowing a fixed-
// size image or register file.
var (
	ErrCodeTooLong      = errors.New("codegen: instruction image exceeds max code length")
	ErrRegisterOverflow = errors.New("codegen: expression exceeds 16-register capacity")
)

// UndeclaredError reports a reference to a name with no visible
// declaration. The closed error table has no code for this case, so it is
// reported as a distinct Go error type rather than force-fit into
// perr.Code.
type UndeclaredError struct {
	Name string
	Line int
}

func (e *UndeclaredError) Error() string {
	return fmt.Sprintf("codegen: undeclared identifier %q (line %d)", e.Name, e.Line)
}

type generator struct {
	s   *token.Stream
	sym *symtable.Table
	img vm.Image
	cr  int32 // monotone register cursor
}

// Generate compiles toks to an instruction image, or returns the first
// error encountered. It performs its own grammar walk over toks
// independently of pkg/parser: the two share one grammar shape but run as
// separate passes over the same raw token stream.
func Generate(toks []token.Token) (vm.Image, error) {
	g := &generator{s: token.NewStream(toks), sym: symtable.New()}
	if err := g.program(); err != nil {
		return nil, err
	}
	return g.img, nil
}

func (g *generator) cur() token.Token {
	return g.s.Peek()
}

func (g *generator) expect(kind token.Kind, err perr.Code) error {
	if g.cur().Kind != kind {
		return perr.New(err, g.cur().Line)
	}
	g.s.Next()
	return nil
}

func (g *generator) emit(op vm.Op, r, l, m int32) (int32, error) {
	if len(g.img) >= vm.MaxCodeLength {
		return 0, ErrCodeTooLong
	}
	idx := int32(len(g.img))
	g.img = append(g.img, vm.Instruction{Op: op, R: r, L: l, M: m})
	return idx, nil
}

// pushReg reserves the next register on the expression stack.
func (g *generator) pushReg() (int32, error) {
	if g.cr >= 16 {
		return 0, ErrRegisterOverflow
	}
	r := g.cr
	g.cr++
	return r, nil
}

// staticLinkDistance computes L = max(0, Lc-Ld).
func staticLinkDistance(lc, ld int) int32 {
	d := lc - ld
	if d < 0 {
		d = 0
	}
	return int32(d)
}

// program = block "." .
func (g *generator) program() error {
	if err := g.block(); err != nil {
		return err
	}
	if err := g.expect(token.Period, perr.PeriodExpected); err != nil {
		return err
	}
	_, err := g.emit(vm.OpSIOHalt, 0, 0, 3)
	return err
}

// block = [const-decl] [var-decl] {proc-decl} statement .
func (g *generator) block() error {
	if g.cur().Kind == token.Const {
		if err := g.constDecl(); err != nil {
			return err
		}
	}
	if g.cur().Kind == token.Var {
		if err := g.varDecl(); err != nil {
			return err
		}
	}
	for g.cur().Kind == token.Procedure {
		if err := g.procDecl(); err != nil {
			return err
		}
	}
	return g.statement()
}

// constDecl inserts a CONST symbol per binding; it emits no code.
func (g *generator) constDecl() error {
	g.s.Next() // consume "const"
	for {
		if g.cur().Kind != token.Ident {
			return perr.New(perr.DeclExpectedIdent, g.cur().Line)
		}
		name := g.cur().Lexeme
		g.s.Next()
		if err := g.expect(token.Eql, perr.IdentExpectedEql); err != nil {
			return err
		}
		if g.cur().Kind != token.Number {
			return perr.New(perr.EqlExpectedNumber, g.cur().Line)
		}
		val, err := strconv.Atoi(g.cur().Lexeme)
		if err != nil {
			return perr.New(perr.EqlExpectedNumber, g.cur().Line)
		}
		g.s.Next()
		g.sym.Add(symtable.Symbol{Name: name, Kind: symtable.KindConst, Value: int32(val)})
		if g.cur().Kind == token.Comma {
			g.s.Next()
			continue
		}
		break
	}
	return g.expect(token.Semicolon, perr.SemiOrCommaMissing)
}

// varDecl assigns each VAR the next stack slot starting at offset 4 within
// the current activation record, incrementing by 1 per VAR, and emits one
// INC 0 0 1 per variable. At the global level no CAL has reserved the
// frame's four header cells, so it first emits INC 0 0 4 to do so; without
// it a later CAL would build its frame on top of the globals.
func (g *generator) varDecl() error {
	g.s.Next() // consume "var"
	if g.sym.Level() == 0 {
		if _, err := g.emit(vm.OpINC, 0, 0, 4); err != nil {
			return err
		}
	}
	addr := int32(4)
	for {
		if g.cur().Kind != token.Ident {
			return perr.New(perr.DeclExpectedIdent, g.cur().Line)
		}
		name := g.cur().Lexeme
		g.s.Next()
		g.sym.Add(symtable.Symbol{Name: name, Kind: symtable.KindVar, Address: addr})
		if _, err := g.emit(vm.OpINC, 0, 0, 1); err != nil {
			return err
		}
		addr++
		if g.cur().Kind == token.Comma {
			g.s.Next()
			continue
		}
		break
	}
	return g.expect(token.Semicolon, perr.SemiOrCommaMissing)
}

// procDecl emits a procedure: a leading JMP over the body (backpatched once
// the body's length is known), the frame-reserving prologue, the body
// itself in its own scope, and a trailing RTN.
func (g *generator) procDecl() error {
	for g.cur().Kind == token.Procedure {
		g.s.Next() // consume "procedure"
		if g.cur().Kind != token.Ident {
			return perr.New(perr.DeclExpectedIdent, g.cur().Line)
		}
		name := g.cur().Lexeme
		g.s.Next()

		procSym := g.sym.Add(symtable.Symbol{Name: name, Kind: symtable.KindProc})

		if err := g.expect(token.Semicolon, perr.SemiMissing); err != nil {
			return err
		}

		jmpIdx, err := g.emit(vm.OpJMP, 0, 0, 0)
		if err != nil {
			return err
		}
		procSym.Address = int32(len(g.img)) // entry = the prologue INC, not the JMP

		if _, err := g.emit(vm.OpINC, 0, 0, 4); err != nil {
			return err
		}

		g.sym.OpenScope(procSym)
		err = g.block()
		g.sym.CloseScope()
		if err != nil {
			return err
		}

		if _, err := g.emit(vm.OpRTN, 0, 0, 0); err != nil {
			return err
		}
		g.img[jmpIdx].M = int32(len(g.img))

		if err := g.expect(token.Semicolon, perr.SemiMissing); err != nil {
			return err
		}
	}
	return nil
}

// statement dispatches on the leading token, emitting code for whichever of
// the seven statement forms (or the empty statement) is present.
func (g *generator) statement() error {
	switch g.cur().Kind {
	case token.Ident:
		return g.assignStatement()
	case token.Call:
		return g.callStatement()
	case token.Begin:
		return g.beginStatement()
	case token.If:
		return g.ifStatement()
	case token.While:
		return g.whileStatement()
	case token.Read:
		return g.readStatement()
	case token.Write:
		return g.writeStatement()
	default:
		return nil
	}
}

// assignStatement resolves the target identifier before parsing the RHS,
// while the token cursor is still sitting on the target.
func (g *generator) assignStatement() error {
	name, line := g.cur().Lexeme, g.cur().Line
	g.s.Next()
	if err := g.expect(token.Becomes, perr.BecomesExpected); err != nil {
		return err
	}
	sym, ok := g.sym.Find(name)
	if !ok {
		return &UndeclaredError{Name: name, Line: line}
	}
	if sym.Kind != symtable.KindVar {
		return perr.New(perr.AssignToConstOrProc, line)
	}
	if err := g.expression(); err != nil {
		return err
	}
	l := staticLinkDistance(g.sym.Level(), sym.Level)
	r := g.cr - 1
	if _, err := g.emit(vm.OpSTO, r, l, sym.Address); err != nil {
		return err
	}
	g.cr--
	return nil
}

func (g *generator) callStatement() error {
	g.s.Next() // consume "call"
	if g.cur().Kind != token.Ident {
		return perr.New(perr.CallExpectedIdent, g.cur().Line)
	}
	name, line := g.cur().Lexeme, g.cur().Line
	g.s.Next()
	sym, ok := g.sym.Find(name)
	if !ok {
		return &UndeclaredError{Name: name, Line: line}
	}
	if sym.Kind != symtable.KindProc {
		return perr.New(perr.CallOfConstOrVar, line)
	}
	l := staticLinkDistance(g.sym.Level(), sym.Level)
	_, err := g.emit(vm.OpCAL, 0, l, sym.Address)
	return err
}

func (g *generator) beginStatement() error {
	g.s.Next() // consume "begin"
	if err := g.statement(); err != nil {
		return err
	}
	for g.cur().Kind == token.Semicolon {
		g.s.Next()
		if err := g.statement(); err != nil {
			return err
		}
	}
	return g.expect(token.End, perr.SemiOrEndExpected)
}

func (g *generator) ifStatement() error {
	g.s.Next() // consume "if"
	if err := g.condition(); err != nil {
		return err
	}
	if err := g.expect(token.Then, perr.ThenExpected); err != nil {
		return err
	}
	condReg := g.cr - 1
	jpcIdx, err := g.emit(vm.OpJPC, condReg, 0, 0)
	if err != nil {
		return err
	}
	g.cr--

	if err := g.statement(); err != nil {
		return err
	}

	if g.cur().Kind == token.Else {
		g.s.Next()
		jmpIdx, err := g.emit(vm.OpJMP, 0, 0, 0)
		if err != nil {
			return err
		}
		g.img[jpcIdx].M = int32(len(g.img))
		if err := g.statement(); err != nil {
			return err
		}
		g.img[jmpIdx].M = int32(len(g.img))
		return nil
	}

	g.img[jpcIdx].M = int32(len(g.img))
	return nil
}

func (g *generator) whileStatement() error {
	g.s.Next() // consume "while"
	l1 := int32(len(g.img))
	if err := g.condition(); err != nil {
		return err
	}
	condReg := g.cr - 1
	jpcIdx, err := g.emit(vm.OpJPC, condReg, 0, 0)
	if err != nil {
		return err
	}
	g.cr--

	if err := g.expect(token.Do, perr.DoExpected); err != nil {
		return err
	}
	if err := g.statement(); err != nil {
		return err
	}
	if _, err := g.emit(vm.OpJMP, 0, 0, l1); err != nil {
		return err
	}
	g.img[jpcIdx].M = int32(len(g.img))
	return nil
}

// readStatement reserves a temporary register, reads into it with
// SIO_READ, stores it into the target, then frees the temporary.
func (g *generator) readStatement() error {
	g.s.Next() // consume "read"
	if g.cur().Kind != token.Ident {
		return perr.New(perr.DeclExpectedIdent, g.cur().Line)
	}
	name, line := g.cur().Lexeme, g.cur().Line
	g.s.Next()
	sym, ok := g.sym.Find(name)
	if !ok {
		return &UndeclaredError{Name: name, Line: line}
	}
	r, err := g.pushReg()
	if err != nil {
		return err
	}
	if _, err := g.emit(vm.OpSIORead, r, 0, 2); err != nil {
		return err
	}
	l := staticLinkDistance(g.sym.Level(), sym.Level)
	if _, err := g.emit(vm.OpSTO, r, l, sym.Address); err != nil {
		return err
	}
	g.cr--
	return nil
}

// writeStatement loads the operand into a register before emitting
// SIO_WRITE on it.
func (g *generator) writeStatement() error {
	g.s.Next() // consume "write"
	if g.cur().Kind != token.Ident {
		return perr.New(perr.DeclExpectedIdent, g.cur().Line)
	}
	name, line := g.cur().Lexeme, g.cur().Line
	g.s.Next()
	sym, ok := g.sym.Find(name)
	if !ok {
		return &UndeclaredError{Name: name, Line: line}
	}
	r, err := g.pushReg()
	if err != nil {
		return err
	}
	l := staticLinkDistance(g.sym.Level(), sym.Level)
	if _, err := g.emit(vm.OpLOD, r, l, sym.Address); err != nil {
		return err
	}
	if _, err := g.emit(vm.OpSIOWrite, r, 0, 1); err != nil {
		return err
	}
	g.cr--
	return nil
}

// condition = "odd" expression | expression relop expression .
func (g *generator) condition() error {
	if g.cur().Kind == token.Odd {
		g.s.Next()
		if err := g.expression(); err != nil {
			return err
		}
		r := g.cr - 1
		_, err := g.emit(vm.OpODD, r, r, 0)
		return err
	}

	if err := g.expression(); err != nil {
		return err
	}
	op, ok := relopOpcode(g.cur().Kind)
	if !ok {
		return perr.New(perr.RelopExpected, g.cur().Line)
	}
	g.s.Next()
	if err := g.expression(); err != nil {
		return err
	}
	r := g.cr - 2
	if _, err := g.emit(op, r, r, g.cr-1); err != nil {
		return err
	}
	g.cr--
	return nil
}

func relopOpcode(k token.Kind) (vm.Op, bool) {
	switch k {
	case token.Eql:
		return vm.OpEQL, true
	case token.Neq:
		return vm.OpNEQ, true
	case token.Lss:
		return vm.OpLSS, true
	case token.Leq:
		return vm.OpLEQ, true
	case token.Gtr:
		return vm.OpGTR, true
	case token.Geq:
		return vm.OpGEQ, true
	default:
		return 0, false
	}
}

// expression = ["+"|"-"] term {("+"|"-") term} .
func (g *generator) expression() error {
	neg := false
	if g.cur().Kind == token.Plus {
		g.s.Next()
	} else if g.cur().Kind == token.Minus {
		g.s.Next()
		neg = true
	}
	if err := g.term(); err != nil {
		return err
	}
	if neg {
		r := g.cr - 1
		if _, err := g.emit(vm.OpNEG, r, r, 0); err != nil {
			return err
		}
	}

	for g.cur().Kind == token.Plus || g.cur().Kind == token.Minus {
		isMinus := g.cur().Kind == token.Minus
		g.s.Next()
		if err := g.term(); err != nil {
			return err
		}
		r := g.cr - 2
		op := vm.OpADD
		if isMinus {
			op = vm.OpSUB
		}
		if _, err := g.emit(op, r, r, g.cr-1); err != nil {
			return err
		}
		g.cr--
	}
	return nil
}

// term = factor {("*"|"/") factor} .
func (g *generator) term() error {
	if err := g.factor(); err != nil {
		return err
	}
	for g.cur().Kind == token.Times || g.cur().Kind == token.Slash {
		isDiv := g.cur().Kind == token.Slash
		g.s.Next()
		if err := g.factor(); err != nil {
			return err
		}
		r := g.cr - 2
		op := vm.OpMUL
		if isDiv {
			op = vm.OpDIV
		}
		if _, err := g.emit(op, r, r, g.cr-1); err != nil {
			return err
		}
		g.cr--
	}
	return nil
}

// factor = ident | number | "(" expression ")" .
func (g *generator) factor() error {
	switch g.cur().Kind {
	case token.Ident:
		name, line := g.cur().Lexeme, g.cur().Line
		g.s.Next()
		sym, ok := g.sym.Find(name)
		if !ok {
			return &UndeclaredError{Name: name, Line: line}
		}
		r, err := g.pushReg()
		if err != nil {
			return err
		}
		if sym.Kind == symtable.KindConst {
			_, err = g.emit(vm.OpLIT, r, 0, sym.Value)
		} else {
			l := staticLinkDistance(g.sym.Level(), sym.Level)
			_, err = g.emit(vm.OpLOD, r, l, sym.Address)
		}
		return err

	case token.Number:
		n, err := strconv.Atoi(g.cur().Lexeme)
		if err != nil {
			return perr.New(perr.BadFactor, g.cur().Line)
		}
		g.s.Next()
		r, err := g.pushReg()
		if err != nil {
			return err
		}
		_, err = g.emit(vm.OpLIT, r, 0, int32(n))
		return err

	case token.Lparen:
		g.s.Next()
		if err := g.expression(); err != nil {
			return err
		}
		return g.expect(token.Rparen, perr.RparenMissing)

	default:
		return perr.New(perr.BadFactor, g.cur().Line)
	}
}
