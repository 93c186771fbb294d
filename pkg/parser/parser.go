// Package parser implements a semantic-free recursive-descent validator:
// it checks a token stream against the PL/0 grammar and performs no code
// emission. The code generator (pkg/codegen) walks the identical grammar
// shape with side effects, so the control flow below is named after the
// grammar's own non-terminals (program/block/statement/condition/
// expression/term/factor) and kept as the skeleton codegen's walk is built
// from.
package parser

import (
	"pl0/pkg/perr"
	"pl0/pkg/token"
)

type parser struct {
	s *token.Stream
}

// Parse validates that toks matches the PL/0 grammar. It returns nil on
// success or the first *perr.Error encountered.
func Parse(toks []token.Token) *perr.Error {
	p := &parser{s: token.NewStream(toks)}
	return p.program()
}

func (p *parser) cur() token.Token {
	return p.s.Peek()
}

// expect consumes the current token if it matches kind, else returns err.
func (p *parser) expect(kind token.Kind, err perr.Code) *perr.Error {
	if p.cur().Kind != kind {
		return perr.New(err, p.cur().Line)
	}
	p.s.Next()
	return nil
}

// program = block "." .
func (p *parser) program() *perr.Error {
	if err := p.block(); err != nil {
		return err
	}
	return p.expect(token.Period, perr.PeriodExpected)
}

// block = [const-decl] [var-decl] {proc-decl} statement .
func (p *parser) block() *perr.Error {
	if p.cur().Kind == token.Const {
		if err := p.constDecl(); err != nil {
			return err
		}
	}
	if p.cur().Kind == token.Var {
		if err := p.varDecl(); err != nil {
			return err
		}
	}
	for p.cur().Kind == token.Procedure {
		if err := p.procDecl(); err != nil {
			return err
		}
	}
	return p.statement()
}

// const-decl = "const" ident "=" number {"," ident "=" number} ";" .
func (p *parser) constDecl() *perr.Error {
	p.s.Next() // consume "const"
	for {
		if p.cur().Kind != token.Ident {
			return perr.New(perr.DeclExpectedIdent, p.cur().Line)
		}
		p.s.Next()
		if err := p.expect(token.Eql, perr.IdentExpectedEql); err != nil {
			return err
		}
		if p.cur().Kind != token.Number {
			return perr.New(perr.EqlExpectedNumber, p.cur().Line)
		}
		p.s.Next()
		if p.cur().Kind == token.Comma {
			p.s.Next()
			continue
		}
		break
	}
	return p.expect(token.Semicolon, perr.SemiOrCommaMissing)
}

// var-decl = "var" ident {"," ident} ";" .
func (p *parser) varDecl() *perr.Error {
	p.s.Next() // consume "var"
	for {
		if p.cur().Kind != token.Ident {
			return perr.New(perr.DeclExpectedIdent, p.cur().Line)
		}
		p.s.Next()
		if p.cur().Kind == token.Comma {
			p.s.Next()
			continue
		}
		break
	}
	return p.expect(token.Semicolon, perr.SemiOrCommaMissing)
}

// proc-decl = "procedure" ident ";" block ";" .
func (p *parser) procDecl() *perr.Error {
	p.s.Next() // consume "procedure"
	if p.cur().Kind != token.Ident {
		return perr.New(perr.DeclExpectedIdent, p.cur().Line)
	}
	p.s.Next()
	if err := p.expect(token.Semicolon, perr.SemiMissing); err != nil {
		return err
	}
	if err := p.block(); err != nil {
		return err
	}
	return p.expect(token.Semicolon, perr.SemiMissing)
}

// statement = [ ident ":=" expression
//             | "call" ident
//             | "begin" statement {";" statement} "end"
//             | "if" condition "then" statement ["else" statement]
//             | "while" condition "do" statement
//             | "read" ident
//             | "write" ident ] .
func (p *parser) statement() *perr.Error {
	switch p.cur().Kind {
	case token.Ident:
		p.s.Next()
		if err := p.expect(token.Becomes, perr.BecomesExpected); err != nil {
			return err
		}
		return p.expression()

	case token.Call:
		p.s.Next()
		if p.cur().Kind != token.Ident {
			return perr.New(perr.CallExpectedIdent, p.cur().Line)
		}
		p.s.Next()
		return nil

	case token.Begin:
		p.s.Next()
		if err := p.statement(); err != nil {
			return err
		}
		for p.cur().Kind == token.Semicolon {
			p.s.Next()
			if err := p.statement(); err != nil {
				return err
			}
		}
		return p.expect(token.End, perr.SemiOrEndExpected)

	case token.If:
		p.s.Next()
		if err := p.condition(); err != nil {
			return err
		}
		if err := p.expect(token.Then, perr.ThenExpected); err != nil {
			return err
		}
		if err := p.statement(); err != nil {
			return err
		}
		if p.cur().Kind == token.Else {
			p.s.Next()
			return p.statement()
		}
		return nil

	case token.While:
		p.s.Next()
		if err := p.condition(); err != nil {
			return err
		}
		if err := p.expect(token.Do, perr.DoExpected); err != nil {
			return err
		}
		return p.statement()

	case token.Read:
		p.s.Next()
		if p.cur().Kind != token.Ident {
			return perr.New(perr.DeclExpectedIdent, p.cur().Line)
		}
		p.s.Next()
		return nil

	case token.Write:
		p.s.Next()
		if p.cur().Kind != token.Ident {
			return perr.New(perr.DeclExpectedIdent, p.cur().Line)
		}
		p.s.Next()
		return nil

	default:
		// statement may be empty.
		return nil
	}
}

// condition = "odd" expression | expression relop expression .
func (p *parser) condition() *perr.Error {
	if p.cur().Kind == token.Odd {
		p.s.Next()
		return p.expression()
	}
	if err := p.expression(); err != nil {
		return err
	}
	if !isRelop(p.cur().Kind) {
		return perr.New(perr.RelopExpected, p.cur().Line)
	}
	p.s.Next()
	return p.expression()
}

func isRelop(k token.Kind) bool {
	switch k {
	case token.Eql, token.Neq, token.Lss, token.Leq, token.Gtr, token.Geq:
		return true
	default:
		return false
	}
}

// expression = ["+"|"-"] term {("+"|"-") term} .
func (p *parser) expression() *perr.Error {
	if p.cur().Kind == token.Plus || p.cur().Kind == token.Minus {
		p.s.Next()
	}
	if err := p.term(); err != nil {
		return err
	}
	for p.cur().Kind == token.Plus || p.cur().Kind == token.Minus {
		p.s.Next()
		if err := p.term(); err != nil {
			return err
		}
	}
	return nil
}

// term = factor {("*"|"/") factor} .
func (p *parser) term() *perr.Error {
	if err := p.factor(); err != nil {
		return err
	}
	for p.cur().Kind == token.Times || p.cur().Kind == token.Slash {
		p.s.Next()
		if err := p.factor(); err != nil {
			return err
		}
	}
	return nil
}

// factor = ident | number | "(" expression ")" .
func (p *parser) factor() *perr.Error {
	switch p.cur().Kind {
	case token.Ident, token.Number:
		p.s.Next()
		return nil
	case token.Lparen:
		p.s.Next()
		if err := p.expression(); err != nil {
			return err
		}
		return p.expect(token.Rparen, perr.RparenMissing)
	default:
		return perr.New(perr.BadFactor, p.cur().Line)
	}
}
