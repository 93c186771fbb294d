package lexer

import (
	"testing"

	"pl0/pkg/lexerr"
	"pl0/pkg/token"
)

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestLexTokenKinds(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want []token.Kind
	}{
		{"period", ".", []token.Kind{token.Period}},
		{"assign", ":=", []token.Kind{token.Becomes}},
		{"relops", "= <> < <= > >=", []token.Kind{
			token.Eql, token.Neq, token.Lss, token.Leq, token.Gtr, token.Geq,
		}},
		{"keywords", "const var procedure call begin end if then else while do read write odd", []token.Kind{
			token.Const, token.Var, token.Procedure, token.Call, token.Begin,
			token.End, token.If, token.Then, token.Else, token.While, token.Do,
			token.Read, token.Write, token.Odd,
		}},
		{"ident and number", "abc 123", []token.Kind{token.Ident, token.Number}},
		{"comment skipped", "a /* a block comment */ b", []token.Kind{token.Ident, token.Ident}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			toks, err := Lex([]byte(c.src))
			if err != nil {
				t.Fatalf("Lex(%q) error: %v", c.src, err)
			}
			got := kinds(toks)
			if len(got) != len(c.want) {
				t.Fatalf("Lex(%q) = %v, want %v", c.src, got, c.want)
			}
			for i := range got {
				if got[i] != c.want[i] {
					t.Fatalf("Lex(%q)[%d] = %v, want %v", c.src, i, got[i], c.want[i])
				}
			}
		})
	}
}

func TestLexKeywordLexemeRelexes(t *testing.T) {
	toks, err := Lex([]byte("while"))
	if err != nil {
		t.Fatalf("Lex() error: %v", err)
	}
	retoks, rerr := Lex([]byte(toks[0].Lexeme))
	if rerr != nil {
		t.Fatalf("re-lex error: %v", rerr)
	}
	if retoks[0].Kind != toks[0].Kind {
		t.Fatalf("re-lexed kind %v != original kind %v", retoks[0].Kind, toks[0].Kind)
	}
}

func TestLexNameTooLongScenario(t *testing.T) {
	// twelve letters exceeds MaxIdentLen (11).
	toks, err := Lex([]byte("abcdefghijkl"))
	if err == nil {
		t.Fatalf("Lex() = %v, nil error; want NAME_TOO_LONG", toks)
	}
	if err.Code != lexerr.NameTooLong {
		t.Fatalf("err.Code = %v, want NameTooLong", err.Code)
	}
	if err.Line != 0 {
		t.Fatalf("err.Line = %d, want 0", err.Line)
	}
}

func TestLexNumTooLong(t *testing.T) {
	_, err := Lex([]byte("123456"))
	if err == nil || err.Code != lexerr.NumTooLong {
		t.Fatalf("Lex(123456) err = %v, want NumTooLong", err)
	}
}

func TestLexNonletterVarInitial(t *testing.T) {
	_, err := Lex([]byte("123abc"))
	if err == nil || err.Code != lexerr.NonletterVarInitial {
		t.Fatalf("Lex(123abc) err = %v, want NonletterVarInitial", err)
	}
}

func TestLexInvSym(t *testing.T) {
	_, err := Lex([]byte("@"))
	if err == nil || err.Code != lexerr.InvSym {
		t.Fatalf("Lex(@) err = %v, want InvSym", err)
	}
}

func TestLexBareColonIsInvSym(t *testing.T) {
	_, err := Lex([]byte(":"))
	if err == nil || err.Code != lexerr.InvSym {
		t.Fatalf("Lex(:) err = %v, want InvSym", err)
	}
}

func TestLexUnterminatedCommentIsInvSymAtOpeningLine(t *testing.T) {
	_, err := Lex([]byte("x\n/* never closed"))
	if err == nil || err.Code != lexerr.InvSym {
		t.Fatalf("err = %v, want InvSym", err)
	}
	if err.Line != 1 {
		t.Fatalf("err.Line = %d, want 1 (the line the comment opened)", err.Line)
	}
}

func TestLexEmptySourceIsNoSourceCode(t *testing.T) {
	_, err := Lex(nil)
	if err == nil || err.Code != lexerr.NoSourceCode {
		t.Fatalf("Lex(nil) err = %v, want NoSourceCode", err)
	}
}

func TestLexOverlongIdentDoesNotConsumeFollowingChar(t *testing.T) {
	// 12 alnums followed by a period: the scanner greedily consumes ident
	// chars but must not stop early and swallow the period along with them.
	toks, err := Lex([]byte("abcdefghijkl."))
	if err == nil {
		t.Fatalf("Lex() = %v, nil error; want NAME_TOO_LONG", toks)
	}
	if err.Code != lexerr.NameTooLong {
		t.Fatalf("err.Code = %v, want NameTooLong", err.Code)
	}
}

func TestLexLineCounting(t *testing.T) {
	toks, err := Lex([]byte("a\nb\nc"))
	if err != nil {
		t.Fatalf("Lex() error: %v", err)
	}
	wantLines := []int{0, 1, 2}
	for i, want := range wantLines {
		if toks[i].Line != want {
			t.Errorf("toks[%d].Line = %d, want %d", i, toks[i].Line, want)
		}
	}
}
