// Package token defines the shared vocabulary of token kinds and the
// reserved-word table used by both the lexer and the parser/code generator.
package token

import "fmt"

// Kind identifies the category of a lexed token. Kind values are stable
// integers: the parser and code generator dispatch on them directly.
type Kind int

const (
	// Null is the sentinel kind returned when peeking past the end of a
	// token stream.
	Null Kind = iota

	// Literals and identifiers.
	Ident
	Number

	// Operators and punctuation.
	Plus      // +
	Minus     // -
	Times     // *
	Slash     // /
	Eql       // =
	Neq       // <>
	Lss       // <
	Leq       // <=
	Gtr       // >
	Geq       // >=
	Becomes   // :=
	Lparen    // (
	Rparen    // )
	Comma     // ,
	Period    // .
	Semicolon // ;

	// Reserved words.
	Const
	Var
	Procedure
	Call
	Begin
	End
	If
	Then
	Else
	While
	Do
	Read
	Write
	Odd
)

// kindNames is indexed by Kind; keep in lockstep with the const block above.
var kindNames = [...]string{
	Null:      "null",
	Ident:     "ident",
	Number:    "number",
	Plus:      "+",
	Minus:     "-",
	Times:     "*",
	Slash:     "/",
	Eql:       "=",
	Neq:       "<>",
	Lss:       "<",
	Leq:       "<=",
	Gtr:       ">",
	Geq:       ">=",
	Becomes:   ":=",
	Lparen:    "(",
	Rparen:    ")",
	Comma:     ",",
	Period:    ".",
	Semicolon: ";",
	Const:     "const",
	Var:       "var",
	Procedure: "procedure",
	Call:      "call",
	Begin:     "begin",
	End:       "end",
	If:        "if",
	Then:      "then",
	Else:      "else",
	While:     "while",
	Do:        "do",
	Read:      "read",
	Write:     "write",
	Odd:       "odd",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Keywords maps reserved-word lexemes to their token kind, keyed by the
// matched identifier text once the lexer has greedily consumed it.
var Keywords = map[string]Kind{
	"const":     Const,
	"var":       Var,
	"procedure": Procedure,
	"call":      Call,
	"begin":     Begin,
	"end":       End,
	"if":        If,
	"then":      Then,
	"else":      Else,
	"while":     While,
	"do":        Do,
	"read":      Read,
	"write":     Write,
	"odd":       Odd,
}

// MaxIdentLen and MaxNumberLen bound the byte length of Ident and Number
// lexemes.
const (
	MaxIdentLen  = 11
	MaxNumberLen = 5
)

// Token is an immutable tagged value produced by the lexer. Line is a
// 0-based source line used for error reporting: the counter starts at 0
// and increments on each newline consumed.
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-12q line %d", t.Kind, t.Lexeme, t.Line)
}

// Stream is an ordered, finite sequence of tokens with a single-reader
// cursor. The cursor is advanced by the consumer; Peek past the end of the
// stream yields the Null sentinel.
type Stream struct {
	toks []Token
	pos  int
}

func NewStream(toks []Token) *Stream {
	return &Stream{toks: toks}
}

// Peek returns the current token without consuming it.
func (s *Stream) Peek() Token {
	if s.pos >= len(s.toks) {
		return Token{Kind: Null}
	}
	return s.toks[s.pos]
}

// PeekAt returns the token at the given offset from the current position.
func (s *Stream) PeekAt(offset int) Token {
	i := s.pos + offset
	if i < 0 || i >= len(s.toks) {
		return Token{Kind: Null}
	}
	return s.toks[i]
}

// Next consumes and returns the current token.
func (s *Stream) Next() Token {
	t := s.Peek()
	if s.pos < len(s.toks) {
		s.pos++
	}
	return t
}

// Pos returns the index of the token the cursor is currently on.
func (s *Stream) Pos() int {
	return s.pos
}
