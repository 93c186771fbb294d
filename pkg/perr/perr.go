// Package perr defines the closed set of parser/code-generator error
// codes. The parser and code generator share this type because the code
// generator is the parser's grammar skeleton augmented with symbol
// resolution and emission.
package perr

import "fmt"

// Code is one of seventeen stable error codes. Code 15 is reserved (it
// names no message) and is never produced.
type Code int

const (
	_ Code = iota // codes are 1-based; 0 is never used
	EqlExpectedNumber
	IdentExpectedEql
	DeclExpectedIdent
	SemiOrCommaMissing
	SemiMissing
	PeriodExpected
	BecomesExpected
	CallExpectedIdent
	ThenExpected
	SemiOrEndExpected
	DoExpected
	RelopExpected
	RparenMissing
	BadFactor
	_reserved15
	AssignToConstOrProc
	CallOfConstOrVar
)

var messages = map[Code]string{
	EqlExpectedNumber:   "'=' must be followed by a number",
	IdentExpectedEql:    "identifier must be followed by '='",
	DeclExpectedIdent:   "const/var/procedure/read/write must be followed by identifier",
	SemiOrCommaMissing:  "semicolon or comma missing",
	SemiMissing:         "semicolon missing",
	PeriodExpected:      "period expected",
	BecomesExpected:     "assignment operator expected",
	CallExpectedIdent:   "'call' must be followed by identifier",
	ThenExpected:        "'then' expected",
	SemiOrEndExpected:   "semicolon or 'end' expected",
	DoExpected:          "'do' expected",
	RelopExpected:       "relational operator expected",
	RparenMissing:       "right parenthesis missing",
	BadFactor:           "factor cannot begin with this symbol",
	AssignToConstOrProc: "assignment to constant or procedure not allowed",
	CallOfConstOrVar:    "call of a constant or variable not allowed",
}

func (c Code) String() string {
	if m, ok := messages[c]; ok {
		return m
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Error is the parser/code-generator's discriminated failure result: the
// first mismatch aborts the stage.
type Error struct {
	Code Code
	Line int
}

func (e *Error) Error() string {
	return fmt.Sprintf("error %d: %s (line %d)", int(e.Code), e.Code, e.Line)
}

func New(code Code, line int) *Error {
	return &Error{Code: code, Line: line}
}
