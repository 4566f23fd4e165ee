package tools

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrDivisionByZero is returned for x/0 and x%0.
var ErrDivisionByZero = errors.New("division by zero")

// SyntaxError reports a malformed expression.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

// Evaluate computes an arithmetic expression. Supported: numbers, + - * / %,
// ^ and ** (right associative), parentheses, unary minus, the constants pi
// and e, and abs, round, sqrt, pow, min, max, sum. Nothing else is
// interpreted.
func Evaluate(expr string) (float64, error) {
	p := &parser{src: expr}
	p.next()
	v, err := p.expression()
	if err != nil {
		return 0, err
	}
	if p.tok.kind != tokEOF {
		return 0, p.errorf("unexpected %q", p.tok.text)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("result is not a finite number")
	}
	return v, nil
}

// FormatNumber renders whole numbers without a fraction.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// parser is a recursive-descent evaluator:
//
//	expression = term { ("+" | "-") term }
//	term       = unary { ("*" | "/" | "%") unary }
//	unary      = ("-" | "+") unary | power
//	power      = primary [ ("^" | "**") unary ]
//	primary    = number | ident [ "(" args ")" ] | "(" expression ")"
type parser struct {
	src string
	pos int
	tok token
	err error
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Pos: p.tok.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) next() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
	start := p.pos
	if p.pos >= len(p.src) {
		p.tok = token{kind: tokEOF, pos: start}
		return
	}

	c := p.src[p.pos]
	switch {
	case c >= '0' && c <= '9' || c == '.':
		for p.pos < len(p.src) && (isDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
			p.pos++
		}
		// Exponent: 1e3, 2.5E-4
		if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
			end := p.pos + 1
			if end < len(p.src) && (p.src[end] == '+' || p.src[end] == '-') {
				end++
			}
			if end < len(p.src) && isDigit(p.src[end]) {
				for end < len(p.src) && isDigit(p.src[end]) {
					end++
				}
				p.pos = end
			}
		}
		text := p.src[start:p.pos]
		num, err := strconv.ParseFloat(text, 64)
		if err != nil {
			p.tok = token{kind: tokNumber, text: text, pos: start}
			p.err = &SyntaxError{Pos: start, Msg: fmt.Sprintf("invalid number %q", text)}
			return
		}
		p.tok = token{kind: tokNumber, text: text, num: num, pos: start}
	case c == '_' || unicode.IsLetter(rune(c)):
		for p.pos < len(p.src) && (p.src[p.pos] == '_' || isDigit(p.src[p.pos]) || unicode.IsLetter(rune(p.src[p.pos]))) {
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: p.src[start:p.pos], pos: start}
	case c == '*' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '*':
		p.pos += 2
		p.tok = token{kind: tokOp, text: "**", pos: start}
	case strings.IndexByte("+-*/%^", c) >= 0:
		p.pos++
		p.tok = token{kind: tokOp, text: string(c), pos: start}
	case c == '(':
		p.pos++
		p.tok = token{kind: tokLParen, text: "(", pos: start}
	case c == ')':
		p.pos++
		p.tok = token{kind: tokRParen, text: ")", pos: start}
	case c == ',':
		p.pos++
		p.tok = token{kind: tokComma, text: ",", pos: start}
	default:
		p.pos++
		p.tok = token{kind: tokOp, text: string(c), pos: start}
		p.err = &SyntaxError{Pos: start, Msg: fmt.Sprintf("unexpected character %q", c)}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (p *parser) isOp(ops ...string) bool {
	if p.tok.kind != tokOp {
		return false
	}
	for _, op := range ops {
		if p.tok.text == op {
			return true
		}
	}
	return false
}

func (p *parser) expression() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for p.isOp("+", "-") {
		op := p.tok.text
		p.next()
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == "+" {
			left += right
		} else {
			left -= right
		}
	}
	return left, nil
}

func (p *parser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for p.isOp("*", "/", "%") {
		op := p.tok.text
		p.next()
		right, err := p.unary()
		if err != nil {
			return 0, err
		}
		switch op {
		case "*":
			left *= right
		case "/":
			if right == 0 {
				return 0, ErrDivisionByZero
			}
			left /= right
		case "%":
			if right == 0 {
				return 0, ErrDivisionByZero
			}
			// Floored modulo: the result takes the sign of the divisor.
			left = left - right*math.Floor(left/right)
		}
	}
	return left, nil
}

func (p *parser) unary() (float64, error) {
	if p.isOp("-", "+") {
		neg := p.tok.text == "-"
		p.next()
		v, err := p.unary()
		if err != nil {
			return 0, err
		}
		if neg {
			v = -v
		}
		return v, nil
	}
	return p.power()
}

func (p *parser) power() (float64, error) {
	base, err := p.primary()
	if err != nil {
		return 0, err
	}
	if p.isOp("^", "**") {
		p.next()
		exp, err := p.unary()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

func (p *parser) primary() (float64, error) {
	if p.err != nil {
		return 0, p.err
	}
	switch p.tok.kind {
	case tokNumber:
		v := p.tok.num
		p.next()
		return v, nil
	case tokLParen:
		p.next()
		v, err := p.expression()
		if err != nil {
			return 0, err
		}
		if p.tok.kind != tokRParen {
			return 0, p.errorf("expected )")
		}
		p.next()
		return v, nil
	case tokIdent:
		name := p.tok.text
		p.next()
		if p.tok.kind != tokLParen {
			c, ok := constants[name]
			if !ok {
				return 0, p.errorf("unknown name %q", name)
			}
			return c, nil
		}
		args, err := p.arguments()
		if err != nil {
			return 0, err
		}
		return callFunction(name, args)
	case tokEOF:
		return 0, p.errorf("unexpected end of expression")
	default:
		return 0, p.errorf("unexpected %q", p.tok.text)
	}
}

// arguments parses "(" [expression {"," expression}] ")".
func (p *parser) arguments() ([]float64, error) {
	p.next() // (
	var args []float64
	if p.tok.kind == tokRParen {
		p.next()
		return args, nil
	}
	for {
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		switch p.tok.kind {
		case tokComma:
			p.next()
		case tokRParen:
			p.next()
			return args, nil
		default:
			return nil, p.errorf("expected , or )")
		}
	}
}

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

func callFunction(name string, args []float64) (float64, error) {
	want := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s takes %d argument(s), got %d", name, n, len(args))
		}
		return nil
	}

	switch name {
	case "abs":
		if err := want(1); err != nil {
			return 0, err
		}
		return math.Abs(args[0]), nil
	case "sqrt":
		if err := want(1); err != nil {
			return 0, err
		}
		if args[0] < 0 {
			return 0, errors.New("sqrt of a negative number")
		}
		return math.Sqrt(args[0]), nil
	case "round":
		switch len(args) {
		case 1:
			return math.RoundToEven(args[0]), nil
		case 2:
			scale := math.Pow(10, math.Trunc(args[1]))
			return math.RoundToEven(args[0]*scale) / scale, nil
		}
		return 0, fmt.Errorf("round takes 1 or 2 arguments, got %d", len(args))
	case "pow":
		if err := want(2); err != nil {
			return 0, err
		}
		return math.Pow(args[0], args[1]), nil
	case "min", "max":
		if len(args) == 0 {
			return 0, fmt.Errorf("%s needs at least one argument", name)
		}
		v := args[0]
		for _, a := range args[1:] {
			if name == "min" {
				v = math.Min(v, a)
			} else {
				v = math.Max(v, a)
			}
		}
		return v, nil
	case "sum":
		var total float64
		for _, a := range args {
			total += a
		}
		return total, nil
	default:
		return 0, fmt.Errorf("unknown function %q", name)
	}
}
