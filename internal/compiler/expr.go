package compiler

import (
	"fmt"
	"strings"
	"unicode"
)

// The interpolation language inside %...% spans is deliberately small:
// string literals, loop-variable references, + concatenation, and builtin
// function calls.
//
//	expr := term { "+" term }
//	term := name | name "(" expr ")" | "'" text "'" | '"' text '"'

type evaluator struct {
	vars map[string]string
}

func (e *evaluator) eval(expr string) (string, error) {
	p := &exprParser{input: expr, vars: e.vars}
	result, err := p.parseExpr()
	if err != nil {
		return "", err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return "", fmt.Errorf("unexpected %q", p.input[p.pos:])
	}
	return result, nil
}

type exprParser struct {
	input string
	pos   int
	vars  map[string]string
}

func (p *exprParser) parseExpr() (string, error) {
	result, err := p.parseTerm()
	if err != nil {
		return "", err
	}
	for {
		p.skipSpaces()
		if p.pos >= len(p.input) || p.input[p.pos] != '+' {
			return result, nil
		}
		p.pos++
		term, err := p.parseTerm()
		if err != nil {
			return "", err
		}
		result += term
	}
}

func (p *exprParser) parseTerm() (string, error) {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return "", fmt.Errorf("unexpected end of expression")
	}

	switch ch := p.input[p.pos]; {
	case ch == '\'' || ch == '"':
		p.pos++
		end := strings.IndexByte(p.input[p.pos:], ch)
		if end < 0 {
			return "", fmt.Errorf("unterminated string literal")
		}
		lit := p.input[p.pos : p.pos+end]
		p.pos += end + 1
		return lit, nil

	case isNameChar(ch):
		start := p.pos
		for p.pos < len(p.input) && isNameChar(p.input[p.pos]) {
			p.pos++
		}
		name := p.input[start:p.pos]
		p.skipSpaces()
		if p.pos < len(p.input) && p.input[p.pos] == '(' {
			return p.parseCall(name)
		}
		value, ok := p.vars[name]
		if !ok {
			return "", fmt.Errorf("undefined variable %q", name)
		}
		return value, nil

	default:
		return "", fmt.Errorf("unexpected character %q", string(ch))
	}
}

func (p *exprParser) parseCall(name string) (string, error) {
	p.pos++ // consume '('
	arg, err := p.parseExpr()
	if err != nil {
		return "", err
	}
	p.skipSpaces()
	if p.pos >= len(p.input) || p.input[p.pos] != ')' {
		return "", fmt.Errorf("missing closing parenthesis")
	}
	p.pos++

	fn, ok := builtins[name]
	if !ok {
		return "", fmt.Errorf("unknown function %q", name)
	}
	return fn(arg), nil
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func isNameChar(ch byte) bool {
	return ch == '_' ||
		(ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9')
}

var builtins = map[string]func(string) string{
	"upperlower": upperLower,
}

// upperLower renders fake small caps: lowercase runs become upper-cased text
// at \footnotesize, uppercase runs stay at \normalsize.
func upperLower(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if r == ' ' {
			b.WriteRune(r)
			continue
		}
		if unicode.ToUpper(r) == r && !upper {
			b.WriteString(`\normalsize `)
			upper = true
		} else if unicode.ToLower(r) == r && upper {
			b.WriteString(`\footnotesize `)
			upper = false
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	b.WriteString(`\normalsize `)
	return b.String()
}
