// Package compiler implements the MaTeX directive language: line-oriented
// sources that expand to LaTeX preamble code (macro, command, environment and
// theorem definitions).
package compiler

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/orthopole/matex/internal/diag"
)

// Version is the tool version reported by the CLI and embedded in
// auto-comment headers.
const Version = "2.0.0"

// LanguageVersion is the only directive language version this compiler
// accepts. Sources declare theirs with a leading VERSION line.
const LanguageVersion = 1

// Options control a single compile.
type Options struct {
	// AutoComment prepends a generated-file header to the output.
	AutoComment bool
	// IncludeDir is the base directory for MKD includes. Empty means the
	// current working directory.
	IncludeDir string
}

// Compiler translates one MaTeX source into LaTeX. Output is buffered and
// only returned when the source compiles without errors.
type Compiler struct {
	opts   Options
	out    bytes.Buffer
	result *diag.Result
	file   string
	cur    *cursor
	// curLine is the physical line number of the directive being processed,
	// used for diagnostics emitted mid-directive.
	curLine int
}

// New creates a compiler with the given options.
func New(opts Options) *Compiler {
	return &Compiler{opts: opts}
}

// Compile translates src. file is used in diagnostics only. The returned
// output is nil when the result carries errors.
func (c *Compiler) Compile(src []byte, file string) ([]byte, *diag.Result) {
	c.out.Reset()
	c.file = file
	c.result = &diag.Result{FilesTotal: 1}

	lines, err := scan(src)
	if err != nil {
		c.errorf(0, "read", "reading source: %v", err)
		return nil, c.result
	}
	c.cur = &cursor{lines: lines}

	first, ok := c.cur.next()
	if !ok {
		c.errorf(0, "version-header", "version not specified")
		return nil, c.result
	}
	if first.tag != "VERSION" {
		c.errorf(first.num, "version-header", "version not specified at the head of file")
		return nil, c.result
	}
	version, err := strconv.Atoi(first.tail)
	if err != nil {
		c.errorf(first.num, "version-header", "version should be an integer (got %q instead)", first.tail)
		return nil, c.result
	}
	if version != LanguageVersion {
		c.errorf(first.num, "version-header", "unknown version %d", version)
		return nil, c.result
	}

	if c.opts.AutoComment {
		fmt.Fprintf(&c.out, "%% This file is automatically generated by MaTeX version %s. Do not edit it manually.\n\n", Version)
	}

	if !c.parseV1(map[string]string{}) {
		return nil, c.result
	}
	return bytes.Clone(c.out.Bytes()), c.result
}

// parseV1 processes directives until END or end of input. vars holds the
// loop variables in scope; FOR bodies run with a copied binding set.
func (c *Compiler) parseV1(vars map[string]string) bool {
	for {
		ln, ok := c.cur.next()
		if !ok {
			return true
		}
		c.curLine = ln.num

		tail, ok := c.interpolate(ln.tail, vars)
		if !ok {
			return false
		}

		switch ln.tag {
		case "DEF":
			ok = c.directiveDef(tail)
		case "CMD":
			ok = c.directiveCmd(tail)
		case "PAC":
			ok = c.directivePac(tail)
		case "ENV":
			ok = c.directiveEnv(tail)
		case "THM":
			ok = c.directiveThm(tail)
		case "RAW":
			c.printf("%s", strings.TrimSpace(tail))
		case "COM":
			c.printf("%% %s", tail)
		case "MKD":
			ok = c.directiveMkd(tail)
		case "FOR":
			ok = c.directiveFor(tail, vars)
		case "END":
			return true
		default:
			return c.errorf(ln.num, "unknown-tag", "unexpected tag `%s`", ln.tag)
		}
		if !ok {
			return false
		}
	}
}

// interpolate replaces %expr% spans in a directive tail. A %% span stands
// for a literal percent sign.
func (c *Compiler) interpolate(tail string, vars map[string]string) (string, bool) {
	if !strings.Contains(tail, "%") {
		return tail, true
	}

	eval := &evaluator{vars: vars}
	var b strings.Builder
	for i := 0; i < len(tail); {
		if tail[i] != '%' {
			b.WriteByte(tail[i])
			i++
			continue
		}
		end := strings.IndexByte(tail[i+1:], '%')
		if end < 0 {
			c.errorf(c.curLine, "interpolation", "unmatched `%%` at column %d", i)
			return "", false
		}
		expr := tail[i+1 : i+1+end]
		if expr == "" {
			b.WriteByte('%')
		} else {
			value, err := eval.eval(expr)
			if err != nil {
				c.errorf(c.curLine, "interpolation", "invalid expression `%s`: %v", expr, err)
				return "", false
			}
			b.WriteString(value)
		}
		i += end + 2
	}
	return b.String(), true
}

// printf appends a line to the buffered output.
func (c *Compiler) printf(format string, args ...any) {
	fmt.Fprintf(&c.out, format+"\n", args...)
}

// errorf records an error diagnostic. It always returns false so directive
// handlers can bail with "return c.errorf(...)".
func (c *Compiler) errorf(lineNum int, rule, format string, args ...any) bool {
	c.result.Add(diag.Issue{
		File:     c.file,
		Line:     lineNum,
		Severity: diag.SeverityError,
		Rule:     rule,
		Message:  fmt.Sprintf(format, args...),
	})
	return false
}

// warnf records a warning diagnostic; warnings never abort the compile.
func (c *Compiler) warnf(lineNum int, rule, format string, args ...any) {
	c.result.Add(diag.Issue{
		File:     c.file,
		Line:     lineNum,
		Severity: diag.SeverityWarning,
		Rule:     rule,
		Message:  fmt.Sprintf(format, args...),
	})
}

// findKeyword locates a case-insensitive keyword (including its surrounding
// spaces, e.g. " TO BE ") in a directive tail. Returns -1 when absent.
func findKeyword(tail, keyword string) int {
	return strings.Index(strings.ToUpper(tail), keyword)
}
