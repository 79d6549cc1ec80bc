package compiler

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/orthopole/matex/internal/markdown"
)

// DEF <macro> TO BE <body>
func (c *Compiler) directiveDef(tail string) bool {
	mid := findKeyword(tail, " TO BE ")
	if mid < 0 {
		return c.errorf(c.curLine, "syntax", "`TO BE` key words expected")
	}
	macro := strings.TrimSpace(tail[:mid])
	body := strings.TrimSpace(tail[mid+7:])
	c.printf(`\def%s{%s}`, macro, body)
	return true
}

// CMD <name> TO BE <body> [OF <n>] [DEFAULT <d>]
func (c *Compiler) directiveCmd(tail string) bool {
	mid1 := findKeyword(tail, " TO BE ")
	mid2 := findKeyword(tail, " OF ")
	mid3 := findKeyword(tail, " DEFAULT ")
	if mid1 < 0 {
		return c.errorf(c.curLine, "syntax", "`TO BE` key words expected")
	}
	if !ordered(mid1, mid2, mid3) {
		return c.errorf(c.curLine, "syntax", "key words out of order: expected `TO BE [OF] [DEFAULT]`")
	}
	command := strings.TrimSpace(tail[:mid1])

	var definition, lengthStr string
	switch {
	case mid2 >= 0 && mid3 >= 0:
		definition = strings.TrimSpace(tail[mid1+7 : mid2])
		lengthStr = strings.TrimSpace(tail[mid2+4 : mid3])
	case mid2 >= 0:
		definition = strings.TrimSpace(tail[mid1+7 : mid2])
		lengthStr = strings.TrimSpace(tail[mid2+4:])
	case mid3 >= 0:
		return c.errorf(c.curLine, "parameter-count", "cannot set default value for a command without parameters")
	default:
		definition = strings.TrimSpace(tail[mid1+7:])
		lengthStr = "0"
	}

	length, ok := c.parseLength(lengthStr)
	if !ok {
		return false
	}
	if mid3 >= 0 && length == 0 {
		return c.errorf(c.curLine, "parameter-count", "cannot set default value for a command without parameters")
	}

	if mid3 >= 0 {
		deflt := strings.TrimSpace(tail[mid3+9:])
		c.printf(`\newcommand{%s}[%d][%s]{%s}`, command, length, deflt, definition)
	} else if length > 0 {
		c.printf(`\newcommand{%s}[%d]{%s}`, command, length, definition)
	} else {
		c.printf(`\newcommand{%s}{%s}`, command, definition)
	}
	return true
}

// PAC <package> [OPTION <options>]
func (c *Compiler) directivePac(tail string) bool {
	mid := findKeyword(tail, " OPTION ")
	if mid < 0 {
		c.printf(`\usepackage{%s}`, strings.TrimSpace(tail))
		return true
	}
	pkg := strings.TrimSpace(tail[:mid])
	option := strings.TrimSpace(tail[mid+8:])
	c.printf(`\usepackage[%s]{%s}`, option, pkg)
	return true
}

// ENV <name> PRE <pre> POST <post> [OF <n>] [DEFAULT <d>]
func (c *Compiler) directiveEnv(tail string) bool {
	mid1 := findKeyword(tail, " PRE ")
	mid2 := findKeyword(tail, " POST ")
	mid3 := findKeyword(tail, " OF ")
	mid4 := findKeyword(tail, " DEFAULT ")
	if mid1 < 0 {
		return c.errorf(c.curLine, "syntax", "`PRE` key word expected")
	}
	if mid2 < 0 {
		return c.errorf(c.curLine, "syntax", "`POST` key word expected")
	}
	if !ordered(mid1, mid2, mid3, mid4) {
		return c.errorf(c.curLine, "syntax", "key words out of order: expected `PRE POST [OF] [DEFAULT]`")
	}
	environment := strings.TrimSpace(tail[:mid1])
	pre := strings.TrimSpace(tail[mid1+5 : mid2])

	var post, lengthStr, deflt string
	hasDefault := false
	switch {
	case mid3 < 0 && mid4 < 0:
		post = strings.TrimSpace(tail[mid2+6:])
		lengthStr = "0"
	case mid3 >= 0 && mid4 < 0:
		post = strings.TrimSpace(tail[mid2+6 : mid3])
		lengthStr = strings.TrimSpace(tail[mid3+4:])
	case mid3 < 0 && mid4 >= 0:
		return c.errorf(c.curLine, "parameter-count", "cannot set default value for an environment without parameters")
	default:
		post = strings.TrimSpace(tail[mid2+6 : mid3])
		lengthStr = strings.TrimSpace(tail[mid3+4 : mid4])
		deflt = strings.TrimSpace(tail[mid4+9:])
		hasDefault = true
	}

	length, ok := c.parseLength(lengthStr)
	if !ok {
		return false
	}

	if hasDefault {
		c.printf(`\newenvironment{%s}[%d][%s]{%s}{%s}`, environment, length, deflt, pre, post)
	} else if length > 0 {
		c.printf(`\newenvironment{%s}[%d]{%s}{%s}`, environment, length, pre, post)
	} else {
		c.printf(`\newenvironment{%s}{%s}{%s}`, environment, pre, post)
	}
	return true
}

// THM <name> [COUNTER <c>] NAME <display> [UNDER <u>] [STYLE <s>]
func (c *Compiler) directiveThm(tail string) bool {
	mid1 := findKeyword(tail, " COUNTER ")
	mid2 := findKeyword(tail, " NAME ")
	mid3 := findKeyword(tail, " UNDER ")
	mid4 := findKeyword(tail, " STYLE ")
	if mid2 < 0 {
		return c.errorf(c.curLine, "syntax", "`NAME` key word expected")
	}
	if !ordered(mid1, mid2, mid3, mid4) {
		return c.errorf(c.curLine, "syntax", "key words out of order: expected `[COUNTER] NAME [UNDER] [STYLE]`")
	}

	var theorem, counter string
	if mid1 < 0 {
		theorem = strings.TrimSpace(tail[:mid2])
	} else {
		theorem = strings.TrimSpace(tail[:mid1])
		counter = strings.TrimSpace(tail[mid1+9 : mid2])
	}

	var name, under, style string
	switch {
	case mid3 < 0 && mid4 < 0:
		name = strings.TrimSpace(tail[mid2+6:])
	case mid3 >= 0 && mid4 < 0:
		name = strings.TrimSpace(tail[mid2+6 : mid3])
		under = strings.TrimSpace(tail[mid3+7:])
	case mid3 < 0 && mid4 >= 0:
		name = strings.TrimSpace(tail[mid2+6 : mid4])
		style = strings.TrimSpace(tail[mid4+7:])
	default:
		name = strings.TrimSpace(tail[mid2+6 : mid3])
		under = strings.TrimSpace(tail[mid3+7 : mid4])
		style = strings.TrimSpace(tail[mid4+7:])
	}

	if style != "" {
		fmt.Fprintf(&c.out, `\theoremstyle{%s}`, style)
	}
	switch {
	case counter == "" && under == "":
		c.printf(`\newtheorem{%s}{%s}`, theorem, name)
	case counter == "":
		c.printf(`\newtheorem{%s}{%s}[%s]`, theorem, name, under)
	case under == "":
		c.printf(`\newtheorem{%s}[%s]{%s}`, theorem, counter, name)
	default:
		c.printf(`\newtheorem{%s}[%s]{%s}[%s]`, theorem, counter, name, under)
	}
	return true
}

// MKD <path>: include a Markdown file converted to LaTeX.
func (c *Compiler) directiveMkd(tail string) bool {
	path := strings.TrimSpace(tail)
	if path == "" {
		return c.errorf(c.curLine, "include", "file path expected")
	}
	if !filepath.IsAbs(path) && c.opts.IncludeDir != "" {
		path = filepath.Join(c.opts.IncludeDir, path)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return c.errorf(c.curLine, "include", "cannot read include %q: %v", path, err)
	}
	latex, err := markdown.ConvertToLaTeX(body)
	if err != nil {
		return c.errorf(c.curLine, "include", "cannot convert include %q: %v", path, err)
	}
	c.printf("%s", strings.TrimRight(string(latex), "\n"))
	return true
}

// FOR <var> IN <values> ... END: the body runs once per character of
// <values> with <var> bound to that character.
func (c *Compiler) directiveFor(tail string, vars map[string]string) bool {
	mid := findKeyword(tail, " IN ")
	if mid < 0 {
		return c.errorf(c.curLine, "syntax", "`IN` key word expected")
	}
	variable := strings.TrimSpace(tail[:mid])
	values := strings.TrimSpace(tail[mid+4:])

	start := c.cur.tell()
	if values == "" {
		c.warnf(c.curLine, "empty-loop", "empty value list, loop body skipped")
		c.skipLoopBody()
		return true
	}

	for _, value := range values {
		c.cur.seek(start)
		vars[variable] = string(value)
		if !c.parseV1(maps.Clone(vars)) {
			return false
		}
	}
	return true
}

// skipLoopBody advances past the END matching the FOR just read, honoring
// nested loops. Reaching end of input is tolerated.
func (c *Compiler) skipLoopBody() {
	depth := 1
	for {
		ln, ok := c.cur.next()
		if !ok {
			return
		}
		switch ln.tag {
		case "FOR":
			depth++
		case "END":
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// ordered reports whether the keyword indexes that are present (>= 0)
// appear in strictly increasing order. Directive tails are sliced between
// keyword positions, so an out-of-order keyword must be rejected before
// slicing.
func ordered(indexes ...int) bool {
	prev := -1
	for _, idx := range indexes {
		if idx < 0 {
			continue
		}
		if prev >= 0 && idx <= prev {
			return false
		}
		prev = idx
	}
	return true
}

func (c *Compiler) parseLength(s string) (int, bool) {
	length, err := strconv.Atoi(s)
	if err != nil {
		c.errorf(c.curLine, "parameter-count", "parameter length should be an integer (got %q instead)", s)
		return 0, false
	}
	if length < 0 {
		c.errorf(c.curLine, "parameter-count", "parameter length should be non-negative (got %d instead)", length)
		return 0, false
	}
	return length, true
}
