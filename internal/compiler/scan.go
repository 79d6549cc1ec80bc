package compiler

import (
	"bufio"
	"bytes"
	"strings"
)

// line is a single scanned directive line. Blank lines and comment lines are
// dropped during scanning, so consecutive lines may have non-consecutive
// physical numbers.
type line struct {
	num  int    // 1-based physical line number
	tag  string // first word, uppercased
	tail string // remainder after the first space, may be empty
}

// scan reads the whole source into directive lines. Blank lines and lines
// starting with '#' are skipped.
func scan(src []byte) ([]line, error) {
	var lines []line
	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	num := 0
	for scanner.Scan() {
		num++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		tag, tail, found := strings.Cut(text, " ")
		if !found {
			tail = ""
		}
		lines = append(lines, line{
			num:  num,
			tag:  strings.ToUpper(tag),
			tail: strings.TrimSpace(tail),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// cursor walks scanned lines with support for rewinding, which the FOR
// directive uses to replay its body.
type cursor struct {
	lines []line
	pos   int
}

// next returns the line under the cursor and advances. ok is false at the end
// of input.
func (c *cursor) next() (line, bool) {
	if c.pos >= len(c.lines) {
		return line{}, false
	}
	l := c.lines[c.pos]
	c.pos++
	return l, true
}

func (c *cursor) tell() int    { return c.pos }
func (c *cursor) seek(pos int) { c.pos = pos }
