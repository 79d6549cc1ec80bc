// Package markdown converts Markdown documents to LaTeX for inclusion in
// compiled output.
package markdown

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ConvertToLaTeX parses a Markdown body and renders it as LaTeX. The
// conversion covers the constructs that make sense in a preamble or document
// fragment: headings, emphasis, code, lists, links and block quotes. Raw HTML
// is dropped.
func ConvertToLaTeX(body []byte) ([]byte, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	r := &latexRenderer{source: body}
	if err := gmast.Walk(root, r.walk); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	out := strings.TrimRight(r.b.String(), "\n")
	return []byte(out + "\n"), nil
}

type latexRenderer struct {
	source []byte
	b      strings.Builder
}

func (r *latexRenderer) walk(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
	switch node := n.(type) {
	case *gmast.Heading:
		if entering {
			r.b.WriteString(sectionCommand(node.Level))
		} else {
			r.b.WriteString("}\n\n")
		}

	case *gmast.Paragraph:
		if !entering {
			r.b.WriteString("\n\n")
		}

	case *gmast.TextBlock:
		if !entering {
			r.b.WriteString("\n")
		}

	case *gmast.Emphasis:
		cmd := `\emph{`
		if node.Level >= 2 {
			cmd = `\textbf{`
		}
		if entering {
			r.b.WriteString(cmd)
		} else {
			r.b.WriteString("}")
		}

	case *gmast.CodeSpan:
		if entering {
			r.b.WriteString(`\texttt{`)
		} else {
			r.b.WriteString("}")
		}

	case *gmast.FencedCodeBlock, *gmast.CodeBlock:
		if entering {
			r.b.WriteString("\\begin{verbatim}\n")
			r.writeRawLines(n)
			r.b.WriteString("\\end{verbatim}\n\n")
		}
		return gmast.WalkSkipChildren, nil

	case *gmast.Blockquote:
		if entering {
			r.b.WriteString("\\begin{quote}\n")
		} else {
			r.b.WriteString("\\end{quote}\n\n")
		}

	case *gmast.List:
		env := "itemize"
		if node.IsOrdered() {
			env = "enumerate"
		}
		if entering {
			fmt.Fprintf(&r.b, "\\begin{%s}\n", env)
		} else {
			fmt.Fprintf(&r.b, "\\end{%s}\n\n", env)
		}

	case *gmast.ListItem:
		if entering {
			r.b.WriteString(`\item `)
		}

	case *gmast.Link:
		if entering {
			fmt.Fprintf(&r.b, `\href{%s}{`, escapeURL(string(node.Destination)))
		} else {
			r.b.WriteString("}")
		}

	case *gmast.AutoLink:
		if entering {
			fmt.Fprintf(&r.b, `\url{%s}`, escapeURL(string(node.URL(r.source))))
		}

	case *gmast.ThematicBreak:
		if entering {
			r.b.WriteString("\\hrulefill\n\n")
		}

	case *gmast.Text:
		if entering {
			r.b.WriteString(EscapeText(string(node.Segment.Value(r.source))))
			if node.HardLineBreak() {
				r.b.WriteString(" \\\\\n")
			} else if node.SoftLineBreak() {
				r.b.WriteString("\n")
			}
		}

	case *gmast.String:
		if entering {
			r.b.WriteString(EscapeText(string(node.Value)))
		}

	case *gmast.HTMLBlock, *gmast.RawHTML:
		// Raw HTML has no LaTeX counterpart.
		return gmast.WalkSkipChildren, nil
	}

	return gmast.WalkContinue, nil
}

func (r *latexRenderer) writeRawLines(n gmast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		r.b.Write(segment.Value(r.source))
	}
}

func sectionCommand(level int) string {
	switch level {
	case 1:
		return `\section{`
	case 2:
		return `\subsection{`
	case 3:
		return `\subsubsection{`
	default:
		return `\paragraph{`
	}
}

var textEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// EscapeText escapes LaTeX special characters in plain text.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

var urlEscaper = strings.NewReplacer(
	`%`, `\%`,
	`#`, `\#`,
	`&`, `\&`,
)

func escapeURL(s string) string {
	return urlEscaper.Replace(s)
}
