package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orthopole/matex/internal/diag"
)

func compileString(t *testing.T, src string) (string, *diag.Result) {
	t.Helper()
	c := New(Options{})
	out, result := c.Compile([]byte(src), "test.mtx")
	return string(out), result
}

func mustCompile(t *testing.T, src string) string {
	t.Helper()
	out, result := compileString(t, src)
	require.False(t, result.HasErrors(), "unexpected errors: %+v", result.Issues)
	return out
}

func firstError(t *testing.T, src string) diag.Issue {
	t.Helper()
	_, result := compileString(t, src)
	require.True(t, result.HasErrors(), "expected a compile error")
	for _, issue := range result.Issues {
		if issue.Severity == diag.SeverityError {
			return issue
		}
	}
	t.Fatal("no error issue found")
	return diag.Issue{}
}

func TestCompile_VersionHeader(t *testing.T) {
	t.Run("missing version", func(t *testing.T) {
		issue := firstError(t, "")
		assert.Equal(t, "version not specified", issue.Message)
	})

	t.Run("version not first", func(t *testing.T) {
		issue := firstError(t, "RAW hello\nVERSION 1\n")
		assert.Equal(t, "version not specified at the head of file", issue.Message)
		assert.Equal(t, 1, issue.Line)
	})

	t.Run("non-integer version", func(t *testing.T) {
		issue := firstError(t, "VERSION one\n")
		assert.Equal(t, `version should be an integer (got "one" instead)`, issue.Message)
	})

	t.Run("unknown version", func(t *testing.T) {
		issue := firstError(t, "VERSION 2\n")
		assert.Equal(t, "unknown version 2", issue.Message)
	})

	t.Run("comments and blanks skipped before version", func(t *testing.T) {
		out := mustCompile(t, "# header comment\n\nVERSION 1\nRAW ok\n")
		assert.Equal(t, "ok\n", out)
	})
}

func TestCompile_Def(t *testing.T) {
	out := mustCompile(t, "VERSION 1\nDEF \\foo TO BE bar\n")
	assert.Equal(t, "\\def\\foo{bar}\n", out)

	issue := firstError(t, "VERSION 1\nDEF \\foo bar\n")
	assert.Equal(t, "`TO BE` key words expected", issue.Message)
	assert.Equal(t, 2, issue.Line)
}

func TestCompile_Cmd(t *testing.T) {
	t.Run("no parameters", func(t *testing.T) {
		out := mustCompile(t, "VERSION 1\nCMD \\hello TO BE Hello!\n")
		assert.Equal(t, "\\newcommand{\\hello}{Hello!}\n", out)
	})

	t.Run("with parameters", func(t *testing.T) {
		out := mustCompile(t, "VERSION 1\nCMD \\pair TO BE (#1, #2) OF 2\n")
		assert.Equal(t, "\\newcommand{\\pair}[2]{(#1, #2)}\n", out)
	})

	t.Run("with default", func(t *testing.T) {
		out := mustCompile(t, "VERSION 1\nCMD \\greet TO BE Hi #1 OF 1 DEFAULT world\n")
		assert.Equal(t, "\\newcommand{\\greet}[1][world]{Hi #1}\n", out)
	})

	t.Run("default without parameters", func(t *testing.T) {
		issue := firstError(t, "VERSION 1\nCMD \\x TO BE y DEFAULT z\n")
		assert.Equal(t, "cannot set default value for a command without parameters", issue.Message)
	})

	t.Run("non-integer length", func(t *testing.T) {
		issue := firstError(t, "VERSION 1\nCMD \\x TO BE y OF two\n")
		assert.Equal(t, `parameter length should be an integer (got "two" instead)`, issue.Message)
	})

	t.Run("negative length", func(t *testing.T) {
		issue := firstError(t, "VERSION 1\nCMD \\x TO BE y OF -1\n")
		assert.Equal(t, "parameter length should be non-negative (got -1 instead)", issue.Message)
	})
}

func TestCompile_KeywordOrder(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		message string
	}{
		{
			name:    "cmd default before of",
			src:     "VERSION 1\nCMD \\x TO BE y DEFAULT z OF 1\n",
			message: "key words out of order: expected `TO BE [OF] [DEFAULT]`",
		},
		{
			name:    "cmd of before to be",
			src:     "VERSION 1\nCMD \\x OF 2 TO BE y\n",
			message: "key words out of order: expected `TO BE [OF] [DEFAULT]`",
		},
		{
			name:    "env default before of",
			src:     "VERSION 1\nENV box PRE a POST b DEFAULT d OF 1\n",
			message: "key words out of order: expected `PRE POST [OF] [DEFAULT]`",
		},
		{
			name:    "env post before pre",
			src:     "VERSION 1\nENV box POST b PRE a\n",
			message: "key words out of order: expected `PRE POST [OF] [DEFAULT]`",
		},
		{
			name:    "thm style before under",
			src:     "VERSION 1\nTHM thm NAME Theorem STYLE plain UNDER section\n",
			message: "key words out of order: expected `[COUNTER] NAME [UNDER] [STYLE]`",
		},
		{
			name:    "thm counter after name",
			src:     "VERSION 1\nTHM thm NAME Theorem COUNTER lem\n",
			message: "key words out of order: expected `[COUNTER] NAME [UNDER] [STYLE]`",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			issue := firstError(t, tc.src)
			assert.Equal(t, "syntax", issue.Rule)
			assert.Equal(t, tc.message, issue.Message)
			assert.Equal(t, 2, issue.Line)
		})
	}
}

func TestCompile_Pac(t *testing.T) {
	out := mustCompile(t, "VERSION 1\nPAC amsmath\nPAC geometry OPTION margin=1in\n")
	assert.Equal(t, "\\usepackage{amsmath}\n\\usepackage[margin=1in]{geometry}\n", out)
}

func TestCompile_Env(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		out := mustCompile(t, "VERSION 1\nENV quoted PRE \\itshape POST \\upshape\n")
		assert.Equal(t, "\\newenvironment{quoted}{\\itshape}{\\upshape}\n", out)
	})

	t.Run("with parameters", func(t *testing.T) {
		out := mustCompile(t, "VERSION 1\nENV titled PRE \\textbf{#1} POST \\hrule OF 1\n")
		assert.Equal(t, "\\newenvironment{titled}[1]{\\textbf{#1}}{\\hrule}\n", out)
	})

	t.Run("with default", func(t *testing.T) {
		out := mustCompile(t, "VERSION 1\nENV titled PRE \\textbf{#1} POST \\hrule OF 1 DEFAULT Note\n")
		assert.Equal(t, "\\newenvironment{titled}[1][Note]{\\textbf{#1}}{\\hrule}\n", out)
	})

	t.Run("missing PRE", func(t *testing.T) {
		issue := firstError(t, "VERSION 1\nENV x POST y\n")
		assert.Equal(t, "`PRE` key word expected", issue.Message)
	})

	t.Run("missing POST", func(t *testing.T) {
		issue := firstError(t, "VERSION 1\nENV x PRE y\n")
		assert.Equal(t, "`POST` key word expected", issue.Message)
	})

	t.Run("default without parameters", func(t *testing.T) {
		issue := firstError(t, "VERSION 1\nENV x PRE a POST b DEFAULT c\n")
		assert.Equal(t, "cannot set default value for an environment without parameters", issue.Message)
	})
}

func TestCompile_Thm(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		out := mustCompile(t, "VERSION 1\nTHM lemma NAME Lemma\n")
		assert.Equal(t, "\\newtheorem{lemma}{Lemma}\n", out)
	})

	t.Run("under", func(t *testing.T) {
		out := mustCompile(t, "VERSION 1\nTHM lemma NAME Lemma UNDER section\n")
		assert.Equal(t, "\\newtheorem{lemma}{Lemma}[section]\n", out)
	})

	t.Run("shared counter", func(t *testing.T) {
		out := mustCompile(t, "VERSION 1\nTHM lemma COUNTER theorem NAME Lemma\n")
		assert.Equal(t, "\\newtheorem{lemma}[theorem]{Lemma}\n", out)
	})

	t.Run("style stays on the same line", func(t *testing.T) {
		out := mustCompile(t, "VERSION 1\nTHM remark NAME Remark STYLE remark\n")
		assert.Equal(t, "\\theoremstyle{remark}\\newtheorem{remark}{Remark}\n", out)
	})

	t.Run("missing NAME", func(t *testing.T) {
		issue := firstError(t, "VERSION 1\nTHM lemma\n")
		assert.Equal(t, "`NAME` key word expected", issue.Message)
	})
}

func TestCompile_RawAndCom(t *testing.T) {
	out := mustCompile(t, "VERSION 1\nRAW \\makeatletter\nCOM section markers\n")
	assert.Equal(t, "\\makeatletter\n% section markers\n", out)
}

func TestCompile_UnknownTag(t *testing.T) {
	issue := firstError(t, "VERSION 1\nXYZ something\n")
	assert.Equal(t, "unexpected tag `XYZ`", issue.Message)
	assert.Equal(t, 2, issue.Line)
}

func TestCompile_For(t *testing.T) {
	t.Run("body repeats per character", func(t *testing.T) {
		out := mustCompile(t, "VERSION 1\nFOR x IN abc\nRAW item %x%\nEND\n")
		assert.Equal(t, "item a\nitem b\nitem c\n", out)
	})

	t.Run("variable stays bound after the loop", func(t *testing.T) {
		out := mustCompile(t, "VERSION 1\nFOR x IN ab\nRAW %x%\nEND\nRAW last=%x%\n")
		assert.Equal(t, "a\nb\nlast=b\n", out)
	})

	t.Run("nested loops", func(t *testing.T) {
		out := mustCompile(t, "VERSION 1\nFOR a IN xy\nFOR b IN 12\nRAW %a%%b%\nEND\nEND\n")
		assert.Equal(t, "x1\nx2\ny1\ny2\n", out)
	})

	t.Run("missing IN", func(t *testing.T) {
		issue := firstError(t, "VERSION 1\nFOR x OVER abc\nEND\n")
		assert.Equal(t, "`IN` key word expected", issue.Message)
	})

	t.Run("empty values warn and skip the body", func(t *testing.T) {
		out, result := compileString(t, "VERSION 1\nFOR x IN %''%\nRAW never\nEND\nRAW after\n")
		require.False(t, result.HasErrors())
		assert.Equal(t, 1, result.WarningCount())
		assert.Equal(t, "after\n", out)
	})

	t.Run("error inside body aborts", func(t *testing.T) {
		issue := firstError(t, "VERSION 1\nFOR x IN ab\nXYZ boom\nEND\n")
		assert.Equal(t, "unexpected tag `XYZ`", issue.Message)
		assert.Equal(t, 3, issue.Line)
	})
}

func TestCompile_EndTerminatesFile(t *testing.T) {
	out := mustCompile(t, "VERSION 1\nRAW before\nEND\nRAW after\n")
	assert.Equal(t, "before\n", out)
}

func TestCompile_Interpolation(t *testing.T) {
	t.Run("literal percent via empty span", func(t *testing.T) {
		out := mustCompile(t, "VERSION 1\nRAW 50%% off\n")
		assert.Equal(t, "50% off\n", out)
	})

	t.Run("unmatched percent", func(t *testing.T) {
		issue := firstError(t, "VERSION 1\nRAW broken % here\n")
		assert.Contains(t, issue.Message, "unmatched `%` at column")
	})

	t.Run("undefined variable", func(t *testing.T) {
		issue := firstError(t, "VERSION 1\nRAW %nope%\n")
		assert.Contains(t, issue.Message, "invalid expression `nope`")
	})

	t.Run("string literals and concatenation", func(t *testing.T) {
		out := mustCompile(t, "VERSION 1\nFOR x IN a\nRAW %'pre-' + x%\nEND\n")
		assert.Equal(t, "pre-a\n", out)
	})

	t.Run("upperlower builtin", func(t *testing.T) {
		out := mustCompile(t, "VERSION 1\nRAW %upperlower('Ab')%\n")
		assert.Equal(t, "A\\footnotesize B\\normalsize\n", out)
	})
}

func TestCompile_AutoComment(t *testing.T) {
	c := New(Options{AutoComment: true})
	out, result := c.Compile([]byte("VERSION 1\nRAW x\n"), "test.mtx")
	require.False(t, result.HasErrors())
	assert.True(t, strings.HasPrefix(string(out),
		"% This file is automatically generated by MaTeX version "+Version+". Do not edit it manually.\n\n"))
	assert.True(t, strings.HasSuffix(string(out), "x\n"))
}

func TestCompile_OutputNilOnError(t *testing.T) {
	c := New(Options{})
	out, result := c.Compile([]byte("VERSION 1\nRAW ok\nXYZ nope\n"), "test.mtx")
	require.True(t, result.HasErrors())
	assert.Nil(t, out)
}

func TestCompile_MkdInclude(t *testing.T) {
	dir := t.TempDir()
	md := "# Intro\n\nSome *emphasis* here.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "intro.md"), []byte(md), 0o644))

	c := New(Options{IncludeDir: dir})
	out, result := c.Compile([]byte("VERSION 1\nMKD intro.md\n"), "test.mtx")
	require.False(t, result.HasErrors(), "unexpected errors: %+v", result.Issues)
	assert.Contains(t, string(out), "\\section{Intro}")
	assert.Contains(t, string(out), "\\emph{emphasis}")

	t.Run("missing file", func(t *testing.T) {
		c := New(Options{IncludeDir: dir})
		_, result := c.Compile([]byte("VERSION 1\nMKD nope.md\n"), "test.mtx")
		require.True(t, result.HasErrors())
		assert.Contains(t, result.Issues[0].Message, "cannot read include")
	})
}
