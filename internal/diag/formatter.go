package diag

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/mattn/go-isatty"
)

// Formatter formats check results for output.
type Formatter interface {
	Format(w io.Writer, result *Result) error
}

// NewFormatter returns the formatter for the given format name ("text" or
// "json").
func NewFormatter(format string) Formatter {
	if format == "json" {
		return &JSONFormatter{}
	}
	return &TextFormatter{}
}

// TextFormatter formats results as human-readable text. Severity labels are
// colored when the writer is a terminal.
type TextFormatter struct {
	// Quiet suppresses warning- and info-level issues.
	Quiet bool
}

func (f *TextFormatter) Format(w io.Writer, result *Result) error {
	colors := aurora.NewAurora(isTerminal(w))

	shown := 0
	for _, issue := range result.Issues {
		if f.Quiet && issue.Severity != SeverityError {
			continue
		}
		if err := f.formatIssue(w, colors, issue); err != nil {
			return err
		}
		shown++
	}

	if shown > 0 {
		if _, err := fmt.Fprintln(w, strings.Repeat("-", 60)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%d file%s checked", result.FilesTotal, pluralize(result.FilesTotal)); err != nil {
		return err
	}

	errorCount := result.ErrorCount()
	warningCount := result.WarningCount()
	if errorCount > 0 {
		if _, err := fmt.Fprintf(w, ", %d error%s", errorCount, pluralize(errorCount)); err != nil {
			return err
		}
	}
	if warningCount > 0 && !f.Quiet {
		if _, err := fmt.Fprintf(w, ", %d warning%s", warningCount, pluralize(warningCount)); err != nil {
			return err
		}
	}
	if errorCount == 0 && warningCount == 0 {
		if _, err := fmt.Fprint(w, ", no issues"); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func (f *TextFormatter) formatIssue(w io.Writer, colors aurora.Aurora, issue Issue) error {
	label := issue.Severity.String()
	switch issue.Severity {
	case SeverityError:
		label = colors.Red(label).String()
	case SeverityWarning:
		label = colors.Yellow(label).String()
	default:
		label = colors.Cyan(label).String()
	}

	location := issue.File
	if issue.Line > 0 {
		location = fmt.Sprintf("%s:%d", issue.File, issue.Line)
	}
	_, err := fmt.Fprintf(w, "%s %s [%s] %s\n", label, location, issue.Rule, issue.Message)
	return err
}

// JSONFormatter formats results as a JSON document.
type JSONFormatter struct{}

type jsonIssue struct {
	File     string `json:"file"`
	Line     int    `json:"line,omitempty"`
	Severity string `json:"severity"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
}

type jsonResult struct {
	Issues     []jsonIssue `json:"issues"`
	FilesTotal int         `json:"files_total"`
	Errors     int         `json:"errors"`
	Warnings   int         `json:"warnings"`
}

func (f *JSONFormatter) Format(w io.Writer, result *Result) error {
	out := jsonResult{
		Issues:     make([]jsonIssue, 0, len(result.Issues)),
		FilesTotal: result.FilesTotal,
		Errors:     result.ErrorCount(),
		Warnings:   result.WarningCount(),
	}
	for _, issue := range result.Issues {
		out.Issues = append(out.Issues, jsonIssue{
			File:     issue.File,
			Line:     issue.Line,
			Severity: issue.Severity.String(),
			Rule:     issue.Rule,
			Message:  issue.Message,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
