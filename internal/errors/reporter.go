package errors

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/fatih/color"
)

// ErrorLevel represents the severity of a diagnostic
type ErrorLevel string

const (
	Error   ErrorLevel = "error"
	Warning ErrorLevel = "warning"
)

// CompilerError is a positioned diagnostic with optional suggestions.
type CompilerError struct {
	Level       ErrorLevel
	Code        string         // E0100, W0001, ...
	Message     string         // Primary message
	Position    lexer.Position // Location in source
	Length      int            // Width of the underlined region
	Suggestions []Suggestion
	Notes       []string
	HelpText    string
}

// Error renders the diagnostic on one line, compiler style.
func (e CompilerError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s[%s]: %s",
		e.Position.Filename, e.Position.Line, e.Position.Column, e.Level, e.Code, e.Message)
}

// Suggestion represents a suggested fix
type Suggestion struct {
	Message     string
	Replacement string // optional replacement text
}

// ErrorReporter formats diagnostics against the source they refer to.
type ErrorReporter struct {
	filename string
	lines    []string
}

// NewErrorReporter creates a reporter for one source file
func NewErrorReporter(filename, source string) *ErrorReporter {
	return &ErrorReporter{
		filename: filename,
		lines:    strings.Split(source, "\n"),
	}
}

// FormatError renders err with a gutter, the offending line and a marker.
func (er *ErrorReporter) FormatError(err CompilerError) string {
	var out strings.Builder

	levelColor := levelColor(err.Level)
	dim := color.New(color.Faint).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	if err.Code != "" {
		fmt.Fprintf(&out, "%s[%s]: %s\n", levelColor(string(err.Level)), err.Code, err.Message)
	} else {
		fmt.Fprintf(&out, "%s: %s\n", levelColor(string(err.Level)), err.Message)
	}

	line := err.Position.Line
	width := gutterWidth(line + 1)
	indent := strings.Repeat(" ", width)
	gutter := dim("│")

	fmt.Fprintf(&out, "%s %s %s:%d:%d\n", indent, dim("-->"), er.filename, line, err.Position.Column)
	fmt.Fprintf(&out, "%s %s\n", indent, gutter)

	if line > 1 && line-1 <= len(er.lines) {
		fmt.Fprintf(&out, "%s %s %s\n", dim(fmt.Sprintf("%*d", width, line-1)), gutter, er.lines[line-2])
	}
	if line > 0 && line <= len(er.lines) {
		fmt.Fprintf(&out, "%s %s %s\n", bold(fmt.Sprintf("%*d", width, line)), gutter, er.lines[line-1])
		fmt.Fprintf(&out, "%s %s %s\n", indent, gutter, marker(err.Position.Column, err.Length, levelColor))
	}

	if len(err.Suggestions) > 0 {
		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Fprintf(&out, "%s %s\n", indent, gutter)
		for i, s := range err.Suggestions {
			if i == 0 {
				fmt.Fprintf(&out, "%s %s %s: %s\n", indent, cyan("help"), cyan("try"), s.Message)
			} else {
				fmt.Fprintf(&out, "%s %s %s\n", indent, cyan("    "), s.Message)
			}
			if s.Replacement != "" {
				fmt.Fprintf(&out, "%s %s %s\n", indent, cyan("│"), cyan(s.Replacement))
			}
		}
	}

	for _, note := range err.Notes {
		fmt.Fprintf(&out, "%s %s %s %s\n", indent, gutter, color.BlueString("note:"), note)
	}
	if err.HelpText != "" {
		fmt.Fprintf(&out, "%s %s %s %s\n", indent, gutter, color.GreenString("help:"), err.HelpText)
	}

	out.WriteString("\n")
	return out.String()
}

// FormatAll renders every diagnostic followed by a count summary.
func (er *ErrorReporter) FormatAll(errs []CompilerError) string {
	if len(errs) == 0 {
		return ""
	}
	var out strings.Builder
	warnings := 0
	for _, err := range errs {
		out.WriteString(er.FormatError(err))
		if err.Level == Warning {
			warnings++
		}
	}
	if n := len(errs) - warnings; n > 0 {
		out.WriteString(color.New(color.FgRed, color.Bold).Sprintf("%d error(s)", n))
		if warnings > 0 {
			out.WriteString(", ")
		}
	}
	if warnings > 0 {
		out.WriteString(color.New(color.FgYellow, color.Bold).Sprintf("%d warning(s)", warnings))
	}
	out.WriteString(" emitted\n")
	return out.String()
}

func levelColor(level ErrorLevel) func(...interface{}) string {
	if level == Warning {
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	}
	return color.New(color.FgRed, color.Bold).SprintFunc()
}

func marker(column, length int, paint func(...interface{}) string) string {
	if length <= 0 {
		length = 1
	}
	if column < 1 {
		column = 1
	}
	return strings.Repeat(" ", column-1) + paint(strings.Repeat("^", length))
}

func gutterWidth(line int) int {
	width := len(fmt.Sprintf("%d", line))
	if width < 3 {
		width = 3
	}
	return width
}
