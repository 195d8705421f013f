package lsp

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"sysyc/grammar"
	"sysyc/internal/errors"
	"sysyc/internal/ir"
)

// Analyze parses and lowers source. The syntax tree is nil when parsing
// fails, in which case the only diagnostic is the syntax error.
func Analyze(path, source string) (*grammar.CompUnit, []errors.CompilerError) {
	unit, err := grammar.ParseString(path, source)
	if err != nil {
		return nil, []errors.CompilerError{errors.SyntaxError(err)}
	}
	b := ir.NewBuilder()
	b.Build(unit)
	return unit, b.Diagnostics()
}

// ConvertDiagnostics maps compiler diagnostics onto LSP diagnostics. The
// result is never nil, so publishing it clears stale markers.
func ConvertDiagnostics(diags []errors.CompilerError) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		line := uint32(max(d.Position.Line-1, 0))
		start := uint32(max(d.Position.Column-1, 0))
		length := uint32(max(d.Length, 1))

		severity := protocol.DiagnosticSeverityError
		if d.Level == errors.Warning {
			severity = protocol.DiagnosticSeverityWarning
		}

		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: start},
				End:   protocol.Position{Line: line, Character: start + length},
			},
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: d.Code},
			Source:   ptrString("sysyc"),
			Message:  diagnosticMessage(d),
		})
	}
	return out
}

// diagnosticMessage folds suggestions and notes into the message, since
// editors show only the one string.
func diagnosticMessage(d errors.CompilerError) string {
	var b strings.Builder
	b.WriteString(d.Message)
	for _, s := range d.Suggestions {
		b.WriteString("\nhelp: ")
		b.WriteString(s.Message)
	}
	for _, n := range d.Notes {
		b.WriteString("\nnote: ")
		b.WriteString(n)
	}
	if d.HelpText != "" {
		b.WriteString("\nhelp: ")
		b.WriteString(d.HelpText)
	}
	return b.String()
}

func ptrString(s string) *string {
	return &s
}
