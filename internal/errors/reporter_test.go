package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sysyc/grammar"
)

func init() {
	color.NoColor = true
}

const source = `int main() {
    int count = 0;
    cout = 3;
    return count;
}`

func TestErrorReporter(t *testing.T) {
	reporter := NewErrorReporter("test.sy", source)

	err := UnresolvedSymbol("cout", "main", lexer.Position{Filename: "test.sy", Line: 3, Column: 5}, []string{"count"})
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "warning["+WarningUnresolvedSymbol+"]")
	assert.Contains(t, formatted, "unresolved symbol 'cout' in main")
	assert.Contains(t, formatted, "test.sy:3:5")
	assert.Contains(t, formatted, "    int count = 0;", "line before is shown")
	assert.Contains(t, formatted, "    cout = 3;")
	assert.Contains(t, formatted, "    ^^^^", "marker spans the name")
	assert.Contains(t, formatted, "did you mean 'count'?")
	assert.Contains(t, formatted, "note: the name is given placeholder storage")
}

func TestFormatErrorOutOfRangeLine(t *testing.T) {
	reporter := NewErrorReporter("test.sy", source)
	err := NewError(ErrorSyntax, "boom", lexer.Position{Line: 40, Column: 1}).Build()

	formatted := reporter.FormatError(err)
	assert.Contains(t, formatted, "error[E0100]: boom")
	assert.NotContains(t, formatted, "^")
}

func TestFormatAllCounts(t *testing.T) {
	reporter := NewErrorReporter("test.sy", source)
	pos := lexer.Position{Line: 2, Column: 5}

	assert.Empty(t, reporter.FormatAll(nil))

	out := reporter.FormatAll([]CompilerError{
		JumpOutsideLoop("break", pos),
		UnreachableCode("return", pos),
	})
	assert.Equal(t, 2, strings.Count(out, "warning["))
	assert.True(t, strings.HasSuffix(out, "2 warning(s) emitted\n"), out)

	out = reporter.FormatAll([]CompilerError{NewError(ErrorSyntax, "bad", pos).Build(), JumpOutsideLoop("continue", pos)})
	assert.True(t, strings.HasSuffix(out, "1 error(s), 1 warning(s) emitted\n"), out)
}

func TestCompilerErrorString(t *testing.T) {
	err := JumpOutsideLoop("continue", lexer.Position{Filename: "loop.sy", Line: 7, Column: 9})
	assert.Equal(t, "loop.sy:7:9: warning[W0005]: 'continue' outside of a loop", err.Error())
}

func TestUnresolvedSymbolSuggestions(t *testing.T) {
	pos := lexer.Position{Line: 1, Column: 5}

	err := UnresolvedSymbol("totl", "main", pos, []string{"total", "other"})
	require.Len(t, err.Suggestions, 1)
	assert.Equal(t, "did you mean 'total'?", err.Suggestions[0].Message)
	assert.Equal(t, 4, err.Length)

	err = UnresolvedSymbol("xyz", "main", pos, nil)
	require.Len(t, err.Suggestions, 1)
	assert.Contains(t, err.Suggestions[0].Message, "declare it before use")
}

func TestUndeclaredFunctionSuggestions(t *testing.T) {
	err := UndeclaredFunction("putin", lexer.Position{Line: 1, Column: 1}, []string{"putint", "putch", "getint"})
	assert.Equal(t, WarningUndeclaredFunction, err.Code)
	require.Len(t, err.Suggestions, 1)
	assert.Equal(t, "did you mean one of: 'putint', 'putch'?", err.Suggestions[0].Message)
}

func TestFindSimilarNames(t *testing.T) {
	tests := []struct {
		target     string
		candidates []string
		want       []string
	}{
		{"arr", []string{"ar", "arrr", "array", "brr"}, []string{"arrr", "brr", "array"}},
		{"sum", []string{"sum", "sums", "sums"}, []string{"sums"}},
		{"x", []string{"a", "b"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, findSimilarNames(tt.target, tt.candidates))
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.a, tt.b), func(t *testing.T) {
			assert.Equal(t, tt.want, levenshteinDistance(tt.a, tt.b))
		})
	}
}

func TestPrintfArgumentsNotes(t *testing.T) {
	pos := lexer.Position{Line: 1, Column: 1}
	assert.Contains(t, PrintfArguments(1, 2, pos).Notes[0], "extra arguments")
	assert.Contains(t, PrintfArguments(2, 1, pos).Notes[0], "print nothing")
}

func TestSyntaxError(t *testing.T) {
	src := "int main() {\n    int x = ;\n}\n"
	_, err := grammar.ParseString("broken.sy", src)
	require.Error(t, err)

	diag := SyntaxError(err)
	assert.Equal(t, Error, diag.Level)
	assert.Equal(t, ErrorSyntax, diag.Code)
	assert.Equal(t, 2, diag.Position.Line)

	formatted := NewErrorReporter("broken.sy", src).FormatError(diag)
	assert.Contains(t, formatted, "broken.sy:2:")
	assert.Contains(t, formatted, "int x = ;")
}

func TestSyntaxErrorAtEOF(t *testing.T) {
	_, err := grammar.ParseString("eof.sy", "int main() {\n    return 0;\n")
	require.Error(t, err)

	diag := SyntaxError(err)
	assert.Equal(t, ErrorUnexpectedEOF, diag.Code)
	assert.Equal(t, "unexpected end of input", diag.Message)
}

func TestSyntaxErrorPlainError(t *testing.T) {
	diag := SyntaxError(fmt.Errorf("failed to read file"))
	assert.Equal(t, "failed to read file", diag.Message)
	assert.Zero(t, diag.Position.Line)
}

func TestCategories(t *testing.T) {
	assert.True(t, IsWarning(WarningUnreachableCode))
	assert.False(t, IsWarning(ErrorSyntax))
	assert.False(t, IsWarning(""))
	assert.Equal(t, "Parser", GetErrorCategory(ErrorUnexpectedEOF))
	assert.Equal(t, "Lowering", GetErrorCategory(WarningPrintfArguments))
	assert.Equal(t, "Unknown", GetErrorCategory("X9"))
	assert.Equal(t, "Code is unreachable", GetErrorDescription(WarningUnreachableCode))
	assert.Equal(t, "Unknown diagnostic code", GetErrorDescription("W9999"))
}
