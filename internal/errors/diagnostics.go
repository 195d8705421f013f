package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// DiagnosticBuilder provides a fluent interface for creating diagnostics
type DiagnosticBuilder struct {
	err CompilerError
}

// NewError starts an error-level diagnostic
func NewError(code, message string, pos lexer.Position) *DiagnosticBuilder {
	return &DiagnosticBuilder{err: CompilerError{Level: Error, Code: code, Message: message, Position: pos, Length: 1}}
}

// NewWarning starts a warning-level diagnostic
func NewWarning(code, message string, pos lexer.Position) *DiagnosticBuilder {
	return &DiagnosticBuilder{err: CompilerError{Level: Warning, Code: code, Message: message, Position: pos, Length: 1}}
}

func (b *DiagnosticBuilder) WithLength(length int) *DiagnosticBuilder {
	b.err.Length = length
	return b
}

func (b *DiagnosticBuilder) WithSuggestion(message string) *DiagnosticBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

// WithReplacement adds a suggestion carrying replacement text
func (b *DiagnosticBuilder) WithReplacement(message, replacement string) *DiagnosticBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message, Replacement: replacement})
	return b
}

func (b *DiagnosticBuilder) WithNote(note string) *DiagnosticBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

func (b *DiagnosticBuilder) WithHelp(help string) *DiagnosticBuilder {
	b.err.HelpText = help
	return b
}

func (b *DiagnosticBuilder) Build() CompilerError {
	return b.err
}

// SyntaxError converts a parser failure into a diagnostic. Errors that do
// not come from the parser keep their text and have no position.
func SyntaxError(err error) CompilerError {
	pe, ok := err.(participle.Error)
	if !ok {
		return NewError(ErrorSyntax, err.Error(), lexer.Position{}).Build()
	}
	msg := pe.Message()
	if strings.Contains(msg, "<EOF>") {
		return NewError(ErrorUnexpectedEOF, "unexpected end of input", pe.Position()).
			WithNote(msg).
			WithSuggestion("check for a missing '}' or ';'").
			Build()
	}
	return NewError(ErrorSyntax, msg, pe.Position()).Build()
}

// UnresolvedSymbol reports a name with no declaration in scope.
func UnresolvedSymbol(name, function string, pos lexer.Position, inScope []string) CompilerError {
	builder := NewWarning(WarningUnresolvedSymbol, fmt.Sprintf("unresolved symbol '%s' in %s", name, function), pos).
		WithLength(len(name)).
		WithNote("the name is given placeholder storage so lowering can continue")
	return withSimilar(builder, name, inScope, "declare it before use, e.g. 'int "+name+";'")
}

// UndeclaredFunction reports a call to a function that is never defined.
func UndeclaredFunction(name string, pos lexer.Position, known []string) CompilerError {
	builder := NewWarning(WarningUndeclaredFunction, fmt.Sprintf("call to undeclared function '%s'", name), pos).
		WithLength(len(name)).
		WithNote("the call is assumed to return int")
	return withSimilar(builder, name, known, "define the function before main")
}

// NonConstantDimension reports an array bound lowered as 0.
func NonConstantDimension(text string, pos lexer.Position) CompilerError {
	return NewWarning(WarningNonConstantDimension, fmt.Sprintf("array dimension '%s' is not a non-negative constant", text), pos).
		WithLength(len(text)).
		WithHelp("dimensions may only use literals and const declarations").
		WithNote("the dimension is treated as 0").
		Build()
}

// NonConstantInitializer reports an initializer element lowered as 0.
func NonConstantInitializer(text string, pos lexer.Position) CompilerError {
	return NewWarning(WarningNonConstantInitializer, fmt.Sprintf("initializer '%s' is not constant", text), pos).
		WithLength(len(text)).
		WithHelp("const, global and static initializers are evaluated at compile time").
		WithNote("the element is initialized to 0").
		Build()
}

// JumpOutsideLoop reports a break or continue with no enclosing loop.
func JumpOutsideLoop(keyword string, pos lexer.Position) CompilerError {
	return NewWarning(WarningJumpOutsideLoop, fmt.Sprintf("'%s' outside of a loop", keyword), pos).
		WithLength(len(keyword)).
		WithSuggestion(fmt.Sprintf("remove the '%s' statement", keyword)).
		WithNote("the statement is ignored").
		Build()
}

// PrintfArguments reports a format whose %d count differs from its arguments.
func PrintfArguments(placeholders, args int, pos lexer.Position) CompilerError {
	builder := NewWarning(WarningPrintfArguments,
		fmt.Sprintf("printf format has %d placeholder(s) but %d argument(s)", placeholders, args), pos).
		WithLength(len("printf"))
	if args > placeholders {
		builder = builder.WithNote("extra arguments are evaluated but not printed")
	} else {
		builder = builder.WithNote("placeholders without an argument print nothing")
	}
	return builder.Build()
}

// UnreachableCode reports statements following a terminator in one block.
func UnreachableCode(after string, pos lexer.Position) CompilerError {
	return NewWarning(WarningUnreachableCode, "unreachable code", pos).
		WithSuggestion("remove this code").
		WithNote(fmt.Sprintf("any code following '%s' in the same block is never executed", after)).
		Build()
}

func withSimilar(builder *DiagnosticBuilder, name string, candidates []string, fallback string) CompilerError {
	similar := findSimilarNames(name, candidates)
	switch len(similar) {
	case 0:
		builder = builder.WithSuggestion(fallback)
	case 1:
		builder = builder.WithSuggestion(fmt.Sprintf("did you mean '%s'?", similar[0]))
	default:
		builder = builder.WithSuggestion(fmt.Sprintf("did you mean one of: '%s'?", strings.Join(similar, "', '")))
	}
	return builder.Build()
}

// findSimilarNames returns candidates within edit distance 2 of target,
// closest first.
func findSimilarNames(target string, candidates []string) []string {
	type match struct {
		name string
		dist int
	}
	var matches []match
	seen := make(map[string]bool)
	for _, c := range candidates {
		if seen[c] || c == target || len(c) <= 2 {
			continue
		}
		seen[c] = true
		if d := levenshteinDistance(target, c); d <= 2 {
			matches = append(matches, match{c, d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		return matches[i].name < matches[j].name
	})
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}

func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
