package grammar

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
)

var parser = participle.MustBuild[CompUnit](
	participle.Lexer(SysyLexer),
	participle.Elide("Whitespace", "Comment", "BlockComment"),
	participle.UseLookahead(participle.MaxLookahead),
)

// ParseString parses a complete SysY translation unit.
func ParseString(filename, source string) (*CompUnit, error) {
	unit, err := parser.ParseString(filename, source)
	if err != nil {
		return nil, err
	}
	return unit, nil
}

func ParseFile(path string) (*CompUnit, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseString(path, string(source))
}
