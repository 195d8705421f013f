package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var SysyLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Comments
		{"Comment", `//[^\n]*`, nil},
		{"BlockComment", `/\*(?:[^*]|\*+[^*/])*\*+/`, nil},

		// Format strings, only used by printf
		{"String", `"(?:\\.|[^"\\])*"`, nil},

		// Keywords must win over identifiers
		{"Keyword", `(?:const|int|void|static|if|else|for|break|continue|return|main|getint|printf)\b`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},

		// Integer literals
		{"Int", `[0-9]+`, nil},

		// Operators and punctuation (multi-character operators first)
		{"Punct", `&&|\|\||==|!=|<=|>=|[-+*/%!<>=(){}\[\],;]`, nil},

		// Whitespace
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
