package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Expression chains are right-recursive: `a - b - c` parses as
// AddExp{a, "-", AddExp{b, "-", AddExp{c}}}. Consumers that need left
// associativity flatten the chain before folding it.

type Exp struct {
	Pos lexer.Position
	Add *AddExp `@@`
}

type Cond struct {
	Pos lexer.Position
	LOr *LOrExp `@@`
}

type ConstExp struct {
	Pos lexer.Position
	Add *AddExp `@@`
}

type LOrExp struct {
	Pos  lexer.Position
	And  *LAndExp `@@`
	Rest *LOrExp  `[ "||" @@ ]`
}

type LAndExp struct {
	Pos  lexer.Position
	Eq   *EqExp   `@@`
	Rest *LAndExp `[ "&&" @@ ]`
}

type EqExp struct {
	Pos  lexer.Position
	Rel  *RelExp `@@`
	Op   string  `[ @("==" | "!=")`
	Rest *EqExp  `  @@ ]`
}

type RelExp struct {
	Pos  lexer.Position
	Add  *AddExp `@@`
	Op   string  `[ @("<=" | ">=" | "<" | ">")`
	Rest *RelExp `  @@ ]`
}

type AddExp struct {
	Pos  lexer.Position
	Mul  *MulExp `@@`
	Op   string  `[ @("+" | "-")`
	Rest *AddExp `  @@ ]`
}

type MulExp struct {
	Pos   lexer.Position
	Unary *UnaryExp `@@`
	Op    string    `[ @("*" | "/" | "%")`
	Rest  *MulExp   `  @@ ]`
}

type UnaryExp struct {
	Pos     lexer.Position
	Call    *CallExp    `  @@`
	Primary *PrimaryExp `| @@`
	Op      string      `| @("+" | "-" | "!")`
	Operand *UnaryExp   `  @@`
}

type CallExp struct {
	Pos  lexer.Position
	Name string `@Ident "("`
	Args []*Exp `[ @@ { "," @@ } ] ")"`
}

type PrimaryExp struct {
	Pos    lexer.Position
	Paren  *Exp   `  "(" @@ ")"`
	LVal   *LVal  `| @@`
	Number *int64 `| @Int`
}

type LVal struct {
	Pos     lexer.Position
	Name    string `@Ident`
	Indices []*Exp `{ "[" @@ "]" }`
}
