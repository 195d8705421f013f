package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// CompUnit is a whole translation unit: global declarations, functions, then main.
type CompUnit struct {
	Pos   lexer.Position
	Decls []*Decl      `@@*`
	Funcs []*FuncDef   `@@*`
	Main  *MainFuncDef `@@`
}

type Decl struct {
	Pos   lexer.Position
	Const *ConstDecl `  @@`
	Var   *VarDecl   `| @@`
}

type ConstDecl struct {
	Pos  lexer.Position
	Type string      `"const" @"int"`
	Defs []*ConstDef `@@ { "," @@ } ";"`
}

type ConstDef struct {
	Pos  lexer.Position
	Name string        `@Ident`
	Dims []*ConstExp   `{ "[" @@ "]" }`
	Init *ConstInitVal `"=" @@`
}

type ConstInitVal struct {
	Pos   lexer.Position
	List  *ConstInitList `  @@`
	Value *ConstExp      `| @@`
}

type ConstInitList struct {
	Pos   lexer.Position
	Elems []*ConstExp `"{" [ @@ { "," @@ } ] "}"`
}

type VarDecl struct {
	Pos    lexer.Position
	Static bool      `@"static"?`
	Type   string    `@"int"`
	Defs   []*VarDef `@@ { "," @@ } ";"`
}

type VarDef struct {
	Pos  lexer.Position
	Name string      `@Ident`
	Dims []*ConstExp `{ "[" @@ "]" }`
	Init *InitVal    `[ "=" @@ ]`
}

type InitVal struct {
	Pos   lexer.Position
	List  *InitList `  @@`
	Value *Exp      `| @@`
}

type InitList struct {
	Pos   lexer.Position
	Elems []*Exp `"{" [ @@ { "," @@ } ] "}"`
}

type FuncDef struct {
	Pos    lexer.Position
	Type   string        `@("int" | "void")`
	Name   string        `@Ident "("`
	Params []*FuncFParam `[ @@ { "," @@ } ] ")"`
	Body   *Block        `@@`
}

// FuncFParam is a scalar parameter, or an array parameter whose first
// dimension is left open: int a[][3].
type FuncFParam struct {
	Pos   lexer.Position
	Type  string      `@"int"`
	Name  string      `@Ident`
	Array bool        `[ @"[" "]"`
	Dims  []*ConstExp `  { "[" @@ "]" } ]`
}

type MainFuncDef struct {
	Pos  lexer.Position
	Body *Block `"int" "main" "(" ")" @@`
}

type Block struct {
	Pos   lexer.Position
	Items []*BlockItem `"{" @@* "}"`
}

type BlockItem struct {
	Pos  lexer.Position
	Decl *Decl `  @@`
	Stmt *Stmt `| @@`
}

// Stmt alternatives are ordered so that keyword-led forms are tried first and
// assignments are tried before bare expressions.
type Stmt struct {
	Pos      lexer.Position
	If       *IfStmt     `  @@`
	For      *ForLoop    `| @@`
	Break    bool        `| @"break" ";"`
	Continue bool        `| @"continue" ";"`
	Return   *ReturnStmt `| @@`
	Printf   *PrintfStmt `| @@`
	Block    *Block      `| @@`
	Assign   *AssignStmt `| @@`
	Expr     *ExprStmt   `| @@`
}

type IfStmt struct {
	Pos  lexer.Position
	Cond *Cond `"if" "(" @@ ")"`
	Then *Stmt `@@`
	Else *Stmt `[ "else" @@ ]`
}

type ForLoop struct {
	Pos  lexer.Position
	Init *ForStmt `"for" "(" [ @@ ] ";"`
	Cond *Cond    `[ @@ ] ";"`
	Step *ForStmt `[ @@ ] ")"`
	Body *Stmt    `@@`
}

type ForStmt struct {
	Pos     lexer.Position
	Assigns []*ForAssign `@@ { "," @@ }`
}

type ForAssign struct {
	Pos    lexer.Position
	Target *LVal `@@ "="`
	Value  *Exp  `@@`
}

type ReturnStmt struct {
	Pos   lexer.Position
	Value *Exp `"return" [ @@ ] ";"`
}

type PrintfStmt struct {
	Pos    lexer.Position
	Format string `"printf" "(" @String`
	Args   []*Exp `{ "," @@ } ")" ";"`
}

// AssignStmt covers both `lval = exp;` and `lval = getint();`.
type AssignStmt struct {
	Pos    lexer.Position
	Target *LVal `@@ "="`
	GetInt bool  `( @"getint" "(" ")"`
	Value  *Exp  `| @@ ) ";"`
}

type ExprStmt struct {
	Pos   lexer.Position
	Value *Exp `[ @@ ] ";"`
}
