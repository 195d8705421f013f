package lsp

import (
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"sysyc/grammar"
)

// SemanticToken is one LSP semantic token. Line and StartChar are 0-based.
type SemanticToken struct {
	Line           uint32
	StartChar      uint32
	Length         uint32
	TokenType      int // index into SemanticTokenTypes
	TokenModifiers int // bitmask over SemanticTokenModifiers
}

const (
	modDeclaration = 1 << iota
	modReadonly
	modStatic
	modDefaultLibrary
)

var runtimeFunctions = map[string]bool{"getint": true, "putint": true, "putch": true, "putstr": true}

// binding is what a name resolves to for highlighting.
type binding struct {
	tokenType string
	modifiers int
}

type tokenWalker struct {
	source string
	tokens []SemanticToken
	scopes []map[string]binding
}

// collectSemanticTokens walks unit and returns its tokens in document order.
func collectSemanticTokens(unit *grammar.CompUnit, source string) []SemanticToken {
	if unit == nil {
		return nil
	}
	w := &tokenWalker{source: source}
	w.push()
	for _, d := range unit.Decls {
		w.decl(d)
	}
	for _, f := range unit.Funcs {
		w.mark(w.find(f.Pos, f.Name, true), len(f.Name), "function", modDeclaration)
		w.function(f.Params, f.Body)
	}
	if unit.Main != nil {
		w.mark(w.find(unit.Main.Pos, "main", true), len("main"), "function", modDeclaration)
		w.function(nil, unit.Main.Body)
	}

	sort.SliceStable(w.tokens, func(i, j int) bool {
		if w.tokens[i].Line != w.tokens[j].Line {
			return w.tokens[i].Line < w.tokens[j].Line
		}
		return w.tokens[i].StartChar < w.tokens[j].StartChar
	})
	return w.tokens
}

func (w *tokenWalker) push() { w.scopes = append(w.scopes, make(map[string]binding)) }
func (w *tokenWalker) pop()  { w.scopes = w.scopes[:len(w.scopes)-1] }

func (w *tokenWalker) bind(name string, b binding) {
	w.scopes[len(w.scopes)-1][name] = b
}

func (w *tokenWalker) resolve(name string) binding {
	for i := len(w.scopes) - 1; i >= 0; i-- {
		if b, ok := w.scopes[i][name]; ok {
			return b
		}
	}
	return binding{tokenType: "variable"}
}

func (w *tokenWalker) function(params []*grammar.FuncFParam, body *grammar.Block) {
	w.push()
	for _, p := range params {
		w.mark(w.find(p.Pos, p.Name, true), len(p.Name), "parameter", modDeclaration)
		for _, d := range p.Dims {
			w.addExp(d.Add)
		}
		w.bind(p.Name, binding{tokenType: "parameter"})
	}
	w.blockItems(body.Items)
	w.pop()
}

func (w *tokenWalker) decl(d *grammar.Decl) {
	if d.Const != nil {
		for _, def := range d.Const.Defs {
			for _, dim := range def.Dims {
				w.addExp(dim.Add)
			}
			if def.Init != nil {
				if def.Init.List != nil {
					for _, e := range def.Init.List.Elems {
						w.addExp(e.Add)
					}
				} else {
					w.addExp(def.Init.Value.Add)
				}
			}
			w.mark(def.Pos, len(def.Name), "variable", modDeclaration|modReadonly)
			w.bind(def.Name, binding{tokenType: "variable", modifiers: modReadonly})
		}
		return
	}
	mods := 0
	if d.Var.Static {
		mods = modStatic
	}
	for _, def := range d.Var.Defs {
		for _, dim := range def.Dims {
			w.addExp(dim.Add)
		}
		if def.Init != nil {
			if def.Init.List != nil {
				for _, e := range def.Init.List.Elems {
					w.exp(e)
				}
			} else {
				w.exp(def.Init.Value)
			}
		}
		w.mark(def.Pos, len(def.Name), "variable", modDeclaration|mods)
		w.bind(def.Name, binding{tokenType: "variable", modifiers: mods})
	}
}

func (w *tokenWalker) blockItems(items []*grammar.BlockItem) {
	for _, item := range items {
		if item.Decl != nil {
			w.decl(item.Decl)
			continue
		}
		w.stmt(item.Stmt)
	}
}

func (w *tokenWalker) scoped(s *grammar.Stmt) {
	w.push()
	w.stmt(s)
	w.pop()
}

func (w *tokenWalker) stmt(s *grammar.Stmt) {
	if s == nil {
		return
	}
	switch {
	case s.If != nil:
		w.lor(s.If.Cond.LOr)
		w.scoped(s.If.Then)
		if s.If.Else != nil {
			w.scoped(s.If.Else)
		}
	case s.For != nil:
		if s.For.Init != nil {
			w.forAssigns(s.For.Init)
		}
		if s.For.Cond != nil {
			w.lor(s.For.Cond.LOr)
		}
		if s.For.Step != nil {
			w.forAssigns(s.For.Step)
		}
		w.scoped(s.For.Body)
	case s.Return != nil:
		if s.Return.Value != nil {
			w.exp(s.Return.Value)
		}
	case s.Printf != nil:
		w.mark(w.find(s.Printf.Pos, s.Printf.Format, false), len(s.Printf.Format), "string", 0)
		for _, a := range s.Printf.Args {
			w.exp(a)
		}
	case s.Block != nil:
		w.push()
		w.blockItems(s.Block.Items)
		w.pop()
	case s.Assign != nil:
		w.lval(s.Assign.Target)
		if s.Assign.GetInt {
			w.mark(w.find(s.Assign.Target.Pos, "getint", true), len("getint"), "function", modDefaultLibrary)
		} else {
			w.exp(s.Assign.Value)
		}
	case s.Expr != nil:
		if s.Expr.Value != nil {
			w.exp(s.Expr.Value)
		}
	}
}

func (w *tokenWalker) forAssigns(s *grammar.ForStmt) {
	for _, a := range s.Assigns {
		w.lval(a.Target)
		w.exp(a.Value)
	}
}

func (w *tokenWalker) exp(e *grammar.Exp) { w.addExp(e.Add) }

func (w *tokenWalker) lor(e *grammar.LOrExp) {
	for ; e != nil; e = e.Rest {
		for and := e.And; and != nil; and = and.Rest {
			for eq := and.Eq; eq != nil; eq = eq.Rest {
				for rel := eq.Rel; rel != nil; rel = rel.Rest {
					w.addExp(rel.Add)
				}
			}
		}
	}
}

func (w *tokenWalker) addExp(e *grammar.AddExp) {
	for ; e != nil; e = e.Rest {
		for mul := e.Mul; mul != nil; mul = mul.Rest {
			w.unary(mul.Unary)
		}
	}
}

func (w *tokenWalker) unary(u *grammar.UnaryExp) {
	switch {
	case u.Call != nil:
		mods := 0
		if runtimeFunctions[u.Call.Name] {
			mods = modDefaultLibrary
		}
		w.mark(u.Call.Pos, len(u.Call.Name), "function", mods)
		for _, a := range u.Call.Args {
			w.exp(a)
		}
	case u.Primary != nil:
		p := u.Primary
		switch {
		case p.Paren != nil:
			w.exp(p.Paren)
		case p.LVal != nil:
			w.lval(p.LVal)
		case p.Number != nil:
			w.mark(p.Pos, w.digitsAt(p.Pos), "number", 0)
		}
	case u.Operand != nil:
		w.unary(u.Operand)
	}
}

func (w *tokenWalker) lval(l *grammar.LVal) {
	b := w.resolve(l.Name)
	w.mark(l.Pos, len(l.Name), b.tokenType, b.modifiers)
	for _, idx := range l.Indices {
		w.exp(idx)
	}
}

func (w *tokenWalker) mark(pos lexer.Position, length int, tokenType string, modifiers int) {
	if pos.Line < 1 || length <= 0 {
		return
	}
	w.tokens = append(w.tokens, SemanticToken{
		Line:           uint32(pos.Line - 1),
		StartChar:      uint32(pos.Column - 1),
		Length:         uint32(length),
		TokenType:      indexOf(tokenType, SemanticTokenTypes),
		TokenModifiers: modifiers,
	})
}

// find locates text at or after from. With word set, a match must not be
// part of a longer identifier. The zero position is returned on failure.
func (w *tokenWalker) find(from lexer.Position, text string, word bool) lexer.Position {
	if text == "" || from.Offset < 0 || from.Offset > len(w.source) {
		return lexer.Position{}
	}
	rest := w.source[from.Offset:]
	for searched := 0; ; {
		i := strings.Index(rest[searched:], text)
		if i < 0 {
			return lexer.Position{}
		}
		i += searched
		if !word || (!isIdentByte(rest, i-1) && !isIdentByte(rest, i+len(text))) {
			return advance(from, rest[:i])
		}
		searched = i + 1
	}
}

func (w *tokenWalker) digitsAt(pos lexer.Position) int {
	n := 0
	for i := pos.Offset; i < len(w.source) && w.source[i] >= '0' && w.source[i] <= '9'; i++ {
		n++
	}
	return n
}

func advance(pos lexer.Position, skipped string) lexer.Position {
	for i := 0; i < len(skipped); i++ {
		pos.Offset++
		if skipped[i] == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}
	return pos
}

func isIdentByte(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// indexOf returns the index of target in list, or 0 if absent
func indexOf(target string, list []string) int {
	for i, v := range list {
		if v == target {
			return i
		}
	}
	return 0
}
