package grammar

import (
	"fmt"
	"strings"
)

func indent(level int) string {
	return strings.Repeat("    ", level)
}

func (u *CompUnit) String() string {
	var b strings.Builder
	for _, d := range u.Decls {
		b.WriteString(d.String() + "\n")
	}
	for _, f := range u.Funcs {
		b.WriteString(f.StringWithIndent(0) + "\n")
	}
	if u.Main != nil {
		b.WriteString("int main() " + u.Main.Body.StringWithIndent(0) + "\n")
	}
	return b.String()
}

func (d *Decl) String() string {
	if d.Const != nil {
		return d.Const.String()
	}
	if d.Var != nil {
		return d.Var.String()
	}
	return ""
}

func (c *ConstDecl) String() string {
	defs := make([]string, len(c.Defs))
	for i, def := range c.Defs {
		defs[i] = def.String()
	}
	return "const int " + strings.Join(defs, ", ") + ";"
}

func (c *ConstDef) String() string {
	return c.Name + dimsString(c.Dims) + " = " + c.Init.String()
}

func (c *ConstInitVal) String() string {
	if c.List != nil {
		elems := make([]string, len(c.List.Elems))
		for i, e := range c.List.Elems {
			elems[i] = e.String()
		}
		return "{" + strings.Join(elems, ", ") + "}"
	}
	return c.Value.String()
}

func (v *VarDecl) String() string {
	defs := make([]string, len(v.Defs))
	for i, def := range v.Defs {
		defs[i] = def.String()
	}
	prefix := "int "
	if v.Static {
		prefix = "static int "
	}
	return prefix + strings.Join(defs, ", ") + ";"
}

func (v *VarDef) String() string {
	s := v.Name + dimsString(v.Dims)
	if v.Init != nil {
		s += " = " + v.Init.String()
	}
	return s
}

func (i *InitVal) String() string {
	if i.List != nil {
		elems := make([]string, len(i.List.Elems))
		for k, e := range i.List.Elems {
			elems[k] = e.String()
		}
		return "{" + strings.Join(elems, ", ") + "}"
	}
	return i.Value.String()
}

func dimsString(dims []*ConstExp) string {
	var b strings.Builder
	for _, d := range dims {
		b.WriteString("[" + d.String() + "]")
	}
	return b.String()
}

func (f *FuncDef) StringWithIndent(level int) string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("%s%s %s(%s) %s", indent(level), f.Type, f.Name, strings.Join(params, ", "), f.Body.StringWithIndent(level))
}

func (p *FuncFParam) String() string {
	if !p.Array {
		return "int " + p.Name
	}
	return "int " + p.Name + "[]" + dimsString(p.Dims)
}

func (b *Block) StringWithIndent(level int) string {
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, item := range b.Items {
		if item.Decl != nil {
			sb.WriteString(indent(level+1) + item.Decl.String() + "\n")
		} else if item.Stmt != nil {
			sb.WriteString(item.Stmt.StringWithIndent(level+1) + "\n")
		}
	}
	sb.WriteString(indent(level) + "}")
	return sb.String()
}

func (s *Stmt) StringWithIndent(level int) string {
	pad := indent(level)
	switch {
	case s.If != nil:
		out := pad + "if (" + s.If.Cond.String() + ")\n" + s.If.Then.StringWithIndent(level+1)
		if s.If.Else != nil {
			out += "\n" + pad + "else\n" + s.If.Else.StringWithIndent(level+1)
		}
		return out
	case s.For != nil:
		init, cond, step := "", "", ""
		if s.For.Init != nil {
			init = s.For.Init.String()
		}
		if s.For.Cond != nil {
			cond = s.For.Cond.String()
		}
		if s.For.Step != nil {
			step = s.For.Step.String()
		}
		return fmt.Sprintf("%sfor (%s; %s; %s)\n%s", pad, init, cond, step, s.For.Body.StringWithIndent(level+1))
	case s.Break:
		return pad + "break;"
	case s.Continue:
		return pad + "continue;"
	case s.Return != nil:
		if s.Return.Value == nil {
			return pad + "return;"
		}
		return pad + "return " + s.Return.Value.String() + ";"
	case s.Printf != nil:
		var b strings.Builder
		b.WriteString(pad + "printf(" + s.Printf.Format)
		for _, a := range s.Printf.Args {
			b.WriteString(", " + a.String())
		}
		b.WriteString(");")
		return b.String()
	case s.Block != nil:
		return pad + s.Block.StringWithIndent(level)
	case s.Assign != nil:
		if s.Assign.GetInt {
			return pad + s.Assign.Target.String() + " = getint();"
		}
		return pad + s.Assign.Target.String() + " = " + s.Assign.Value.String() + ";"
	case s.Expr != nil:
		if s.Expr.Value == nil {
			return pad + ";"
		}
		return pad + s.Expr.Value.String() + ";"
	}
	return pad + ";"
}

func (f *ForStmt) String() string {
	parts := make([]string, len(f.Assigns))
	for i, a := range f.Assigns {
		parts[i] = a.Target.String() + " = " + a.Value.String()
	}
	return strings.Join(parts, ", ")
}

func (e *Exp) String() string      { return e.Add.String() }
func (c *Cond) String() string     { return c.LOr.String() }
func (c *ConstExp) String() string { return c.Add.String() }

func (e *LOrExp) String() string {
	if e.Rest == nil {
		return e.And.String()
	}
	return e.And.String() + " || " + e.Rest.String()
}

func (e *LAndExp) String() string {
	if e.Rest == nil {
		return e.Eq.String()
	}
	return e.Eq.String() + " && " + e.Rest.String()
}

func (e *EqExp) String() string {
	if e.Rest == nil {
		return e.Rel.String()
	}
	return e.Rel.String() + " " + e.Op + " " + e.Rest.String()
}

func (e *RelExp) String() string {
	if e.Rest == nil {
		return e.Add.String()
	}
	return e.Add.String() + " " + e.Op + " " + e.Rest.String()
}

func (e *AddExp) String() string {
	if e.Rest == nil {
		return e.Mul.String()
	}
	return e.Mul.String() + " " + e.Op + " " + e.Rest.String()
}

func (e *MulExp) String() string {
	if e.Rest == nil {
		return e.Unary.String()
	}
	return e.Unary.String() + " " + e.Op + " " + e.Rest.String()
}

func (e *UnaryExp) String() string {
	switch {
	case e.Call != nil:
		args := make([]string, len(e.Call.Args))
		for i, a := range e.Call.Args {
			args[i] = a.String()
		}
		return e.Call.Name + "(" + strings.Join(args, ", ") + ")"
	case e.Primary != nil:
		return e.Primary.String()
	case e.Operand != nil:
		return e.Op + e.Operand.String()
	}
	return ""
}

func (p *PrimaryExp) String() string {
	switch {
	case p.Paren != nil:
		return "(" + p.Paren.String() + ")"
	case p.LVal != nil:
		return p.LVal.String()
	case p.Number != nil:
		return fmt.Sprintf("%d", *p.Number)
	}
	return ""
}

func (l *LVal) String() string {
	var b strings.Builder
	b.WriteString(l.Name)
	for _, idx := range l.Indices {
		b.WriteString("[" + idx.String() + "]")
	}
	return b.String()
}
