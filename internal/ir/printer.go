package ir

import (
	"fmt"
	"strings"
)

// Printer renders a module in LLVM-style text. Instruction text is produced
// from the current operands every time, so it always matches the graph.
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter creates a new IR printer
func NewPrinter() *Printer {
	return &Printer{indent: 0}
}

// Print returns the textual form of a module
func Print(m *Module) string {
	p := NewPrinter()
	p.printModule(m)
	return p.output.String()
}

// PrintFunction returns the textual form of a single function
func PrintFunction(fn *Function) string {
	p := NewPrinter()
	p.printFunction(fn)
	return p.output.String()
}

// Helper methods

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) printModule(m *Module) {
	for _, rt := range m.Runtime {
		params := make([]string, len(rt.Params))
		for i, t := range rt.Params {
			params[i] = t.String()
		}
		p.writeLine("declare %s @%s(%s)", rt.RetType, rt.Name, strings.Join(params, ", "))
	}
	if len(m.Runtime) > 0 {
		p.writeLine("")
	}

	for _, g := range m.Globals {
		p.writeLine("%s", globalString(g))
	}
	if len(m.Globals) > 0 {
		p.writeLine("")
	}

	for i, fn := range m.Functions {
		if i > 0 {
			p.writeLine("")
		}
		p.printFunction(fn)
	}
}

func (p *Printer) printFunction(fn *Function) {
	params := make([]string, len(fn.Params))
	for i, param := range fn.Params {
		params[i] = param.Type().String() + " " + param.Ref()
	}
	p.writeLine("define dso_local %s @%s(%s) {", fn.RetType, fn.Name, strings.Join(params, ", "))
	for _, b := range fn.Blocks {
		p.printBasicBlock(b)
	}
	p.writeLine("}")
}

func (p *Printer) printBasicBlock(b *BasicBlock) {
	p.writeLine("%s:", b.Label)
	p.indent++
	for _, inst := range b.Instructions {
		p.writeLine("%s", inst.String())
	}
	p.indent--
}

func globalString(g *Global) string {
	switch g.Kind {
	case GlobalString:
		return fmt.Sprintf("@%s = private unnamed_addr constant %s c\"%s\\00\", align 1", g.Name, g.Storage, escapeBytes(g.Content))
	}

	linkage := "global"
	if g.Kind == GlobalConstant {
		linkage = "constant"
	}
	if at, ok := g.Storage.(*ArrayType); ok {
		elems := make([]string, at.Len)
		for i := range elems {
			var v int64
			if i < len(g.Init) {
				v = g.Init[i]
			}
			elems[i] = fmt.Sprintf("%s %d", at.Elem, v)
		}
		return fmt.Sprintf("@%s = dso_local %s %s [%s], align 4", g.Name, linkage, g.Storage, strings.Join(elems, ", "))
	}
	var v int64
	if len(g.Init) > 0 {
		v = g.Init[0]
	}
	return fmt.Sprintf("@%s = dso_local %s %s %d, align 4", g.Name, linkage, g.Storage, v)
}

// escapeBytes renders s as the body of an LLVM c"..." string.
func escapeBytes(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c >= 0x7f || c == '"' || c == '\\' {
			fmt.Fprintf(&b, "\\%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func (m *Module) String() string    { return Print(m) }
func (fn *Function) String() string { return PrintFunction(fn) }
