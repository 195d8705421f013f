// Package repl SPDX-License-Identifier: Apache-2.0
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"sysyc/grammar"
	"sysyc/internal/errors"
	"sysyc/internal/ir"
)

const (
	PROMPT       = ">> "
	CONTINUATION = ".. "
	END          = "."
)

// Start reads programs from in, each ended by a line holding only ".", and
// writes the IR or the diagnostics of each to out. A trailing program
// without a terminator is compiled when in is exhausted.
func Start(in io.Reader, out io.Writer, opts ir.PipelineOptions) {
	scanner := bufio.NewScanner(in)
	var source strings.Builder
	count := 0

	fmt.Fprint(out, PROMPT)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) != END {
			source.WriteString(line)
			source.WriteByte('\n')
			fmt.Fprint(out, CONTINUATION)
			continue
		}
		count++
		fmt.Fprint(out, Eval(fmt.Sprintf("<repl %d>", count), source.String(), opts))
		source.Reset()
		fmt.Fprint(out, PROMPT)
	}

	if strings.TrimSpace(source.String()) != "" {
		count++
		fmt.Fprint(out, Eval(fmt.Sprintf("<repl %d>", count), source.String(), opts))
	}
	fmt.Fprintln(out)
}

// Eval compiles one program and renders its diagnostics followed by its IR.
func Eval(name, source string, opts ir.PipelineOptions) string {
	reporter := errors.NewErrorReporter(name, source)
	unit, err := grammar.ParseString(name, source)
	if err != nil {
		return reporter.FormatAll([]errors.CompilerError{errors.SyntaxError(err)})
	}

	res, err := ir.Compile(unit, opts)
	var out strings.Builder
	out.WriteString(reporter.FormatAll(res.Diagnostics))
	if err != nil {
		fmt.Fprintf(&out, "optimizer error: %v\n", err)
		return out.String()
	}
	out.WriteString(ir.Print(res.Module))
	return out.String()
}
