// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"gopkg.in/urfave/cli.v1"

	"sysyc/grammar"
	"sysyc/internal/config"
	"sysyc/internal/errors"
	"sysyc/internal/ir"
)

var (
	outputFlag = cli.StringFlag{
		Name:  "output, o",
		Usage: "Write the IR to `FILE` instead of stdout",
	}
	noOptFlag = cli.BoolFlag{
		Name:  "O0",
		Usage: "Disable the optimizer",
	}
	maxIterationsFlag = cli.IntFlag{
		Name:  "max-iterations",
		Usage: "Upper bound on optimizer fixpoint iterations",
	}
	disablePassFlag = cli.StringSliceFlag{
		Name:  "disable-pass",
		Usage: "Skip an optimization pass by name (repeatable)",
	}
	verifyFlag = cli.BoolFlag{
		Name:  "verify",
		Usage: "Check IR invariants after every optimization pass",
	}
	statsFlag = cli.BoolFlag{
		Name:  "stats",
		Usage: "Print optimizer statistics to stderr",
	}
	werrorFlag = cli.BoolFlag{
		Name:  "Werror",
		Usage: "Treat lowering warnings as errors",
	}
	emitASTFlag = cli.BoolFlag{
		Name:  "emit-ast",
		Usage: "Print the parsed source instead of IR",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Log verbosity (0 = errors only, higher is more verbose)",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "sysyc"
	app.Usage = "compile SysY source to optimized IR"
	app.ArgsUsage = "<file.sy>"
	app.Flags = []cli.Flag{
		configFileFlag,
		outputFlag,
		noOptFlag,
		maxIterationsFlag,
		disablePassFlag,
		verifyFlag,
		statsFlag,
		werrorFlag,
		emitASTFlag,
		verbosityFlag,
	}
	app.Commands = []cli.Command{
		dumpConfigCommand,
		replCommand,
	}
	app.Action = compile

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func compile(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return cli.NewExitError("usage: sysyc [options] <file.sy>", 2)
	}
	startTime := time.Now()

	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	configureLogging(cfg.Log)

	path := ctx.Args().First()
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	reporter := errors.NewErrorReporter(path, string(source))
	failed := func() error {
		return cli.NewExitError(color.RedString("Compilation failed after %s", formatDuration(time.Since(startTime))), 1)
	}

	unit, err := grammar.ParseString(path, string(source))
	if err != nil {
		fmt.Fprint(os.Stderr, reporter.FormatAll([]errors.CompilerError{errors.SyntaxError(err)}))
		return failed()
	}

	var output string
	if ctx.Bool(emitASTFlag.Name) {
		output = unit.String()
	} else {
		res, err := ir.Compile(unit, cfg.PipelineOptions())
		fmt.Fprint(os.Stderr, reporter.FormatAll(res.Diagnostics))
		if err != nil {
			return cli.NewExitError(color.RedString("Optimizer error: %v", err), 1)
		}
		if ctx.Bool(werrorFlag.Name) && len(res.Diagnostics) > 0 {
			return failed()
		}
		if ctx.Bool(statsFlag.Name) {
			printStats(res.Stats)
		}
		output = ir.Print(res.Module)
	}

	if err := writeOutput(ctx.String("output"), output); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, color.GreenString("Successfully compiled %s in %s", path, formatDuration(time.Since(startTime))))
	return nil
}

func configureLogging(cfg config.Log) {
	var path *string
	if cfg.File != "" {
		path = &cfg.File
	}
	commonlog.Configure(cfg.Verbosity, path)
}

func writeOutput(path, text string) error {
	if path == "" {
		_, err := os.Stdout.WriteString(text)
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func printStats(stats *ir.PipelineStats) {
	status := color.YellowString("stopped at iteration cap")
	if stats.Converged {
		status = color.GreenString("converged")
	}
	fmt.Fprintf(os.Stderr, "optimizer: %d -> %d instructions, %d iterations, %s\n",
		stats.InstructionsBefore, stats.InstructionsAfter, stats.Iterations, status)

	names := make([]string, 0, len(stats.Changes))
	for name := range stats.Changes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-32s %d\n", name, stats.Changes[name])
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
