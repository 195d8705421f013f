// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"io"
	"os"
	"os/user"

	"gopkg.in/urfave/cli.v1"

	"sysyc/internal/config"
	"sysyc/repl"
)

var (
	dumpConfigCommand = cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		ArgsUsage:   "[file]",
		Flags:       []cli.Flag{configFileFlag, noOptFlag, maxIterationsFlag, disablePassFlag, verifyFlag, verbosityFlag},
		Description: `The dumpconfig command shows the effective configuration as TOML.`,
	}

	replCommand = cli.Command{
		Action:      startRepl,
		Name:        "repl",
		Usage:       "Compile programs typed on standard input",
		Flags:       []cli.Flag{configFileFlag, noOptFlag, maxIterationsFlag, disablePassFlag, verifyFlag, verbosityFlag},
		Description: `The repl command reads programs from standard input, each ended by a line
holding a single ".", and prints the IR of each.`,
	}

	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
)

// makeConfig starts from the defaults, applies the config file if one is
// given, then applies command line flags.
func makeConfig(ctx *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := config.Load(file, &cfg); err != nil {
			return cfg, err
		}
	}

	if ctx.Bool(noOptFlag.Name) {
		cfg.Optimizer.Enabled = false
	}
	if ctx.IsSet(maxIterationsFlag.Name) {
		cfg.Optimizer.MaxIterations = ctx.Int(maxIterationsFlag.Name)
	}
	if passes := ctx.StringSlice(disablePassFlag.Name); len(passes) > 0 {
		cfg.Optimizer.DisabledPasses = append(cfg.Optimizer.DisabledPasses, passes...)
	}
	if ctx.Bool(verifyFlag.Name) {
		cfg.Optimizer.VerifyEachPass = true
	}
	if ctx.IsSet(verbosityFlag.Name) {
		cfg.Log.Verbosity = ctx.Int(verbosityFlag.Name)
	}
	return cfg, nil
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := config.Dump(cfg)
	if err != nil {
		return err
	}

	if ctx.NArg() == 0 {
		return writeConfig(os.Stdout, out)
	}
	dump, err := os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if err := writeConfig(dump, out); err != nil {
		dump.Close()
		return err
	}
	return dump.Close()
}

func writeConfig(w io.Writer, out []byte) error {
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func startRepl(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	configureLogging(cfg.Log)

	name := "there"
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	fmt.Printf("Welcome to the sysyc REPL, %s! End each program with a line holding a single \".\".\n", name)
	repl.Start(os.Stdin, os.Stdout, cfg.PipelineOptions())
	return nil
}
