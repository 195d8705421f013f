package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"

	"sysyc/internal/ir"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// Optimizer controls the optimization pipeline.
type Optimizer struct {
	Enabled        bool
	MaxIterations  int
	VerifyEachPass bool
	DisabledPasses []string `toml:",omitempty"`
}

// Log controls commonlog output.
type Log struct {
	Verbosity int
	File      string `toml:",omitempty"`
}

// Config is the on-disk configuration of the compiler.
type Config struct {
	Optimizer Optimizer
	Log       Log
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Optimizer: Optimizer{
			Enabled:       true,
			MaxIterations: ir.DefaultMaxIterations,
		},
	}
}

// Load reads a TOML file over cfg. Keys absent from the file keep their
// current values.
func Load(file string, cfg *Config) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = decode(bufio.NewReader(f), cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

func decode(r io.Reader, cfg *Config) error {
	return tomlSettings.NewDecoder(r).Decode(cfg)
}

// Dump renders cfg as TOML.
func Dump(cfg Config) ([]byte, error) {
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return nil, err
	}
	return bytes.TrimSpace(out), nil
}

// PipelineOptions converts the optimizer section for the IR pipeline.
func (c Config) PipelineOptions() ir.PipelineOptions {
	return ir.PipelineOptions{
		Enabled:        c.Optimizer.Enabled,
		MaxIterations:  c.Optimizer.MaxIterations,
		VerifyEachPass: c.Optimizer.VerifyEachPass,
		DisabledPasses: c.Optimizer.DisabledPasses,
	}
}
