// Package config holds the TOML configuration shared by the CLI commands.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"

	"github.com/naoina/toml"
	"github.com/pkg/errors"

	"moba-lang/internal/runtime"
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
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// InterpreterConfig bounds evaluation and picks the export directory.
type InterpreterConfig struct {
	MaxLoopIterations int    // iterations per loop statement, 0 = unlimited
	MaxCallDepth      int    // nested calls, 0 = unlimited
	ExportDir         string // base directory of the export native
}

// LogConfig selects the stderr log level and colouring.
type LogConfig struct {
	Level string // crit, error, warn, info, debug, trace
	Color bool
}

// REPLConfig configures the interactive session.
type REPLConfig struct {
	HistoryFile string `toml:",omitempty"`
	Prompt      string
}

// Config is the top-level configuration.
type Config struct {
	Interpreter InterpreterConfig
	Log         LogConfig
	REPL        REPLConfig
}

// Defaults contains the default settings.
var Defaults = Config{
	Interpreter: InterpreterConfig{
		MaxLoopIterations: runtime.DefaultMaxLoopIterations,
		MaxCallDepth:      runtime.DefaultMaxCallDepth,
		ExportDir:         ".",
	},
	Log: LogConfig{
		Level: "info",
		Color: true,
	},
	REPL: REPLConfig{
		HistoryFile: defaultHistoryFile(),
		Prompt:      "moba> ",
	},
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".moba_history")
}

// Load decodes the TOML file over cfg. Fields missing from the file keep
// their current values.
func Load(file string, cfg *Config) error {
	f, err := os.Open(file)
	if err != nil {
		return errors.Wrap(err, "open config")
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// Dump writes cfg as TOML.
func Dump(w io.Writer, cfg Config) error {
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	_, err = w.Write(out)
	return err
}

// InterpreterOptions translates the interpreter section into runtime options.
func (c Config) InterpreterOptions() []runtime.Option {
	return []runtime.Option{
		runtime.WithMaxLoopIterations(c.Interpreter.MaxLoopIterations),
		runtime.WithMaxCallDepth(c.Interpreter.MaxCallDepth),
		runtime.WithExporter(&runtime.DirExporter{Dir: c.Interpreter.ExportDir}),
	}
}
