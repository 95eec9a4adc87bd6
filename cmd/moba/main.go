// Command moba is the CLI entry point for the game language toolchain.
//
// Usage:
//
//	moba tokens <file> [--json]               Print tokens
//	moba parse  <file> [--format json|yaml|tree]
//	moba run    <file>                        Run a source file
//	moba eval   <expr>                        Evaluate one expression
//	moba repl                                 Start the interactive session
//	moba dumpconfig                           Print the effective configuration
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"

	"moba-lang/internal/ast"
	"moba-lang/internal/config"
	"moba-lang/internal/diag"
	"moba-lang/internal/lexer"
	"moba-lang/internal/parser"
	"moba-lang/internal/runtime"
)

var (
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value: 3,
	}
	noColorFlag = cli.BoolFlag{
		Name:  "nocolor",
		Usage: "Disable colored output",
	}
	jsonFlag = cli.BoolFlag{
		Name:  "json",
		Usage: "Print JSON instead of a table",
	}
	formatFlag = cli.StringFlag{
		Name:  "format",
		Usage: "AST output format: json, yaml or tree",
		Value: "json",
	}
)

// cfg is the effective configuration, set up before any command runs.
var cfg = config.Defaults

func main() {
	app := cli.NewApp()
	app.Name = "moba"
	app.Usage = "lexer, parser and interpreter for the game language"
	app.Flags = []cli.Flag{configFileFlag, verbosityFlag, noColorFlag}
	app.Before = setup
	app.Action = cmdRepl
	app.Commands = []cli.Command{
		{
			Name:      "tokens",
			Usage:     "Tokenize a file and print the tokens",
			ArgsUsage: "<file>",
			Flags:     []cli.Flag{jsonFlag},
			Action:    cmdTokens,
		},
		{
			Name:      "parse",
			Usage:     "Parse a file and print the AST",
			ArgsUsage: "<file>",
			Flags:     []cli.Flag{formatFlag},
			Action:    cmdParse,
		},
		{
			Name:      "run",
			Usage:     "Run a source file",
			ArgsUsage: "<file>",
			Action:    cmdRun,
		},
		{
			Name:      "eval",
			Usage:     "Evaluate a single expression",
			ArgsUsage: "<expr>",
			Action:    cmdEval,
		},
		{
			Name:   "repl",
			Usage:  "Start the interactive session",
			Action: cmdRepl,
		},
		{
			Name:        "dumpconfig",
			Usage:       "Show configuration values",
			Action:      cmdDumpConfig,
			Description: `The dumpconfig command shows the configuration after the config file and flags are applied.`,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration file, applies global flags and installs
// the root log handler.
func setup(ctx *cli.Context) error {
	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := config.Load(file, &cfg); err != nil {
			return err
		}
	}
	if ctx.GlobalBool(noColorFlag.Name) {
		cfg.Log.Color = false
	}
	if !cfg.Log.Color || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	lvl, err := log.LvlFromString(cfg.Log.Level)
	if err != nil {
		return errors.Wrap(err, "invalid Log.Level")
	}
	if ctx.GlobalIsSet(verbosityFlag.Name) {
		lvl = log.Lvl(ctx.GlobalInt(verbosityFlag.Name))
	}
	usecolor := cfg.Log.Color && isatty.IsTerminal(os.Stderr.Fd())
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.TerminalFormat(usecolor))))
	return nil
}

func fileArg(ctx *cli.Context) (string, error) {
	if ctx.NArg() < 1 {
		return "", errors.New("missing file argument")
	}
	path := ctx.Args().First()
	source, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "cannot read file %s", path)
	}
	return string(source), nil
}

// failed exits with status 1 without printing anything further.
func failed() error {
	return cli.NewExitError("", 1)
}

// ---- tokens command ----

func cmdTokens(ctx *cli.Context) error {
	source, err := fileArg(ctx)
	if err != nil {
		return err
	}
	tokens, diags := lexer.FromText(source).Tokenize()

	if ctx.Bool(jsonFlag.Name) {
		printTokensJSON(os.Stdout, tokens, diags)
	} else {
		printTokensTable(os.Stdout, tokens)
		printDiags(os.Stderr, diags)
	}
	if diag.HasErrors(diags) {
		return failed()
	}
	return nil
}

// ---- parse command ----

func cmdParse(ctx *cli.Context) error {
	source, err := fileArg(ctx)
	if err != nil {
		return err
	}
	tokens, lexDiags := lexer.FromText(source).Tokenize()
	prog, parseDiags := parser.New(tokens).ParseProgram()
	allDiags := append(lexDiags, parseDiags...)

	switch format := strings.ToLower(ctx.String(formatFlag.Name)); format {
	case "json":
		printJSON(os.Stdout, map[string]interface{}{
			"ast":         ast.NodeToMap(prog),
			"diagnostics": diagsToSlice(allDiags),
		})
	case "yaml", "yml":
		if err := printYAML(os.Stdout, map[string]interface{}{
			"ast":         ast.NodeToMap(prog),
			"diagnostics": diagsToSlice(allDiags),
		}); err != nil {
			return err
		}
	case "tree":
		fmt.Fprint(os.Stdout, ast.Tree(prog))
		printDiags(os.Stderr, allDiags)
	default:
		return errors.Errorf("unknown format %q", format)
	}

	if diag.HasErrors(allDiags) {
		return failed()
	}
	return nil
}

// ---- run command ----

func cmdRun(ctx *cli.Context) error {
	source, err := fileArg(ctx)
	if err != nil {
		return err
	}
	if !runProgram(source, os.Stdout, os.Stderr, cfg.InterpreterOptions()...) {
		return failed()
	}
	return nil
}

// runProgram tokenizes, parses and evaluates source. Program output goes to
// out; diagnostics and runtime errors go to errOut. It reports whether every
// stage succeeded.
func runProgram(source string, out, errOut io.Writer, opts ...runtime.Option) bool {
	// Tokenize
	tokens, lexDiags := lexer.FromText(source).Tokenize()
	printDiags(errOut, lexDiags)
	if diag.HasErrors(lexDiags) {
		return false
	}

	// Parse
	prog, parseDiags := parser.New(tokens).ParseProgram()
	printDiags(errOut, parseDiags)
	if diag.HasErrors(parseDiags) {
		return false
	}

	// Interpret
	interp := runtime.NewInterpreter(out, opts...)
	if err := interp.EvaluateProgram(prog); err != nil {
		printRuntimeError(errOut, err)
		return false
	}
	log.Info("Program executed successfully.", "entities", len(interp.World().Entities()))
	return true
}

// ---- eval command ----

func cmdEval(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return errors.New("missing expression argument")
	}
	if !evalExpression(strings.Join(ctx.Args(), " "), os.Stdout, os.Stderr, cfg.InterpreterOptions()...) {
		return failed()
	}
	return nil
}

// evalExpression evaluates a single expression and prints its value.
func evalExpression(source string, out, errOut io.Writer, opts ...runtime.Option) bool {
	tokens, lexDiags := lexer.FromText(source).Tokenize()
	printDiags(errOut, lexDiags)
	if diag.HasErrors(lexDiags) {
		return false
	}
	expr, parseDiags := parser.New(tokens).ParseExpression()
	printDiags(errOut, parseDiags)
	if diag.HasErrors(parseDiags) {
		return false
	}

	interp := runtime.NewInterpreter(out, opts...)
	val, err := interp.Evaluate(expr)
	if err != nil {
		printRuntimeError(errOut, err)
		return false
	}
	fmt.Fprintln(out, val)
	return true
}

// ---- dumpconfig command ----

func cmdDumpConfig(ctx *cli.Context) error {
	return config.Dump(os.Stdout, cfg)
}
