package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"moba-lang/internal/diag"
	"moba-lang/internal/runtime"
	"moba-lang/internal/token"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
	hintColor    = color.New(color.FgCyan)
)

// ---- output helpers ----

func printJSON(w io.Writer, v interface{}) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "error: JSON encoding failed: %v\n", err)
		os.Exit(1)
	}
}

func printYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "YAML encoding failed")
	}
	return enc.Close()
}

func printDiags(w io.Writer, diags []diag.Diagnostic) {
	for _, d := range diags {
		c := errorColor
		if d.Severity == diag.Warning {
			c = warningColor
		}
		c.Fprintln(w, d.String())
	}
}

// printRuntimeError reports an interpreter failure. Runtime errors carry
// their own line prefix; anything else is printed as is.
func printRuntimeError(w io.Writer, err error) {
	if rerr, ok := errors.Cause(err).(*runtime.RuntimeError); ok {
		errorColor.Fprintln(w, rerr.Error())
		return
	}
	errorColor.Fprintf(w, "Error: %v\n", err)
}

func diagsToSlice(diags []diag.Diagnostic) []map[string]interface{} {
	result := make([]map[string]interface{}, len(diags))
	for i, d := range diags {
		result[i] = map[string]interface{}{
			"code":     d.Code,
			"severity": d.Severity.String(),
			"stage":    d.Stage().String(),
			"message":  d.Message,
			"line":     d.Span.Start.Line,
			"column":   d.Span.Start.Column,
		}
		if d.Hint != "" {
			result[i]["hint"] = d.Hint
		}
	}
	return result
}

// ---- token output helpers ----

func printTokensTable(w io.Writer, tokens []token.Token) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Kind", "Lexeme", "Literal", "Position"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	for _, tok := range tokens {
		table.Append([]string{
			tok.Kind.String(),
			tok.Lexeme,
			literalString(tok.Literal),
			tok.Span.Start.String(),
		})
	}
	table.Render()
}

func literalString(lit interface{}) string {
	switch v := lit.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprint(v)
	}
}

func printTokensJSON(w io.Writer, tokens []token.Token, diags []diag.Diagnostic) {
	type tokenJSON struct {
		Kind    string      `json:"kind"`
		Lexeme  string      `json:"lexeme"`
		Literal interface{} `json:"literal,omitempty"`
		Line    int         `json:"line"`
		Column  int         `json:"column"`
	}

	toks := make([]tokenJSON, 0, len(tokens))
	for _, tok := range tokens {
		toks = append(toks, tokenJSON{
			Kind:    tok.Kind.String(),
			Lexeme:  tok.Lexeme,
			Literal: tok.Literal,
			Line:    tok.Span.Start.Line,
			Column:  tok.Span.Start.Column,
		})
	}

	output := map[string]interface{}{
		"tokens":      toks,
		"diagnostics": diagsToSlice(diags),
	}
	printJSON(w, output)
}
