package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"
)

var (
	promptColor = color.New(color.FgGreen)
	bannerColor = color.New(color.FgCyan, color.Bold)
	mutedColor  = color.New(color.FgHiBlack)
)

// ---- repl command ----

func cmdRepl(ctx *cli.Context) error {
	session := NewSession(os.Stdout, os.Stderr, cfg.InterpreterOptions()...)
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return scanLoop(os.Stdin, session)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            promptColor.Sprint(cfg.REPL.Prompt),
		HistoryFile:       cfg.REPL.HistoryFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         ":quit",
		HistorySearchFold: true,
	})
	if err != nil {
		return errors.Wrap(err, "readline init failed")
	}
	defer rl.Close()

	session.out, session.errOut = rl.Stdout(), rl.Stderr()
	bannerColor.Fprint(rl.Stdout(), "moba REPL ")
	mutedColor.Fprintln(rl.Stdout(), "(type :help for commands, :quit or Ctrl+D to exit)")
	fmt.Fprintln(rl.Stdout())

	for {
		if session.Pending() > 0 {
			rl.SetPrompt(mutedColor.Sprint("...   "))
		} else {
			rl.SetPrompt(promptColor.Sprint(cfg.REPL.Prompt))
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if session.Pending() > 0 {
				// Cancel buffered input
				session.clear()
				continue
			}
			mutedColor.Fprintln(rl.Stdout(), "(use :quit or Ctrl+D to quit)")
			continue
		}
		if err != nil {
			// EOF (Ctrl+D) or other error → exit
			if err == io.EOF {
				fmt.Fprintln(rl.Stdout())
			}
			return nil
		}
		if !session.Handle(line) {
			return nil
		}
	}
}

// scanLoop feeds piped input to the session line by line.
func scanLoop(r io.Reader, session *Session) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if !session.Handle(scanner.Text()) {
			return nil
		}
	}
	return scanner.Err()
}
