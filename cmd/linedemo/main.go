// Command linedemo is a small interactive driver for the readline module:
// it binds a shell, optionally loads a YAML session profile, and loops
// Readline() calls until EOF/Ctrl-D, echoing back whatever line it reads.
// It exists to exercise the module the way a real consumer would, not as
// a polished end-user tool.
package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/corvidae/readline"
	"github.com/corvidae/readline/internal/config"
)

type options struct {
	Vi          bool   `short:"v" long:"vi" description:"start in vi editing mode instead of emacs"`
	ProfilePath string `short:"c" long:"config" description:"path to a YAML session profile" value-name:"FILE"`
	HistoryFile string `short:"H" long:"history" description:"file to persist line history to" value-name:"FILE"`
	Prompt      string `short:"p" long:"prompt" description:"primary prompt string" default:"> "`
}

func main() {
	var opts options

	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "readline demo shell"

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}

		os.Exit(1)
	}

	rl := readline.NewShell()
	rl.Prompt.Primary(func() string { return opts.Prompt })

	if opts.Vi {
		rl.SetEditingMode(readline.ViMode)
	}

	if opts.HistoryFile != "" {
		rl.AddHistoryFromFile("default", opts.HistoryFile)
	}

	if opts.ProfilePath != "" {
		applyProfile(rl, opts.ProfilePath)
	}

	for {
		line, err := rl.Readline()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}

		fmt.Println(line)
	}
}

func applyProfile(rl *readline.Shell, path string) {
	profile, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "linedemo: config:", err)
		return
	}

	if profile.EditingMode == "vi" {
		rl.SetEditingMode(readline.ViMode)
	}

	for name, file := range profile.HistoryFiles {
		rl.AddHistoryFromFile(name, file)
	}
}
