package main

import (
	"fmt"
	"os"

	"github.com/ikkahin/hra/internal/cli"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", cli.Friendly(err))
		os.Exit(1)
	}
}

func run() error {
	app := &cli.App{}
	defer app.Close()

	// Bare `hra` opens the TUI only on a terminal.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}
