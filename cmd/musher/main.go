// Package main is the entry point for the musher CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/musher-dev/musher/internal/app"
	"github.com/musher-dev/musher/internal/cli"
	"github.com/musher-dev/musher/internal/domain"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get current directory: %w", err)
	}

	container, err := app.New(cwd)
	if err != nil {
		// Help and version still work outside a git repository.
		if errors.Is(err, domain.ErrNotGitRepo) && canRunWithoutGit(os.Args[1:]) {
			return cli.NewRootCommand(nil, version).Execute()
		}
		return err
	}
	defer func() { _ = container.Close() }()

	return cli.NewRootCommand(container, version).Execute()
}

func canRunWithoutGit(args []string) bool {
	if len(args) == 0 {
		return true
	}
	if args[0] == "help" {
		return true
	}
	for _, arg := range args {
		if arg == "--version" || arg == "-v" || arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}
