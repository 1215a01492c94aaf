// Package main provides the crucible CLI entrypoint.
//
// Usage:
//
//	crucible <command> [subcommand] [options]
//
// Exit codes for `run`:
//   - 0: every sample built
//   - 1: a sample build failed
//   - 2: harness error (config, install, staging, launch)
//   - 3: interrupted
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/crucible/cli/cmd"
	"github.com/pithecene-io/crucible/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

// exitUnexpected is used for errors that carry no exit code, such as
// flag parse failures.
const exitUnexpected = 2

func main() {
	app := &cli.App{
		Name:           "crucible",
		Usage:          "Integration-test harness for build-tool plugins",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.RunCommand(),
			cmd.ListCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already exited for cli.ExitCoder errors.
		os.Exit(exitUnexpected)
	}
}

// exitErrHandler preserves exit codes from cli.Exit().
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	code, msg := exitStatus(err)
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(code)
}

// exitStatus returns the process exit code for err and the message to
// print, if any. cli.Exit("", N) carries no message.
func exitStatus(err error) (int, string) {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg == "" || msg == fmt.Sprintf("exit status %d", code) {
			return code, ""
		}
		return code, msg
	}
	return exitUnexpected, fmt.Sprintf("Error: %v", err)
}
