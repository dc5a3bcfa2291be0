package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	ctx, stop := notifyContext(context.Background())
	code := run(ctx, os.Args[1:], DefaultEnv())
	stop()
	os.Exit(code)
}

// run dispatches the subcommands and returns the process exit code.
func run(ctx context.Context, args []string, env *Environment) int {
	if len(args) > 0 {
		switch args[0] {
		case "version":
			fmt.Fprintf(env.Stdout, "mdconv %s\n", Version)
			return ExitSuccess
		case "help":
			printUsage(env.Stdout)
			return ExitSuccess
		case "doctor":
			return runDoctorCmd(args[1:], env)
		}
	}

	flags, inputs, err := parseFlags(args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}
	if flags.version {
		fmt.Fprintf(env.Stdout, "mdconv %s\n", Version)
		return ExitSuccess
	}

	if err := runConvert(ctx, flags, inputs, env); err != nil {
		fmt.Fprintf(env.Stderr, "error: %s%s\n", userMessage(err), hintFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}
