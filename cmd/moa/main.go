// Package main is the entry point of the moa CLI.
//
// Usage:
//
//	moa [flags] <command> [args]
//
// Commands:
//
//	chat    - interactive Mixture-of-Agents chat with persisted history
//	ask     - one-shot question
//	models  - list the reference models and the session selection
//	config  - print the effective configuration
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/moa/cmd/moa/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
