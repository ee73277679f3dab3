package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Build info, injected via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "nodewatch: %v\n", err)
		return 1
	}
	return 0
}
