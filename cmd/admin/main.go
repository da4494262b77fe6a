// Command admin manages the training portal content directly in the
// document store: unlocking days, attaching recordings and exporting
// snapshots.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(newApp(os.Stdout, os.Stderr))
	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return
	}

	var usage usageError
	if errors.As(err, &usage) {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		_ = cmd.Usage()
		os.Exit(1)
	}
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
