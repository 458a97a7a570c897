// Command scanlist is the operator CLI: load, inspect and clear the stored
// catalog, and run a scan session from a keyboard-wedge or serial scanner.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/ScanList/internal/core"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, describeError(err))
		}
		os.Exit(1)
	}
}

// describeError prefers the coded user message when one exists.
func describeError(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return "error: " + err.Error()
}
