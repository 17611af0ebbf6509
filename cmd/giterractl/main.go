// Command giterractl runs maintenance and batch jobs against the giterra
// store: schema migrations, batch analysis of users and planet lookups.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "giterractl:", err)
		os.Exit(1)
	}
}
