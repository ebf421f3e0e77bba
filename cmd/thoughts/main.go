package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"thoughtgraph/interfaces/cli"
)

func main() {
	// Cancelled on interrupt so watch can stop cleanly
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
