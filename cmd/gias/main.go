// Command gias analyzes GitHub issues and manages the patches generated for them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := &App{Out: os.Stdout}
	defer app.Close()

	return NewRootCmd(app, Setup).ExecuteContext(ctx)
}
