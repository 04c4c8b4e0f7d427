package main

import (
	"context"
	"os"
	"os/signal"

	"go.followtheprocess.codes/bless/internal/cmd"
	"go.followtheprocess.codes/msg"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		msg.Error("%v", err)
		cancel()
		os.Exit(1)
	}
}

// run builds the CLI and executes it.
func run(ctx context.Context) error {
	root, err := cmd.Build()
	if err != nil {
		return err
	}

	return root.Execute(ctx)
}
