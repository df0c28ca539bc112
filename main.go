package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lance13c/auditor/cmd"
	"github.com/lance13c/auditor/internal/logging"
)

var version = "dev"

func main() {
	// Ctrl+C cancels the running audit; partial results are still reported
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd.SetVersion(version)
	err := cmd.ExecuteContext(ctx)

	stop()
	logging.Close()
	if err != nil {
		os.Exit(1)
	}
}
