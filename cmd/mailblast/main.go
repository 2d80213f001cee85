/*
Command mailblast runs a single dispatch from the command line, for cron
jobs and CI pipelines.
*/
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := exitCode(newRootCmd().ExecuteContext(ctx))
	stop()
	os.Exit(code)
}

// exitCode maps a command error to the process status. A run interrupted
// after sending started has already printed its partial report and exits 0
// like any other completed run.
func exitCode(err error) int {
	if err == nil || errors.Is(err, errRunPartial) {
		return 0
	}
	return 1
}
