// Command dssat-eval evaluates DSSAT simulation output against observed data
// from the command line.
//
// Usage:
//
//	dssat-eval crops
//	dssat-eval treatments Maize UFGA8201.MZX
//	dssat-eval evaluate --job job.yaml
//	dssat-eval run --job job.yaml
//	dssat-eval validate --crop Maize
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
