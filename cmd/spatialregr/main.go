package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"spatialregr/infra/observe/log/staticLog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logs := &logFile{}
	err := newRootCmd(logs).ExecuteContext(ctx)
	if err != nil {
		staticLog.Log.Errorf("spatialregr: %v", err)
	}
	if cerr := logs.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "spatialregr: close log file: %v\n", cerr)
		if err == nil {
			err = cerr
		}
	}
	if err != nil {
		stop()
		os.Exit(1)
	}
}
