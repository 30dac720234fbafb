package utils

import (
	"os"
	"os/signal"
	"syscall"
)

// HandleTerminationProcess runs the cleanup on SIGINT/SIGTERM and exits.
func HandleTerminationProcess(cleanup func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cleanup()
		os.Exit(1)
	}()
}
