// Package signal provides an interrupt channel for clean shutdowns.
package signal

import (
	"os"
	"os/signal"
	"syscall"
)

// InterruptListener returns a channel that is closed when SIGINT or SIGTERM
// is received. A second signal after the first forces immediate exit.
func InterruptListener() <-chan struct{} {
	interrupt := make(chan struct{})
	go func() {
		interruptChannel := make(chan os.Signal, 1)
		signal.Notify(interruptChannel, os.Interrupt, syscall.SIGTERM)

		sig := <-interruptChannel
		log.Infof("Received signal (%s). Shutting down...", sig)
		close(interrupt)

		sig = <-interruptChannel
		log.Infof("Received signal (%s) again. Exiting immediately...", sig)
		os.Exit(1)
	}()
	return interrupt
}
