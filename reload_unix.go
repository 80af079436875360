//go:build unix

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// setupReloadSignal calls reload on every SIGUSR1 until the returned
// function is called
func setupReloadSignal(reload func()) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGUSR1)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-sigChan:
				reload()
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}
