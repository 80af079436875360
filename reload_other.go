//go:build !unix

package main

// without SIGUSR1 a reload only happens on a file change
func setupReloadSignal(reload func()) func() {
	return func() {}
}
