//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package main

// isTerminal reports false; colour must be requested explicitly here
func isTerminal(fd int) bool {
	return false
}
