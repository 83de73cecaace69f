//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package main

func rawMode() (restore func(), err error) {
	restore = func() {}
	return
}
