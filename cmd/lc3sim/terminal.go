//go:build linux || darwin || freebsd || netbsd || openbsd

package main

import (
	"os"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// rawMode turns off line buffering and echo on a terminal stdin, so the
// program sees every key as it is typed. Signals are left enabled. The
// returned function restores the terminal.
func rawMode() (restore func(), err error) {
	restore = func() {}

	fd := os.Stdin.Fd()
	if !term.IsTerminal(int(fd)) {
		return
	}

	var orig unix.Termios
	err = termios.Tcgetattr(fd, &orig)
	if err != nil {
		return
	}

	raw := orig
	raw.Lflag &^= unix.ICANON | unix.ECHO
	err = termios.Tcsetattr(fd, termios.TCSANOW, &raw)
	if err != nil {
		return
	}

	restore = func() {
		termios.Tcsetattr(fd, termios.TCSANOW, &orig)
	}

	return
}
