//go:build !windows

package runner

import (
	"errors"
	"os"
	"syscall"
)

// interrupt asks the tool to stop the way a terminal Ctrl-C would, giving it
// the chance to release state locks.
func interrupt(p *os.Process) error {
	if p == nil {
		return nil
	}
	if err := p.Signal(syscall.SIGINT); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// isClosedPTY reports the error a PTY master returns once the tool has
// exited.
func isClosedPTY(err error) bool {
	return errors.Is(err, syscall.EIO)
}
