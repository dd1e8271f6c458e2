//go:build windows

package runner

import "os"

func interrupt(p *os.Process) error {
	if p == nil {
		return nil
	}
	return p.Kill()
}

func isClosedPTY(error) bool { return false }
