//go:build windows

package runner

import "os/exec"

func runPTY(*exec.Cmd, *Options) (waitErr, err error) {
	return nil, ErrPTYUnsupported
}
