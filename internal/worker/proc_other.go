//go:build !windows

package worker

import (
	"os"
	"os/exec"
	"syscall"
)

func configureCmd(cmd *exec.Cmd) {}

func terminate(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}

// killJob is only needed where children do not share the parent's fate
// through process groups and explicit shutdown.
type killJob struct{}

func (j *killJob) assign(pid int) error { return nil }
