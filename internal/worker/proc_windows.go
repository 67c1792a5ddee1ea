//go:build windows

package worker

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// createNoWindow is CREATE_NO_WINDOW: the worker talks through pipes and
// must not pop up a console of its own.
const createNoWindow = 0x08000000

func configureCmd(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNoWindow}
}

// Windows has no SIGTERM; the job object and Kill are the only levers.
func terminate(p *os.Process) error {
	return p.Kill()
}

// killJob is a job object with KILL_ON_JOB_CLOSE: when the controller exits
// for any reason the OS terminates every worker assigned to it.
type killJob struct {
	once sync.Once
	h    windows.Handle
	err  error
}

func (j *killJob) init() {
	h, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		j.err = fmt.Errorf("CreateJobObject: %w", err)
		return
	}
	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{
		BasicLimitInformation: windows.JOBOBJECT_BASIC_LIMIT_INFORMATION{
			LimitFlags: windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE,
		},
	}
	if _, err := windows.SetInformationJobObject(h,
		windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info))); err != nil {
		_ = windows.CloseHandle(h)
		j.err = fmt.Errorf("SetInformationJobObject: %w", err)
		return
	}
	j.h = h
}

func (j *killJob) assign(pid int) error {
	j.once.Do(j.init)
	if j.err != nil {
		return j.err
	}
	ph, err := windows.OpenProcess(windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("OpenProcess: %w", err)
	}
	defer windows.CloseHandle(ph)
	if err := windows.AssignProcessToJobObject(j.h, ph); err != nil {
		return fmt.Errorf("AssignProcessToJobObject: %w", err)
	}
	return nil
}
