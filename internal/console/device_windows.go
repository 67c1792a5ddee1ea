//go:build windows

package console

import (
	"fmt"
	"io"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                  = windows.NewLazySystemDLL("kernel32.dll")
	procAllocConsole          = kernel32.NewProc("AllocConsole")
	procFreeConsole           = kernel32.NewProc("FreeConsole")
	procAttachConsole         = kernel32.NewProc("AttachConsole")
	procGetConsoleWindow      = kernel32.NewProc("GetConsoleWindow")
	procGetConsoleProcessList = kernel32.NewProc("GetConsoleProcessList")
)

// attachParentProcess is ATTACH_PARENT_PROCESS, (DWORD)-1.
const attachParentProcess = ^uint32(0)

type windowsDevice struct {
	out *os.File // CONOUT$ handle bound to stderr
}

// NewDevice returns the console device for this platform.
func NewDevice() Device {
	return &windowsDevice{}
}

func (d *windowsDevice) Create() (io.Writer, error) {
	if r, _, err := procAllocConsole.Call(); r == 0 {
		return nil, fmt.Errorf("AllocConsole: %w", err)
	}
	w, err := d.bindStderr()
	if err != nil {
		_, _, _ = procFreeConsole.Call()
		return nil, err
	}
	return w, nil
}

func (d *windowsDevice) AttachParent() (io.Writer, error) {
	if r, _, _ := procAttachConsole.Call(uintptr(attachParentProcess)); r == 0 {
		return nil, ErrNoParentConsole
	}
	return d.bindStderr()
}

func (d *windowsDevice) Detach() error {
	if d.out != nil {
		_ = d.out.Close()
		d.out = nil
	}
	if !d.attached() {
		return nil
	}
	if r, _, err := procFreeConsole.Call(); r == 0 {
		return fmt.Errorf("FreeConsole: %w", err)
	}
	return nil
}

// Inherited reports whether another process shares our console, which is
// the case when started from a terminal.
func (d *windowsDevice) Inherited() bool {
	return d.processCount() > 1
}

func (d *windowsDevice) attached() bool {
	hwnd, _, _ := procGetConsoleWindow.Call()
	return hwnd != 0 || d.processCount() > 0
}

func (d *windowsDevice) processCount() uint32 {
	var pids [2]uint32
	n, _, _ := procGetConsoleProcessList.Call(uintptr(unsafe.Pointer(&pids[0])), uintptr(len(pids)))
	return uint32(n)
}

// bindStderr opens the console output buffer and makes it the process's
// standard error handle.
func (d *windowsDevice) bindStderr() (io.Writer, error) {
	name, err := windows.UTF16PtrFromString("CONOUT$")
	if err != nil {
		return nil, err
	}
	h, err := windows.CreateFile(name,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil, windows.OPEN_EXISTING, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("open CONOUT$: %w", err)
	}
	if err := windows.SetStdHandle(windows.STD_ERROR_HANDLE, h); err != nil {
		_ = windows.CloseHandle(h)
		return nil, fmt.Errorf("SetStdHandle: %w", err)
	}
	d.out = os.NewFile(uintptr(h), "CONOUT$")
	return d.out, nil
}
