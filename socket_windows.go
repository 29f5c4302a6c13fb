//go:build windows

package ssrp

import (
	"syscall"

	"golang.org/x/sys/windows"
)

func setBroadcast(rc syscall.RawConn) error {
	var opErr error
	if err := rc.Control(func(fd uintptr) {
		opErr = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST, 1)
	}); err != nil {
		return err
	}
	return opErr
}
