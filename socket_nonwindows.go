//go:build !windows

package ssrp

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func setBroadcast(rc syscall.RawConn) error {
	var opErr error
	if err := rc.Control(func(fd uintptr) {
		opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	}); err != nil {
		return err
	}
	return opErr
}
