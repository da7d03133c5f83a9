//go:build darwin

package gkv

import (
	"golang.org/x/sys/unix"
)

// Darwin 无 accept4，接受后再设置非阻塞
func acceptOne(lfd int) (int, unix.Sockaddr, error) {
	fd, sa, err := unix.Accept(lfd)
	if err != nil {
		return -1, nil, err
	}
	unix.CloseOnExec(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, nil, err
	}
	return fd, sa, nil
}
