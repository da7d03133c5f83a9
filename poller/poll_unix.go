//go:build linux || darwin

package poller

import (
	"golang.org/x/sys/unix"
)

// pollPoller 基于 poll(2)，每次 Wait 按 interest 完整重建 pollfd 数组。
type pollPoller struct {
	fds []unix.PollFd
	rfd int // wakeup pipe
	wfd int
}

// NewPoll 返回 poll(2) 实现。
func NewPoll() (Poller, error) {
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return nil, err
	}
	for _, fd := range p {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(p[0])
			unix.Close(p[1])
			return nil, err
		}
	}
	return &pollPoller{rfd: p[0], wfd: p[1], fds: make([]unix.PollFd, 0, 64)}, nil
}

func (p *pollPoller) Wait(interest []Interest, events []Event) ([]Event, error) {
	events = events[:0]
	p.fds = p.fds[:0]
	for _, in := range interest {
		pfd := unix.PollFd{Fd: int32(in.FD), Events: unix.POLLERR}
		if in.Read {
			pfd.Events |= unix.POLLIN
		}
		if in.Write {
			pfd.Events |= unix.POLLOUT
		}
		p.fds = append(p.fds, pfd)
	}
	p.fds = append(p.fds, unix.PollFd{Fd: int32(p.rfd), Events: unix.POLLIN})

	if _, err := unix.Poll(p.fds, -1); err != nil {
		return events, err
	}
	for i, in := range interest {
		re := p.fds[i].Revents
		if re == 0 {
			continue
		}
		ev := Event{
			Index:    i,
			Readable: re&unix.POLLIN != 0,
			Writable: re&unix.POLLOUT != 0,
			Error:    re&(unix.POLLERR|unix.POLLNVAL) != 0,
		}
		if re&unix.POLLHUP != 0 && !ev.Readable && !ev.Writable {
			hupEvent(&ev, in)
		}
		events = append(events, ev)
	}
	if p.fds[len(interest)].Revents != 0 {
		p.drain()
	}
	return events, nil
}

func (p *pollPoller) drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(p.rfd, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (p *pollPoller) Unregister(fd FD) error { return nil }

func (p *pollPoller) Wake() error {
	_, err := unix.Write(p.wfd, []byte{1})
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func (p *pollPoller) Close() error {
	unix.Close(p.wfd)
	return unix.Close(p.rfd)
}
