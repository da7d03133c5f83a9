//go:build linux

package poller

import (
	"golang.org/x/sys/unix"
)

// epollPoller 为水平触发的 epoll 实现。
// interest 每轮全量传入，仅对掩码发生变化的 fd 调用 EPOLL_CTL_ADD/MOD。
type epollPoller struct {
	efd        int
	wfd        int               // eventfd for wakeup
	registered map[int]uint32    // fd -> 已注册掩码
	index      map[int]int       // fd -> 本轮 interest 下标
	failed     []int             // 本轮 ctl 失败的下标，作为错误事件上报
	events     []unix.EpollEvent // EpollWait 输出缓冲
}

// NewEpoll 返回 epoll 实现。
func NewEpoll() (Poller, error) {
	efd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wfd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(efd)
		return nil, err
	}
	p := &epollPoller{
		efd:        efd,
		wfd:        wfd,
		registered: make(map[int]uint32),
		index:      make(map[int]int),
		events:     make([]unix.EpollEvent, 64),
	}
	// 注册 wakeup fd
	ev := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wfd)}
	if err := unix.EpollCtl(efd, unix.EPOLL_CTL_ADD, wfd, ev); err != nil {
		unix.Close(wfd)
		unix.Close(efd)
		return nil, err
	}
	return p, nil
}

func interestMask(in Interest) uint32 {
	var flag uint32
	if in.Read {
		flag |= unix.EPOLLIN
	}
	if in.Write {
		flag |= unix.EPOLLOUT
	}
	return flag
}

func (p *epollPoller) sync(interest []Interest) {
	clear(p.index)
	p.failed = p.failed[:0]
	for i, in := range interest {
		p.index[in.FD] = i
		mask := interestMask(in)
		old, ok := p.registered[in.FD]
		if ok && old == mask {
			continue
		}
		op := unix.EPOLL_CTL_MOD
		if !ok {
			op = unix.EPOLL_CTL_ADD
		}
		ev := &unix.EpollEvent{Events: mask, Fd: int32(in.FD)}
		if err := unix.EpollCtl(p.efd, op, in.FD, ev); err != nil {
			p.failed = append(p.failed, i)
			continue
		}
		p.registered[in.FD] = mask
	}
	// 不再出现在 interest 中的 fd
	for fd := range p.registered {
		if _, ok := p.index[fd]; !ok {
			_ = unix.EpollCtl(p.efd, unix.EPOLL_CTL_DEL, fd, nil)
			delete(p.registered, fd)
		}
	}
}

func (p *epollPoller) Wait(interest []Interest, events []Event) ([]Event, error) {
	events = events[:0]
	p.sync(interest)
	for _, i := range p.failed {
		events = append(events, Event{Index: i, Error: true})
	}
	if len(p.failed) > 0 {
		// 已有可处理的事件，不再阻塞
		return events, nil
	}
	if need := len(interest) + 1; len(p.events) < need {
		p.events = make([]unix.EpollEvent, need)
	}

	n, err := unix.EpollWait(p.efd, p.events, -1)
	if err != nil {
		return events, err
	}
	for i := 0; i < n; i++ {
		e := p.events[i]
		fd := int(e.Fd)
		if fd == p.wfd {
			p.drain()
			continue
		}
		idx, ok := p.index[fd]
		if !ok {
			continue
		}
		ev := Event{
			Index:    idx,
			Readable: e.Events&unix.EPOLLIN != 0,
			Writable: e.Events&unix.EPOLLOUT != 0,
			Error:    e.Events&unix.EPOLLERR != 0,
		}
		if e.Events&unix.EPOLLHUP != 0 && !ev.Readable && !ev.Writable {
			hupEvent(&ev, interest[idx])
		}
		events = append(events, ev)
	}
	return events, nil
}

func (p *epollPoller) drain() {
	var buf [8]byte
	for {
		if _, err := unix.Read(p.wfd, buf[:]); err != nil {
			return
		}
	}
}

func (p *epollPoller) Unregister(fd FD) error {
	if _, ok := p.registered[fd]; !ok {
		return nil
	}
	delete(p.registered, fd)
	return unix.EpollCtl(p.efd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) Wake() error {
	var buf [8]byte
	buf[0] = 1
	_, err := unix.Write(p.wfd, buf[:])
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func (p *epollPoller) Close() error {
	unix.Close(p.wfd)
	return unix.Close(p.efd)
}
