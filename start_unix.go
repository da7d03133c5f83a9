//go:build linux || darwin

package gkv

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/legamerdc/gkv/internal/netutil"
	"github.com/legamerdc/gkv/poller"
)

// Listen 创建监听 socket 与 poller；绑定或 poller 创建失败时无法继续服务
func (s *Server) Listen() error {
	if s.lfd >= 0 {
		return ErrInvalidArgument
	}
	lfd, err := netutil.Listen(s.cfg.Address, s.cfg.Backlog)
	if err != nil {
		return fmt.Errorf("gkv: %w", err)
	}
	pl, err := poller.New()
	if err != nil {
		unix.Close(lfd)
		return fmt.Errorf("gkv: poller: %w", err)
	}
	addr, err := netutil.LocalAddr(lfd)
	if err != nil {
		addr = s.cfg.Address
	}
	s.mu.Lock()
	s.lfd, s.pl, s.addr = lfd, pl, addr
	s.mu.Unlock()
	return nil
}

// Serve 运行事件循环直到 Stop 或等待调用出现不可恢复的错误。
// 返回前关闭全部连接、监听 socket 与 poller。
func (s *Server) Serve() error {
	if s.lfd < 0 {
		return ErrNotListening
	}
	err := s.run()
	s.shutdown()
	if err == nil {
		err = ErrServerClosed
	}
	return err
}

func (s *Server) run() error {
	interest := make([]poller.Interest, 0, 64)
	order := make([]*Conn, 0, 64) // interest[i+1] 对应 order[i]
	var events []poller.Event

	for !s.stopping.Load() {
		// 每轮重建就绪兴趣：监听 socket 恒关心可读，连接按意图关心读或写
		interest = append(interest[:0], poller.Interest{FD: s.lfd, Read: true})
		order = order[:0]
		for _, c := range s.conns {
			interest = append(interest, poller.Interest{FD: c.fd, Read: c.wantRead, Write: c.wantWrite})
			order = append(order, c)
		}

		var err error
		events, err = s.pl.Wait(interest, events)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("gkv: wait: %w", err)
		}

		for _, ev := range events {
			if ev.Index == 0 {
				if ev.Readable {
					s.accept()
				}
				continue
			}
			c := order[ev.Index-1]
			if ev.Readable && c.wantRead {
				s.handleRead(c)
			}
			if ev.Writable && c.wantWrite && !c.wantClose {
				s.handleWrite(c)
			}
			if ev.Error {
				c.closeWith(sockError(c.fd))
			}
			if c.wantClose {
				s.retire(c)
			}
		}
		// 本轮派发结束后统一释放，避免派发途中使迭代状态失效
		s.teardown()
	}
	return nil
}

// accept 每轮至多接受一条连接；瞬时失败仅记录日志
func (s *Server) accept() {
	fd, sa, err := acceptOne(s.lfd)
	if err != nil {
		if err != unix.EAGAIN && err != unix.EWOULDBLOCK {
			s.logf("accept() error: %v", err)
		}
		return
	}
	if s.cfg.NoDelay {
		_ = netutil.SetNoDelay(fd, true)
	}
	s.nextConnID++
	c := newConn(s.nextConnID, fd, netutil.SockaddrString(sa), s.cfg.RingSize)
	s.conns[c.ID] = c
	s.logf("new client from %s (conn %d)", c.RemoteAddr, c.ID)
	s.handler.OnOpen(c)
}

// handleRead 发起一次非阻塞读，随后解析出全部完整帧
func (s *Server) handleRead(c *Conn) {
	n, err := unix.Read(c.fd, s.rbuf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
			return
		}
		s.logf("read() error: conn %d: %v", c.ID, err)
		c.closeWith(fmt.Errorf("gkv: read: %w", err))
		return
	}
	if n == 0 {
		if c.incoming.Len() == 0 {
			s.logf("client closed (conn %d)", c.ID)
			c.closeWith(nil)
		} else {
			s.logf("unexpected EOF (conn %d, %d bytes pending)", c.ID, c.incoming.Len())
			c.closeWith(ErrUnexpectedEOF)
		}
		return
	}

	c.incoming.Write(s.rbuf[:n])
	for s.tryOneRequest(c) {
	}

	if c.outgoing.Len() > 0 {
		c.setWantWrite()
		// 立即尝试写，省去一轮就绪等待
		s.handleWrite(c)
	}
}

// handleWrite 发起一次非阻塞写，提交全部待发送数据
func (s *Server) handleWrite(c *Conn) {
	n, err := unix.Write(c.fd, c.outgoing.Peek(c.outgoing.Len()))
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
			return
		}
		s.logf("write() error: conn %d: %v", c.ID, err)
		c.closeWith(fmt.Errorf("gkv: write: %w", err))
		return
	}
	c.outgoing.Discard(n)
	if c.outgoing.Len() == 0 {
		c.setWantRead()
	}
}

func (s *Server) retire(c *Conn) {
	if c.retired {
		return
	}
	c.retired = true
	s.retired.Add(c)
}

// teardown 释放本轮标记关闭的连接，每条恰好一次
func (s *Server) teardown() {
	for s.retired.Length() > 0 {
		c := s.retired.Remove().(*Conn)
		s.release(c, c.closeErr)
	}
}

func (s *Server) release(c *Conn, cause error) {
	_ = s.pl.Unregister(c.fd)
	unix.Close(c.fd)
	delete(s.conns, c.ID)
	s.handler.OnClose(c, cause)
}

func (s *Server) shutdown() {
	for _, c := range s.conns {
		s.release(c, ErrServerClosed)
	}
	unix.Close(s.lfd)
	s.lfd = -1
	// 先标记再关闭，之后的 Stop 不会写入已关闭（可能已被复用）的唤醒 fd
	s.mu.Lock()
	s.closed = true
	s.pl.Close()
	s.mu.Unlock()
}

// sockError 读取 SO_ERROR 作为关闭原因
func sockError(fd int) error {
	v, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil || v == 0 {
		return ErrSocketError
	}
	return fmt.Errorf("gkv: socket: %w", unix.Errno(v))
}
