package gkv

import (
	"github.com/legamerdc/gkv/internal/ring"
)

// Conn 表示一条客户端连接，由事件循环独占。
// 读/写/关闭意图决定下一轮的就绪兴趣：wantRead 与 wantWrite 同一时刻只有一个生效。
type Conn struct {
	ID         uint64
	RemoteAddr string

	fd        int
	wantRead  bool
	wantWrite bool
	wantClose bool
	closeErr  error
	retired   bool

	incoming *ring.Buffer // 已收到尚未成帧
	outgoing *ring.Buffer // 已成帧尚未发送
}

func newConn(id uint64, fd int, remote string, ringSize int) *Conn {
	return &Conn{
		ID:         id,
		RemoteAddr: remote,
		fd:         fd,
		wantRead:   true,
		incoming:   ring.New(ringSize),
		outgoing:   ring.New(ringSize),
	}
}

// Close 标记关闭意图，在本轮就绪处理结束后释放
func (c *Conn) Close() { c.closeWith(nil) }

// Buffered 返回尚未发送的字节数
func (c *Conn) Buffered() int { return c.outgoing.Len() }

// closeWith 记录首个关闭原因
func (c *Conn) closeWith(err error) {
	if !c.wantClose {
		c.closeErr = err
	}
	c.wantClose = true
}

func (c *Conn) setWantWrite() {
	c.wantRead = false
	c.wantWrite = true
}

func (c *Conn) setWantRead() {
	c.wantRead = true
	c.wantWrite = false
}
