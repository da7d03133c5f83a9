package gkv

import (
	"github.com/legamerdc/gkv/protocol"
)

// tryOneRequest 从接收缓冲解析一帧并写入回复；返回 false 表示需要等待更多数据或已决定关闭
func (s *Server) tryOneRequest(c *Conn) bool {
	if c.wantClose {
		return false
	}
	total, err := protocol.FrameSize(c.incoming.Peek(protocol.HeaderSize))
	if err == protocol.ErrIncomplete {
		return false
	}
	if err != nil {
		// 超长帧：不回复、不消费，关闭连接
		s.logf("too long (conn %d): %v", c.ID, err)
		c.closeWith(err)
		return false
	}
	if c.incoming.Len() < total {
		return false
	}
	payload, consumed, err := protocol.DecodeOne(c.incoming.Peek(total))
	if err != nil {
		c.closeWith(err)
		return false
	}

	reply := s.handler.OnMessage(c, payload)
	writeFrame(c, reply)
	c.incoming.Discard(consumed)
	return true
}

// writeFrame 将一帧回复追加到发送缓冲
func writeFrame(c *Conn, payload []byte) {
	var hdr [protocol.HeaderSize]byte
	protocol.PutHeader(hdr[:], len(payload))
	c.outgoing.Write(hdr[:])
	c.outgoing.Write(payload)
}
