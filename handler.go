package gkv

// Handler 为用户回调接口，全部在事件循环线程内同步调用，要求无阻塞返回。
// OnMessage 的 msg 仅在本次回调内有效；返回值作为一帧回复写入发送缓冲。
type Handler interface {
	OnOpen(c *Conn)
	OnMessage(c *Conn, msg []byte) (reply []byte)
	OnClose(c *Conn, err error)
}

// Echo 将每帧 payload 原样回复，为后续命令处理的占位实现
type Echo struct{}

func (Echo) OnOpen(*Conn)                         {}
func (Echo) OnMessage(_ *Conn, msg []byte) []byte { return msg }
func (Echo) OnClose(*Conn, error)                 {}
