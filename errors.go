package gkv

import "errors"

var (
	// ErrPlatformNotSupported 非 Linux/Darwin 平台的占位错误
	ErrPlatformNotSupported = errors.New("gkv: platform not supported (requires poll/epoll)")

	// ErrInvalidArgument 参数非法
	ErrInvalidArgument = errors.New("gkv: invalid argument")

	// ErrUnexpectedEOF 对端关闭时接收缓冲中仍有未成帧的数据
	ErrUnexpectedEOF = errors.New("gkv: unexpected EOF")

	// ErrSocketError 轮询上报错误位但无法取到具体 errno
	ErrSocketError = errors.New("gkv: socket error")

	// ErrServerClosed Stop 之后 Serve 的返回值，也是关停时各连接 OnClose 的原因
	ErrServerClosed = errors.New("gkv: server closed")

	// ErrNotListening Serve 前未调用 Listen
	ErrNotListening = errors.New("gkv: not listening")
)
