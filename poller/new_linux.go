//go:build linux

package poller

// New 在 Linux 上返回 epoll 实现。
func New() (Poller, error) { return NewEpoll() }
