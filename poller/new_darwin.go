//go:build darwin

package poller

// New 在 Darwin 上返回 poll(2) 实现。
func New() (Poller, error) { return NewPoll() }
