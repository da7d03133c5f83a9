package poller

// FD 表示文件描述符。
type FD = int

// Interest 描述一次等待中对某个 fd 关心的就绪类型。
// 错误类就绪总是上报，无需声明。
type Interest struct {
	FD    FD
	Read  bool
	Write bool
}

// Event 为一次等待的就绪结果，Index 指向传入 Wait 的 interest 下标。
type Event struct {
	Index    int
	Readable bool
	Writable bool
	Error    bool
}

// Poller 为单线程就绪复用器。
// 每轮循环由调用方重新构建 interest 集合后调用 Wait，无超时阻塞；
// 被信号中断时返回 unix.EINTR，由调用方重试。
type Poller interface {
	Wait(interest []Interest, events []Event) ([]Event, error)
	// Unregister 在关闭 fd 之前调用，避免 fd 复用后沿用旧的注册状态
	Unregister(fd FD) error
	// Wake 可在任意 goroutine 调用，使阻塞中的 Wait 返回
	Wake() error
	Close() error
}

// hupEvent 将挂断归并到已声明的方向上，由读/写路径观察到 EOF 或 EPIPE 后关闭
func hupEvent(ev *Event, in Interest) {
	switch {
	case in.Read:
		ev.Readable = true
	case in.Write:
		ev.Writable = true
	default:
		ev.Error = true
	}
}
