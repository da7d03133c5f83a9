package gkv

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/legamerdc/gkv/poller"
)

// Server 为单线程事件循环服务端。
// 所有连接状态只在 Serve 所在 goroutine 内访问；Stop 是唯一的跨 goroutine 入口。
type Server struct {
	cfg     Config
	handler Handler
	logger  *log.Logger

	lfd  int
	addr string
	pl   poller.Poller

	conns      map[uint64]*Conn // 连接句柄 -> 连接
	retired    *queue.Queue     // 本轮待释放的 *Conn
	nextConnID uint64
	rbuf       []byte

	stopping atomic.Bool

	mu     sync.Mutex // 保护 pl 的发布与关闭，供 Stop 跨 goroutine 使用
	closed bool       // shutdown 已关闭 poller，Wake 不再安全
}

// NewServer 构造未启动的 Server 实例；h 为 nil 时使用 Echo
func NewServer(cfg Config, h Handler) (*Server, error) {
	if cfg.Backlog < 0 {
		return nil, ErrInvalidArgument
	}
	cfg.normalize()
	if h == nil {
		h = Echo{}
	}
	s := &Server{
		cfg:     cfg,
		handler: h,
		logger:  cfg.Logger,
		lfd:     -1,
		conns:   make(map[uint64]*Conn),
		retired: queue.New(),
		rbuf:    make([]byte, cfg.ReadChunk),
	}
	return s, nil
}

// Start 创建 Server 并阻塞运行事件循环
func Start(cfg Config, h Handler) error {
	s, err := NewServer(cfg, h)
	if err != nil {
		return err
	}
	return s.Start()
}

// Start 依次执行 Listen 与 Serve
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Addr 返回实际监听地址（Listen 之后有效）
func (s *Server) Addr() string { return s.addr }

// NumConns 返回当前连接数，仅可在事件循环线程（如 Handler 回调）内调用
func (s *Server) NumConns() int { return len(s.conns) }

// Stop 请求事件循环在当前轮次结束后退出，可在任意 goroutine 调用
func (s *Server) Stop() error {
	s.stopping.Store(true)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pl == nil || s.closed {
		return nil
	}
	return s.pl.Wake()
}

func (s *Server) logf(format string, args ...any) {
	s.logger.Printf("gkv: "+format, args...)
}
