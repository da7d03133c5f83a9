package gkv

import "log"

// Config 为服务端配置
type Config struct {
	Address   string      // 监听地址，如 ":1234"
	Backlog   int         // listen 队列深度，<=0 取系统上限 SOMAXCONN
	ReadChunk int         // 单次 read 的缓冲大小（字节）
	RingSize  int         // 每连接收/发环初始大小（字节），按需倍增
	NoDelay   bool        // 对新连接设置 TCP_NODELAY
	Logger    *log.Logger // nil 时使用 log.Default()
}

// DefaultConfig 提供一组可工作的默认值
func DefaultConfig() Config {
	return Config{
		Address:   ":1234",
		Backlog:   0,
		ReadChunk: 64 << 10, // 64 KiB
		RingSize:  4 << 10,  // 4 KiB
		NoDelay:   true,
	}
}

func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Address == "" {
		c.Address = def.Address
	}
	if c.ReadChunk <= 0 {
		c.ReadChunk = def.ReadChunk
	}
	if c.RingSize <= 0 {
		c.RingSize = def.RingSize
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
}
