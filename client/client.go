// Package client 为同步客户端：可连续写出多帧（pipeline），再按序读回同样数量的回复。
package client

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/legamerdc/gkv/protocol"
)

var (
	ErrTooLarge      = errors.New("client: payload too large")
	ErrUnexpectedEOF = errors.New("client: unexpected EOF")
)

type options struct {
	compress bool
	timeout  time.Duration
}

type Option func(*options)

// WithCompression 以 zstd 压缩发出的 payload 并解压回复；服务端原样回显，不感知压缩
func WithCompression() Option { return func(o *options) { o.compress = true } }

// WithTimeout 为每次 Pipeline/Send/Recv 设置读写截止时间
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

type Client struct {
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
	opts options
}

func Dial(address string, opts ...Option) (*Client, error) {
	nc, err := net.Dial("tcp", address)
	if err != nil {
		return nil, err
	}
	return New(nc, opts...), nil
}

// New 包装已建立的连接
func New(nc net.Conn, opts ...Option) *Client {
	c := &Client{conn: nc, r: bufio.NewReaderSize(nc, 64<<10), w: bufio.NewWriterSize(nc, 64<<10)}
	for _, fn := range opts {
		fn(&c.opts)
	}
	return c
}

func (c *Client) deadline() {
	if c.opts.timeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(c.opts.timeout))
	}
}

// Send 缓冲写出一帧，需 Flush 或 Pipeline 才真正发送
func (c *Client) Send(payload []byte) error {
	if c.opts.compress {
		payload = protocol.Compress(nil, payload)
	}
	if len(payload) > protocol.MaxPayload {
		return ErrTooLarge
	}
	var hdr [protocol.HeaderSize]byte
	protocol.PutHeader(hdr[:], len(payload))
	if _, err := c.w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := c.w.Write(payload)
	return err
}

func (c *Client) Flush() error {
	c.deadline()
	return c.w.Flush()
}

// Recv 读取一帧回复
func (c *Client) Recv() ([]byte, error) {
	c.deadline()
	var hdr [protocol.HeaderSize]byte
	if _, err := io.ReadFull(c.r, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, ErrUnexpectedEOF
		}
		return nil, err
	}
	n := binary.LittleEndian.Uint32(hdr[:])
	if n > protocol.MaxPayload {
		return nil, protocol.ErrFrameTooLarge
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrUnexpectedEOF
		}
		return nil, err
	}
	if c.opts.compress {
		return protocol.Decompress(nil, buf)
	}
	return buf, nil
}

// Pipeline 连续发出全部请求后按序读回等量回复，任一步失败即返回
func (c *Client) Pipeline(payloads ...[]byte) ([][]byte, error) {
	for i, p := range payloads {
		if err := c.Send(p); err != nil {
			return nil, fmt.Errorf("client: send #%d: %w", i, err)
		}
	}
	if err := c.Flush(); err != nil {
		return nil, fmt.Errorf("client: flush: %w", err)
	}
	replies := make([][]byte, 0, len(payloads))
	for i := range payloads {
		r, err := c.Recv()
		if err != nil {
			return replies, fmt.Errorf("client: reply #%d: %w", i, err)
		}
		replies = append(replies, r)
	}
	return replies, nil
}

func (c *Client) Close() error { return c.conn.Close() }
