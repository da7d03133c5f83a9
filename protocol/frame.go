package protocol

import (
	"encoding/binary"
	"errors"
)

// 帧格式：
//   +----------------+------------------+
//   | len (4B, LE)   | payload (len B)  |
//   +----------------+------------------+
// payload 原样透传，无转义与对齐要求。

const (
	HeaderSize = 4
	MaxPayload = 32 << 20 // 32 MiB
)

var (
	// ErrIncomplete 缓冲中尚无完整帧，调用方需等待更多数据且不得消费任何字节
	ErrIncomplete = errors.New("protocol: incomplete frame")
	// ErrFrameTooLarge 声明长度超过上限，调用方需关闭连接
	ErrFrameTooLarge = errors.New("protocol: frame too large")
)

// FrameSize 仅检查 4 字节前缀，返回整帧长度（含头部）。
func FrameSize(hdr []byte) (int, error) {
	if len(hdr) < HeaderSize {
		return 0, ErrIncomplete
	}
	n := binary.LittleEndian.Uint32(hdr[:HeaderSize])
	if n > MaxPayload {
		return 0, ErrFrameTooLarge
	}
	return HeaderSize + int(n), nil
}

// DecodeOne 从 buf 头部解析一帧，返回 payload 视图与消费字节数。
// payload 引用 buf 内存，调用方消费前有效。
func DecodeOne(buf []byte) (payload []byte, consumed int, err error) {
	total, err := FrameSize(buf)
	if err != nil {
		return nil, 0, err
	}
	if len(buf) < total {
		return nil, 0, ErrIncomplete
	}
	return buf[HeaderSize:total], total, nil
}

// PutHeader 将 payload 长度写入 dst 前 4 字节。
func PutHeader(dst []byte, payloadLen int) {
	binary.LittleEndian.PutUint32(dst[:HeaderSize], uint32(payloadLen))
}

// AppendFrame 追加一帧到 dst 末尾。
func AppendFrame(dst, payload []byte) []byte {
	var hdr [HeaderSize]byte
	PutHeader(hdr[:], len(payload))
	dst = append(dst, hdr[:]...)
	return append(dst, payload...)
}

// Encode 返回 payload 对应的完整帧。
func Encode(payload []byte) []byte {
	return AppendFrame(make([]byte, 0, HeaderSize+len(payload)), payload)
}
