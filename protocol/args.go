package protocol

import (
	"encoding/binary"
	"errors"
)

// 参数列表子格式（位于帧 payload 内部）：
//   nargs(4B) | len1(4B) arg1 | len2(4B) arg2 | ...
// 与帧长度上限相互独立。

const MaxArgs = 200 * 1000

var (
	ErrTooManyArgs   = errors.New("protocol: too many arguments")
	ErrShortArgs     = errors.New("protocol: argument overruns payload")
	ErrTrailingBytes = errors.New("protocol: trailing bytes after arguments")
)

func readU32(b []byte) (uint32, []byte, bool) {
	if len(b) < 4 {
		return 0, b, false
	}
	return binary.LittleEndian.Uint32(b[:4]), b[4:], true
}

// ParseArgs 解析参数列表；返回的切片引用 payload 内存。
// 任一长度越界或参数读完后仍有剩余字节时整体拒绝。
func ParseArgs(payload []byte) ([][]byte, error) {
	nargs, rest, ok := readU32(payload)
	if !ok {
		return nil, ErrShortArgs
	}
	if nargs > MaxArgs {
		return nil, ErrTooManyArgs
	}
	args := make([][]byte, 0, min(int(nargs), len(rest)/4))
	for len(args) < int(nargs) {
		var n uint32
		n, rest, ok = readU32(rest)
		if !ok || uint64(n) > uint64(len(rest)) {
			return nil, ErrShortArgs
		}
		args = append(args, rest[:n:n])
		rest = rest[n:]
	}
	if len(rest) != 0 {
		return nil, ErrTrailingBytes
	}
	return args, nil
}

// AppendArgs 将参数列表编码追加到 dst。
func AppendArgs(dst []byte, args ...[]byte) []byte {
	var u [4]byte
	binary.LittleEndian.PutUint32(u[:], uint32(len(args)))
	dst = append(dst, u[:]...)
	for _, a := range args {
		binary.LittleEndian.PutUint32(u[:], uint32(len(a)))
		dst = append(dst, u[:]...)
		dst = append(dst, a...)
	}
	return dst
}
