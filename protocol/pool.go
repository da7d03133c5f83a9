package protocol

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// 帧本身不感知压缩；客户端可选择以 zstd 压缩 payload，服务端原样回显。

var (
	encoderPool = sync.Pool{New: func() any {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		return enc
	}}
	decoderPool = sync.Pool{New: func() any {
		dec, _ := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxPayload))
		return dec
	}}
)

func getEncoder() *zstd.Encoder  { return encoderPool.Get().(*zstd.Encoder) }
func putEncoder(e *zstd.Encoder) { encoderPool.Put(e) }
func getDecoder() *zstd.Decoder  { return decoderPool.Get().(*zstd.Decoder) }
func putDecoder(d *zstd.Decoder) { decoderPool.Put(d) }

// Compress 以 zstd 压缩 src，结果追加到 dst。
func Compress(dst, src []byte) []byte {
	zw := getEncoder()
	out := zw.EncodeAll(src, dst)
	putEncoder(zw)
	return out
}

// Decompress 解压 src，结果追加到 dst；解压后大小受 MaxPayload 约束。
func Decompress(dst, src []byte) ([]byte, error) {
	dz := getDecoder()
	out, err := dz.DecodeAll(src, dst)
	putDecoder(dz)
	return out, err
}
