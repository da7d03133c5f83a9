package ring

// Buffer 是可增长的环形字节缓冲，容量始终为 2 的幂次。
// 尾部追加与头部消费均摊 O(1)；仅在事件循环线程中使用，不加锁。
type Buffer struct {
	buf      []byte
	mask     int
	readPos  int
	writePos int
}

// New 返回容量为 2 的幂次的环形缓冲。若 cap 非 2 的幂则向上取整。
func New(capacity int) *Buffer {
	capPow2 := roundPow2(capacity)
	return &Buffer{buf: make([]byte, capPow2), mask: capPow2 - 1}
}

func roundPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (b *Buffer) Cap() int { return len(b.buf) }

func (b *Buffer) Len() int { return b.writePos - b.readPos }

func (b *Buffer) Free() int { return b.Cap() - b.Len() }

// Write 将数据追加到尾部；空间不足时按 2 倍扩容，永不失败。
func (b *Buffer) Write(p []byte) (int, error) {
	if len(p) > b.Free() {
		b.grow(b.Len() + len(p))
	}
	n := len(p)
	start := b.writePos & b.mask
	end := start + n
	if end <= len(b.buf) {
		copy(b.buf[start:end], p)
	} else {
		l := len(b.buf) - start
		copy(b.buf[start:], p[:l])
		copy(b.buf[:n-l], p[l:])
	}
	b.writePos += n
	return n, nil
}

// grow 把现有数据线性搬到新数组头部，读写指针随之归零
func (b *Buffer) grow(need int) {
	nb := make([]byte, roundPow2(need))
	n := b.Len()
	b.copyOut(nb[:n])
	b.buf = nb
	b.mask = len(nb) - 1
	b.readPos = 0
	b.writePos = n
}

func (b *Buffer) copyOut(dst []byte) {
	n := len(dst)
	start := b.readPos & b.mask
	end := start + n
	if end <= len(b.buf) {
		copy(dst, b.buf[start:end])
		return
	}
	l := len(b.buf) - start
	copy(dst[:l], b.buf[start:])
	copy(dst[l:], b.buf[:n-l])
}

// Peek 读取最多 n 字节但不前进读指针。
// 数据连续时返回内部视图，跨越环尾时拷贝为连续切片；视图在下次写入前有效。
func (b *Buffer) Peek(n int) []byte {
	if n <= 0 {
		return nil
	}
	ln := b.Len()
	if n > ln {
		n = ln
	}
	if n == 0 {
		return nil
	}
	start := b.readPos & b.mask
	end := start + n
	if end <= len(b.buf) {
		return b.buf[start:end]
	}
	buf := make([]byte, n)
	b.copyOut(buf)
	return buf
}

// Discard 前进读指针。
func (b *Buffer) Discard(n int) int {
	ln := b.Len()
	if n > ln {
		n = ln
	}
	b.readPos += n
	if b.readPos == b.writePos {
		b.readPos, b.writePos = 0, 0
	}
	return n
}

// Reset 清空缓冲但保留底层数组。
func (b *Buffer) Reset() { b.readPos, b.writePos = 0, 0 }
