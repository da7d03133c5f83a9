package hashmap

// Handle 为节点在 arena 中的稳定下标；Delete 之后失效并可能被复用。
type Handle int

// Invalid 表示空链尾或不存在的节点
const Invalid Handle = -1

// node 为链式桶中的节点。next 串起同一桶，hcode 为插入时缓存的哈希值，迁移时不重算。
type node[K Key[K], V any] struct {
	next  Handle
	hcode uint64
	key   K
	value V
}

// table 为固定容量的单代哈希表：2 的幂次桶数组 + 拉链。
type table[K Key[K], V any] struct {
	buckets []Handle
	mask    uint64 // 容量 - 1
	size    int    // 表内节点数
}

func (t *table[K, V]) init(n int) {
	if n <= 0 || n&(n-1) != 0 {
		panic("hashmap: table capacity must be a power of two")
	}
	t.buckets = make([]Handle, n)
	for i := range t.buckets {
		t.buckets[i] = Invalid
	}
	t.mask = uint64(n - 1)
	t.size = 0
}

func (t *table[K, V]) capacity() int { return len(t.buckets) }

// insert 将节点挂到所属桶的链头
func (t *table[K, V]) insert(nodes []node[K, V], h Handle) {
	pos := nodes[h].hcode & t.mask
	nodes[h].next = t.buckets[pos]
	t.buckets[pos] = h
	t.size++
}

// lookup 返回匹配节点及其前驱（前驱为 Invalid 表示位于链头）
func (t *table[K, V]) lookup(nodes []node[K, V], key K, hcode uint64) (prev, cur Handle) {
	if t.buckets == nil {
		return Invalid, Invalid
	}
	prev = Invalid
	for cur = t.buckets[hcode&t.mask]; cur != Invalid; prev, cur = cur, nodes[cur].next {
		if n := &nodes[cur]; n.hcode == hcode && n.key.Equal(key) {
			return prev, cur
		}
	}
	return Invalid, Invalid
}

// detach 将 cur 从链上摘下
func (t *table[K, V]) detach(nodes []node[K, V], prev, cur Handle) {
	if prev == Invalid {
		t.buckets[nodes[cur].hcode&t.mask] = nodes[cur].next
	} else {
		nodes[prev].next = nodes[cur].next
	}
	nodes[cur].next = Invalid
	t.size--
}
