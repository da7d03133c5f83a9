// Package hashmap 实现渐进式扩容的链式哈希表。
//
// Map 持有新旧两代 table：插入只进入 newer；负载因子达到阈值时 newer 降为 older，
// 并分配容量翻倍的新 newer。此后每次 Insert/Lookup/Delete 顺带迁移至多
// rehashWork 个节点，扩容代价摊到后续调用中，不会一次性停顿。
//
// 节点存放在 Map 自有的 arena 中，以 Handle 引用；迁移只改链接，不移动节点，
// 因此 Handle 在节点删除前保持稳定。Map 非并发安全。
package hashmap

import "iter"

const (
	minCapacity   = 4   // 首次插入时的桶数
	maxLoadFactor = 8   // size / capacity 达到该值时开始迁移
	rehashWork    = 128 // 每次调用最多迁移的节点数
)

// Key 由键类型自身提供哈希与相等比较
type Key[K any] interface {
	Hash() uint64
	Equal(other K) bool
}

// Map 的零值可直接使用
type Map[K Key[K], V any] struct {
	newer      table[K, V]
	older      table[K, V]
	migratePos int

	nodes []node[K, V]
	free  []Handle
}

// New 返回空 Map
func New[K Key[K], V any]() *Map[K, V] { return &Map[K, V]{} }

// Len 返回两代表中的节点总数
func (m *Map[K, V]) Len() int { return m.newer.size + m.older.size }

// Cap 返回 newer 的桶数
func (m *Map[K, V]) Cap() int { return m.newer.capacity() }

// Migrating 报告是否有迁移尚未完成
func (m *Map[K, V]) Migrating() bool { return m.older.buckets != nil }

// Insert 插入新节点并返回其 Handle。调用方需保证 key 尚不存在（见 Set）。
func (m *Map[K, V]) Insert(key K, value V) Handle {
	if m.newer.buckets == nil {
		m.newer.init(minCapacity)
	}
	h := m.alloc(key, value)
	m.newer.insert(m.nodes, h)

	if !m.Migrating() && m.newer.size >= m.newer.capacity()*maxLoadFactor {
		m.startMigration()
	}
	m.migrate()
	return h
}

// Set 更新已存在键的值，否则插入
func (m *Map[K, V]) Set(key K, value V) Handle {
	if h, ok := m.Lookup(key); ok {
		m.nodes[h].value = value
		return h
	}
	return m.Insert(key, value)
}

// Lookup 返回 key 对应节点的 Handle
func (m *Map[K, V]) Lookup(key K) (Handle, bool) {
	m.migrate()
	hcode := key.Hash()
	if _, cur := m.newer.lookup(m.nodes, key, hcode); cur != Invalid {
		return cur, true
	}
	if _, cur := m.older.lookup(m.nodes, key, hcode); cur != Invalid {
		return cur, true
	}
	return Invalid, false
}

// Get 返回 key 对应的值
func (m *Map[K, V]) Get(key K) (V, bool) {
	h, ok := m.Lookup(key)
	if !ok {
		var zero V
		return zero, false
	}
	return m.nodes[h].value, true
}

// Delete 摘除 key 对应节点，并把键值交还调用方。
func (m *Map[K, V]) Delete(key K) (K, V, bool) {
	m.migrate()
	hcode := key.Hash()
	for _, t := range [...]*table[K, V]{&m.newer, &m.older} {
		if prev, cur := t.lookup(m.nodes, key, hcode); cur != Invalid {
			t.detach(m.nodes, prev, cur)
			k, v := m.release(cur)
			return k, v, true
		}
	}
	var (
		zk K
		zv V
	)
	return zk, zv, false
}

// Key 返回 h 所指节点的键
func (m *Map[K, V]) Key(h Handle) K { return m.nodes[h].key }

// Value 返回 h 所指节点的值
func (m *Map[K, V]) Value(h Handle) V { return m.nodes[h].value }

// SetValue 原地更新 h 所指节点的值
func (m *Map[K, V]) SetValue(h Handle, v V) { m.nodes[h].value = v }

// All 遍历两代表中的全部键值，不触发迁移；遍历期间不得修改 Map
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, t := range [...]*table[K, V]{&m.newer, &m.older} {
			for _, h := range t.buckets {
				for ; h != Invalid; h = m.nodes[h].next {
					if !yield(m.nodes[h].key, m.nodes[h].value) {
						return
					}
				}
			}
		}
	}
}

// startMigration newer 降为 older，新建两倍容量的 newer
func (m *Map[K, V]) startMigration() {
	m.older = m.newer
	m.newer = table[K, V]{}
	m.newer.init(m.older.capacity() * 2)
	m.migratePos = 0
}

// migrate 从 older 迁移至多 rehashWork 个节点到 newer；older 清空后释放其桶数组
func (m *Map[K, V]) migrate() {
	for moved := 0; moved < rehashWork && m.older.size > 0; {
		h := m.older.buckets[m.migratePos]
		if h == Invalid {
			m.migratePos++
			continue
		}
		m.older.detach(m.nodes, Invalid, h)
		m.newer.insert(m.nodes, h)
		moved++
	}
	if m.older.size == 0 && m.older.buckets != nil {
		m.older = table[K, V]{}
		m.migratePos = 0
	}
}

func (m *Map[K, V]) alloc(key K, value V) Handle {
	n := node[K, V]{next: Invalid, hcode: key.Hash(), key: key, value: value}
	if l := len(m.free); l > 0 {
		h := m.free[l-1]
		m.free = m.free[:l-1]
		m.nodes[h] = n
		return h
	}
	m.nodes = append(m.nodes, n)
	return Handle(len(m.nodes) - 1)
}

func (m *Map[K, V]) release(h Handle) (K, V) {
	k, v := m.nodes[h].key, m.nodes[h].value
	m.nodes[h] = node[K, V]{next: Invalid}
	m.free = append(m.free, h)
	return k, v
}
