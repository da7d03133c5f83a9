package hashmap

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
)

// collide 的哈希由测试指定，用于构造冲突链
type collide struct {
	id   int
	hash uint64
}

func (c collide) Hash() uint64             { return c.hash }
func (c collide) Equal(other collide) bool { return c.id == other.id }

// checkInvariants 校验两代表的结构不变量
func checkInvariants[K Key[K], V any](t *testing.T, m *Map[K, V]) {
	t.Helper()
	seen := make(map[Handle]bool)
	for name, tb := range map[string]*table[K, V]{"newer": &m.newer, "older": &m.older} {
		if tb.buckets == nil {
			if tb.size != 0 {
				t.Fatalf("%s: size %d without buckets", name, tb.size)
			}
			continue
		}
		c := tb.capacity()
		if c&(c-1) != 0 || tb.mask != uint64(c-1) {
			t.Fatalf("%s: capacity %d mask %d", name, c, tb.mask)
		}
		count := 0
		for pos, h := range tb.buckets {
			for ; h != Invalid; h = m.nodes[h].next {
				if m.nodes[h].hcode&tb.mask != uint64(pos) {
					t.Fatalf("%s: node %d in bucket %d, hash says %d", name, h, pos, m.nodes[h].hcode&tb.mask)
				}
				if seen[h] {
					t.Fatalf("node %d linked twice", h)
				}
				seen[h] = true
				count++
			}
		}
		if count != tb.size {
			t.Fatalf("%s: size %d, chains hold %d", name, tb.size, count)
		}
	}
}

func TestZeroValue(t *testing.T) {
	var m Map[String, int]
	if _, ok := m.Lookup("x"); ok {
		t.Fatal("Lookup on empty map found a key")
	}
	if _, _, ok := m.Delete("x"); ok {
		t.Fatal("Delete on empty map reported success")
	}
	if m.Len() != 0 || m.Cap() != 0 || m.Migrating() {
		t.Fatalf("empty map: Len=%d Cap=%d Migrating=%v", m.Len(), m.Cap(), m.Migrating())
	}
}

func TestInsertLookupIdentity(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"one key", 1},
		{"below first growth", minCapacity*maxLoadFactor - 1},
		{"one growth", minCapacity * maxLoadFactor * 2},
		{"many growths", 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New[String, int]()
			handles := make([]Handle, tt.n)
			for i := 0; i < tt.n; i++ {
				handles[i] = m.Insert(String(fmt.Sprint("key-", i)), i)
			}
			if m.Len() != tt.n {
				t.Fatalf("Len() = %d, want %d", m.Len(), tt.n)
			}
			checkInvariants(t, m)
			for i := 0; i < tt.n; i++ {
				h, ok := m.Lookup(String(fmt.Sprint("key-", i)))
				if !ok || h != handles[i] {
					t.Fatalf("Lookup(key-%d) = %d, %v; want %d, true", i, h, ok, handles[i])
				}
				if m.Value(h) != i {
					t.Fatalf("Value = %d, want %d", m.Value(h), i)
				}
			}
			if _, ok := m.Lookup("absent"); ok {
				t.Fatal("Lookup(absent) found a key")
			}
		})
	}
}

func TestDelete(t *testing.T) {
	m := New[String, string]()
	for i := 0; i < 1000; i++ {
		k := String(fmt.Sprint(i))
		m.Insert(k, "v"+string(k))
	}
	for i := 0; i < 1000; i += 3 {
		k := String(fmt.Sprint(i))
		before := m.Len()
		gotK, gotV, ok := m.Delete(k)
		if !ok || gotK != k || gotV != "v"+string(k) {
			t.Fatalf("Delete(%s) = %q, %q, %v", k, gotK, gotV, ok)
		}
		if m.Len() != before-1 {
			t.Fatalf("Len() = %d after delete, want %d", m.Len(), before-1)
		}
		if _, _, ok := m.Delete(k); ok {
			t.Fatalf("second Delete(%s) reported success", k)
		}
		if _, ok := m.Lookup(k); ok {
			t.Fatalf("Lookup(%s) after delete found it", k)
		}
	}
	checkInvariants(t, m)
}

func TestCollisions(t *testing.T) {
	m := New[collide, int]()
	for i := 0; i < 200; i++ {
		m.Insert(collide{id: i, hash: 42}, i)
	}
	checkInvariants(t, m)
	for i := 0; i < 200; i++ {
		if v, ok := m.Get(collide{id: i, hash: 42}); !ok || v != i {
			t.Fatalf("Get(%d) = %d, %v", i, v, ok)
		}
	}
	// 同哈希不同键不应命中
	if _, ok := m.Lookup(collide{id: 1000, hash: 42}); ok {
		t.Fatal("Lookup of colliding absent key found a node")
	}
	if _, _, ok := m.Delete(collide{id: 100, hash: 42}); !ok {
		t.Fatal("Delete in collision chain failed")
	}
	if _, ok := m.Lookup(collide{id: 100, hash: 42}); ok {
		t.Fatal("deleted key still present")
	}
	if _, ok := m.Lookup(collide{id: 101, hash: 42}); !ok {
		t.Fatal("neighbor of deleted key lost")
	}
}

func TestMigrationIsBounded(t *testing.T) {
	m := New[collide, int]()
	threshold := minCapacity * maxLoadFactor
	for i := 0; i < threshold-1; i++ {
		m.Insert(collide{id: i, hash: uint64(i)}, i)
	}
	if m.Migrating() {
		t.Fatal("migration started below threshold")
	}
	m.Insert(collide{id: threshold - 1, hash: uint64(threshold - 1)}, 0)
	if m.Cap() != minCapacity*2 {
		t.Fatalf("Cap() = %d, want %d", m.Cap(), minCapacity*2)
	}
	// 节点数不超过单次迁移配额，触发扩容的那次插入即迁完
	if m.Migrating() || m.Len() != threshold {
		t.Fatalf("Migrating() = %v, Len() = %d; want drained with %d keys", m.Migrating(), m.Len(), threshold)
	}
	checkInvariants(t, m)

	// 更大的表：单次调用最多迁移 rehashWork 个
	m = New[collide, int]()
	i := 0
	for !m.Migrating() || m.older.capacity() < 64 {
		m.Insert(collide{id: i, hash: uint64(i) * 0x9E3779B97F4A7C15}, i)
		i++
	}
	checkInvariants(t, m)
	for m.Migrating() {
		before := m.older.size
		m.Lookup(collide{id: -1})
		moved := before - m.older.size
		if moved > rehashWork || moved <= 0 {
			t.Fatalf("one call moved %d nodes, want 1..%d", moved, rehashWork)
		}
		checkInvariants(t, m)
	}
	if m.migratePos != 0 || m.older.buckets != nil {
		t.Fatal("older not released after migration drained")
	}
	if m.Len() > m.Cap()*maxLoadFactor {
		t.Fatalf("Len %d exceeds Cap %d * %d after drain", m.Len(), m.Cap(), maxLoadFactor)
	}
}

// 与内置 map 对照的随机交错操作：迁移过程中不得丢失或重复成员
func TestRandomOpsMatchReference(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprint("seed ", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			m := New[String, int]()
			ref := make(map[String]int)
			handles := make(map[String]Handle)

			for op := 0; op < 20000; op++ {
				k := String(fmt.Sprint(rng.Intn(4000)))
				switch rng.Intn(4) {
				case 0, 1:
					if _, ok := ref[k]; ok {
						continue
					}
					handles[k] = m.Insert(k, op)
					ref[k] = op
				case 2:
					_, v, ok := m.Delete(k)
					want, wantOK := ref[k]
					if ok != wantOK || (ok && v != want) {
						t.Fatalf("op %d: Delete(%s) = %d, %v; want %d, %v", op, k, v, ok, want, wantOK)
					}
					delete(ref, k)
					delete(handles, k)
				case 3:
					h, ok := m.Lookup(k)
					if _, wantOK := ref[k]; ok != wantOK || (ok && h != handles[k]) {
						t.Fatalf("op %d: Lookup(%s) = %d, %v", op, k, h, ok)
					}
				}
				if m.Len() != len(ref) {
					t.Fatalf("op %d: Len() = %d, want %d", op, m.Len(), len(ref))
				}
				if c := m.Cap(); c&(c-1) != 0 {
					t.Fatalf("op %d: Cap() = %d not a power of two", op, c)
				}
			}
			checkInvariants(t, m)

			got := make(map[String]int)
			for k, v := range m.All() {
				if _, dup := got[k]; dup {
					t.Fatalf("key %s present twice", k)
				}
				got[k] = v
			}
			if diff := cmp.Diff(ref, got); diff != "" {
				t.Fatalf("membership mismatch (-want +got):\n%s", diff)
			}

			for m.Migrating() {
				m.Lookup("drain")
			}
			if m.Len() > m.Cap()*maxLoadFactor {
				t.Fatalf("Len %d exceeds Cap %d * %d", m.Len(), m.Cap(), maxLoadFactor)
			}
		})
	}
}

func TestSetAndHandleReuse(t *testing.T) {
	m := New[String, int]()
	h1 := m.Set("a", 1)
	if h2 := m.Set("a", 2); h2 != h1 || m.Value(h1) != 2 {
		t.Fatalf("Set existing: handle %d vs %d, value %d", h2, h1, m.Value(h1))
	}
	m.SetValue(h1, 3)
	if v, _ := m.Get("a"); v != 3 {
		t.Fatalf("Get after SetValue = %d", v)
	}
	m.Delete("a")
	h3 := m.Insert("b", 4)
	if h3 != h1 {
		t.Fatalf("freed slot not reused: got %d, want %d", h3, h1)
	}
	if m.Key(h3) != "b" {
		t.Fatalf("Key(h3) = %q", m.Key(h3))
	}

	var keys []string
	for k := range m.All() {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	if diff := cmp.Diff([]string{"b"}, keys); diff != "" {
		t.Fatalf("All() mismatch:\n%s", diff)
	}
}

func TestInitRejectsNonPowerOfTwo(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("init(3) did not panic")
		}
	}()
	var tb table[String, int]
	tb.init(3)
}

func BenchmarkInsert(b *testing.B) {
	keys := make([]String, b.N)
	for i := range keys {
		keys[i] = String(fmt.Sprint(i))
	}
	m := New[String, int]()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Insert(keys[i], i)
	}
}

// Handle 与 int 同宽，节点数仅受内存约束
func TestHandleWidth(t *testing.T) {
	if unsafe.Sizeof(Handle(0)) != unsafe.Sizeof(int(0)) {
		t.Fatalf("Handle is %d bytes, int is %d", unsafe.Sizeof(Handle(0)), unsafe.Sizeof(int(0)))
	}
}
