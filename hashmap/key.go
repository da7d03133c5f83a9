package hashmap

import "hash/maphash"

var seed = maphash.MakeSeed()

// String 为字符串键，哈希种子进程内固定
type String string

func (s String) Hash() uint64 { return maphash.String(seed, string(s)) }

func (s String) Equal(other String) bool { return s == other }
