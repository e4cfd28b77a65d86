package vm

import (
	lru "github.com/hashicorp/golang-lru"
)

// ReceiptCache 最近回执的 LRU 缓存，命中时避免查 DB
type ReceiptCache struct {
	c *lru.Cache
}

// NewReceiptCache 创建缓存；size <= 0 时使用 1024
func NewReceiptCache(size int) (*ReceiptCache, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &ReceiptCache{c: c}, nil
}

// Get 返回回执副本
func (rc *ReceiptCache) Get(txID string) (*Receipt, bool) {
	v, ok := rc.c.Get(txID)
	if !ok {
		return nil, false
	}
	return copyReceipt(v.(*Receipt)), true
}

func (rc *ReceiptCache) Put(r *Receipt) {
	if r == nil || r.TxID == "" {
		return
	}
	rc.c.Add(r.TxID, copyReceipt(r))
}

// copyReceipt 深拷贝，缓存内外不共享 Logs 和 Code
func copyReceipt(r *Receipt) *Receipt {
	cp := *r
	cp.Logs = append([]string(nil), r.Logs...)
	if r.Code != nil {
		code := *r.Code
		cp.Code = &code
	}
	return &cp
}

func (rc *ReceiptCache) Len() int { return rc.c.Len() }

func (rc *ReceiptCache) Purge() { rc.c.Purge() }
