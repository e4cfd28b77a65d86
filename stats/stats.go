package stats

import (
	"sort"
	"sync"
)

// Counters 按名称计数，例如每种指令的成功/失败次数
type Counters struct {
	mu     sync.RWMutex
	counts map[string]uint64
}

func NewCounters() *Counters {
	return &Counters{counts: make(map[string]uint64)}
}

// Inc 计数加一
func (c *Counters) Inc(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name]++
}

// Get 单个计数
func (c *Counters) Get(name string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counts[name]
}

// Snapshot 复制全部计数
func (c *Counters) Snapshot() map[string]uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]uint64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Names 已出现的名称（排序）
func (c *Counters) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.counts))
	for k := range c.counts {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
