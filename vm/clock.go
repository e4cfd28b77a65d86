package vm

import (
	"sync/atomic"
	"time"
)

// SystemClock 使用本机时间
type SystemClock struct{}

func (SystemClock) Now() int64 { return time.Now().Unix() }

// ManualClock 手动推进的时钟，测试和回放使用
type ManualClock struct {
	t atomic.Int64
}

func NewManualClock(start int64) *ManualClock {
	c := &ManualClock{}
	c.t.Store(start)
	return c
}

func (c *ManualClock) Now() int64 { return c.t.Load() }

func (c *ManualClock) Set(t int64) { c.t.Store(t) }

// Advance 推进 d 秒，返回新时间
func (c *ManualClock) Advance(d int64) int64 { return c.t.Add(d) }
