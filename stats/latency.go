package stats

import (
	"sort"
	"sync"
	"time"
)

// LatencySummary 单个指标的延迟分位统计
type LatencySummary struct {
	Count uint64        `json:"count"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
	Max   time.Duration `json:"max"`
}

// window 固定容量的环形样本窗口
type window struct {
	samples []time.Duration
	next    int
	full    bool
	count   uint64
	max     time.Duration
}

func (w *window) add(d time.Duration) {
	w.samples[w.next] = d
	w.next = (w.next + 1) % len(w.samples)
	if w.next == 0 {
		w.full = true
	}
	w.count++
	if d > w.max {
		w.max = d
	}
}

func (w *window) live() []time.Duration {
	if w.full {
		return w.samples
	}
	return w.samples[:w.next]
}

func (w *window) reset() {
	w.next = 0
	w.full = false
	w.count = 0
	w.max = 0
}

// LatencyRecorder 按名称（指令类型、提交阶段）记录耗时，支持分位数
type LatencyRecorder struct {
	mu       sync.Mutex
	capacity int
	windows  map[string]*window
}

func NewLatencyRecorder(capacity int) *LatencyRecorder {
	if capacity <= 0 {
		capacity = 2048
	}
	return &LatencyRecorder{
		capacity: capacity,
		windows:  make(map[string]*window),
	}
}

func (r *LatencyRecorder) Record(name string, d time.Duration) {
	if r == nil || name == "" {
		return
	}
	if d < 0 {
		d = 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[name]
	if !ok {
		w = &window{samples: make([]time.Duration, r.capacity)}
		r.windows[name] = w
	}
	w.add(d)
}

// Snapshot 获取分位统计；reset=true 时清空样本与计数（用于区间监控）。
func (r *LatencyRecorder) Snapshot(reset bool) map[string]LatencySummary {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	result := make(map[string]LatencySummary, len(r.windows))
	for name, w := range r.windows {
		live := w.live()
		if len(live) > 0 {
			sorted := append([]time.Duration(nil), live...)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
			result[name] = LatencySummary{
				Count: w.count,
				P50:   percentile(sorted, 0.50),
				P95:   percentile(sorted, 0.95),
				P99:   percentile(sorted, 0.99),
				Max:   w.max,
			}
		}
		if reset {
			w.reset()
		}
	}
	return result
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	switch {
	case len(sorted) == 0:
		return 0
	case p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[len(sorted)-1]
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}
