package vm

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"vault/logs"
	"vault/stats"
	"vault/vault"
)

const (
	vmProbeReportInterval = 10 * time.Second
	vmProbeSlowExecute    = 500 * time.Millisecond
)

type executorProbe struct {
	txSeen      atomic.Uint64
	txSucceeded atomic.Uint64
	txFailed    atomic.Uint64
	txRejected  atomic.Uint64 // 签名错误、重复交易等，不产生回执
	writeOps    atomic.Uint64

	executeTotalNs atomic.Uint64
	commitTotalNs  atomic.Uint64
	commitCalls    atomic.Uint64

	reasonsMu sync.Mutex
	reasons   map[string]int

	latency      *stats.LatencyRecorder // 按指令类型和 "commit"
	instructions *stats.Counters        // "<kind>/<status>"

	lastReportAtNs atomic.Int64
}

// ExecutorStats 执行统计快照
type ExecutorStats struct {
	TxSeen         uint64
	TxSucceeded    uint64
	TxFailed       uint64
	TxRejected     uint64
	WriteOps       uint64
	CommitCalls    uint64
	AvgExecute     time.Duration
	AvgCommit      time.Duration
	FailureReasons map[string]int
	Instructions   map[string]uint64
	Latency        map[string]stats.LatencySummary
}

func newExecutorProbe() *executorProbe {
	return &executorProbe{
		reasons:      make(map[string]int),
		latency:      stats.NewLatencyRecorder(0),
		instructions: stats.NewCounters(),
	}
}

// recordInstruction 每条指令执行后调用
func (p *executorProbe) recordInstruction(kind string, ok bool, d time.Duration) {
	status := ReceiptSucceed
	if !ok {
		status = ReceiptFailed
	}
	p.instructions.Inc(kind + "/" + status)
	p.latency.Record(kind, d)
}

func addProbeDuration(dst *atomic.Uint64, d time.Duration) {
	if d <= 0 {
		return
	}
	dst.Add(uint64(d))
}

func avgProbeDuration(totalNs, count uint64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(totalNs / count)
}

func (p *executorProbe) recordFailure(err error) {
	reason := classifyTxFailureReason(err)
	p.reasonsMu.Lock()
	p.reasons[reason]++
	p.reasonsMu.Unlock()
}

func (p *executorProbe) snapshot() ExecutorStats {
	seen := p.txSeen.Load()
	commits := p.commitCalls.Load()
	st := ExecutorStats{
		TxSeen:      seen,
		TxSucceeded: p.txSucceeded.Load(),
		TxFailed:    p.txFailed.Load(),
		TxRejected:  p.txRejected.Load(),
		WriteOps:    p.writeOps.Load(),
		CommitCalls: commits,
		AvgExecute:  avgProbeDuration(p.executeTotalNs.Load(), seen),
		AvgCommit:   avgProbeDuration(p.commitTotalNs.Load(), commits),
	}
	p.reasonsMu.Lock()
	st.FailureReasons = make(map[string]int, len(p.reasons))
	for k, v := range p.reasons {
		st.FailureReasons[k] = v
	}
	p.reasonsMu.Unlock()
	st.Instructions = p.instructions.Snapshot()
	st.Latency = p.latency.Snapshot(false)
	return st
}

func (p *executorProbe) maybeLogSummary(logger logs.Logger, now time.Time) {
	nowNs := now.UnixNano()
	last := p.lastReportAtNs.Load()
	if last != 0 && nowNs-last < int64(vmProbeReportInterval) {
		return
	}
	if !p.lastReportAtNs.CompareAndSwap(last, nowNs) {
		return
	}
	st := p.snapshot()
	logger.Info(
		"[VM][Probe] tx{seen=%d ok=%d failed=%d rejected=%d avg=%s} commit{calls=%d avg=%s writeOps=%d} top{%s}",
		st.TxSeen, st.TxSucceeded, st.TxFailed, st.TxRejected, st.AvgExecute,
		st.CommitCalls, st.AvgCommit, st.WriteOps,
		formatTopFailureReasons(st.FailureReasons, 3),
	)
}

// classifyTxFailureReason vault 错误按错误码归类，其余按错误文本
func classifyTxFailureReason(err error) string {
	if err == nil {
		return "unknown"
	}
	if code, ok := vault.CodeOf(err); ok {
		return code.String()
	}
	for _, known := range []error{
		ErrInsufficientBalance, ErrAccountAlreadyInUse, ErrNotEnoughAccountKeys,
		ErrIncorrectProgramID, ErrUnknownProgram, ErrUnbalancedInstruction,
		ErrReadonlyModified, ErrExternalAccountLamportSpend, ErrExternalAccountDataModified,
		ErrModifiedProgramID, ErrInsufficientFundsForRent,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	msg := err.Error()
	if i := strings.Index(msg, ":"); i > 0 {
		return msg[:i]
	}
	return msg
}

func formatTopFailureReasons(reasonCounts map[string]int, topN int) string {
	if len(reasonCounts) == 0 {
		return ""
	}
	if topN <= 0 {
		topN = 1
	}
	type reasonCount struct {
		reason string
		count  int
	}
	items := make([]reasonCount, 0, len(reasonCounts))
	for reason, count := range reasonCounts {
		items = append(items, reasonCount{reason: reason, count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].count == items[j].count {
			return items[i].reason < items[j].reason
		}
		return items[i].count > items[j].count
	})
	if topN > len(items) {
		topN = len(items)
	}
	parts := make([]string, 0, topN)
	for i := 0; i < topN; i++ {
		parts = append(parts, fmt.Sprintf("%dx %s", items[i].count, items[i].reason))
	}
	return strings.Join(parts, " | ")
}
