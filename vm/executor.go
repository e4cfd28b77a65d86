package vm

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"vault/config"
	"vault/keys"
	"vault/logs"
	"vault/types"
	"vault/vault"
)

// Executor 交易执行器。
//
// 每笔交易在一个新的 StateView 上执行；全部指令成功后写集和回执在一次
// ForceFlush 中提交，任一指令失败则回滚全部账户修改，只落回执。
// mu 串行化所有会写状态的调用，同一 vault 不会被并发修改。
type Executor struct {
	mu        sync.Mutex
	DB        DBManager
	Reg       *HandlerRegistry
	Receipts  *ReceiptCache
	KFn       KindFn
	ReadFn    ReadThroughFn
	ProgramID types.Pubkey
	Clock     Clock
	Rent      vault.Rent
	System    SystemProgram
	Logger    logs.Logger

	probe *executorProbe
}

// NewExecutor 创建执行器；reg 为 nil 时注册默认 handler，cache 为 nil 时新建
func NewExecutor(db DBManager, reg *HandlerRegistry, cache *ReceiptCache, programID types.Pubkey) (*Executor, error) {
	if db == nil {
		return nil, errors.New("nil db manager")
	}
	if reg == nil {
		reg = NewHandlerRegistry()
		if err := RegisterDefaultHandlers(reg); err != nil {
			return nil, err
		}
	}
	if cache == nil {
		var err error
		if cache, err = NewReceiptCache(0); err != nil {
			return nil, err
		}
	}

	executor := &Executor{
		DB:        db,
		Reg:       reg,
		Receipts:  cache,
		KFn:       DefaultKindFn,
		ProgramID: programID,
		Clock:     SystemClock{},
		Rent:      vault.DefaultRent(),
		System:    NewSystemProgram(),
		Logger:    logs.NewNodeLogger("vm"),
		probe:     newExecutorProbe(),
	}

	// 设置ReadFn
	executor.ReadFn = func(key string) ([]byte, error) {
		return db.Get(key)
	}
	return executor, nil
}

// NewExecutorFromConfig 按配置创建执行器
func NewExecutorFromConfig(db DBManager, cfg *config.Config, logger logs.Logger) (*Executor, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	programID, err := types.PubkeyFromString(cfg.Vault.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("program id: %w", err)
	}
	cache, err := NewReceiptCache(cfg.Cache.ReceiptCacheSize)
	if err != nil {
		return nil, err
	}
	x, err := NewExecutor(db, nil, cache, programID)
	if err != nil {
		return nil, err
	}
	x.Rent = vault.Rent{
		LamportsPerByteYear: cfg.Rent.LamportsPerByteYear,
		ExemptionThreshold:  cfg.Rent.ExemptionThreshold,
		StorageOverhead:     cfg.Rent.StorageOverhead,
	}
	if logger != nil {
		x.Logger = logger
	}
	return x, nil
}

// Execute 执行并提交一笔交易。
//
// 返回 error 表示交易被拒绝（签名无效、重复交易、落库失败），不产生回执；
// 指令执行失败时返回 FAILED 回执且 error 为 nil，账户状态保持不变。
func (x *Executor) Execute(tx *types.Transaction) (*Receipt, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.run(tx, true)
}

// Simulate 预执行：走完整流程但不落库
func (x *Executor) Simulate(tx *types.Transaction) (*Receipt, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.run(tx, false)
}

func (x *Executor) run(tx *types.Transaction, commit bool) (*Receipt, error) {
	start := time.Now()
	x.probe.txSeen.Add(1)
	defer func() {
		elapsed := time.Since(start)
		addProbeDuration(&x.probe.executeTotalNs, elapsed)
		if elapsed > vmProbeSlowExecute {
			x.Logger.Warn("[VM] slow execute: %s", elapsed)
		}
		x.probe.maybeLogSummary(x.Logger, time.Now())
	}()

	if tx == nil {
		x.probe.txRejected.Add(1)
		return nil, ErrNilTx
	}
	txID := tx.TxID()

	// 1. 签名校验：不通过的交易不落回执，避免他人用无效签名占用 txID
	if err := tx.VerifySignatures(); err != nil {
		x.probe.txRejected.Add(1)
		x.Logger.Debug("[VM] reject tx %s: %v", txID, err)
		return nil, fmt.Errorf("tx %s rejected: %w", txID, err)
	}

	// 2. 重复交易检查
	if _, ok, err := x.getReceipt(txID); err != nil {
		return nil, err
	} else if ok {
		x.probe.txRejected.Add(1)
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTx, txID)
	}

	// 3. 整笔交易共用一个时钟读数
	now := x.Clock.Now()
	rc := &Receipt{
		TxID:              txID,
		Timestamp:         now,
		FailedInstruction: -1,
	}

	sv := NewStateView(x.ReadFn)
	snap := sv.Snapshot()

	for i := range tx.Instructions {
		if err := x.executeInstruction(sv, &tx.Instructions[i], now, rc); err != nil {
			if rerr := sv.Revert(snap); rerr != nil {
				return nil, rerr
			}
			x.markFailed(rc, i, err)
			break
		}
	}
	if rc.Status == "" {
		rc.Status = ReceiptSucceed
		x.probe.txSucceeded.Add(1)
	} else {
		x.probe.txFailed.Add(1)
	}

	if !commit {
		rc.WriteCount = len(sv.Diff())
		return rc, nil
	}
	if err := x.commit(sv, rc); err != nil {
		return nil, err
	}
	return rc, nil
}

func (x *Executor) executeInstruction(sv StateView, ix *types.Instruction, now int64, rc *Receipt) error {
	if ix.ProgramID != x.ProgramID {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, ix.ProgramID)
	}

	vix, err := vault.DecodeInstruction(ix.Data)
	if err != nil {
		return err
	}
	kind, err := x.KFn(vix)
	if err != nil {
		return err
	}
	h, ok := x.Reg.Get(kind)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHandler, kind)
	}

	ordered, unique, err := loadInstructionAccounts(sv, ix.Accounts)
	if err != nil {
		return err
	}
	pre := snapshotAccounts(unique)

	ic := &InvokeContext{
		ProgramID: x.ProgramID,
		Accounts:  ordered,
		Now:       now,
		Rent:      x.Rent,
		System:    x.System,
	}
	start := time.Now()
	err = h.DryRun(ic, vix)
	if err == nil {
		err = verifyAccountChanges(x.ProgramID, x.Rent, pre, unique)
	}
	x.probe.recordInstruction(kind, err == nil, time.Since(start))
	rc.Logs = append(rc.Logs, ic.Logs()...)
	if err != nil {
		return err
	}

	for i, a := range unique {
		if pre[i].unchanged(a) {
			continue
		}
		storeAccount(sv, a)
	}
	return nil
}

func (x *Executor) markFailed(rc *Receipt, index int, err error) {
	rc.Status = ReceiptFailed
	rc.Error = err.Error()
	rc.FailedInstruction = index
	if code, ok := vault.CodeOf(err); ok {
		c := uint32(code)
		rc.Code = &c
	}
	x.probe.recordFailure(err)
	x.Logger.Verbose("[VM] tx %s failed at instruction %d: %v", rc.TxID, index, err)
}

// commit 写集和回执一次提交
func (x *Executor) commit(sv StateView, rc *Receipt) error {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		x.probe.commitCalls.Add(1)
		addProbeDuration(&x.probe.commitTotalNs, elapsed)
		x.probe.latency.Record("commit", elapsed)
	}()

	ws := sv.Diff()
	rc.WriteCount = len(ws)
	for _, w := range ws {
		if w.Del {
			x.DB.EnqueueDel(w.Key)
		} else {
			x.DB.EnqueueSet(w.Key, string(w.Value))
		}
	}

	raw, err := json.Marshal(rc)
	if err != nil {
		x.discardPending()
		return fmt.Errorf("marshal receipt %s: %w", rc.TxID, err)
	}
	x.DB.EnqueueSet(keys.KeyReceipt(rc.TxID), string(raw))

	if err := x.DB.ForceFlush(); err != nil {
		x.discardPending()
		return fmt.Errorf("commit tx %s: %w", rc.TxID, err)
	}
	x.probe.writeOps.Add(uint64(len(ws)))
	x.Receipts.Put(rc)
	x.Logger.Debug("[VM] tx %s %s writes=%d", rc.TxID, rc.Status, rc.WriteCount)
	return nil
}

func (x *Executor) discardPending() {
	if d, ok := x.DB.(interface{ DiscardPending() }); ok {
		d.DiscardPending()
	}
}

// ========== 查询 ==========

// GetReceipt 按 txID 查回执
func (x *Executor) GetReceipt(txID string) (*Receipt, bool, error) {
	return x.getReceipt(txID)
}

func (x *Executor) getReceipt(txID string) (*Receipt, bool, error) {
	if rc, ok := x.Receipts.Get(txID); ok {
		return rc, true, nil
	}
	raw, err := x.DB.Get(keys.KeyReceipt(txID))
	if err != nil {
		return nil, false, err
	}
	if raw == nil {
		return nil, false, nil
	}
	var rc Receipt
	if err := json.Unmarshal(raw, &rc); err != nil {
		return nil, false, fmt.Errorf("decode receipt %s: %w", txID, err)
	}
	x.Receipts.Put(&rc)
	return &rc, true, nil
}

// GetAccount 读取已提交的账户；不存在时返回零余额的系统账户
func (x *Executor) GetAccount(key types.Pubkey) (*AccountInfo, error) {
	return loadAccount(NewStateView(x.ReadFn), key)
}

// GetVault 读取并解码 vault 记录
func (x *Executor) GetVault(key types.Pubkey) (vault.Record, error) {
	acct, err := x.GetAccount(key)
	if err != nil {
		return vault.Record{}, err
	}
	ic := &InvokeContext{ProgramID: x.ProgramID}
	return ic.loadVaultRecord(acct)
}

// Airdrop 直接给账户记入 lamports（创世或测试资金），不经过指令
func (x *Executor) Airdrop(key types.Pubkey, lamports uint64) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	sv := NewStateView(x.ReadFn)
	acct, err := loadAccount(sv, key)
	if err != nil {
		return err
	}
	acct.IsWritable = true
	if err := CreditLamports(acct, lamports); err != nil {
		return err
	}
	storeAccount(sv, acct)

	for _, w := range sv.Diff() {
		if w.Del {
			x.DB.EnqueueDel(w.Key)
		} else {
			x.DB.EnqueueSet(w.Key, string(w.Value))
		}
	}
	if err := x.DB.ForceFlush(); err != nil {
		x.discardPending()
		return fmt.Errorf("airdrop to %s: %w", key, err)
	}
	x.Logger.Info("[VM] airdrop %s SOL to %s", FormatLamports(lamports), key)
	return nil
}

// Stats 执行统计快照
func (x *Executor) Stats() ExecutorStats {
	return x.probe.snapshot()
}
