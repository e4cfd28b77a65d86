package vm

import (
	"vault/types"
	"vault/vault"
)

// ========== 核心接口定义 ==========

// StateView 状态视图接口
type StateView interface {
	//读/写/删某个 key 的状态；写入只写进这个视图，不直接落到底层 DB。
	Get(key string) ([]byte, bool, error)
	Set(key string, val []byte)
	Del(key string)
	//做一个快照点、必要时回滚到该点，实现预执行与失败回滚。
	Snapshot() int
	Revert(snap int) error
	//把这段执行期间累积的写集导出来，给后续“真正落库”用。
	Diff() []WriteOp
}

// InstructionHandler 指令处理器接口
type InstructionHandler interface {
	//标识这个 Handler 处理哪种指令（比如 "vault_deposit"）。
	Kind() string
	//在 InvokeContext 解析好的账户上执行；只修改内存中的 AccountInfo，
	//是否写回 StateView 由 Executor 在校验之后决定。
	DryRun(ic *InvokeContext, ix vault.Instruction) error
}

// DBManager 数据库管理器接口
type DBManager interface {
	EnqueueSet(key, value string)
	EnqueueDel(key string)
	ForceFlush() error
	Get(key string) ([]byte, error)
	// 前缀扫描，返回所有以 prefix 开头的键值对
	Scan(prefix string) (map[string][]byte, error)
}

// Clock 宿主时钟，返回 unix 秒
type Clock interface {
	Now() int64
}

// SystemProgram 宿主提供的存储分配与原生转账原语
type SystemProgram interface {
	// CreateAccount 从 from 划出 lamports 给 to，分配 space 字节数据区并把 to 归属给 owner
	CreateAccount(from, to *AccountInfo, lamports, space uint64, owner types.Pubkey) error
	// Transfer 原生转账，余额不足返回 ErrInsufficientBalance
	Transfer(from, to *AccountInfo, amount uint64) error
}

// （读穿函数）
// 当 StateView.Get 本地 overlay 没命中时，定义“如何从底层存储读真实值”的函数签名
type ReadThroughFn func(key string) ([]byte, error)

// （指令类型提取函数）
// 把解码后的 vault.Instruction 映射为 Handler 的 Kind
type KindFn func(ix vault.Instruction) (string, error)
