package vm

import (
	"errors"

	"vault/vault"
)

// ========== 错误定义 ==========

var (
	ErrNilTx           = errors.New("nil transaction")
	ErrInvalidSnapshot = errors.New("invalid snapshot index")
	ErrDuplicateTx     = errors.New("transaction already processed")
	ErrUnknownProgram  = errors.New("instruction targets an unknown program")
	ErrNoHandler       = errors.New("no handler for instruction")

	// 宿主原语错误
	ErrNotEnoughAccountKeys        = errors.New("not enough account keys")
	ErrIncorrectProgramID          = errors.New("incorrect program id")
	ErrInsufficientBalance         = errors.New("insufficient balance for transfer")
	ErrAccountAlreadyInUse         = errors.New("account already in use")
	ErrInvalidAccountDataLength    = errors.New("invalid account data length")
	ErrTransferFromAccountWithData = errors.New("transfer source carries data")
	ErrSystemMissingSigner         = errors.New("system instruction missing required signer")

	// 指令执行后的运行时校验
	ErrReadonlyModified             = errors.New("readonly account modified")
	ErrExternalAccountLamportSpend  = errors.New("lamports debited from an account the program does not own")
	ErrExternalAccountDataModified  = errors.New("data modified on an account the program does not own")
	ErrModifiedProgramID            = errors.New("account owner changed illegally")
	ErrUnbalancedInstruction        = errors.New("sum of account balances changed")
	ErrInsufficientFundsForRent     = errors.New("account left below rent exemption")
	ErrInvalidAccountRecord         = errors.New("invalid stored account record")
	ErrInvalidAccountRecordEncoding = errors.New("invalid stored account record encoding")
)

// MaxPermittedDataLength 单个账户数据区上限（10 MiB）
const MaxPermittedDataLength = 10 * 1024 * 1024

// ========== 基础类型定义 ==========

// “要怎么改状态”的清单
type WriteOp struct {
	Key      string // 完整的 key（包括命名空间前缀）
	Value    []byte // 序列化后的值
	Del      bool   // true表示删除操作
	Category string // 数据分类：account, receipt，便于追踪和调试
}

const (
	ReceiptSucceed = "SUCCEED"
	ReceiptFailed  = "FAILED"
)

// 记录执行结果
type Receipt struct {
	TxID   string  `json:"tx_id"`
	Status string  `json:"status"` // "SUCCEED" or "FAILED"
	Error  string  `json:"error,omitempty"`
	Code   *uint32 `json:"code,omitempty"` // vault.ErrorCode，宿主错误时为空
	// FailedInstruction 失败指令的下标，成功时为 -1
	FailedInstruction int      `json:"failed_instruction"`
	Timestamp         int64    `json:"timestamp"`
	Logs              []string `json:"logs,omitempty"`
	WriteCount        int      `json:"write_count"`
}

// Succeeded 是否成功
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == ReceiptSucceed
}

// ErrorCode 失败回执中的 vault 错误码
func (r *Receipt) ErrorCode() (vault.ErrorCode, bool) {
	if r == nil || r.Code == nil {
		return 0, false
	}
	return vault.ErrorCode(*r.Code), true
}
