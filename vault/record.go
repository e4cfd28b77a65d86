package vault

import (
	"encoding/binary"
	"math/bits"

	"vault/types"
)

// RecordLen 持久化布局：1 (bool) + 32 (owner) + 8 (total_deposits) + 8 (last_withdrawal_time)。
// 字段顺序与长度是兼容性契约，已存在的账户必须始终可读。
const RecordLen = 1 + types.PubkeySize + 8 + 8

const (
	offInitialized   = 0
	offOwner         = 1
	offTotalDeposits = offOwner + types.PubkeySize
	offLastWithdraw  = offTotalDeposits + 8
)

// CooldownSeconds 两次成功提现之间的最小间隔（24 小时），全局固定
const CooldownSeconds int64 = 24 * 60 * 60

// WithdrawAllPercentDivisor 请求金额为 0 时按余额的 1/10 提现
const WithdrawAllPercentDivisor = 10

// Record 唯一的持久化实体
type Record struct {
	Initialized        bool
	Owner              types.Pubkey
	TotalDeposits      uint64
	LastWithdrawalTime int64
}

// NewRecord 新建 vault 记录。调用方需自行确认目标存储尚未初始化。
func NewRecord(owner types.Pubkey, now int64) Record {
	return Record{
		Initialized:        true,
		Owner:              owner,
		TotalDeposits:      0,
		LastWithdrawalTime: now,
	}
}

// Initialize 在已有存储上建立记录；已初始化的记录拒绝重复创建
func (r Record) Initialize(owner types.Pubkey, now int64) (Record, error) {
	if r.Initialized {
		return r, ErrAlreadyInitialized
	}
	return NewRecord(owner, now), nil
}

// ApplyDeposit 带溢出检查的加法；0 金额合法且不改变余额
func (r Record) ApplyDeposit(amount uint64) (Record, error) {
	sum, carry := bits.Add64(r.TotalDeposits, amount, 0)
	if carry != 0 {
		return r, newError(CodeOverflow, "deposit %d on balance %d", amount, r.TotalDeposits)
	}
	r.TotalDeposits = sum
	return r, nil
}

// ApplyWithdraw 金额不得超过当前余额；成功后推进 LastWithdrawalTime
func (r Record) ApplyWithdraw(amount uint64, now int64) (Record, error) {
	if amount > r.TotalDeposits {
		return r, newError(CodeInsufficientFunds, "withdraw %d exceeds balance %d", amount, r.TotalDeposits)
	}
	// 上面的比较已排除借位，这里保留检查以防规则被改动
	diff, borrow := bits.Sub64(r.TotalDeposits, amount, 0)
	if borrow != 0 {
		return r, newError(CodeOverflow, "withdraw %d on balance %d", amount, r.TotalDeposits)
	}
	r.TotalDeposits = diff
	if now > r.LastWithdrawalTime {
		r.LastWithdrawalTime = now
	}
	return r, nil
}

// EligibleForWithdrawal now - last_withdrawal_time >= cooldown
func (r Record) EligibleForWithdrawal(now, cooldown int64) bool {
	if now < r.LastWithdrawalTime {
		return false
	}
	if cooldown <= 0 {
		return true
	}
	// 差值用无符号表示，避免极端时间戳相减溢出
	return uint64(now-r.LastWithdrawalTime) >= uint64(cooldown)
}

// ResolveWithdrawAmount 请求 0 表示提取余额的 10%（向下取整）；
// 结果为 0 时返回 InsufficientFunds，不做零值转账。
func (r Record) ResolveWithdrawAmount(requested uint64) (uint64, error) {
	amount := requested
	if amount == 0 {
		amount = r.TotalDeposits / WithdrawAllPercentDivisor
	}
	if amount == 0 {
		return 0, newError(CodeInsufficientFunds, "resolved withdrawal amount is zero (balance %d)", r.TotalDeposits)
	}
	return amount, nil
}

// MarshalBinary 固定 49 字节小端布局
func (r Record) MarshalBinary() ([]byte, error) {
	buf := make([]byte, RecordLen)
	r.encodeTo(buf)
	return buf, nil
}

// EncodeInto 写入调用方提供的存储区（长度必须至少为 RecordLen）
func (r Record) EncodeInto(dst []byte) error {
	if len(dst) < RecordLen {
		return newError(CodeUninitializedAccount, "storage is %d bytes, need %d", len(dst), RecordLen)
	}
	r.encodeTo(dst)
	return nil
}

func (r Record) encodeTo(buf []byte) {
	if r.Initialized {
		buf[offInitialized] = 1
	} else {
		buf[offInitialized] = 0
	}
	copy(buf[offOwner:offTotalDeposits], r.Owner[:])
	binary.LittleEndian.PutUint64(buf[offTotalDeposits:offLastWithdraw], r.TotalDeposits)
	binary.LittleEndian.PutUint64(buf[offLastWithdraw:RecordLen], uint64(r.LastWithdrawalTime))
}

// UnmarshalBinary 严格解码：长度必须为 RecordLen，bool 只能是 0/1
func (r *Record) UnmarshalBinary(data []byte) error {
	if len(data) != RecordLen {
		return newError(CodeUninitializedAccount, "storage is %d bytes, want %d", len(data), RecordLen)
	}
	var out Record
	switch data[offInitialized] {
	case 0:
		out.Initialized = false
	case 1:
		out.Initialized = true
	default:
		return newError(CodeUninitializedAccount, "invalid bool byte %#x", data[offInitialized])
	}
	copy(out.Owner[:], data[offOwner:offTotalDeposits])
	out.TotalDeposits = binary.LittleEndian.Uint64(data[offTotalDeposits:offLastWithdraw])
	out.LastWithdrawalTime = int64(binary.LittleEndian.Uint64(data[offLastWithdraw:RecordLen]))
	*r = out
	return nil
}

// DecodeRecord 读取已初始化的记录；从未创建或清零的存储返回 UninitializedAccount
func DecodeRecord(data []byte) (Record, error) {
	var r Record
	if err := r.UnmarshalBinary(data); err != nil {
		return Record{}, err
	}
	if !r.Initialized {
		return Record{}, newError(CodeUninitializedAccount, "initialized flag is false")
	}
	return r, nil
}
