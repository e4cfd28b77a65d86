package vm

import (
	"fmt"
	"math/big"

	"vault/types"
	"vault/vault"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL 1 SOL = 10^9 lamports
const LamportsPerSOL uint64 = 1_000_000_000

// DebitLamports 从 program 拥有的可写账户扣减 lamports。
// 余额不足返回 vault.ErrInsufficientFunds。
func DebitLamports(programID types.Pubkey, acct *AccountInfo, amount uint64) error {
	if !acct.IsWritable {
		return fmt.Errorf("%w: %s", vault.ErrNotWritable, acct.Key)
	}
	if acct.Owner != programID {
		return fmt.Errorf("%w: %s owned by %s", ErrExternalAccountLamportSpend, acct.Key, acct.Owner)
	}
	left, err := SafeSub(acct.Lamports, amount)
	if err != nil {
		return fmt.Errorf("%w: account %s holds %d lamports, debit %d",
			vault.ErrInsufficientFunds, acct.Key, acct.Lamports, amount)
	}
	acct.Lamports = left
	return nil
}

// CreditLamports 给可写账户增加 lamports
func CreditLamports(acct *AccountInfo, amount uint64) error {
	if !acct.IsWritable {
		return fmt.Errorf("%w: %s", vault.ErrNotWritable, acct.Key)
	}
	sum, err := SafeAdd(acct.Lamports, amount)
	if err != nil {
		return fmt.Errorf("%w: credit %d to %s", vault.ErrOverflow, amount, acct.Key)
	}
	acct.Lamports = sum
	return nil
}

// FormatLamports 以 SOL 为单位格式化，例如 1500000000 -> "1.5"
func FormatLamports(lamports uint64) string {
	return lamportsDecimal(lamports).Shift(-9).String()
}

// ParseSOL 把 SOL 字符串解析为 lamports，最多 9 位小数
func ParseSOL(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid SOL amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("invalid SOL amount %q: negative", s)
	}
	l := d.Shift(9)
	if !l.Equal(l.Truncate(0)) {
		return 0, fmt.Errorf("invalid SOL amount %q: more than 9 decimal places", s)
	}
	if l.GreaterThan(lamportsDecimal(^uint64(0))) {
		return 0, fmt.Errorf("invalid SOL amount %q: %w", s, ErrOverflow)
	}
	return l.BigInt().Uint64(), nil
}

func lamportsDecimal(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
