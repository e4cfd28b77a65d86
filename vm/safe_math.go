package vm

import (
	"errors"
	"math/big"
	"math/bits"
)

// safe_math.go 提供带溢出检查的 lamports 运算

var (
	// ErrOverflow 加法溢出错误
	ErrOverflow = errors.New("arithmetic overflow")
	// ErrUnderflow 减法下溢错误（结果为负数）
	ErrUnderflow = errors.New("arithmetic underflow")
)

// SafeAdd 安全加法：a + b，溢出返回 ErrOverflow
func SafeAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

// SafeSub 安全减法：a - b，a < b 返回 ErrUnderflow
func SafeSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrUnderflow
	}
	return diff, nil
}

// sumLamports 求和不会溢出，用于指令前后余额守恒校验
func sumLamports(accounts []*AccountInfo) *big.Int {
	total := new(big.Int)
	for _, a := range accounts {
		total.Add(total, new(big.Int).SetUint64(a.Lamports))
	}
	return total
}

func snapshotLamports(snaps []accountSnapshot) *big.Int {
	total := new(big.Int)
	for _, s := range snaps {
		total.Add(total, new(big.Int).SetUint64(s.lamports))
	}
	return total
}
