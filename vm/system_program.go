package vm

import (
	"fmt"

	"vault/types"
)

// nativeSystemProgram 宿主内置的系统程序
type nativeSystemProgram struct{}

// NewSystemProgram 返回默认的系统程序实现
func NewSystemProgram() SystemProgram { return nativeSystemProgram{} }

// CreateAccount from 和 to 都必须签名。to 可以预先持有 lamports，
// 只要它仍归系统程序所有且没有数据区；lamports 是本次从 from 转入的数额
func (nativeSystemProgram) CreateAccount(from, to *AccountInfo, lamports, space uint64, owner types.Pubkey) error {
	if !from.IsSigner {
		return fmt.Errorf("%w: funding account %s", ErrSystemMissingSigner, from.Key)
	}
	if !to.IsSigner {
		return fmt.Errorf("%w: new account %s", ErrSystemMissingSigner, to.Key)
	}
	if !to.Owner.IsZero() || len(to.Data) != 0 {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, to.Key)
	}
	if space > MaxPermittedDataLength {
		return fmt.Errorf("%w: %d", ErrInvalidAccountDataLength, space)
	}
	if err := transferLamports(from, to, lamports); err != nil {
		return err
	}
	to.Data = make([]byte, space)
	to.Owner = owner
	return nil
}

func (nativeSystemProgram) Transfer(from, to *AccountInfo, amount uint64) error {
	if !from.IsSigner {
		return fmt.Errorf("%w: source %s", ErrSystemMissingSigner, from.Key)
	}
	if len(from.Data) != 0 {
		return fmt.Errorf("%w: %s", ErrTransferFromAccountWithData, from.Key)
	}
	return transferLamports(from, to, amount)
}

func transferLamports(from, to *AccountInfo, amount uint64) error {
	if !from.Owner.IsZero() {
		return fmt.Errorf("%w: source %s owned by %s", ErrExternalAccountLamportSpend, from.Key, from.Owner)
	}
	if !from.IsWritable || !to.IsWritable {
		return fmt.Errorf("%w: transfer %s -> %s", ErrReadonlyModified, from.Key, to.Key)
	}
	if amount == 0 {
		return nil
	}
	left, err := SafeSub(from.Lamports, amount)
	if err != nil {
		return fmt.Errorf("%w: %s holds %d, need %d", ErrInsufficientBalance, from.Key, from.Lamports, amount)
	}
	if from == to {
		return nil
	}
	sum, err := SafeAdd(to.Lamports, amount)
	if err != nil {
		return fmt.Errorf("credit %s: %w", to.Key, err)
	}
	from.Lamports = left
	to.Lamports = sum
	return nil
}
