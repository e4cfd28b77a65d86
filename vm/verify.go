package vm

import (
	"bytes"
	"fmt"

	"vault/types"
	"vault/vault"
)

// accountSnapshot 指令执行前的账户状态
type accountSnapshot struct {
	lamports uint64
	owner    types.Pubkey
	data     []byte
}

func snapshotAccounts(accounts []*AccountInfo) []accountSnapshot {
	out := make([]accountSnapshot, len(accounts))
	for i, a := range accounts {
		out[i] = accountSnapshot{
			lamports: a.Lamports,
			owner:    a.Owner,
			data:     append([]byte(nil), a.Data...),
		}
	}
	return out
}

func (s accountSnapshot) unchanged(a *AccountInfo) bool {
	return s.lamports == a.Lamports && s.owner == a.Owner && bytes.Equal(s.data, a.Data)
}

// verifyAccountChanges 指令执行后的运行时校验，pre 与 post 按下标对应（去重后的账户列表）。
//   - 只读账户不得有任何变化
//   - 只有本程序或系统程序所有的账户可以被扣款
//   - 只有本程序所有的账户可以改数据；归属只能从空的系统账户转给本程序
//   - 带数据的账户执行后必须仍然免租
//   - 全部账户的 lamports 总和不变
func verifyAccountChanges(programID types.Pubkey, rent vault.Rent, pre []accountSnapshot, post []*AccountInfo) error {
	if len(pre) != len(post) {
		return fmt.Errorf("account count changed: %d -> %d", len(pre), len(post))
	}

	preTotal := snapshotLamports(pre)
	for i, a := range post {
		p := pre[i]
		if p.unchanged(a) {
			continue
		}
		dataChanged := !bytes.Equal(p.data, a.Data)
		if !a.IsWritable {
			return fmt.Errorf("%w: %s", ErrReadonlyModified, a.Key)
		}
		if a.Lamports < p.lamports && p.owner != programID && !p.owner.IsZero() {
			return fmt.Errorf("%w: %s", ErrExternalAccountLamportSpend, a.Key)
		}
		if p.owner != a.Owner {
			if !p.owner.IsZero() || len(p.data) != 0 || a.Owner != programID {
				return fmt.Errorf("%w: %s %s -> %s", ErrModifiedProgramID, a.Key, p.owner, a.Owner)
			}
		}
		if dataChanged && a.Owner != programID {
			return fmt.Errorf("%w: %s", ErrExternalAccountDataModified, a.Key)
		}
		if len(a.Data) > 0 && !rent.IsExempt(a.Lamports, uint64(len(a.Data))) {
			return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFundsForRent,
				a.Key, a.Lamports, rent.MinimumBalance(uint64(len(a.Data))))
		}
	}

	if preTotal.Cmp(sumLamports(post)) != 0 {
		return fmt.Errorf("%w: before %s, after %s", ErrUnbalancedInstruction, preTotal, sumLamports(post))
	}
	return nil
}
