package vm

import (
	"fmt"

	"vault/types"
	"vault/vault"
)

// InvokeContext 单条指令的执行上下文
type InvokeContext struct {
	ProgramID types.Pubkey
	Accounts  []*AccountInfo // 与指令的 AccountMeta 一一对应
	Now       int64          // 本笔交易开始执行时读取的时钟
	Rent      vault.Rent
	System    SystemProgram

	logs []string
}

// Account 按下标取账户
func (ic *InvokeContext) Account(i int) (*AccountInfo, error) {
	if i < 0 || i >= len(ic.Accounts) {
		return nil, fmt.Errorf("%w: need index %d, have %d", ErrNotEnoughAccountKeys, i, len(ic.Accounts))
	}
	return ic.Accounts[i], nil
}

// Log 追加一条程序日志，写入回执
func (ic *InvokeContext) Log(format string, args ...interface{}) {
	ic.logs = append(ic.logs, fmt.Sprintf(format, args...))
}

func (ic *InvokeContext) Logs() []string { return ic.logs }

// vaultAccounts 解析 vault 三件套：[vault, owner, system_program]
func (ic *InvokeContext) vaultAccounts() (vaultAcct, owner, system *AccountInfo, err error) {
	if vaultAcct, err = ic.Account(0); err != nil {
		return
	}
	if owner, err = ic.Account(1); err != nil {
		return
	}
	if system, err = ic.Account(2); err != nil {
		return
	}
	return
}

func requireSystemProgram(acct *AccountInfo) error {
	if acct.Key != types.SystemProgramID {
		return fmt.Errorf("%w: expected system program, got %s", ErrIncorrectProgramID, acct.Key)
	}
	return nil
}

// loadVaultRecord 解码 vault 记录；非本程序所有的账户视为未初始化
func (ic *InvokeContext) loadVaultRecord(acct *AccountInfo) (vault.Record, error) {
	if acct.Owner != ic.ProgramID {
		return vault.Record{}, fmt.Errorf("%w: %s owned by %s", vault.ErrUninitializedAccount, acct.Key, acct.Owner)
	}
	return vault.DecodeRecord(acct.Data)
}
