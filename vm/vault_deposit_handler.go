package vm

import (
	"fmt"

	"vault/vault"
)

// VaultDepositHandler owner 向 vault 存入 lamports
type VaultDepositHandler struct{}

func (h *VaultDepositHandler) Kind() string {
	return KindVaultDeposit
}

func (h *VaultDepositHandler) DryRun(ic *InvokeContext, ix vault.Instruction) error {
	vaultAcct, owner, system, err := ic.vaultAccounts()
	if err != nil {
		return err
	}

	if err := vault.RequireSigner(owner); err != nil {
		return err
	}
	if err := vault.RequireWritable(vaultAcct); err != nil {
		return err
	}

	rec, err := ic.loadVaultRecord(vaultAcct)
	if err != nil {
		return err
	}
	if err := vault.RequireOwnerMatch(rec, owner.Key); err != nil {
		return err
	}
	if err := requireSystemProgram(system); err != nil {
		return err
	}

	// 转账和记账必须同时成功；失败时 Executor 丢弃本指令的账户修改
	if err := ic.System.Transfer(owner, vaultAcct, ix.Amount); err != nil {
		return fmt.Errorf("deposit transfer: %w", err)
	}
	rec, err = rec.ApplyDeposit(ix.Amount)
	if err != nil {
		return err
	}
	if err := rec.EncodeInto(vaultAcct.Data); err != nil {
		return err
	}

	ic.Log("Deposited %d lamports", ix.Amount)
	return nil
}
