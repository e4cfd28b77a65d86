package vm

import (
	"fmt"

	"vault/vault"
)

// VaultInitializeHandler 创建 vault 存储并写入初始记录
type VaultInitializeHandler struct{}

func (h *VaultInitializeHandler) Kind() string {
	return KindVaultInitialize
}

func (h *VaultInitializeHandler) DryRun(ic *InvokeContext, ix vault.Instruction) error {
	vaultAcct, owner, system, err := ic.vaultAccounts()
	if err != nil {
		return err
	}

	// 1. 守卫
	if err := vault.RequireSigner(owner); err != nil {
		return err
	}
	if err := vault.RequireWritable(vaultAcct); err != nil {
		return err
	}
	if err := vault.RequireStoragePrepaid(vaultAcct, ic.Rent); err != nil {
		return err
	}
	if err := requireSystemProgram(system); err != nil {
		return err
	}

	// 已经归本程序所有的存储：已有记录则拒绝重复初始化
	if vaultAcct.Owner == ic.ProgramID && len(vaultAcct.Data) == vault.RecordLen {
		var existing vault.Record
		if err := existing.UnmarshalBinary(vaultAcct.Data); err == nil {
			if _, err := existing.Initialize(owner.Key, ic.Now); err != nil {
				return fmt.Errorf("%w: %s", err, vaultAcct.Key)
			}
		}
	}

	// 2-3. 读时钟，构造记录
	rec := vault.NewRecord(owner.Key, ic.Now)

	// 4. 分配存储，归本程序所有。vault 已有的余额计入免租储备，owner 只补差额
	space := uint64(vault.RecordLen)
	var topUp uint64
	if reserve := ic.Rent.MinimumBalance(space); vaultAcct.Lamports < reserve {
		topUp = reserve - vaultAcct.Lamports
	}
	if err := ic.System.CreateAccount(owner, vaultAcct, topUp, space, ic.ProgramID); err != nil {
		return fmt.Errorf("create vault storage: %w", err)
	}

	// 5. 序列化
	if err := rec.EncodeInto(vaultAcct.Data); err != nil {
		return err
	}
	ic.Log("Vault initialized for %s", owner.Key)
	return nil
}
