package vm

import (
	"fmt"

	"vault/vault"
)

// VaultWithdrawHandler 冷却期满后 owner 从 vault 取回 lamports
type VaultWithdrawHandler struct{}

func (h *VaultWithdrawHandler) Kind() string {
	return KindVaultWithdraw
}

func (h *VaultWithdrawHandler) DryRun(ic *InvokeContext, ix vault.Instruction) error {
	vaultAcct, owner, _, err := ic.vaultAccounts()
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

	if !rec.EligibleForWithdrawal(ic.Now, vault.CooldownSeconds) {
		return fmt.Errorf("%w: last withdrawal at %d, now %d",
			vault.ErrWithdrawalCooldown, rec.LastWithdrawalTime, ic.Now)
	}

	amount, err := rec.ResolveWithdrawAmount(ix.Amount)
	if err != nil {
		return err
	}

	// vault 存储归本程序所有，直接移动余额
	if err := DebitLamports(ic.ProgramID, vaultAcct, amount); err != nil {
		return err
	}
	if err := CreditLamports(owner, amount); err != nil {
		return err
	}

	rec, err = rec.ApplyWithdraw(amount, ic.Now)
	if err != nil {
		return err
	}
	if err := rec.EncodeInto(vaultAcct.Data); err != nil {
		return err
	}

	ic.Log("Withdrawn %d lamports", amount)
	return nil
}
