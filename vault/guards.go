package vault

import "vault/types"

// AccountView 守卫需要的账户只读视图，由宿主在调用前解析好
type AccountView interface {
	Pubkey() types.Pubkey
	Signer() bool
	Writable() bool
	Balance() uint64
	DataLen() int
}

// RequireSigner 调用方必须对该账户签名
func RequireSigner(acct AccountView) error {
	if !acct.Signer() {
		return newError(CodeMissingSignature, "%s", acct.Pubkey())
	}
	return nil
}

// RequireWritable 本次调用必须允许修改该账户
func RequireWritable(acct AccountView) error {
	if !acct.Writable() {
		return newError(CodeNotWritable, "%s", acct.Pubkey())
	}
	return nil
}

// RequireStoragePrepaid 账户余额必须覆盖其当前数据长度的免租下限
func RequireStoragePrepaid(acct AccountView, rent Rent) error {
	if !rent.IsExempt(acct.Balance(), uint64(acct.DataLen())) {
		return newError(CodeStorageNotPrepaid, "%s holds %d, needs %d",
			acct.Pubkey(), acct.Balance(), rent.MinimumBalance(uint64(acct.DataLen())))
	}
	return nil
}

// RequireOwnerMatch 调用者必须是记录中的 owner
func RequireOwnerMatch(rec Record, caller types.Pubkey) error {
	if rec.Owner != caller {
		return newError(CodeInvalidOwner, "caller %s, owner %s", caller, rec.Owner)
	}
	return nil
}
