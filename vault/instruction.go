package vault

import (
	"encoding/binary"
	"fmt"

	"vault/types"
)

// InstructionTag 指令判别值，线上格式的第一个字节
type InstructionTag uint8

const (
	TagInitialize InstructionTag = 0
	TagDeposit    InstructionTag = 1
	TagWithdraw   InstructionTag = 2
)

func (t InstructionTag) String() string {
	switch t {
	case TagInitialize:
		return "Initialize"
	case TagDeposit:
		return "Deposit"
	case TagWithdraw:
		return "Withdraw"
	}
	return fmt.Sprintf("InstructionTag(%d)", uint8(t))
}

// Instruction 三个变体的 tagged union；Initialize 不带 Amount
type Instruction struct {
	Tag    InstructionTag
	Amount uint64
}

const amountLen = 8

// EncodeInstruction tag 字节 + （Deposit/Withdraw）小端 u64
func EncodeInstruction(ix Instruction) ([]byte, error) {
	switch ix.Tag {
	case TagInitialize:
		return []byte{byte(TagInitialize)}, nil
	case TagDeposit, TagWithdraw:
		buf := make([]byte, 1+amountLen)
		buf[0] = byte(ix.Tag)
		binary.LittleEndian.PutUint64(buf[1:], ix.Amount)
		return buf, nil
	}
	return nil, newError(CodeInvalidInstruction, "unknown tag %d", uint8(ix.Tag))
}

// DecodeInstruction 严格解码：未知 tag、长度不足或多余字节都视为无效指令
func DecodeInstruction(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return Instruction{}, newError(CodeInvalidInstruction, "empty instruction data")
	}
	tag := InstructionTag(data[0])
	body := data[1:]
	switch tag {
	case TagInitialize:
		if len(body) != 0 {
			return Instruction{}, newError(CodeInvalidInstruction, "initialize carries %d trailing bytes", len(body))
		}
		return Instruction{Tag: tag}, nil
	case TagDeposit, TagWithdraw:
		if len(body) != amountLen {
			return Instruction{}, newError(CodeInvalidInstruction, "%s payload is %d bytes, want %d", tag, len(body), amountLen)
		}
		return Instruction{Tag: tag, Amount: binary.LittleEndian.Uint64(body)}, nil
	}
	return Instruction{}, newError(CodeInvalidInstruction, "unknown tag %d", uint8(tag))
}

func mustEncode(ix Instruction) []byte {
	data, err := EncodeInstruction(ix)
	if err != nil {
		panic(err)
	}
	return data
}

// NewInitializeInstruction 账户顺序：[vault(签名, 可写), owner(签名, 出资), 系统程序]
//
// vault 私钥持有者必须签名，授权把这个地址交给本程序
func NewInitializeInstruction(programID, vaultKey, owner types.Pubkey) types.Instruction {
	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(vaultKey, true),
			types.NewAccountMeta(owner, true),
			types.NewReadonlyAccountMeta(types.SystemProgramID, false),
		},
		Data: mustEncode(Instruction{Tag: TagInitialize}),
	}
}

// NewDepositInstruction 账户顺序：[vault(可写), owner(签名), 系统程序]
func NewDepositInstruction(programID, vaultKey, owner types.Pubkey, amount uint64) types.Instruction {
	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(vaultKey, false),
			types.NewAccountMeta(owner, true),
			types.NewReadonlyAccountMeta(types.SystemProgramID, false),
		},
		Data: mustEncode(Instruction{Tag: TagDeposit, Amount: amount}),
	}
}

// NewWithdrawInstruction amount 为 0 时提取余额的 10%
func NewWithdrawInstruction(programID, vaultKey, owner types.Pubkey, amount uint64) types.Instruction {
	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(vaultKey, false),
			types.NewAccountMeta(owner, true),
			types.NewReadonlyAccountMeta(types.SystemProgramID, false),
		},
		Data: mustEncode(Instruction{Tag: TagWithdraw, Amount: amount}),
	}
}
