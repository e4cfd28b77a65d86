package vault

import (
	"testing"

	"vault/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeInstruction_Wire(t *testing.T) {
	b, err := EncodeInstruction(Instruction{Tag: TagInitialize})
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, b)

	b, err = EncodeInstruction(Instruction{Tag: TagDeposit, Amount: 500})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0xf4, 0x01, 0, 0, 0, 0, 0, 0}, b)

	b, err = EncodeInstruction(Instruction{Tag: TagWithdraw})
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 0, 0, 0, 0, 0, 0, 0, 0}, b)

	_, err = EncodeInstruction(Instruction{Tag: 3})
	assert.ErrorIs(t, err, ErrInvalidInstruction)
}

func TestDecodeInstruction(t *testing.T) {
	ix, err := DecodeInstruction([]byte{1, 0xf4, 0x01, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, Instruction{Tag: TagDeposit, Amount: 500}, ix)

	ix, err = DecodeInstruction([]byte{0})
	require.NoError(t, err)
	assert.Equal(t, TagInitialize, ix.Tag)
}

func TestDecodeInstruction_Invalid(t *testing.T) {
	cases := map[string][]byte{
		"empty":               nil,
		"unknown tag":         {9},
		"short amount":        {1, 1, 2, 3},
		"trailing initialize": {0, 0},
		"trailing withdraw":   {2, 0, 0, 0, 0, 0, 0, 0, 0, 1},
	}
	for name, data := range cases {
		_, err := DecodeInstruction(data)
		assert.ErrorIs(t, err, ErrInvalidInstruction, name)
	}
}

func TestInstructionBuilders_AccountOrder(t *testing.T) {
	program, vaultKey, owner := types.Pubkey{1}, types.Pubkey{2}, types.Pubkey{3}

	for _, ix := range []types.Instruction{
		NewInitializeInstruction(program, vaultKey, owner),
		NewDepositInstruction(program, vaultKey, owner, 10),
		NewWithdrawInstruction(program, vaultKey, owner, 0),
	} {
		require.Len(t, ix.Accounts, 3)
		assert.Equal(t, program, ix.ProgramID)
		assert.Equal(t, vaultKey, ix.Accounts[0].Pubkey)
		assert.True(t, ix.Accounts[0].IsWritable)
		assert.Equal(t, types.AccountMeta{Pubkey: owner, IsSigner: true, IsWritable: true}, ix.Accounts[1])
		assert.Equal(t, types.SystemProgramID, ix.Accounts[2].Pubkey)
		assert.False(t, ix.Accounts[2].IsWritable)
	}

	// 只有初始化需要 vault 签名
	assert.True(t, NewInitializeInstruction(program, vaultKey, owner).Accounts[0].IsSigner)
	assert.False(t, NewDepositInstruction(program, vaultKey, owner, 10).Accounts[0].IsSigner)
	assert.False(t, NewWithdrawInstruction(program, vaultKey, owner, 0).Accounts[0].IsSigner)

	dep := NewDepositInstruction(program, vaultKey, owner, 10)
	decoded, err := DecodeInstruction(dep.Data)
	require.NoError(t, err)
	assert.Equal(t, Instruction{Tag: TagDeposit, Amount: 10}, decoded)
}

func TestInstructionTag_String(t *testing.T) {
	assert.Equal(t, "Withdraw", TagWithdraw.String())
	assert.Equal(t, "InstructionTag(7)", InstructionTag(7).String())
}
