package vm

import (
	"testing"

	"vault/types"
	"vault/vault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

var testProgram = types.Pubkey{1, 2, 3}

func TestAccountRecord_RoundTrip(t *testing.T) {
	a := &AccountInfo{Key: types.Pubkey{9}, Lamports: 1234567, Owner: testProgram, Data: []byte{1, 2, 3}}
	got, err := decodeAccountRecord(a.Key, encodeAccountRecord(a))
	require.NoError(t, err)
	assert.Equal(t, a.Lamports, got.Lamports)
	assert.Equal(t, a.Owner, got.Owner)
	assert.Equal(t, a.Data, got.Data)
}

func TestAccountRecord_SkipsUnknownFields(t *testing.T) {
	a := &AccountInfo{Lamports: 7, Owner: testProgram}
	b := encodeAccountRecord(a)
	b = protowire.AppendTag(b, 15, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("future"))

	got, err := decodeAccountRecord(types.Pubkey{}, b)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.Lamports)
}

func TestAccountRecord_Corrupt(t *testing.T) {
	_, err := decodeAccountRecord(types.Pubkey{}, []byte{0x08})
	assert.ErrorIs(t, err, ErrInvalidAccountRecordEncoding)

	var b []byte
	b = protowire.AppendTag(b, accountFieldOwner, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte{1, 2})
	_, err = decodeAccountRecord(types.Pubkey{}, b)
	assert.ErrorIs(t, err, ErrInvalidAccountRecord)
}

func TestLoadInstructionAccounts_SharesDuplicates(t *testing.T) {
	sv := NewStateView(mapReader(nil))
	k := types.Pubkey{4}
	storeAccount(sv, &AccountInfo{Key: k, Lamports: 10})

	ordered, unique, err := loadInstructionAccounts(sv, []types.AccountMeta{
		types.NewReadonlyAccountMeta(k, false),
		types.NewAccountMeta(k, true),
		types.NewReadonlyAccountMeta(types.SystemProgramID, false),
	})
	require.NoError(t, err)
	require.Len(t, ordered, 3)
	require.Len(t, unique, 2)
	assert.Same(t, ordered[0], ordered[1])
	assert.True(t, ordered[0].IsSigner)
	assert.True(t, ordered[0].IsWritable)
	assert.Equal(t, uint64(10), ordered[0].Lamports)
	assert.Zero(t, ordered[2].Lamports)
}

func TestStoreAccount_EmptyIsDeleted(t *testing.T) {
	sv := NewStateView(mapReader(nil))
	k := types.Pubkey{4}
	storeAccount(sv, &AccountInfo{Key: k, Lamports: 1})
	storeAccount(sv, &AccountInfo{Key: k})
	diff := sv.Diff()
	require.Len(t, diff, 1)
	assert.True(t, diff[0].Del)
}

// ========== 系统程序 ==========

func TestSystemProgram_CreateAccount(t *testing.T) {
	sp := NewSystemProgram()
	from := &AccountInfo{Key: types.Pubkey{1}, IsSigner: true, IsWritable: true, Lamports: 5_000_000}
	to := &AccountInfo{Key: types.Pubkey{2}, IsSigner: true, IsWritable: true, Lamports: 890880}

	require.NoError(t, sp.CreateAccount(from, to, 341040, vault.RecordLen, testProgram))
	assert.Equal(t, uint64(5_000_000-341040), from.Lamports)
	assert.Equal(t, uint64(1231920), to.Lamports)
	assert.Len(t, to.Data, vault.RecordLen)
	assert.Equal(t, testProgram, to.Owner)

	err := sp.CreateAccount(from, to, 1, 1, testProgram)
	assert.ErrorIs(t, err, ErrAccountAlreadyInUse)
}

func TestSystemProgram_CreateAccountFailures(t *testing.T) {
	sp := NewSystemProgram()
	to := &AccountInfo{Key: types.Pubkey{2}, IsSigner: true, IsWritable: true}

	unsigned := &AccountInfo{Key: types.Pubkey{1}, IsWritable: true, Lamports: 100}
	assert.ErrorIs(t, sp.CreateAccount(unsigned, to, 1, 1, testProgram), ErrSystemMissingSigner)

	// 新账户自己没签名：不能替别人的钱包分配存储
	funder := &AccountInfo{Key: types.Pubkey{1}, IsSigner: true, IsWritable: true, Lamports: 100}
	wallet := &AccountInfo{Key: types.Pubkey{3}, IsWritable: true, Lamports: 5_000_000}
	assert.ErrorIs(t, sp.CreateAccount(funder, wallet, 1, 1, testProgram), ErrSystemMissingSigner)
	assert.Equal(t, uint64(100), funder.Lamports)
	assert.Equal(t, uint64(5_000_000), wallet.Lamports)
	assert.Empty(t, wallet.Data)
	assert.True(t, wallet.Owner.IsZero())

	poor := &AccountInfo{Key: types.Pubkey{1}, IsSigner: true, IsWritable: true, Lamports: 1}
	assert.ErrorIs(t, sp.CreateAccount(poor, to, 2, 1, testProgram), ErrInsufficientBalance)
	assert.Empty(t, to.Data)
	assert.True(t, to.Owner.IsZero())

	rich := &AccountInfo{Key: types.Pubkey{1}, IsSigner: true, IsWritable: true, Lamports: 100}
	assert.ErrorIs(t, sp.CreateAccount(rich, to, 1, MaxPermittedDataLength+1, testProgram), ErrInvalidAccountDataLength)
}

func TestSystemProgram_Transfer(t *testing.T) {
	sp := NewSystemProgram()
	from := &AccountInfo{Key: types.Pubkey{1}, IsSigner: true, IsWritable: true, Lamports: 100}
	to := &AccountInfo{Key: types.Pubkey{2}, IsWritable: true, Owner: testProgram, Data: make([]byte, 4)}

	require.NoError(t, sp.Transfer(from, to, 60))
	assert.Equal(t, uint64(40), from.Lamports)
	assert.Equal(t, uint64(60), to.Lamports)

	assert.ErrorIs(t, sp.Transfer(from, to, 41), ErrInsufficientBalance)
	assert.ErrorIs(t, sp.Transfer(to, from, 1), ErrSystemMissingSigner)

	to.IsSigner = true
	assert.ErrorIs(t, sp.Transfer(to, from, 1), ErrTransferFromAccountWithData)

	from.IsWritable = false
	assert.ErrorIs(t, sp.Transfer(from, to, 1), ErrReadonlyModified)

	full := &AccountInfo{Key: types.Pubkey{3}, IsWritable: true, Lamports: ^uint64(0)}
	from.IsWritable = true
	assert.ErrorIs(t, sp.Transfer(from, full, 1), ErrOverflow)
	assert.Equal(t, uint64(40), from.Lamports)
}

// ========== 运行时校验 ==========

func TestVerifyAccountChanges(t *testing.T) {
	rent := vault.DefaultRent()
	newPair := func() []*AccountInfo {
		return []*AccountInfo{
			{Key: types.Pubkey{1}, IsWritable: true, Lamports: 2_000_000, Owner: testProgram, Data: make([]byte, vault.RecordLen)},
			{Key: types.Pubkey{2}, IsWritable: true, Lamports: 1_000},
		}
	}

	t.Run("program debits its own account", func(t *testing.T) {
		post := newPair()
		pre := snapshotAccounts(post)
		post[0].Lamports -= 10
		post[1].Lamports += 10
		post[0].Data[0] = 1
		assert.NoError(t, verifyAccountChanges(testProgram, rent, pre, post))
	})

	t.Run("unbalanced", func(t *testing.T) {
		post := newPair()
		pre := snapshotAccounts(post)
		post[1].Lamports += 10
		assert.ErrorIs(t, verifyAccountChanges(testProgram, rent, pre, post), ErrUnbalancedInstruction)
	})

	t.Run("readonly modified", func(t *testing.T) {
		post := newPair()
		post[1].IsWritable = false
		pre := snapshotAccounts(post)
		post[0].Lamports -= 10
		post[1].Lamports += 10
		assert.ErrorIs(t, verifyAccountChanges(testProgram, rent, pre, post), ErrReadonlyModified)
	})

	t.Run("foreign account debited", func(t *testing.T) {
		post := newPair()
		post[0].Owner = types.Pubkey{8}
		pre := snapshotAccounts(post)
		post[0].Lamports -= 10
		post[1].Lamports += 10
		assert.ErrorIs(t, verifyAccountChanges(testProgram, rent, pre, post), ErrExternalAccountLamportSpend)
	})

	t.Run("foreign data modified", func(t *testing.T) {
		post := newPair()
		post[0].Owner = types.Pubkey{8}
		pre := snapshotAccounts(post)
		post[0].Data[0] = 1
		assert.ErrorIs(t, verifyAccountChanges(testProgram, rent, pre, post), ErrExternalAccountDataModified)
	})

	t.Run("owner stolen", func(t *testing.T) {
		post := newPair()
		pre := snapshotAccounts(post)
		post[0].Owner = types.Pubkey{8}
		assert.ErrorIs(t, verifyAccountChanges(testProgram, rent, pre, post), ErrModifiedProgramID)
	})

	t.Run("below rent", func(t *testing.T) {
		post := newPair()
		pre := snapshotAccounts(post)
		post[0].Lamports -= 1_000_000
		post[1].Lamports += 1_000_000
		assert.ErrorIs(t, verifyAccountChanges(testProgram, rent, pre, post), ErrInsufficientFundsForRent)
	})
}
