package vault

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"vault/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ownerO = types.Pubkey{0xaa, 1, 2, 3}

func mustMarshal(t *testing.T, r Record) []byte {
	t.Helper()
	b, err := r.MarshalBinary()
	require.NoError(t, err)
	return b
}

func TestNewRecord_ScenarioA(t *testing.T) {
	r := NewRecord(ownerO, 1000)
	assert.Equal(t, Record{Initialized: true, Owner: ownerO, TotalDeposits: 0, LastWithdrawalTime: 1000}, r)
}

func TestRecord_InitializeRejectsExisting(t *testing.T) {
	var blank Record
	r, err := blank.Initialize(ownerO, 5)
	require.NoError(t, err)
	assert.True(t, r.Initialized)

	_, err = r.Initialize(types.Pubkey{1}, 6)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestRecord_DepositsSum(t *testing.T) {
	r := NewRecord(ownerO, 0)
	amounts := []uint64{500, 250, 0, 1, 1 << 40}
	var want uint64
	for _, a := range amounts {
		var err error
		r, err = r.ApplyDeposit(a)
		require.NoError(t, err)
		want += a
	}
	assert.Equal(t, want, r.TotalDeposits)
}

func TestRecord_ScenarioB(t *testing.T) {
	r := NewRecord(ownerO, 1000)
	r, err := r.ApplyDeposit(500)
	require.NoError(t, err)
	r, err = r.ApplyDeposit(250)
	require.NoError(t, err)
	assert.Equal(t, uint64(750), r.TotalDeposits)
}

func TestRecord_DepositOverflowLeavesRecordUnchanged(t *testing.T) {
	r := NewRecord(ownerO, 1000)
	r.TotalDeposits = math.MaxUint64 - 10
	before := mustMarshal(t, r)

	got, err := r.ApplyDeposit(11)
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, before, mustMarshal(t, got))
	assert.Equal(t, before, mustMarshal(t, r))

	got, err = r.ApplyDeposit(10)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), got.TotalDeposits)
}

func TestRecord_WithdrawBounds(t *testing.T) {
	r := NewRecord(ownerO, 0)
	r.TotalDeposits = 675

	_, err := r.ApplyWithdraw(676, 100)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	got, err := r.ApplyWithdraw(675, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.TotalDeposits)
	assert.Equal(t, int64(100), got.LastWithdrawalTime)
	// 零余额的 vault 仍然可用
	got, err = got.ApplyDeposit(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.TotalDeposits)
}

func TestRecord_WithdrawFailureKeepsRecord(t *testing.T) {
	r := NewRecord(ownerO, 1000)
	r.TotalDeposits = 675
	got, err := r.ApplyWithdraw(10000, 200000)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, r, got)
}

func TestRecord_WithdrawTimeIsMonotonic(t *testing.T) {
	r := NewRecord(ownerO, 5000)
	r.TotalDeposits = 10
	got, err := r.ApplyWithdraw(1, 4000)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.LastWithdrawalTime)
}

func TestRecord_CooldownLaw(t *testing.T) {
	r := NewRecord(ownerO, 1000)
	cases := []struct {
		now  int64
		want bool
	}{
		{0, false},
		{1000, false},
		{1000 + CooldownSeconds - 1, false},
		{1000 + CooldownSeconds, true},
		{1000 + 10*CooldownSeconds, true},
		{math.MaxInt64, true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, r.EligibleForWithdrawal(c.now, CooldownSeconds), "now=%d", c.now)
	}

	neg := NewRecord(ownerO, math.MinInt64)
	assert.True(t, neg.EligibleForWithdrawal(math.MaxInt64, CooldownSeconds))
	assert.True(t, r.EligibleForWithdrawal(1000, 0))
}

func TestRecord_ResolveWithdrawAmount(t *testing.T) {
	r := NewRecord(ownerO, 0)

	r.TotalDeposits = 750
	got, err := r.ResolveWithdrawAmount(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(75), got)

	r.TotalDeposits = 19
	got, err = r.ResolveWithdrawAmount(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got)

	r.TotalDeposits = 5
	_, err = r.ResolveWithdrawAmount(0)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// 非零请求按字面值，是否超额由 ApplyWithdraw 判断
	got, err = r.ResolveWithdrawAmount(10000)
	require.NoError(t, err)
	assert.Equal(t, uint64(10000), got)
}

func TestRecord_ScenarioD(t *testing.T) {
	r := NewRecord(ownerO, 1000)
	r.TotalDeposits = 750
	now := int64(1000 + 86400)

	require.True(t, r.EligibleForWithdrawal(now, CooldownSeconds))
	amount, err := r.ResolveWithdrawAmount(0)
	require.NoError(t, err)
	r, err = r.ApplyWithdraw(amount, now)
	require.NoError(t, err)

	assert.Equal(t, uint64(675), r.TotalDeposits)
	assert.Equal(t, int64(87400), r.LastWithdrawalTime)
}

func TestRecord_Layout(t *testing.T) {
	r := Record{
		Initialized:        true,
		Owner:              ownerO,
		TotalDeposits:      0x0102030405060708,
		LastWithdrawalTime: -2,
	}
	b := mustMarshal(t, r)
	require.Len(t, b, 49)
	assert.Equal(t, byte(1), b[0])
	assert.Equal(t, ownerO[:], b[1:33])
	assert.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, b[33:41])
	assert.Equal(t, uint64(math.MaxUint64-1), binary.LittleEndian.Uint64(b[41:49]))
}

func TestRecord_RoundTripReachableStates(t *testing.T) {
	states := []Record{
		NewRecord(ownerO, 0),
		NewRecord(types.Pubkey{0xff}, math.MaxInt64),
		{Initialized: true, Owner: ownerO, TotalDeposits: math.MaxUint64, LastWithdrawalTime: math.MinInt64},
	}
	for _, s := range states {
		var back Record
		require.NoError(t, back.UnmarshalBinary(mustMarshal(t, s)))
		assert.Equal(t, s, back)
	}
}

func TestDecodeRecord_Failures(t *testing.T) {
	_, err := DecodeRecord(nil)
	assert.ErrorIs(t, err, ErrUninitializedAccount)

	_, err = DecodeRecord(make([]byte, RecordLen))
	assert.ErrorIs(t, err, ErrUninitializedAccount)

	bad := mustMarshal(t, NewRecord(ownerO, 1))
	bad[0] = 2
	_, err = DecodeRecord(bad)
	assert.ErrorIs(t, err, ErrUninitializedAccount)

	long := append(mustMarshal(t, NewRecord(ownerO, 1)), 0)
	_, err = DecodeRecord(long)
	assert.ErrorIs(t, err, ErrUninitializedAccount)
}

func TestRecord_EncodeInto(t *testing.T) {
	r := NewRecord(ownerO, 42)
	dst := make([]byte, RecordLen)
	require.NoError(t, r.EncodeInto(dst))
	assert.True(t, bytes.Equal(mustMarshal(t, r), dst))

	err := r.EncodeInto(make([]byte, 10))
	assert.True(t, errors.Is(err, ErrUninitializedAccount))
}
