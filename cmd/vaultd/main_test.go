package main

import (
	"bytes"
	"crypto/ed25519"
	"strings"
	"testing"

	"vault/types"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorIs(t, run(nil, &out), errUsage)
	assert.ErrorIs(t, run([]string{"-data", t.TempDir(), "bogus"}, &out), errUsage)
	assert.ErrorIs(t, run([]string{"-data", t.TempDir(), "show"}, &out), errUsage)
}

func TestRun_Keygen(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"keygen"}, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	seed := base58.Decode(strings.TrimSpace(strings.TrimPrefix(lines[0], "seed:")))
	_, pub, err := types.NewKeypairFromSeed(seed)
	require.NoError(t, err)
	assert.Equal(t, pub.String(), strings.TrimSpace(strings.TrimPrefix(lines[1], "pubkey:")))
}

func TestRun_VaultFlow(t *testing.T) {
	dir := t.TempDir()
	ownerSeed := bytes.Repeat([]byte{7}, ed25519.SeedSize)
	_, owner, err := types.NewKeypairFromSeed(ownerSeed)
	require.NoError(t, err)
	vaultSeed := bytes.Repeat([]byte{9}, ed25519.SeedSize)
	_, vaultKey, err := types.NewKeypairFromSeed(vaultSeed)
	require.NoError(t, err)
	seedStr := base58.Encode(ownerSeed)
	vaultSeedStr := base58.Encode(vaultSeed)

	cli := func(args ...string) (string, error) {
		var out bytes.Buffer
		err := run(append([]string{"-data", dir}, args...), &out)
		return out.String(), err
	}

	out, err := cli("airdrop", "-to", owner.String(), "-sol", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "airdropped 2 SOL")
	_, err = cli("airdrop", "-to", vaultKey.String(), "-sol", "0.00089088")
	require.NoError(t, err)

	// 没有 vault 私钥不能初始化
	_, err = cli("init", "-owner", seedStr, "-vault", vaultKey.String(), "-nonce", "1")
	assert.ErrorIs(t, err, errUsage)

	out, err = cli("init", "-owner", seedStr, "-vault-seed", vaultSeedStr, "-nonce", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "status: SUCCEED")

	out, err = cli("deposit", "-owner", seedStr, "-vault", vaultKey.String(), "-amount", "500", "-nonce", "2")
	require.NoError(t, err, out)
	assert.Contains(t, out, "log:    Deposited 500 lamports")

	// 冷却期内提取失败，输出错误码
	out, err = cli("withdraw", "-owner", seedStr, "-vault", vaultKey.String(), "-nonce", "3")
	require.Error(t, err)
	assert.Contains(t, out, "status: FAILED")
	assert.Contains(t, out, "code:   6 (WithdrawalCooldown)")
	txLine := strings.SplitN(out, "\n", 2)[0]
	txID := strings.TrimSpace(strings.TrimPrefix(txLine, "tx:"))

	out, err = cli("show", "-vault", vaultKey.String())
	require.NoError(t, err)
	assert.Contains(t, out, "owner:                "+owner.String())
	assert.Contains(t, out, "total_deposits:       500 (0.0000005 SOL)")
	assert.Contains(t, out, "lamports:             1232420 (0.00123242 SOL)")

	out, err = cli("balance", "-account", owner.String())
	require.NoError(t, err)
	assert.Contains(t, out, "1999658460 lamports")

	out, err = cli("receipt", "-tx", txID)
	require.NoError(t, err)
	assert.Contains(t, out, "status: FAILED")

	_, err = cli("receipt", "-tx", "nope")
	assert.Error(t, err)

	out, err = cli("info")
	require.NoError(t, err)
	assert.Contains(t, out, "instructions: vault_deposit, vault_initialize, vault_withdraw")
	assert.Contains(t, out, "vault_rent:   1231920 lamports")
	assert.Contains(t, out, "accounts:     2")
	assert.Contains(t, out, "receipts:     3")
}
