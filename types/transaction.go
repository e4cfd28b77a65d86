package types

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/sha3"
	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrMissingSignature = errors.New("missing signature for required signer")
	ErrInvalidSignature = errors.New("signature verification failed")
	ErrEmptyTransaction = errors.New("transaction has no instructions")
)

// AccountMeta 指令引用的账户以及调用方声明的权限
type AccountMeta struct {
	Pubkey     Pubkey
	IsSigner   bool
	IsWritable bool
}

// NewAccountMeta 可写账户
func NewAccountMeta(pk Pubkey, signer bool) AccountMeta {
	return AccountMeta{Pubkey: pk, IsSigner: signer, IsWritable: true}
}

// NewReadonlyAccountMeta 只读账户
func NewReadonlyAccountMeta(pk Pubkey, signer bool) AccountMeta {
	return AccountMeta{Pubkey: pk, IsSigner: signer, IsWritable: false}
}

// Instruction 一条程序调用：目标程序 + 按位置排列的账户 + 指令数据
type Instruction struct {
	ProgramID Pubkey
	Accounts  []AccountMeta
	Data      []byte
}

// Signature 某个签名者对 Message 的 ed25519 签名
type Signature struct {
	Signer Pubkey
	Sig    []byte
}

// Transaction 原子执行单元：所有指令要么全部生效，要么全部回滚
type Transaction struct {
	// Nonce 区分内容相同的两笔交易
	Nonce        uint64
	Instructions []Instruction
	Signatures   []Signature
}

// message 字段编号
const (
	fieldMsgNonce       protowire.Number = 1
	fieldMsgInstruction protowire.Number = 2

	fieldIxProgram  protowire.Number = 1
	fieldIxAccount  protowire.Number = 2
	fieldIxData     protowire.Number = 3
	fieldMetaKey    protowire.Number = 1
	fieldMetaSigner protowire.Number = 2
	fieldMetaWrite  protowire.Number = 3
)

// Message 返回被签名的确定性字节（protobuf wire 格式，字段顺序固定）
func (tx *Transaction) Message() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldMsgNonce, protowire.VarintType)
	b = protowire.AppendVarint(b, tx.Nonce)
	for i := range tx.Instructions {
		b = protowire.AppendTag(b, fieldMsgInstruction, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeInstruction(&tx.Instructions[i]))
	}
	return b
}

func encodeInstruction(ix *Instruction) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldIxProgram, protowire.BytesType)
	b = protowire.AppendBytes(b, ix.ProgramID[:])
	for _, m := range ix.Accounts {
		var mb []byte
		mb = protowire.AppendTag(mb, fieldMetaKey, protowire.BytesType)
		mb = protowire.AppendBytes(mb, m.Pubkey[:])
		mb = protowire.AppendTag(mb, fieldMetaSigner, protowire.VarintType)
		mb = protowire.AppendVarint(mb, protowire.EncodeBool(m.IsSigner))
		mb = protowire.AppendTag(mb, fieldMetaWrite, protowire.VarintType)
		mb = protowire.AppendVarint(mb, protowire.EncodeBool(m.IsWritable))

		b = protowire.AppendTag(b, fieldIxAccount, protowire.BytesType)
		b = protowire.AppendBytes(b, mb)
	}
	b = protowire.AppendTag(b, fieldIxData, protowire.BytesType)
	b = protowire.AppendBytes(b, ix.Data)
	return b
}

// TxID base58(sha3-256(message))
func (tx *Transaction) TxID() string {
	sum := sha3.Sum256(tx.Message())
	return base58.Encode(sum[:])
}

// Signers 所有被标记为 signer 的账户，按首次出现顺序去重
func (tx *Transaction) Signers() []Pubkey {
	seen := make(map[Pubkey]struct{})
	out := make([]Pubkey, 0, 2)
	for _, ix := range tx.Instructions {
		for _, m := range ix.Accounts {
			if !m.IsSigner {
				continue
			}
			if _, ok := seen[m.Pubkey]; ok {
				continue
			}
			seen[m.Pubkey] = struct{}{}
			out = append(out, m.Pubkey)
		}
	}
	return out
}

// Sign 用给定私钥对 Message 签名，已存在的同一签名者签名会被替换
func (tx *Transaction) Sign(keys ...ed25519.PrivateKey) {
	msg := tx.Message()
	for _, k := range keys {
		signer := PubkeyFromPublicKey(k.Public().(ed25519.PublicKey))
		sig := ed25519.Sign(k, msg)
		replaced := false
		for i := range tx.Signatures {
			if tx.Signatures[i].Signer == signer {
				tx.Signatures[i].Sig = sig
				replaced = true
				break
			}
		}
		if !replaced {
			tx.Signatures = append(tx.Signatures, Signature{Signer: signer, Sig: sig})
		}
	}
}

// VerifySignatures 至少声明一个 signer，且每个 signer 都有对 Message 的有效签名
func (tx *Transaction) VerifySignatures() error {
	if len(tx.Instructions) == 0 {
		return ErrEmptyTransaction
	}
	signers := tx.Signers()
	if len(signers) == 0 {
		return fmt.Errorf("%w: transaction declares no signer", ErrMissingSignature)
	}
	msg := tx.Message()
	for _, signer := range signers {
		sig, ok := tx.signatureOf(signer)
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingSignature, signer)
		}
		if len(sig) != ed25519.SignatureSize || !ed25519.Verify(ed25519.PublicKey(signer[:]), msg, sig) {
			return fmt.Errorf("%w: %s", ErrInvalidSignature, signer)
		}
	}
	return nil
}

func (tx *Transaction) signatureOf(signer Pubkey) ([]byte, bool) {
	for _, s := range tx.Signatures {
		if s.Signer == signer {
			return s.Sig, true
		}
	}
	return nil, false
}

// NewKeypairFromSeed 由 32 字节种子确定性地生成密钥对
func NewKeypairFromSeed(seed []byte) (ed25519.PrivateKey, Pubkey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, Pubkey{}, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return priv, PubkeyFromPublicKey(priv.Public().(ed25519.PublicKey)), nil
}
