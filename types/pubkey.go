package types

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// PubkeySize 账户标识长度（ed25519 公钥）
const PubkeySize = 32

// ErrInvalidPubkey 无法解析的账户标识
var ErrInvalidPubkey = errors.New("invalid pubkey")

// Pubkey 32 字节账户标识，文本形式为 base58
type Pubkey [PubkeySize]byte

// SystemProgramID 系统程序（存储分配 + 原生转账），全零地址
var SystemProgramID = Pubkey{}

// PubkeyFromBytes 从原始字节构造
func PubkeyFromBytes(b []byte) (Pubkey, error) {
	var pk Pubkey
	if len(b) != PubkeySize {
		return pk, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidPubkey, PubkeySize, len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// PubkeyFromString 解析 base58 文本
func PubkeyFromString(s string) (Pubkey, error) {
	if s == "" {
		return Pubkey{}, fmt.Errorf("%w: empty string", ErrInvalidPubkey)
	}
	raw := base58.Decode(s)
	if len(raw) == 0 {
		return Pubkey{}, fmt.Errorf("%w: %q is not base58", ErrInvalidPubkey, s)
	}
	return PubkeyFromBytes(raw)
}

// MustPubkey 仅用于常量/测试
func MustPubkey(s string) Pubkey {
	pk, err := PubkeyFromString(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// PubkeyFromPublicKey ed25519 公钥转账户标识
func PubkeyFromPublicKey(pub ed25519.PublicKey) Pubkey {
	var pk Pubkey
	copy(pk[:], pub)
	return pk
}

func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

func (p Pubkey) Bytes() []byte {
	out := make([]byte, PubkeySize)
	copy(out, p[:])
	return out
}

func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

func (p Pubkey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pubkey) UnmarshalText(text []byte) error {
	pk, err := PubkeyFromString(string(text))
	if err != nil {
		return err
	}
	*p = pk
	return nil
}
