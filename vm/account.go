package vm

import (
	"fmt"

	"vault/keys"
	"vault/types"

	"google.golang.org/protobuf/encoding/protowire"
)

// AccountInfo 指令执行期间的账户视图
type AccountInfo struct {
	Key        types.Pubkey
	IsSigner   bool
	IsWritable bool
	Lamports   uint64
	Owner      types.Pubkey // 拥有该账户数据区的程序
	Data       []byte
}

// 实现 vault.AccountView

func (a *AccountInfo) Pubkey() types.Pubkey { return a.Key }
func (a *AccountInfo) Signer() bool         { return a.IsSigner }
func (a *AccountInfo) Writable() bool       { return a.IsWritable }
func (a *AccountInfo) Balance() uint64      { return a.Lamports }
func (a *AccountInfo) DataLen() int         { return len(a.Data) }

// Clone 深拷贝
func (a *AccountInfo) Clone() *AccountInfo {
	c := *a
	if a.Data != nil {
		c.Data = append([]byte(nil), a.Data...)
	}
	return &c
}

// isEmpty 没有余额、没有数据且归系统程序所有的账户不落库
func (a *AccountInfo) isEmpty() bool {
	return a.Lamports == 0 && len(a.Data) == 0 && a.Owner.IsZero()
}

// ========== 存储编码 ==========
//
// field 1: lamports (varint)
// field 2: owner    (bytes, 32)
// field 3: data     (bytes)

const (
	accountFieldLamports protowire.Number = 1
	accountFieldOwner    protowire.Number = 2
	accountFieldData     protowire.Number = 3
)

func encodeAccountRecord(a *AccountInfo) []byte {
	var b []byte
	b = protowire.AppendTag(b, accountFieldLamports, protowire.VarintType)
	b = protowire.AppendVarint(b, a.Lamports)
	b = protowire.AppendTag(b, accountFieldOwner, protowire.BytesType)
	b = protowire.AppendBytes(b, a.Owner.Bytes())
	b = protowire.AppendTag(b, accountFieldData, protowire.BytesType)
	b = protowire.AppendBytes(b, a.Data)
	return b
}

func decodeAccountRecord(key types.Pubkey, b []byte) (*AccountInfo, error) {
	a := &AccountInfo{Key: key}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAccountRecordEncoding, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == accountFieldLamports && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, fmt.Errorf("%w: lamports: %v", ErrInvalidAccountRecordEncoding, protowire.ParseError(m))
			}
			a.Lamports = v
			b = b[m:]
		case num == accountFieldOwner && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, fmt.Errorf("%w: owner: %v", ErrInvalidAccountRecordEncoding, protowire.ParseError(m))
			}
			owner, err := types.PubkeyFromBytes(v)
			if err != nil {
				return nil, fmt.Errorf("%w: owner: %v", ErrInvalidAccountRecord, err)
			}
			a.Owner = owner
			b = b[m:]
		case num == accountFieldData && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, fmt.Errorf("%w: data: %v", ErrInvalidAccountRecordEncoding, protowire.ParseError(m))
			}
			a.Data = append([]byte(nil), v...)
			b = b[m:]
		default:
			// 未知字段跳过，保持前向兼容
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return nil, fmt.Errorf("%w: field %d: %v", ErrInvalidAccountRecordEncoding, num, protowire.ParseError(m))
			}
			b = b[m:]
		}
	}
	return a, nil
}

// ========== StateView 读写 ==========

// loadAccount 读取账户；不存在时返回零余额的系统账户
func loadAccount(sv StateView, key types.Pubkey) (*AccountInfo, error) {
	raw, ok, err := sv.Get(keys.KeyAccount(key.String()))
	if err != nil {
		return nil, fmt.Errorf("read account %s: %w", key, err)
	}
	if !ok {
		return &AccountInfo{Key: key}, nil
	}
	acct, err := decodeAccountRecord(key, raw)
	if err != nil {
		return nil, fmt.Errorf("decode account %s: %w", key, err)
	}
	return acct, nil
}

func storeAccount(sv StateView, a *AccountInfo) {
	k := keys.KeyAccount(a.Key.String())
	if a.isEmpty() {
		sv.Del(k)
		return
	}
	sv.Set(k, encodeAccountRecord(a))
}

// loadInstructionAccounts 按 AccountMeta 解析账户。
// 同一公钥出现多次时共用同一个 *AccountInfo，权限取并集。
// 返回值 ordered 与 metas 一一对应，unique 为去重后的列表（首次出现顺序）。
func loadInstructionAccounts(sv StateView, metas []types.AccountMeta) (ordered, unique []*AccountInfo, err error) {
	byKey := make(map[types.Pubkey]*AccountInfo, len(metas))
	ordered = make([]*AccountInfo, 0, len(metas))
	for _, m := range metas {
		acct, ok := byKey[m.Pubkey]
		if !ok {
			acct, err = loadAccount(sv, m.Pubkey)
			if err != nil {
				return nil, nil, err
			}
			byKey[m.Pubkey] = acct
			unique = append(unique, acct)
		}
		acct.IsSigner = acct.IsSigner || m.IsSigner
		acct.IsWritable = acct.IsWritable || m.IsWritable
		ordered = append(ordered, acct)
	}
	return ordered, unique, nil
}
