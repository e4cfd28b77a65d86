// keys/keys.go
// 统一的 Key 定义包，供 VM 和 DB 模块共同使用
package keys

import (
	"strings"
)

// ===================== 版本控制 =====================
// 设置全局 Key 版本前缀（例如 "v1" → 产出 "v1_<key>"）。
const KeyVersion = "v1"

// withVer 把版本号拼到最前面（保持下划线风格：v1_<...>）
func withVer(s string) string {
	if KeyVersion == "" {
		return s
	}
	return KeyVersion + "_" + s
}

// StripVersion 把带版本的键去掉版本前缀
func StripVersion(prefixed string) string {
	if KeyVersion == "" {
		return prefixed
	}
	return strings.TrimPrefix(prefixed, KeyVersion+"_")
}

// ===================== 账户相关 =====================

// KeyAccount 账户（余额 + 所属程序 + 数据区）
// 例：v1_account_<base58>
func KeyAccount(addr string) string {
	return withVer("account_" + addr)
}

// AccountPrefix 全部账户的扫描前缀
func AccountPrefix() string {
	return withVer("account_")
}

// AddressFromAccountKey 从账户键取回地址
func AddressFromAccountKey(key string) (string, bool) {
	p := AccountPrefix()
	if !strings.HasPrefix(key, p) {
		return "", false
	}
	return key[len(p):], true
}

// ===================== 回执相关 =====================

// KeyReceipt 交易执行回执
// 例：v1_receipt_<txID>
func KeyReceipt(txID string) string {
	return withVer("receipt_" + txID)
}

// ReceiptPrefix 回执扫描前缀
func ReceiptPrefix() string {
	return withVer("receipt_")
}
