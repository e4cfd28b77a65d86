// keys/category.go
// Key 分类：WriteOp 的 Category 字段与提交日志统计都依赖这里
package keys

import "strings"

const (
	CategoryAccount = "account" // 可变账户状态（余额、数据区）
	CategoryReceipt = "receipt" // 不可变执行回执
	CategoryOther   = "other"
)

// CategorizeKey 根据前缀判断 key 的数据分类
func CategorizeKey(key string) string {
	switch {
	case strings.HasPrefix(key, AccountPrefix()):
		return CategoryAccount
	case strings.HasPrefix(key, ReceiptPrefix()):
		return CategoryReceipt
	}
	return CategoryOther
}

// IsAccountKey 判断是否为账户数据
func IsAccountKey(key string) bool {
	return CategorizeKey(key) == CategoryAccount
}

// IsReceiptKey 判断是否为回执
func IsReceiptKey(key string) bool {
	return CategorizeKey(key) == CategoryReceipt
}
