package vm

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"vault/vault"
)

// Handler Kind 常量
const (
	KindVaultInitialize = "vault_initialize"
	KindVaultDeposit    = "vault_deposit"
	KindVaultWithdraw   = "vault_withdraw"
)

// HandlerRegistry Handler注册表
type HandlerRegistry struct {
	mu sync.RWMutex
	m  map[string]InstructionHandler
}

// NewHandlerRegistry 创建新的注册表
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{m: make(map[string]InstructionHandler)}
}

// 注册Handler
func (r *HandlerRegistry) Register(h InstructionHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h == nil {
		return errors.New("nil handler")
	}

	kind := h.Kind()
	if kind == "" {
		return errors.New("empty handler kind")
	}

	if _, ok := r.m[kind]; ok {
		return fmt.Errorf("duplicate handler kind: %s", kind)
	}
	r.m[kind] = h
	return nil
}

// Get 获取Handler
func (r *HandlerRegistry) Get(kind string) (InstructionHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.m[kind]
	return h, ok
}

// List 列出所有已注册的Handler类型（已排序）
func (r *HandlerRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.m))
	for k := range r.m {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// DefaultKindFn 默认的KindFn实现
func DefaultKindFn(ix vault.Instruction) (string, error) {
	switch ix.Tag {
	case vault.TagInitialize:
		return KindVaultInitialize, nil
	case vault.TagDeposit:
		return KindVaultDeposit, nil
	case vault.TagWithdraw:
		return KindVaultWithdraw, nil
	default:
		return "", fmt.Errorf("%w: unknown tag %d", vault.ErrInvalidInstruction, uint8(ix.Tag))
	}
}
